// Package rules interprets raw move choices for rock-paper-scissors rounds.
// The engine stores choices as opaque tokens; this collaborator is the only
// place that assigns meaning to them.
package rules

import "strings"

// Choice tokens recognized by the rock-paper-scissors ruleset.
const (
	ChoiceRock     = "rock"
	ChoicePaper    = "paper"
	ChoiceScissors = "scissors"
)

// Outcome describes one side's result for a finished round.
type Outcome int

const (
	// OutcomeUnknown indicates at least one choice is not a recognized token.
	OutcomeUnknown Outcome = iota
	// OutcomeDraw indicates both sides made the same choice.
	OutcomeDraw
	// OutcomeFirstWins indicates the first choice beats the second.
	OutcomeFirstWins
	// OutcomeSecondWins indicates the second choice beats the first.
	OutcomeSecondWins
)

// String returns the wire token for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDraw:
		return "draw"
	case OutcomeFirstWins:
		return "first_wins"
	case OutcomeSecondWins:
		return "second_wins"
	default:
		return "unknown"
	}
}

var beats = map[string]string{
	ChoiceRock:     ChoiceScissors,
	ChoicePaper:    ChoiceRock,
	ChoiceScissors: ChoicePaper,
}

// Judge compares two raw choices and returns the round outcome. Choices are
// matched case-insensitively; anything outside the ruleset yields
// OutcomeUnknown rather than an error, since the engine never validated them.
func Judge(first, second string) Outcome {
	first = strings.ToLower(strings.TrimSpace(first))
	second = strings.ToLower(strings.TrimSpace(second))

	if _, ok := beats[first]; !ok {
		return OutcomeUnknown
	}
	if _, ok := beats[second]; !ok {
		return OutcomeUnknown
	}
	if first == second {
		return OutcomeDraw
	}
	if beats[first] == second {
		return OutcomeFirstWins
	}
	return OutcomeSecondWins
}
