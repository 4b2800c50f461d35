package domain

// MaxParticipants is the number of participants that complete a session.
const MaxParticipants = 2

// Phase describes the derived lifecycle state of a session.
type Phase int

const (
	// PhaseUnspecified represents an invalid phase value.
	PhaseUnspecified Phase = iota
	// PhaseWaitingForOpponent indicates the session has a single participant.
	PhaseWaitingForOpponent
	// PhaseWaitingForMoves indicates the session is paired but moves are outstanding.
	PhaseWaitingForMoves
	// PhaseFinished indicates every participant has submitted a move.
	PhaseFinished
)

// String returns the wire token for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaitingForOpponent:
		return "waiting_for_opponent"
	case PhaseWaitingForMoves:
		return "waiting_for_moves"
	case PhaseFinished:
		return "finished"
	default:
		return "unspecified"
	}
}

// PhaseFor derives the session phase from its counters.
func PhaseFor(participantCount, moveCount int) Phase {
	if participantCount < MaxParticipants {
		return PhaseWaitingForOpponent
	}
	if moveCount < participantCount {
		return PhaseWaitingForMoves
	}
	return PhaseFinished
}

// Session represents a matchmaking unit pairing up to two participants.
type Session struct {
	ID               string
	ParticipantCount int
}

// Move is a participant's single choice submitted within a session. The
// choice is an opaque token; interpreting it is a collaborator's concern.
type Move struct {
	SessionID     string
	ParticipantID string
	Choice        string
}

// State is the derived view of a session returned to callers.
type State struct {
	ParticipantCount int
	MoveCount        int
	Phase            Phase
}
