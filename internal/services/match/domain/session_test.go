package domain

import "testing"

func TestPhaseForDerivation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		participants int
		moves        int
		want         Phase
	}{
		{"empty session", 0, 0, PhaseWaitingForOpponent},
		{"single participant", 1, 0, PhaseWaitingForOpponent},
		{"paired no moves", 2, 0, PhaseWaitingForMoves},
		{"paired one move", 2, 1, PhaseWaitingForMoves},
		{"paired both moves", 2, 2, PhaseFinished},
	}
	for _, tc := range cases {
		if got := PhaseFor(tc.participants, tc.moves); got != tc.want {
			t.Fatalf("%s: phase = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		phase Phase
		want  string
	}{
		{PhaseWaitingForOpponent, "waiting_for_opponent"},
		{PhaseWaitingForMoves, "waiting_for_moves"},
		{PhaseFinished, "finished"},
		{PhaseUnspecified, "unspecified"},
	}
	for _, tc := range cases {
		if got := tc.phase.String(); got != tc.want {
			t.Fatalf("phase string = %q, want %q", got, tc.want)
		}
	}
}
