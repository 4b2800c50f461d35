// Package domain defines the entities and derived state for match sessions.
//
// A Session pairs up to two anonymous participants for a single round. Each
// participant submits at most one Move. The session's Phase is never stored:
// it is derived from the participant count and the move count, and only moves
// forward (waiting for an opponent, waiting for moves, finished).
package domain
