// Package storage defines persistence contracts for match service state.
package storage

import (
	"context"
	"errors"

	"github.com/arenakit/arena/internal/services/match/domain"
)

var (
	// ErrNotFound indicates a requested session record is missing.
	ErrNotFound = errors.New("session not found")
	// ErrSessionExists indicates a session id collided on creation.
	ErrSessionExists = errors.New("session already exists")
	// ErrDuplicateMove indicates a participant already moved in a session.
	ErrDuplicateMove = errors.New("move already submitted")
)

// Counts holds the per-session counters that drive phase derivation.
type Counts struct {
	Participants int
	Moves        int
}

// Tx exposes the repository primitives available inside one transaction.
// Every method observes the same consistent snapshot; effects become visible
// to other callers only when the enclosing Update commits.
type Tx interface {
	// FindJoinableSession returns the id of a session with a single
	// participant, or ("", false) when none exists. The pick among eligible
	// sessions is arbitrary: pairing order is deliberately non-deterministic.
	FindJoinableSession() (string, bool, error)

	// CreateSession inserts a session with one participant. Returns
	// ErrSessionExists when the id collides.
	CreateSession(id string) error

	// ClaimOpenSeat increments the participant count of a session only if it
	// still has exactly one participant, reporting whether the seat was won.
	ClaimOpenSeat(id string) (bool, error)

	// SessionCounts returns both counters for a session, or ErrNotFound.
	SessionCounts(id string) (Counts, error)

	// InsertMove records a participant's choice. Returns ErrDuplicateMove on
	// a repeated (session, participant) pair and ErrNotFound when the session
	// is unknown.
	InsertMove(sessionID, participantID, choice string) error

	// ListMoves returns a session's moves in insertion order.
	ListMoves(sessionID string) ([]domain.Move, error)
}

// SessionStore persists sessions and moves. Update runs fn inside a single
// writable transaction, committing when fn returns nil and discarding all
// effects otherwise. View runs fn read-only against one consistent snapshot.
type SessionStore interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
