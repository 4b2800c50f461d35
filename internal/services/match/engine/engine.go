// Package engine implements the session-matchmaking and move-submission
// engine. Every operation runs its repository primitives inside a single
// storage transaction, so invariants hold under concurrent callers without
// in-process locks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errs "github.com/arenakit/arena/internal/platform/errors"
	"github.com/arenakit/arena/internal/platform/id"
	"github.com/arenakit/arena/internal/services/match/domain"
	"github.com/arenakit/arena/internal/services/match/storage"
)

// Engine pairs participants into sessions and collects their moves.
type Engine struct {
	store       storage.SessionStore
	idGenerator func() (string, error)
}

// New creates an Engine with default dependencies.
func New(store storage.SessionStore) *Engine {
	return &Engine{
		store:       store,
		idGenerator: id.NewID,
	}
}

// NewWithIDGenerator creates an Engine with an injected identifier source.
func NewWithIDGenerator(store storage.SessionStore, idGenerator func() (string, error)) *Engine {
	e := New(store)
	if idGenerator != nil {
		e.idGenerator = idGenerator
	}
	return e
}

// Join attaches the caller to a session with an open seat, or creates a new
// session when none is open. It returns the session id with a freshly issued
// participant id. Among open sessions the pick is arbitrary: pairing carries
// no fairness or FIFO guarantee.
func (e *Engine) Join(ctx context.Context) (sessionID, participantID string, err error) {
	if e == nil || e.store == nil {
		return "", "", errors.New("session store is not configured")
	}

	participantID, err = e.idGenerator()
	if err != nil {
		return "", "", fmt.Errorf("generate participant id: %w", err)
	}

	err = e.store.Update(ctx, func(tx storage.Tx) error {
		openID, found, err := tx.FindJoinableSession()
		if err != nil {
			return err
		}
		if found {
			// The conditional increment keeps participant_count <= 2 even if
			// the lookup snapshot raced a concurrent join; the loser falls
			// through to a fresh session.
			won, err := tx.ClaimOpenSeat(openID)
			if err != nil {
				return err
			}
			if won {
				sessionID = openID
				return nil
			}
		}

		newID, err := e.idGenerator()
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		if err := tx.CreateSession(newID); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		sessionID = newID
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("join session: %w", err)
	}
	return sessionID, participantID, nil
}

// GetState returns the session counters and derived phase.
func (e *Engine) GetState(ctx context.Context, sessionID string) (domain.State, error) {
	if e == nil || e.store == nil {
		return domain.State{}, errors.New("session store is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.State{}, errs.New(errs.CodeInvalidArgument, "session id is required")
	}

	var state domain.State
	err := e.store.View(ctx, func(tx storage.Tx) error {
		counts, err := tx.SessionCounts(sessionID)
		if err != nil {
			return err
		}
		state = domain.State{
			ParticipantCount: counts.Participants,
			MoveCount:        counts.Moves,
			Phase:            domain.PhaseFor(counts.Participants, counts.Moves),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.State{}, notFound(sessionID)
		}
		return domain.State{}, fmt.Errorf("get session state: %w", err)
	}
	return state, nil
}

// SubmitMove records one participant's choice. The choice is an opaque token
// the engine attaches no meaning to. The phase gate and the insert are
// evaluated against the same transactional snapshot, so a move can never slip
// in after the session has logically finished.
func (e *Engine) SubmitMove(ctx context.Context, sessionID, participantID, choice string) error {
	if e == nil || e.store == nil {
		return errors.New("session store is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	participantID = strings.TrimSpace(participantID)
	if sessionID == "" {
		return errs.New(errs.CodeInvalidArgument, "session id is required")
	}
	if participantID == "" {
		return errs.New(errs.CodeInvalidArgument, "participant id is required")
	}

	err := e.store.Update(ctx, func(tx storage.Tx) error {
		counts, err := tx.SessionCounts(sessionID)
		if err != nil {
			return err
		}
		switch domain.PhaseFor(counts.Participants, counts.Moves) {
		case domain.PhaseWaitingForOpponent:
			return errs.WithMetadata(errs.CodeSessionNotReady,
				"needs second participant",
				map[string]string{"session_id": sessionID})
		case domain.PhaseFinished:
			return errs.WithMetadata(errs.CodeSessionFinished,
				"session already finished",
				map[string]string{"session_id": sessionID})
		}
		return tx.InsertMove(sessionID, participantID, choice)
	})
	if err != nil {
		var domainErr *errs.Error
		if errors.As(err, &domainErr) {
			return domainErr
		}
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(sessionID)
		}
		if errors.Is(err, storage.ErrDuplicateMove) {
			return errs.WithMetadata(errs.CodeDuplicateMove,
				"participant already submitted a move",
				map[string]string{"session_id": sessionID, "participant_id": participantID})
		}
		return fmt.Errorf("submit move: %w", err)
	}
	return nil
}

// GetResults returns the session's moves in submission order. A session with
// fewer than two moves yields a shorter sequence, not an error.
func (e *Engine) GetResults(ctx context.Context, sessionID string) ([]domain.Move, error) {
	if e == nil || e.store == nil {
		return nil, errors.New("session store is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "session id is required")
	}

	var moves []domain.Move
	err := e.store.View(ctx, func(tx storage.Tx) error {
		// Existence check first: "no session" and "no moves yet" are
		// different answers.
		if _, err := tx.SessionCounts(sessionID); err != nil {
			return err
		}
		var err error
		moves, err = tx.ListMoves(sessionID)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound(sessionID)
		}
		return nil, fmt.Errorf("get session results: %w", err)
	}
	return moves, nil
}

func notFound(sessionID string) *errs.Error {
	return errs.WithMetadata(errs.CodeSessionNotFound, "session not found",
		map[string]string{"session_id": sessionID})
}
