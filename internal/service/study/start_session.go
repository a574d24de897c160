package study

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/pkg/ctxutil"
)

// StartSession snapshots the deck's due set and opens a study session over it.
// The snapshot is ordered (never-reviewed first, then most overdue) and frozen:
// cards becoming due later do not join an open session. When the due set is
// empty no session row is created and the result carries Empty=true.
// Returns ErrUnauthorized if no userID is found in context.
func (s *Service) StartSession(ctx context.Context, input StartSessionInput) (*StartResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	// Ownership check: an unknown deck and someone else's deck both surface
	// as ErrNotFound.
	if _, err := s.decks.GetByID(ctx, userID, input.DeckID); err != nil {
		return nil, fmt.Errorf("study.StartSession: %w", err)
	}

	now := s.clock.Now().UTC()

	cards, err := s.cards.ListDue(ctx, input.DeckID, now, s.sessionCardLimit)
	if err != nil {
		return nil, fmt.Errorf("study.StartSession: list due: %w", err)
	}

	if len(cards) == 0 {
		s.log.InfoContext(ctx, "study session not started: no cards due",
			slog.String("deck_id", input.DeckID.String()))
		return &StartResult{Empty: true}, nil
	}

	queue := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		queue[i] = c.ID
	}

	session := &domain.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    input.DeckID,
		Status:    domain.SessionStatusActive,
		Queue:     queue,
		Cursor:    0,
		StartedAt: now,
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("study.StartSession: create session: %w", err)
	}

	s.log.InfoContext(ctx, "study session started",
		slog.String("session_id", created.ID.String()),
		slog.String("deck_id", input.DeckID.String()),
		slog.Int("cards", len(queue)))

	return &StartResult{Session: created, Cards: cards}, nil
}
