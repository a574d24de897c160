package study

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/pkg/ctxutil"
)

// CompleteSession transitions a session to COMPLETED and returns a summary.
// Completion is allowed at any cursor position: abandoning a session early is
// a normal flow, and reviewed cards keep their new schedules. Completing an
// already-completed session returns ErrSessionClosed.
//
// DurationSeconds in the input is the client's own measurement; when absent
// the server computes wall time from the session start. CardsRemaining in the
// summary is recomputed against the live due set, so it includes cards that
// became due while the session ran.
func (s *Service) CompleteSession(ctx context.Context, input CompleteSessionInput) (*domain.SessionSummary, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessions.GetByID(ctx, userID, input.SessionID)
	if err != nil {
		return nil, fmt.Errorf("study.CompleteSession: %w", err)
	}

	now := s.clock.Now().UTC()

	duration := int(now.Sub(session.StartedAt).Seconds())
	if input.DurationSeconds != nil {
		duration = *input.DurationSeconds
	}
	if duration < 0 {
		duration = 0
	}

	completed, err := s.sessions.Complete(ctx, userID, input.SessionID, now, duration)
	if err != nil {
		return nil, fmt.Errorf("study.CompleteSession: %w", err)
	}

	if err := s.decks.TouchLastStudied(ctx, completed.DeckID, now); err != nil {
		// The session is already completed; a failed touch only leaves the
		// deck list ordering stale.
		s.log.WarnContext(ctx, "failed to touch deck last_studied_at",
			slog.String("deck_id", completed.DeckID.String()),
			slog.Any("error", err))
	}

	remaining, err := s.cards.CountDue(ctx, completed.DeckID, now)
	if err != nil {
		return nil, fmt.Errorf("study.CompleteSession: count due: %w", err)
	}

	s.log.InfoContext(ctx, "study session completed",
		slog.String("session_id", completed.ID.String()),
		slog.Int("cards_reviewed", completed.CardsReviewed),
		slog.Int("duration_seconds", duration))

	summary := &domain.SessionSummary{
		SessionID:       completed.ID,
		DeckID:          completed.DeckID,
		CardsReviewed:   completed.CardsReviewed,
		DurationSeconds: duration,
		CardsRemaining:  remaining,
		StartedAt:       completed.StartedAt,
		CompletedAt:     now,
	}
	return summary, nil
}
