package study

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/internal/service/study/sm2"
	"github.com/brainkit/brainkit-backend/pkg/ctxutil"
)

// ReviewCard grades the card at the session cursor and atomically persists
// the new scheduling state, the audit record, and the cursor advance. The
// session enforces strict queue order: a review for any other card returns
// ErrOutOfOrderReview and mutates nothing. A review against a completed
// session returns ErrSessionClosed.
//
// Card state is written with an optimistic-concurrency guard; a lost race
// (another process graded the card between read and write) returns
// ErrConflict and the whole transaction rolls back.
func (s *Service) ReviewCard(ctx context.Context, input ReviewCardInput) (*ReviewResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessions.GetByID(ctx, userID, input.SessionID)
	if err != nil {
		return nil, fmt.Errorf("study.ReviewCard: %w", err)
	}
	if session.Status != domain.SessionStatusActive {
		return nil, domain.ErrSessionClosed
	}

	expected, ok := session.CurrentCard()
	if !ok {
		// Queue exhausted but session still open: nothing left to review.
		return nil, fmt.Errorf("session queue exhausted: %w", domain.ErrOutOfOrderReview)
	}
	if expected != input.FlashcardID {
		return nil, fmt.Errorf("expected card %s at cursor %d: %w",
			expected, session.Cursor, domain.ErrOutOfOrderReview)
	}

	card, err := s.cards.GetByID(ctx, input.FlashcardID)
	if err != nil {
		return nil, fmt.Errorf("study.ReviewCard: %w", err)
	}
	if card.DeckID != session.DeckID {
		return nil, fmt.Errorf("card belongs to another deck: %w", domain.ErrNotFound)
	}

	now := s.clock.Now().UTC()

	graded, err := sm2.Grade(s.params, sm2.State{
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
		Repetitions:  card.Repetitions,
	}, int(input.Quality), now)
	if err != nil {
		return nil, fmt.Errorf("study.ReviewCard: grade: %w", err)
	}

	review := &domain.CardReview{
		ID:                 uuid.New(),
		SessionID:          &session.ID,
		FlashcardID:        card.ID,
		UserID:             userID,
		Quality:            input.Quality,
		ResponseTimeMs:     input.ResponseTimeMs,
		PreviousInterval:   card.IntervalDays,
		NewInterval:        graded.IntervalDays,
		PreviousEaseFactor: card.EaseFactor,
		NewEaseFactor:      graded.EaseFactor,
		ReviewedAt:         now,
	}

	// Card update, audit record, and cursor advance commit together or not
	// at all: a failed CAS on either the card or the cursor rolls back the
	// whole review.
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		update := domain.SRSUpdateParams{
			EaseFactor:     graded.EaseFactor,
			IntervalDays:   graded.IntervalDays,
			Repetitions:    graded.Repetitions,
			NextReviewDate: graded.NextReviewDate,
			LastReviewedAt: now,
		}
		if err := s.cards.UpdateSRS(txCtx, card.ID, card.Version(), update); err != nil {
			return fmt.Errorf("update card state: %w", err)
		}

		if _, err := s.reviews.Create(txCtx, review); err != nil {
			return fmt.Errorf("create review record: %w", err)
		}

		if err := s.sessions.Advance(txCtx, session.ID, session.Cursor); err != nil {
			return fmt.Errorf("advance session: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("study.ReviewCard: %w", err)
	}

	nextDate := graded.NextReviewDate
	card.EaseFactor = graded.EaseFactor
	card.IntervalDays = graded.IntervalDays
	card.Repetitions = graded.Repetitions
	card.NextReviewDate = &nextDate
	card.LastReviewedAt = &now

	session.Cursor++
	session.CardsReviewed++

	s.log.InfoContext(ctx, "card reviewed",
		slog.String("session_id", session.ID.String()),
		slog.String("flashcard_id", card.ID.String()),
		slog.String("quality", input.Quality.String()),
		slog.Int("new_interval", graded.IntervalDays))

	result := &ReviewResult{
		Card:           card,
		Review:         review,
		CardsRemaining: len(session.Queue) - session.Cursor,
	}
	if next, ok := session.CurrentCard(); ok {
		result.NextCardID = next
	}

	return result, nil
}
