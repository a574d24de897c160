package study

import (
	"context"
	"fmt"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/pkg/ctxutil"
)

const defaultHistoryLimit = 20

// CardHistory returns a page of the card's review log, newest first.
// The card must belong to a deck owned by the caller; anything else is
// ErrNotFound.
func (s *Service) CardHistory(ctx context.Context, input CardHistoryInput) (*HistoryResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	card, err := s.cards.GetByID(ctx, input.FlashcardID)
	if err != nil {
		return nil, fmt.Errorf("study.CardHistory: %w", err)
	}
	if _, err := s.decks.GetByID(ctx, userID, card.DeckID); err != nil {
		return nil, fmt.Errorf("study.CardHistory: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	reviews, total, err := s.reviews.ListByFlashcard(ctx, input.FlashcardID, limit, input.Offset)
	if err != nil {
		return nil, fmt.Errorf("study.CardHistory: %w", err)
	}

	return &HistoryResult{Reviews: reviews, Total: total}, nil
}
