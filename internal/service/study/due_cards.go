package study

import (
	"context"
	"fmt"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/pkg/ctxutil"
)

// DueCards returns the deck's current due set without starting a session.
// Purely a read: repeated calls at the same instant return the same set in
// the same order. Never-reviewed cards come first, then most overdue first.
// Returns ErrUnauthorized if no userID is found in context.
func (s *Service) DueCards(ctx context.Context, input DueCardsInput) (*DueResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if _, err := s.decks.GetByID(ctx, userID, input.DeckID); err != nil {
		return nil, fmt.Errorf("study.DueCards: %w", err)
	}

	now := s.clock.Now().UTC()

	// The peek is uncapped: it reports the full backlog even when sessions
	// snapshot a limited number of cards.
	cards, err := s.cards.ListDue(ctx, input.DeckID, now, 0)
	if err != nil {
		return nil, fmt.Errorf("study.DueCards: %w", err)
	}

	return &DueResult{Cards: cards, Total: len(cards)}, nil
}
