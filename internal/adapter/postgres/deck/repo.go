// Package deck implements the Deck repository using PostgreSQL.
// The study subsystem only reads decks for ownership checks and touches
// last_studied_at, so the surface is deliberately small.
package deck

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/brainkit/brainkit-backend/internal/adapter/postgres"
	"github.com/brainkit/brainkit-backend/internal/domain"
)

// Repo provides deck persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new deck repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const deckColumns = `id, user_id, name, last_studied_at, created_at`

const getByIDSQL = `
SELECT ` + deckColumns + `
FROM decks
WHERE id = $1 AND user_id = $2`

const touchLastStudiedSQL = `
UPDATE decks
SET last_studied_at = $2
WHERE id = $1`

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// GetByID returns a deck by primary key filtered by user_id.
// Returns domain.ErrNotFound if the deck does not exist or belongs to another user.
func (r *Repo) GetByID(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, deckID, userID)

	deck, err := scanDeck(row)
	if err != nil {
		return nil, postgres.MapError(err, "deck", deckID)
	}

	return deck, nil
}

// TouchLastStudied stamps the deck's last_studied_at.
// Returns domain.ErrNotFound if the deck does not exist.
func (r *Repo) TouchLastStudied(ctx context.Context, deckID uuid.UUID, at time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, touchLastStudiedSQL, deckID, at.UTC())
	if err != nil {
		return postgres.MapError(err, "deck", deckID)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("deck %s: %w", deckID, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanDeck(row pgx.Row) (*domain.Deck, error) {
	var d domain.Deck
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.LastStudiedAt, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
