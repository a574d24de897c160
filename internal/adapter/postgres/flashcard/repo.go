// Package flashcard implements the scheduling-state repository for flashcards
// using PostgreSQL. Due-set selection is built with squirrel since its WHERE
// and LIMIT shape varies by caller; state writes use raw SQL with an
// optimistic-concurrency guard.
package flashcard

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/brainkit/brainkit-backend/internal/adapter/postgres"
	"github.com/brainkit/brainkit-backend/internal/domain"
)

// Repo provides flashcard scheduling-state persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// New creates a new flashcard repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const flashcardColumns = `id, deck_id, ease_factor, interval_days, repetitions,
       next_review_date, last_reviewed_at, created_at, updated_at`

const getByIDSQL = `
SELECT ` + flashcardColumns + `
FROM flashcards
WHERE id = $1`

// updateSRSSQL applies new scheduling state only when the row still carries
// the state the review was graded against. Repetitions plus next_review_date
// together act as the version token; IS NOT DISTINCT FROM makes the NULL
// (never reviewed) case compare correctly.
const updateSRSSQL = `
UPDATE flashcards
SET ease_factor = $2,
    interval_days = $3,
    repetitions = $4,
    next_review_date = $5,
    last_reviewed_at = $6,
    updated_at = now()
WHERE id = $1
  AND repetitions = $7
  AND next_review_date IS NOT DISTINCT FROM $8`

const existsSQL = `SELECT EXISTS (SELECT 1 FROM flashcards WHERE id = $1)`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a flashcard's scheduling state by primary key.
// Returns domain.ErrNotFound if the card does not exist.
func (r *Repo) GetByID(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, cardID)

	card, err := scanFlashcard(row)
	if err != nil {
		return nil, postgres.MapError(err, "flashcard", cardID)
	}

	return card, nil
}

// ListDue returns the deck's due cards in stable study order: never-reviewed
// cards first, then most overdue first, ties broken by id. limit <= 0 returns
// the whole due set.
func (r *Repo) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error) {
	query := r.dueQuery(deckID, now).
		Columns("id", "deck_id", "ease_factor", "interval_days", "repetitions",
			"next_review_date", "last_reviewed_at", "created_at", "updated_at").
		OrderBy("next_review_date ASC NULLS FIRST", "id ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanFlashcards(rows)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}

	return cards, nil
}

// CountDue returns the number of cards currently due in the deck.
func (r *Repo) CountDue(ctx context.Context, deckID uuid.UUID, now time.Time) (int, error) {
	sql, args, err := r.dueQuery(deckID, now).Columns("count(*)").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build due count query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count due cards: %w", err)
	}

	return count, nil
}

// dueQuery is the shared due-set predicate: never-reviewed cards (NULL
// next_review_date) are always due, the rest when their date has arrived.
func (r *Repo) dueQuery(deckID uuid.UUID, now time.Time) squirrel.SelectBuilder {
	return r.sb.Select().
		From("flashcards").
		Where(squirrel.Eq{"deck_id": deckID}).
		Where(squirrel.Or{
			squirrel.Eq{"next_review_date": nil},
			squirrel.LtOrEq{"next_review_date": now.UTC()},
		})
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// UpdateSRS applies new scheduling state guarded by the version the review
// was computed against. Returns domain.ErrConflict when the guard fails
// (another review got there first) and domain.ErrNotFound for unknown cards.
func (r *Repo) UpdateSRS(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, updateSRSSQL,
		cardID,
		params.EaseFactor,
		params.IntervalDays,
		params.Repetitions,
		params.NextReviewDate.UTC(),
		params.LastReviewedAt.UTC(),
		prev.Repetitions,
		prev.NextReviewDate,
	)
	if err != nil {
		return postgres.MapError(err, "flashcard", cardID)
	}

	if ct.RowsAffected() == 0 {
		// Zero rows means either the card vanished or the guard failed;
		// tell the two apart so callers can retry the right way.
		var exists bool
		if err := querier.QueryRow(ctx, existsSQL, cardID).Scan(&exists); err != nil {
			return postgres.MapError(err, "flashcard", cardID)
		}
		if !exists {
			return fmt.Errorf("flashcard %s: %w", cardID, domain.ErrNotFound)
		}
		return fmt.Errorf("flashcard %s: %w", cardID, domain.ErrConflict)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanFlashcard(row pgx.Row) (*domain.Flashcard, error) {
	var f domain.Flashcard
	if err := row.Scan(&f.ID, &f.DeckID, &f.EaseFactor, &f.IntervalDays, &f.Repetitions,
		&f.NextReviewDate, &f.LastReviewedAt, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFlashcards(rows pgx.Rows) ([]*domain.Flashcard, error) {
	var cards []*domain.Flashcard
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if cards == nil {
		cards = []*domain.Flashcard{}
	}

	return cards, nil
}
