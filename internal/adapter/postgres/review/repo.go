// Package review implements the card review log repository using PostgreSQL.
// Review rows are append-only: the log records every graded review with the
// scheduling state on both sides of the transition.
package review

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

// Repo provides card review log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// New creates a new review repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const reviewColumns = `id, session_id, flashcard_id, user_id, quality, response_time_ms,
       previous_interval, new_interval, previous_ease_factor, new_ease_factor, reviewed_at`

const createSQL = `
INSERT INTO card_reviews (` + reviewColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + reviewColumns

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create inserts a review record and returns the persisted domain.CardReview.
func (r *Repo) Create(ctx context.Context, review *domain.CardReview) (*domain.CardReview, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createSQL,
		review.ID,
		review.SessionID,
		review.FlashcardID,
		review.UserID,
		int(review.Quality),
		review.ResponseTimeMs,
		review.PreviousInterval,
		review.NewInterval,
		review.PreviousEaseFactor,
		review.NewEaseFactor,
		review.ReviewedAt.UTC().Truncate(time.Microsecond),
	)

	created, err := scanReview(row)
	if err != nil {
		return nil, postgres.MapError(err, "card_review", review.ID)
	}

	return created, nil
}

// ListByFlashcard returns a page of the card's reviews, newest first, plus
// the total count.
func (r *Repo) ListByFlashcard(ctx context.Context, flashcardID uuid.UUID, limit, offset int) ([]*domain.CardReview, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	countSQL, countArgs, err := r.sb.Select("count(*)").
		From("card_reviews").
		Where(squirrel.Eq{"flashcard_id": flashcardID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build review count query: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	pageSQL, pageArgs, err := r.sb.Select("id", "session_id", "flashcard_id", "user_id", "quality",
		"response_time_ms", "previous_interval", "new_interval",
		"previous_ease_factor", "new_ease_factor", "reviewed_at").
		From("card_reviews").
		Where(squirrel.Eq{"flashcard_id": flashcardID}).
		OrderBy("reviewed_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build review page query: %w", err)
	}

	rows, err := querier.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanReview(row pgx.Row) (*domain.CardReview, error) {
	var (
		rev     domain.CardReview
		quality int
	)

	if err := row.Scan(&rev.ID, &rev.SessionID, &rev.FlashcardID, &rev.UserID, &quality,
		&rev.ResponseTimeMs, &rev.PreviousInterval, &rev.NewInterval,
		&rev.PreviousEaseFactor, &rev.NewEaseFactor, &rev.ReviewedAt); err != nil {
		return nil, err
	}

	rev.Quality = domain.Quality(quality)
	return &rev, nil
}

func scanReviews(rows pgx.Rows) ([]*domain.CardReview, error) {
	var reviews []*domain.CardReview
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if reviews == nil {
		reviews = []*domain.CardReview{}
	}

	return reviews, nil
}
