package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brainkit/brainkit-backend/internal/adapter/postgres/review"
	"github.com/brainkit/brainkit-backend/internal/adapter/postgres/testhelper"
	"github.com/brainkit/brainkit-backend/internal/domain"
)

func newRepo(t *testing.T) (*review.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return review.New(pool), pool
}

func TestRepo_Create(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	d := testhelper.SeedDeck(t, pool, userID)
	card := testhelper.SeedFlashcard(t, pool, d.ID)
	session := testhelper.SeedSession(t, pool, userID, d.ID, []uuid.UUID{card.ID})

	responseTime := 3200
	reviewedAt := time.Now().UTC().Truncate(time.Microsecond)

	created, err := repo.Create(ctx, &domain.CardReview{
		ID:                 uuid.New(),
		SessionID:          &session.ID,
		FlashcardID:        card.ID,
		UserID:             userID,
		Quality:            domain.QualityGood,
		ResponseTimeMs:     &responseTime,
		PreviousInterval:   0,
		NewInterval:        1,
		PreviousEaseFactor: 2.5,
		NewEaseFactor:      2.5,
		ReviewedAt:         reviewedAt,
	})
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	if created.Quality != domain.QualityGood {
		t.Errorf("Quality: got %s, want GOOD", created.Quality)
	}
	if created.SessionID == nil || *created.SessionID != session.ID {
		t.Errorf("SessionID: got %v, want %s", created.SessionID, session.ID)
	}
	if created.ResponseTimeMs == nil || *created.ResponseTimeMs != responseTime {
		t.Errorf("ResponseTimeMs: got %v, want %d", created.ResponseTimeMs, responseTime)
	}
	if !created.ReviewedAt.Equal(reviewedAt) {
		t.Errorf("ReviewedAt: got %v, want %v", created.ReviewedAt, reviewedAt)
	}
}

func TestRepo_ListByFlashcard_NewestFirst(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	d := testhelper.SeedDeck(t, pool, userID)
	card := testhelper.SeedFlashcard(t, pool, d.ID)

	base := time.Now().UTC().Truncate(time.Microsecond).AddDate(0, 0, -10)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		r, err := repo.Create(ctx, &domain.CardReview{
			ID:                 uuid.New(),
			FlashcardID:        card.ID,
			UserID:             userID,
			Quality:            domain.QualityGood,
			PreviousInterval:   i,
			NewInterval:        i + 1,
			PreviousEaseFactor: 2.5,
			NewEaseFactor:      2.5,
			ReviewedAt:         base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("Create[%d]: %v", i, err)
		}
		ids = append(ids, r.ID)
	}

	got, total, err := repo.ListByFlashcard(ctx, card.ID, 3, 0)
	if err != nil {
		t.Fatalf("ListByFlashcard: unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("total: got %d, want 5", total)
	}
	if len(got) != 3 {
		t.Fatalf("page size: got %d, want 3", len(got))
	}
	// Newest first: the last created review leads.
	if got[0].ID != ids[4] {
		t.Errorf("position 0: got %s, want newest %s", got[0].ID, ids[4])
	}

	// Second page continues where the first left off.
	page2, _, err := repo.ListByFlashcard(ctx, card.ID, 3, 3)
	if err != nil {
		t.Fatalf("ListByFlashcard page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 size: got %d, want 2", len(page2))
	}
	if page2[1].ID != ids[0] {
		t.Errorf("last item: got %s, want oldest %s", page2[1].ID, ids[0])
	}
}

func TestRepo_ListByFlashcard_Empty(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)

	d := testhelper.SeedDeck(t, pool, uuid.New())
	card := testhelper.SeedFlashcard(t, pool, d.ID)

	got, total, err := repo.ListByFlashcard(context.Background(), card.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByFlashcard: unexpected error: %v", err)
	}
	if total != 0 || len(got) != 0 {
		t.Errorf("empty history: got %d items, total %d", len(got), total)
	}
}
