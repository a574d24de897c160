package study

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/internal/service/study/sm2"
	"github.com/brainkit/brainkit-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, decks deckRepo, cards flashcardRepo, sessions sessionRepo, reviews reviewRepo, tx txManager) *Service {
	t.Helper()
	if tx == nil {
		tx = &txManagerMock{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(logger, decks, cards, sessions, reviews, tx,
		clockwork.NewFakeClockAt(testNow), sm2.DefaultParams(), 0)
	require.NoError(t, err)
	return svc
}

func authedCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithUserID(context.Background(), userID)
}

func newCard(deckID uuid.UUID) *domain.Flashcard {
	return &domain.Flashcard{
		ID:           uuid.New(),
		DeckID:       deckID,
		EaseFactor:   2.5,
		IntervalDays: 0,
		Repetitions:  0,
	}
}

func okDeckRepo(userID, deckID uuid.UUID) *deckRepoMock {
	return &deckRepoMock{
		GetByIDFunc: func(ctx context.Context, uid, did uuid.UUID) (*domain.Deck, error) {
			if uid != userID || did != deckID {
				return nil, domain.ErrNotFound
			}
			return &domain.Deck{ID: deckID, UserID: userID, Name: "Spanish"}, nil
		},
		TouchLastStudiedFunc: func(ctx context.Context, did uuid.UUID, at time.Time) error {
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// StartSession
// ---------------------------------------------------------------------------

func TestService_StartSession_SnapshotsDueSet(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	due := []*domain.Flashcard{newCard(deckID), newCard(deckID), newCard(deckID)}

	cards := &flashcardRepoMock{
		ListDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error) {
			assert.Equal(t, deckID, did)
			assert.Equal(t, testNow, now)
			return due, nil
		},
	}
	sessions := &sessionRepoMock{
		CreateFunc: func(ctx context.Context, s *domain.StudySession) (*domain.StudySession, error) {
			return s, nil
		},
	}

	svc := newTestService(t, okDeckRepo(userID, deckID), cards, sessions, nil, nil)
	res, err := svc.StartSession(authedCtx(userID), StartSessionInput{DeckID: deckID})

	require.NoError(t, err)
	assert.False(t, res.Empty)
	require.NotNil(t, res.Session)
	assert.Equal(t, domain.SessionStatusActive, res.Session.Status)
	assert.Equal(t, 0, res.Session.Cursor)
	require.Len(t, res.Session.Queue, 3)
	for i, c := range due {
		assert.Equal(t, c.ID, res.Session.Queue[i], "queue preserves due order at %d", i)
	}
	assert.Equal(t, due, res.Cards)
	assert.Equal(t, 1, sessions.CreateCalls())
}

func TestService_StartSession_EmptyDueSet(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()

	cards := &flashcardRepoMock{
		ListDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error) {
			return nil, nil
		},
	}
	sessions := &sessionRepoMock{}

	svc := newTestService(t, okDeckRepo(userID, deckID), cards, sessions, nil, nil)
	res, err := svc.StartSession(authedCtx(userID), StartSessionInput{DeckID: deckID})

	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Nil(t, res.Session)
	assert.Zero(t, sessions.CreateCalls(), "no session row for an empty due set")
}

func TestService_StartSession_DeckNotOwned(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()

	// Deck belongs to someone else: repo reports not found.
	svc := newTestService(t, okDeckRepo(uuid.New(), deckID), &flashcardRepoMock{}, &sessionRepoMock{}, nil, nil)
	_, err := svc.StartSession(authedCtx(userID), StartSessionInput{DeckID: deckID})

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_StartSession_NoUserInContext(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &deckRepoMock{}, &flashcardRepoMock{}, &sessionRepoMock{}, nil, nil)
	_, err := svc.StartSession(context.Background(), StartSessionInput{DeckID: uuid.New()})

	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_StartSession_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &deckRepoMock{}, &flashcardRepoMock{}, &sessionRepoMock{}, nil, nil)
	_, err := svc.StartSession(authedCtx(uuid.New()), StartSessionInput{})

	require.ErrorIs(t, err, domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// ReviewCard
// ---------------------------------------------------------------------------

// reviewFixture wires a one-session world where the queue holds card at
// cursor 0 and a second card after it.
type reviewFixture struct {
	userID  uuid.UUID
	deckID  uuid.UUID
	card    *domain.Flashcard
	nextID  uuid.UUID
	session *domain.StudySession

	cards    *flashcardRepoMock
	sessions *sessionRepoMock
	reviews  *reviewRepoMock
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	f := &reviewFixture{
		userID: uuid.New(),
		deckID: uuid.New(),
		nextID: uuid.New(),
	}
	f.card = newCard(f.deckID)
	f.session = &domain.StudySession{
		ID:        uuid.New(),
		UserID:    f.userID,
		DeckID:    f.deckID,
		Status:    domain.SessionStatusActive,
		Queue:     []uuid.UUID{f.card.ID, f.nextID},
		Cursor:    0,
		StartedAt: testNow.Add(-2 * time.Minute),
	}

	f.cards = &flashcardRepoMock{
		GetByIDFunc: func(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error) {
			if cardID != f.card.ID {
				return nil, domain.ErrNotFound
			}
			c := *f.card
			return &c, nil
		},
		UpdateSRSFunc: func(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error {
			return nil
		},
	}
	f.sessions = &sessionRepoMock{
		GetByIDFunc: func(ctx context.Context, uid, sid uuid.UUID) (*domain.StudySession, error) {
			if uid != f.userID || sid != f.session.ID {
				return nil, domain.ErrNotFound
			}
			s := *f.session
			return &s, nil
		},
		AdvanceFunc: func(ctx context.Context, sid uuid.UUID, fromCursor int) error {
			return nil
		},
	}
	f.reviews = &reviewRepoMock{
		CreateFunc: func(ctx context.Context, r *domain.CardReview) (*domain.CardReview, error) {
			return r, nil
		},
	}
	return f
}

func (f *reviewFixture) service(t *testing.T) *Service {
	return newTestService(t, okDeckRepo(f.userID, f.deckID), f.cards, f.sessions, f.reviews, nil)
}

func TestService_ReviewCard_GoodOnNewCard(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	svc := f.service(t)

	res, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityGood,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Card.Repetitions)
	assert.Equal(t, 1, res.Card.IntervalDays)
	assert.Equal(t, 2.5, res.Card.EaseFactor)
	require.NotNil(t, res.Card.NextReviewDate)
	assert.Equal(t, time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC), *res.Card.NextReviewDate)

	assert.Equal(t, f.nextID, res.NextCardID)
	assert.Equal(t, 1, res.CardsRemaining)

	require.NotNil(t, res.Review)
	assert.Equal(t, 0, res.Review.PreviousInterval)
	assert.Equal(t, 1, res.Review.NewInterval)
	assert.Equal(t, f.session.ID, *res.Review.SessionID)

	assert.Equal(t, 1, f.cards.UpdateSRSCalls())
	assert.Equal(t, 1, f.reviews.CreateCalls())
	assert.Equal(t, 1, f.sessions.AdvanceCalls())
}

func TestService_ReviewCard_LapseResets(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	f.card.EaseFactor = 2.5
	f.card.IntervalDays = 20
	f.card.Repetitions = 5
	svc := f.service(t)

	res, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityHard,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Card.Repetitions)
	assert.Equal(t, 1, res.Card.IntervalDays)
	assert.InDelta(t, 2.3, res.Card.EaseFactor, 1e-9)
}

func TestService_ReviewCard_OutOfOrder(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	svc := f.service(t)

	// Target the second card while the first is at the cursor.
	_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.nextID,
		Quality:     domain.QualityGood,
	})

	require.ErrorIs(t, err, domain.ErrOutOfOrderReview)
	assert.Zero(t, f.cards.UpdateSRSCalls(), "no state mutated on order violation")
	assert.Zero(t, f.sessions.AdvanceCalls())
}

func TestService_ReviewCard_ExhaustedQueue(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	f.session.Cursor = len(f.session.Queue)
	svc := f.service(t)

	_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityGood,
	})

	require.ErrorIs(t, err, domain.ErrOutOfOrderReview)
}

func TestService_ReviewCard_SessionClosed(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	f.session.Status = domain.SessionStatusCompleted
	svc := f.service(t)

	_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityGood,
	})

	require.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Zero(t, f.cards.UpdateSRSCalls())
}

func TestService_ReviewCard_InvalidGrade(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	svc := f.service(t)

	for _, q := range []domain.Quality{0, 2, 4, 6} {
		_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
			SessionID:   f.session.ID,
			FlashcardID: f.card.ID,
			Quality:     q,
		})
		require.ErrorIs(t, err, domain.ErrInvalidGrade, "quality %d", q)
	}
	assert.Zero(t, f.cards.UpdateSRSCalls())
}

func TestService_ReviewCard_ConcurrentModification(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	f.cards.UpdateSRSFunc = func(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error {
		return domain.ErrConflict
	}
	svc := f.service(t)

	_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityGood,
	})

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, f.sessions.AdvanceCalls(), "cursor not advanced after lost race")
}

func TestService_ReviewCard_CardFromAnotherDeck(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	f.card.DeckID = uuid.New()
	svc := f.service(t)

	_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityGood,
	})

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ReviewCard_VersionGuardCarriesReadState(t *testing.T) {
	t.Parallel()

	f := newReviewFixture(t)
	prior := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	f.card.Repetitions = 3
	f.card.IntervalDays = 9
	f.card.NextReviewDate = &prior

	var gotPrev domain.SRSVersion
	f.cards.UpdateSRSFunc = func(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error {
		gotPrev = prev
		return nil
	}
	svc := f.service(t)

	_, err := svc.ReviewCard(authedCtx(f.userID), ReviewCardInput{
		SessionID:   f.session.ID,
		FlashcardID: f.card.ID,
		Quality:     domain.QualityGood,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, gotPrev.Repetitions)
	require.NotNil(t, gotPrev.NextReviewDate)
	assert.Equal(t, prior, *gotPrev.NextReviewDate)
}

// ---------------------------------------------------------------------------
// CompleteSession
// ---------------------------------------------------------------------------

func TestService_CompleteSession_ServerComputedDuration(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	session := &domain.StudySession{
		ID:            uuid.New(),
		UserID:        userID,
		DeckID:        deckID,
		Status:        domain.SessionStatusActive,
		Queue:         []uuid.UUID{uuid.New(), uuid.New()},
		Cursor:        2,
		CardsReviewed: 2,
		StartedAt:     testNow.Add(-90 * time.Second),
	}

	decks := okDeckRepo(userID, deckID)
	cards := &flashcardRepoMock{
		CountDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time) (int, error) {
			return 4, nil
		},
	}
	sessions := &sessionRepoMock{
		GetByIDFunc: func(ctx context.Context, uid, sid uuid.UUID) (*domain.StudySession, error) {
			s := *session
			return &s, nil
		},
		CompleteFunc: func(ctx context.Context, uid, sid uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error) {
			assert.Equal(t, 90, durationSeconds)
			s := *session
			s.Status = domain.SessionStatusCompleted
			s.CompletedAt = &completedAt
			s.DurationSeconds = &durationSeconds
			return &s, nil
		},
	}

	svc := newTestService(t, decks, cards, sessions, nil, nil)
	summary, err := svc.CompleteSession(authedCtx(userID), CompleteSessionInput{SessionID: session.ID})

	require.NoError(t, err)
	assert.Equal(t, session.ID, summary.SessionID)
	assert.Equal(t, 2, summary.CardsReviewed)
	assert.Equal(t, 90, summary.DurationSeconds)
	assert.Equal(t, 4, summary.CardsRemaining, "remaining recomputed against live due set")
	assert.Equal(t, 1, decks.TouchLastStudiedCalls())
}

func TestService_CompleteSession_ClientDurationWins(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	session := &domain.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Status:    domain.SessionStatusActive,
		StartedAt: testNow.Add(-time.Hour),
	}

	sessions := &sessionRepoMock{
		GetByIDFunc: func(ctx context.Context, uid, sid uuid.UUID) (*domain.StudySession, error) {
			s := *session
			return &s, nil
		},
		CompleteFunc: func(ctx context.Context, uid, sid uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error) {
			assert.Equal(t, 125, durationSeconds)
			s := *session
			s.Status = domain.SessionStatusCompleted
			return &s, nil
		},
	}
	cards := &flashcardRepoMock{
		CountDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time) (int, error) { return 0, nil },
	}

	svc := newTestService(t, okDeckRepo(userID, deckID), cards, sessions, nil, nil)
	summary, err := svc.CompleteSession(authedCtx(userID), CompleteSessionInput{
		SessionID:       session.ID,
		DurationSeconds: ptr(125),
	})

	require.NoError(t, err)
	assert.Equal(t, 125, summary.DurationSeconds)
}

func TestService_CompleteSession_AlreadyCompleted(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	sessionID := uuid.New()

	sessions := &sessionRepoMock{
		GetByIDFunc: func(ctx context.Context, uid, sid uuid.UUID) (*domain.StudySession, error) {
			return &domain.StudySession{
				ID:        sessionID,
				UserID:    userID,
				DeckID:    deckID,
				Status:    domain.SessionStatusCompleted,
				StartedAt: testNow.Add(-time.Hour),
			}, nil
		},
		CompleteFunc: func(ctx context.Context, uid, sid uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error) {
			return nil, domain.ErrSessionClosed
		},
	}

	svc := newTestService(t, okDeckRepo(userID, deckID), &flashcardRepoMock{}, sessions, nil, nil)
	_, err := svc.CompleteSession(authedCtx(userID), CompleteSessionInput{SessionID: sessionID})

	require.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestService_CompleteSession_TouchFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	session := &domain.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Status:    domain.SessionStatusActive,
		StartedAt: testNow.Add(-time.Minute),
	}

	decks := okDeckRepo(userID, deckID)
	decks.TouchLastStudiedFunc = func(ctx context.Context, did uuid.UUID, at time.Time) error {
		return errors.New("deadlock detected")
	}
	sessions := &sessionRepoMock{
		GetByIDFunc: func(ctx context.Context, uid, sid uuid.UUID) (*domain.StudySession, error) {
			s := *session
			return &s, nil
		},
		CompleteFunc: func(ctx context.Context, uid, sid uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error) {
			s := *session
			s.Status = domain.SessionStatusCompleted
			return &s, nil
		},
	}
	cards := &flashcardRepoMock{
		CountDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time) (int, error) { return 0, nil },
	}

	svc := newTestService(t, decks, cards, sessions, nil, nil)
	_, err := svc.CompleteSession(authedCtx(userID), CompleteSessionInput{SessionID: session.ID})

	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// DueCards
// ---------------------------------------------------------------------------

func TestService_DueCards_Uncapped(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	due := []*domain.Flashcard{newCard(deckID), newCard(deckID)}

	cards := &flashcardRepoMock{
		ListDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error) {
			assert.Zero(t, limit, "peek must not cap the due set")
			return due, nil
		},
	}

	svc := newTestService(t, okDeckRepo(userID, deckID), cards, &sessionRepoMock{}, nil, nil)
	res, err := svc.DueCards(authedCtx(userID), DueCardsInput{DeckID: deckID})

	require.NoError(t, err)
	assert.Equal(t, due, res.Cards)
	assert.Equal(t, 2, res.Total)
}

func TestService_DueCards_IsRepeatable(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()

	cards := &flashcardRepoMock{
		ListDueFunc: func(ctx context.Context, did uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error) {
			return []*domain.Flashcard{newCard(deckID)}, nil
		},
	}
	sessions := &sessionRepoMock{}

	svc := newTestService(t, okDeckRepo(userID, deckID), cards, sessions, nil, nil)
	for i := 0; i < 3; i++ {
		_, err := svc.DueCards(authedCtx(userID), DueCardsInput{DeckID: deckID})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, cards.ListDueCalls())
	assert.Zero(t, sessions.CreateCalls(), "peek never creates sessions")
}

// ---------------------------------------------------------------------------
// CardHistory
// ---------------------------------------------------------------------------

func TestService_CardHistory_DefaultLimit(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()
	card := newCard(deckID)

	cards := &flashcardRepoMock{
		GetByIDFunc: func(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error) {
			return card, nil
		},
	}
	reviews := &reviewRepoMock{
		ListByFlashcardFunc: func(ctx context.Context, fid uuid.UUID, limit, offset int) ([]*domain.CardReview, int, error) {
			assert.Equal(t, defaultHistoryLimit, limit)
			assert.Zero(t, offset)
			return []*domain.CardReview{{ID: uuid.New(), FlashcardID: fid}}, 7, nil
		},
	}

	svc := newTestService(t, okDeckRepo(userID, deckID), cards, &sessionRepoMock{}, reviews, nil)
	res, err := svc.CardHistory(authedCtx(userID), CardHistoryInput{FlashcardID: card.ID})

	require.NoError(t, err)
	assert.Len(t, res.Reviews, 1)
	assert.Equal(t, 7, res.Total)
}

func TestService_CardHistory_ForeignCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	card := newCard(uuid.New()) // deck not owned by userID

	cards := &flashcardRepoMock{
		GetByIDFunc: func(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error) {
			return card, nil
		},
	}

	svc := newTestService(t, okDeckRepo(userID, uuid.New()), cards, &sessionRepoMock{}, &reviewRepoMock{}, nil)
	_, err := svc.CardHistory(authedCtx(userID), CardHistoryInput{FlashcardID: card.ID})

	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func ptr[T any](v T) *T {
	return &v
}
