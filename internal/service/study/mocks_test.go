package study

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brainkit/brainkit-backend/internal/domain"
)

// Hand-rolled func-field mocks for the private repo interfaces. Each method
// delegates to its Func field and records the call; a nil Func panics, which
// surfaces unexpected repo usage immediately in the failing test.

type deckRepoMock struct {
	mu sync.Mutex

	GetByIDFunc           func(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)
	TouchLastStudiedFunc  func(ctx context.Context, deckID uuid.UUID, at time.Time) error
	getByIDCalls          int
	touchLastStudiedCalls int
}

func (m *deckRepoMock) GetByID(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	m.mu.Lock()
	m.getByIDCalls++
	m.mu.Unlock()
	return m.GetByIDFunc(ctx, userID, deckID)
}

func (m *deckRepoMock) TouchLastStudied(ctx context.Context, deckID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	m.touchLastStudiedCalls++
	m.mu.Unlock()
	return m.TouchLastStudiedFunc(ctx, deckID, at)
}

func (m *deckRepoMock) GetByIDCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.getByIDCalls }
func (m *deckRepoMock) TouchLastStudiedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touchLastStudiedCalls
}

type flashcardRepoMock struct {
	mu sync.Mutex

	GetByIDFunc    func(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error)
	ListDueFunc    func(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error)
	CountDueFunc   func(ctx context.Context, deckID uuid.UUID, now time.Time) (int, error)
	UpdateSRSFunc  func(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error
	listDueCalls   int
	updateSRSCalls int
}

func (m *flashcardRepoMock) GetByID(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error) {
	return m.GetByIDFunc(ctx, cardID)
}

func (m *flashcardRepoMock) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error) {
	m.mu.Lock()
	m.listDueCalls++
	m.mu.Unlock()
	return m.ListDueFunc(ctx, deckID, now, limit)
}

func (m *flashcardRepoMock) CountDue(ctx context.Context, deckID uuid.UUID, now time.Time) (int, error) {
	return m.CountDueFunc(ctx, deckID, now)
}

func (m *flashcardRepoMock) UpdateSRS(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error {
	m.mu.Lock()
	m.updateSRSCalls++
	m.mu.Unlock()
	return m.UpdateSRSFunc(ctx, cardID, prev, params)
}

func (m *flashcardRepoMock) ListDueCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.listDueCalls }
func (m *flashcardRepoMock) UpdateSRSCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateSRSCalls
}

type sessionRepoMock struct {
	mu sync.Mutex

	CreateFunc    func(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error)
	GetByIDFunc   func(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error)
	AdvanceFunc   func(ctx context.Context, sessionID uuid.UUID, fromCursor int) error
	CompleteFunc  func(ctx context.Context, userID, sessionID uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error)
	createCalls   int
	advanceCalls  int
	completeCalls int
}

func (m *sessionRepoMock) Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	return m.CreateFunc(ctx, session)
}

func (m *sessionRepoMock) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error) {
	return m.GetByIDFunc(ctx, userID, sessionID)
}

func (m *sessionRepoMock) Advance(ctx context.Context, sessionID uuid.UUID, fromCursor int) error {
	m.mu.Lock()
	m.advanceCalls++
	m.mu.Unlock()
	return m.AdvanceFunc(ctx, sessionID, fromCursor)
}

func (m *sessionRepoMock) Complete(ctx context.Context, userID, sessionID uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error) {
	m.mu.Lock()
	m.completeCalls++
	m.mu.Unlock()
	return m.CompleteFunc(ctx, userID, sessionID, completedAt, durationSeconds)
}

func (m *sessionRepoMock) CreateCalls() int  { m.mu.Lock(); defer m.mu.Unlock(); return m.createCalls }
func (m *sessionRepoMock) AdvanceCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.advanceCalls }

type reviewRepoMock struct {
	mu sync.Mutex

	CreateFunc          func(ctx context.Context, review *domain.CardReview) (*domain.CardReview, error)
	ListByFlashcardFunc func(ctx context.Context, flashcardID uuid.UUID, limit, offset int) ([]*domain.CardReview, int, error)
	createCalls         int
}

func (m *reviewRepoMock) Create(ctx context.Context, review *domain.CardReview) (*domain.CardReview, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	return m.CreateFunc(ctx, review)
}

func (m *reviewRepoMock) ListByFlashcard(ctx context.Context, flashcardID uuid.UUID, limit, offset int) ([]*domain.CardReview, int, error) {
	return m.ListByFlashcardFunc(ctx, flashcardID, limit, offset)
}

func (m *reviewRepoMock) CreateCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.createCalls }

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}
