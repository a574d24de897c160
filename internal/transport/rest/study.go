package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/internal/service/study"
)

// studyService defines the minimal interface needed by StudyHandler.
type studyService interface {
	StartSession(ctx context.Context, input study.StartSessionInput) (*study.StartResult, error)
	ReviewCard(ctx context.Context, input study.ReviewCardInput) (*study.ReviewResult, error)
	CompleteSession(ctx context.Context, input study.CompleteSessionInput) (*domain.SessionSummary, error)
	DueCards(ctx context.Context, input study.DueCardsInput) (*study.DueResult, error)
	CardHistory(ctx context.Context, input study.CardHistoryInput) (*study.HistoryResult, error)
}

// StudyHandler serves the study REST endpoints.
type StudyHandler struct {
	svc studyService
	log *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(svc studyService, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{svc: svc, log: logger.With("handler", "study")}
}

type reviewRequest struct {
	SessionID      string `json:"sessionId"`
	FlashcardID    string `json:"flashcardId"`
	Quality        int    `json:"quality"`
	ResponseTimeMs *int   `json:"responseTimeMs,omitempty"`
}

type completeRequest struct {
	SessionID       string `json:"sessionId"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
}

type cardResponse struct {
	ID             string     `json:"id"`
	DeckID         string     `json:"deckId"`
	EaseFactor     float64    `json:"easeFactor"`
	IntervalDays   int        `json:"intervalDays"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate *time.Time `json:"nextReviewDate"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
}

type startResponse struct {
	SessionID string         `json:"sessionId,omitempty"`
	DeckID    string         `json:"deckId"`
	Empty     bool           `json:"empty"`
	Cards     []cardResponse `json:"cards"`
}

type reviewResponse struct {
	Card           cardResponse   `json:"card"`
	Review         reviewLogEntry `json:"review"`
	NextCardID     string         `json:"nextCardId,omitempty"`
	CardsRemaining int            `json:"cardsRemaining"`
}

type reviewLogEntry struct {
	ID                 string    `json:"id"`
	SessionID          *string   `json:"sessionId,omitempty"`
	FlashcardID        string    `json:"flashcardId"`
	Quality            int       `json:"quality"`
	ResponseTimeMs     *int      `json:"responseTimeMs,omitempty"`
	PreviousInterval   int       `json:"previousInterval"`
	NewInterval        int       `json:"newInterval"`
	PreviousEaseFactor float64   `json:"previousEaseFactor"`
	NewEaseFactor      float64   `json:"newEaseFactor"`
	ReviewedAt         time.Time `json:"reviewedAt"`
}

type summaryResponse struct {
	SessionID       string    `json:"sessionId"`
	DeckID          string    `json:"deckId"`
	CardsReviewed   int       `json:"cardsReviewed"`
	DurationSeconds int       `json:"durationSeconds"`
	CardsRemaining  int       `json:"cardsRemaining"`
	StartedAt       time.Time `json:"startedAt"`
	CompletedAt     time.Time `json:"completedAt"`
}

type dueResponse struct {
	Cards []cardResponse `json:"cards"`
	Total int            `json:"total"`
}

type historyResponse struct {
	Reviews []reviewLogEntry `json:"reviews"`
	Total   int              `json:"total"`
}

// Start handles POST /study/{deckId}/start.
func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	deckID, err := uuid.Parse(r.PathValue("deckId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	result, err := h.svc.StartSession(r.Context(), study.StartSessionInput{DeckID: deckID})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := startResponse{
		DeckID: deckID.String(),
		Empty:  result.Empty,
		Cards:  toCardResponses(result.Cards),
	}
	if result.Session != nil {
		resp.SessionID = result.Session.ID.String()
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Due handles GET /study/{deckId}/due.
func (h *StudyHandler) Due(w http.ResponseWriter, r *http.Request) {
	deckID, err := uuid.Parse(r.PathValue("deckId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	result, err := h.svc.DueCards(r.Context(), study.DueCardsInput{DeckID: deckID})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dueResponse{
		Cards: toCardResponses(result.Cards),
		Total: result.Total,
	})
}

// Review handles POST /study/review.
func (h *StudyHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	flashcardID, err := uuid.Parse(req.FlashcardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid flashcard id")
		return
	}

	result, err := h.svc.ReviewCard(r.Context(), study.ReviewCardInput{
		SessionID:      sessionID,
		FlashcardID:    flashcardID,
		Quality:        domain.Quality(req.Quality),
		ResponseTimeMs: req.ResponseTimeMs,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := reviewResponse{
		Card:           toCardResponse(result.Card),
		Review:         toReviewLogEntry(result.Review),
		CardsRemaining: result.CardsRemaining,
	}
	if result.NextCardID != uuid.Nil {
		resp.NextCardID = result.NextCardID.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

// Complete handles POST /study/complete.
func (h *StudyHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	summary, err := h.svc.CompleteSession(r.Context(), study.CompleteSessionInput{
		SessionID:       sessionID,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		SessionID:       summary.SessionID.String(),
		DeckID:          summary.DeckID.String(),
		CardsReviewed:   summary.CardsReviewed,
		DurationSeconds: summary.DurationSeconds,
		CardsRemaining:  summary.CardsRemaining,
		StartedAt:       summary.StartedAt,
		CompletedAt:     summary.CompletedAt,
	})
}

// History handles GET /study/cards/{cardId}/history.
func (h *StudyHandler) History(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(r.PathValue("cardId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	result, err := h.svc.CardHistory(r.Context(), study.CardHistoryInput{
		FlashcardID: cardID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	reviews := make([]reviewLogEntry, 0, len(result.Reviews))
	for _, rev := range result.Reviews {
		reviews = append(reviews, toReviewLogEntry(rev))
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Reviews: reviews,
		Total:   result.Total,
	})
}

func (h *StudyHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidGrade):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrOutOfOrderReview):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSessionClosed):
		writeError(w, http.StatusConflict, "session closed")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "concurrent modification, retry")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func toCardResponse(c *domain.Flashcard) cardResponse {
	return cardResponse{
		ID:             c.ID.String(),
		DeckID:         c.DeckID.String(),
		EaseFactor:     c.EaseFactor,
		IntervalDays:   c.IntervalDays,
		Repetitions:    c.Repetitions,
		NextReviewDate: c.NextReviewDate,
		LastReviewedAt: c.LastReviewedAt,
	}
}

func toCardResponses(cards []*domain.Flashcard) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	return out
}

func toReviewLogEntry(rev *domain.CardReview) reviewLogEntry {
	entry := reviewLogEntry{
		ID:                 rev.ID.String(),
		FlashcardID:        rev.FlashcardID.String(),
		Quality:            int(rev.Quality),
		ResponseTimeMs:     rev.ResponseTimeMs,
		PreviousInterval:   rev.PreviousInterval,
		NewInterval:        rev.NewInterval,
		PreviousEaseFactor: rev.PreviousEaseFactor,
		NewEaseFactor:      rev.NewEaseFactor,
		ReviewedAt:         rev.ReviewedAt,
	}
	if rev.SessionID != nil {
		s := rev.SessionID.String()
		entry.SessionID = &s
	}
	return entry
}
