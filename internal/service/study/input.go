package study

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/brainkit/brainkit-backend/internal/domain"
)

// StartSessionInput holds the parameters for starting a study session.
type StartSessionInput struct {
	DeckID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *StartSessionInput) Validate() error {
	var errs []domain.FieldError

	if i.DeckID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "deck_id", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ReviewCardInput holds the parameters for reviewing a card within a session.
type ReviewCardInput struct {
	SessionID      uuid.UUID
	FlashcardID    uuid.UUID
	Quality        domain.Quality
	ResponseTimeMs *int
}

// Validate checks all fields. An out-of-range quality is a distinct caller
// bug and surfaces as domain.ErrInvalidGrade rather than a field error.
func (i *ReviewCardInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if i.FlashcardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "flashcard_id", Message: "required"})
	}
	if i.ResponseTimeMs != nil && *i.ResponseTimeMs < 0 {
		errs = append(errs, domain.FieldError{Field: "response_time_ms", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}

	if !i.Quality.IsValid() {
		return fmt.Errorf("quality must be 1 (Hard), 3 (Good), or 5 (Easy): %w", domain.ErrInvalidGrade)
	}
	return nil
}

// CompleteSessionInput holds the parameters for completing a study session.
// DurationSeconds is the client-measured duration; when absent the server
// computes it from the session start time.
type CompleteSessionInput struct {
	SessionID       uuid.UUID
	DurationSeconds *int
}

// Validate checks all fields and collects all errors.
func (i *CompleteSessionInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if i.DurationSeconds != nil && *i.DurationSeconds < 0 {
		errs = append(errs, domain.FieldError{Field: "duration_seconds", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// DueCardsInput holds the parameters for the read-only due-set peek.
type DueCardsInput struct {
	DeckID uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *DueCardsInput) Validate() error {
	var errs []domain.FieldError

	if i.DeckID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "deck_id", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CardHistoryInput holds the parameters for fetching card review history.
type CardHistoryInput struct {
	FlashcardID uuid.UUID
	Limit       int
	Offset      int
}

// Validate checks all fields and collects all errors.
func (i *CardHistoryInput) Validate() error {
	var errs []domain.FieldError

	if i.FlashcardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "flashcard_id", Message: "required"})
	}
	if i.Limit < 0 || i.Limit > 200 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be between 0 and 200"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
