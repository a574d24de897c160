// Package sm2 implements an SM-2 family spaced-repetition grader on the
// 3-point quality scale (1 = Hard, 3 = Good, 5 = Easy) used by the client.
//
// Grading is a pure function of (state, quality, now): no I/O, no clock
// reads, no randomness. Persistence is the caller's responsibility.
package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Quality constants on the 3-button scale. Values line up with SM-2's
// 0–5 range; anything outside {1, 3, 5} is rejected.
const (
	QualityHard = 1
	QualityGood = 3
	QualityEasy = 5
)

// ErrInvalidQuality is returned for a quality outside {1, 3, 5}.
var ErrInvalidQuality = errors.New("sm2: quality must be 1 (Hard), 3 (Good), or 5 (Easy)")

// Params holds the tunable constants of the grader. The defaults are the
// standard SM-2-family values; all of them are configuration, not code.
type Params struct {
	// DefaultEaseFactor is the ease assigned to freshly created cards.
	DefaultEaseFactor float64
	// MinEaseFactor is the floor below which ease never drops. It prevents
	// repeated lapses from degenerating intervals toward zero.
	MinEaseFactor float64
	// LapsePenalty is subtracted from ease on every lapse (quality 1).
	LapsePenalty float64
	// EasyBonus is added to ease on every Easy (quality 5) review.
	EasyBonus float64
	// EasyIntervalMultiplier is the extra multiplicative growth applied to
	// the interval on Easy reviews past the second repetition.
	EasyIntervalMultiplier float64
	// FirstIntervalDays is the interval after the first successful review
	// (and after the review that follows a lapse).
	FirstIntervalDays int
	// SecondIntervalDays is the interval after the second consecutive
	// successful review.
	SecondIntervalDays int
	// MaxIntervalDays caps interval growth.
	MaxIntervalDays int
}

// DefaultParams returns the standard SM-2 constants.
func DefaultParams() Params {
	return Params{
		DefaultEaseFactor:      2.5,
		MinEaseFactor:          1.3,
		LapsePenalty:           0.2,
		EasyBonus:              0.15,
		EasyIntervalMultiplier: 1.3,
		FirstIntervalDays:      1,
		SecondIntervalDays:     6,
		MaxIntervalDays:        365,
	}
}

// Validate checks that the parameters are internally consistent.
func (p Params) Validate() error {
	if p.MinEaseFactor <= 0 {
		return fmt.Errorf("sm2: min ease factor must be > 0 (got %v)", p.MinEaseFactor)
	}
	if p.DefaultEaseFactor < p.MinEaseFactor {
		return fmt.Errorf("sm2: default ease %v below floor %v", p.DefaultEaseFactor, p.MinEaseFactor)
	}
	if p.LapsePenalty < 0 || p.EasyBonus < 0 {
		return fmt.Errorf("sm2: lapse penalty and easy bonus must be >= 0")
	}
	if p.EasyIntervalMultiplier < 1 {
		return fmt.Errorf("sm2: easy interval multiplier must be >= 1 (got %v)", p.EasyIntervalMultiplier)
	}
	if p.FirstIntervalDays < 1 || p.SecondIntervalDays < p.FirstIntervalDays {
		return fmt.Errorf("sm2: interval ladder must satisfy 1 <= first <= second")
	}
	if p.MaxIntervalDays < p.SecondIntervalDays {
		return fmt.Errorf("sm2: max interval %d below second interval %d", p.MaxIntervalDays, p.SecondIntervalDays)
	}
	return nil
}

// State is a card's scheduling state as the grader sees it.
type State struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
}

// NewState returns the state of a freshly created card.
func NewState(p Params) State {
	return State{EaseFactor: p.DefaultEaseFactor, IntervalDays: 0, Repetitions: 0}
}

// Validate checks the data-model invariants. Malformed state is a
// caller/storage bug, not a grading outcome.
func (s State) Validate(p Params) error {
	if math.IsNaN(s.EaseFactor) || s.EaseFactor < p.MinEaseFactor {
		return fmt.Errorf("sm2: ease factor %v below floor %v", s.EaseFactor, p.MinEaseFactor)
	}
	if s.IntervalDays < 0 {
		return fmt.Errorf("sm2: negative interval %d", s.IntervalDays)
	}
	if s.Repetitions < 0 {
		return fmt.Errorf("sm2: negative repetitions %d", s.Repetitions)
	}
	return nil
}

// Result is the outcome of grading one review.
type Result struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
	// NextReviewDate is midnight UTC of the day the card comes due,
	// computed with calendar-day arithmetic so time-of-day drift does not
	// accumulate across reviews.
	NextReviewDate time.Time
	ReviewedAt     time.Time
}

// Grade computes the next scheduling state for a card reviewed with the
// given quality at the given time. Deterministic: identical inputs always
// produce identical output.
func Grade(p Params, s State, quality int, now time.Time) (Result, error) {
	if quality != QualityHard && quality != QualityGood && quality != QualityEasy {
		return Result{}, fmt.Errorf("%w (got %d)", ErrInvalidQuality, quality)
	}
	if err := s.Validate(p); err != nil {
		return Result{}, err
	}

	var next State

	if quality == QualityHard {
		// Lapse: back to tomorrow, soften ease toward the floor.
		next = State{
			EaseFactor:   math.Max(p.MinEaseFactor, s.EaseFactor-p.LapsePenalty),
			IntervalDays: p.FirstIntervalDays,
			Repetitions:  0,
		}
	} else {
		ease := s.EaseFactor
		if quality == QualityEasy {
			ease = math.Max(p.MinEaseFactor, ease+p.EasyBonus)
		}

		reps := s.Repetitions + 1
		var interval int
		switch reps {
		case 1:
			interval = p.FirstIntervalDays
		case 2:
			interval = p.SecondIntervalDays
		default:
			grown := float64(s.IntervalDays) * ease
			if quality == QualityEasy {
				grown *= p.EasyIntervalMultiplier
			}
			interval = max(p.FirstIntervalDays, int(math.Round(grown)))
		}

		next = State{
			EaseFactor:   ease,
			IntervalDays: min(interval, p.MaxIntervalDays),
			Repetitions:  reps,
		}
	}

	return Result{
		EaseFactor:     next.EaseFactor,
		IntervalDays:   next.IntervalDays,
		Repetitions:    next.Repetitions,
		NextReviewDate: NextReviewDate(now, next.IntervalDays),
		ReviewedAt:     now,
	}, nil
}

// NextReviewDate returns midnight UTC of the calendar day `days` days after
// the day containing t.
func NextReviewDate(t time.Time, days int) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}
