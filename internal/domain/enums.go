package domain

import "fmt"

// Quality is the user's self-assessed recall rating on the 3-button scale
// exposed by the client: 1 = Hard, 3 = Good, 5 = Easy. The values line up
// with SM-2's 0–5 scale so the grader can apply standard SM-2 semantics.
type Quality int

const (
	QualityHard Quality = 1
	QualityGood Quality = 3
	QualityEasy Quality = 5
)

func (q Quality) String() string {
	switch q {
	case QualityHard:
		return "HARD"
	case QualityGood:
		return "GOOD"
	case QualityEasy:
		return "EASY"
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

func (q Quality) IsValid() bool {
	switch q {
	case QualityHard, QualityGood, QualityEasy:
		return true
	}
	return false
}

// IsPass reports whether the rating counts as a successful recall.
// Only Hard (1) is a lapse on this scale.
func (q Quality) IsPass() bool {
	return q >= QualityGood
}

// SessionStatus represents the state of a study session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

func (s SessionStatus) String() string { return string(s) }

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusActive, SessionStatusCompleted:
		return true
	}
	return false
}
