// Package quiz implements the quiz lifecycle state machine and the
// guess/leaderboard aggregation engine. It owns the domain rules only;
// persistence and identity resolution are injected through the Store
// and NameResolver interfaces.
package quiz

import "time"

// Status is the lifecycle phase of a quiz. Transitions move strictly
// forward, one step at a time: open → closed → guessing → completed.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusGuessing  Status = "guessing"
	StatusCompleted Status = "completed"
)

// Next returns the immediate successor status and whether one exists.
// StatusCompleted is terminal.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusOpen:
		return StatusClosed, true
	case StatusClosed:
		return StatusGuessing, true
	case StatusGuessing:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the four lifecycle phases.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusGuessing, StatusCompleted:
		return true
	}
	return false
}

type Quiz struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   string
	Status      Status
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

// Submission is one song entered anonymously by a participant.
// Immutable once created; songs can only be submitted while the
// owning quiz is open.
type Submission struct {
	ID          int64
	QuizID      int64
	UserID      string
	SongLink    string
	SongTitle   string
	Artist      string
	SubmittedAt time.Time
}

// Guess is one participant's claim about who submitted a song.
// IsCorrect is computed when the guess is recorded and never changes
// afterward.
type Guess struct {
	ID            int64
	QuizID        int64
	GuesserID     string
	SubmissionID  int64
	GuessedUserID string
	IsCorrect     bool
	GuessedAt     time.Time
}

type Participant struct {
	QuizID   int64
	UserID   string
	JoinedAt time.Time
}

type Admin struct {
	QuizID  int64
	UserID  string
	AddedBy string
	AddedAt time.Time
}
