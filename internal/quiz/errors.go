package quiz

import "errors"

// The closed set of domain errors. Every rejected operation maps to
// exactly one of these and leaves all records untouched; callers
// distinguish them with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("actor may not transition this quiz")
	ErrInvalidTransition      = errors.New("status is not the immediate successor of the current one")
	ErrQuizNotOpen            = errors.New("quiz is not open for submissions")
	ErrQuizNotInGuessingPhase = errors.New("quiz is not in the guessing phase")
	ErrNotParticipant         = errors.New("user has not joined this quiz")
	ErrSubmissionNotInQuiz    = errors.New("submission belongs to a different quiz")
	ErrSelfGuessForbidden     = errors.New("users may not guess on their own submission")
)
