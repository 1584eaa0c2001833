package quiz

import (
	"context"
	"fmt"
	"time"
)

// Store is the persistence contract the service depends on. Foreign-key
// existence and cascade deletes belong to the implementation; the
// cross-entity checks (submission/quiz ownership, participantship) stay
// in the service.
type Store interface {
	GetQuiz(ctx context.Context, quizID int64) (Quiz, error)

	// SetQuizStatus applies the transition as a compare-and-set on
	// (quizID, from): it must return ErrInvalidTransition when the row
	// is no longer in the from status, so two admins racing on the
	// same transition resolve to exactly one winner.
	SetQuizStatus(ctx context.Context, quizID int64, from, to Status, closedAt *time.Time) error

	IsParticipant(ctx context.Context, quizID int64, userID string) (bool, error)
	IsAdmin(ctx context.Context, quizID int64, userID string) (bool, error)

	GetSubmission(ctx context.Context, submissionID int64) (Submission, error)
	CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
	CreateGuess(ctx context.Context, g Guess) (Guess, error)

	// ListSubmissions returns a quiz's submissions in ID ascending
	// order; ListGuesses returns its guesses in guessed-at order.
	ListSubmissions(ctx context.Context, quizID int64) ([]Submission, error)
	ListGuesses(ctx context.Context, quizID int64) ([]Guess, error)
}

// NameResolver resolves user IDs to display names. Aggregations resolve
// all names in one batch call.
type NameResolver interface {
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type Service struct {
	store Store
	names NameResolver
	now   func() time.Time
}

func NewService(store Store, names NameResolver) *Service {
	return &Service{store: store, names: names, now: time.Now}
}

// Transition moves a quiz to target, which must be the immediate
// successor of its current status. Only the creator or a quiz admin may
// transition. The current status is re-read here rather than trusted
// from the caller, and the write is a compare-and-set, so a concurrent
// transition surfaces as ErrInvalidTransition.
func (s *Service) Transition(ctx context.Context, quizID int64, actorID string, target Status) (Quiz, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}

	if q.CreatedBy != actorID {
		isAdmin, err := s.store.IsAdmin(ctx, quizID, actorID)
		if err != nil {
			return Quiz{}, fmt.Errorf("checking admin rights: %w", err)
		}
		if !isAdmin {
			return Quiz{}, ErrForbidden
		}
	}

	next, ok := q.Status.Next()
	if !ok || target != next {
		return Quiz{}, ErrInvalidTransition
	}

	var closedAt *time.Time
	if target == StatusClosed {
		t := s.now().UTC()
		closedAt = &t
	}

	if err := s.store.SetQuizStatus(ctx, quizID, q.Status, target, closedAt); err != nil {
		return Quiz{}, err
	}

	q.Status = target
	if closedAt != nil {
		q.ClosedAt = closedAt
	}
	return q, nil
}

// Submit records a song submission. The quiz must be open and the user
// must have joined it. A user may submit more than one song per quiz;
// the schema deliberately has no uniqueness constraint here.
func (s *Service) Submit(ctx context.Context, quizID int64, userID, songLink, songTitle, artist string) (Submission, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Submission{}, err
	}
	if q.Status != StatusOpen {
		return Submission{}, ErrQuizNotOpen
	}

	joined, err := s.store.IsParticipant(ctx, quizID, userID)
	if err != nil {
		return Submission{}, fmt.Errorf("checking participantship: %w", err)
	}
	if !joined {
		return Submission{}, ErrNotParticipant
	}

	return s.store.CreateSubmission(ctx, Submission{
		QuizID:      quizID,
		UserID:      userID,
		SongLink:    songLink,
		SongTitle:   songTitle,
		Artist:      artist,
		SubmittedAt: s.now().UTC(),
	})
}

// RecordGuess records one guess about who submitted a song. The quiz
// must be in the guessing phase, the submission must belong to it, the
// guesser must have joined, and nobody may guess on their own
// submission. GuessedUserID is not required to be a participant —
// such a guess simply cannot be correct. Correctness is computed here,
// once, and frozen. Multiple guesses by the same guesser on the same
// submission are all kept; there is no latest-wins rule.
func (s *Service) RecordGuess(ctx context.Context, quizID int64, guesserID string, submissionID int64, guessedUserID string) (Guess, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Guess{}, err
	}
	if q.Status != StatusGuessing {
		return Guess{}, ErrQuizNotInGuessingPhase
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Guess{}, err
	}
	if sub.QuizID != quizID {
		return Guess{}, ErrSubmissionNotInQuiz
	}

	joined, err := s.store.IsParticipant(ctx, quizID, guesserID)
	if err != nil {
		return Guess{}, fmt.Errorf("checking participantship: %w", err)
	}
	if !joined {
		return Guess{}, ErrNotParticipant
	}

	if guesserID == sub.UserID {
		return Guess{}, ErrSelfGuessForbidden
	}

	return s.store.CreateGuess(ctx, Guess{
		QuizID:        quizID,
		GuesserID:     guesserID,
		SubmissionID:  submissionID,
		GuessedUserID: guessedUserID,
		IsCorrect:     guessedUserID == sub.UserID,
		GuessedAt:     s.now().UTC(),
	})
}

// Distribution loads a quiz's submissions and guesses and builds the
// per-submission guess distribution the reveal screen consumes.
func (s *Service) Distribution(ctx context.Context, quizID int64) ([]SubmissionView, error) {
	subs, err := s.store.ListSubmissions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	guesses, err := s.store.ListGuesses(ctx, quizID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(subs)+2*len(guesses))
	for _, sub := range subs {
		ids = append(ids, sub.UserID)
	}
	for _, g := range guesses {
		ids = append(ids, g.GuesserID, g.GuessedUserID)
	}
	names, err := s.names.DisplayNames(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("resolving display names: %w", err)
	}

	return BuildDistribution(subs, guesses, names), nil
}

// Leaderboard loads a quiz's guesses and builds the accuracy ranking.
func (s *Service) Leaderboard(ctx context.Context, quizID int64) ([]LeaderboardEntry, error) {
	guesses, err := s.store.ListGuesses(ctx, quizID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(guesses))
	for _, g := range guesses {
		ids = append(ids, g.GuesserID)
	}
	names, err := s.names.DisplayNames(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("resolving display names: %w", err)
	}

	return BuildLeaderboard(guesses, names), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
