package quiz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/musiklag/songquiz/internal/quiz"
)

// memStore is an in-memory quiz.Store with the same compare-and-set
// semantics the SQLite store provides.
type memStore struct {
	quizzes      map[int64]quiz.Quiz
	subs         map[int64]quiz.Submission
	guesses      []quiz.Guess
	participants map[int64]map[string]bool
	admins       map[int64]map[string]bool
	nextSubID    int64
	nextGuessID  int64
}

func newMemStore() *memStore {
	return &memStore{
		quizzes:      make(map[int64]quiz.Quiz),
		subs:         make(map[int64]quiz.Submission),
		participants: make(map[int64]map[string]bool),
		admins:       make(map[int64]map[string]bool),
	}
}

func (m *memStore) GetQuiz(_ context.Context, quizID int64) (quiz.Quiz, error) {
	q, ok := m.quizzes[quizID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return q, nil
}

func (m *memStore) SetQuizStatus(_ context.Context, quizID int64, from, to quiz.Status, closedAt *time.Time) error {
	q, ok := m.quizzes[quizID]
	if !ok || q.Status != from {
		return quiz.ErrInvalidTransition
	}
	q.Status = to
	if closedAt != nil {
		q.ClosedAt = closedAt
	}
	m.quizzes[quizID] = q
	return nil
}

func (m *memStore) IsParticipant(_ context.Context, quizID int64, userID string) (bool, error) {
	return m.participants[quizID][userID], nil
}

func (m *memStore) IsAdmin(_ context.Context, quizID int64, userID string) (bool, error) {
	return m.admins[quizID][userID], nil
}

func (m *memStore) GetSubmission(_ context.Context, submissionID int64) (quiz.Submission, error) {
	s, ok := m.subs[submissionID]
	if !ok {
		return quiz.Submission{}, quiz.ErrNotFound
	}
	return s, nil
}

func (m *memStore) CreateSubmission(_ context.Context, sub quiz.Submission) (quiz.Submission, error) {
	m.nextSubID++
	sub.ID = m.nextSubID
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *memStore) CreateGuess(_ context.Context, g quiz.Guess) (quiz.Guess, error) {
	m.nextGuessID++
	g.ID = m.nextGuessID
	m.guesses = append(m.guesses, g)
	return g, nil
}

func (m *memStore) ListSubmissions(_ context.Context, quizID int64) ([]quiz.Submission, error) {
	var out []quiz.Submission
	for id := int64(1); id <= m.nextSubID; id++ {
		if s, ok := m.subs[id]; ok && s.QuizID == quizID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListGuesses(_ context.Context, quizID int64) ([]quiz.Guess, error) {
	var out []quiz.Guess
	for _, g := range m.guesses {
		if g.QuizID == quizID {
			out = append(out, g)
		}
	}
	return out, nil
}

type staticNames map[string]string

func (n staticNames) DisplayNames(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = n[id]
	}
	return out, nil
}

// guessingQuiz seeds a quiz in the guessing phase with one submission
// by alice and alice+bob+carol joined.
func guessingQuiz(t *testing.T) (*quiz.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	store.quizzes[1] = quiz.Quiz{ID: 1, Name: "Fredagsquiz", CreatedBy: "alice", Status: quiz.StatusGuessing}
	store.participants[1] = map[string]bool{"alice": true, "bob": true, "carol": true}
	store.nextSubID = 1
	store.subs[1] = quiz.Submission{ID: 1, QuizID: 1, UserID: "alice", SongLink: "https://open.spotify.com/track/abc"}
	return quiz.NewService(store, staticNames{}), store
}

func TestTransitionChain(t *testing.T) {
	store := newMemStore()
	store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: quiz.StatusOpen}
	svc := quiz.NewService(store, staticNames{})
	ctx := context.Background()

	steps := []quiz.Status{quiz.StatusClosed, quiz.StatusGuessing, quiz.StatusCompleted}
	for _, target := range steps {
		q, err := svc.Transition(ctx, 1, "alice", target)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if q.Status != target {
			t.Fatalf("status = %s, want %s", q.Status, target)
		}
	}

	if store.quizzes[1].ClosedAt == nil {
		t.Error("closedAt not set after leaving open")
	}
}

func TestTransitionClosedAtOnlyOnClose(t *testing.T) {
	store := newMemStore()
	store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: quiz.StatusOpen}
	svc := quiz.NewService(store, staticNames{})
	ctx := context.Background()

	q, err := svc.Transition(ctx, 1, "alice", quiz.StatusClosed)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if q.ClosedAt == nil {
		t.Fatal("closedAt nil after close")
	}
	closedAt := *q.ClosedAt

	q, err = svc.Transition(ctx, 1, "alice", quiz.StatusGuessing)
	if err != nil {
		t.Fatalf("guessing: %v", err)
	}
	if q.ClosedAt == nil || !q.ClosedAt.Equal(closedAt) {
		t.Error("closedAt changed by a later transition")
	}
}

func TestTransitionRejectsIllegalTargets(t *testing.T) {
	tests := []struct {
		name    string
		current quiz.Status
		target  quiz.Status
	}{
		{"skip forward", quiz.StatusOpen, quiz.StatusGuessing},
		{"skip to terminal", quiz.StatusOpen, quiz.StatusCompleted},
		{"backward", quiz.StatusGuessing, quiz.StatusClosed},
		{"same state", quiz.StatusClosed, quiz.StatusClosed},
		{"from terminal", quiz.StatusCompleted, quiz.StatusOpen},
		{"unknown target", quiz.StatusOpen, quiz.Status("archived")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: tt.current}
			svc := quiz.NewService(store, staticNames{})

			_, err := svc.Transition(context.Background(), 1, "alice", tt.target)
			if !errors.Is(err, quiz.ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}
			if store.quizzes[1].Status != tt.current {
				t.Errorf("status mutated to %s", store.quizzes[1].Status)
			}
		})
	}
}

func TestTransitionRights(t *testing.T) {
	store := newMemStore()
	store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: quiz.StatusOpen}
	store.admins[1] = map[string]bool{"bob": true}
	svc := quiz.NewService(store, staticNames{})
	ctx := context.Background()

	if _, err := svc.Transition(ctx, 1, "mallory", quiz.StatusClosed); !errors.Is(err, quiz.ErrForbidden) {
		t.Fatalf("non-admin err = %v, want ErrForbidden", err)
	}

	// A quiz admin who is not the creator may transition.
	if _, err := svc.Transition(ctx, 1, "bob", quiz.StatusClosed); err != nil {
		t.Fatalf("admin transition: %v", err)
	}
}

func TestTransitionRace(t *testing.T) {
	store := newMemStore()
	store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: quiz.StatusOpen}
	store.admins[1] = map[string]bool{"bob": true}
	svc := quiz.NewService(store, staticNames{})
	ctx := context.Background()

	// First admin wins; the second attempt of the same step observes
	// the moved state and fails.
	if _, err := svc.Transition(ctx, 1, "alice", quiz.StatusClosed); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if _, err := svc.Transition(ctx, 1, "bob", quiz.StatusClosed); !errors.Is(err, quiz.ErrInvalidTransition) {
		t.Fatalf("second transition err = %v, want ErrInvalidTransition", err)
	}
}

func TestSubmit(t *testing.T) {
	store := newMemStore()
	store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: quiz.StatusOpen}
	store.participants[1] = map[string]bool{"bob": true}
	svc := quiz.NewService(store, staticNames{})
	ctx := context.Background()

	sub, err := svc.Submit(ctx, 1, "bob", "https://open.spotify.com/track/xyz", "Dancing Queen", "ABBA")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.QuizID != 1 || sub.UserID != "bob" {
		t.Errorf("submission = %+v, want quizID 1, userID bob", sub)
	}
	if sub.ID == 0 || sub.SubmittedAt.IsZero() {
		t.Errorf("submission missing id or timestamp: %+v", sub)
	}

	// Duplicate submissions by the same user are allowed.
	if _, err := svc.Submit(ctx, 1, "bob", "https://open.spotify.com/track/uvw", "", ""); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if _, err := svc.Submit(ctx, 1, "mallory", "https://example.com/song", "", ""); !errors.Is(err, quiz.ErrNotParticipant) {
		t.Fatalf("non-participant err = %v, want ErrNotParticipant", err)
	}
}

func TestSubmitQuizNotOpen(t *testing.T) {
	for _, status := range []quiz.Status{quiz.StatusClosed, quiz.StatusGuessing, quiz.StatusCompleted} {
		store := newMemStore()
		store.quizzes[1] = quiz.Quiz{ID: 1, CreatedBy: "alice", Status: status}
		store.participants[1] = map[string]bool{"bob": true}
		svc := quiz.NewService(store, staticNames{})

		_, err := svc.Submit(context.Background(), 1, "bob", "https://example.com/song", "", "")
		if !errors.Is(err, quiz.ErrQuizNotOpen) {
			t.Errorf("status %s: err = %v, want ErrQuizNotOpen", status, err)
		}
	}
}

func TestRecordGuess(t *testing.T) {
	svc, store := guessingQuiz(t)
	ctx := context.Background()

	g, err := svc.RecordGuess(ctx, 1, "bob", 1, "alice")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if !g.IsCorrect {
		t.Error("guess on the real submitter not marked correct")
	}

	g, err = svc.RecordGuess(ctx, 1, "carol", 1, "bob")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if g.IsCorrect {
		t.Error("wrong guess marked correct")
	}

	// Accusing someone who never joined passes through; it just
	// cannot be correct.
	g, err = svc.RecordGuess(ctx, 1, "carol", 1, "stranger")
	if err != nil {
		t.Fatalf("guess on non-participant: %v", err)
	}
	if g.IsCorrect {
		t.Error("guess on non-participant marked correct")
	}

	// Guessing again on the same submission is allowed and adds a row.
	if _, err := svc.RecordGuess(ctx, 1, "carol", 1, "alice"); err != nil {
		t.Fatalf("repeat guess: %v", err)
	}
	if len(store.guesses) != 4 {
		t.Errorf("guess count = %d, want 4", len(store.guesses))
	}
}

func TestRecordGuessSelfGuess(t *testing.T) {
	svc, _ := guessingQuiz(t)

	_, err := svc.RecordGuess(context.Background(), 1, "alice", 1, "bob")
	if !errors.Is(err, quiz.ErrSelfGuessForbidden) {
		t.Fatalf("err = %v, want ErrSelfGuessForbidden", err)
	}
}

func TestRecordGuessPhaseAndOwnership(t *testing.T) {
	svc, store := guessingQuiz(t)
	ctx := context.Background()

	if _, err := svc.RecordGuess(ctx, 1, "mallory", 1, "alice"); !errors.Is(err, quiz.ErrNotParticipant) {
		t.Fatalf("non-participant err = %v, want ErrNotParticipant", err)
	}

	// Submission from another quiz.
	store.quizzes[2] = quiz.Quiz{ID: 2, CreatedBy: "alice", Status: quiz.StatusGuessing}
	store.nextSubID++
	store.subs[store.nextSubID] = quiz.Submission{ID: store.nextSubID, QuizID: 2, UserID: "bob"}
	if _, err := svc.RecordGuess(ctx, 1, "bob", store.nextSubID, "alice"); !errors.Is(err, quiz.ErrSubmissionNotInQuiz) {
		t.Fatalf("cross-quiz err = %v, want ErrSubmissionNotInQuiz", err)
	}

	// Wrong phase.
	q := store.quizzes[1]
	q.Status = quiz.StatusCompleted
	store.quizzes[1] = q
	if _, err := svc.RecordGuess(ctx, 1, "bob", 1, "alice"); !errors.Is(err, quiz.ErrQuizNotInGuessingPhase) {
		t.Fatalf("completed-phase err = %v, want ErrQuizNotInGuessingPhase", err)
	}
}
