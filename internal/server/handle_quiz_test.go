package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

type quizFixture struct {
	r      *chi.Mux
	quizID int64

	astrid, bjorn, cecilia *http.Cookie
	astridID, bjornID      string
	ceciliaID              string
}

// newQuizFixture registers three users and creates a quiz owned by
// Astrid with Björn and Cecilia joined.
func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()

	f := &quizFixture{r: testRouter(t)}
	f.astrid, f.astridID = register(t, f.r, "Astrid", "astrid@example.com")
	f.bjorn, f.bjornID = register(t, f.r, "Björn", "bjorn@example.com")
	f.cecilia, f.ceciliaID = register(t, f.r, "Cecilia", "cecilia@example.com")

	w := doJSON(t, f.r, http.MethodPost, "/api/quizzes",
		CreateQuizRequest{Name: "Fredagsquiz", Description: "Vem valde vad?"}, f.astrid)
	if w.Code != http.StatusCreated {
		t.Fatalf("create quiz: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var detail QuizDetail
	json.NewDecoder(w.Body).Decode(&detail)
	f.quizID = detail.ID

	for _, c := range []*http.Cookie{f.bjorn, f.cecilia} {
		w := doJSON(t, f.r, http.MethodPost, f.path("join"), nil, c)
		if w.Code != http.StatusOK {
			t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body.String())
		}
	}
	return f
}

func (f *quizFixture) path(suffix string) string {
	return fmt.Sprintf("/api/quizzes/%d/%s", f.quizID, suffix)
}

// advance moves the quiz forward one phase as Astrid.
func (f *quizFixture) advance(t *testing.T, target string) {
	t.Helper()
	w := doJSON(t, f.r, http.MethodPut, f.path("status"), StatusRequest{Status: target}, f.astrid)
	if w.Code != http.StatusOK {
		t.Fatalf("advance to %s: expected 200, got %d: %s", target, w.Code, w.Body.String())
	}
}

// submit posts a song and returns its ID.
func (f *quizFixture) submit(t *testing.T, cookie *http.Cookie, link, title string) int64 {
	t.Helper()
	w := doJSON(t, f.r, http.MethodPost, f.path("submissions"),
		SubmitRequest{SongLink: link, SongTitle: title}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var sub SubmissionResponse
	json.NewDecoder(w.Body).Decode(&sub)
	return sub.ID
}

func TestQuizDetail(t *testing.T) {
	f := newQuizFixture(t)

	w := doJSON(t, f.r, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", f.quizID), nil, f.bjorn)
	if w.Code != http.StatusOK {
		t.Fatalf("get quiz: expected 200, got %d", w.Code)
	}

	var detail QuizDetail
	json.NewDecoder(w.Body).Decode(&detail)
	if detail.Status != "open" || !detail.Joined {
		t.Errorf("detail = %+v, want open and joined", detail)
	}
	if len(detail.Participants) != 3 {
		t.Errorf("participants = %d, want 3 (creator auto-joins)", len(detail.Participants))
	}
	if detail.ClosedAt != nil {
		t.Error("closedAt set while open")
	}
}

func TestSubmissionRules(t *testing.T) {
	f := newQuizFixture(t)

	f.submit(t, f.bjorn, "https://open.spotify.com/track/aaa", "The Look")

	// A second submission by the same user is allowed.
	f.submit(t, f.bjorn, "https://open.spotify.com/track/bbb", "Joyride")

	// Outsiders cannot submit.
	outsider, _ := register(t, f.r, "Mallory", "mallory@example.com")
	w := doJSON(t, f.r, http.MethodPost, f.path("submissions"),
		SubmitRequest{SongLink: "https://example.com/x"}, outsider)
	if w.Code != http.StatusForbidden {
		t.Fatalf("outsider submit: expected 403, got %d", w.Code)
	}

	// Closing the quiz stops submissions.
	f.advance(t, "closed")
	w = doJSON(t, f.r, http.MethodPost, f.path("submissions"),
		SubmitRequest{SongLink: "https://example.com/y"}, f.bjorn)
	if w.Code != http.StatusConflict {
		t.Fatalf("submit after close: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatusTransitions(t *testing.T) {
	f := newQuizFixture(t)

	// Participants without admin rights cannot transition.
	w := doJSON(t, f.r, http.MethodPut, f.path("status"), StatusRequest{Status: "closed"}, f.bjorn)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin transition: expected 403, got %d", w.Code)
	}

	// Skipping a phase is rejected.
	w = doJSON(t, f.r, http.MethodPut, f.path("status"), StatusRequest{Status: "guessing"}, f.astrid)
	if w.Code != http.StatusConflict {
		t.Fatalf("skip transition: expected 409, got %d", w.Code)
	}

	f.advance(t, "closed")

	// Repeating the same transition races against the already-moved
	// state and fails.
	w = doJSON(t, f.r, http.MethodPut, f.path("status"), StatusRequest{Status: "closed"}, f.astrid)
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat transition: expected 409, got %d", w.Code)
	}

	var resp StatusResponse
	f.advance(t, "guessing")
	w = doJSON(t, f.r, http.MethodPut, f.path("status"), StatusRequest{Status: "completed"}, f.astrid)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "completed" || resp.ClosedAt == nil {
		t.Errorf("final state = %+v, want completed with closedAt", resp)
	}
}

func TestAdminCanTransition(t *testing.T) {
	f := newQuizFixture(t)

	w := doJSON(t, f.r, http.MethodPost, f.path("admins"), AddAdminRequest{Email: "bjorn@example.com"}, f.astrid)
	if w.Code != http.StatusCreated {
		t.Fatalf("add admin: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Björn can now advance the quiz.
	w = doJSON(t, f.r, http.MethodPut, f.path("status"), StatusRequest{Status: "closed"}, f.bjorn)
	if w.Code != http.StatusOK {
		t.Fatalf("admin transition: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// But Cecilia still cannot add admins.
	w = doJSON(t, f.r, http.MethodPost, f.path("admins"), AddAdminRequest{Email: "cecilia@example.com"}, f.cecilia)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin add admin: expected 403, got %d", w.Code)
	}
}

func TestGuessingRules(t *testing.T) {
	f := newQuizFixture(t)
	subID := f.submit(t, f.astrid, "https://open.spotify.com/track/aaa", "Dancing Queen")

	// Guessing before the guessing phase is rejected.
	w := doJSON(t, f.r, http.MethodPost, f.path("guesses"),
		GuessRequest{SubmissionID: subID, GuessedUserID: f.astridID}, f.bjorn)
	if w.Code != http.StatusConflict {
		t.Fatalf("guess while open: expected 409, got %d", w.Code)
	}

	f.advance(t, "closed")
	f.advance(t, "guessing")

	// The submitter cannot guess on their own song, even in phase.
	w = doJSON(t, f.r, http.MethodPost, f.path("guesses"),
		GuessRequest{SubmissionID: subID, GuessedUserID: f.bjornID}, f.astrid)
	if w.Code != http.StatusForbidden {
		t.Fatalf("self guess: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	// A valid guess; correctness is not revealed.
	w = doJSON(t, f.r, http.MethodPost, f.path("guesses"),
		GuessRequest{SubmissionID: subID, GuessedUserID: f.astridID}, f.bjorn)
	if w.Code != http.StatusCreated {
		t.Fatalf("guess: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var g map[string]any
	json.NewDecoder(w.Body).Decode(&g)
	if _, leaked := g["isCorrect"]; leaked {
		t.Error("guess response leaks correctness")
	}

	// Guessing again on the same submission is allowed.
	w = doJSON(t, f.r, http.MethodPost, f.path("guesses"),
		GuessRequest{SubmissionID: subID, GuessedUserID: f.ceciliaID}, f.bjorn)
	if w.Code != http.StatusCreated {
		t.Fatalf("repeat guess: expected 201, got %d", w.Code)
	}
}

func TestGuessOnForeignSubmission(t *testing.T) {
	f := newQuizFixture(t)
	f.advance(t, "closed")
	f.advance(t, "guessing")

	// Build a second quiz with its own submission.
	w := doJSON(t, f.r, http.MethodPost, "/api/quizzes", CreateQuizRequest{Name: "Other"}, f.astrid)
	var other QuizDetail
	json.NewDecoder(w.Body).Decode(&other)

	w = doJSON(t, f.r, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submissions", other.ID),
		SubmitRequest{SongLink: "https://example.com/foreign"}, f.astrid)
	if w.Code != http.StatusCreated {
		t.Fatalf("foreign submit: expected 201, got %d", w.Code)
	}
	var foreign SubmissionResponse
	json.NewDecoder(w.Body).Decode(&foreign)

	// A guess in quiz 1 targeting quiz 2's submission is rejected.
	w = doJSON(t, f.r, http.MethodPost, f.path("guesses"),
		GuessRequest{SubmissionID: foreign.ID, GuessedUserID: f.astridID}, f.bjorn)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("cross-quiz guess: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResultsAndPresentation(t *testing.T) {
	f := newQuizFixture(t)
	astridSong := f.submit(t, f.astrid, "https://open.spotify.com/track/aaa", "Dancing Queen")
	bjornSong := f.submit(t, f.bjorn, "https://open.spotify.com/track/bbb", "The Look")

	f.advance(t, "closed")
	f.advance(t, "guessing")

	// Björn: correct on Astrid's song. Cecilia: correct on both.
	for _, g := range []struct {
		cookie  *http.Cookie
		subID   int64
		guessed string
	}{
		{f.bjorn, astridSong, f.astridID},
		{f.cecilia, astridSong, f.astridID},
		{f.cecilia, bjornSong, f.bjornID},
	} {
		w := doJSON(t, f.r, http.MethodPost, f.path("guesses"),
			GuessRequest{SubmissionID: g.subID, GuessedUserID: g.guessed}, g.cookie)
		if w.Code != http.StatusCreated {
			t.Fatalf("guess: expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	// Results are gated until completion.
	w := doJSON(t, f.r, http.MethodGet, f.path("results"), nil, f.bjorn)
	if w.Code != http.StatusConflict {
		t.Fatalf("early results: expected 409, got %d", w.Code)
	}

	// The leaderboard is already available mid-guessing.
	w = doJSON(t, f.r, http.MethodGet, f.path("leaderboard"), nil, f.bjorn)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: expected 200, got %d", w.Code)
	}

	// The presentation is for the host only.
	w = doJSON(t, f.r, http.MethodGet, f.path("presentation"), nil, f.bjorn)
	if w.Code != http.StatusForbidden {
		t.Fatalf("participant presentation: expected 403, got %d", w.Code)
	}

	f.advance(t, "completed")

	w = doJSON(t, f.r, http.MethodGet, f.path("results"), nil, f.bjorn)
	if w.Code != http.StatusOK {
		t.Fatalf("results: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var results ResultsResponse
	json.NewDecoder(w.Body).Decode(&results)

	if len(results.Songs) != 2 || results.Songs[0].SubmitterName != "Astrid" {
		t.Errorf("songs = %+v", results.Songs)
	}
	// Cecilia 2/2 ranks above Björn 1/1.
	if len(results.Leaderboard) != 2 {
		t.Fatalf("leaderboard entries = %d, want 2", len(results.Leaderboard))
	}
	if results.Leaderboard[0].UserName != "Cecilia" || results.Leaderboard[0].CorrectGuesses != 2 {
		t.Errorf("first place = %+v, want Cecilia with 2 correct", results.Leaderboard[0])
	}
	if results.Leaderboard[0].Placement != 1 || results.Leaderboard[1].Placement != 2 {
		t.Errorf("placements = %d, %d", results.Leaderboard[0].Placement, results.Leaderboard[1].Placement)
	}

	w = doJSON(t, f.r, http.MethodGet, f.path("presentation"), nil, f.astrid)
	if w.Code != http.StatusOK {
		t.Fatalf("presentation: expected 200, got %d", w.Code)
	}
	var pres PresentationResponse
	json.NewDecoder(w.Body).Decode(&pres)

	if len(pres.Submissions) != 2 {
		t.Fatalf("presentation submissions = %d, want 2", len(pres.Submissions))
	}
	dist := pres.Submissions[0].GuessDistribution
	if len(dist) != 1 || dist[0].GuessCount != 2 || !dist[0].IsCorrect {
		t.Errorf("distribution for song 1 = %+v", dist)
	}
	if len(dist[0].Guessers) != 2 {
		t.Errorf("guessers = %v, want both names", dist[0].Guessers)
	}
}

func TestJoinClosedQuiz(t *testing.T) {
	f := newQuizFixture(t)
	f.advance(t, "closed")

	late, _ := register(t, f.r, "Late", "late@example.com")
	w := doJSON(t, f.r, http.MethodPost, f.path("join"), nil, late)
	if w.Code != http.StatusConflict {
		t.Fatalf("late join: expected 409, got %d", w.Code)
	}
}

func TestAnonymityOfListedSubmissions(t *testing.T) {
	f := newQuizFixture(t)
	f.submit(t, f.astrid, "https://open.spotify.com/track/aaa", "Dancing Queen")

	w := doJSON(t, f.r, http.MethodGet, f.path("submissions"), nil, f.bjorn)
	if w.Code != http.StatusOK {
		t.Fatalf("list submissions: expected 200, got %d", w.Code)
	}

	var raw []map[string]any
	json.NewDecoder(w.Body).Decode(&raw)
	if len(raw) != 1 {
		t.Fatalf("submissions = %d, want 1", len(raw))
	}
	for _, key := range []string{"userId", "userID", "submitterId"} {
		if _, leaked := raw[0][key]; leaked {
			t.Errorf("submission listing leaks %s", key)
		}
	}
}
