package server

import (
	"errors"
	"net/http"

	"github.com/musiklag/songquiz/internal/quiz"
)

// SongReveal is one song with its submitter unmasked, for the results
// page shown once a quiz is completed.
type SongReveal struct {
	ID            int64  `json:"id"`
	SongLink      string `json:"songLink"`
	SongTitle     string `json:"songTitle,omitempty"`
	Artist        string `json:"artist,omitempty"`
	SubmitterID   string `json:"submitterId"`
	SubmitterName string `json:"submitterName"`
}

// ResultsResponse is the response for GET /api/quizzes/{quizID}/results.
type ResultsResponse struct {
	QuizID      int64                   `json:"quizId"`
	QuizName    string                  `json:"quizName"`
	Songs       []SongReveal            `json:"songs"`
	Leaderboard []quiz.LeaderboardEntry `json:"leaderboard"`
}

// PresentationResponse is the response for GET /api/quizzes/{quizID}/presentation.
// The reveal pacing (which song is on screen, when the leaderboard
// animates in) belongs entirely to the client; this payload is static
// and safe to fetch once per reveal session.
type PresentationResponse struct {
	QuizID      int64                   `json:"quizId"`
	QuizName    string                  `json:"quizName"`
	Submissions []quiz.SubmissionView   `json:"submissions"`
	Leaderboard []quiz.LeaderboardEntry `json:"leaderboard"`
}

func requireParticipant(r *http.Request, store Store, quizID int64) (quiz.Quiz, error) {
	sess := userFrom(r)

	q, err := store.GetQuiz(r.Context(), quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}

	joined, err := store.IsParticipant(r.Context(), quizID, sess.UserID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if !joined {
		return quiz.Quiz{}, quiz.ErrNotParticipant
	}
	return q, nil
}

// handleLeaderboard serves the in-progress (or final) accuracy ranking
// to participants. Available from the guessing phase onward; the
// aggregation itself is identical before and after completion.
func handleLeaderboard(store Store, svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		q, err := requireParticipant(r, store, quizID)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		if q.Status != quiz.StatusGuessing && q.Status != quiz.StatusCompleted {
			writeError(w, http.StatusConflict, "leaderboard is not available yet")
			return
		}

		entries, err := svc.Leaderboard(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

// handleResults unmasks the submitters. Participants only, and only
// once the quiz is completed.
func handleResults(store Store, svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		q, err := requireParticipant(r, store, quizID)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		if q.Status != quiz.StatusCompleted {
			writeError(w, http.StatusConflict, "results are not available until the quiz is completed")
			return
		}

		views, err := svc.Distribution(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		entries, err := svc.Leaderboard(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		songs := []SongReveal{}
		for _, v := range views {
			songs = append(songs, SongReveal{
				ID:            v.ID,
				SongLink:      v.SongLink,
				SongTitle:     v.SongTitle,
				Artist:        v.Artist,
				SubmitterID:   v.UserID,
				SubmitterName: v.UserName,
			})
		}

		writeJSON(w, http.StatusOK, ResultsResponse{
			QuizID:      q.ID,
			QuizName:    q.Name,
			Songs:       songs,
			Leaderboard: entries,
		})
	}
}

// handlePresentation serves the per-song guess distribution for the
// host-run reveal screen. Restricted to the creator and quiz admins
// because it exposes the answers before everyone has seen them.
func handlePresentation(store Store, svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		q, err := requireQuizAdmin(r, store, quizID)
		if err != nil {
			if errors.Is(err, quiz.ErrForbidden) {
				writeError(w, http.StatusForbidden, "only the quiz creator or an admin can open the presentation")
				return
			}
			writeQuizError(w, err)
			return
		}
		if q.Status != quiz.StatusGuessing && q.Status != quiz.StatusCompleted {
			writeError(w, http.StatusConflict, "presentation is not available before the guessing phase")
			return
		}

		views, err := svc.Distribution(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		entries, err := svc.Leaderboard(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, PresentationResponse{
			QuizID:      q.ID,
			QuizName:    q.Name,
			Submissions: views,
			Leaderboard: entries,
		})
	}
}
