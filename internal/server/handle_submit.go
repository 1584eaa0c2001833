package server

import (
	"net/http"
	"strings"

	"github.com/musiklag/songquiz/internal/quiz"
)

// SubmitRequest is the request body for POST /api/quizzes/{quizID}/submissions.
type SubmitRequest struct {
	SongLink  string `json:"songLink"`
	SongTitle string `json:"songTitle"`
	Artist    string `json:"artist"`
}

func handleSubmitSong(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.SongLink = strings.TrimSpace(req.SongLink)
		if req.SongLink == "" {
			writeError(w, http.StatusBadRequest, "songLink is required")
			return
		}

		sub, err := svc.Submit(r.Context(), quizID, sess.UserID,
			req.SongLink, strings.TrimSpace(req.SongTitle), strings.TrimSpace(req.Artist))
		if err != nil {
			writeQuizError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSubmissionResponse(sub))
	}
}

// handleListSubmissions returns a quiz's submissions without submitter
// identities, for the guessing screen. Participants only.
func handleListSubmissions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		if _, err := store.GetQuiz(r.Context(), quizID); err != nil {
			writeQuizError(w, err)
			return
		}

		joined, err := store.IsParticipant(r.Context(), quizID, sess.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !joined {
			writeQuizError(w, quiz.ErrNotParticipant)
			return
		}

		subs, err := store.ListSubmissions(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []SubmissionResponse{}
		for _, sub := range subs {
			resp = append(resp, toSubmissionResponse(sub))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
