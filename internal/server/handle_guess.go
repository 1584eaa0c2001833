package server

import (
	"net/http"

	"github.com/musiklag/songquiz/internal/quiz"
)

// GuessRequest is the request body for POST /api/quizzes/{quizID}/guesses.
type GuessRequest struct {
	SubmissionID  int64  `json:"submissionId"`
	GuessedUserID string `json:"guessedUserId"`
}

// GuessResponse deliberately omits correctness; whether a guess was
// right is only revealed by the results and presentation views.
type GuessResponse struct {
	ID            int64  `json:"id"`
	SubmissionID  int64  `json:"submissionId"`
	GuessedUserID string `json:"guessedUserId"`
	GuessedAt     string `json:"guessedAt"`
}

func handleRecordGuess(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SubmissionID == 0 || req.GuessedUserID == "" {
			writeError(w, http.StatusBadRequest, "submissionId and guessedUserId are required")
			return
		}

		g, err := svc.RecordGuess(r.Context(), quizID, sess.UserID, req.SubmissionID, req.GuessedUserID)
		if err != nil {
			writeQuizError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, GuessResponse{
			ID:            g.ID,
			SubmissionID:  g.SubmissionID,
			GuessedUserID: g.GuessedUserID,
			GuessedAt:     fmtTime(g.GuessedAt),
		})
	}
}
