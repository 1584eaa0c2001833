package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/musiklag/songquiz/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeQuizError maps the domain error set to HTTP responses. Anything
// outside the set is an internal error and is not leaked to the client.
func writeQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, quiz.ErrForbidden):
		writeError(w, http.StatusForbidden, "only the quiz creator or an admin can do this")
	case errors.Is(err, quiz.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "join the quiz first")
	case errors.Is(err, quiz.ErrSelfGuessForbidden):
		writeError(w, http.StatusForbidden, "you cannot guess on your own submission")
	case errors.Is(err, quiz.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "quiz is no longer in the expected status")
	case errors.Is(err, quiz.ErrQuizNotOpen):
		writeError(w, http.StatusConflict, "quiz is not open for submissions")
	case errors.Is(err, quiz.ErrQuizNotInGuessingPhase):
		writeError(w, http.StatusConflict, "quiz is not in the guessing phase")
	case errors.Is(err, quiz.ErrSubmissionNotInQuiz):
		writeError(w, http.StatusBadRequest, "submission does not belong to this quiz")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
