package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/musiklag/songquiz/internal/quiz"
)

// AddAdminRequest is the request body for POST /api/quizzes/{quizID}/admins.
type AddAdminRequest struct {
	Email string `json:"email"`
}

// requireQuizAdmin loads the quiz and checks the viewer is its creator
// or one of its admins.
func requireQuizAdmin(r *http.Request, store Store, quizID int64) (quiz.Quiz, error) {
	sess := userFrom(r)

	q, err := store.GetQuiz(r.Context(), quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if q.CreatedBy == sess.UserID {
		return q, nil
	}

	isAdmin, err := store.IsAdmin(r.Context(), quizID, sess.UserID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if !isAdmin {
		return quiz.Quiz{}, quiz.ErrForbidden
	}
	return q, nil
}

func handleListAdmins(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		if _, err := requireQuizAdmin(r, store, quizID); err != nil {
			writeQuizError(w, err)
			return
		}

		admins, err := store.ListAdmins(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, admins)
	}
}

func handleAddAdmin(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		if _, err := requireQuizAdmin(r, store, quizID); err != nil {
			writeQuizError(w, err)
			return
		}

		var req AddAdminRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		userID, _, err := store.UserByEmail(r.Context(), req.Email)
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no user with that email")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := store.AddAdmin(r.Context(), quizID, userID, sess.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		admins, err := store.ListAdmins(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, admins)
	}
}
