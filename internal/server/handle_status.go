package server

import (
	"net/http"

	"github.com/musiklag/songquiz/internal/quiz"
)

// StatusRequest is the request body for PUT /api/quizzes/{quizID}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// StatusResponse is the quiz's lifecycle state after the transition.
type StatusResponse struct {
	ID       int64   `json:"id"`
	Status   string  `json:"status"`
	ClosedAt *string `json:"closedAt"`
}

func handleSetStatus(svc *quiz.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		var req StatusRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		target := quiz.Status(req.Status)
		if !target.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}

		q, err := svc.Transition(r.Context(), quizID, sess.UserID, target)
		if err != nil {
			writeQuizError(w, err)
			return
		}

		broker.Publish(quizID, Event{
			Type:   "status_changed",
			Status: string(q.Status),
		})

		resp := StatusResponse{ID: q.ID, Status: string(q.Status)}
		if q.ClosedAt != nil {
			s := fmtTime(*q.ClosedAt)
			resp.ClosedAt = &s
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
