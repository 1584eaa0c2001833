package server

import (
	"net/http"

	"github.com/musiklag/songquiz/internal/quiz"
)

// JoinResponse is the response for POST /api/quizzes/{quizID}/join.
type JoinResponse struct {
	QuizID int64  `json:"quizId"`
	Status string `json:"status"`
}

func handleJoinQuiz(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizID, err := quizIDParam(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		q, err := store.GetQuiz(r.Context(), quizID)
		if err != nil {
			writeQuizError(w, err)
			return
		}

		// Membership is settled while the quiz collects songs; later
		// phases guess over a fixed participant set.
		if q.Status != quiz.StatusOpen {
			writeError(w, http.StatusConflict, "quiz is no longer open to join")
			return
		}

		if err := store.AddParticipant(r.Context(), quizID, sess.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(quizID, Event{
			Type:            "participant_joined",
			ParticipantName: sess.Name,
		})

		writeJSON(w, http.StatusOK, JoinResponse{QuizID: quizID, Status: string(q.Status)})
	}
}
