package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleEvents streams lobby events (participants joining, status
// changes) for one quiz over Server-Sent Events.
func handleEvents(store Store, broker *Broker) http.HandlerFunc {
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
			writeError(w, http.StatusForbidden, "join the quiz first")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ch := broker.Subscribe(quizID)
		defer broker.Unsubscribe(quizID, ch)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: quiz\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
