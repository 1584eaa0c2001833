package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/musiklag/songquiz/internal/quiz"
)

// CreateQuizRequest is the request body for POST /api/quizzes.
type CreateQuizRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QuizDetail is the response for GET /api/quizzes/{quizID}. Submissions
// stay anonymous here; YourSubmissions only ever contains the viewer's
// own songs.
type QuizDetail struct {
	ID              int64                `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Status          string               `json:"status"`
	CreatedBy       string               `json:"createdBy"`
	CreatedAt       string               `json:"createdAt"`
	ClosedAt        *string              `json:"closedAt"`
	Joined          bool                 `json:"joined"`
	Participants    []UserInfo           `json:"participants"`
	Admins          []UserInfo           `json:"admins"`
	SubmissionCount int                  `json:"submissionCount"`
	YourSubmissions []SubmissionResponse `json:"yourSubmissions"`
}

// SubmissionResponse never carries the submitting user; who submitted
// what is the whole secret of the game.
type SubmissionResponse struct {
	ID          int64  `json:"id"`
	SongLink    string `json:"songLink"`
	SongTitle   string `json:"songTitle,omitempty"`
	Artist      string `json:"artist,omitempty"`
	SubmittedAt string `json:"submittedAt"`
}

func quizIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
}

func toSubmissionResponse(sub quiz.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          sub.ID,
		SongLink:    sub.SongLink,
		SongTitle:   sub.SongTitle,
		Artist:      sub.Artist,
		SubmittedAt: fmtTime(sub.SubmittedAt),
	}
}

func handleCreateQuiz(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		var req CreateQuizRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		q, err := store.CreateQuiz(r.Context(), req.Name, strings.TrimSpace(req.Description), sess.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, QuizDetail{
			ID:              q.ID,
			Name:            q.Name,
			Description:     q.Description,
			Status:          string(q.Status),
			CreatedBy:       q.CreatedBy,
			CreatedAt:       fmtTime(q.CreatedAt),
			Joined:          true,
			Participants:    []UserInfo{{ID: sess.UserID, Name: sess.Name}},
			Admins:          []UserInfo{},
			YourSubmissions: []SubmissionResponse{},
		})
	}
}

func handleListQuizzes(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := userFrom(r)

		quizzes, err := store.ListQuizzes(r.Context(), sess.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, quizzes)
	}
}

func handleGetQuiz(store Store) http.HandlerFunc {
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

		participants, err := store.ListParticipants(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		admins, err := store.ListAdmins(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		count, err := store.CountSubmissions(r.Context(), quizID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		own, err := store.ListUserSubmissions(r.Context(), quizID, sess.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		detail := QuizDetail{
			ID:              q.ID,
			Name:            q.Name,
			Description:     q.Description,
			Status:          string(q.Status),
			CreatedBy:       q.CreatedBy,
			CreatedAt:       fmtTime(q.CreatedAt),
			Participants:    participants,
			Admins:          admins,
			SubmissionCount: count,
			YourSubmissions: []SubmissionResponse{},
		}
		if q.ClosedAt != nil {
			s := fmtTime(*q.ClosedAt)
			detail.ClosedAt = &s
		}
		for _, p := range participants {
			if p.ID == sess.UserID {
				detail.Joined = true
			}
		}
		for _, sub := range own {
			detail.YourSubmissions = append(detail.YourSubmissions, toSubmissionResponse(sub))
		}

		writeJSON(w, http.StatusOK, detail)
	}
}
