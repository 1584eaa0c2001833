package server

import (
	"context"
	"errors"

	"github.com/musiklag/songquiz/internal/quiz"
)

var (
	errNoSession  = errors.New("no valid session")
	ErrEmailTaken = errors.New("email already registered")
)

type userSession struct {
	UserID string
	Name   string
	Email  string
}

// Store is everything the HTTP layer needs from persistence. It embeds
// the domain's quiz.Store contract and adds users, sessions, and the
// list/detail reads the pages are built from. Implementations also
// satisfy quiz.NameResolver through DisplayNames.
type Store interface {
	quiz.Store

	Ping(ctx context.Context) error

	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)

	CreateUser(ctx context.Context, name, email, passwordHash string) (userID string, err error)
	UserByEmail(ctx context.Context, email string) (userID, passwordHash string, err error)
	CreateSession(ctx context.Context, userID string) (sessionID string, err error)
	DeleteSession(ctx context.Context, sessionID string) error
	UserFromSession(ctx context.Context, sessionID string) (userSession, error)

	CreateQuiz(ctx context.Context, name, description, createdBy string) (quiz.Quiz, error)
	ListQuizzes(ctx context.Context, viewerID string) ([]QuizSummary, error)

	AddParticipant(ctx context.Context, quizID int64, userID string) error
	ListParticipants(ctx context.Context, quizID int64) ([]UserInfo, error)
	AddAdmin(ctx context.Context, quizID int64, userID, addedBy string) error
	ListAdmins(ctx context.Context, quizID int64) ([]UserInfo, error)

	ListUserSubmissions(ctx context.Context, quizID int64, userID string) ([]quiz.Submission, error)
	CountSubmissions(ctx context.Context, quizID int64) (int, error)
}

type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type QuizSummary struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	CreatedBy        string `json:"createdBy"`
	CreatedByName    string `json:"createdByName"`
	ParticipantCount int    `json:"participantCount"`
	SubmissionCount  int    `json:"submissionCount"`
	Joined           bool   `json:"joined"`
	CreatedAt        string `json:"createdAt"`
}
