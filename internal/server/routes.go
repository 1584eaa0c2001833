package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/musiklag/songquiz/internal/quiz"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, spaDir string) {
	svc := quiz.NewService(store, store)
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Songquiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, store))

	// Auth — register and login set the session cookie themselves.
	r.Post("/api/auth/register", handleRegister(store))
	r.Post("/api/auth/login", handleLogin(store))
	r.Post("/api/auth/logout", handleLogout(store))

	// Everything else requires a session.
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(store))

		r.Get("/auth/me", handleMe())

		r.Get("/quizzes", handleListQuizzes(store))
		r.Post("/quizzes", handleCreateQuiz(store))

		r.Route("/quizzes/{quizID}", func(r chi.Router) {
			r.Get("/", handleGetQuiz(store))
			r.Post("/join", handleJoinQuiz(store, broker))
			r.Put("/status", handleSetStatus(svc, broker))
			r.Get("/events", handleEvents(store, broker))

			r.Get("/submissions", handleListSubmissions(store))
			r.Post("/submissions", handleSubmitSong(svc))
			r.Post("/guesses", handleRecordGuess(svc))

			r.Get("/admins", handleListAdmins(store))
			r.Post("/admins", handleAddAdmin(store))

			r.Get("/leaderboard", handleLeaderboard(store, svc))
			r.Get("/results", handleResults(store, svc))
			r.Get("/presentation", handlePresentation(store, svc))
		})
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
