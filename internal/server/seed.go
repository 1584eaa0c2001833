package server

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/musiklag/songquiz/internal/quiz"
)

// SeedDemo creates demo users and a quiz in the guessing phase so a
// fresh checkout has something to click around in. Idempotent: does
// nothing if any user exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("songquiz-demo"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := map[string]string{}
	for _, name := range []string{"Astrid", "Björn", "Cecilia"} {
		id, err := store.CreateUser(ctx, name, name+"@example.com", string(hash))
		if err != nil {
			return fmt.Errorf("creating demo user %s: %w", name, err)
		}
		users[name] = id
	}

	q, err := store.CreateQuiz(ctx, "Fredagsquiz", "Guess who picked what", users["Astrid"])
	if err != nil {
		return fmt.Errorf("creating demo quiz: %w", err)
	}

	svc := quiz.NewService(store, store)
	for _, p := range []string{"Björn", "Cecilia"} {
		if err := store.AddParticipant(ctx, q.ID, users[p]); err != nil {
			return err
		}
	}

	songs := []struct {
		by, link, title, artist string
	}{
		{"Astrid", "https://open.spotify.com/track/2ZCvxJJAmYOSJ6ccDBnis9", "Dancing Queen", "ABBA"},
		{"Björn", "https://open.spotify.com/track/6Qb7gtV6Q4MnUjSbkFcopl", "The Look", "Roxette"},
		{"Cecilia", "https://open.spotify.com/track/1zpedaJ6H8j0Avxkq8Dcd0", "Lush Life", "Zara Larsson"},
	}
	for _, song := range songs {
		if _, err := svc.Submit(ctx, q.ID, users[song.by], song.link, song.title, song.artist); err != nil {
			return fmt.Errorf("seeding submission: %w", err)
		}
	}

	// Move the quiz into the guessing phase.
	for _, target := range []quiz.Status{quiz.StatusClosed, quiz.StatusGuessing} {
		if _, err := svc.Transition(ctx, q.ID, users["Astrid"], target); err != nil {
			return fmt.Errorf("advancing demo quiz: %w", err)
		}
	}

	logger.Info("demo data seeded", "quiz_id", q.ID)
	return nil
}
