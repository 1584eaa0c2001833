package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/musiklag/songquiz/internal/quiz"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const timeLayout = "2006-01-02T15:04:05.000Z"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// --- users & sessions ---

func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES (?, ?, ?)
		RETURNING id
	`, name, email, passwordHash).Scan(&userID)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return "", ErrEmailTaken
	}
	return userID, err
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (string, string, error) {
	var userID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM users WHERE email = ?
	`, email).Scan(&userID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", quiz.ErrNotFound
	}
	return userID, passwordHash, err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id)
		VALUES (?)
		RETURNING id
	`, userID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) UserFromSession(ctx context.Context, sessionID string) (userSession, error) {
	var sess userSession
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.UserID, &sess.Name, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return userSession{}, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	placeholders := strings.Repeat("?,", len(userIDs)-1) + "?"
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// --- quizzes ---

func (s *SQLiteStore) CreateQuiz(ctx context.Context, name, description, createdBy string) (quiz.Quiz, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer tx.Rollback()

	var q quiz.Quiz
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO quizzes (name, description, created_by)
		VALUES (?, ?, ?)
		RETURNING id, created_at
	`, name, description, createdBy).Scan(&q.ID, &createdAt)
	if err != nil {
		return quiz.Quiz{}, err
	}

	// The creator is always a participant of their own quiz.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO quiz_participants (quiz_id, user_id) VALUES (?, ?)
	`, q.ID, createdBy)
	if err != nil {
		return quiz.Quiz{}, err
	}

	if err := tx.Commit(); err != nil {
		return quiz.Quiz{}, err
	}

	q.Name = name
	q.Description = description
	q.CreatedBy = createdBy
	q.Status = quiz.StatusOpen
	q.CreatedAt = parseTime(createdAt)
	return q, nil
}

func (s *SQLiteStore) GetQuiz(ctx context.Context, quizID int64) (quiz.Quiz, error) {
	var q quiz.Quiz
	var status, createdAt string
	var closedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, status, created_at, closed_at
		FROM quizzes WHERE id = ?
	`, quizID).Scan(&q.ID, &q.Name, &q.Description, &q.CreatedBy, &status, &createdAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	if err != nil {
		return quiz.Quiz{}, err
	}

	q.Status = quiz.Status(status)
	q.CreatedAt = parseTime(createdAt)
	if closedAt.Valid {
		t := parseTime(closedAt.String)
		q.ClosedAt = &t
	}
	return q, nil
}

// SetQuizStatus is the compare-and-set backing quiz.Service.Transition:
// the WHERE clause pins the expected current status, so a row already
// moved by a concurrent transition matches nothing.
func (s *SQLiteStore) SetQuizStatus(ctx context.Context, quizID int64, from, to quiz.Status, closedAt *time.Time) error {
	var closed any
	if closedAt != nil {
		closed = fmtTime(*closedAt)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE quizzes SET status = ?, closed_at = COALESCE(?, closed_at)
		WHERE id = ? AND status = ?
	`, string(to), closed, quizID, string(from))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return quiz.ErrInvalidTransition
	}
	return nil
}

func (s *SQLiteStore) ListQuizzes(ctx context.Context, viewerID string) ([]QuizSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.name, q.description, q.status, q.created_by, u.name,
			(SELECT COUNT(*) FROM quiz_participants p WHERE p.quiz_id = q.id),
			(SELECT COUNT(*) FROM song_submissions sub WHERE sub.quiz_id = q.id),
			EXISTS (SELECT 1 FROM quiz_participants p WHERE p.quiz_id = q.id AND p.user_id = ?),
			q.created_at
		FROM quizzes q
		JOIN users u ON u.id = q.created_by
		ORDER BY q.created_at DESC, q.id DESC
	`, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []QuizSummary{}
	for rows.Next() {
		var q QuizSummary
		if err := rows.Scan(&q.ID, &q.Name, &q.Description, &q.Status, &q.CreatedBy,
			&q.CreatedByName, &q.ParticipantCount, &q.SubmissionCount, &q.Joined, &q.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// --- membership ---

func (s *SQLiteStore) AddParticipant(ctx context.Context, quizID int64, userID string) error {
	// Joining twice is a no-op.
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO quiz_participants (quiz_id, user_id) VALUES (?, ?)
	`, quizID, userID)
	return err
}

func (s *SQLiteStore) IsParticipant(ctx context.Context, quizID int64, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM quiz_participants WHERE quiz_id = ? AND user_id = ?
	`, quizID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) ListParticipants(ctx context.Context, quizID int64) ([]UserInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name
		FROM quiz_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.quiz_id = ?
		ORDER BY p.joined_at, p.id
	`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (s *SQLiteStore) AddAdmin(ctx context.Context, quizID int64, userID, addedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO quiz_admins (quiz_id, user_id, added_by) VALUES (?, ?, ?)
	`, quizID, userID, addedBy)
	return err
}

func (s *SQLiteStore) IsAdmin(ctx context.Context, quizID int64, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM quiz_admins WHERE quiz_id = ? AND user_id = ?
	`, quizID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) ListAdmins(ctx context.Context, quizID int64) ([]UserInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name
		FROM quiz_admins a
		JOIN users u ON u.id = a.user_id
		WHERE a.quiz_id = ?
		ORDER BY a.added_at, a.id
	`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]UserInfo, error) {
	users := []UserInfo{}
	for rows.Next() {
		var u UserInfo
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- submissions ---

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub quiz.Submission) (quiz.Submission, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO song_submissions (quiz_id, user_id, song_link, song_title, artist, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, sub.QuizID, sub.UserID, sub.SongLink, sub.SongTitle, sub.Artist, fmtTime(sub.SubmittedAt)).Scan(&sub.ID)
	if err != nil {
		return quiz.Submission{}, fmt.Errorf("inserting submission: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, submissionID int64) (quiz.Submission, error) {
	var sub quiz.Submission
	var submittedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, quiz_id, user_id, song_link, song_title, artist, submitted_at
		FROM song_submissions WHERE id = ?
	`, submissionID).Scan(&sub.ID, &sub.QuizID, &sub.UserID, &sub.SongLink, &sub.SongTitle, &sub.Artist, &submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Submission{}, quiz.ErrNotFound
	}
	sub.SubmittedAt = parseTime(submittedAt)
	return sub, err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, quizID int64) ([]quiz.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quiz_id, user_id, song_link, song_title, artist, submitted_at
		FROM song_submissions
		WHERE quiz_id = ?
		ORDER BY id
	`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

func (s *SQLiteStore) ListUserSubmissions(ctx context.Context, quizID int64, userID string) ([]quiz.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quiz_id, user_id, song_link, song_title, artist, submitted_at
		FROM song_submissions
		WHERE quiz_id = ? AND user_id = ?
		ORDER BY id
	`, quizID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

func scanSubmissions(rows *sql.Rows) ([]quiz.Submission, error) {
	subs := []quiz.Submission{}
	for rows.Next() {
		var sub quiz.Submission
		var submittedAt string
		if err := rows.Scan(&sub.ID, &sub.QuizID, &sub.UserID, &sub.SongLink,
			&sub.SongTitle, &sub.Artist, &submittedAt); err != nil {
			return nil, err
		}
		sub.SubmittedAt = parseTime(submittedAt)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) CountSubmissions(ctx context.Context, quizID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM song_submissions WHERE quiz_id = ?
	`, quizID).Scan(&count)
	return count, err
}

// --- guesses ---

func (s *SQLiteStore) CreateGuess(ctx context.Context, g quiz.Guess) (quiz.Guess, error) {
	isCorrect := 0
	if g.IsCorrect {
		isCorrect = 1
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO guesses (quiz_id, guesser_id, song_submission_id, guessed_user_id, is_correct, guessed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, g.QuizID, g.GuesserID, g.SubmissionID, g.GuessedUserID, isCorrect, fmtTime(g.GuessedAt)).Scan(&g.ID)
	if err != nil {
		return quiz.Guess{}, fmt.Errorf("inserting guess: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) ListGuesses(ctx context.Context, quizID int64) ([]quiz.Guess, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quiz_id, guesser_id, song_submission_id, guessed_user_id, is_correct, guessed_at
		FROM guesses
		WHERE quiz_id = ?
		ORDER BY guessed_at, id
	`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guesses := []quiz.Guess{}
	for rows.Next() {
		var g quiz.Guess
		var isCorrect int
		var guessedAt string
		if err := rows.Scan(&g.ID, &g.QuizID, &g.GuesserID, &g.SubmissionID,
			&g.GuessedUserID, &isCorrect, &guessedAt); err != nil {
			return nil, err
		}
		g.IsCorrect = isCorrect == 1
		g.GuessedAt = parseTime(guessedAt)
		guesses = append(guesses, g)
	}
	return guesses, rows.Err()
}
