package quiz

import (
	"slices"
	"sort"
	"strings"
)

// GuessBucket groups the guesses on one submission that accuse the same
// user. Guessers holds the display name of every guess in the bucket,
// in the order the guesses were made; a guesser who guessed twice
// appears twice.
type GuessBucket struct {
	ParticipantID   string   `json:"participantId"`
	ParticipantName string   `json:"participantName"`
	GuessCount      int      `json:"guessCount"`
	Guessers        []string `json:"guessers"`
	IsCorrect       bool     `json:"isCorrect"`
}

// SubmissionView is the per-song view-model for the reveal screen.
type SubmissionView struct {
	ID                int64         `json:"id"`
	SongLink          string        `json:"songLink"`
	SongTitle         string        `json:"songTitle,omitempty"`
	Artist            string        `json:"artist,omitempty"`
	UserID            string        `json:"userId"`
	UserName          string        `json:"userName"`
	GuessDistribution []GuessBucket `json:"guessDistribution"`
}

// BuildDistribution turns a quiz's guess ledger into one SubmissionView
// per submission, in submission-ID ascending order. Buckets are ordered
// by guess count descending, ties by accused display name ascending, so
// the output is deterministic regardless of storage iteration order.
// A submission nobody guessed on gets an empty bucket slice.
func BuildDistribution(submissions []Submission, guesses []Guess, names map[string]string) []SubmissionView {
	subs := slices.Clone(submissions)
	slices.SortFunc(subs, func(a, b Submission) int {
		return int(a.ID - b.ID)
	})

	ordered := slices.Clone(guesses)
	slices.SortStableFunc(ordered, func(a, b Guess) int {
		if c := a.GuessedAt.Compare(b.GuessedAt); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})

	bySubmission := make(map[int64][]Guess, len(subs))
	for _, g := range ordered {
		bySubmission[g.SubmissionID] = append(bySubmission[g.SubmissionID], g)
	}

	views := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, SubmissionView{
			ID:                sub.ID,
			SongLink:          sub.SongLink,
			SongTitle:         sub.SongTitle,
			Artist:            sub.Artist,
			UserID:            sub.UserID,
			UserName:          names[sub.UserID],
			GuessDistribution: bucketGuesses(sub, bySubmission[sub.ID], names),
		})
	}
	return views
}

func bucketGuesses(sub Submission, guesses []Guess, names map[string]string) []GuessBucket {
	byAccused := make(map[string]*GuessBucket)
	var order []string
	for _, g := range guesses {
		b, ok := byAccused[g.GuessedUserID]
		if !ok {
			b = &GuessBucket{
				ParticipantID:   g.GuessedUserID,
				ParticipantName: names[g.GuessedUserID],
				IsCorrect:       g.GuessedUserID == sub.UserID,
			}
			byAccused[g.GuessedUserID] = b
			order = append(order, g.GuessedUserID)
		}
		b.GuessCount++
		b.Guessers = append(b.Guessers, names[g.GuesserID])
	}

	buckets := make([]GuessBucket, 0, len(order))
	for _, id := range order {
		buckets = append(buckets, *byAccused[id])
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].GuessCount != buckets[j].GuessCount {
			return buckets[i].GuessCount > buckets[j].GuessCount
		}
		return strings.Compare(buckets[i].ParticipantName, buckets[j].ParticipantName) < 0
	})
	return buckets
}
