package quiz

import (
	"slices"
	"strings"
)

// LeaderboardEntry is one guesser's accuracy summary for a quiz.
type LeaderboardEntry struct {
	Placement      int    `json:"placement"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	CorrectGuesses int    `json:"correctGuesses"`
	TotalGuesses   int    `json:"totalGuesses"`
}

// BuildLeaderboard ranks every user with at least one guess in the
// ledger. Ordering: correct guesses descending, then total guesses
// ascending (reaching the same correct count with fewer guesses ranks
// higher), then display name ascending. Placements are strictly
// increasing 1-based positions — equal scores never share a placement.
// Users who never guessed do not appear.
func BuildLeaderboard(guesses []Guess, names map[string]string) []LeaderboardEntry {
	byGuesser := make(map[string]*LeaderboardEntry)
	var order []string
	for _, g := range guesses {
		e, ok := byGuesser[g.GuesserID]
		if !ok {
			e = &LeaderboardEntry{
				UserID:   g.GuesserID,
				UserName: names[g.GuesserID],
			}
			byGuesser[g.GuesserID] = e
			order = append(order, g.GuesserID)
		}
		e.TotalGuesses++
		if g.IsCorrect {
			e.CorrectGuesses++
		}
	}

	entries := make([]LeaderboardEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *byGuesser[id])
	}
	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		if a.CorrectGuesses != b.CorrectGuesses {
			return b.CorrectGuesses - a.CorrectGuesses
		}
		if a.TotalGuesses != b.TotalGuesses {
			return a.TotalGuesses - b.TotalGuesses
		}
		return strings.Compare(a.UserName, b.UserName)
	})
	for i := range entries {
		entries[i].Placement = i + 1
	}
	return entries
}
