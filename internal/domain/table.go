package domain

import "sync"

// DefaultDisqualifyThreshold is the cumulative score beyond which a player is
// eliminated from the table. It is configuration, not engine logic.
const DefaultDisqualifyThreshold = 200

// Table is the long-lived container for seated players across rounds. It owns
// the current round and the mutex serializing all mutating actions on it:
// every engine action is an atomic read-modify-write under Lock.
type Table struct {
	mu sync.Mutex

	ID                  string         `json:"table_id"`
	Seats               []string       `json:"seats"` // seating order, fixed at table creation
	RoundNumber         int            `json:"round_number"`
	CumulativeScores    map[string]int `json:"cumulative_scores"`
	DisqualifyThreshold int            `json:"disqualify_threshold"`

	Round *RoundState `json:"round,omitempty"`
}

// NewTable seats the given players in order with zeroed cumulative scores.
func NewTable(id string, seats []string, disqualifyThreshold int) *Table {
	if disqualifyThreshold <= 0 {
		disqualifyThreshold = DefaultDisqualifyThreshold
	}
	scores := make(map[string]int, len(seats))
	for _, s := range seats {
		scores[s] = 0
	}
	return &Table{
		ID:                  id,
		Seats:               append([]string(nil), seats...),
		CumulativeScores:    scores,
		DisqualifyThreshold: disqualifyThreshold,
	}
}

// Lock acquires the table's single-writer action lock.
func (t *Table) Lock() { t.mu.Lock() }

// Unlock releases the table's action lock.
func (t *Table) Unlock() { t.mu.Unlock() }

// Eliminated reports whether a player's cumulative score has passed the
// disqualify threshold.
func (t *Table) Eliminated(userID string) bool {
	return t.CumulativeScores[userID] > t.DisqualifyThreshold
}

// ActiveSeats returns the seating order filtered to players still in the game.
func (t *Table) ActiveSeats() []string {
	var out []string
	for _, s := range t.Seats {
		if !t.Eliminated(s) {
			out = append(out, s)
		}
	}
	return out
}

// AddScore applies a cumulative score delta and returns the new total.
func (t *Table) AddScore(userID string, delta int) int {
	t.CumulativeScores[userID] += delta
	return t.CumulativeScores[userID]
}
