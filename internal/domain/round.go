package domain

// Phase represents the lifecycle stage of a round.
type Phase string

const (
	// PhaseDealing covers deck construction and the initial deal.
	PhaseDealing Phase = "dealing"
	// PhaseAwaitingDraw means the active player must draw a card.
	PhaseAwaitingDraw Phase = "awaiting_draw"
	// PhaseAwaitingDiscard means the active player holds 14 cards and must
	// discard or declare.
	PhaseAwaitingDiscard Phase = "awaiting_discard"
	// PhaseDeclared is the terminal state after an accepted declaration.
	PhaseDeclared Phase = "declared"
	// PhaseAborted is the terminal state when the round cannot continue,
	// such as stock exhaustion without a declaration.
	PhaseAborted Phase = "aborted"
)

// Terminal reports whether the phase ends the round.
func (p Phase) Terminal() bool {
	return p == PhaseDeclared || p == PhaseAborted
}

// PlayerRoundStatus holds one player's state within a single round.
type PlayerRoundStatus struct {
	UserID       string   `json:"user_id"`
	Hand         []Card   `json:"hand"`
	LockedMelds  [][]Card `json:"locked_melds,omitempty"` // advisory pre-declare grouping
	HasDrawn     bool     `json:"has_drawn"`
	Dropped      bool     `json:"dropped"`
	Disconnected bool     `json:"disconnected"`
	RoundScore   int      `json:"round_score"`
}

// Live reports whether the player still participates in turn order.
func (ps *PlayerRoundStatus) Live() bool {
	return !ps.Dropped && !ps.Disconnected
}

// RoundState is the authoritative mutable state of one round. It is owned by
// a Table and must only be mutated while holding that table's action lock.
type RoundState struct {
	RoundNumber int    `json:"round_number"`
	Phase       Phase  `json:"phase"`
	Stock       []Card `json:"stock"`
	Discard     []Card `json:"discard"` // top of the pile is the last element

	Seats     []string                      `json:"seats"` // seating order for this round
	TurnIndex int                           `json:"turn_index"`
	Players   map[string]*PlayerRoundStatus `json:"players"`

	WildJokerRank Rank `json:"wild_joker_rank"`
	WildRevealed  bool `json:"wild_revealed"`

	// DeckSize is the total card count dealt into the round, the fixed sum
	// the conservation invariant is checked against.
	DeckSize int `json:"deck_size"`

	WinnerID string `json:"winner_id,omitempty"`
}

// ActivePlayerID returns the user id holding the turn, or "" in a terminal phase.
func (r *RoundState) ActivePlayerID() string {
	if r.Phase.Terminal() || len(r.Seats) == 0 {
		return ""
	}
	return r.Seats[r.TurnIndex]
}

// Player returns the round status for a seated user, or nil.
func (r *RoundState) Player(userID string) *PlayerRoundStatus {
	return r.Players[userID]
}

// DiscardTop returns the top card of the discard pile.
func (r *RoundState) DiscardTop() (Card, bool) {
	if len(r.Discard) == 0 {
		return Card{}, false
	}
	return r.Discard[len(r.Discard)-1], true
}

// LiveCount returns how many seated players are still in turn order.
func (r *RoundState) LiveCount() int {
	n := 0
	for _, seat := range r.Seats {
		if ps := r.Players[seat]; ps != nil && ps.Live() {
			n++
		}
	}
	return n
}

// AdvanceTurn moves the turn to the next live player in seating order and
// returns their user id. Callers must ensure at least one live player remains.
func (r *RoundState) AdvanceTurn() string {
	for i := 0; i < len(r.Seats); i++ {
		r.TurnIndex = (r.TurnIndex + 1) % len(r.Seats)
		if ps := r.Players[r.Seats[r.TurnIndex]]; ps != nil && ps.Live() {
			return r.Seats[r.TurnIndex]
		}
	}
	return r.Seats[r.TurnIndex]
}

// CardCount sums stock, discard and every hand. While the round is open it
// must always equal DeckSize.
func (r *RoundState) CardCount() int {
	n := len(r.Stock) + len(r.Discard)
	for _, ps := range r.Players {
		n += len(ps.Hand)
	}
	return n
}
