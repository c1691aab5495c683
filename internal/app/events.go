package app

import "rummy/internal/domain"

// EventKind identifies emitted engine events for transport dispatch.
type EventKind string

const (
	EventRoundStarted      EventKind = "round_started"
	EventHandDealt         EventKind = "hand_dealt"
	EventCardDrawn         EventKind = "card_drawn"
	EventCardDiscarded     EventKind = "card_discarded"
	EventPlayerMeldsUpdate EventKind = "playerMeldsUpdated"
	EventPlayerDropped     EventKind = "playerDropped"
	EventPlayerLeft        EventKind = "playerLeft"
	EventTurnAdvanced      EventKind = "turnAdvanced"
	EventRoundDeclared     EventKind = "roundDeclared"
	EventRoundAborted      EventKind = "round_aborted"
)

// Event is an engine event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type RoundStartedPayload struct {
	RoundNumber   int         `json:"round_number"`
	Seats         []string    `json:"seats"`
	StockCount    int         `json:"stock_count"`
	DiscardTop    domain.Card `json:"discard_top"`
	WildJokerRank string      `json:"wild_joker_rank,omitempty"`
}

type HandDealtPayload struct {
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type CardDrawnPayload struct {
	UserID      string      `json:"user_id"`
	Card        domain.Card `json:"card"`
	FromDiscard bool        `json:"from_discard"`
	StockCount  int         `json:"stock_count"`
}

type CardDiscardedPayload struct {
	UserID string      `json:"user_id"`
	Card   domain.Card `json:"card"`
}

type PlayerMeldsUpdatedPayload struct {
	PlayerID string          `json:"playerId"`
	Melds    [][]domain.Card `json:"melds"`
}

type PlayerDroppedPayload struct {
	PlayerID string `json:"playerId"`
	NewScore int    `json:"newScore"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Penalty  int    `json:"penalty"`
}

type TurnAdvancedPayload struct {
	ActivePlayerID string `json:"activePlayerId"`
}

// RoundDeclaredPayload is the round-result wire shape.
type RoundDeclaredPayload struct {
	WinnerUserID   string                          `json:"winner_user_id"`
	RoundNumber    int                             `json:"round_number"`
	Scores         map[string]int                  `json:"scores"`
	RevealedHands  map[string][]domain.Card        `json:"revealed_hands"`
	OrganizedMelds map[string]domain.OrganizedHand `json:"organized_melds"`
}

type RoundAbortedPayload struct {
	RoundNumber int    `json:"round_number"`
	Reason      string `json:"reason"`
}
