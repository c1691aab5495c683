package nakama

import (
	"rummy/internal/app"
	"rummy/internal/domain"
)

// Client request payloads, JSON over match data. Cards travel in the wire
// shape {rank, suit?, joker}, which domain.Card serializes directly.

type drawRequest struct {
	FromDiscard bool `json:"from_discard"`
}

type discardRequest struct {
	Card domain.Card `json:"card"`
}

type meldsRequest struct {
	Melds [][]domain.Card `json:"melds"`
}

type actionRejectedEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Label is the match label advertised for quick-match queries.
type Label struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

// eventOpCode maps engine event kinds onto wire op codes.
func eventOpCode(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventRoundStarted:
		return OpRoundStarted, true
	case app.EventHandDealt:
		return OpHandDealt, true
	case app.EventCardDrawn:
		return OpCardDrawn, true
	case app.EventCardDiscarded:
		return OpCardDiscarded, true
	case app.EventPlayerMeldsUpdate:
		return OpMeldsUpdated, true
	case app.EventPlayerDropped:
		return OpPlayerDropped, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	case app.EventTurnAdvanced:
		return OpTurnAdvanced, true
	case app.EventRoundDeclared:
		return OpRoundDeclared, true
	case app.EventRoundAborted:
		return OpRoundAborted, true
	}
	return 0, false
}
