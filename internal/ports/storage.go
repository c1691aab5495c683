package ports

import (
	"context"

	"rummy/internal/domain"
)

// RoundStorePort defines the persistence contract the engine requires. Every
// call must be atomic at the granularity of one player action: the engine
// never observes a partially written round state.
type RoundStorePort interface {
	// LoadRoundState fetches a round's persisted state, or (nil, nil) when
	// the round has never been saved.
	LoadRoundState(ctx context.Context, tableID string, roundNo int) (*domain.RoundState, error)

	// SaveRoundState persists a round's full state, replacing any previous
	// version atomically.
	SaveRoundState(ctx context.Context, tableID string, roundNo int, state *domain.RoundState) error

	// AppendCumulativeScore adds a delta to a player's running table score.
	AppendCumulativeScore(ctx context.Context, tableID string, userID string, delta int) error
}
