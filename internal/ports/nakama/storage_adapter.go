package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"

	"rummy/internal/domain"
	"rummy/internal/ports"
)

const (
	roundCollection = "rummy_rounds"
	scoreCollection = "rummy_scores"
)

// NakamaRoundStore implements ports.RoundStorePort on Nakama's storage
// engine. Writes use the storage version field as a compare-and-swap so a
// retried or concurrent action can never interleave a torn round state.
type NakamaRoundStore struct {
	nk runtime.NakamaModule

	mu       sync.Mutex
	versions map[string]string // collection/key -> last seen storage version
}

// NewNakamaRoundStore creates a round store backed by Nakama storage.
func NewNakamaRoundStore(nk runtime.NakamaModule) *NakamaRoundStore {
	return &NakamaRoundStore{nk: nk, versions: make(map[string]string)}
}

func roundKey(tableID string, roundNo int) string {
	return tableID + ":round_" + strconv.Itoa(roundNo)
}

// LoadRoundState fetches the persisted state for a round, remembering the
// storage version for the next CAS write.
func (s *NakamaRoundStore) LoadRoundState(ctx context.Context, tableID string, roundNo int) (*domain.RoundState, error) {
	key := roundKey(tableID, roundNo)
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: roundCollection,
		Key:        key,
	}})
	if err != nil {
		return nil, fmt.Errorf("read round state: %w", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}

	var state domain.RoundState
	if err := json.Unmarshal([]byte(objects[0].Value), &state); err != nil {
		return nil, fmt.Errorf("unmarshal round state: %w", err)
	}

	s.mu.Lock()
	s.versions[key] = objects[0].Version
	s.mu.Unlock()
	return &state, nil
}

// SaveRoundState persists the round atomically. The write carries the last
// seen version ("*" for a fresh round) so stale writers are rejected by the
// storage engine instead of corrupting state.
func (s *NakamaRoundStore) SaveRoundState(ctx context.Context, tableID string, roundNo int, state *domain.RoundState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal round state: %w", err)
	}

	key := roundKey(tableID, roundNo)
	s.mu.Lock()
	version, seen := s.versions[key]
	s.mu.Unlock()
	if !seen {
		version = "*"
	}

	acks, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      roundCollection,
		Key:             key,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		return fmt.Errorf("write round state: %w", err)
	}

	s.mu.Lock()
	s.versions[key] = acks[0].Version
	s.mu.Unlock()
	return nil
}

// AppendCumulativeScore adds a delta to the player's running table score with
// a read-modify-write guarded by the storage version.
func (s *NakamaRoundStore) AppendCumulativeScore(ctx context.Context, tableID string, userID string, delta int) error {
	key := tableID + ":" + userID
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: scoreCollection,
		Key:        key,
	}})
	if err != nil {
		return fmt.Errorf("read cumulative score: %w", err)
	}

	total := 0
	version := "*"
	if len(objects) > 0 {
		var record struct {
			Total int `json:"total"`
		}
		if err := json.Unmarshal([]byte(objects[0].Value), &record); err != nil {
			return fmt.Errorf("unmarshal cumulative score: %w", err)
		}
		total = record.Total
		version = objects[0].Version
	}

	value, err := json.Marshal(map[string]int{"total": total + delta})
	if err != nil {
		return fmt.Errorf("marshal cumulative score: %w", err)
	}

	if _, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      scoreCollection,
		Key:             key,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}}); err != nil {
		return fmt.Errorf("write cumulative score: %w", err)
	}
	return nil
}

var _ ports.RoundStorePort = (*NakamaRoundStore)(nil)
