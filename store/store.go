// Package store persists offering checkpoints and price history.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/librbf-go/rbf"
	"github.com/bitfsorg/librbf-go/vault"
)

// Checkpoint is the state of every deployed instance at one call height.
type Checkpoint struct {
	Height uint64
	Taken  time.Time
	RBFs   []rbf.Snapshot
	Vaults []vault.Snapshot
}

// PriceRecord is one persisted price round of a feed.
type PriceRecord struct {
	Feed      common.Address
	Round     uint64
	Price     string
	Timestamp int64
}

// CheckpointStore persists checkpoints keyed by height.
type CheckpointStore interface {
	// PutCheckpoint stores a checkpoint.
	PutCheckpoint(cp *Checkpoint) error

	// GetCheckpoint retrieves the checkpoint taken at height.
	GetCheckpoint(height uint64) (*Checkpoint, error)

	// GetLatest returns the checkpoint with the greatest height.
	GetLatest() (*Checkpoint, error)

	// CountCheckpoints returns the number of stored checkpoints.
	CountCheckpoints() (uint64, error)
}

// PriceStore persists feed rounds.
type PriceStore interface {
	// PutPrice stores one round.
	PutPrice(rec *PriceRecord) error

	// GetPrices returns the stored rounds of feed ordered by round.
	GetPrices(feed common.Address) ([]*PriceRecord, error)
}

// MemCheckpointStore is an in-memory CheckpointStore.
type MemCheckpointStore struct {
	mu       sync.RWMutex
	byHeight map[uint64]*Checkpoint
	tip      uint64
	hasTip   bool
}

var _ CheckpointStore = (*MemCheckpointStore)(nil)

// NewMemCheckpointStore creates an empty in-memory checkpoint store.
func NewMemCheckpointStore() *MemCheckpointStore {
	return &MemCheckpointStore{byHeight: make(map[uint64]*Checkpoint)}
}

// PutCheckpoint stores a checkpoint.
func (s *MemCheckpointStore) PutCheckpoint(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("%w: checkpoint", ErrNilParam)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHeight[cp.Height]; exists {
		return ErrDuplicateCheckpoint
	}
	s.byHeight[cp.Height] = cp
	if !s.hasTip || cp.Height > s.tip {
		s.tip = cp.Height
		s.hasTip = true
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint taken at height.
func (s *MemCheckpointStore) GetCheckpoint(height uint64) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.byHeight[height]
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	return cp, nil
}

// GetLatest returns the checkpoint with the greatest height.
func (s *MemCheckpointStore) GetLatest() (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasTip {
		return nil, ErrCheckpointNotFound
	}
	return s.byHeight[s.tip], nil
}

// CountCheckpoints returns the number of stored checkpoints.
func (s *MemCheckpointStore) CountCheckpoints() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.byHeight)), nil
}

// MemPriceStore is an in-memory PriceStore.
type MemPriceStore struct {
	mu     sync.RWMutex
	byFeed map[common.Address]map[uint64]*PriceRecord
}

var _ PriceStore = (*MemPriceStore)(nil)

// NewMemPriceStore creates an empty in-memory price store.
func NewMemPriceStore() *MemPriceStore {
	return &MemPriceStore{byFeed: make(map[common.Address]map[uint64]*PriceRecord)}
}

// PutPrice stores one round.
func (s *MemPriceStore) PutPrice(rec *PriceRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: price record", ErrNilParam)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rounds, ok := s.byFeed[rec.Feed]
	if !ok {
		rounds = make(map[uint64]*PriceRecord)
		s.byFeed[rec.Feed] = rounds
	}
	if _, exists := rounds[rec.Round]; exists {
		return ErrDuplicatePrice
	}
	rounds[rec.Round] = rec
	return nil
}

// GetPrices returns the stored rounds of feed ordered by round.
func (s *MemPriceStore) GetPrices(feed common.Address) ([]*PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := s.byFeed[feed]
	result := make([]*PriceRecord, 0, len(rounds))
	for _, rec := range rounds {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Round < result[j].Round })
	return result, nil
}
