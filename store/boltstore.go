package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"
)

var (
	bucketCheckpoints = []byte("checkpoints")
	bucketPrices      = []byte("prices")
)

// BoltStore wraps a bbolt database holding checkpoints and price history.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketCheckpoints, bucketPrices} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Checkpoints returns a CheckpointStore backed by this database.
func (s *BoltStore) Checkpoints() *BoltCheckpointStore { return &BoltCheckpointStore{db: s.db} }

// Prices returns a PriceStore backed by this database.
func (s *BoltStore) Prices() *BoltPriceStore { return &BoltPriceStore{db: s.db} }

// heightKey encodes a height as an 8-byte big-endian key for sorted storage.
func heightKey(h uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, h)
	return k
}

// priceKey is feed address followed by the big-endian round id.
func priceKey(feed common.Address, round uint64) []byte {
	k := make([]byte, common.AddressLength+8)
	copy(k, feed[:])
	binary.BigEndian.PutUint64(k[common.AddressLength:], round)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// ---------------------------------------------------------------------------
// BoltCheckpointStore implements CheckpointStore.
// ---------------------------------------------------------------------------

// BoltCheckpointStore persists checkpoints in bbolt.
type BoltCheckpointStore struct {
	db *bbolt.DB
}

var _ CheckpointStore = (*BoltCheckpointStore)(nil)

// PutCheckpoint stores a checkpoint keyed by height.
func (s *BoltCheckpointStore) PutCheckpoint(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("%w: checkpoint", ErrNilParam)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCheckpoints)
		key := heightKey(cp.Height)
		if b.Get(key) != nil {
			return ErrDuplicateCheckpoint
		}
		data, err := encodeGob(cp)
		if err != nil {
			return fmt.Errorf("encode checkpoint: %w", err)
		}
		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("boltstore: put checkpoint: %w", err)
		}
		return nil
	})
}

// GetCheckpoint retrieves the checkpoint taken at height.
func (s *BoltCheckpointStore) GetCheckpoint(height uint64) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCheckpoints).Get(heightKey(height))
		if data == nil {
			return ErrCheckpointNotFound
		}
		if err := decodeGob(data, &cp); err != nil {
			return fmt.Errorf("boltstore: decode checkpoint: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetLatest returns the checkpoint with the greatest height.
func (s *BoltCheckpointStore) GetLatest() (*Checkpoint, error) {
	var cp Checkpoint
	err := s.db.View(func(tx *bbolt.Tx) error {
		k, v := tx.Bucket(bucketCheckpoints).Cursor().Last()
		if k == nil {
			return ErrCheckpointNotFound
		}
		if err := decodeGob(v, &cp); err != nil {
			return fmt.Errorf("boltstore: decode latest checkpoint: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// CountCheckpoints returns the number of stored checkpoints.
func (s *BoltCheckpointStore) CountCheckpoints() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = uint64(tx.Bucket(bucketCheckpoints).Stats().KeyN)
		return nil
	})
	return count, err
}

// ---------------------------------------------------------------------------
// BoltPriceStore implements PriceStore.
// ---------------------------------------------------------------------------

// BoltPriceStore persists price rounds in bbolt.
type BoltPriceStore struct {
	db *bbolt.DB
}

var _ PriceStore = (*BoltPriceStore)(nil)

// PutPrice stores one round. Returns ErrDuplicatePrice if the round exists.
func (s *BoltPriceStore) PutPrice(rec *PriceRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: price record", ErrNilParam)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPrices)
		key := priceKey(rec.Feed, rec.Round)
		if b.Get(key) != nil {
			return ErrDuplicatePrice
		}
		data, err := encodeGob(rec)
		if err != nil {
			return fmt.Errorf("encode price: %w", err)
		}
		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("boltstore: put price: %w", err)
		}
		return nil
	})
}

// GetPrices returns the stored rounds of feed ordered by round.
func (s *BoltPriceStore) GetPrices(feed common.Address) ([]*PriceRecord, error) {
	var recs []*PriceRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketPrices).Cursor()
		prefix := feed[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec PriceRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("boltstore: decode price: %w", err)
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: get prices: %w", err)
	}
	return recs, nil
}
