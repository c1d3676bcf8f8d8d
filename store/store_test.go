package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/librbf-go/rbf"
	"github.com/bitfsorg/librbf-go/vault"
)

func makeAddr(seed byte) common.Address {
	var addr common.Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

func tempBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testCheckpoint(height uint64) *Checkpoint {
	return &Checkpoint{
		Height: height,
		Taken:  time.Unix(1_700_000_000+int64(height), 0).UTC(),
		RBFs: []rbf.Snapshot{{
			ID: 0, Address: makeAddr(0x20), Symbol: "RBF", DepositAmount: "10000000000",
		}},
		Vaults: []vault.Snapshot{{
			ID: 0, Address: makeAddr(0x21), Phase: "funded", TotalSupply: "10000000000000000000000",
			Holdings: []vault.Holding{{Address: makeAddr(0xA1), Namespace: vault.OnChain, Balance: "1"}},
		}},
	}
}

func checkpointStores(t *testing.T) map[string]CheckpointStore {
	return map[string]CheckpointStore{
		"mem":  NewMemCheckpointStore(),
		"bolt": tempBoltStore(t).Checkpoints(),
	}
}

func priceStores(t *testing.T) map[string]PriceStore {
	return map[string]PriceStore{
		"mem":  NewMemPriceStore(),
		"bolt": tempBoltStore(t).Prices(),
	}
}

// ---------------------------------------------------------------------------
// CheckpointStore tests
// ---------------------------------------------------------------------------

func TestCheckpointStore_PutAndGet(t *testing.T) {
	for name, s := range checkpointStores(t) {
		t.Run(name, func(t *testing.T) {
			cp := testCheckpoint(7)
			require.NoError(t, s.PutCheckpoint(cp))

			got, err := s.GetCheckpoint(7)
			require.NoError(t, err)
			assert.Equal(t, cp.Height, got.Height)
			assert.True(t, cp.Taken.Equal(got.Taken))
			assert.Equal(t, cp.RBFs, got.RBFs)
			assert.Equal(t, cp.Vaults[0].Holdings, got.Vaults[0].Holdings)
			assert.Equal(t, "funded", got.Vaults[0].Phase)
		})
	}
}

func TestCheckpointStore_Errors(t *testing.T) {
	for name, s := range checkpointStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.PutCheckpoint(nil), ErrNilParam)

			_, err := s.GetCheckpoint(1)
			assert.ErrorIs(t, err, ErrCheckpointNotFound)
			_, err = s.GetLatest()
			assert.ErrorIs(t, err, ErrCheckpointNotFound)

			require.NoError(t, s.PutCheckpoint(testCheckpoint(1)))
			assert.ErrorIs(t, s.PutCheckpoint(testCheckpoint(1)), ErrDuplicateCheckpoint)
		})
	}
}

func TestCheckpointStore_LatestAndCount(t *testing.T) {
	for name, s := range checkpointStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, h := range []uint64{3, 300, 30} {
				require.NoError(t, s.PutCheckpoint(testCheckpoint(h)))
			}
			latest, err := s.GetLatest()
			require.NoError(t, err)
			assert.Equal(t, uint64(300), latest.Height)

			n, err := s.CountCheckpoints()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), n)
		})
	}
}

func TestBoltCheckpointStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Checkpoints().PutCheckpoint(testCheckpoint(5)))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Checkpoints().GetLatest()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Height)
}

// ---------------------------------------------------------------------------
// PriceStore tests
// ---------------------------------------------------------------------------

func TestPriceStore(t *testing.T) {
	feedA, feedB := makeAddr(0xF1), makeAddr(0xF2)
	for name, s := range priceStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.PutPrice(nil), ErrNilParam)

			for _, round := range []uint64{2, 1, 3} {
				require.NoError(t, s.PutPrice(&PriceRecord{Feed: feedA, Round: round, Price: "100000000", Timestamp: int64(round)}))
			}
			require.NoError(t, s.PutPrice(&PriceRecord{Feed: feedB, Round: 1, Price: "1"}))
			assert.ErrorIs(t, s.PutPrice(&PriceRecord{Feed: feedA, Round: 2}), ErrDuplicatePrice)

			recs, err := s.GetPrices(feedA)
			require.NoError(t, err)
			require.Len(t, recs, 3)
			for i, rec := range recs {
				assert.Equal(t, uint64(i+1), rec.Round)
				assert.Equal(t, feedA, rec.Feed)
			}

			recs, err = s.GetPrices(makeAddr(0xF3))
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}
