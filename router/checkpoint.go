package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/pricefeed"
	"github.com/bitfsorg/librbf-go/rbf"
	"github.com/bitfsorg/librbf-go/store"
	"github.com/bitfsorg/librbf-go/vault"
)

// ErrNoStore indicates Checkpoint was called on a router without a store.
var ErrNoStore = errors.New("router: no store configured")

// Checkpoint snapshots every deployed instance at the current call height
// and persists the snapshot plus any price rounds not yet stored.
func (r *Router) Checkpoint(ctx context.Context) (*store.Checkpoint, error) {
	if r.checkpoints == nil {
		return nil, ErrNoStore
	}

	cp := &store.Checkpoint{}
	var records []*store.PriceRecord
	r.env.View(func(now time.Time, height uint64) {
		cp.Height = height
		cp.Taken = now
		cp.RBFs = make([]rbf.Snapshot, 0, len(r.rbfs))
		for _, inst := range r.rbfs {
			cp.RBFs = append(cp.RBFs, inst.Snapshot())
		}
		cp.Vaults = make([]vault.Snapshot, 0, len(r.vaults))
		for _, v := range r.vaults {
			cp.Vaults = append(cp.Vaults, v.Snapshot(now))
		}
		for _, f := range r.feeds {
			records = append(records, priceRecords(f)...)
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.checkpoints.PutCheckpoint(cp); err != nil {
		return nil, fmt.Errorf("router: checkpoint at height %d: %w", cp.Height, err)
	}

	stored := 0
	if r.prices != nil {
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			err := r.prices.PutPrice(rec)
			switch {
			case errors.Is(err, store.ErrDuplicatePrice):
			case err != nil:
				return nil, fmt.Errorf("router: price round %d of %s: %w", rec.Round, rec.Feed.Hex(), err)
			default:
				stored++
			}
		}
	}

	r.log.Debug("checkpoint stored",
		zap.Uint64("height", cp.Height),
		zap.Int("rbfs", len(cp.RBFs)),
		zap.Int("vaults", len(cp.Vaults)),
		zap.Int("prices", stored))
	return cp, nil
}

func priceRecords(f *pricefeed.Feed) []*store.PriceRecord {
	hist := f.History()
	out := make([]*store.PriceRecord, 0, len(hist))
	for _, rd := range hist {
		out = append(out, &store.PriceRecord{
			Feed:      f.Address(),
			Round:     rd.ID,
			Price:     rd.Price.Dec(),
			Timestamp: rd.Timestamp.Unix(),
		})
	}
	return out
}
