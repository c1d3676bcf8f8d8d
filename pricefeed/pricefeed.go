// Package pricefeed stores a bounded, monotonically appended history of
// (price, timestamp) rounds written by holders of the feeder role.
package pricefeed

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/roles"
)

// HistorySize is the number of rounds retained.
const HistorySize = 64

// EventPriceAdded is emitted on every accepted round.
const EventPriceAdded = "PriceAdded"

// ErrInvalidPriceData indicates a zero timestamp or one older than the latest round.
var ErrInvalidPriceData = chain.NewReason(chain.Invalid, "pricefeed: invalid price data")

// Round is one price observation. Price has the feed's decimals.
type Round struct {
	ID        uint64
	Price     uint256.Int
	Timestamp time.Time
}

// Feed is a round-robin price store.
type Feed struct {
	addr     common.Address
	decimals uint8
	roles    *roles.Registry

	rounds [HistorySize]Round
	latest uint64 // id of the latest round, 0 when empty
}

// New creates a feed at addr. manager administers roles; feeders may append.
func New(addr common.Address, decimals uint8, manager common.Address, feeders ...common.Address) *Feed {
	r := roles.New(addr)
	r.Setup(roles.Manager, manager)
	for _, f := range feeders {
		r.Setup(roles.Feeder, f)
	}
	return &Feed{addr: addr, decimals: decimals, roles: r}
}

// Address returns the feed's address.
func (f *Feed) Address() common.Address { return f.addr }

// Decimals returns the number of decimals of a price.
func (f *Feed) Decimals() uint8 { return f.decimals }

// Roles returns the feed's role registry.
func (f *Feed) Roles() *roles.Registry { return f.roles }

// AddPrice appends a round. The caller must hold the feeder role.
func (f *Feed) AddPrice(tx *chain.Tx, price *uint256.Int, ts time.Time) error {
	if err := f.roles.Require(tx, roles.Feeder); err != nil {
		return err
	}
	if ts.IsZero() || ts.Unix() <= 0 {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidPriceData)
	}
	if f.latest > 0 && ts.Before(f.slot(f.latest).Timestamp) {
		return fmt.Errorf("%w: timestamp %d before latest round", ErrInvalidPriceData, ts.Unix())
	}

	id := f.latest + 1
	chain.Assign(tx, f.slot(id), Round{ID: id, Price: *price, Timestamp: ts})
	chain.Assign(tx, &f.latest, id)
	tx.Emit(f.addr, EventPriceAdded, map[string]string{
		"round":     strconv.FormatUint(id, 10),
		"price":     price.Dec(),
		"timestamp": strconv.FormatInt(ts.Unix(), 10),
	})
	return nil
}

// LatestPrice returns the most recent price and its timestamp, or zero
// values when no round exists.
func (f *Feed) LatestPrice() (*uint256.Int, time.Time) {
	if f.latest == 0 {
		return new(uint256.Int), time.Time{}
	}
	r := f.slot(f.latest)
	p := r.Price
	return &p, r.Timestamp
}

// LatestRound returns the id of the latest round, 0 when empty.
func (f *Feed) LatestRound() uint64 { return f.latest }

// History returns the retained rounds, oldest first.
func (f *Feed) History() []Round {
	n := f.latest
	if n > HistorySize {
		n = HistorySize
	}
	out := make([]Round, 0, n)
	for id := f.latest - n + 1; id <= f.latest && id > 0; id++ {
		out = append(out, *f.slot(id))
	}
	return out
}

func (f *Feed) slot(id uint64) *Round {
	return &f.rounds[(id-1)%HistorySize]
}
