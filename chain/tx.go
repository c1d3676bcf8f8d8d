package chain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Tx is one frame of an executing call. Nested frames created with As share
// the journal and the clock reading of the outermost call.
type Tx struct {
	caller common.Address
	origin common.Address
	now    time.Time
	op     string
	j      *journal
}

type journal struct {
	undo   []func()
	events []Event
}

func (j *journal) revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.events = nil
}

// Caller returns the immediate caller of this frame.
func (tx *Tx) Caller() common.Address { return tx.caller }

// Origin returns the account that started the call.
func (tx *Tx) Origin() common.Address { return tx.origin }

// Now returns the call's timestamp.
func (tx *Tx) Now() time.Time { return tx.now }

// Op returns the operation name passed to Execute.
func (tx *Tx) Op() string { return tx.op }

// As returns a nested frame in which addr is the caller. Contracts use it to
// call other contracts under their own identity.
func (tx *Tx) As(addr common.Address) *Tx {
	return &Tx{caller: addr, origin: tx.origin, now: tx.now, op: tx.op, j: tx.j}
}

// OnRevert registers undo to run if the call fails.
func (tx *Tx) OnRevert(undo func()) {
	tx.j.undo = append(tx.j.undo, undo)
}

// Emit records an event, delivered only if the call commits.
func (tx *Tx) Emit(contract common.Address, name string, attrs map[string]string) {
	tx.j.events = append(tx.j.events, Event{Contract: contract, Name: name, Attrs: attrs})
}

// Assign sets *dst to v and records the previous value for rollback.
func Assign[T any](tx *Tx, dst *T, v T) {
	old := *dst
	*dst = v
	tx.OnRevert(func() { *dst = old })
}

// Put sets m[k] to v and records the previous entry for rollback.
func Put[K comparable, V any](tx *Tx, m map[K]V, k K, v V) {
	old, had := m[k]
	m[k] = v
	tx.OnRevert(func() {
		if had {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

// Delete removes m[k] and records the entry for rollback.
func Delete[K comparable, V any](tx *Tx, m map[K]V, k K) {
	old, had := m[k]
	if !had {
		return
	}
	delete(m, k)
	tx.OnRevert(func() { m[k] = old })
}
