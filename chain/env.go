package chain

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const defaultEventLimit = 4096

// Observer receives the outcome of every call and every committed event.
type Observer interface {
	CallFinished(op string, err error, elapsed time.Duration)
	EventCommitted(ev Event)
}

// Event is a notification emitted by a contract during a call. Events of a
// reverted call are discarded.
type Event struct {
	Height   uint64
	Contract common.Address
	Name     string
	Attrs    map[string]string
}

// Option configures an Env.
type Option func(*Env)

// WithLogger sets the logger used for commit and revert diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Env) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver installs an Observer (typically metrics).
func WithObserver(o Observer) Option {
	return func(e *Env) { e.observer = o }
}

// WithEventLimit bounds the number of committed events retained in memory.
func WithEventLimit(n int) Option {
	return func(e *Env) {
		if n > 0 {
			e.eventLimit = n
		}
	}
}

// Env is the execution environment shared by every contract of a deployment.
// Calls are strictly serialized; each runs to completion against a single
// clock reading and either commits fully or is rolled back.
type Env struct {
	mu         sync.Mutex
	clock      Clock
	log        *zap.Logger
	observer   Observer
	events     []Event
	eventLimit int
	height     uint64
}

// NewEnv creates an environment reading time from clock.
func NewEnv(clock Clock, opts ...Option) *Env {
	if clock == nil {
		clock = SystemClock{}
	}
	e := &Env{
		clock:      clock,
		log:        zap.NewNop(),
		eventLimit: defaultEventLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the environment's clock.
func (e *Env) Clock() Clock { return e.clock }

// Logger returns the environment's logger.
func (e *Env) Logger() *zap.Logger { return e.log }

// Execute runs fn as one atomic call made by caller. If fn returns an error or
// panics, every mutation recorded on the Tx is undone in reverse order and the
// call's events are dropped.
func (e *Env) Execute(caller common.Address, op string, fn func(tx *Tx) error) error {
	if fn == nil {
		return ErrNilCall
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	j := &journal{}
	tx := &Tx{caller: caller, origin: caller, now: e.clock.Now(), op: op, j: j}

	err := e.run(tx, fn)
	elapsed := time.Since(started)

	if err != nil {
		j.revert()
		e.log.Debug("call reverted",
			zap.String("op", op),
			zap.Stringer("caller", caller),
			zap.Error(err))
		if e.observer != nil {
			e.observer.CallFinished(op, err, elapsed)
		}
		return err
	}

	e.height++
	for _, ev := range j.events {
		ev.Height = e.height
		e.commitEvent(ev)
	}
	if e.observer != nil {
		e.observer.CallFinished(op, nil, elapsed)
	}
	return nil
}

func (e *Env) run(tx *Tx, fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			tx.j.revert()
			panic(r)
		}
	}()
	return fn(tx)
}

func (e *Env) commitEvent(ev Event) {
	if len(e.events) >= e.eventLimit {
		copy(e.events, e.events[1:])
		e.events = e.events[:len(e.events)-1]
	}
	e.events = append(e.events, ev)
	e.log.Debug("event",
		zap.String("name", ev.Name),
		zap.Stringer("contract", ev.Contract),
		zap.Uint64("height", ev.Height),
		zap.Any("attrs", ev.Attrs))
	if e.observer != nil {
		e.observer.EventCommitted(ev)
	}
}

// View runs a read-only closure under the call lock with the current time
// and call height. Queries made from other goroutines belong in a View.
func (e *Env) View(fn func(now time.Time, height uint64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.clock.Now(), e.height)
}

// Height returns the number of committed calls.
func (e *Env) Height() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// Events returns a copy of the retained committed events, oldest first.
func (e *Env) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// EventsNamed returns the retained committed events with the given name.
func (e *Env) EventsNamed(name string) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Event
	for _, ev := range e.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
