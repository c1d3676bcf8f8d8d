package chain

import "errors"

// Kind classifies why a call was rejected. Every Kind is itself an error so
// callers can test a rejection's class with errors.Is(err, chain.Temporal).
type Kind uint8

const (
	// Unauthorized: the caller lacks a role or is not the expected counter-party.
	Unauthorized Kind = iota + 1
	// Temporal: the call happened outside its valid window.
	Temporal
	// Capacity: a cap, minimum, maximum or range was violated.
	Capacity
	// Sequencing: a one-time step repeated, or a prerequisite step missing.
	Sequencing
	// State: a zero-valued operand would make the call a no-op.
	State
	// Invalid: a malformed argument or construction parameter.
	Invalid
)

var kindNames = map[Kind]string{
	Unauthorized: "unauthorized",
	Temporal:     "temporal",
	Capacity:     "capacity",
	Sequencing:   "sequencing",
	State:        "state",
	Invalid:      "invalid",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Error implements error.
func (k Kind) Error() string { return "chain: " + k.String() + " rejection" }

// Reason is a named rejection. Its message is user visible and identifies the
// violated invariant; its Kind places it in the taxonomy.
type Reason struct {
	Kind Kind
	Msg  string
}

// NewReason returns a Reason of the given kind.
func NewReason(kind Kind, msg string) *Reason {
	return &Reason{Kind: kind, Msg: msg}
}

// Error implements error.
func (r *Reason) Error() string { return r.Msg }

// Is reports whether target is the Kind of this reason.
func (r *Reason) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == r.Kind
}

// KindOf returns the Kind of err, or 0 if err carries none.
func KindOf(err error) Kind {
	for k := range kindNames {
		if errors.Is(err, k) {
			return k
		}
	}
	return 0
}

// ErrNilCall indicates Execute was given a nil function.
var ErrNilCall = errors.New("chain: nil call")
