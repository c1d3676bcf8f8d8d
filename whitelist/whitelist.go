// Package whitelist implements a capped, enumerable address set with O(1)
// membership and O(1) swap-and-pop removal.
package whitelist

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultLimit is the per-namespace cap of a vault whitelist.
const DefaultLimit = 100

var (
	// ErrFull indicates the set already holds limit entries.
	ErrFull = errors.New("whitelist: full")

	// ErrDuplicate indicates the address is already a member.
	ErrDuplicate = errors.New("whitelist: duplicate address")

	// ErrNotFound indicates the address is not a member.
	ErrNotFound = errors.New("whitelist: address not found")

	// ErrBadSlot indicates a restore slot outside the set.
	ErrBadSlot = errors.New("whitelist: invalid slot")
)

// Set is a capped address set. Items keeps insertion order except that a
// removal moves the last element into the vacated slot.
type Set struct {
	limit int
	items []common.Address
	index map[common.Address]int
}

// New returns an empty set capped at limit entries (DefaultLimit if limit <= 0).
func New(limit int) *Set {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Set{limit: limit, index: make(map[common.Address]int)}
}

// Limit returns the cap.
func (s *Set) Limit() int { return s.limit }

// Len returns the number of members.
func (s *Set) Len() int { return len(s.items) }

// Contains reports membership.
func (s *Set) Contains(addr common.Address) bool {
	_, ok := s.index[addr]
	return ok
}

// At returns the i-th member.
func (s *Set) At(i int) common.Address { return s.items[i] }

// Items returns a copy of the members in enumeration order.
func (s *Set) Items() []common.Address {
	out := make([]common.Address, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends addr.
func (s *Set) Add(addr common.Address) error {
	if s.Contains(addr) {
		return fmt.Errorf("%w: %s", ErrDuplicate, addr.Hex())
	}
	if len(s.items) >= s.limit {
		return fmt.Errorf("%w: limit %d", ErrFull, s.limit)
	}
	s.index[addr] = len(s.items)
	s.items = append(s.items, addr)
	return nil
}

// Remove deletes addr by moving the last member into its slot. It returns
// the slot addr occupied, which Restore needs to undo the removal exactly.
func (s *Set) Remove(addr common.Address) (int, error) {
	slot, ok := s.index[addr]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, addr.Hex())
	}
	last := len(s.items) - 1
	if slot != last {
		moved := s.items[last]
		s.items[slot] = moved
		s.index[moved] = slot
	}
	s.items = s.items[:last]
	delete(s.index, addr)
	return slot, nil
}

// Restore reinserts addr at slot, moving the member currently there back to
// the end. Restore(addr, slot) undoes a Remove(addr) that returned slot when
// no other mutation happened in between.
func (s *Set) Restore(addr common.Address, slot int) error {
	if s.Contains(addr) {
		return fmt.Errorf("%w: %s", ErrDuplicate, addr.Hex())
	}
	if slot < 0 || slot > len(s.items) {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	if slot == len(s.items) {
		s.index[addr] = slot
		s.items = append(s.items, addr)
		return nil
	}
	displaced := s.items[slot]
	s.index[displaced] = len(s.items)
	s.items = append(s.items, displaced)
	s.items[slot] = addr
	s.index[addr] = slot
	return nil
}

// Pop removes the last member. Used to undo an Add.
func (s *Set) Pop() (common.Address, bool) {
	if len(s.items) == 0 {
		return common.Address{}, false
	}
	last := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	delete(s.index, last)
	return last, true
}
