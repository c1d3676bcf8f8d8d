// Package roles keeps per-address capability sets checked on every call.
package roles

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/librbf-go/chain"
)

// Role names a capability.
type Role string

const (
	Manager          Role = "MANAGER_ROLE"
	MintAmountSetter Role = "MINT_AMOUNT_SETTER_ROLE"
	Feeder           Role = "FEEDER_ROLE"
	Guardian         Role = "GUARDIAN_ROLE"
)

// Event names emitted by Registry.
const (
	EventRoleGranted = "RoleGranted"
	EventRoleRevoked = "RoleRevoked"
)

// MissingRoleError reports a caller without a required role.
type MissingRoleError struct {
	Account common.Address
	Role    Role
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("roles: account %s is missing role %s", e.Account.Hex(), e.Role)
}

// Is makes a MissingRoleError match chain.Unauthorized and ErrMissingRole.
func (e *MissingRoleError) Is(target error) bool {
	return target == chain.Unauthorized || target == ErrMissingRole
}

// ErrMissingRole matches every MissingRoleError.
var ErrMissingRole = chain.NewReason(chain.Unauthorized, "roles: missing role")

// Registry maps roles to the accounts holding them. owner is the contract
// address used for emitted events.
type Registry struct {
	owner   common.Address
	members map[Role]map[common.Address]struct{}
}

// New returns an empty registry for the contract at owner.
func New(owner common.Address) *Registry {
	return &Registry{owner: owner, members: make(map[Role]map[common.Address]struct{})}
}

// Setup grants role to account without an authorization check. Used while
// constructing a contract.
func (r *Registry) Setup(role Role, account common.Address) {
	if chain.IsZero(account) {
		return
	}
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		r.members[role] = set
	}
	set[account] = struct{}{}
}

// Has reports whether account holds role.
func (r *Registry) Has(role Role, account common.Address) bool {
	_, ok := r.members[role][account]
	return ok
}

// Members returns the number of accounts holding role.
func (r *Registry) Members(role Role) int { return len(r.members[role]) }

// Require fails with a *MissingRoleError unless the caller holds role.
func (r *Registry) Require(tx *chain.Tx, role Role) error {
	if !r.Has(role, tx.Caller()) {
		return &MissingRoleError{Account: tx.Caller(), Role: role}
	}
	return nil
}

// Grant gives role to account. The caller must be a manager or a guardian.
func (r *Registry) Grant(tx *chain.Tx, role Role, account common.Address) error {
	if err := r.requireAdmin(tx); err != nil {
		return err
	}
	if chain.IsZero(account) {
		return ErrZeroAccount
	}
	if r.Has(role, account) {
		return nil
	}
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		chain.Put(tx, r.members, role, set)
	}
	chain.Put(tx, set, account, struct{}{})
	tx.Emit(r.owner, EventRoleGranted, map[string]string{
		"role": string(role), "account": account.Hex(), "sender": tx.Caller().Hex(),
	})
	return nil
}

// Revoke removes role from account. The caller must be a manager or a guardian.
func (r *Registry) Revoke(tx *chain.Tx, role Role, account common.Address) error {
	if err := r.requireAdmin(tx); err != nil {
		return err
	}
	if !r.Has(role, account) {
		return nil
	}
	chain.Delete(tx, r.members[role], account)
	tx.Emit(r.owner, EventRoleRevoked, map[string]string{
		"role": string(role), "account": account.Hex(), "sender": tx.Caller().Hex(),
	})
	return nil
}

func (r *Registry) requireAdmin(tx *chain.Tx) error {
	if r.Has(Guardian, tx.Caller()) {
		return nil
	}
	return r.Require(tx, Manager)
}

// ErrZeroAccount indicates a grant to the zero address.
var ErrZeroAccount = chain.NewReason(chain.Invalid, "roles: zero account")
