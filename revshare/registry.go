package revshare

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BalanceFunc returns an account's current share balance.
type BalanceFunc func(addr common.Address) *uint256.Int

// Snapshot builds entries for the given holder lists, in order, from live
// balances. Holders with a zero balance and repeated addresses are left out.
func Snapshot(balanceOf BalanceFunc, holders ...[]common.Address) []Entry {
	seen := make(map[common.Address]struct{})
	var entries []Entry
	for _, list := range holders {
		for _, addr := range list {
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			bal := balanceOf(addr)
			if bal.IsZero() {
				continue
			}
			entries = append(entries, Entry{Address: addr, Balance: *bal})
		}
	}
	return entries
}

// FindEntry returns the index and entry for addr, or -1 if not found.
func FindEntry(entries []Entry, addr common.Address) (int, *Entry) {
	for i := range entries {
		if entries[i].Address == addr {
			return i, &entries[i]
		}
	}
	return -1, nil
}
