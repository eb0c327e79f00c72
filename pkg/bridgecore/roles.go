package bridgecore

import (
	"sync"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// Role is a bridge-level permission grant. Roles are additive: an account
// may hold any combination of them.
type Role int

const (
	// RoleAdmin manages chain/token registries, guards and pause state.
	// RoleAdmin never implies RoleCanceler.
	RoleAdmin Role = iota
	// RoleOperator submits and approves withdrawals.
	RoleOperator
	// RoleCanceler vetoes pending withdrawals during the cancel window.
	RoleCanceler
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOperator:
		return "operator"
	case RoleCanceler:
		return "canceler"
	default:
		return "unknown"
	}
}

// roleTable is an explicit account -> granted-roles map. Design Note #9
// calls for this in place of inheritance-based access control (e.g. an
// Operator implicitly being an Admin): every grant is independent and
// every check looks the account up directly, never walks a hierarchy.
type roleTable struct {
	mu     sync.RWMutex
	grants map[Account]map[Role]bool
}

func newRoleTable() *roleTable {
	return &roleTable{grants: make(map[Account]map[Role]bool)}
}

// Grant adds role to account's grant set.
func (t *roleTable) Grant(account Account, role Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.grants[account]
	if !ok {
		set = make(map[Role]bool)
		t.grants[account] = set
	}
	set[role] = true
}

// Revoke removes role from account's grant set.
func (t *roleTable) Revoke(account Account, role Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.grants[account]; ok {
		delete(set, role)
		if len(set) == 0 {
			delete(t.grants, account)
		}
	}
}

// Has reports whether account holds role, with no implication from any
// other role.
func (t *roleTable) Has(account Account, role Role) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.grants[account][role]
}

// Require returns a BridgeError with CategoryForbidden if account does not
// hold role.
func (t *roleTable) Require(account Account, role Role) error {
	if t.Has(account, role) {
		return nil
	}
	return apperr.Forbidden("account does not hold role " + role.String())
}
