package bridgecore

import (
	"sync"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// reentrancyGuard is the in-process analogue of a contract's scoped
// reentrancy lock: it must stay held across an external call (an asset
// transfer, a native send) and the post-balance read that follows it, per
// §4.5 and §5.
type reentrancyGuard struct {
	mu     sync.Mutex
	locked bool
}

// enter marks the guard locked, or returns a Reentrancy error if it is
// already held.
func (g *reentrancyGuard) enter() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locked {
		return apperr.Reentrancy("reentrant call rejected")
	}
	g.locked = true
	return nil
}

// exit releases the guard. Always call via defer immediately after a
// successful enter.
func (g *reentrancyGuard) exit() {
	g.mu.Lock()
	g.locked = false
	g.mu.Unlock()
}
