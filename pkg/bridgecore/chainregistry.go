package bridgecore

import (
	"sync"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
)

// chainRecord is the registry's per-chain bookkeeping.
type chainRecord struct {
	identifier string
	enabled    bool
}

// ChainRegistry maps ChainTags to human identifiers, with an enable/disable
// flag consulted by both the deposit and withdrawal paths (C3).
type ChainRegistry struct {
	mu      sync.RWMutex
	byTag   map[ChainTag]*chainRecord
	byIdent map[string]ChainTag
}

func newChainRegistry() *ChainRegistry {
	return &ChainRegistry{
		byTag:   make(map[ChainTag]*chainRecord),
		byIdent: make(map[string]ChainTag),
	}
}

// RegisterChain adds tag under identifier, enabled by default. It rejects
// the reserved zero tag and any duplicate identifier or tag.
func (r *ChainRegistry) RegisterChain(identifier string, tag ChainTag) error {
	if tag.IsZero() {
		return apperr.InvalidInput("chain tag 0 is reserved", nil)
	}
	if identifier == "" {
		return apperr.InvalidInput("chain identifier must not be empty", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byTag[tag]; exists {
		return apperr.InvalidInput("chain tag already registered", nil)
	}
	if _, exists := r.byIdent[identifier]; exists {
		return apperr.InvalidInput("chain identifier already registered", nil)
	}
	r.byTag[tag] = &chainRecord{identifier: identifier, enabled: true}
	r.byIdent[identifier] = tag
	return nil
}

// UnregisterChain removes tag and its identifier entirely; subsequent
// lookups fail with NotRegistered.
func (r *ChainRegistry) UnregisterChain(tag ChainTag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byTag[tag]
	if !ok {
		return apperr.NotRegistered("chain not registered", nil)
	}
	delete(r.byIdent, rec.identifier)
	delete(r.byTag, tag)
	return nil
}

// SetChainEnabled toggles tag's enabled flag.
func (r *ChainRegistry) SetChainEnabled(tag ChainTag, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byTag[tag]
	if !ok {
		return apperr.NotRegistered("chain not registered", nil)
	}
	rec.enabled = enabled
	return nil
}

// IsRegistered reports whether tag is currently registered.
func (r *ChainRegistry) IsRegistered(tag ChainTag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byTag[tag]
	return ok
}

// IsEnabled reports whether tag is registered and enabled. A chain that is
// not registered at all is never enabled.
func (r *ChainRegistry) IsEnabled(tag ChainTag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byTag[tag]
	return ok && rec.enabled
}

// RequireEnabled returns a NotRegistered or Disabled error if tag is not an
// enabled chain, nil otherwise.
func (r *ChainRegistry) RequireEnabled(tag ChainTag) error {
	r.mu.RLock()
	rec, ok := r.byTag[tag]
	r.mu.RUnlock()
	if !ok {
		return apperr.NotRegistered("chain not registered", nil)
	}
	if !rec.enabled {
		return apperr.Disabled("chain disabled", nil)
	}
	return nil
}

// Identifier returns the human identifier for tag.
func (r *ChainRegistry) Identifier(tag ChainTag) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byTag[tag]
	if !ok {
		return "", apperr.NotRegistered("chain not registered", nil)
	}
	return rec.identifier, nil
}

// ListChains returns every registered ChainTag, in no particular order.
func (r *ChainRegistry) ListChains() []ChainTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChainTag, 0, len(r.byTag))
	for tag := range r.byTag {
		out = append(out, tag)
	}
	return out
}
