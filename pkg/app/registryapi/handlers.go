// Package registryapi exposes the admin-only HTTP surface for registering
// and unregistering chains and tokens against one chain's bridgecore.Bridge,
// gated by pkg/apiauth bearer tokens. Modeled on the teacher's
// pkg/app/relayer/server.go handler shape (plain http.HandlerFunc closures
// over a store/logger, chi.URLParam for path segments, JSON in/out).
package registryapi

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
)

// statusFor maps a bridgecore/apperr error onto its HTTP status code,
// falling back to 500 for errors outside the taxonomy.
func statusFor(err error) int {
	var be *apperr.BridgeError
	if errors.As(err, &be) {
		return be.StatusCode()
	}
	return http.StatusInternalServerError
}

// Chains is the set of bridgecore.Bridge instances this API can administer,
// keyed by the same chain name used in config.WatchtowerConfig.Chains.
type Chains map[string]*bridgecore.Bridge

type registerChainRequest struct {
	ChainID uint32 `json:"chain_id"`
	Name    string `json:"name"`
}

type registerTokenRequest struct {
	TokenHex string `json:"token_hex"`
	Type     string `json:"type"` // "lock_unlock" or "mint_burn"
	Decimals uint8  `json:"decimals"`
}

// Routes mounts the admin registry endpoints under r. Callers are expected
// to wrap r (or the subtree this is mounted under) with
// apiauth.Validator.RequireRole("admin").
func Routes(r chi.Router, chains Chains, logger *zap.Logger) {
	r.Post("/chains/{chain}/register", handleRegisterChain(chains, logger))
	r.Delete("/chains/{chain}/register/{chainID}", handleUnregisterChain(chains, logger))
	r.Post("/chains/{chain}/tokens/register", handleRegisterToken(chains, logger))
	r.Delete("/chains/{chain}/tokens/{tokenHex}", handleUnregisterToken(chains, logger))
}

func bridgeFor(chains Chains, w http.ResponseWriter, chainName string) *bridgecore.Bridge {
	b, ok := chains[chainName]
	if !ok {
		http.Error(w, "unknown chain "+chainName, http.StatusNotFound)
		return nil
	}
	return b
}

func handleRegisterChain(chains Chains, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bridge := bridgeFor(chains, w, chi.URLParam(r, "chain"))
		if bridge == nil {
			return
		}
		var req registerChainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		tag, err := bridgecore.EncodeChainTag(req.ChainID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := bridge.Chains.RegisterChain(req.Name, tag); err != nil {
			logger.Warn("register chain failed", zap.Error(err))
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func handleUnregisterChain(chains Chains, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bridge := bridgeFor(chains, w, chi.URLParam(r, "chain"))
		if bridge == nil {
			return
		}
		var req registerChainRequest
		// chainID arrives on the path for the delete verb.
		id, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 32)
		if err != nil {
			http.Error(w, "invalid chain id", http.StatusBadRequest)
			return
		}
		req.ChainID = uint32(id)
		tag, err := bridgecore.EncodeChainTag(req.ChainID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := bridge.Chains.UnregisterChain(tag); err != nil {
			logger.Warn("unregister chain failed", zap.Error(err))
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRegisterToken(chains Chains, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bridge := bridgeFor(chains, w, chi.URLParam(r, "chain"))
		if bridge == nil {
			return
		}
		var req registerTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		token, err := parseTokenRef(req.TokenHex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		typ := bridgecore.LockUnlock
		if req.Type == "mint_burn" {
			typ = bridgecore.MintBurn
		}
		if err := bridge.Tokens.RegisterToken(token, typ, req.Decimals); err != nil {
			logger.Warn("register token failed", zap.Error(err))
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func handleUnregisterToken(chains Chains, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bridge := bridgeFor(chains, w, chi.URLParam(r, "chain"))
		if bridge == nil {
			return
		}
		token, err := parseTokenRef(chi.URLParam(r, "tokenHex"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := bridge.Tokens.UnregisterToken(token); err != nil {
			logger.Warn("unregister token failed", zap.Error(err))
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

var errInvalidTokenRef = errors.New("invalid token reference")

func parseTokenRef(s string) (bridgecore.TokenRef, error) {
	var t bridgecore.TokenRef
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(t) {
		return t, errInvalidTokenRef
	}
	copy(t[:], b)
	return t, nil
}
