// Package bootstrap builds the set of chainadapter.ChainAdapter instances
// (and their backing bridgecore.Bridge/GuardPipeline) a WatchtowerConfig
// describes, shared between cmd/operator and cmd/canceler the same way the
// teacher's cmd/relayer and cmd/api-server each separately assembled a
// canton/ethereum client pair from config.Config — here centralized since
// both new entrypoints build the identical N-chain adapter set.
package bootstrap

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/chainadapter"
	"github.com/chainsafe/watchtower-bridge/pkg/config"
	"github.com/chainsafe/watchtower-bridge/pkg/cosmoschain"
	"github.com/chainsafe/watchtower-bridge/pkg/evmchain"
)

// ChainSet is the fully wired set of per-chain bridges this process drives.
type ChainSet struct {
	Adapters map[string]chainadapter.ChainAdapter
	Bridges  map[string]*bridgecore.Bridge
	Guards   map[string]*bridgecore.GuardPipeline
}

// Build constructs one bridgecore.Bridge, GuardPipeline and ChainAdapter per
// entry in cfg.Chains, keyed by the chain's config name.
func Build(cfg *config.WatchtowerConfig, logger *zap.Logger) (*ChainSet, error) {
	set := &ChainSet{
		Adapters: make(map[string]chainadapter.ChainAdapter, len(cfg.Chains)),
		Bridges:  make(map[string]*bridgecore.Bridge, len(cfg.Chains)),
		Guards:   make(map[string]*bridgecore.GuardPipeline, len(cfg.Chains)),
	}

	for name, chainCfg := range cfg.Chains {
		tag, err := bridgecore.EncodeChainTag(chainCfg.ChainID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: chain %q: %w", name, err)
		}

		// The guard pipeline is built here and handed to canceler.Validator
		// directly rather than installed via Bridge.SetGuard, since that
		// call is role-gated and the composition root mints no admin
		// account of its own. The Bridge keeps the default pipeline
		// NewBridge installs, separate from this one: guards added to
		// either do not reach the other, and the registry API has no
		// endpoint that installs a guard pipeline.
		guards := bridgecore.NewGuardPipeline()
		ledger := bridgecore.NewMemoryLedger()
		bridge, err := bridgecore.NewBridge(bridgecore.BridgeConfig{
			ThisChain:  tag,
			Ledger:     ledger,
			NonceStart: chainCfg.NonceStart,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: chain %q: build bridge: %w", name, err)
		}
		set.Bridges[name] = bridge
		set.Guards[name] = guards

		adapter, err := buildAdapter(chainCfg, tag, bridge, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: chain %q: %w", name, err)
		}
		set.Adapters[name] = adapter
	}
	return set, nil
}

func buildAdapter(chainCfg config.ChainConfig, tag bridgecore.ChainTag, bridge *bridgecore.Bridge, logger *zap.Logger) (chainadapter.ChainAdapter, error) {
	switch chainCfg.Adapter {
	case "evm":
		return evmchain.New(evmchain.Config{
			ChainTag:             tag,
			RelayerPrivateKeyHex: os.Getenv(chainCfg.RelayerPrivateKeyEnv),
			FinalityDepth:        chainCfg.FinalityDepth,
			NonceStart:           chainCfg.NonceStart,
		}, bridge, logger)
	case "cosmos":
		return cosmoschain.New(cosmoschain.Config{
			ChainTag:      tag,
			GRPCEndpoint:  chainCfg.GRPCEndpoint,
			TLS:           cosmoschain.TLSConfig{Enabled: chainCfg.TLSEnabled},
			RelayerBech32: chainCfg.RelayerBech32,
			HRP:           chainCfg.HRP,
			FinalityDepth: chainCfg.FinalityDepth,
			NonceStart:    chainCfg.NonceStart,
		}, bridge, logger)
	default:
		return nil, fmt.Errorf("unknown adapter kind %q", chainCfg.Adapter)
	}
}
