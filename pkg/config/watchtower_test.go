package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validWatchtowerYAML = `
server:
  host: 127.0.0.1
  port: 9090
database:
  host: localhost
  user: watchtower
  password: secret
  database: watchtower
chains:
  eth:
    adapter: evm
    chain_id: 1
    rpc_url: http://localhost:8545
    relayer_private_key_env: ETH_RELAYER_KEY
  cosmoshub:
    adapter: cosmos
    chain_id: 2
    grpc_endpoint: localhost:9090
    relayer_bech32: cosmos1abc
operator:
  dest_chain: cosmoshub
canceler:
  dest_chain: eth
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadWatchtowerConfig_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, validWatchtowerYAML)

	cfg, err := LoadWatchtowerConfig(path)
	if err != nil {
		t.Fatalf("LoadWatchtowerConfig: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("expected default sslmode disable, got %q", cfg.Database.SSLMode)
	}
	if cfg.Operator.PollInterval != 5*time.Second {
		t.Fatalf("expected default operator poll interval 5s, got %s", cfg.Operator.PollInterval)
	}
	if cfg.Canceler.BatchLimit != 50 {
		t.Fatalf("expected default canceler batch limit 50, got %d", cfg.Canceler.BatchLimit)
	}
	if cfg.Auth.Issuer != "watchtower-bridge" {
		t.Fatalf("expected default auth issuer, got %q", cfg.Auth.Issuer)
	}

	eth := cfg.Chains["eth"]
	if eth.FinalityDepth != 12 {
		t.Fatalf("expected default finality depth 12, got %d", eth.FinalityDepth)
	}
	if eth.PollInterval != 10*time.Second {
		t.Fatalf("expected default chain poll interval 10s, got %s", eth.PollInterval)
	}

	cosmos := cfg.Chains["cosmoshub"]
	if cosmos.HRP != "cosmos" {
		t.Fatalf("expected default hrp cosmos, got %q", cosmos.HRP)
	}
}

func TestLoadWatchtowerConfig_EnvOverridesTakePrecedence(t *testing.T) {
	path := writeTempConfig(t, validWatchtowerYAML)

	t.Setenv("WATCHTOWER_SERVER_HOST", "0.0.0.0")
	t.Setenv("WATCHTOWER_SERVER_PORT", "7777")
	t.Setenv("WATCHTOWER_OPERATOR_DEST_CHAIN", "eth")

	cfg, err := LoadWatchtowerConfig(path)
	if err != nil {
		t.Fatalf("LoadWatchtowerConfig: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("expected env override of server host, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 7777 {
		t.Fatalf("expected env override of server port, got %d", cfg.Server.Port)
	}
	if cfg.Operator.DestChain != "eth" {
		t.Fatalf("expected env override of operator dest_chain, got %q", cfg.Operator.DestChain)
	}
}

func TestLoadWatchtowerConfig_RejectsSingleChain(t *testing.T) {
	const yamlDoc = `
database:
  host: localhost
  user: watchtower
  password: secret
  database: watchtower
chains:
  eth:
    adapter: evm
    chain_id: 1
operator:
  dest_chain: eth
canceler:
  dest_chain: eth
`
	path := writeTempConfig(t, yamlDoc)
	if _, err := LoadWatchtowerConfig(path); err == nil {
		t.Fatal("expected validation error for a bridge configured with fewer than two chains")
	}
}

func TestLoadWatchtowerConfig_RejectsUnknownAdapter(t *testing.T) {
	const yamlDoc = `
database:
  host: localhost
  user: watchtower
  password: secret
  database: watchtower
chains:
  eth:
    adapter: solana
    chain_id: 1
  cosmoshub:
    adapter: cosmos
    chain_id: 2
operator:
  dest_chain: cosmoshub
canceler:
  dest_chain: eth
`
	path := writeTempConfig(t, yamlDoc)
	if _, err := LoadWatchtowerConfig(path); err == nil {
		t.Fatal("expected validation error for an unrecognized adapter kind")
	}
}

func TestLoadWatchtowerConfig_RejectsMissingChainID(t *testing.T) {
	const yamlDoc = `
database:
  host: localhost
  user: watchtower
  password: secret
  database: watchtower
chains:
  eth:
    adapter: evm
  cosmoshub:
    adapter: cosmos
    chain_id: 2
operator:
  dest_chain: cosmoshub
canceler:
  dest_chain: eth
`
	path := writeTempConfig(t, yamlDoc)
	if _, err := LoadWatchtowerConfig(path); err == nil {
		t.Fatal("expected validation error for a chain missing chain_id")
	}
}

func TestLoadWatchtowerConfig_MissingFile(t *testing.T) {
	if _, err := LoadWatchtowerConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error reading a nonexistent config file")
	}
}
