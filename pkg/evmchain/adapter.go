// Package evmchain adapts bridgecore.Bridge to the chainadapter.ChainAdapter
// seam using go-ethereum's address/crypto primitives, modeled on the
// teacher's pkg/ethereum.Client. It keeps no gas accounting. It does not
// dial a live RPC endpoint: every call operates on an in-process
// *bridgecore.Bridge standing in for the on-chain contract, the same way the
// teacher's Client wraps an abigen contract binding, but here the binding is
// the bridgecore state machine itself. A monotonically increasing internal
// block counter gives DepositsSince/BlockHashAt/LatestFinalizedHeight
// something to report against.
package evmchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/chainsafe/watchtower-bridge/pkg/apperr"
	"github.com/chainsafe/watchtower-bridge/pkg/bridgecore"
	"github.com/chainsafe/watchtower-bridge/pkg/chainadapter"
)

// Config configures an Adapter.
type Config struct {
	ChainTag      bridgecore.ChainTag
	RelayerPrivateKeyHex string
	FinalityDepth uint64
	NonceStart    uint64
}

type block struct {
	height   int64
	hash     common.Hash
	deposits []chainadapter.ObservedDeposit
}

// Adapter is the EVM-flavored ChainAdapter. It signs with a secp256k1 key
// exactly like the teacher's Client, deriving its account identity the same
// way: crypto.PubkeyToAddress, left-padded to bridgecore.Account's 32 bytes.
type Adapter struct {
	cfg        Config
	bridge     *bridgecore.Bridge
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger

	mu     sync.Mutex
	blocks []block
	head   int64
}

// New constructs an Adapter wrapping bridge, signing with the given hex
// private key exactly as ethereum.NewClient loads cfg.RelayerPrivateKey.
func New(cfg Config, bridge *bridgecore.Bridge, logger *zap.Logger) (*Adapter, error) {
	privateKey, err := crypto.HexToECDSA(cfg.RelayerPrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("evmchain: failed to load relayer private key: %w", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	a := &Adapter{
		cfg:        cfg,
		bridge:     bridge,
		privateKey: privateKey,
		address:    address,
		logger:     logger,
	}
	// Genesis block so BlockHashAt(0) and LatestFinalizedHeight have
	// something to report before the first deposit is observed.
	a.blocks = append(a.blocks, block{height: 0, hash: crypto.Keccak256Hash([]byte("evmchain-genesis"))})
	return a, nil
}

// addressToAccount left-pads a 20-byte EVM address into bridgecore's 32-byte
// Account, the same convention the teacher's contract uses for cross-chain
// address encoding (see pkg/bridgecore/codec.go).
func addressToAccount(addr common.Address) bridgecore.Account {
	var a bridgecore.Account
	copy(a[12:], addr.Bytes())
	return a
}

func accountToAddress(a bridgecore.Account) common.Address {
	return common.BytesToAddress(a[12:])
}

func (a *Adapter) ChainTag() bridgecore.ChainTag { return a.cfg.ChainTag }
func (a *Adapter) Account() bridgecore.Account   { return addressToAccount(a.address) }
func (a *Adapter) Config() chainadapter.Config {
	return chainadapter.Config{
		NonceStart:    a.cfg.NonceStart,
		FinalityDepth: a.cfg.FinalityDepth,
	}
}

// RecordDeposit appends a new simulated block containing dep, mirroring how
// a real EVM block would include the DepositToCanton log the teacher's
// WatchDepositEvents polls for. Call sites on the deposit side of the bridge
// (e.g. a test harness standing in for user wallets) drive this directly;
// the observer never calls it.
func (a *Adapter) RecordDeposit(dep *bridgecore.Deposit, hash bridgecore.CanonicalHash) chainadapter.ObservedDeposit {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.head++
	blockHash := crypto.Keccak256Hash(hash[:], big.NewInt(a.head).Bytes())
	observed := chainadapter.ObservedDeposit{
		Deposit:     *dep,
		Hash:        hash,
		BlockHeight: a.head,
		BlockHash:   blockHash.Hex(),
	}
	a.blocks = append(a.blocks, block{height: a.head, hash: blockHash, deposits: []chainadapter.ObservedDeposit{observed}})
	return observed
}

func (a *Adapter) DepositsSince(ctx context.Context, cursor int64, limit int) ([]chainadapter.ObservedDeposit, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []chainadapter.ObservedDeposit
	newCursor := cursor
	for _, b := range a.blocks {
		if b.height <= cursor {
			continue
		}
		for _, d := range b.deposits {
			if limit > 0 && len(out) >= limit {
				return out, newCursor, nil
			}
			out = append(out, d)
		}
		newCursor = b.height
	}
	return out, newCursor, nil
}

func (a *Adapter) BlockHashAt(ctx context.Context, height int64) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, b := range a.blocks {
		if b.height == height {
			return b.hash.Hex(), nil
		}
	}
	return "", fmt.Errorf("evmchain: no block at height %d", height)
}

func (a *Adapter) LatestFinalizedHeight(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	finalized := a.head - int64(a.cfg.FinalityDepth)
	if finalized < 0 {
		finalized = 0
	}
	return finalized, nil
}

// sign produces an Ethereum-style signed-message signature over hash,
// identical in construction to WithdrawFromCanton's proof in the teacher's
// pkg/ethereum/client.go: keccak256("\x19Ethereum Signed Message:\n32" || hash).
func (a *Adapter) sign(hash bridgecore.CanonicalHash) ([]byte, error) {
	ethSignedHash := crypto.Keccak256Hash(
		[]byte("\x19Ethereum Signed Message:\n32"),
		hash[:],
	)
	sig, err := crypto.Sign(ethSignedHash.Bytes(), a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("evmchain: failed to sign: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

func (a *Adapter) WithdrawSubmit(ctx context.Context, req chainadapter.WithdrawSubmitRequest) (bridgecore.CanonicalHash, error) {
	return a.bridge.WithdrawSubmit(req.SrcChain, req.SrcAccount, req.DestAccount, req.Token, req.Amount, req.Nonce, req.TipPayer, req.OperatorGas)
}

func (a *Adapter) Approve(ctx context.Context, hash bridgecore.CanonicalHash) error {
	if _, err := a.sign(hash); err != nil {
		return apperr.RpcTransient("evmchain: sign approval", err)
	}
	return a.bridge.Approve(a.Account(), hash)
}

func (a *Adapter) Cancel(ctx context.Context, hash bridgecore.CanonicalHash) error {
	return a.bridge.Cancel(a.Account(), hash)
}

func (a *Adapter) ExecuteUnlock(ctx context.Context, hash bridgecore.CanonicalHash) error {
	return a.bridge.ExecuteUnlock(hash)
}

func (a *Adapter) ExecuteMint(ctx context.Context, hash bridgecore.CanonicalHash) error {
	return a.bridge.ExecuteMint(hash)
}

func (a *Adapter) PendingWithdrawal(ctx context.Context, hash bridgecore.CanonicalHash) (bridgecore.PendingWithdraw, bool, error) {
	pw, ok := a.bridge.PendingWithdrawal(hash)
	return pw, ok, nil
}
