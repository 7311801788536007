// Package harness deploys contract templates to an in-process ledger and checks
// values returned by their getters.
package harness

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/MinterTeam/minter-harness/config"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	tmlog "github.com/tendermint/tendermint/libs/log"
)

// DefaultDeployerKey is a well-known development key, deployments signed with it get the same addresses on every fresh network
const DefaultDeployerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// Harness deploys contracts from a single deployer account
type Harness struct {
	network  *Network
	registry *native.Registry
	logger   tmlog.Logger

	key     *ecdsa.PrivateKey
	address types.Address
	chainID types.ChainID

	confirmationTimeout time.Duration

	// mu keeps nonce assignment and submission atomic
	mu sync.Mutex
}

// Option configures a harness created by New
type Option func(h *Harness, opts *NetworkOptions)

func WithGenesis(genesis *types.AppState) Option {
	return func(_ *Harness, opts *NetworkOptions) {
		opts.Genesis = genesis
	}
}

func WithRegistry(registry *native.Registry) Option {
	return func(h *Harness, opts *NetworkOptions) {
		h.registry = registry
		opts.Registry = registry
	}
}

func WithLogger(logger tmlog.Logger) Option {
	return func(h *Harness, opts *NetworkOptions) {
		h.logger = logger
		opts.Logger = logger
	}
}

func WithNetworkOptions(fn func(opts *NetworkOptions)) Option {
	return func(_ *Harness, opts *NetworkOptions) {
		fn(opts)
	}
}

// New starts a network from cfg and returns a harness deploying to it.
// The deployer key comes from the config, DefaultDeployerKey is used when it is empty.
func New(cfg *config.Config, options ...Option) (*Harness, error) {
	keyHex := cfg.Network.DeployerKey
	if keyHex == "" {
		keyHex = DefaultDeployerKey
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "parse deployer key")
	}

	h := &Harness{
		registry:            native.DefaultRegistry(),
		logger:              tmlog.NewNopLogger(),
		key:                 key,
		address:             types.FromCommon(crypto.PubkeyToAddress(key.PublicKey)),
		chainID:             types.ChainID(cfg.Network.ChainID),
		confirmationTimeout: cfg.Network.ConfirmationTimeout,
	}

	opts := NetworkOptions{Registry: h.registry}
	for _, option := range options {
		option(h, &opts)
	}
	if opts.Registry == nil {
		opts.Registry = h.registry
	}
	h.logger = h.logger.With("module", "harness")

	network, err := NewNetwork(cfg, opts)
	if err != nil {
		return nil, err
	}
	h.network = network

	return h, nil
}

// Close stops the underlying network
func (h *Harness) Close() error {
	return h.network.Close()
}

func (h *Harness) Network() *Network {
	return h.network
}

func (h *Harness) Registry() *native.Registry {
	return h.registry
}

// Deployer returns address deployments are signed by
func (h *Harness) Deployer() types.Address {
	return h.address
}

// GetContractFactory resolves a deployable contract by name. Nothing is sent to the ledger.
func (h *Harness) GetContractFactory(name string) (*ContractFactory, error) {
	template, ok := h.registry.Get(name)
	if !ok {
		return nil, errors.Wrapf(ErrContractNotFound, "%q", name)
	}

	return &ContractFactory{harness: h, template: template}, nil
}

// At returns a handle of an already deployed contract
func (h *Harness) At(name string, address types.Address) (*Contract, error) {
	factory, err := h.GetContractFactory(name)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	close(done)

	return &Contract{
		factory:  factory,
		address:  address,
		pending:  &PendingTx{done: done, receipt: &Receipt{Height: h.network.Height()}},
		deployed: true,
	}, nil
}

// submit signs data with the next deployer nonce and sends it to the mempool
func (h *Harness) submit(ctx context.Context, data transaction.Data) (*PendingTx, uint64, error) {
	encodedData, err := rlp.EncodeToBytes(data)
	if err != nil {
		return nil, 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	nonce := h.network.PendingNonce(h.address) + 1
	tx := &transaction.Transaction{
		Nonce:         nonce,
		ChainID:       h.chainID,
		Type:          data.TxType(),
		Data:          encodedData,
		SignatureType: transaction.SigTypeSingle,
	}
	if err := tx.Sign(h.key); err != nil {
		return nil, 0, errors.Wrap(err, "sign transaction")
	}

	raw, err := tx.Serialize()
	if err != nil {
		return nil, 0, err
	}

	pending, err := h.network.Submit(ctx, raw)
	if err != nil {
		return nil, 0, err
	}

	h.logger.Debug("Transaction submitted", "hash", pending.Hash().String(), "nonce", nonce, "data", data.String())

	return pending, nonce, nil
}
