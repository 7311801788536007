package harness

import (
	"context"
	"sync"
	"time"

	"github.com/MinterTeam/minter-harness/cmd/utils"
	"github.com/MinterTeam/minter-harness/config"
	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/minter"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/statistics"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/pkg/errors"
	abcicli "github.com/tendermint/tendermint/abci/client"
	abciTypes "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmlog "github.com/tendermint/tendermint/libs/log"
	tmsync "github.com/tendermint/tendermint/libs/sync"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
)

// Receipt is the outcome of a transaction included into a block
type Receipt struct {
	TxHash types.Hash
	Height uint64
	Code   uint32
	Log    string
	Info   string
	Data   []byte
	Events []abciTypes.Event
}

// PendingTx is a transaction accepted to the mempool
type PendingTx struct {
	hash types.Hash
	raw  []byte

	done    chan struct{}
	receipt *Receipt
	err     error
}

func (p *PendingTx) Hash() types.Hash {
	return p.hash
}

// Wait blocks until the transaction is included into a committed block or ctx is done
func (p *PendingTx) Wait(ctx context.Context) (*Receipt, error) {
	select {
	case <-p.done:
		return p.receipt, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PendingTx) finish(receipt *Receipt, err error) {
	p.receipt = receipt
	p.err = err
	close(p.done)
}

// NetworkOptions are optional collaborators of a network
type NetworkOptions struct {
	Genesis       *types.AppState
	Registry      *native.Registry
	StatisticData *statistics.Data
	Logger        tmlog.Logger
}

// Network is a single node ledger running in process. Blocks are produced by
// a background goroutine, all ABCI calls go through tendermint's local client.
type Network struct {
	app     *minter.Blockchain
	client  abcicli.Client
	logger  tmlog.Logger
	chainID string

	blockInterval time.Duration

	// mu serializes mempool access and block production
	mu            sync.Mutex
	mempool       []*PendingTx
	lastBlockTime time.Time

	notify    chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewNetwork starts a network described by cfg. A fresh ledger gets the genesis
// imported and an empty first block committed, so its state is queryable at once.
func NewNetwork(cfg *config.Config, opts NetworkOptions) (*Network, error) {
	if err := cfg.ValidateBasic(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = tmlog.NewNopLogger()
	}
	logger = logger.With("module", "network")

	storages := utils.NewStorage(cfg.RootDir, cfg.DBBackend, cfg.DBDir())
	app, err := minter.NewMinterBlockchain(storages, cfg, opts.Registry, opts.StatisticData, logger.With("module", "ledger"))
	if err != nil {
		return nil, err
	}

	client := abcicli.NewLocalClient(new(tmsync.Mutex), app)
	if err := client.Start(); err != nil {
		_ = app.Close()
		return nil, errors.Wrap(err, "start abci client")
	}

	n := &Network{
		app:           app,
		client:        client,
		logger:        logger,
		chainID:       types.ChainID(cfg.Network.ChainID).String(),
		blockInterval: cfg.Network.BlockInterval,
		notify:        make(chan struct{}, 1),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	if app.LastCommittedHeight() == 0 {
		if err := n.initChain(opts.Genesis); err != nil {
			n.shutdown()
			return nil, err
		}
	}

	go n.run()

	return n, nil
}

func (n *Network) initChain(genesis *types.AppState) error {
	appState := types.AppState{}
	if genesis != nil {
		appState = *genesis
	}

	appStateBytes, err := tmjson.Marshal(appState)
	if err != nil {
		return errors.Wrap(err, "encode genesis")
	}

	now := time.Now().UTC()
	if _, err := n.client.InitChainSync(abciTypes.RequestInitChain{
		Time:          now,
		ChainId:       n.chainID,
		AppStateBytes: appStateBytes,
		InitialHeight: 1,
	}); err != nil {
		return errors.Wrap(err, "init chain")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	return n.produceBlock()
}

func (n *Network) run() {
	defer close(n.done)

	var tick <-chan time.Time
	if n.blockInterval > 0 {
		ticker := time.NewTicker(n.blockInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-n.quit:
			return
		case <-n.notify:
			if n.blockInterval > 0 {
				continue
			}
			n.mu.Lock()
			if len(n.mempool) != 0 {
				if err := n.produceBlock(); err != nil {
					n.logger.Error("Block production failed", "err", err)
				}
			}
			n.mu.Unlock()
		case <-tick:
			n.mu.Lock()
			if err := n.produceBlock(); err != nil {
				n.logger.Error("Block production failed", "err", err)
			}
			n.mu.Unlock()
		}
	}
}

// produceBlock delivers every mempool transaction in a new block and commits it, n.mu must be held
func (n *Network) produceBlock() error {
	txs := n.mempool
	n.mempool = nil

	height := int64(n.app.LastCommittedHeight()) + 1
	header := tmproto.Header{
		ChainID: n.chainID,
		Height:  height,
		Time:    n.nextBlockTime(),
	}

	fail := func(err error) error {
		for _, tx := range txs {
			tx.finish(nil, err)
		}
		return err
	}

	if _, err := n.client.BeginBlockSync(abciTypes.RequestBeginBlock{Header: header}); err != nil {
		return fail(errors.Wrapf(err, "begin block %d", height))
	}

	receipts := make([]*Receipt, 0, len(txs))
	for _, tx := range txs {
		res, err := n.client.DeliverTxSync(abciTypes.RequestDeliverTx{Tx: tx.raw})
		if err != nil {
			return fail(errors.Wrapf(err, "deliver tx %s", tx.hash.String()))
		}
		receipts = append(receipts, &Receipt{
			TxHash: tx.hash,
			Height: uint64(height),
			Code:   res.Code,
			Log:    res.Log,
			Info:   res.Info,
			Data:   res.Data,
			Events: res.Events,
		})
	}

	if _, err := n.client.EndBlockSync(abciTypes.RequestEndBlock{Height: height}); err != nil {
		return fail(errors.Wrapf(err, "end block %d", height))
	}

	commit, err := n.client.CommitSync()
	if err != nil {
		return fail(errors.Wrapf(err, "commit block %d", height))
	}

	n.logger.Info("Block committed", "height", height, "txs", len(txs), "app_hash", types.BytesToHash(commit.Data).String())

	for i, tx := range txs {
		tx.finish(receipts[i], nil)
	}

	return nil
}

// nextBlockTime returns monotonically increasing block time
func (n *Network) nextBlockTime() time.Time {
	now := time.Now().UTC()
	if !now.After(n.lastBlockTime) {
		now = n.lastBlockTime.Add(time.Millisecond)
	}
	n.lastBlockTime = now
	return now
}

// Submit checks raw transaction and puts it into the mempool
func (n *Network) Submit(ctx context.Context, raw []byte) (*PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case <-n.quit:
		return nil, ErrNetworkClosed
	default:
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	res, err := n.client.CheckTxSync(abciTypes.RequestCheckTx{Tx: raw})
	if err != nil {
		return nil, errors.Wrap(err, "check tx")
	}
	if res.Code != code.OK {
		return nil, &TxError{Code: res.Code, Log: res.Log, Info: res.Info}
	}

	pending := &PendingTx{
		hash: transaction.RawTxHash(raw),
		raw:  raw,
		done: make(chan struct{}),
	}
	n.mempool = append(n.mempool, pending)

	select {
	case n.notify <- struct{}{}:
	default:
	}

	return pending, nil
}

// Mine produces a block right away, pending transactions are included
func (n *Network) Mine(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	return n.produceBlock()
}

// Query runs an ABCI query, zero height means the last committed block
func (n *Network) Query(path string, data []byte, height uint64) (*abciTypes.ResponseQuery, error) {
	return n.client.QuerySync(abciTypes.RequestQuery{Path: path, Data: data, Height: int64(height)})
}

// Height returns the last committed block height
func (n *Network) Height() uint64 {
	return n.app.LastCommittedHeight()
}

// PendingNonce returns the last nonce of address including mempool transactions
func (n *Network) PendingNonce(address types.Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.app.PendingNonce(address)
}

func (n *Network) Info() (*abciTypes.ResponseInfo, error) {
	return n.client.InfoSync(abciTypes.RequestInfo{})
}

func (n *Network) App() *minter.Blockchain {
	return n.app
}

func (n *Network) ChainID() string {
	return n.chainID
}

// Close stops block production and releases databases, pending transactions fail with ErrNetworkClosed
func (n *Network) Close() error {
	var err error
	n.closeOnce.Do(func() {
		close(n.quit)
		<-n.done
		err = n.shutdown()
	})
	return err
}

func (n *Network) shutdown() error {
	n.mu.Lock()
	for _, tx := range n.mempool {
		tx.finish(nil, ErrNetworkClosed)
	}
	n.mempool = nil
	n.mu.Unlock()

	if err := n.client.Stop(); err != nil {
		n.logger.Error("Failed to stop abci client", "err", err)
	}

	return n.app.Close()
}
