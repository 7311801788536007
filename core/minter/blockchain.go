package minter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MinterTeam/minter-harness/cmd/utils"
	"github.com/MinterTeam/minter-harness/config"
	"github.com/MinterTeam/minter-harness/core/appdb"
	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/state"
	"github.com/MinterTeam/minter-harness/core/statistics"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/MinterTeam/minter-harness/version"
	"github.com/pkg/errors"
	abciTypes "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmlog "github.com/tendermint/tendermint/libs/log"
)

// Blockchain is the ledger application driven through ABCI
type Blockchain struct {
	abciTypes.BaseApplication

	logger tmlog.Logger

	executor      *transaction.Executor
	registry      *native.Registry
	statisticData *statistics.Data

	appDB        *appdb.AppDB
	stateDeliver *state.State
	stateCheck   *state.CheckState
	height       uint64 // current Blockchain height

	// currentMempool keeps the last checked nonce of every sender until the next commit
	currentMempool *sync.Map

	cfg      *config.Config
	storages *utils.Storage
}

// NewMinterBlockchain creates Blockchain instance over storages. Databases are opened here,
// previously committed state is loaded when the app db knows a height.
func NewMinterBlockchain(storages *utils.Storage, cfg *config.Config, registry *native.Registry, statisticData *statistics.Data, logger tmlog.Logger) (*Blockchain, error) {
	if storages.StateDB() == nil {
		if _, err := storages.InitStateDB(); err != nil {
			return nil, err
		}
	}
	if storages.AppDB() == nil {
		if _, err := storages.InitAppDB(); err != nil {
			return nil, err
		}
	}
	if registry == nil {
		registry = native.DefaultRegistry()
	}
	if logger == nil {
		logger = tmlog.NewNopLogger()
	}

	app := &Blockchain{
		logger:         logger,
		executor:       transaction.NewExecutor(transaction.GetData, registry, types.ChainID(cfg.Network.ChainID)),
		registry:       registry,
		statisticData:  statisticData,
		appDB:          appdb.NewAppDB(storages.AppDB()),
		currentMempool: &sync.Map{},
		cfg:            cfg,
		storages:       storages,
	}

	if app.appDB.GetLastHeight() != 0 {
		if err := app.initState(); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func (blockchain *Blockchain) initState() error {
	initialHeight := blockchain.appDB.GetStartHeight()
	currentHeight := blockchain.appDB.GetLastHeight()

	stateDeliver, err := state.NewState(currentHeight,
		blockchain.storages.StateDB(),
		blockchain.cfg.StateCacheSize,
		blockchain.cfg.KeepLastStates,
		initialHeight+1)
	if err != nil {
		return errors.Wrapf(err, "load state at height %d", currentHeight)
	}

	height := currentHeight
	if height == 0 {
		height = initialHeight
	}
	atomic.StoreUint64(&blockchain.height, height)
	blockchain.stateDeliver = stateDeliver
	blockchain.stateCheck = state.NewCheckState(stateDeliver)

	return nil
}

// InitChain imports genesis accounts and contracts, they are committed with the first block
func (blockchain *Blockchain) InitChain(req abciTypes.RequestInitChain) abciTypes.ResponseInitChain {
	var genesisState types.AppState
	if len(req.AppStateBytes) != 0 {
		if err := tmjson.Unmarshal(req.AppStateBytes, &genesisState); err != nil {
			panic(err)
		}
	}

	initialHeight := uint64(0)
	if req.InitialHeight > 1 {
		initialHeight = uint64(req.InitialHeight) - 1
	}

	blockchain.appDB.SetStartHeight(initialHeight)
	if err := blockchain.initState(); err != nil {
		panic(err)
	}

	if err := blockchain.stateDeliver.Import(genesisState); err != nil {
		panic(err)
	}

	blockchain.logger.Info("Genesis imported", "accounts", len(genesisState.Accounts), "contracts", len(genesisState.Contracts), "initial_height", initialHeight+1)

	return abciTypes.ResponseInitChain{}
}

func (blockchain *Blockchain) BeginBlock(req abciTypes.RequestBeginBlock) abciTypes.ResponseBeginBlock {
	height := uint64(req.Header.Height)
	if blockchain.stateDeliver == nil {
		if err := blockchain.initState(); err != nil {
			panic(err)
		}
	}

	blockchain.StatisticData().SetStartBlock(height, time.Now(), req.Header.Time)
	blockchain.appDB.AddBlocksTime(req.Header.Time)

	return abciTypes.ResponseBeginBlock{}
}

func (blockchain *Blockchain) EndBlock(req abciTypes.RequestEndBlock) abciTypes.ResponseEndBlock {
	height := uint64(req.Height)
	atomic.StoreUint64(&blockchain.height, height)

	blockchain.StatisticData().SetEndBlockDuration(time.Now(), height)

	return abciTypes.ResponseEndBlock{}
}

func (blockchain *Blockchain) Info(_ abciTypes.RequestInfo) (resInfo abciTypes.ResponseInfo) {
	hash := blockchain.appDB.GetLastBlockHash()
	height := int64(blockchain.appDB.GetLastHeight())
	return abciTypes.ResponseInfo{
		Version:          version.Version,
		AppVersion:       version.AppVer,
		LastBlockHeight:  height,
		LastBlockAppHash: hash,
	}
}

func (blockchain *Blockchain) DeliverTx(req abciTypes.RequestDeliverTx) abciTypes.ResponseDeliverTx {
	response := blockchain.executor.RunTx(blockchain.stateDeliver, req.Tx, blockchain.Height()+1, nil)

	blockchain.StatisticData().AddTx(response.Code)
	if response.Code == code.OK {
		for _, tag := range response.Tags {
			if string(tag.Key) == "tx.contract" {
				blockchain.StatisticData().AddContract(string(tag.Value))
			}
		}
	} else {
		blockchain.logger.Debug("Transaction failed", "code", response.Code, "log", response.Log)
	}

	return abciTypes.ResponseDeliverTx{
		Code: response.Code,
		Data: response.Data,
		Log:  response.Log,
		Info: response.Info,
		Events: []abciTypes.Event{
			{
				Type:       "tags",
				Attributes: response.Tags,
			},
		},
	}
}

func (blockchain *Blockchain) CheckTx(req abciTypes.RequestCheckTx) abciTypes.ResponseCheckTx {
	response := blockchain.executor.RunTx(blockchain.CurrentState(), req.Tx, blockchain.Height()+1, blockchain.currentMempool)

	return abciTypes.ResponseCheckTx{
		Code: response.Code,
		Data: response.Data,
		Log:  response.Log,
		Info: response.Info,
	}
}

func (blockchain *Blockchain) Commit() abciTypes.ResponseCommit {
	height := blockchain.Height()

	hash, err := blockchain.stateDeliver.Commit()
	if err != nil {
		panic(errors.Wrapf(err, "height %d", height))
	}

	// Persist application hash and height
	blockchain.appDB.SetLastBlockHash(hash)
	blockchain.appDB.SetLastHeight(height)
	blockchain.appDB.SaveBlocksTime()

	blockchain.currentMempool = &sync.Map{}

	blockchain.logger.Debug("Block committed", "height", height, "hash", types.BytesToHash(hash).String())

	return abciTypes.ResponseCommit{
		Data: hash,
	}
}

// Close closes every database of the app
func (blockchain *Blockchain) Close() error {
	return blockchain.storages.Close()
}

// CurrentState returns check state over the not yet committed state
func (blockchain *Blockchain) CurrentState() *state.CheckState {
	return blockchain.stateCheck
}

// Height returns the last block height processed by EndBlock
func (blockchain *Blockchain) Height() uint64 {
	return atomic.LoadUint64(&blockchain.height)
}

// LastCommittedHeight returns the height of the last committed block
func (blockchain *Blockchain) LastCommittedHeight() uint64 {
	return blockchain.appDB.GetLastHeight()
}

// InitialHeight returns height of the first block
func (blockchain *Blockchain) InitialHeight() uint64 {
	return blockchain.appDB.GetStartHeight() + 1
}

// AverageBlockTime returns mean interval between the last blocks
func (blockchain *Blockchain) AverageBlockTime() (time.Duration, bool) {
	return blockchain.appDB.GetLastBlockTimeDelta()
}

func (blockchain *Blockchain) Registry() *native.Registry {
	return blockchain.registry
}

func (blockchain *Blockchain) StatisticData() *statistics.Data {
	return blockchain.statisticData
}

// PendingNonce returns the last nonce of address known to the mempool or to the state
func (blockchain *Blockchain) PendingNonce(address types.Address) uint64 {
	if nonce, ok := blockchain.currentMempool.Load(address); ok {
		return nonce.(uint64)
	}
	if blockchain.stateCheck == nil {
		return 0
	}

	return blockchain.stateCheck.Accounts().GetNonce(address)
}

// CheckStateAtHeight returns committed state, zero height means the last one
func (blockchain *Blockchain) CheckStateAtHeight(height uint64) (*state.CheckState, error) {
	if blockchain.stateDeliver == nil {
		return nil, errors.New("state is not initialized")
	}

	return blockchain.stateDeliver.CheckStateAtHeight(int64(height))
}
