package state

import (
	"sync"

	"github.com/MinterTeam/minter-harness/core/state/accounts"
	"github.com/MinterTeam/minter-harness/core/state/app"
	"github.com/MinterTeam/minter-harness/core/state/contracts"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/MinterTeam/minter-harness/tree"
	"github.com/cosmos/iavl"
	"github.com/pkg/errors"
	db "github.com/tendermint/tm-db"
)

type Interface interface {
	isValue_State()
}

type CheckState struct {
	state *State
}

func NewCheckState(state *State) *CheckState {
	return &CheckState{state: state}
}

func (cs *CheckState) isValue_State() {}

func (cs *CheckState) Export() types.AppState {
	appState := new(types.AppState)
	cs.Accounts().Export(appState)
	cs.Contracts().Export(appState)

	return *appState
}

func (cs *CheckState) App() app.RApp {
	return cs.state.App
}

func (cs *CheckState) Accounts() accounts.RAccounts {
	return cs.state.Accounts
}

func (cs *CheckState) Contracts() contracts.RContracts {
	return cs.state.Contracts
}

// Height returns the version the check state was built from
func (cs *CheckState) Height() int64 {
	return cs.state.height
}

type State struct {
	App            *app.App
	Accounts       *accounts.Accounts
	Contracts      *contracts.Contracts
	db             db.DB
	tree           tree.MTree
	keepLastStates int64

	lock           sync.RWMutex
	height         int64
	initialVersion int64
}

func (s *State) isValue_State() {}

func NewState(height uint64, db db.DB, cacheSize int, keepLastStates int64, initialVersion uint64) (*State, error) {
	iavlTree, err := tree.NewMutableTree(height, db, cacheSize, initialVersion)
	if err != nil {
		return nil, err
	}

	state := newStateForTree(iavlTree.GetLastImmutable(), db, keepLastStates)
	state.tree = iavlTree
	state.height = int64(height)
	state.initialVersion = int64(initialVersion)

	return state, nil
}

func (s *State) Tree() tree.MTree {
	return s.tree
}

func (s *State) Lock() {
	s.lock.Lock()
}

func (s *State) Unlock() {
	s.lock.Unlock()
}

func (s *State) RLock() {
	s.lock.RLock()
}

func (s *State) RUnlock() {
	s.lock.RUnlock()
}

func (s *State) Height() int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.height
}

// Commit saves dirty substates as a new tree version and prunes versions older than keepLastStates
func (s *State) Commit() ([]byte, error) {
	hash, version, err := s.tree.Commit(
		s.App,
		s.Accounts,
		s.Contracts,
	)
	if err != nil {
		return hash, err
	}

	s.lock.Lock()
	s.height = version
	s.lock.Unlock()

	versionToDelete := version - s.keepLastStates - 1
	if s.keepLastStates <= 0 || versionToDelete < s.initialVersion || versionToDelete <= 0 {
		return hash, nil
	}

	if err := s.tree.DeleteVersionIfExists(versionToDelete); err != nil {
		return hash, errors.Wrapf(err, "delete version %d", versionToDelete)
	}

	return hash, nil
}

func (s *State) Import(state types.AppState) error {
	if err := state.Verify(); err != nil {
		return err
	}

	for _, a := range state.Accounts {
		s.Accounts.SetNonce(a.Address, a.Nonce)
	}

	for _, c := range state.Contracts {
		s.Contracts.Create(c.Address, c.Template, c.Creator, c.Height, c.TxHash)
		for _, slot := range c.Storage {
			s.Contracts.SetState(c.Address, slot.Key, slot.Value)
		}
	}
	s.App.SetContractsCount(uint64(len(state.Contracts)))

	return nil
}

// Export returns genesis-like dump of the last committed version
func (s *State) Export() (types.AppState, error) {
	cs, err := s.CheckStateAtHeight(0)
	if err != nil {
		return types.AppState{}, err
	}

	return cs.Export(), nil
}

// CheckStateAtHeight returns read-only state of committed version, zero means the last one.
// Before the first commit it returns empty state.
func (s *State) CheckStateAtHeight(height int64) (*CheckState, error) {
	if height == 0 {
		immutable := s.tree.GetLastImmutable()
		cs := NewCheckState(newStateForTree(immutable, s.db, 0))
		if immutable != nil {
			cs.state.height = immutable.Version()
		}
		return cs, nil
	}

	immutable, err := s.tree.GetImmutableAtHeight(height)
	if err != nil {
		return nil, errors.Wrapf(err, "state at height %d", height)
	}

	cs := NewCheckState(newStateForTree(immutable, s.db, 0))
	cs.state.height = height
	return cs, nil
}

func newStateForTree(immutableTree *iavl.ImmutableTree, db db.DB, keepLastStates int64) *State {
	return &State{
		App:            app.NewApp(immutableTree),
		Accounts:       accounts.NewAccounts(immutableTree),
		Contracts:      contracts.NewContracts(immutableTree),
		db:             db,
		keepLastStates: keepLastStates,
	}
}
