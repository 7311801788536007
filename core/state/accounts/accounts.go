package accounts

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/rlp"
)

const mainPrefix = byte('a')

type RAccounts interface {
	Export(state *types.AppState)
	GetNonce(address types.Address) uint64
}

type Accounts struct {
	list  map[types.Address]*Model
	dirty map[types.Address]struct{}

	db atomic.Value

	lock sync.RWMutex
}

func NewAccounts(db *iavl.ImmutableTree) *Accounts {
	immutableTree := atomic.Value{}
	if db != nil {
		immutableTree.Store(db)
	}

	return &Accounts{db: immutableTree, list: map[types.Address]*Model{}, dirty: map[types.Address]struct{}{}}
}

func (a *Accounts) immutableTree() *iavl.ImmutableTree {
	db := a.db.Load()
	if db == nil {
		return nil
	}
	return db.(*iavl.ImmutableTree)
}

func (a *Accounts) SetImmutableTree(immutableTree *iavl.ImmutableTree) {
	a.db.Store(immutableTree)
}

func (a *Accounts) Commit(db *iavl.MutableTree, version int64) error {
	for _, address := range a.getOrderedDirtyAccounts() {
		account := a.getFromMap(address)
		a.lock.Lock()
		delete(a.dirty, address)
		a.lock.Unlock()

		account.lock.Lock()
		if !account.isDirty && !account.isNew {
			account.lock.Unlock()
			continue
		}
		account.isDirty = false
		account.isNew = false
		data, err := rlp.EncodeToBytes(account)
		account.lock.Unlock()
		if err != nil {
			return fmt.Errorf("can't encode object at %x: %v", address[:], err)
		}

		db.Set(accountPath(address), data)
	}

	return nil
}

func (a *Accounts) getOrderedDirtyAccounts() []types.Address {
	a.lock.RLock()
	keys := make([]types.Address, 0, len(a.dirty))
	for k := range a.dirty {
		keys = append(keys, k)
	}
	a.lock.RUnlock()

	sort.SliceStable(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) == 1
	})

	return keys
}

func (a *Accounts) SetNonce(address types.Address, nonce uint64) {
	a.getOrNew(address).setNonce(nonce)
}

func (a *Accounts) GetNonce(address types.Address) uint64 {
	account := a.get(address)
	if account == nil {
		return 0
	}

	return account.getNonce()
}

func (a *Accounts) get(address types.Address) *Model {
	if account := a.getFromMap(address); account != nil {
		return account
	}

	tree := a.immutableTree()
	if tree == nil {
		return nil
	}

	_, enc := tree.Get(accountPath(address))
	if len(enc) == 0 {
		return nil
	}

	account := &Model{}
	if err := rlp.DecodeBytes(enc, account); err != nil {
		panic(fmt.Sprintf("failed to decode account at address %s: %s", address.String(), err))
	}

	account.address = address
	account.markDirty = a.markDirty

	a.setToMap(address, account)
	return account
}

func (a *Accounts) getOrNew(address types.Address) *Model {
	account := a.get(address)
	if account == nil {
		account = &Model{
			address:   address,
			markDirty: a.markDirty,
			isNew:     true,
		}
		a.setToMap(address, account)
	}

	return account
}

func (a *Accounts) markDirty(addr types.Address) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.dirty[addr] = struct{}{}
}

func (a *Accounts) Export(state *types.AppState) {
	tree := a.immutableTree()
	if tree == nil {
		return
	}

	tree.IterateRange([]byte{mainPrefix}, []byte{mainPrefix + 1}, true, func(key []byte, value []byte) bool {
		if len(key) != 1+types.AddressLength {
			return false
		}

		account := &Model{}
		if err := rlp.DecodeBytes(value, account); err != nil {
			panic(fmt.Sprintf("failed to decode account at key %x: %s", key, err))
		}

		state.Accounts = append(state.Accounts, types.Account{
			Address: types.BytesToAddress(key[1:]),
			Nonce:   account.Nonce,
		})

		return false
	})
}

func (a *Accounts) getFromMap(address types.Address) *Model {
	a.lock.RLock()
	defer a.lock.RUnlock()

	return a.list[address]
}

func (a *Accounts) setToMap(address types.Address, model *Model) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.list[address] = model
}

func accountPath(address types.Address) []byte {
	return append([]byte{mainPrefix}, address.Bytes()...)
}
