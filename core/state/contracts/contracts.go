package contracts

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	mainPrefix    = byte('c')
	storagePrefix = byte('s')
)

type RContracts interface {
	Export(state *types.AppState)
	Exists(address types.Address) bool
	GetContract(address types.Address) *Model
	GetState(address types.Address, key types.Hash) []byte
	Storage(address types.Address) native.Storage
}

type Contracts struct {
	list    map[types.Address]*Model
	storage map[types.Address]map[types.Hash][]byte
	dirty   map[types.Address]struct{}

	db atomic.Value

	lock sync.RWMutex
}

func NewContracts(db *iavl.ImmutableTree) *Contracts {
	immutableTree := atomic.Value{}
	if db != nil {
		immutableTree.Store(db)
	}

	return &Contracts{
		db:      immutableTree,
		list:    map[types.Address]*Model{},
		storage: map[types.Address]map[types.Hash][]byte{},
		dirty:   map[types.Address]struct{}{},
	}
}

func (c *Contracts) immutableTree() *iavl.ImmutableTree {
	db := c.db.Load()
	if db == nil {
		return nil
	}
	return db.(*iavl.ImmutableTree)
}

func (c *Contracts) SetImmutableTree(immutableTree *iavl.ImmutableTree) {
	c.db.Store(immutableTree)
}

func (c *Contracts) Commit(db *iavl.MutableTree, version int64) error {
	for _, address := range c.getOrderedDirty() {
		c.lock.Lock()
		delete(c.dirty, address)
		contract := c.list[address]
		slots := c.storage[address]
		delete(c.storage, address)
		c.lock.Unlock()

		if contract != nil && contract.isNew {
			contract.isNew = false
			data, err := rlp.EncodeToBytes(contract)
			if err != nil {
				return fmt.Errorf("can't encode contract at %x: %v", address[:], err)
			}
			db.Set(contractPath(address), data)
		}

		keys := make([]types.Hash, 0, len(slots))
		for key := range slots {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			return bytes.Compare(keys[i][:], keys[j][:]) == -1
		})

		for _, key := range keys {
			value := slots[key]
			if len(value) == 0 {
				db.Remove(storagePath(address, key))
				continue
			}
			db.Set(storagePath(address, key), value)
		}
	}

	return nil
}

func (c *Contracts) getOrderedDirty() []types.Address {
	c.lock.RLock()
	keys := make([]types.Address, 0, len(c.dirty))
	for k := range c.dirty {
		keys = append(keys, k)
	}
	c.lock.RUnlock()

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) == -1
	})

	return keys
}

func (c *Contracts) Exists(address types.Address) bool {
	return c.GetContract(address) != nil
}

func (c *Contracts) GetContract(address types.Address) *Model {
	c.lock.RLock()
	contract, ok := c.list[address]
	c.lock.RUnlock()
	if ok {
		return contract
	}

	tree := c.immutableTree()
	if tree == nil {
		return nil
	}

	_, enc := tree.Get(contractPath(address))
	if len(enc) == 0 {
		return nil
	}

	contract = &Model{}
	if err := rlp.DecodeBytes(enc, contract); err != nil {
		panic(fmt.Sprintf("failed to decode contract at address %s: %s", address.String(), err))
	}
	contract.address = address

	c.lock.Lock()
	c.list[address] = contract
	c.lock.Unlock()

	return contract
}

// Create registers a new contract record, the caller checks the address is free
func (c *Contracts) Create(address types.Address, template string, creator types.Address, height uint64, txHash types.Hash) *Model {
	contract := &Model{
		Template: template,
		Creator:  creator,
		Height:   height,
		TxHash:   txHash,
		address:  address,
		isNew:    true,
	}

	c.lock.Lock()
	c.list[address] = contract
	c.dirty[address] = struct{}{}
	c.lock.Unlock()

	return contract
}

func (c *Contracts) GetState(address types.Address, key types.Hash) []byte {
	c.lock.RLock()
	value, ok := c.storage[address][key]
	c.lock.RUnlock()
	if ok {
		return value
	}

	tree := c.immutableTree()
	if tree == nil {
		return nil
	}

	_, value = tree.Get(storagePath(address, key))
	return value
}

func (c *Contracts) SetState(address types.Address, key types.Hash, value []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()

	slots, ok := c.storage[address]
	if !ok {
		slots = map[types.Hash][]byte{}
		c.storage[address] = slots
	}
	slots[key] = value
	c.dirty[address] = struct{}{}
}

// Storage returns a view of a single contract storage
func (c *Contracts) Storage(address types.Address) native.Storage {
	return &contractStorage{contracts: c, address: address}
}

func (c *Contracts) Export(state *types.AppState) {
	tree := c.immutableTree()
	if tree == nil {
		return
	}

	tree.IterateRange([]byte{mainPrefix}, []byte{mainPrefix + 1}, true, func(key []byte, value []byte) bool {
		if len(key) != 1+types.AddressLength {
			return false
		}

		model := &Model{}
		if err := rlp.DecodeBytes(value, model); err != nil {
			panic(fmt.Sprintf("failed to decode contract at key %x: %s", key, err))
		}

		address := types.BytesToAddress(key[1:])
		contract := types.Contract{
			Address:  address,
			Template: model.Template,
			Creator:  model.Creator,
			Height:   model.Height,
			TxHash:   model.TxHash,
		}

		start := append([]byte{storagePrefix}, address.Bytes()...)
		end := []byte{storagePrefix + 1}
		if next := nextKey(address.Bytes()); next != nil {
			end = append([]byte{storagePrefix}, next...)
		}
		tree.IterateRange(start, end, true, func(key []byte, value []byte) bool {
			contract.Storage = append(contract.Storage, types.StorageSlot{
				Key:   types.BytesToHash(key[len(start):]),
				Value: append([]byte(nil), value...),
			})
			return false
		})

		state.Contracts = append(state.Contracts, contract)
		return false
	})
}

type contractStorage struct {
	contracts *Contracts
	address   types.Address
}

func (s *contractStorage) GetState(key types.Hash) []byte {
	return s.contracts.GetState(s.address, key)
}

func (s *contractStorage) SetState(key types.Hash, value []byte) {
	s.contracts.SetState(s.address, key, value)
}

func contractPath(address types.Address) []byte {
	return append([]byte{mainPrefix}, address.Bytes()...)
}

func storagePath(address types.Address, key types.Hash) []byte {
	path := append([]byte{storagePrefix}, address.Bytes()...)
	return append(path, key.Bytes()...)
}

// nextKey returns the smallest key greater than every key prefixed with b,
// nil when no such key exists
func nextKey(b []byte) []byte {
	next := append([]byte(nil), b...)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			return next[:i+1]
		}
	}
	return nil
}
