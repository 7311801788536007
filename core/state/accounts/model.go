package accounts

import (
	"sync"

	"github.com/MinterTeam/minter-harness/core/types"
)

type Model struct {
	Nonce uint64

	address types.Address
	isDirty bool
	isNew   bool

	markDirty func(types.Address)
	lock      sync.RWMutex
}

func (model *Model) setNonce(nonce uint64) {
	model.lock.Lock()
	model.Nonce = nonce
	model.isDirty = true
	model.lock.Unlock()

	model.markDirty(model.address)
}

func (model *Model) getNonce() uint64 {
	model.lock.RLock()
	defer model.lock.RUnlock()

	return model.Nonce
}
