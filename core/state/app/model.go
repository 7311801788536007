package app

import (
	"sync"
)

type Model struct {
	ContractsCount uint64

	markDirty func()
	mx        sync.RWMutex
}

func (model *Model) getContractsCount() uint64 {
	model.mx.RLock()
	defer model.mx.RUnlock()

	return model.ContractsCount
}

func (model *Model) setContractsCount(count uint64) {
	model.mx.Lock()
	defer model.mx.Unlock()

	if model.ContractsCount != count {
		model.markDirty()
	}

	model.ContractsCount = count
}
