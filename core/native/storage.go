package native

import (
	"bytes"
	"sort"
	"sync"

	"github.com/MinterTeam/minter-harness/core/types"
)

// MemStorage keeps contract storage in memory
type MemStorage struct {
	slots map[types.Hash][]byte
	lock  sync.RWMutex
}

func NewMemStorage() *MemStorage {
	return &MemStorage{slots: map[types.Hash][]byte{}}
}

func (s *MemStorage) GetState(key types.Hash) []byte {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.slots[key]
}

func (s *MemStorage) SetState(key types.Hash, value []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.slots[key] = value
}

// BufferedStorage collects writes on top of parent storage until Flush is called
type BufferedStorage struct {
	parent Storage
	dirty  map[types.Hash][]byte
}

func NewBufferedStorage(parent Storage) *BufferedStorage {
	return &BufferedStorage{parent: parent, dirty: map[types.Hash][]byte{}}
}

func (s *BufferedStorage) GetState(key types.Hash) []byte {
	if value, ok := s.dirty[key]; ok {
		return value
	}
	return s.parent.GetState(key)
}

func (s *BufferedStorage) SetState(key types.Hash, value []byte) {
	s.dirty[key] = value
}

// Flush writes collected values to the parent storage in key order
func (s *BufferedStorage) Flush() {
	keys := make([]types.Hash, 0, len(s.dirty))
	for key := range s.dirty {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) == -1
	})

	for _, key := range keys {
		s.parent.SetState(key, s.dirty[key])
	}
	s.dirty = map[types.Hash][]byte{}
}
