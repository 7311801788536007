package appdb

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	tmjson "github.com/tendermint/tendermint/libs/json"
	"github.com/tendermint/tm-db"
)

const (
	hashPath        = "hash"
	heightPath      = "height"
	startHeightPath = "startHeight"
	blocksTimePath  = "blockDelta"
)

// BlocksTimeCount is how many last block times are kept for the average block time
const BlocksTimeCount = 4

// AppDB is responsible for storing basic information about app state
type AppDB struct {
	db db.DB
	mu sync.Mutex

	startHeight    uint64
	lastHeight     uint64
	lastTimeBlocks []uint64
}

// NewAppDB creates AppDB instance on top of given db
func NewAppDB(db db.DB) *AppDB {
	return &AppDB{db: db}
}

// Close closes db connection
func (appDB *AppDB) Close() error {
	return appDB.db.Close()
}

// GetLastBlockHash returns latest block hash stored on disk
func (appDB *AppDB) GetLastBlockHash() []byte {
	rawHash, err := appDB.db.Get([]byte(hashPath))
	if err != nil {
		panic(err)
	}

	if len(rawHash) == 0 {
		return nil
	}

	var hash [32]byte
	copy(hash[:], rawHash)
	return hash[:]
}

// SetLastBlockHash stores given block hash on disk, panics on error
func (appDB *AppDB) SetLastBlockHash(hash []byte) {
	if err := appDB.db.Set([]byte(hashPath), hash); err != nil {
		panic(err)
	}
}

// GetLastHeight returns latest block height stored on disk
func (appDB *AppDB) GetLastHeight() uint64 {
	val := atomic.LoadUint64(&appDB.lastHeight)
	if val != 0 {
		return val
	}

	result, err := appDB.db.Get([]byte(heightPath))
	if err != nil {
		panic(err)
	}

	if len(result) != 0 {
		val = binary.BigEndian.Uint64(result)
		atomic.StoreUint64(&appDB.lastHeight, val)
	}

	return val
}

// SetLastHeight stores given block height on disk, panics on error
func (appDB *AppDB) SetLastHeight(height uint64) {
	h := make([]byte, 8)
	binary.BigEndian.PutUint64(h, height)

	if err := appDB.db.Set([]byte(heightPath), h); err != nil {
		panic(err)
	}

	atomic.StoreUint64(&appDB.lastHeight, height)
}

// SetStartHeight stores given block height on disk as start height, panics on error
func (appDB *AppDB) SetStartHeight(height uint64) {
	h := make([]byte, 8)
	binary.BigEndian.PutUint64(h, height)

	if err := appDB.db.Set([]byte(startHeightPath), h); err != nil {
		panic(err)
	}

	atomic.StoreUint64(&appDB.startHeight, height)
}

// GetStartHeight returns start height stored on disk
func (appDB *AppDB) GetStartHeight() uint64 {
	val := atomic.LoadUint64(&appDB.startHeight)
	if val != 0 {
		return val
	}

	result, err := appDB.db.Get([]byte(startHeightPath))
	if err != nil {
		panic(err)
	}

	if len(result) != 0 {
		val = binary.BigEndian.Uint64(result)
		atomic.StoreUint64(&appDB.startHeight, val)
	}

	return val
}

// AddBlocksTime remembers time of a new block, only the last BlocksTimeCount are kept
func (appDB *AppDB) AddBlocksTime(time time.Time) {
	appDB.mu.Lock()
	defer appDB.mu.Unlock()

	if len(appDB.lastTimeBlocks) == 0 {
		result, err := appDB.db.Get([]byte(blocksTimePath))
		if err != nil {
			panic(err)
		}
		if len(result) != 0 {
			if err := tmjson.Unmarshal(result, &appDB.lastTimeBlocks); err != nil {
				panic(err)
			}
		}
	}

	appDB.lastTimeBlocks = append(appDB.lastTimeBlocks, uint64(time.UnixNano()))
	count := len(appDB.lastTimeBlocks)
	if count > BlocksTimeCount {
		appDB.lastTimeBlocks = appDB.lastTimeBlocks[count-BlocksTimeCount:]
	}
}

// SaveBlocksTime stores collected block times, panics on error
func (appDB *AppDB) SaveBlocksTime() {
	appDB.mu.Lock()
	defer appDB.mu.Unlock()

	data, err := tmjson.Marshal(appDB.lastTimeBlocks)
	if err != nil {
		panic(err)
	}

	if err := appDB.db.Set([]byte(blocksTimePath), data); err != nil {
		panic(err)
	}
}

// GetLastBlockTimeDelta returns average time between the last blocks, false if less than two blocks are known
func (appDB *AppDB) GetLastBlockTimeDelta() (time.Duration, bool) {
	appDB.mu.Lock()
	defer appDB.mu.Unlock()

	return calcBlockDelta(appDB.lastTimeBlocks)
}

func calcBlockDelta(times []uint64) (time.Duration, bool) {
	if len(times) < 2 {
		return 0, false
	}

	var sum uint64
	for i := 1; i < len(times); i++ {
		sum += times[i] - times[i-1]
	}

	return time.Duration(sum / uint64(len(times)-1)), true
}
