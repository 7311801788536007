package utils

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	db "github.com/tendermint/tm-db"
)

const (
	stateDBName = "state"
	appDBName   = "app"

	// memory in megabytes given to a single goleveldb database
	levelDBMemLimit = 64
)

// GetDbOpts returns goleveldb options for a database allowed to use memLimit megabytes
func GetDbOpts(memLimit int) *opt.Options {
	return &opt.Options{
		OpenFilesCacheCapacity: memLimit,
		BlockCacheCapacity:     memLimit / 2 * opt.MiB,
		WriteBuffer:            memLimit / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

// Storage owns databases of a single network
type Storage struct {
	home    string
	backend db.BackendType
	dbDir   string

	stateDB db.DB
	appDB   db.DB
}

// NewStorage creates storage rooted at home. Empty backend means memdb.
func NewStorage(home string, backend string, dbDir string) *Storage {
	if backend == "" {
		backend = string(db.MemDBBackend)
	}
	if dbDir == "" {
		dbDir = filepath.Join(home, "data")
	}

	return &Storage{home: home, backend: db.BackendType(backend), dbDir: dbDir}
}

func (s *Storage) GetHarnessHome() string {
	return s.home
}

func (s *Storage) open(name string) (db.DB, error) {
	if s.backend == db.GoLevelDBBackend {
		return db.NewGoLevelDBWithOpts(name, s.dbDir, GetDbOpts(levelDBMemLimit))
	}

	return db.NewDB(name, s.backend, s.dbDir)
}

func (s *Storage) InitStateDB() (db.DB, error) {
	stateDB, err := s.open(stateDBName)
	if err != nil {
		return nil, errors.Wrap(err, "init state db")
	}

	s.stateDB = stateDB
	return stateDB, nil
}

func (s *Storage) InitAppDB() (db.DB, error) {
	appDB, err := s.open(appDBName)
	if err != nil {
		return nil, errors.Wrap(err, "init app db")
	}

	s.appDB = appDB
	return appDB, nil
}

func (s *Storage) StateDB() db.DB {
	return s.stateDB
}

func (s *Storage) AppDB() db.DB {
	return s.appDB
}

// Close closes every opened database
func (s *Storage) Close() error {
	for _, d := range []db.DB{s.stateDB, s.appDB} {
		if d == nil {
			continue
		}
		if err := d.Close(); err != nil {
			return err
		}
	}

	return nil
}
