// Package native implements contract templates executed natively by the node.
// Every template publishes an Ethereum ABI, so deployment arguments, call data
// and results are encoded the same way as for EVM contracts.
package native

import (
	"sort"
	"sync"

	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var (
	ErrTemplateExists    = errors.New("contract template already registered")
	ErrExecutionReverted = errors.New("execution reverted")
	ErrWriteProtection   = errors.New("write protection")
	ErrUnknownMethod     = errors.New("unknown method")
)

// Template is a deployable contract blueprint
type Template interface {
	Name() string
	ABI() abi.ABI
	// Construct initializes storage of a new instance with unpacked constructor arguments
	Construct(env *Env, args []interface{}) error
	// Call executes method with unpacked arguments and returns values to be packed by method outputs
	Call(env *Env, method *abi.Method, args []interface{}) ([]interface{}, error)
}

// Storage is a key-value storage of a single contract instance
type Storage interface {
	GetState(key types.Hash) []byte
	SetState(key types.Hash, value []byte)
}

// Env is an execution environment of a contract instance
type Env struct {
	Address  types.Address
	Caller   types.Address
	Height   uint64
	ReadOnly bool

	storage Storage
}

func NewEnv(address, caller types.Address, height uint64, storage Storage, readOnly bool) *Env {
	return &Env{
		Address:  address,
		Caller:   caller,
		Height:   height,
		ReadOnly: readOnly,
		storage:  storage,
	}
}

func (env *Env) GetState(key types.Hash) []byte {
	return env.storage.GetState(key)
}

func (env *Env) SetState(key types.Hash, value []byte) error {
	if env.ReadOnly {
		return ErrWriteProtection
	}
	env.storage.SetState(key, value)
	return nil
}

// Slot returns storage key of a named contract variable
func Slot(name string) types.Hash {
	return types.Hash(crypto.Keccak256Hash([]byte(name)))
}

// Revert returns an error which aborts execution with a reason
func Revert(reason string) error {
	return errors.Wrap(ErrExecutionReverted, reason)
}

// Registry resolves contract templates by name
type Registry struct {
	templates map[string]Template
	lock      sync.RWMutex
}

func NewRegistry(templates ...Template) *Registry {
	registry := &Registry{templates: map[string]Template{}}
	for _, template := range templates {
		if err := registry.Register(template); err != nil {
			panic(err)
		}
	}

	return registry
}

// DefaultRegistry returns registry with all templates shipped with the node
func DefaultRegistry() *Registry {
	return NewRegistry(NewFakeContract())
}

func (r *Registry) Register(template Template) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.templates[template.Name()]; ok {
		return errors.Wrap(ErrTemplateExists, template.Name())
	}

	r.templates[template.Name()] = template
	return nil
}

func (r *Registry) Get(name string) (Template, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	template, ok := r.templates[name]
	return template, ok
}

// Names returns sorted names of registered templates
func (r *Registry) Names() []string {
	r.lock.RLock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	r.lock.RUnlock()

	sort.Strings(names)
	return names
}
