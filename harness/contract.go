package harness

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/minter"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// ContractFactory deploys instances of a single contract template
type ContractFactory struct {
	harness  *Harness
	template native.Template
}

func (f *ContractFactory) Name() string {
	return f.template.Name()
}

func (f *ContractFactory) ABI() abi.ABI {
	return f.template.ABI()
}

// Deploy encodes constructor arguments and submits the deployment. Integer arguments may be
// given as any Go integer, *big.Int or a decimal string. The returned contract is pending
// until Deployed confirms it.
func (f *ContractFactory) Deploy(ctx context.Context, args ...interface{}) (*Contract, error) {
	inputs := f.template.ABI().Constructor.Inputs

	values, err := native.NormalizeArguments(inputs, args)
	if err != nil {
		return nil, &DeploymentError{Contract: f.Name(), Code: code.InvalidArguments, Log: err.Error()}
	}

	packed, err := inputs.Pack(values...)
	if err != nil {
		return nil, &DeploymentError{Contract: f.Name(), Code: code.InvalidArguments, Log: err.Error()}
	}

	return f.DeployRaw(ctx, packed)
}

// DeployRaw submits the deployment with already ABI encoded constructor arguments
func (f *ContractFactory) DeployRaw(ctx context.Context, arguments []byte) (*Contract, error) {
	pending, nonce, err := f.harness.submit(ctx, &transaction.DeployContractData{
		Contract:  f.Name(),
		Arguments: arguments,
	})
	if err != nil {
		var txErr *TxError
		if errors.As(err, &txErr) {
			return nil, &DeploymentError{Contract: f.Name(), Code: txErr.Code, Log: txErr.Log}
		}
		return nil, err
	}

	return &Contract{
		factory: f,
		address: transaction.CreateContractAddress(f.harness.address, nonce),
		pending: pending,
	}, nil
}

// Contract is a handle of a deployed, or being deployed, contract instance
type Contract struct {
	factory *ContractFactory
	address types.Address
	pending *PendingTx

	lock     sync.RWMutex
	deployed bool
	receipt  *Receipt
}

func (c *Contract) Address() types.Address {
	return c.address
}

func (c *Contract) Name() string {
	return c.factory.Name()
}

func (c *Contract) ABI() abi.ABI {
	return c.factory.ABI()
}

// DeployTxHash returns hash of the deployment transaction
func (c *Contract) DeployTxHash() types.Hash {
	return c.pending.Hash()
}

// Receipt returns receipt of the deployment, nil until Deployed succeeds
func (c *Contract) Receipt() *Receipt {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.receipt
}

// Deployed waits until the deployment transaction is committed. It returns *DeploymentError
// when the transaction failed in its block. Without a ctx deadline the configured confirmation
// timeout applies.
func (c *Contract) Deployed(ctx context.Context) error {
	if timeout := c.factory.harness.confirmationTimeout; timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	receipt, err := c.pending.Wait(ctx)
	if err != nil {
		return err
	}

	if receipt.Code != code.OK {
		return &DeploymentError{
			Contract: c.Name(),
			TxHash:   receipt.TxHash,
			Code:     receipt.Code,
			Log:      receipt.Log,
		}
	}

	c.lock.Lock()
	c.deployed = true
	c.receipt = receipt
	c.lock.Unlock()

	return nil
}

func (c *Contract) isDeployed() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.deployed
}

// Call runs a view method against the last committed state and returns its unpacked outputs
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.isDeployed() {
		return nil, ErrNotDeployed
	}

	contractABI := c.factory.ABI()
	m, ok := contractABI.Methods[method]
	if !ok {
		return nil, errors.Wrapf(ErrMethodNotFound, "%s.%s", c.Name(), method)
	}

	values, err := native.NormalizeArguments(m.Inputs, args)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", c.Name(), method)
	}

	input, err := contractABI.Pack(method, values...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", c.Name(), method)
	}

	data, err := rlp.EncodeToBytes(minter.CallRequest{Address: c.address, Input: input})
	if err != nil {
		return nil, err
	}

	res, err := c.factory.harness.network.Query(minter.QueryContractCall, data, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s.%s", c.Name(), method)
	}
	if res.Code != code.OK {
		return nil, &CallError{Contract: c.Name(), Method: method, Code: res.Code, Log: res.Log}
	}

	return contractABI.Unpack(method, res.Value)
}

// Expect calls a single output getter and compares its result with expected.
// Integers are compared by value whatever Go type expected has.
func (c *Contract) Expect(ctx context.Context, method string, expected interface{}) error {
	results, err := c.Call(ctx, method)
	if err != nil {
		return err
	}
	if len(results) != 1 {
		return fmt.Errorf("%s() returned %d values, expected a single one", method, len(results))
	}

	if !valuesEqual(expected, results[0]) {
		return &ExpectationError{Method: method, Expected: expected, Actual: results[0]}
	}

	return nil
}

func valuesEqual(expected, actual interface{}) bool {
	if a, ok := native.ToBig(actual); ok {
		if e, ok := native.ToBig(expected); ok {
			return a.Cmp(e) == 0
		}
		if s, ok := expected.(string); ok {
			e, ok := new(big.Int).SetString(s, 0)
			return ok && a.Cmp(e) == 0
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}
