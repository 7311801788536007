package native

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FakeContractName is the name FakeContract is registered with
const FakeContractName = "FakeContract"

// FakeContract stands in for the scalable reward token in tests. It only keeps
// its constructor values and exposes them through view methods.
type FakeContract struct {
	abi abi.ABI
}

const fakeContractABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[
		{"name":"name_","type":"string"},
		{"name":"symbol_","type":"string"},
		{"name":"tokensPerBlock_","type":"uint8"},
		{"name":"blockFreezeInterval_","type":"uint256"}
	]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"getTokensPerBlock","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getBlockFreezeInterval","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	slotName                = Slot("name")
	slotSymbol              = Slot("symbol")
	slotTokensPerBlock      = Slot("tokensPerBlock")
	slotBlockFreezeInterval = Slot("blockFreezeInterval")
)

func NewFakeContract() *FakeContract {
	parsed, err := abi.JSON(strings.NewReader(fakeContractABI))
	if err != nil {
		panic(err)
	}

	return &FakeContract{abi: parsed}
}

func (c *FakeContract) Name() string {
	return FakeContractName
}

func (c *FakeContract) ABI() abi.ABI {
	return c.abi
}

func (c *FakeContract) Construct(env *Env, args []interface{}) error {
	if len(args) != 4 {
		return Revert(fmt.Sprintf("expected 4 constructor arguments, got %d", len(args)))
	}

	name, ok := args[0].(string)
	if !ok {
		return Revert("name should be a string")
	}
	symbol, ok := args[1].(string)
	if !ok {
		return Revert("symbol should be a string")
	}
	tokensPerBlock, ok := args[2].(uint8)
	if !ok {
		return Revert("tokens per block should be uint8")
	}
	blockFreezeInterval, ok := args[3].(*big.Int)
	if !ok {
		return Revert("block freeze interval should be uint256")
	}

	if name == "" {
		return Revert("name is empty")
	}
	if symbol == "" {
		return Revert("symbol is empty")
	}

	values := []struct {
		slot  types.Hash
		value []byte
	}{
		{slotName, []byte(name)},
		{slotSymbol, []byte(symbol)},
		{slotTokensPerBlock, big.NewInt(int64(tokensPerBlock)).Bytes()},
		{slotBlockFreezeInterval, blockFreezeInterval.Bytes()},
	}
	for _, v := range values {
		if err := env.SetState(v.slot, v.value); err != nil {
			return err
		}
	}

	return nil
}

func (c *FakeContract) Call(env *Env, method *abi.Method, _ []interface{}) ([]interface{}, error) {
	switch method.Name {
	case "name":
		return []interface{}{string(env.GetState(slotName))}, nil
	case "symbol":
		return []interface{}{string(env.GetState(slotSymbol))}, nil
	case "getTokensPerBlock":
		return []interface{}{new(big.Int).SetBytes(env.GetState(slotTokensPerBlock))}, nil
	case "getBlockFreezeInterval":
		return []interface{}{new(big.Int).SetBytes(env.GetState(slotBlockFreezeInterval))}, nil
	}

	return nil, ErrUnknownMethod
}
