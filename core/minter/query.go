package minter

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/state"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	abciTypes "github.com/tendermint/tendermint/abci/types"
)

// Query paths served by the application
const (
	QueryContractCall  = "/contract/call"
	QueryContractInfo  = "/contract/info"
	QueryAccountNonce  = "/account/nonce"
	QueryContractState = "/contract/state"
)

// CallRequest is the RLP encoded data of QueryContractCall, Input is selector followed by ABI encoded arguments
type CallRequest struct {
	Address types.Address
	Input   []byte
}

// StateRequest is the RLP encoded data of QueryContractState
type StateRequest struct {
	Address types.Address
	Key     types.Hash
}

func (blockchain *Blockchain) Query(req abciTypes.RequestQuery) abciTypes.ResponseQuery {
	lastHeight := blockchain.LastCommittedHeight()
	if req.Height < 0 || uint64(req.Height) > lastHeight {
		return abciTypes.ResponseQuery{
			Code:   code.WrongHeight,
			Log:    fmt.Sprintf("Height %d is not committed yet, last height is %d", req.Height, lastHeight),
			Height: req.Height,
		}
	}

	height := uint64(req.Height)
	if height == 0 {
		height = lastHeight
	}

	cState, err := blockchain.CheckStateAtHeight(height)
	if err != nil {
		return abciTypes.ResponseQuery{
			Code:   code.WrongHeight,
			Log:    err.Error(),
			Height: int64(height),
		}
	}

	var resp abciTypes.ResponseQuery
	switch req.Path {
	case QueryContractCall:
		resp = blockchain.queryContractCall(cState, req.Data, height)
	case QueryContractInfo:
		resp = queryContractInfo(cState, req.Data)
	case QueryContractState:
		resp = queryContractState(cState, req.Data)
	case QueryAccountNonce:
		resp = queryAccountNonce(cState, req.Data)
	default:
		resp = abciTypes.ResponseQuery{
			Code: code.UnknownQueryPath,
			Log:  fmt.Sprintf("Unknown query path %q", req.Path),
		}
	}

	resp.Height = int64(height)
	return resp
}

func (blockchain *Blockchain) queryContractCall(cState *state.CheckState, data []byte, height uint64) abciTypes.ResponseQuery {
	var req CallRequest
	if err := rlp.DecodeBytes(data, &req); err != nil {
		return abciTypes.ResponseQuery{
			Code: code.DecodeError,
			Log:  err.Error(),
			Info: transaction.EncodeError(code.NewDecodeError()),
		}
	}

	contract := cState.Contracts().GetContract(req.Address)
	if contract == nil {
		return abciTypes.ResponseQuery{
			Code: code.ContractNotExists,
			Log:  fmt.Sprintf("Contract %s does not exist", req.Address.String()),
			Info: transaction.EncodeError(code.NewContractNotExists(req.Address.String())),
		}
	}

	template, ok := blockchain.registry.Get(contract.Template)
	if !ok {
		return abciTypes.ResponseQuery{
			Code: code.ContractNotFound,
			Log:  fmt.Sprintf("Contract %q not found", contract.Template),
			Info: transaction.EncodeError(code.NewContractNotFound(contract.Template)),
		}
	}

	abi := template.ABI()
	if len(req.Input) < 4 {
		return abciTypes.ResponseQuery{
			Code: code.MethodNotFound,
			Log:  "Input is shorter than a method selector",
			Info: transaction.EncodeError(code.NewMethodNotFound(contract.Template, hex.EncodeToString(req.Input))),
		}
	}

	method, err := abi.MethodById(req.Input[:4])
	if err != nil {
		return abciTypes.ResponseQuery{
			Code: code.MethodNotFound,
			Log:  err.Error(),
			Info: transaction.EncodeError(code.NewMethodNotFound(contract.Template, hex.EncodeToString(req.Input[:4]))),
		}
	}

	if !method.IsConstant() {
		return abciTypes.ResponseQuery{
			Code: code.MethodNotView,
			Log:  fmt.Sprintf("Method %s is not a view", method.Name),
			Info: transaction.EncodeError(code.NewMethodNotView(contract.Template, method.Name)),
		}
	}

	args, err := method.Inputs.Unpack(req.Input[4:])
	if err != nil {
		return abciTypes.ResponseQuery{
			Code: code.InvalidArguments,
			Log:  err.Error(),
			Info: transaction.EncodeError(code.NewInvalidArguments(contract.Template, method.Name, err.Error())),
		}
	}

	env := native.NewEnv(req.Address, types.Address{}, height, cState.Contracts().Storage(req.Address), true)
	results, err := template.Call(env, method, args)
	if err != nil {
		return abciTypes.ResponseQuery{
			Code: code.ExecutionReverted,
			Log:  err.Error(),
			Info: transaction.EncodeError(code.NewExecutionReverted(contract.Template, method.Name, err.Error())),
		}
	}

	value, err := method.Outputs.Pack(results...)
	if err != nil {
		return abciTypes.ResponseQuery{
			Code: code.ExecutionReverted,
			Log:  errors.Wrap(err, "pack results").Error(),
			Info: transaction.EncodeError(code.NewExecutionReverted(contract.Template, method.Name, err.Error())),
		}
	}

	return abciTypes.ResponseQuery{
		Code:  code.OK,
		Key:   req.Address.Bytes(),
		Value: value,
	}
}

func queryContractInfo(cState *state.CheckState, data []byte) abciTypes.ResponseQuery {
	address := types.BytesToAddress(data)
	contract := cState.Contracts().GetContract(address)
	if len(data) != types.AddressLength || contract == nil {
		return abciTypes.ResponseQuery{
			Code: code.ContractNotExists,
			Log:  fmt.Sprintf("Contract %s does not exist", address.String()),
			Info: transaction.EncodeError(code.NewContractNotExists(address.String())),
		}
	}

	value, err := json.Marshal(types.Contract{
		Address:  address,
		Template: contract.Template,
		Creator:  contract.Creator,
		Height:   contract.Height,
		TxHash:   contract.TxHash,
	})
	if err != nil {
		panic(err)
	}

	return abciTypes.ResponseQuery{
		Code:  code.OK,
		Key:   address.Bytes(),
		Value: value,
	}
}

func queryContractState(cState *state.CheckState, data []byte) abciTypes.ResponseQuery {
	var req StateRequest
	if err := rlp.DecodeBytes(data, &req); err != nil {
		return abciTypes.ResponseQuery{
			Code: code.DecodeError,
			Log:  err.Error(),
			Info: transaction.EncodeError(code.NewDecodeError()),
		}
	}

	if !cState.Contracts().Exists(req.Address) {
		return abciTypes.ResponseQuery{
			Code: code.ContractNotExists,
			Log:  fmt.Sprintf("Contract %s does not exist", req.Address.String()),
			Info: transaction.EncodeError(code.NewContractNotExists(req.Address.String())),
		}
	}

	return abciTypes.ResponseQuery{
		Code:  code.OK,
		Key:   req.Key.Bytes(),
		Value: cState.Contracts().GetState(req.Address, req.Key),
	}
}

func queryAccountNonce(cState *state.CheckState, data []byte) abciTypes.ResponseQuery {
	if len(data) != types.AddressLength {
		return abciTypes.ResponseQuery{
			Code: code.DecodeError,
			Log:  fmt.Sprintf("Address should be %d bytes, got %d", types.AddressLength, len(data)),
			Info: transaction.EncodeError(code.NewDecodeError()),
		}
	}

	address := types.BytesToAddress(data)
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, cState.Accounts().GetNonce(address))

	return abciTypes.ResponseQuery{
		Code:  code.OK,
		Key:   address.Bytes(),
		Value: value,
	}
}
