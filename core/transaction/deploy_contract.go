package transaction

import (
	"fmt"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/state"
	abcTypes "github.com/tendermint/tendermint/abci/types"
)

// DeployContractData creates an instance of a registered contract template.
// Arguments are the ABI-encoded constructor arguments.
type DeployContractData struct {
	Contract  string
	Arguments []byte
}

func (data DeployContractData) TxType() TxType {
	return TypeDeployContract
}

func (data DeployContractData) String() string {
	return fmt.Sprintf("DEPLOY CONTRACT contract:%s arguments:%x", data.Contract, data.Arguments)
}

func (data DeployContractData) Run(tx *Transaction, context state.Interface, registry *native.Registry, currentBlock uint64) Response {
	sender, _ := tx.Sender()

	var checkState *state.CheckState
	var isCheck bool
	if checkState, isCheck = context.(*state.CheckState); !isCheck {
		checkState = state.NewCheckState(context.(*state.State))
	}

	template, ok := registry.Get(data.Contract)
	if !ok {
		return Response{
			Code: code.ContractNotFound,
			Log:  fmt.Sprintf("Contract %q not found", data.Contract),
			Info: EncodeError(code.NewContractNotFound(data.Contract)),
		}
	}

	args, err := template.ABI().Constructor.Inputs.Unpack(data.Arguments)
	if err != nil {
		return Response{
			Code: code.InvalidArguments,
			Log:  fmt.Sprintf("Invalid constructor arguments: %s", err),
			Info: EncodeError(code.NewInvalidArguments(data.Contract, "constructor", err.Error())),
		}
	}

	address := CreateContractAddress(sender, tx.Nonce)
	if checkState.Contracts().Exists(address) {
		return Response{
			Code: code.ContractAlreadyExists,
			Log:  fmt.Sprintf("Contract %s already exists", address.String()),
			Info: EncodeError(code.NewContractAlreadyExists(address.String())),
		}
	}

	storage := native.NewBufferedStorage(checkState.Contracts().Storage(address))
	env := native.NewEnv(address, sender, currentBlock, storage, false)
	if err := template.Construct(env, args); err != nil {
		return Response{
			Code: code.ContractDeployFailed,
			Log:  fmt.Sprintf("Contract %s deployment failed: %s", data.Contract, err),
			Info: EncodeError(code.NewContractDeployFailed(data.Contract, err.Error())),
		}
	}

	var tags []abcTypes.EventAttribute
	if deliverState, ok := context.(*state.State); ok {
		deliverState.Contracts.Create(address, data.Contract, sender, currentBlock, tx.TxHash())
		storage.Flush()
		deliverState.App.IncrementContractsCount()
		deliverState.Accounts.SetNonce(sender, tx.Nonce)

		tags = []abcTypes.EventAttribute{
			{Key: []byte("tx.contract"), Value: []byte(data.Contract), Index: true},
			{Key: []byte("tx.contract_address"), Value: []byte(address.String()), Index: true},
		}
	}

	return Response{
		Code: code.OK,
		Data: address.Bytes(),
		Tags: tags,
	}
}
