package transaction

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/state"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/pkg/errors"
	abcTypes "github.com/tendermint/tendermint/abci/types"
)

const (
	maxPayloadLength = 10000
	maxTxLength      = 16384 + maxPayloadLength
)

// Response represents standard response from tx delivery/check
type Response struct {
	Code uint32                    `json:"code,omitempty"`
	Data []byte                    `json:"data,omitempty"`
	Log  string                    `json:"log,omitempty"`
	Info string                    `json:"-"`
	Tags []abcTypes.EventAttribute `json:"tags,omitempty"`
}

type Executor struct {
	decodeTxFunc func(txType TxType) (Data, bool)
	registry     *native.Registry
	chainID      types.ChainID
}

func NewExecutor(decodeTxFunc func(txType TxType) (Data, bool), registry *native.Registry, chainID types.ChainID) *Executor {
	return &Executor{decodeTxFunc: decodeTxFunc, registry: registry, chainID: chainID}
}

// RunTx executes transaction in given context. Check context runs every validation without changing
// the state, currentMempool keeps the last checked nonce of every sender.
func (e *Executor) RunTx(context state.Interface, rawTx []byte, currentBlock uint64, currentMempool *sync.Map) Response {
	lenRawTx := len(rawTx)
	if lenRawTx > maxTxLength {
		return Response{
			Code: code.TxTooLarge,
			Log:  fmt.Sprintf("TX length is over %d bytes", maxTxLength),
			Info: EncodeError(code.NewTxTooLarge(fmt.Sprintf("%d", maxTxLength), fmt.Sprintf("%d", lenRawTx))),
		}
	}

	tx, err := e.DecodeFromBytes(rawTx)
	if err != nil {
		if errors.Is(err, ErrUnknownTxType) {
			return Response{
				Code: code.UnknownTxType,
				Log:  err.Error(),
				Info: EncodeError(code.NewUnknownTxType(err.Error())),
			}
		}
		return Response{
			Code: code.DecodeError,
			Log:  err.Error(),
			Info: EncodeError(code.NewDecodeError()),
		}
	}

	if tx.ChainID != e.chainID {
		return Response{
			Code: code.WrongChainID,
			Log:  "Wrong chain id",
			Info: EncodeError(code.NewWrongChainID(fmt.Sprintf("%d", e.chainID), fmt.Sprintf("%d", tx.ChainID))),
		}
	}

	lenPayload := len(tx.Payload)
	if lenPayload > maxPayloadLength {
		return Response{
			Code: code.TxPayloadTooLarge,
			Log:  fmt.Sprintf("TX payload length is over %d bytes", maxPayloadLength),
			Info: EncodeError(code.NewTxPayloadTooLarge(fmt.Sprintf("%d", maxPayloadLength), fmt.Sprintf("%d", lenPayload))),
		}
	}

	sender, err := tx.Sender()
	if err != nil {
		return Response{
			Code: code.DecodeError,
			Log:  err.Error(),
			Info: EncodeError(code.NewDecodeError()),
		}
	}

	var checkState *state.CheckState
	var isCheck bool
	if checkState, isCheck = context.(*state.CheckState); !isCheck {
		checkState = state.NewCheckState(context.(*state.State))
	}

	expectedNonce := checkState.Accounts().GetNonce(sender) + 1
	if isCheck && currentMempool != nil {
		if pending, ok := currentMempool.Load(sender); ok {
			expectedNonce = pending.(uint64) + 1
		}
	}
	if expectedNonce != tx.Nonce {
		return Response{
			Code: code.WrongNonce,
			Log:  fmt.Sprintf("Unexpected nonce. Expected: %d, got %d.", expectedNonce, tx.Nonce),
			Info: EncodeError(code.NewWrongNonce(fmt.Sprintf("%d", expectedNonce), fmt.Sprintf("%d", tx.Nonce))),
		}
	}

	response := tx.decodedData.Run(tx, context, e.registry, currentBlock)
	if response.Code != code.OK {
		return response
	}

	if isCheck {
		if currentMempool != nil {
			currentMempool.Store(sender, tx.Nonce)
		}
		response.Tags = nil
		return response
	}

	response.Tags = append(response.Tags,
		abcTypes.EventAttribute{Key: []byte("tx.from"), Value: []byte(hex.EncodeToString(sender[:])), Index: true},
		abcTypes.EventAttribute{Key: []byte("tx.type"), Value: []byte(hex.EncodeToString([]byte{byte(tx.decodedData.TxType())})), Index: true},
	)

	return response
}

// EncodeError encodes error to json
func EncodeError(data interface{}) string {
	marshaled, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return string(marshaled)
}
