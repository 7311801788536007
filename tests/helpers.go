package tests

import (
	"crypto/ecdsa"
	"time"

	"github.com/MinterTeam/minter-harness/cmd/utils"
	"github.com/MinterTeam/minter-harness/config"
	"github.com/MinterTeam/minter-harness/core/minter"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	tmTypes "github.com/tendermint/tendermint/abci/types"
	tmjson "github.com/tendermint/tendermint/libs/json"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
)

// CreateApp creates and returns new Blockchain instance over in-memory storage with state imported
func CreateApp(state types.AppState) *minter.Blockchain {
	return CreateAppWithStorage(utils.NewStorage("", "memdb", ""), state)
}

// CreateAppWithStorage is CreateApp over given storage
func CreateAppWithStorage(storage *utils.Storage, state types.AppState) *minter.Blockchain {
	jsonState, err := tmjson.Marshal(state)
	if err != nil {
		panic(err)
	}

	app, err := minter.NewMinterBlockchain(storage, config.DefaultConfig(), nil, nil, nil)
	if err != nil {
		panic(err)
	}

	app.InitChain(tmTypes.RequestInitChain{
		Time:          time.Now(),
		ChainId:       "test",
		InitialHeight: 1,
		AppStateBytes: jsonState,
	})

	return app
}

// SendCommit sends Commit message to given Blockchain instance
func SendCommit(app *minter.Blockchain) tmTypes.ResponseCommit {
	return app.Commit()
}

// SendBeginBlock sends BeginBlock message to given Blockchain instance
func SendBeginBlock(app *minter.Blockchain, height int64) tmTypes.ResponseBeginBlock {
	return app.BeginBlock(tmTypes.RequestBeginBlock{
		Header: tmproto.Header{
			ChainID: "test",
			Height:  height,
			Time:    time.Now(),
		},
	})
}

// SendEndBlock sends EndBlock message to given Blockchain instance
func SendEndBlock(app *minter.Blockchain, height int64) tmTypes.ResponseEndBlock {
	return app.EndBlock(tmTypes.RequestEndBlock{
		Height: height,
	})
}

// CreateTx composes and returns Tx with next nonce of the given address
func CreateTx(app *minter.Blockchain, address types.Address, txType transaction.TxType, data interface{}) transaction.Transaction {
	nonce := app.CurrentState().Accounts().GetNonce(address) + 1
	bData, err := rlp.EncodeToBytes(data)
	if err != nil {
		panic(err)
	}

	tx := transaction.Transaction{
		Nonce:         nonce,
		ChainID:       types.ChainTestnet,
		Type:          txType,
		Data:          bData,
		SignatureType: transaction.SigTypeSingle,
	}

	return tx
}

// SendTx sends DeliverTx message to given Blockchain instance
func SendTx(app *minter.Blockchain, bytes []byte) tmTypes.ResponseDeliverTx {
	return app.DeliverTx(tmTypes.RequestDeliverTx{
		Tx: bytes,
	})
}

// CheckTx sends CheckTx message to given Blockchain instance
func CheckTx(app *minter.Blockchain, bytes []byte) tmTypes.ResponseCheckTx {
	return app.CheckTx(tmTypes.RequestCheckTx{
		Tx: bytes,
	})
}

// SignTx returns bytes of signed Tx
func SignTx(pk *ecdsa.PrivateKey, tx transaction.Transaction) []byte {
	err := tx.Sign(pk)
	if err != nil {
		panic(err)
	}

	b, err := tx.Serialize()
	if err != nil {
		panic(err)
	}

	return b
}

// CreateAddress returns random address and corresponding private key
func CreateAddress() (types.Address, *ecdsa.PrivateKey) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}

	return types.FromCommon(crypto.PubkeyToAddress(pk.PublicKey)), pk
}

// DefaultAppState returns new AppState with no accounts and contracts
func DefaultAppState() types.AppState {
	return types.AppState{
		Note: "test",
	}
}
