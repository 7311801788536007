package transaction

import (
	"math/big"
	"sync"
	"testing"

	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/state"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	db "github.com/tendermint/tm-db"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func getState(t *testing.T) *state.State {
	t.Helper()

	s, err := state.NewState(0, db.NewMemDB(), 1000, 1, 1)
	require.NoError(t, err)
	return s
}

func deployTx(t *testing.T, nonce uint64, name string) []byte {
	t.Helper()

	args, err := native.NewFakeContract().ABI().Constructor.Inputs.Pack(name, "TC", uint8(8), big.NewInt(50))
	require.NoError(t, err)

	data, err := rlp.EncodeToBytes(DeployContractData{Contract: native.FakeContractName, Arguments: args})
	require.NoError(t, err)

	tx := &Transaction{
		Nonce:         nonce,
		ChainID:       types.ChainTestnet,
		Type:          TypeDeployContract,
		Data:          data,
		SignatureType: SigTypeSingle,
	}

	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key))

	raw, err := tx.Serialize()
	require.NoError(t, err)
	return raw
}

func newExecutor() *Executor {
	return NewExecutor(GetData, native.DefaultRegistry(), types.ChainTestnet)
}

func TestDecodeSignedTx(t *testing.T) {
	t.Parallel()

	raw := deployTx(t, 1, "Test COIN")

	tx, err := newExecutor().DecodeFromBytes(raw)
	require.NoError(t, err)

	sender, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266"), sender)
	assert.Equal(t, RawTxHash(raw), tx.TxHash())
	assert.Equal(t, uint64(1), tx.Nonce)

	data, ok := tx.GetDecodedData().(*DeployContractData)
	require.True(t, ok)
	assert.Equal(t, native.FakeContractName, data.Contract)
	assert.Contains(t, tx.String(), "DEPLOY CONTRACT contract:FakeContract")

	// signature covers the data
	tampered := *tx
	tampered.sender = nil
	tampered.Nonce = 2
	tamperedSender, err := tampered.Sender()
	if err == nil {
		assert.NotEqual(t, sender, tamperedSender)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	t.Parallel()

	raw, err := rlp.EncodeToBytes(&Transaction{
		Nonce:         1,
		ChainID:       types.ChainTestnet,
		Type:          TxType(0x42),
		Data:          []byte{0xc0},
		SignatureType: SigTypeSingle,
	})
	require.NoError(t, err)

	_, err = newExecutor().DecodeFromBytes(raw)
	assert.True(t, errors.Is(err, ErrUnknownTxType))
}

func TestCreateContractAddress(t *testing.T) {
	t.Parallel()

	deployer := types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

	assert.Equal(t, types.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3"), CreateContractAddress(deployer, 0))
	assert.Equal(t, types.HexToAddress("0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"), CreateContractAddress(deployer, 1))
	assert.NotEqual(t, CreateContractAddress(deployer, 1), CreateContractAddress(deployer, 2))
}

func TestRunTxCheckAndDeliver(t *testing.T) {
	t.Parallel()

	s := getState(t)
	executor := newExecutor()
	mempool := &sync.Map{}
	checkState := state.NewCheckState(s)

	raw := deployTx(t, 1, "Test COIN")

	response := executor.RunTx(checkState, raw, 1, mempool)
	require.Equal(t, code.OK, response.Code, response.Log)
	assert.Empty(t, response.Tags)

	// check keeps nothing but the mempool nonce
	contractAddress := CreateContractAddress(types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266"), 1)
	assert.False(t, checkState.Contracts().Exists(contractAddress))
	pending, ok := mempool.Load(types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))
	require.True(t, ok)
	assert.Equal(t, uint64(1), pending)

	response = executor.RunTx(checkState, raw, 1, mempool)
	assert.Equal(t, code.WrongNonce, response.Code)

	response = executor.RunTx(s, raw, 1, nil)
	require.Equal(t, code.OK, response.Code, response.Log)
	assert.Equal(t, contractAddress.Bytes(), response.Data)

	tags := map[string]string{}
	for _, tag := range response.Tags {
		tags[string(tag.Key)] = string(tag.Value)
	}
	assert.Equal(t, native.FakeContractName, tags["tx.contract"])
	assert.Equal(t, contractAddress.String(), tags["tx.contract_address"])
	assert.Equal(t, "01", tags["tx.type"])

	_, err := s.Commit()
	require.NoError(t, err)

	contract := s.Contracts.GetContract(contractAddress)
	require.NotNil(t, contract)
	assert.Equal(t, native.FakeContractName, contract.Template)
	assert.Equal(t, uint64(1), contract.Height)
	assert.Equal(t, RawTxHash(raw), contract.TxHash)
	assert.Equal(t, []byte("Test COIN"), s.Contracts.GetState(contractAddress, native.Slot("name")))
	assert.Equal(t, uint64(1), s.Accounts.GetNonce(types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266")))
	assert.Equal(t, uint64(1), s.App.GetContractsCount())
}

func TestRunTxFailedDeliverKeepsState(t *testing.T) {
	t.Parallel()

	s := getState(t)
	executor := newExecutor()

	response := executor.RunTx(s, deployTx(t, 1, ""), 1, nil)
	assert.Equal(t, code.ContractDeployFailed, response.Code)
	assert.NotEmpty(t, response.Info)

	_, err := s.Commit()
	require.NoError(t, err)

	assert.Equal(t, uint64(0), s.Accounts.GetNonce(types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266")))
	assert.Equal(t, uint64(0), s.App.GetContractsCount())
}

func TestRunTxLimits(t *testing.T) {
	t.Parallel()

	s := getState(t)

	response := newExecutor().RunTx(s, make([]byte, maxTxLength+1), 1, nil)
	assert.Equal(t, code.TxTooLarge, response.Code)

	mainnet := NewExecutor(GetData, native.DefaultRegistry(), types.ChainMainnet)
	response = mainnet.RunTx(s, deployTx(t, 1, "Test COIN"), 1, nil)
	assert.Equal(t, code.WrongChainID, response.Code)
}
