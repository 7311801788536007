package state

import (
	"testing"

	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	db "github.com/tendermint/tm-db"
)

func TestStateExport(t *testing.T) {
	t.Parallel()

	state, err := NewState(0, db.NewMemDB(), 1000, 2, 1)
	require.NoError(t, err)

	creator := types.HexToAddress("Mx00000000000000000000000000000000000000c1")
	contractAddress := types.HexToAddress("Mx00000000000000000000000000000000000000aa")

	genesis := types.AppState{
		Accounts: []types.Account{
			{Address: creator, Nonce: 3},
			{Address: types.HexToAddress("Mx00000000000000000000000000000000000000c2"), Nonce: 1},
		},
		Contracts: []types.Contract{{
			Address:  contractAddress,
			Template: "FakeContract",
			Creator:  creator,
			Height:   7,
			TxHash:   types.HexToHash("Mt01"),
			Storage: []types.StorageSlot{
				{Key: types.HexToHash("Mt02"), Value: []byte{2}},
				{Key: types.HexToHash("Mt01"), Value: []byte{1}},
			},
		}},
	}
	require.NoError(t, state.Import(genesis))

	_, err = state.Commit()
	require.NoError(t, err)

	exported, err := state.Export()
	require.NoError(t, err)

	require.Len(t, exported.Accounts, 2)
	assert.Equal(t, creator, exported.Accounts[0].Address)
	assert.Equal(t, uint64(3), exported.Accounts[0].Nonce)

	require.Len(t, exported.Contracts, 1)
	contract := exported.Contracts[0]
	assert.Equal(t, contractAddress, contract.Address)
	assert.Equal(t, "FakeContract", contract.Template)
	assert.Equal(t, creator, contract.Creator)
	assert.Equal(t, uint64(7), contract.Height)

	// storage is exported in key order
	require.Len(t, contract.Storage, 2)
	assert.Equal(t, types.HexToHash("Mt01"), contract.Storage[0].Key)
	assert.Equal(t, types.HexBytes{1}, contract.Storage[0].Value)

	assert.Equal(t, uint64(1), state.App.GetContractsCount())
	assert.NoError(t, exported.Verify())
}

func TestStateImportDuplicates(t *testing.T) {
	t.Parallel()

	state, err := NewState(0, db.NewMemDB(), 1000, 2, 1)
	require.NoError(t, err)

	address := types.HexToAddress("Mx00000000000000000000000000000000000000c1")
	err = state.Import(types.AppState{Accounts: []types.Account{{Address: address}, {Address: address}}})
	assert.Error(t, err)

	err = state.Import(types.AppState{Contracts: []types.Contract{{Address: address}}})
	assert.Error(t, err)
}

func TestStateHistory(t *testing.T) {
	t.Parallel()

	state, err := NewState(0, db.NewMemDB(), 1000, 2, 1)
	require.NoError(t, err)

	address := types.HexToAddress("Mx00000000000000000000000000000000000000c1")

	empty, err := state.CheckStateAtHeight(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), empty.Accounts().GetNonce(address))

	for nonce := uint64(1); nonce <= 5; nonce++ {
		state.Accounts.SetNonce(address, nonce)
		_, err := state.Commit()
		require.NoError(t, err)
	}
	assert.Equal(t, int64(5), state.Height())

	last, err := state.CheckStateAtHeight(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), last.Accounts().GetNonce(address))
	assert.Equal(t, int64(5), last.Height())

	previous, err := state.CheckStateAtHeight(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), previous.Accounts().GetNonce(address))

	// keepLastStates is 2, older versions are pruned
	_, err = state.CheckStateAtHeight(2)
	assert.Error(t, err)
	assert.Equal(t, []int{3, 4, 5}, state.Tree().AvailableVersions())
}

func TestStateReload(t *testing.T) {
	t.Parallel()

	memDB := db.NewMemDB()
	state, err := NewState(0, memDB, 1000, 0, 1)
	require.NoError(t, err)

	contractAddress := types.HexToAddress("Mx00000000000000000000000000000000000000aa")
	state.Contracts.Create(contractAddress, "FakeContract", types.Address{}, 1, types.Hash{})
	state.Contracts.SetState(contractAddress, types.HexToHash("Mt01"), []byte("value"))
	hash, err := state.Commit()
	require.NoError(t, err)

	// an empty value removes the slot
	state.Contracts.SetState(contractAddress, types.HexToHash("Mt01"), nil)
	_, err = state.Commit()
	require.NoError(t, err)
	assert.Nil(t, state.Contracts.GetState(contractAddress, types.HexToHash("Mt01")))

	// loading version 1 drops version 2
	reloaded, err := NewState(1, memDB, 1000, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, hash, reloaded.Tree().Hash())
	assert.True(t, reloaded.Contracts.Exists(contractAddress))
	assert.Equal(t, []byte("value"), reloaded.Contracts.GetState(contractAddress, types.HexToHash("Mt01")))
}
