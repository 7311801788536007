package harness

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/MinterTeam/minter-harness/config"
	"github.com/MinterTeam/minter-harness/core/code"
	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/transaction"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHarness(t *testing.T, blockInterval time.Duration, options ...Option) *Harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.SetRoot(t.TempDir())
	cfg.Network.BlockInterval = blockInterval

	h, err := New(cfg, options...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, h.Close())
	})

	return h
}

func deployFake(t *testing.T, h *Harness, args ...interface{}) *Contract {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	factory, err := h.GetContractFactory(native.FakeContractName)
	require.NoError(t, err)

	contract, err := factory.Deploy(ctx, args...)
	require.NoError(t, err)
	require.NoError(t, contract.Deployed(ctx))

	return contract
}

func TestDeployFakeContract(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 0)
	ctx := context.Background()

	factory, err := h.GetContractFactory("FakeContract")
	require.NoError(t, err)

	contract, err := factory.Deploy(ctx, "Test COIN", "TC", 8, 50)
	require.NoError(t, err)
	require.NoError(t, contract.Deployed(ctx))

	require.NoError(t, contract.Expect(ctx, "getTokensPerBlock", 8))
	require.NoError(t, contract.Expect(ctx, "getBlockFreezeInterval", 50))

	require.NoError(t, contract.Expect(ctx, "name", "Test COIN"))
	require.NoError(t, contract.Expect(ctx, "symbol", "TC"))

	receipt := contract.Receipt()
	require.NotNil(t, receipt)
	assert.Equal(t, code.OK, receipt.Code)
	assert.Equal(t, uint64(2), receipt.Height)
	assert.Equal(t, contract.Address().Bytes(), receipt.Data)
	assert.Equal(t, transaction.CreateContractAddress(h.Deployer(), 1), contract.Address())
	assert.Equal(t, uint64(1), h.Network().PendingNonce(h.Deployer()))
}

func TestDeployIsDeterministic(t *testing.T) {
	t.Parallel()

	type outcome struct {
		address             types.Address
		txHash              types.Hash
		appHash             []byte
		tokensPerBlock      *big.Int
		blockFreezeInterval *big.Int
	}

	run := func() outcome {
		h := newTestHarness(t, 0)
		contract := deployFake(t, h, "Test COIN", "TC", 8, 50)

		ctx := context.Background()
		tokensPerBlock, err := contract.Call(ctx, "getTokensPerBlock")
		require.NoError(t, err)
		blockFreezeInterval, err := contract.Call(ctx, "getBlockFreezeInterval")
		require.NoError(t, err)

		info, err := h.Network().Info()
		require.NoError(t, err)

		return outcome{
			address:             contract.Address(),
			txHash:              contract.DeployTxHash(),
			appHash:             info.LastBlockAppHash,
			tokensPerBlock:      tokensPerBlock[0].(*big.Int),
			blockFreezeInterval: blockFreezeInterval[0].(*big.Int),
		}
	}

	first, second := run(), run()

	assert.Equal(t, first.address, second.address)
	assert.Equal(t, first.txHash, second.txHash)
	assert.Equal(t, first.appHash, second.appHash)
	assert.Equal(t, 0, first.tokensPerBlock.Cmp(second.tokensPerBlock))
	assert.Equal(t, 0, first.blockFreezeInterval.Cmp(second.blockFreezeInterval))
	assert.Equal(t, "8", first.tokensPerBlock.String())
	assert.Equal(t, "50", first.blockFreezeInterval.String())
}

func TestDeployBoundaries(t *testing.T) {
	t.Parallel()

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	tests := []struct {
		name                string
		tokensPerBlock      interface{}
		blockFreezeInterval interface{}
		expectedTokens      string
		expectedInterval    string
	}{
		{"zero", 0, 0, "0", "0"},
		{"max tokens per block", 255, 0, "255", "0"},
		{"zero tokens", 0, 255, "0", "255"},
		{"both 255", uint8(255), uint64(255), "255", "255"},
		{"max interval", 1, maxUint256, "1", maxUint256.String()},
		{"decimal strings", "7", "1000000", "7", "1000000"},
	}

	h := newTestHarness(t, 0)
	ctx := context.Background()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			contract := deployFake(t, h, "Test COIN", "TC", tt.tokensPerBlock, tt.blockFreezeInterval)

			require.NoError(t, contract.Expect(ctx, "getTokensPerBlock", tt.expectedTokens))
			require.NoError(t, contract.Expect(ctx, "getBlockFreezeInterval", tt.expectedInterval))
		})
	}
}

func TestUnknownContractSubmitsNothing(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 0)
	heightBefore := h.Network().Height()

	factory, err := h.GetContractFactory("NoSuchContract")
	require.Error(t, err)
	assert.Nil(t, factory)
	assert.True(t, errors.Is(err, ErrContractNotFound))
	assert.Contains(t, err.Error(), `"NoSuchContract"`)

	assert.Equal(t, heightBefore, h.Network().Height())
	assert.Equal(t, uint64(0), h.Network().PendingNonce(h.Deployer()))

	_, err = h.At("NoSuchContract", types.Address{1})
	assert.True(t, errors.Is(err, ErrContractNotFound))
}

func TestDeployInvalidArguments(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 0)
	ctx := context.Background()

	factory, err := h.GetContractFactory(native.FakeContractName)
	require.NoError(t, err)

	tests := []struct {
		name string
		args []interface{}
	}{
		{"tokens per block overflow", []interface{}{"Test COIN", "TC", 256, 50}},
		{"negative interval", []interface{}{"Test COIN", "TC", 8, -1}},
		{"missing argument", []interface{}{"Test COIN", "TC", 8}},
		{"not a number", []interface{}{"Test COIN", "TC", "eight", 50}},
		{"wrong type", []interface{}{"Test COIN", "TC", 8.5, 50}},
	}

	for _, tt := range tests {
		_, err := factory.Deploy(ctx, tt.args...)

		var deployErr *DeploymentError
		require.True(t, errors.As(err, &deployErr), tt.name)
		assert.Equal(t, code.InvalidArguments, deployErr.Code, tt.name)
		assert.Equal(t, native.FakeContractName, deployErr.Contract, tt.name)
	}

	assert.Equal(t, uint64(1), h.Network().Height())
	assert.Equal(t, uint64(0), h.Network().PendingNonce(h.Deployer()))
}

func TestDeployRevertedConstructor(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 0)

	factory, err := h.GetContractFactory(native.FakeContractName)
	require.NoError(t, err)

	_, err = factory.Deploy(context.Background(), "", "TC", 8, 50)

	var deployErr *DeploymentError
	require.True(t, errors.As(err, &deployErr))
	assert.Equal(t, code.ContractDeployFailed, deployErr.Code)
	assert.Contains(t, deployErr.Log, "name is empty")

	// rejected by the mempool check, the nonce is free for the next deployment
	contract := deployFake(t, h, "Test COIN", "TC", 8, 50)
	assert.Equal(t, transaction.CreateContractAddress(h.Deployer(), 1), contract.Address())
}

func TestExpectMismatch(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, 0)
	contract := deployFake(t, h, "Test COIN", "TC", 8, 50)
	ctx := context.Background()

	err := contract.Expect(ctx, "getTokensPerBlock", 9)

	var expectErr *ExpectationError
	require.True(t, errors.As(err, &expectErr))
	assert.Equal(t, "getTokensPerBlock", expectErr.Method)
	assert.Equal(t, "getTokensPerBlock() returned 8, expected 9", err.Error())

	err = contract.Expect(ctx, "getBlockFreezeInterval", "fifty")
	assert.True(t, errors.As(err, &expectErr))

	err = contract.Expect(ctx, "getSomethingElse", 1)
	assert.True(t, errors.Is(err, ErrMethodNotFound))
}

func TestIntervalMiningAndCancellation(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, time.Hour)

	factory, err := h.GetContractFactory(native.FakeContractName)
	require.NoError(t, err)

	contract, err := factory.Deploy(context.Background(), "Test COIN", "TC", 8, 50)
	require.NoError(t, err)

	_, err = contract.Call(context.Background(), "getTokensPerBlock")
	assert.True(t, errors.Is(err, ErrNotDeployed))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	err = contract.Deployed(ctx)
	cancel()
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// a canceled wait leaves the transaction in the mempool
	assert.Equal(t, uint64(1), h.Network().Height())
	assert.Equal(t, uint64(1), h.Network().PendingNonce(h.Deployer()))

	require.NoError(t, h.Network().Mine(context.Background()))
	require.NoError(t, contract.Deployed(context.Background()))
	assert.Equal(t, uint64(2), contract.Receipt().Height)
	require.NoError(t, contract.Expect(context.Background(), "getTokensPerBlock", 8))
}

func TestSequentialDeployments(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, time.Hour)
	ctx := context.Background()

	factory, err := h.GetContractFactory(native.FakeContractName)
	require.NoError(t, err)

	var contracts []*Contract
	for i := 0; i < 3; i++ {
		contract, err := factory.Deploy(ctx, "Test COIN", "TC", i, 50)
		require.NoError(t, err)
		contracts = append(contracts, contract)
	}

	require.NoError(t, h.Network().Mine(ctx))

	for i, contract := range contracts {
		require.NoError(t, contract.Deployed(ctx))
		assert.Equal(t, transaction.CreateContractAddress(h.Deployer(), uint64(i+1)), contract.Address())
		assert.Equal(t, uint64(2), contract.Receipt().Height)
		require.NoError(t, contract.Expect(ctx, "getTokensPerBlock", i))
	}
}

func TestCloseFailsPendingDeployments(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.SetRoot(t.TempDir())
	cfg.Network.BlockInterval = time.Hour

	h, err := New(cfg)
	require.NoError(t, err)

	factory, err := h.GetContractFactory(native.FakeContractName)
	require.NoError(t, err)

	contract, err := factory.Deploy(context.Background(), "Test COIN", "TC", 8, 50)
	require.NoError(t, err)

	require.NoError(t, h.Close())

	err = contract.Deployed(context.Background())
	assert.True(t, errors.Is(err, ErrNetworkClosed))

	_, err = factory.Deploy(context.Background(), "Test COIN", "TC", 8, 50)
	assert.True(t, errors.Is(err, ErrNetworkClosed))
}

func TestGenesisContracts(t *testing.T) {
	t.Parallel()

	contractAddress := types.HexToAddress("Mx00000000000000000000000000000000000000aa")
	deployer := types.HexToAddress("Mxf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

	genesis := &types.AppState{
		Accounts: []types.Account{{Address: deployer, Nonce: 5}},
		Contracts: []types.Contract{{
			Address:  contractAddress,
			Template: native.FakeContractName,
			Creator:  deployer,
			Storage: []types.StorageSlot{
				{Key: native.Slot("name"), Value: []byte("Genesis")},
				{Key: native.Slot("tokensPerBlock"), Value: []byte{3}},
				{Key: native.Slot("blockFreezeInterval"), Value: []byte{7}},
			},
		}},
	}

	h := newTestHarness(t, 0, WithGenesis(genesis))
	require.Equal(t, deployer, h.Deployer())
	ctx := context.Background()

	existing, err := h.At(native.FakeContractName, contractAddress)
	require.NoError(t, err)
	require.NoError(t, existing.Expect(ctx, "getTokensPerBlock", 3))
	require.NoError(t, existing.Expect(ctx, "getBlockFreezeInterval", 7))
	require.NoError(t, existing.Expect(ctx, "name", "Genesis"))

	contract := deployFake(t, h, "Test COIN", "TC", 8, 50)
	assert.Equal(t, transaction.CreateContractAddress(deployer, 6), contract.Address())
}
