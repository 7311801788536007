package native

import (
	"math/big"
	"testing"

	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	assert.Equal(t, []string{FakeContractName}, registry.Names())

	template, ok := registry.Get(FakeContractName)
	require.True(t, ok)
	assert.Equal(t, FakeContractName, template.Name())

	_, ok = registry.Get("Missing")
	assert.False(t, ok)

	err := registry.Register(NewFakeContract())
	assert.True(t, errors.Is(err, ErrTemplateExists))

	assert.Panics(t, func() {
		NewRegistry(NewFakeContract(), NewFakeContract())
	})
}

func TestFakeContract(t *testing.T) {
	t.Parallel()

	contract := NewFakeContract()
	storage := NewMemStorage()
	address := types.HexToAddress("Mx00000000000000000000000000000000000000aa")

	args, err := ParseArguments(contract.ABI().Constructor.Inputs, []string{"Test COIN", "TC", "8", "50"})
	require.NoError(t, err)
	require.NoError(t, contract.Construct(NewEnv(address, types.Address{}, 1, storage, false), args))

	env := NewEnv(address, types.Address{}, 2, storage, true)
	tests := []struct {
		method   string
		expected string
	}{
		{"name", "Test COIN"},
		{"symbol", "TC"},
		{"getTokensPerBlock", "8"},
		{"getBlockFreezeInterval", "50"},
	}
	for _, tt := range tests {
		method := contract.ABI().Methods[tt.method]
		results, err := contract.Call(env, &method, nil)
		require.NoError(t, err, tt.method)
		require.Len(t, results, 1)
		assert.Equal(t, tt.expected, FormatValue(results[0]), tt.method)

		// results must be packable by the method outputs
		_, err = method.Outputs.Pack(results...)
		assert.NoError(t, err, tt.method)
	}
}

func TestFakeContractReverts(t *testing.T) {
	t.Parallel()

	contract := NewFakeContract()

	tests := []struct {
		name string
		args []interface{}
	}{
		{"empty name", []interface{}{"", "TC", uint8(8), big.NewInt(50)}},
		{"empty symbol", []interface{}{"Test COIN", "", uint8(8), big.NewInt(50)}},
		{"wrong count", []interface{}{"Test COIN", "TC"}},
		{"wrong type", []interface{}{"Test COIN", "TC", 8, big.NewInt(50)}},
	}
	for _, tt := range tests {
		storage := NewMemStorage()
		err := contract.Construct(NewEnv(types.Address{}, types.Address{}, 1, storage, false), tt.args)
		assert.True(t, errors.Is(err, ErrExecutionReverted), tt.name)
		assert.Nil(t, storage.GetState(slotName), tt.name)
	}

	err := contract.Construct(NewEnv(types.Address{}, types.Address{}, 1, NewMemStorage(), true), []interface{}{"Test COIN", "TC", uint8(8), big.NewInt(50)})
	assert.True(t, errors.Is(err, ErrWriteProtection))
}

func TestBufferedStorage(t *testing.T) {
	t.Parallel()

	parent := NewMemStorage()
	key := Slot("key")
	parent.SetState(key, []byte{1})

	buffered := NewBufferedStorage(parent)
	buffered.SetState(key, []byte{2})
	buffered.SetState(Slot("other"), []byte{3})

	assert.Equal(t, []byte{2}, buffered.GetState(key))
	assert.Equal(t, []byte{1}, parent.GetState(key))
	assert.Nil(t, parent.GetState(Slot("other")))

	buffered.Flush()
	assert.Equal(t, []byte{2}, parent.GetState(key))
	assert.Equal(t, []byte{3}, parent.GetState(Slot("other")))
}

func TestNormalizeArguments(t *testing.T) {
	t.Parallel()

	inputs := NewFakeContract().ABI().Constructor.Inputs

	values, err := NormalizeArguments(inputs, []interface{}{"Test COIN", "TC", 255, uint64(0)})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), values[2])
	assert.Equal(t, 0, values[3].(*big.Int).Sign())

	values, err = NormalizeArguments(inputs, []interface{}{"Test COIN", "TC", "0x10", big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, uint8(16), values[2])

	_, err = inputs.Pack(values...)
	assert.NoError(t, err)

	for _, bad := range []interface{}{256, -1, "abc", 1.5, (*big.Int)(nil)} {
		_, err := NormalizeArguments(inputs, []interface{}{"Test COIN", "TC", bad, 50})
		assert.Error(t, err, "%v", bad)
	}

	_, err = NormalizeArguments(inputs, []interface{}{"Test COIN"})
	assert.Error(t, err)
}

func TestParseArgumentTypes(t *testing.T) {
	t.Parallel()

	address := "Mx00000000000000000000000000000000000000aa"

	tests := []struct {
		typ      string
		raw      string
		expected interface{}
		fails    bool
	}{
		{"bool", "true", true, false},
		{"bool", "maybe", nil, true},
		{"address", address, common.HexToAddress("0x00000000000000000000000000000000000000aa"), false},
		{"address", "Mx12", nil, true},
		{"bytes", "0x0102", []byte{1, 2}, false},
		{"int8", "-128", int8(-128), false},
		{"int8", "128", nil, true},
		{"int64", "-1", int64(-1), false},
		{"uint32", "4294967295", uint32(4294967295), false},
		{"int256", "-5", big.NewInt(-5), false},
		{"uint8[]", "1", nil, true},
	}

	for _, tt := range tests {
		typ, err := newType(tt.typ)
		require.NoError(t, err)

		value, err := parseArgument(typ, tt.raw)
		if tt.fails {
			assert.Error(t, err, "%s %s", tt.typ, tt.raw)
			continue
		}
		require.NoError(t, err, "%s %s", tt.typ, tt.raw)
		assert.Equal(t, tt.expected, value, "%s %s", tt.typ, tt.raw)
	}
}

func TestToBigAndFormat(t *testing.T) {
	t.Parallel()

	for _, v := range []interface{}{int(5), int8(5), int16(5), int32(5), int64(5), uint(5), uint8(5), uint16(5), uint32(5), uint64(5), big.NewInt(5)} {
		n, ok := ToBig(v)
		require.True(t, ok, "%T", v)
		assert.Equal(t, int64(5), n.Int64())
	}

	_, ok := ToBig("5")
	assert.False(t, ok)

	assert.Equal(t, "50", FormatValue(big.NewInt(50)))
	assert.Equal(t, "0x0102", FormatValue([]byte{1, 2}))
	assert.Equal(t, "TC", FormatValue("TC"))
	assert.Equal(t, "Mx00000000000000000000000000000000000000aa", FormatValue(common.HexToAddress("0xaa")))
	assert.Equal(t, "true", FormatValue(true))
}
