package native

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// ParseArguments converts textual values (CLI, HTTP) into Go values accepted by abi.Arguments.Pack
func ParseArguments(args abi.Arguments, raw []string) ([]interface{}, error) {
	if len(args) != len(raw) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(args), len(raw))
	}

	values := make([]interface{}, 0, len(args))
	for i, arg := range args {
		value, err := parseArgument(arg.Type, raw[i])
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d (%s %s)", i, arg.Type.String(), arg.Name)
		}
		values = append(values, value)
	}

	return values, nil
}

// NormalizeArguments converts loosely typed Go values into the exact types abi.Arguments.Pack expects.
// Any integer kind, *big.Int or a numeric string is accepted for integer arguments, range is checked.
func NormalizeArguments(args abi.Arguments, values []interface{}) ([]interface{}, error) {
	if len(args) != len(values) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(args), len(values))
	}

	normalized := make([]interface{}, 0, len(args))
	for i, arg := range args {
		value, err := normalizeArgument(arg.Type, values[i])
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d (%s %s)", i, arg.Type.String(), arg.Name)
		}
		normalized = append(normalized, value)
	}

	return normalized, nil
}

func normalizeArgument(t abi.Type, v interface{}) (interface{}, error) {
	if s, ok := v.(string); ok && t.T != abi.StringTy {
		return parseArgument(t, s)
	}

	switch t.T {
	case abi.UintTy, abi.IntTy:
		value, ok := ToBig(v)
		if !ok {
			return nil, fmt.Errorf("can't use %T as %s", v, t.String())
		}
		return integerValue(t, value)
	case abi.AddressTy:
		switch a := v.(type) {
		case types.Address:
			return a.Common(), nil
		case common.Address:
			return a, nil
		}
		return nil, fmt.Errorf("can't use %T as address", v)
	}

	return v, nil
}

func parseArgument(t abi.Type, s string) (interface{}, error) {
	switch t.T {
	case abi.StringTy:
		return s, nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.AddressTy:
		if !types.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return types.HexToAddress(s).Common(), nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.UintTy, abi.IntTy:
		value, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid %s value %q", t.String(), s)
		}
		return integerValue(t, value)
	}

	return nil, fmt.Errorf("unsupported type %s", t.String())
}

// integerValue checks value fits t and returns it as the Go type abi packs for t
func integerValue(t abi.Type, value *big.Int) (interface{}, error) {
	if t.T == abi.UintTy {
		if value.Sign() < 0 || value.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s overflows %s", value, t.String())
		}
		switch t.Size {
		case 8:
			return uint8(value.Uint64()), nil
		case 16:
			return uint16(value.Uint64()), nil
		case 32:
			return uint32(value.Uint64()), nil
		case 64:
			return value.Uint64(), nil
		}
		return new(big.Int).Set(value), nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if value.Cmp(limit) >= 0 || value.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("value %s overflows %s", value, t.String())
	}
	switch t.Size {
	case 8:
		return int8(value.Int64()), nil
	case 16:
		return int16(value.Int64()), nil
	case 32:
		return int32(value.Int64()), nil
	case 64:
		return value.Int64(), nil
	}
	return new(big.Int).Set(value), nil
}

// ToBig converts any Go integer or *big.Int into a new *big.Int
func ToBig(v interface{}) (*big.Int, bool) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	}

	return nil, false
}

// FormatValue renders unpacked ABI value for humans
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case []byte:
		return hexutil.Encode(v)
	case string:
		return v
	case common.Address:
		return types.FromCommon(v).String()
	}
	if stringer, ok := value.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprintf("%v", value)
}
