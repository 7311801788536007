package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	HashLength    = 32
	AddressLength = 20
)

var (
	hashT    = reflect.TypeOf(Hash{})
	addressT = reflect.TypeOf(Address{})
)

// Hash represents the 32 byte Keccak256 hash of arbitrary data.
type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}
func BigToHash(b *big.Int) Hash { return BytesToHash(b.Bytes()) }
func HexToHash(s string) Hash   { return BytesToHash(FromHex(s, "Mt")) }

func (h Hash) Bytes() []byte { return h[:] }
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// Hex returns transaction-style representation of the hash
func (h Hash) Hex() string { return "Mt" + hex.EncodeToString(h[:]) }

// String implements the stringer interface and is used also by the logger.
func (h Hash) String() string {
	return h.Hex()
}

// Sets the hash to the value of b. If b is larger than len(h), 'b' will be cropped (from the left).
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}

	copy(h[HashLength-len(b):], b)
}

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText parses a hash in Mt or 0x syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	return unmarshalPrefixed(hashT, "Mt", input, h[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(input []byte) error {
	return unmarshalQuoted(input, h.UnmarshalText)
}

func EmptyHash(h Hash) bool {
	return h == Hash{}
}

/////////// Address

type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s, "Mx")) }

// FromCommon converts go-ethereum address to Minter address
func FromCommon(a common.Address) Address { return Address(a) }

// IsHexAddress verifies whether a string can represent a valid hex-encoded
// Minter address or not.
func IsHexAddress(s string) bool {
	if hasHexPrefix(s, "Mx") || hasHexPrefix(s, "0x") {
		s = s[2:]
	}
	return len(s) == 2*AddressLength && isHex(s)
}

func (a Address) Bytes() []byte { return a[:] }

// Common returns go-ethereum representation of the address, used by ABI codec
func (a Address) Common() common.Address { return common.Address(a) }

func (a Address) Hex() string {
	return "Mx" + hex.EncodeToString(a[:])
}

// String implements the stringer interface and is used also by the logger.
func (a Address) String() string {
	return a.Hex()
}

// Sets the address to the value of b. If b is larger than len(a) it will be cropped (from the left).
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// MarshalText returns the hex representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText parses an address in Mx or 0x syntax.
func (a *Address) UnmarshalText(input []byte) error {
	return unmarshalPrefixed(addressT, "Mx", input, a[:])
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

func (a *Address) UnmarshalJSON(input []byte) error {
	return unmarshalQuoted(input, a.UnmarshalText)
}

func (a Address) Compare(a2 Address) int {
	return bytes.Compare(a.Bytes(), a2.Bytes())
}

// FromHex returns the bytes represented by the hexadecimal string s.
// s may be prefixed with given prefix or with "0x".
func FromHex(s string, prefix string) []byte {
	if hasHexPrefix(s, prefix) || hasHexPrefix(s, "0x") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	h, _ := hex.DecodeString(s)
	return h
}

func hasHexPrefix(str, prefix string) bool {
	return len(str) >= 2 && str[0:2] == prefix
}

func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isHex(str string) bool {
	if len(str)%2 != 0 {
		return false
	}
	for _, c := range []byte(str) {
		if !isHexCharacter(c) {
			return false
		}
	}
	return true
}

/////////// HexBytes

// HexBytes is a byte slice encoded to JSON as a 0x prefixed hex string
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Encode(b))
}

func (b *HexBytes) UnmarshalJSON(input []byte) error {
	return unmarshalQuoted(input, func(text []byte) error {
		decoded, err := hexutil.Decode(string(text))
		if err != nil {
			return err
		}
		*b = decoded
		return nil
	})
}

// unmarshalQuoted decodes JSON string and passes its content to fn.
// Both tendermint and standard json codecs call UnmarshalJSON, so types keep the same form in genesis and API.
func unmarshalQuoted(input []byte, fn func(text []byte) error) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	return fn([]byte(s))
}

func unmarshalPrefixed(typ reflect.Type, prefix string, input []byte, out []byte) error {
	s := string(input)
	if hasHexPrefix(s, prefix) || hasHexPrefix(s, "0x") {
		s = s[2:]
	}
	if err := hexutil.UnmarshalFixedText(typ.String(), []byte("0x"+s), out); err != nil {
		return fmt.Errorf("can't decode %s: %s", typ, err)
	}
	return nil
}
