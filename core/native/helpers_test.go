package native

import "github.com/ethereum/go-ethereum/accounts/abi"

func newType(t string) (abi.Type, error) {
	return abi.NewType(t, "", nil)
}
