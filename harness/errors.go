package harness

import (
	"fmt"

	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/pkg/errors"
)

var (
	// ErrContractNotFound is returned when no deployable contract is registered under the requested name
	ErrContractNotFound = errors.New("contract not found")
	// ErrNotDeployed is returned by calls made before the deployment is confirmed
	ErrNotDeployed = errors.New("contract is not deployed yet")
	// ErrMethodNotFound is returned for methods missing from the contract ABI
	ErrMethodNotFound = errors.New("method not found")
	// ErrNetworkClosed is returned for transactions left pending when the network stops
	ErrNetworkClosed = errors.New("network closed")
)

// TxError describes a transaction rejected by the ledger
type TxError struct {
	Code uint32
	Log  string
	Info string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction rejected with code %d: %s", e.Code, e.Log)
}

// DeploymentError is returned when a deployment is rejected or fails in its block
type DeploymentError struct {
	Contract string
	TxHash   types.Hash
	Code     uint32
	Log      string
}

func (e *DeploymentError) Error() string {
	if e.TxHash == (types.Hash{}) {
		return fmt.Sprintf("deploy %s: code %d: %s", e.Contract, e.Code, e.Log)
	}
	return fmt.Sprintf("deploy %s (tx %s): code %d: %s", e.Contract, e.TxHash.String(), e.Code, e.Log)
}

// CallError is returned when a view call is rejected by the ledger
type CallError struct {
	Contract string
	Method   string
	Code     uint32
	Log      string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s.%s: code %d: %s", e.Contract, e.Method, e.Code, e.Log)
}

// ExpectationError is returned when a getter returns something other than expected
type ExpectationError struct {
	Method   string
	Expected interface{}
	Actual   interface{}
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("%s() returned %s, expected %s", e.Method, native.FormatValue(e.Actual), native.FormatValue(e.Expected))
}
