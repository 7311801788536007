package code

import (
	"strconv"
)

// Codes for transaction checks and delivers responses
const (
	// general
	OK                uint32 = 0
	WrongNonce        uint32 = 101
	TxTooLarge        uint32 = 105
	DecodeError       uint32 = 106
	TxPayloadTooLarge uint32 = 109
	UnknownTxType     uint32 = 110
	WrongChainID      uint32 = 115
	UnknownQueryPath  uint32 = 130
	WrongHeight       uint32 = 131

	// contract deployment
	ContractNotFound      uint32 = 201
	InvalidArguments      uint32 = 202
	ContractAlreadyExists uint32 = 203
	ContractDeployFailed  uint32 = 204

	// contract calls
	ContractNotExists uint32 = 301
	MethodNotFound    uint32 = 302
	MethodNotView     uint32 = 303
	ExecutionReverted uint32 = 304
)

type wrongNonce struct {
	Code          string `json:"code,omitempty"`
	ExpectedNonce string `json:"expected_nonce,omitempty"`
	GotNonce      string `json:"got_nonce,omitempty"`
}

func NewWrongNonce(expectedNonce string, gotNonce string) *wrongNonce {
	return &wrongNonce{Code: strconv.Itoa(int(WrongNonce)), ExpectedNonce: expectedNonce, GotNonce: gotNonce}
}

type wrongChainID struct {
	Code            string `json:"code,omitempty"`
	CurrentChainId  string `json:"current_chain_id,omitempty"`
	InsertedChainId string `json:"inserted_chain_id,omitempty"`
}

func NewWrongChainID(currentChainId string, insertedChainId string) *wrongChainID {
	return &wrongChainID{Code: strconv.Itoa(int(WrongChainID)), CurrentChainId: currentChainId, InsertedChainId: insertedChainId}
}

type txTooLarge struct {
	Code        string `json:"code,omitempty"`
	MaxTxLength string `json:"max_tx_length,omitempty"`
	GotTxLength string `json:"got_tx_length,omitempty"`
}

func NewTxTooLarge(maxTxLength string, gotTxLength string) *txTooLarge {
	return &txTooLarge{Code: strconv.Itoa(int(TxTooLarge)), MaxTxLength: maxTxLength, GotTxLength: gotTxLength}
}

type txPayloadTooLarge struct {
	Code             string `json:"code,omitempty"`
	MaxPayloadLength string `json:"max_payload_length,omitempty"`
	GotPayloadLength string `json:"got_payload_length,omitempty"`
}

func NewTxPayloadTooLarge(maxPayloadLength string, gotPayloadLength string) *txPayloadTooLarge {
	return &txPayloadTooLarge{Code: strconv.Itoa(int(TxPayloadTooLarge)), MaxPayloadLength: maxPayloadLength, GotPayloadLength: gotPayloadLength}
}

type decodeError struct {
	Code string `json:"code,omitempty"`
}

func NewDecodeError() *decodeError {
	return &decodeError{Code: strconv.Itoa(int(DecodeError))}
}

type unknownTxType struct {
	Code   string `json:"code,omitempty"`
	TxType string `json:"tx_type,omitempty"`
}

func NewUnknownTxType(txType string) *unknownTxType {
	return &unknownTxType{Code: strconv.Itoa(int(UnknownTxType)), TxType: txType}
}

type contractNotFound struct {
	Code     string `json:"code,omitempty"`
	Contract string `json:"contract,omitempty"`
}

func NewContractNotFound(contract string) *contractNotFound {
	return &contractNotFound{Code: strconv.Itoa(int(ContractNotFound)), Contract: contract}
}

type invalidArguments struct {
	Code     string `json:"code,omitempty"`
	Contract string `json:"contract,omitempty"`
	Method   string `json:"method,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewInvalidArguments(contract, method, reason string) *invalidArguments {
	return &invalidArguments{Code: strconv.Itoa(int(InvalidArguments)), Contract: contract, Method: method, Reason: reason}
}

type contractAlreadyExists struct {
	Code    string `json:"code,omitempty"`
	Address string `json:"address,omitempty"`
}

func NewContractAlreadyExists(address string) *contractAlreadyExists {
	return &contractAlreadyExists{Code: strconv.Itoa(int(ContractAlreadyExists)), Address: address}
}

type contractDeployFailed struct {
	Code     string `json:"code,omitempty"`
	Contract string `json:"contract,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewContractDeployFailed(contract, reason string) *contractDeployFailed {
	return &contractDeployFailed{Code: strconv.Itoa(int(ContractDeployFailed)), Contract: contract, Reason: reason}
}

type contractNotExists struct {
	Code    string `json:"code,omitempty"`
	Address string `json:"address,omitempty"`
}

func NewContractNotExists(address string) *contractNotExists {
	return &contractNotExists{Code: strconv.Itoa(int(ContractNotExists)), Address: address}
}

type methodNotFound struct {
	Code     string `json:"code,omitempty"`
	Contract string `json:"contract,omitempty"`
	Selector string `json:"selector,omitempty"`
}

func NewMethodNotFound(contract, selector string) *methodNotFound {
	return &methodNotFound{Code: strconv.Itoa(int(MethodNotFound)), Contract: contract, Selector: selector}
}

type methodNotView struct {
	Code     string `json:"code,omitempty"`
	Contract string `json:"contract,omitempty"`
	Method   string `json:"method,omitempty"`
}

func NewMethodNotView(contract, method string) *methodNotView {
	return &methodNotView{Code: strconv.Itoa(int(MethodNotView)), Contract: contract, Method: method}
}

type executionReverted struct {
	Code     string `json:"code,omitempty"`
	Contract string `json:"contract,omitempty"`
	Method   string `json:"method,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewExecutionReverted(contract, method, reason string) *executionReverted {
	return &executionReverted{Code: strconv.Itoa(int(ExecutionReverted)), Contract: contract, Method: method, Reason: reason}
}
