package transaction

import (
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/crypto/tmhash"
)

var ErrUnknownTxType = errors.New("tx type is not registered")

func GetData(txType TxType) (Data, bool) {
	switch txType {
	case TypeDeployContract:
		return &DeployContractData{}, true
	default:
		return nil, false
	}
}

// RawTxHash returns hash of an encoded transaction
func RawTxHash(raw []byte) types.Hash {
	return types.BytesToHash(tmhash.Sum(raw))
}

func (e *Executor) DecodeFromBytes(buf []byte) (*Transaction, error) {
	tx, err := e.DecodeFromBytesWithoutSig(buf)
	if err != nil {
		return nil, err
	}

	tx, err = DecodeSig(tx)
	if err != nil {
		return nil, err
	}

	hash := RawTxHash(buf)
	tx.hash = &hash

	return tx, nil
}

func DecodeSig(tx *Transaction) (*Transaction, error) {
	if tx.SignatureType != SigTypeSingle {
		return nil, errors.New("unknown signature type")
	}

	tx.sig = &Signature{}
	if err := rlp.DecodeBytes(tx.SignatureData, tx.sig); err != nil {
		return nil, err
	}

	return tx, nil
}

func (e *Executor) DecodeFromBytesWithoutSig(buf []byte) (*Transaction, error) {
	var tx Transaction
	if err := rlp.DecodeBytes(buf, &tx); err != nil {
		return nil, err
	}

	if tx.Data == nil {
		return nil, errors.New("incorrect tx data")
	}

	d, ok := e.decodeTxFunc(tx.Type)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTxType, "type %s", tx.Type)
	}

	if err := rlp.DecodeBytes(tx.Data, d); err != nil {
		return nil, err
	}

	tx.SetDecodedData(d)

	return &tx, nil
}
