package transaction

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/MinterTeam/minter-harness/core/native"
	"github.com/MinterTeam/minter-harness/core/state"
	"github.com/MinterTeam/minter-harness/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

type TxType byte

func (t TxType) String() string {
	return "0x" + hex.EncodeToString([]byte{byte(t)})
}

func (t TxType) UInt64() uint64 {
	return uint64(t)
}

const (
	TypeDeployContract TxType = 0x01
)

type SigType byte

const (
	SigTypeSingle SigType = 0x01
)

var (
	ErrInvalidSig = errors.New("invalid transaction v, r, s values")
)

type Transaction struct {
	Nonce         uint64
	ChainID       types.ChainID
	Type          TxType
	Data          RawData
	Payload       []byte
	SignatureType SigType
	SignatureData []byte

	decodedData Data
	sig         *Signature
	sender      *types.Address
	hash        *types.Hash
}

type Signature struct {
	V *big.Int
	R *big.Int
	S *big.Int
}

type RawData []byte

type Data interface {
	String() string
	Run(tx *Transaction, context state.Interface, registry *native.Registry, currentBlock uint64) Response
	TxType() TxType
}

func (tx *Transaction) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

func (tx *Transaction) String() string {
	sender, _ := tx.Sender()

	return fmt.Sprintf("TX nonce:%d from:%s payload:%s data:%s",
		tx.Nonce, sender.String(), tx.Payload, tx.decodedData.String())
}

func (tx *Transaction) Sign(prv *ecdsa.PrivateKey) error {
	h := tx.Hash()
	sig, err := crypto.Sign(h[:], prv)
	if err != nil {
		return err
	}

	tx.SetSignature(sig)

	return nil
}

func (tx *Transaction) SetSignature(sig []byte) {
	if tx.sig == nil {
		tx.sig = &Signature{}
	}

	tx.sig.R = new(big.Int).SetBytes(sig[:32])
	tx.sig.S = new(big.Int).SetBytes(sig[32:64])
	tx.sig.V = new(big.Int).SetBytes([]byte{sig[64] + 27})

	data, err := rlp.EncodeToBytes(tx.sig)
	if err != nil {
		panic(err)
	}

	tx.SignatureType = SigTypeSingle
	tx.SignatureData = data
	tx.sender = nil
}

func (tx *Transaction) MustSender() types.Address {
	sender, err := tx.Sender()
	if err != nil {
		panic(err)
	}
	return sender
}

func (tx *Transaction) Sender() (types.Address, error) {
	if tx.sender != nil {
		return *tx.sender, nil
	}

	if tx.SignatureType != SigTypeSingle || tx.sig == nil {
		return types.Address{}, errors.New("unknown signature type")
	}

	sender, err := RecoverPlain(tx.Hash(), tx.sig.R, tx.sig.S, tx.sig.V)
	if err != nil {
		return types.Address{}, err
	}

	tx.sender = &sender
	return sender, nil
}

// Hash returns the signing hash, it covers every field except the signature
func (tx *Transaction) Hash() types.Hash {
	return rlpHash([]interface{}{
		tx.Nonce,
		tx.ChainID,
		tx.Type,
		tx.Data,
		tx.Payload,
		tx.SignatureType,
	})
}

// TxHash returns hash of the raw transaction bytes, the same one the block stores
func (tx *Transaction) TxHash() types.Hash {
	if tx.hash != nil {
		return *tx.hash
	}

	raw, err := tx.Serialize()
	if err != nil {
		panic(err)
	}
	hash := RawTxHash(raw)
	tx.hash = &hash
	return hash
}

func (tx *Transaction) SetDecodedData(data Data) {
	tx.decodedData = data
}

func (tx *Transaction) GetDecodedData() Data {
	return tx.decodedData
}

// CreateContractAddress derives address of a contract deployed by sender with given nonce
func CreateContractAddress(sender types.Address, nonce uint64) types.Address {
	return types.FromCommon(crypto.CreateAddress(sender.Common(), nonce))
}

func RecoverPlain(sighash types.Hash, R, S, Vb *big.Int) (types.Address, error) {
	if R == nil || S == nil || Vb == nil || Vb.BitLen() > 8 {
		return types.Address{}, ErrInvalidSig
	}
	V := byte(Vb.Uint64() - 27)
	if !crypto.ValidateSignatureValues(V, R, S, true) {
		return types.Address{}, ErrInvalidSig
	}
	// encode the signature in uncompressed format
	r, s := R.Bytes(), S.Bytes()
	sig := make([]byte, crypto.SignatureLength)
	copy(sig[32-len(r):32], r)
	copy(sig[64-len(s):64], s)
	sig[64] = V

	pub, err := crypto.Ecrecover(sighash[:], sig)
	if err != nil {
		return types.Address{}, err
	}
	if len(pub) == 0 || pub[0] != 4 {
		return types.Address{}, errors.New("invalid public key")
	}
	var addr types.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}

func rlpHash(x interface{}) (h types.Hash) {
	hw := sha3.NewLegacyKeccak256()
	err := rlp.Encode(hw, x)
	if err != nil {
		panic(err)
	}
	hw.Sum(h[:0])
	return h
}
