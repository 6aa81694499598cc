// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/rlp"
)

var (
	// ErrInvalidSig is returned when a transaction's signature values are
	// out of range.
	ErrInvalidSig = errors.New("invalid transaction v, r, s values")
)

// Transaction is an Aurum transaction.
type Transaction struct {
	data txdata

	// caches
	hash atomic.Value
	from atomic.Value
}

type txdata struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *common.Address // nil means contract creation
	Amount       *big.Int
	Payload      []byte

	// Signature values
	V *big.Int
	R *big.Int
	S *big.Int
}

// NewTransaction returns an unsigned value-transfer or contract-call transaction.
func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, &to, amount, gasLimit, gasPrice, data)
}

// NewContractCreation returns an unsigned contract-creation transaction.
func NewContractCreation(nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, nil, amount, gasLimit, gasPrice, data)
}

func newTransaction(nonce uint64, to *common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	d := txdata{
		AccountNonce: nonce,
		Recipient:    to,
		Payload:      common.CopyBytes(data),
		Amount:       new(big.Int),
		GasLimit:     gasLimit,
		Price:        new(big.Int),
		V:            new(big.Int),
		R:            new(big.Int),
		S:            new(big.Int),
	}
	if amount != nil {
		d.Amount.Set(amount)
	}
	if gasPrice != nil {
		d.Price.Set(gasPrice)
	}
	return &Transaction{data: d}
}

func (tx *Transaction) Nonce() uint64      { return tx.data.AccountNonce }
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.data.Price) }
func (tx *Transaction) Gas() uint64        { return tx.data.GasLimit }
func (tx *Transaction) Value() *big.Int    { return new(big.Int).Set(tx.data.Amount) }
func (tx *Transaction) Data() []byte       { return common.CopyBytes(tx.data.Payload) }

// To returns the recipient address of the transaction.
// It returns nil if the transaction is a contract creation.
func (tx *Transaction) To() *common.Address {
	if tx.data.Recipient == nil {
		return nil
	}
	to := *tx.data.Recipient
	return &to
}

// RawSignatureValues returns the V, R, S signature values of the transaction.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.data.V, tx.data.R, tx.data.S
}

// Cost returns value + gasPrice * gasLimit.
func (tx *Transaction) Cost() *big.Int {
	total := new(big.Int).Mul(tx.data.Price, new(big.Int).SetUint64(tx.data.GasLimit))
	return total.Add(total, tx.data.Amount)
}

// Hash returns the transaction digest, keccak256 of the RLP encoding.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := crypto.Keccak256Hash(tx.EncodeRLP())
	tx.hash.Store(v)
	return v
}

// SigHash returns the digest that the sender signs, the hash of the
// transaction without its signature fields.
func (tx *Transaction) SigHash() common.Hash {
	var to []byte
	if tx.data.Recipient != nil {
		to = tx.data.Recipient.Bytes()
	}
	return crypto.Keccak256Hash(rlp.EncodeList(
		rlp.EncodeUint64(tx.data.AccountNonce),
		rlp.EncodeBig(tx.data.Price),
		rlp.EncodeUint64(tx.data.GasLimit),
		rlp.EncodeBytes(to),
		rlp.EncodeBig(tx.data.Amount),
		rlp.EncodeBytes(tx.data.Payload),
	))
}

// WithSignature returns a copy of the transaction carrying the given
// 65-byte [R || S || V] signature.
func (tx *Transaction) WithSignature(sig []byte) (*Transaction, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, ErrInvalidSig
	}
	cpy := &Transaction{data: tx.data}
	cpy.data.R = new(big.Int).SetBytes(sig[:32])
	cpy.data.S = new(big.Int).SetBytes(sig[32:64])
	cpy.data.V = new(big.Int).SetBytes([]byte{sig[64]})
	return cpy, nil
}

// Sender recovers and caches the address that signed the transaction.
func (tx *Transaction) Sender() (common.Address, error) {
	if from := tx.from.Load(); from != nil {
		return from.(common.Address), nil
	}
	if tx.data.R.Sign() == 0 && tx.data.S.Sign() == 0 {
		return common.Address{}, ErrInvalidSig
	}
	sig := make([]byte, crypto.SignatureLength)
	tx.data.R.FillBytes(sig[:32])
	tx.data.S.FillBytes(sig[32:64])
	sig[64] = byte(tx.data.V.Uint64())

	pub, err := crypto.SigToPub(tx.SigHash().Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	from := crypto.PubkeyToAddress(*pub)
	tx.from.Store(from)
	return from, nil
}

// WithFakeSender returns a copy whose sender recovery is pinned to addr,
// used for call simulations that carry no signature.
func (tx *Transaction) WithFakeSender(addr common.Address) *Transaction {
	cpy := &Transaction{data: tx.data}
	cpy.from.Store(addr)
	return cpy
}

// EncodeRLP returns the canonical RLP encoding of the transaction.
func (tx *Transaction) EncodeRLP() []byte {
	var to []byte
	if tx.data.Recipient != nil {
		to = tx.data.Recipient.Bytes()
	}
	return rlp.EncodeList(
		rlp.EncodeUint64(tx.data.AccountNonce),
		rlp.EncodeBig(tx.data.Price),
		rlp.EncodeUint64(tx.data.GasLimit),
		rlp.EncodeBytes(to),
		rlp.EncodeBig(tx.data.Amount),
		rlp.EncodeBytes(tx.data.Payload),
		rlp.EncodeBig(tx.data.V),
		rlp.EncodeBig(tx.data.R),
		rlp.EncodeBig(tx.data.S),
	)
}

// DecodeTransaction decodes an RLP-encoded transaction.
func DecodeTransaction(b []byte) (*Transaction, error) {
	item, err := rlp.Decode(b)
	if err != nil {
		return nil, err
	}
	return decodeTransactionItem(item)
}

func decodeTransactionItem(item *rlp.Item) (*Transaction, error) {
	fields, err := item.List()
	if err != nil {
		return nil, err
	}
	if len(fields) != 9 {
		return nil, errors.New("transaction RLP must have 9 fields")
	}
	var d txdata
	if d.AccountNonce, err = fields[0].Uint64(); err != nil {
		return nil, err
	}
	if d.Price, err = fields[1].Big(); err != nil {
		return nil, err
	}
	if d.GasLimit, err = fields[2].Uint64(); err != nil {
		return nil, err
	}
	to, err := fields[3].Bytes()
	if err != nil {
		return nil, err
	}
	if len(to) == common.AddressLength {
		addr := common.BytesToAddress(to)
		d.Recipient = &addr
	} else if len(to) != 0 {
		return nil, errors.New("transaction recipient has invalid length")
	}
	if d.Amount, err = fields[4].Big(); err != nil {
		return nil, err
	}
	if d.Payload, err = fields[5].Bytes(); err != nil {
		return nil, err
	}
	if d.V, err = fields[6].Big(); err != nil {
		return nil, err
	}
	if d.R, err = fields[7].Big(); err != nil {
		return nil, err
	}
	if d.S, err = fields[8].Big(); err != nil {
		return nil, err
	}
	d.Payload = common.CopyBytes(d.Payload)
	return &Transaction{data: d}, nil
}

// Transactions is a list of transactions in block order.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// Hashes returns the digests of every transaction in s.
func (s Transactions) Hashes() common.Hashes {
	hashes := make(common.Hashes, len(s))
	for i, tx := range s {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// SignTx signs the transaction with the given private key.
func SignTx(tx *Transaction, prv *ecdsa.PrivateKey) (*Transaction, error) {
	sig, err := crypto.Sign(tx.SigHash().Bytes(), prv)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(sig)
}
