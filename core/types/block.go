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

// Package types contains data types related to Aurum consensus.
package types

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/rlp"
)

// A BlockNonce is a 64-bit hash which proves (combined with the
// mix-hash) that a sufficient amount of computation has been carried
// out on a block.
type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

// Uint64 returns the integer value of a block nonce.
func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

// Header represents a block header in the Aurum blockchain.
type Header struct {
	ParentHash  common.Hash
	Coinbase    common.Address
	Root        common.Hash
	TxHash      common.Hash
	ReceiptHash common.Hash
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       BlockNonce
}

// Hash returns the block hash of the header, which is the keccak256 hash of its
// RLP encoding.
func (h *Header) Hash() common.Hash {
	return crypto.Keccak256Hash(h.EncodeRLP())
}

// SealHash returns the hash of the header without its proof-of-work fields,
// the digest that mining workers search a nonce for.
func (h *Header) SealHash() common.Hash {
	return crypto.Keccak256Hash(h.encodeRLP(false))
}

// NumberU64 returns the header number as uint64.
func (h *Header) NumberU64() uint64 { return h.Number.Uint64() }

// EncodeRLP returns the canonical RLP encoding of the header.
func (h *Header) EncodeRLP() []byte {
	return h.encodeRLP(true)
}

func (h *Header) encodeRLP(withSeal bool) []byte {
	fields := [][]byte{
		rlp.EncodeBytes(h.ParentHash.Bytes()),
		rlp.EncodeBytes(h.Coinbase.Bytes()),
		rlp.EncodeBytes(h.Root.Bytes()),
		rlp.EncodeBytes(h.TxHash.Bytes()),
		rlp.EncodeBytes(h.ReceiptHash.Bytes()),
		rlp.EncodeBig(h.Difficulty),
		rlp.EncodeBig(h.Number),
		rlp.EncodeUint64(h.GasLimit),
		rlp.EncodeUint64(h.GasUsed),
		rlp.EncodeUint64(h.Time),
		rlp.EncodeBytes(h.Extra),
	}
	if withSeal {
		fields = append(fields,
			rlp.EncodeBytes(h.MixDigest.Bytes()),
			rlp.EncodeBytes(h.Nonce[:]),
		)
	}
	return rlp.EncodeList(fields...)
}

// CopyHeader creates a deep copy of a block header.
func CopyHeader(h *Header) *Header {
	cpy := *h
	if cpy.Difficulty = new(big.Int); h.Difficulty != nil {
		cpy.Difficulty.Set(h.Difficulty)
	}
	if cpy.Number = new(big.Int); h.Number != nil {
		cpy.Number.Set(h.Number)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}

func decodeHeaderItem(item *rlp.Item) (*Header, error) {
	fields, err := item.List()
	if err != nil {
		return nil, err
	}
	if len(fields) != 13 {
		return nil, errors.New("header RLP must have 13 fields")
	}
	h := new(Header)
	if err := decodeHash(fields[0], &h.ParentHash); err != nil {
		return nil, err
	}
	cb, err := fields[1].Bytes()
	if err != nil {
		return nil, err
	}
	h.Coinbase = common.BytesToAddress(cb)
	if err := decodeHash(fields[2], &h.Root); err != nil {
		return nil, err
	}
	if err := decodeHash(fields[3], &h.TxHash); err != nil {
		return nil, err
	}
	if err := decodeHash(fields[4], &h.ReceiptHash); err != nil {
		return nil, err
	}
	if h.Difficulty, err = fields[5].Big(); err != nil {
		return nil, err
	}
	if h.Number, err = fields[6].Big(); err != nil {
		return nil, err
	}
	if h.GasLimit, err = fields[7].Uint64(); err != nil {
		return nil, err
	}
	if h.GasUsed, err = fields[8].Uint64(); err != nil {
		return nil, err
	}
	if h.Time, err = fields[9].Uint64(); err != nil {
		return nil, err
	}
	extra, err := fields[10].Bytes()
	if err != nil {
		return nil, err
	}
	h.Extra = common.CopyBytes(extra)
	if err := decodeHash(fields[11], &h.MixDigest); err != nil {
		return nil, err
	}
	nonce, err := fields[12].Bytes()
	if err != nil {
		return nil, err
	}
	if len(nonce) != len(h.Nonce) {
		return nil, errors.New("header nonce has invalid length")
	}
	copy(h.Nonce[:], nonce)
	return h, nil
}

func decodeHash(item *rlp.Item, out *common.Hash) error {
	b, err := item.Bytes()
	if err != nil {
		return err
	}
	if len(b) != common.HashLength {
		return errors.New("hash field has invalid length")
	}
	out.SetBytes(b)
	return nil
}

// Block represents an entire block in the Aurum blockchain.
type Block struct {
	header       *Header
	transactions Transactions

	// caches
	hash atomic.Value
}

// NewBlock creates a new block. The input header is copied; changes to it by
// the caller do not affect the block.
func NewBlock(header *Header, txs Transactions) *Block {
	return &Block{header: CopyHeader(header), transactions: txs}
}

func (b *Block) Header() *Header            { return CopyHeader(b.header) }
func (b *Block) Transactions() Transactions { return b.transactions }
func (b *Block) ParentHash() common.Hash    { return b.header.ParentHash }
func (b *Block) Coinbase() common.Address   { return b.header.Coinbase }
func (b *Block) Root() common.Hash          { return b.header.Root }
func (b *Block) Number() *big.Int           { return new(big.Int).Set(b.header.Number) }
func (b *Block) NumberU64() uint64          { return b.header.Number.Uint64() }
func (b *Block) Difficulty() *big.Int       { return new(big.Int).Set(b.header.Difficulty) }
func (b *Block) GasLimit() uint64           { return b.header.GasLimit }
func (b *Block) GasUsed() uint64            { return b.header.GasUsed }
func (b *Block) Time() uint64               { return b.header.Time }

// Hash returns the keccak256 hash of b's header.
// The hash is computed on the first call and cached thereafter.
func (b *Block) Hash() common.Hash {
	if hash := b.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := b.header.Hash()
	b.hash.Store(v)
	return v
}

// Transaction returns the transaction at index i, or nil when out of range.
func (b *Block) Transaction(i int) *Transaction {
	if i < 0 || i >= len(b.transactions) {
		return nil
	}
	return b.transactions[i]
}

// EncodeRLP returns the canonical RLP encoding of the block.
func (b *Block) EncodeRLP() []byte {
	txs := make([][]byte, len(b.transactions))
	for i, tx := range b.transactions {
		txs[i] = tx.EncodeRLP()
	}
	return rlp.EncodeList(
		b.header.EncodeRLP(),
		rlp.EncodeList(txs...),
	)
}

// DecodeBlock decodes an RLP-encoded block.
func DecodeBlock(b []byte) (*Block, error) {
	item, err := rlp.Decode(b)
	if err != nil {
		return nil, err
	}
	fields, err := item.List()
	if err != nil {
		return nil, err
	}
	if len(fields) != 2 {
		return nil, errors.New("block RLP must have 2 fields")
	}
	header, err := decodeHeaderItem(fields[0])
	if err != nil {
		return nil, err
	}
	txItems, err := fields[1].List()
	if err != nil {
		return nil, err
	}
	txs := make(Transactions, len(txItems))
	for i, it := range txItems {
		if txs[i], err = decodeTransactionItem(it); err != nil {
			return nil, err
		}
	}
	return &Block{header: header, transactions: txs}, nil
}

// Blocks is a slice of blocks.
type Blocks []*Block

// DeriveSha computes the commitment hash over an ordered list of RLP-encodable
// items, committing to both position and content.
func DeriveSha(items [][]byte) common.Hash {
	encoded := make([][]byte, len(items))
	for i, item := range items {
		encoded[i] = rlp.EncodeList(rlp.EncodeUint64(uint64(i)), rlp.EncodeBytes(item))
	}
	return crypto.Keccak256Hash(rlp.EncodeList(encoded...))
}

// DeriveTxsHash computes the transactions commitment of a block body.
func DeriveTxsHash(txs Transactions) common.Hash {
	enc := make([][]byte, len(txs))
	for i, tx := range txs {
		enc[i] = tx.EncodeRLP()
	}
	return DeriveSha(enc)
}
