// Copyright 2018 The go-ethereum Authors
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

package rawdb

import (
	"math/big"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/ethdb/memorydb"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/rlp"
)

// NewMemoryDatabase creates an ephemeral in-memory key-value database.
func NewMemoryDatabase() ethdb.Database {
	return memorydb.New()
}

// ReadHeadBlockHash retrieves the hash of the current canonical head block.
func ReadHeadBlockHash(db ethdb.KeyValueReader) common.Hash {
	data, _ := db.Get(headBlockKey)
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadBlockHash stores the head block's hash.
func WriteHeadBlockHash(db ethdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(headBlockKey, hash.Bytes()); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to store last block's hash")
	}
}

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db ethdb.KeyValueReader, number uint64) common.Hash {
	data, _ := db.Get(canonicalKey(number))
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteCanonicalHash stores the hash assigned to a canonical block number.
func WriteCanonicalHash(db ethdb.KeyValueWriter, hash common.Hash, number uint64) {
	if err := db.Put(canonicalKey(number), hash.Bytes()); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to store number to hash mapping")
	}
}

// DeleteCanonicalHash removes the number to hash canonical mapping.
func DeleteCanonicalHash(db ethdb.KeyValueWriter, number uint64) {
	if err := db.Delete(canonicalKey(number)); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to delete number to hash mapping")
	}
}

// ReadBlock retrieves an entire block corresponding to the hash.
func ReadBlock(db ethdb.KeyValueReader, hash common.Hash) *types.Block {
	data, _ := db.Get(blockKey(hash))
	if len(data) == 0 {
		return nil
	}
	block, err := types.DecodeBlock(data)
	if err != nil {
		log.Global.WithFields(log.Fields{"hash": hash, "err": err}).Error("Invalid block RLP")
		return nil
	}
	return block
}

// WriteBlock serializes a block into the database.
func WriteBlock(db ethdb.KeyValueWriter, block *types.Block) {
	if err := db.Put(blockKey(block.Hash()), block.EncodeRLP()); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to store block")
	}
}

// HasBlock verifies the existence of a block corresponding to the hash.
func HasBlock(db ethdb.KeyValueReader, hash common.Hash) bool {
	ok, _ := db.Has(blockKey(hash))
	return ok
}

// ReadTd retrieves a block's total difficulty corresponding to the hash.
func ReadTd(db ethdb.KeyValueReader, hash common.Hash) *big.Int {
	data, _ := db.Get(tdKey(hash))
	if len(data) == 0 {
		return nil
	}
	item, err := rlp.Decode(data)
	if err != nil {
		log.Global.WithFields(log.Fields{"hash": hash, "err": err}).Error("Invalid total difficulty RLP")
		return nil
	}
	td, err := item.Big()
	if err != nil {
		log.Global.WithFields(log.Fields{"hash": hash, "err": err}).Error("Invalid total difficulty RLP")
		return nil
	}
	return td
}

// WriteTd stores the total difficulty of a block into the database.
func WriteTd(db ethdb.KeyValueWriter, hash common.Hash, td *big.Int) {
	if err := db.Put(tdKey(hash), rlp.EncodeBig(td)); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to store block total difficulty")
	}
}

// ReadReceipts retrieves all the transaction receipts belonging to a block.
func ReadReceipts(db ethdb.KeyValueReader, hash common.Hash) types.Receipts {
	data, _ := db.Get(receiptsKey(hash))
	if len(data) == 0 {
		return nil
	}
	receipts, err := types.DecodeReceipts(data)
	if err != nil {
		log.Global.WithFields(log.Fields{"hash": hash, "err": err}).Error("Invalid block receipts RLP")
		return nil
	}
	return receipts
}

// WriteReceipts stores all the transaction receipts belonging to a block.
func WriteReceipts(db ethdb.KeyValueWriter, hash common.Hash, receipts types.Receipts) {
	if err := db.Put(receiptsKey(hash), receipts.EncodeRLP()); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to store block receipts")
	}
}

// ReadStateSnapshot retrieves the serialized account set stored under a state root.
func ReadStateSnapshot(db ethdb.KeyValueReader, root common.Hash) []byte {
	data, _ := db.Get(stateKey(root))
	return data
}

// WriteStateSnapshot stores the serialized account set under its state root.
func WriteStateSnapshot(db ethdb.KeyValueWriter, root common.Hash, data []byte) {
	if err := db.Put(stateKey(root), data); err != nil {
		log.Global.WithField("err", err).Fatal("Failed to store state snapshot")
	}
}
