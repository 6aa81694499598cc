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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/aurumchain/go-aurum/common"
)

// The fields below define the low level database schema prefixing.
var (
	// headBlockKey tracks the latest known full block's hash.
	headBlockKey = []byte("LastBlock")

	blockPrefix     = []byte("b") // blockPrefix + hash -> block body
	tdPrefix        = []byte("t") // tdPrefix + hash -> total difficulty
	receiptsPrefix  = []byte("r") // receiptsPrefix + hash -> block receipts
	canonicalPrefix = []byte("c") // canonicalPrefix + num (uint64 big endian) -> hash
	statePrefix     = []byte("s") // statePrefix + root -> state snapshot
)

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// blockKey = blockPrefix + hash
func blockKey(hash common.Hash) []byte {
	return append(blockPrefix, hash.Bytes()...)
}

// tdKey = tdPrefix + hash
func tdKey(hash common.Hash) []byte {
	return append(tdPrefix, hash.Bytes()...)
}

// receiptsKey = receiptsPrefix + hash
func receiptsKey(hash common.Hash) []byte {
	return append(receiptsPrefix, hash.Bytes()...)
}

// canonicalKey = canonicalPrefix + num (uint64 big endian)
func canonicalKey(number uint64) []byte {
	return append(canonicalPrefix, encodeBlockNumber(number)...)
}

// stateKey = statePrefix + root
func stateKey(root common.Hash) []byte {
	return append(statePrefix, root.Bytes()...)
}
