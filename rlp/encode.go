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

// Package rlp implements the RLP serialization format used for block,
// transaction and status encodings.
package rlp

import (
	"math/big"
)

// EncodeBytes encodes b as an RLP string item.
func EncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(encodeLength(len(b), 0x80), b...)
}

// EncodeUint64 encodes i as an RLP string item with minimal big-endian content.
func EncodeUint64(i uint64) []byte {
	return EncodeBytes(putUint(i))
}

// EncodeBig encodes a non-negative big integer as an RLP string item.
// nil is treated as zero.
func EncodeBig(i *big.Int) []byte {
	if i == nil || i.Sign() == 0 {
		return EncodeBytes(nil)
	}
	return EncodeBytes(i.Bytes())
}

// EncodeList wraps the already-encoded items into an RLP list.
func EncodeList(items ...[]byte) []byte {
	var size int
	for _, item := range items {
		size += len(item)
	}
	out := encodeLength(size, 0xc0)
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func encodeLength(size int, offset byte) []byte {
	if size < 56 {
		return []byte{offset + byte(size)}
	}
	sizeBytes := putUint(uint64(size))
	return append([]byte{offset + 55 + byte(len(sizeBytes))}, sizeBytes...)
}

func putUint(i uint64) []byte {
	if i == 0 {
		return nil
	}
	var b [8]byte
	n := 8
	for i > 0 {
		n--
		b[n] = byte(i)
		i >>= 8
	}
	return b[n:]
}
