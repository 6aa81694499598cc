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

package rlp

import (
	"errors"
	"math/big"
)

var (
	// ErrValueTooLarge is returned when a length prefix exceeds the input size.
	ErrValueTooLarge = errors.New("rlp: value size exceeds available input length")
	// ErrExpectedString is returned when a list item appears where a string is required.
	ErrExpectedString = errors.New("rlp: expected string or byte")
	// ErrExpectedList is returned when a string item appears where a list is required.
	ErrExpectedList = errors.New("rlp: expected list")
	// ErrCanonInt is returned for integers with leading zero bytes.
	ErrCanonInt = errors.New("rlp: non-canonical integer format")
	errUintOverflow = errors.New("rlp: uint overflow")
)

// Kind represents the kind of value contained in an RLP stream.
type Kind byte

const (
	String Kind = iota
	List
)

// Item is a decoded RLP value. String items carry their payload in Data;
// list items carry their decoded children in Items.
type Item struct {
	Kind  Kind
	Data  []byte
	Items []*Item
}

// Decode parses a single RLP value from b. Trailing bytes after the first
// value are rejected, matching the strictness of the disk and wire formats.
func Decode(b []byte) (*Item, error) {
	item, rest, err := decodeValue(b)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.New("rlp: input contains more than one value")
	}
	return item, nil
}

// Uint64 interprets a string item as a canonical big-endian unsigned integer.
func (it *Item) Uint64() (uint64, error) {
	if it.Kind != String {
		return 0, ErrExpectedString
	}
	if len(it.Data) > 8 {
		return 0, errUintOverflow
	}
	if len(it.Data) > 0 && it.Data[0] == 0 {
		return 0, ErrCanonInt
	}
	var v uint64
	for _, b := range it.Data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// Big interprets a string item as a non-negative big integer.
func (it *Item) Big() (*big.Int, error) {
	if it.Kind != String {
		return nil, ErrExpectedString
	}
	if len(it.Data) > 0 && it.Data[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(it.Data), nil
}

// Bytes returns the payload of a string item.
func (it *Item) Bytes() ([]byte, error) {
	if it.Kind != String {
		return nil, ErrExpectedString
	}
	return it.Data, nil
}

// List returns the children of a list item.
func (it *Item) List() ([]*Item, error) {
	if it.Kind != List {
		return nil, ErrExpectedList
	}
	return it.Items, nil
}

func decodeValue(b []byte) (*Item, []byte, error) {
	if len(b) == 0 {
		return nil, nil, errors.New("rlp: input too short")
	}
	prefix := b[0]
	switch {
	case prefix < 0x80:
		return &Item{Kind: String, Data: b[:1]}, b[1:], nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		if len(b) < 1+size {
			return nil, nil, ErrValueTooLarge
		}
		return &Item{Kind: String, Data: b[1 : 1+size]}, b[1+size:], nil

	case prefix <= 0xbf:
		lenSize := int(prefix - 0xb7)
		size, err := readLength(b[1:], lenSize)
		if err != nil {
			return nil, nil, err
		}
		if len(b) < 1+lenSize+size {
			return nil, nil, ErrValueTooLarge
		}
		return &Item{Kind: String, Data: b[1+lenSize : 1+lenSize+size]}, b[1+lenSize+size:], nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		if len(b) < 1+size {
			return nil, nil, ErrValueTooLarge
		}
		items, err := decodeListPayload(b[1 : 1+size])
		if err != nil {
			return nil, nil, err
		}
		return &Item{Kind: List, Items: items}, b[1+size:], nil

	default:
		lenSize := int(prefix - 0xf7)
		size, err := readLength(b[1:], lenSize)
		if err != nil {
			return nil, nil, err
		}
		if len(b) < 1+lenSize+size {
			return nil, nil, ErrValueTooLarge
		}
		items, err := decodeListPayload(b[1+lenSize : 1+lenSize+size])
		if err != nil {
			return nil, nil, err
		}
		return &Item{Kind: List, Items: items}, b[1+lenSize+size:], nil
	}
}

func decodeListPayload(b []byte) ([]*Item, error) {
	var items []*Item
	for len(b) > 0 {
		item, rest, err := decodeValue(b)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		b = rest
	}
	return items, nil
}

func readLength(b []byte, lenSize int) (int, error) {
	if len(b) < lenSize {
		return 0, ErrValueTooLarge
	}
	if lenSize > 0 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	var size uint64
	for _, c := range b[:lenSize] {
		size = size<<8 | uint64(c)
	}
	if size > uint64(int(^uint(0)>>1)) {
		return 0, ErrValueTooLarge
	}
	return int(size), nil
}
