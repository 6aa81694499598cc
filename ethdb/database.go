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

// Package ethdb defines the interfaces for the Aurum key-value stores.
package ethdb

import "io"

// WithExisting instructs an open how to treat a pre-existing store.
type WithExisting int

const (
	// Trust accepts the existing data as-is.
	Trust WithExisting = iota
	// Verify accepts the existing data but requires re-verification of the
	// persisted blocks against the current rules.
	Verify
	// Kill wipes the existing data and starts fresh.
	Kill
)

func (w WithExisting) String() string {
	switch w {
	case Trust:
		return "trust"
	case Verify:
		return "verify"
	case Kill:
		return "kill"
	}
	return "unknown"
}

// Max returns the more destructive of the two actions.
func Max(a, b WithExisting) WithExisting {
	if a > b {
		return a
	}
	return b
}

// KeyValueReader wraps the Has and Get method of a backing data store.
type KeyValueReader interface {
	// Has retrieves if a key is present in the key-value data store.
	Has(key []byte) (bool, error)

	// Get retrieves the given key if it's present in the key-value data store.
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put method of a backing data store.
type KeyValueWriter interface {
	// Put inserts the given value into the key-value data store.
	Put(key []byte, value []byte) error

	// Delete removes the key from the key-value data store.
	Delete(key []byte) error
}

// Database contains all the methods required by the chain and state stores.
type Database interface {
	KeyValueReader
	KeyValueWriter
	io.Closer
}
