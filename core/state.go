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

package core

import (
	"bytes"
	"errors"
	"math/big"
	"sort"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/rawdb"
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/rlp"
)

var errUnknownRoot = errors.New("state snapshot not found for root")

type stateAccount struct {
	Nonce   uint64
	Balance *big.Int
	Storage map[common.Hash]common.Hash
}

func newStateAccount() *stateAccount {
	return &stateAccount{Balance: new(big.Int), Storage: make(map[common.Hash]common.Hash)}
}

func (a *stateAccount) copy() *stateAccount {
	cpy := &stateAccount{
		Nonce:   a.Nonce,
		Balance: new(big.Int).Set(a.Balance),
		Storage: make(map[common.Hash]common.Hash, len(a.Storage)),
	}
	for k, v := range a.Storage {
		cpy.Storage[k] = v
	}
	return cpy
}

// StateDB holds the account set backing one snapshot of the pipeline. It is a
// content-addressed store: Commit persists the account set under its root
// hash and NewStateDB re-materializes it from any previously committed root.
type StateDB struct {
	db       ethdb.Database
	accounts map[common.Address]*stateAccount
}

// NewStateDB opens the state committed under root. The zero root yields an
// empty state.
func NewStateDB(db ethdb.Database, root common.Hash) (*StateDB, error) {
	s := &StateDB{db: db, accounts: make(map[common.Address]*stateAccount)}
	if root == (common.Hash{}) {
		return s, nil
	}
	data := rawdb.ReadStateSnapshot(db, root)
	if data == nil {
		return nil, errUnknownRoot
	}
	if err := s.decode(data); err != nil {
		return nil, err
	}
	return s, nil
}

// Copy duplicates the full account set. The copy shares the backing database
// but no mutable structures.
func (s *StateDB) Copy() *StateDB {
	cpy := &StateDB{db: s.db, accounts: make(map[common.Address]*stateAccount, len(s.accounts))}
	for addr, acct := range s.accounts {
		cpy.accounts[addr] = acct.copy()
	}
	return cpy
}

func (s *StateDB) account(addr common.Address) *stateAccount {
	if acct, ok := s.accounts[addr]; ok {
		return acct
	}
	acct := newStateAccount()
	s.accounts[addr] = acct
	return acct
}

// GetBalance retrieves the balance of the given account, zero if untouched.
func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	if acct, ok := s.accounts[addr]; ok {
		return new(big.Int).Set(acct.Balance)
	}
	return new(big.Int)
}

// AddBalance adds amount to the account associated with addr.
func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	acct := s.account(addr)
	acct.Balance = new(big.Int).Add(acct.Balance, amount)
}

// SubBalance subtracts amount from the account associated with addr.
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	acct := s.account(addr)
	acct.Balance = new(big.Int).Sub(acct.Balance, amount)
}

// GetNonce retrieves the nonce of the given account, zero if untouched.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if acct, ok := s.accounts[addr]; ok {
		return acct.Nonce
	}
	return 0
}

// SetNonce stores the nonce of the given account.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	s.account(addr).Nonce = nonce
}

// GetState retrieves a storage slot of the given account.
func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if acct, ok := s.accounts[addr]; ok {
		return acct.Storage[key]
	}
	return common.Hash{}
}

// SetState stores a storage slot of the given account.
func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	acct := s.account(addr)
	if value == (common.Hash{}) {
		delete(acct.Storage, key)
		return
	}
	acct.Storage[key] = value
}

// Root computes the content hash of the account set.
func (s *StateDB) Root() common.Hash {
	return crypto.Keccak256Hash(s.encode())
}

// Commit persists the account set under its root hash and returns the root.
func (s *StateDB) Commit() common.Hash {
	enc := s.encode()
	root := crypto.Keccak256Hash(enc)
	rawdb.WriteStateSnapshot(s.db, root, enc)
	return root
}

func (s *StateDB) encode() []byte {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr, acct := range s.accounts {
		// Empty accounts do not contribute to the root, keeping it stable
		// across touch-only operations.
		if acct.Nonce == 0 && acct.Balance.Sign() == 0 && len(acct.Storage) == 0 {
			continue
		}
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	items := make([][]byte, len(addrs))
	for i, addr := range addrs {
		acct := s.accounts[addr]
		keys := make([]common.Hash, 0, len(acct.Storage))
		for k := range acct.Storage {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return bytes.Compare(keys[i][:], keys[j][:]) < 0
		})
		slots := make([][]byte, len(keys))
		for j, k := range keys {
			v := acct.Storage[k]
			slots[j] = rlp.EncodeList(rlp.EncodeBytes(k.Bytes()), rlp.EncodeBytes(v.Bytes()))
		}
		items[i] = rlp.EncodeList(
			rlp.EncodeBytes(addr.Bytes()),
			rlp.EncodeUint64(acct.Nonce),
			rlp.EncodeBig(acct.Balance),
			rlp.EncodeList(slots...),
		)
	}
	return rlp.EncodeList(items...)
}

func (s *StateDB) decode(data []byte) error {
	item, err := rlp.Decode(data)
	if err != nil {
		return err
	}
	accounts, err := item.List()
	if err != nil {
		return err
	}
	for _, accItem := range accounts {
		fields, err := accItem.List()
		if err != nil {
			return err
		}
		if len(fields) != 4 {
			return errors.New("account RLP must have 4 fields")
		}
		addrBytes, err := fields[0].Bytes()
		if err != nil {
			return err
		}
		acct := newStateAccount()
		if acct.Nonce, err = fields[1].Uint64(); err != nil {
			return err
		}
		if acct.Balance, err = fields[2].Big(); err != nil {
			return err
		}
		slots, err := fields[3].List()
		if err != nil {
			return err
		}
		for _, slotItem := range slots {
			kv, err := slotItem.List()
			if err != nil {
				return err
			}
			if len(kv) != 2 {
				return errors.New("storage slot RLP must have 2 fields")
			}
			k, err := kv[0].Bytes()
			if err != nil {
				return err
			}
			v, err := kv[1].Bytes()
			if err != nil {
				return err
			}
			acct.Storage[common.BytesToHash(k)] = common.BytesToHash(v)
		}
		s.accounts[common.BytesToAddress(addrBytes)] = acct
	}
	return nil
}
