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
	"math/big"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/rawdb"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/params"
)

// Genesis specifies the chain's first block and the initial account state.
type Genesis struct {
	Difficulty *big.Int
	GasLimit   uint64
	Timestamp  uint64
	Extra      []byte
	Coinbase   common.Address
	Alloc      map[common.Address]*big.Int
}

// DefaultGenesis returns the genesis specification of the main network.
func DefaultGenesis() *Genesis {
	return &Genesis{
		Difficulty: new(big.Int).SetUint64(params.MinimumDifficulty),
		GasLimit:   params.GenesisGasLimit,
	}
}

// ToBlock builds the genesis block, committing the allocated state to db.
func (g *Genesis) ToBlock(db ethdb.Database) *types.Block {
	statedb, _ := NewStateDB(db, common.Hash{})
	for addr, balance := range g.Alloc {
		statedb.AddBalance(addr, balance)
	}
	root := statedb.Commit()

	difficulty := g.Difficulty
	if difficulty == nil {
		difficulty = new(big.Int).SetUint64(params.MinimumDifficulty)
	}
	head := &types.Header{
		Number:      new(big.Int),
		Difficulty:  difficulty,
		GasLimit:    g.GasLimit,
		Time:        g.Timestamp,
		Extra:       g.Extra,
		Coinbase:    g.Coinbase,
		Root:        root,
		TxHash:      types.DeriveTxsHash(nil),
		ReceiptHash: types.DeriveReceiptsHash(nil),
	}
	return types.NewBlock(head, nil)
}

// Commit writes the genesis block and its metadata to db and marks it as the
// chain head. It is idempotent over the same specification.
func (g *Genesis) Commit(db ethdb.Database) *types.Block {
	block := g.ToBlock(db)
	rawdb.WriteBlock(db, block)
	rawdb.WriteTd(db, block.Hash(), block.Difficulty())
	rawdb.WriteReceipts(db, block.Hash(), nil)
	rawdb.WriteCanonicalHash(db, block.Hash(), 0)
	if rawdb.ReadHeadBlockHash(db) == (common.Hash{}) {
		rawdb.WriteHeadBlockHash(db, block.Hash())
	}
	return block
}
