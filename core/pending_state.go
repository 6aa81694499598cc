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
	"time"

	"github.com/pkg/errors"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/log"
)

// PendingState is one snapshot of the mining pipeline: the chain-head state
// plus zero or more applied pending transactions, optionally finalized into a
// sealable header. The coordinator holds three of these (preMine, working,
// postMine). preMine and working are advanced in place under their write
// locks or replaced by fresh copies; postMine is always replaced by a copy.
type PendingState struct {
	baseHash common.Hash // chain head this snapshot derives from
	baseRoot common.Hash // state root of that head

	statedb  *StateDB
	env      *types.Header // execution environment for pending transactions
	pending  types.Transactions
	receipts types.Receipts
	gasPool  uint64
	gasUsed  uint64

	coinbase common.Address
	extra    []byte

	header *types.Header // finalized header once committed to mine
	sealed *types.Block  // assembled block once a solution is attached

	proc   Processor
	logger log.Logger
}

// newPendingState builds a snapshot synced to the current chain head.
func newPendingState(chain *BlockChain, proc Processor, coinbase common.Address, extra []byte, logger log.Logger) (*PendingState, error) {
	if logger == nil {
		logger = log.Global
	}
	ps := &PendingState{proc: proc, coinbase: coinbase, extra: extra, logger: logger}
	if _, err := ps.Sync(chain); err != nil {
		return nil, err
	}
	return ps, nil
}

// Sync rebases the snapshot onto the chain head. It reports whether the base
// changed; a rebase discards the pending list and any committed header.
func (ps *PendingState) Sync(chain *BlockChain) (bool, error) {
	head := chain.CurrentBlock()
	if ps.baseHash == head.Hash() && ps.statedb != nil {
		return false, nil
	}
	statedb, err := chain.StateAt(head.Root())
	if err != nil {
		return false, errors.Wrap(err, "opening head state")
	}
	ps.baseHash = head.Hash()
	ps.baseRoot = head.Root()
	ps.statedb = statedb
	ps.pending = nil
	ps.receipts = nil
	ps.gasUsed = 0
	ps.header = nil
	ps.sealed = nil
	ps.refreshEnv(head.Header())
	return true, nil
}

func (ps *PendingState) refreshEnv(parent *types.Header) {
	now := uint64(time.Now().Unix())
	if now <= parent.Time {
		now = parent.Time + 1
	}
	ps.env = &types.Header{
		ParentHash: ps.baseHash,
		Coinbase:   ps.coinbase,
		Number:     new(big.Int).Add(parent.Number, common.Big1),
		Difficulty: CalcDifficulty(parent, now),
		GasLimit:   CalcGasLimit(parent),
		Time:       now,
		Extra:      ps.extra,
	}
	ps.gasPool = ps.env.GasLimit
}

// BaseHash returns the chain head hash the snapshot derives from.
func (ps *PendingState) BaseHash() common.Hash { return ps.baseHash }

// Coinbase returns the beneficiary the snapshot mines for.
func (ps *PendingState) Coinbase() common.Address { return ps.coinbase }

// SetCoinbase changes the beneficiary for subsequently committed work.
func (ps *PendingState) SetCoinbase(addr common.Address) { ps.coinbase = addr }

// Pending returns the applied pending transactions in order.
func (ps *PendingState) Pending() types.Transactions { return ps.pending }

// Receipts returns the receipts parallel to Pending.
func (ps *PendingState) Receipts() types.Receipts { return ps.receipts }

// State exposes the snapshot's account state.
func (ps *PendingState) State() *StateDB { return ps.statedb }

// SyncQueue drains ready transactions from the queue into the snapshot. It
// returns the receipts produced by this call. Transactions priced below the
// gas pricer's ask stay in the queue; permanently unappliable ones are
// dropped from it.
func (ps *PendingState) SyncQueue(chain *BlockChain, tq *TxQueue, gp GasPricer) types.Receipts {
	applied := make(map[common.Hash]bool, len(ps.pending))
	for _, tx := range ps.pending {
		applied[tx.Hash()] = true
	}
	ask := gp.Ask()

	var fresh types.Receipts
	for _, tx := range tq.Ready() {
		hash := tx.Hash()
		if applied[hash] {
			continue
		}
		if tx.GasPrice().Cmp(ask) < 0 {
			continue
		}
		ps.env.GasUsed = ps.gasUsed
		receipt, err := ps.proc.ApplyTransaction(ps.statedb, ps.env, tx, &ps.gasPool)
		switch {
		case err == nil:
			ps.pending = append(ps.pending, tx)
			ps.receipts = append(ps.receipts, receipt)
			ps.gasUsed += receipt.GasUsed
			fresh = append(fresh, receipt)
			// The transaction now lives in pending; it must not also stay in
			// the queue. A reorg resubmits it with retry semantics if needed.
			tq.Drop(hash)
		case errors.Is(err, ErrGasLimitReached):
			// Block is full; the rest waits for the next block.
			return fresh
		case errors.Is(err, ErrNonceTooHigh):
			// A gap; the transaction may apply after its predecessors arrive.
		default:
			ps.logger.WithFields(log.Fields{"hash": hash, "err": err}).Debug("Dropping unappliable transaction")
			tq.Drop(hash)
		}
	}
	return fresh
}

// CommitToMine finalizes the snapshot into a sealable header. The reward and
// commitments are computed on a copy; the live state keeps accepting pending
// transactions.
func (ps *PendingState) CommitToMine(chain *BlockChain) {
	mined := ps.statedb.Copy()
	applyReward(mined, ps.coinbase)
	root := mined.Commit()

	header := types.CopyHeader(ps.env)
	header.Coinbase = ps.coinbase
	header.Root = root
	header.TxHash = types.DeriveTxsHash(ps.pending)
	header.ReceiptHash = types.DeriveReceiptsHash(ps.receipts)
	header.GasUsed = ps.gasUsed
	ps.header = header
	ps.sealed = nil
}

// Committed reports whether the snapshot holds a sealable header.
func (ps *PendingState) Committed() bool { return ps.header != nil }

// Info returns the committed header, nil before CommitToMine.
func (ps *PendingState) Info() *types.Header {
	if ps.header == nil {
		return nil
	}
	return types.CopyHeader(ps.header)
}

// WorkPackage derives the proof-of-work search package from the committed
// header. It is empty before CommitToMine.
func (ps *PendingState) WorkPackage() WorkPackage {
	if ps.header == nil {
		return WorkPackage{}
	}
	return WorkPackage{
		HeaderHash: ps.header.SealHash(),
		SeedHash:   SeedHash(ps.header.NumberU64()),
		Boundary:   boundary(ps.header.Difficulty),
	}
}

// CompleteSeal validates a solution against the committed header and, on
// success, assembles the sealed block. A stale or invalid solution leaves the
// snapshot untouched and returns false.
func (ps *PendingState) CompleteSeal(sol Solution) bool {
	if ps.header == nil {
		return false
	}
	if !CheckProofOfWork(ps.header, sol) {
		return false
	}
	header := types.CopyHeader(ps.header)
	header.Nonce = sol.Nonce
	header.MixDigest = sol.MixDigest
	ps.sealed = types.NewBlock(header, ps.pending)
	return true
}

// Sealed reports whether a solution has been attached.
func (ps *PendingState) Sealed() bool { return ps.sealed != nil }

// SealedBlock returns the assembled block, nil before CompleteSeal.
func (ps *PendingState) SealedBlock() *types.Block { return ps.sealed }

// BlockBytes returns the RLP encoding of the sealed block.
func (ps *PendingState) BlockBytes() []byte {
	if ps.sealed == nil {
		return nil
	}
	return ps.sealed.EncodeRLP()
}

// FromPending re-derives the account state after the first n pending
// transactions by replaying them on the base state.
func (ps *PendingState) FromPending(chain *BlockChain, n int) (*StateDB, error) {
	statedb, err := chain.StateAt(ps.baseRoot)
	if err != nil {
		return nil, err
	}
	if n > len(ps.pending) {
		n = len(ps.pending)
	}
	env := types.CopyHeader(ps.env)
	env.GasUsed = 0
	gasPool := env.GasLimit
	for i := 0; i < n; i++ {
		receipt, err := ps.proc.ApplyTransaction(statedb, env, ps.pending[i], &gasPool)
		if err != nil {
			return nil, errors.Wrapf(err, "replaying pending transaction %d", i)
		}
		env.GasUsed += receipt.GasUsed
	}
	return statedb, nil
}

// Copy duplicates the snapshot. The two copies share no mutable state.
func (ps *PendingState) Copy() *PendingState {
	cpy := &PendingState{
		baseHash: ps.baseHash,
		baseRoot: ps.baseRoot,
		gasPool:  ps.gasPool,
		gasUsed:  ps.gasUsed,
		coinbase: ps.coinbase,
		extra:    ps.extra,
		proc:     ps.proc,
		logger:   ps.logger,
	}
	if ps.statedb != nil {
		cpy.statedb = ps.statedb.Copy()
	}
	if ps.env != nil {
		cpy.env = types.CopyHeader(ps.env)
	}
	cpy.pending = append(types.Transactions(nil), ps.pending...)
	cpy.receipts = append(types.Receipts(nil), ps.receipts...)
	if ps.header != nil {
		cpy.header = types.CopyHeader(ps.header)
	}
	cpy.sealed = ps.sealed
	return cpy
}
