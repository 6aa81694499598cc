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
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/metrics"
)

// ImportResult classifies the outcome of feeding an item into a queue.
type ImportResult int

const (
	ImportSuccess ImportResult = iota
	ImportAlreadyKnown
	ImportAlreadyInChain
	ImportFutureTime
	ImportUnknownParent
	ImportMalformed
	ImportBadChain
)

func (r ImportResult) String() string {
	switch r {
	case ImportSuccess:
		return "success"
	case ImportAlreadyKnown:
		return "already known"
	case ImportAlreadyInChain:
		return "already in chain"
	case ImportFutureTime:
		return "future time"
	case ImportUnknownParent:
		return "unknown parent"
	case ImportMalformed:
		return "malformed"
	case ImportBadChain:
		return "bad chain"
	}
	return "unknown"
}

// IfDropped selects what to do when a transaction previously dropped from the
// queue is imported again.
type IfDropped int

const (
	// IgnoreDropped rejects re-imports of dropped transactions.
	IgnoreDropped IfDropped = iota
	// RetryDropped lets a previously dropped transaction back in, used when a
	// chain reorg resurrects the transactions of dead blocks.
	RetryDropped
)

// ImportCallback is invoked with the final import result of a transaction.
type ImportCallback func(ImportResult)

var txQueueGauge = metrics.NewGaugeVec("TxQueueGauges", "Transaction queue gauges")

// TxQueue holds transactions that are waiting to enter the pending state.
// It deduplicates by digest and remembers dropped digests so stale
// retransmissions do not churn the pending state.
type TxQueue struct {
	mu      sync.Mutex
	known   map[common.Hash]*types.Transaction
	dropped mapset.Set
	onReady func()
	logger  log.Logger
}

// NewTxQueue constructs an empty transaction queue.
func NewTxQueue(logger log.Logger) *TxQueue {
	if logger == nil {
		logger = log.Global
	}
	return &TxQueue{
		known:   make(map[common.Hash]*types.Transaction),
		dropped: mapset.NewSet(),
		logger:  logger,
	}
}

// OnReady registers the callback fired whenever a new transaction becomes
// available. The callback must not call back into the queue.
func (tq *TxQueue) OnReady(fn func()) {
	tq.mu.Lock()
	tq.onReady = fn
	tq.mu.Unlock()
}

// ImportBytes decodes and imports an RLP-encoded transaction.
func (tq *TxQueue) ImportBytes(data []byte, callback ImportCallback, ifDropped IfDropped) ImportResult {
	tx, err := types.DecodeTransaction(data)
	if err != nil {
		tq.logger.WithField("err", err).Debug("Discarding malformed transaction")
		return finish(ImportMalformed, callback)
	}
	return tq.Import(tx, callback, ifDropped)
}

// Import adds a transaction to the queue.
func (tq *TxQueue) Import(tx *types.Transaction, callback ImportCallback, ifDropped IfDropped) ImportResult {
	if _, err := tx.Sender(); err != nil {
		tq.logger.WithFields(log.Fields{"hash": tx.Hash(), "err": err}).Debug("Discarding transaction with invalid signature")
		return finish(ImportMalformed, callback)
	}

	tq.mu.Lock()
	hash := tx.Hash()
	if _, ok := tq.known[hash]; ok {
		tq.mu.Unlock()
		return finish(ImportAlreadyKnown, callback)
	}
	if tq.dropped.Contains(hash) {
		if ifDropped == IgnoreDropped {
			tq.mu.Unlock()
			return finish(ImportAlreadyKnown, callback)
		}
		tq.dropped.Remove(hash)
	}
	tq.known[hash] = tx
	ready := tq.onReady
	size := len(tq.known)
	tq.mu.Unlock()

	if txQueueGauge != nil {
		txQueueGauge.WithLabelValues("known").Set(float64(size))
	}
	if ready != nil {
		ready()
	}
	return finish(ImportSuccess, callback)
}

// Drop removes a transaction and remembers its digest, so that later
// retransmissions are ignored unless explicitly retried.
func (tq *TxQueue) Drop(hash common.Hash) {
	tq.mu.Lock()
	if _, ok := tq.known[hash]; ok {
		delete(tq.known, hash)
		tq.dropped.Add(hash)
	}
	tq.mu.Unlock()
}

// Known reports whether the queue currently holds the given digest.
func (tq *TxQueue) Known(hash common.Hash) bool {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	_, ok := tq.known[hash]
	return ok
}

// Ready returns the queued transactions ordered for application: grouped by
// sender, nonce-ascending within each sender.
func (tq *TxQueue) Ready() types.Transactions {
	tq.mu.Lock()
	txs := make(types.Transactions, 0, len(tq.known))
	for _, tx := range tq.known {
		txs = append(txs, tx)
	}
	tq.mu.Unlock()

	sort.SliceStable(txs, func(i, j int) bool {
		si, _ := txs[i].Sender()
		sj, _ := txs[j].Sender()
		if si != sj {
			return bytes.Compare(si[:], sj[:]) < 0
		}
		return txs[i].Nonce() < txs[j].Nonce()
	})
	return txs
}

// Size returns the number of queued transactions.
func (tq *TxQueue) Size() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return len(tq.known)
}

// Clear drops all queued transactions and forgets the dropped set.
func (tq *TxQueue) Clear() {
	tq.mu.Lock()
	tq.known = make(map[common.Hash]*types.Transaction)
	tq.dropped = mapset.NewSet()
	tq.mu.Unlock()
}

func finish(result ImportResult, callback ImportCallback) ImportResult {
	if callback != nil {
		callback(result)
	}
	return result
}
