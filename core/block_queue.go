// Copyright 2015 The go-ethereum Authors
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
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/metrics"
)

// maxFutureDrift is how far into the future a block timestamp may lie before
// the block is parked instead of queued.
const maxFutureDrift = 15 * time.Second

var blockQueueGauge = metrics.NewGaugeVec("BlockQueueGauges", "Block queue gauges")

// BlockQueue accepts raw blocks from the network, screens them, and surfaces
// batches that are ready for chain insertion. Blocks whose parents are not
// yet known and blocks from the future are parked and retried on Tick.
type BlockQueue struct {
	mu      sync.Mutex
	known   mapset.Set // every digest ever accepted, ready or parked
	bad     mapset.Set // digests rejected by the chain
	ready   []*types.Block
	futures map[common.Hash]*types.Block // digest -> future-timestamp block

	verify  HeaderVerifier
	onReady func()
	onBad   func(*BadBlockError)

	logger log.Logger
}

// NewBlockQueue constructs an empty block queue with an optional header
// pre-screen.
func NewBlockQueue(verify HeaderVerifier, logger log.Logger) *BlockQueue {
	if logger == nil {
		logger = log.Global
	}
	return &BlockQueue{
		known:   mapset.NewSet(),
		bad:     mapset.NewSet(),
		futures: make(map[common.Hash]*types.Block),
		verify:  verify,
		logger:  logger,
	}
}

// OnReady registers the callback fired when a block becomes ready for
// insertion. The callback must not call back into the queue.
func (bq *BlockQueue) OnReady(fn func()) {
	bq.mu.Lock()
	bq.onReady = fn
	bq.mu.Unlock()
}

// SetOnBad registers the callback invoked when a queued block turns out bad.
func (bq *BlockQueue) SetOnBad(fn func(*BadBlockError)) {
	bq.mu.Lock()
	bq.onBad = fn
	bq.mu.Unlock()
}

// ImportBytes decodes and imports an RLP-encoded block.
func (bq *BlockQueue) ImportBytes(data []byte, chain *BlockChain, isOurs bool) ImportResult {
	block, err := types.DecodeBlock(data)
	if err != nil {
		bq.logger.WithField("err", err).Debug("Discarding malformed block")
		return ImportMalformed
	}
	return bq.Import(block, chain, isOurs)
}

// Import screens a block and queues it for insertion. Locally sealed blocks
// (isOurs) skip the future-time check, since their timestamps are our own.
func (bq *BlockQueue) Import(block *types.Block, chain *BlockChain, isOurs bool) ImportResult {
	hash := block.Hash()

	bq.mu.Lock()
	if bq.bad.Contains(hash) || bq.bad.Contains(block.ParentHash()) {
		bq.mu.Unlock()
		return ImportBadChain
	}
	if bq.known.Contains(hash) {
		bq.mu.Unlock()
		return ImportAlreadyKnown
	}
	bq.mu.Unlock()

	if chain.HasBlock(hash) {
		return ImportAlreadyInChain
	}
	if bq.verify != nil {
		if err := bq.verify(block.Header()); err != nil {
			bq.logger.WithFields(log.Fields{"hash": hash, "err": err}).Debug("Block failed verification")
			bq.mu.Lock()
			bq.bad.Add(hash)
			bq.mu.Unlock()
			return ImportMalformed
		}
	}

	bq.mu.Lock()
	bq.known.Add(hash)
	if !isOurs && block.Time() > uint64(time.Now().Add(maxFutureDrift).Unix()) {
		bq.futures[hash] = block
		bq.mu.Unlock()
		return ImportFutureTime
	}
	bq.ready = append(bq.ready, block)
	ready := bq.onReady
	size := len(bq.ready)
	bq.mu.Unlock()

	if blockQueueGauge != nil {
		blockQueueGauge.WithLabelValues("ready").Set(float64(size))
	}
	if ready != nil {
		ready()
	}
	return ImportSuccess
}

// Drain pops up to max ready blocks in arrival order.
func (bq *BlockQueue) Drain(max int) []*types.Block {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	if max > len(bq.ready) {
		max = len(bq.ready)
	}
	batch := bq.ready[:max]
	bq.ready = bq.ready[max:]
	return batch
}

// Requeue parks a block whose parent has not been inserted yet; the next
// Tick offers it again without letting the drain loop spin on it.
func (bq *BlockQueue) Requeue(block *types.Block) {
	bq.mu.Lock()
	bq.futures[block.Hash()] = block
	bq.mu.Unlock()
}

// MarkBad poisons a digest; future imports of it or its descendants fail.
func (bq *BlockQueue) MarkBad(hash common.Hash) {
	bq.mu.Lock()
	bq.bad.Add(hash)
	bq.mu.Unlock()
}

// Items reports the number of ready and parked blocks.
func (bq *BlockQueue) Items() (pending int, verifying int) {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	return len(bq.ready), len(bq.futures)
}

// Tick re-screens parked future blocks, moving matured ones to ready.
func (bq *BlockQueue) Tick(chain *BlockChain) {
	now := uint64(time.Now().Add(maxFutureDrift).Unix())

	bq.mu.Lock()
	var matured []*types.Block
	for hash, block := range bq.futures {
		if block.Time() <= now {
			delete(bq.futures, hash)
			matured = append(matured, block)
		}
	}
	bq.ready = append(bq.ready, matured...)
	ready := bq.onReady
	bq.mu.Unlock()

	if len(matured) > 0 && ready != nil {
		ready()
	}
}

// Clear drops all queued blocks and the known set. The bad set survives, a
// wiped queue is not an amnesty.
func (bq *BlockQueue) Clear() {
	bq.mu.Lock()
	bq.known = mapset.NewSet()
	bq.ready = nil
	bq.futures = make(map[common.Hash]*types.Block)
	bq.mu.Unlock()
}
