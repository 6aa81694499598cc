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
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/rawdb"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/metrics"
)

const (
	blockCacheLimit    = 256
	tdCacheLimit       = 1024
	receiptsCacheLimit = 32
)

var (
	// ErrUnknownAncestor is returned when a block's parent is not known.
	ErrUnknownAncestor = errors.New("unknown ancestor")

	// ErrKnownBlock is returned when the chain already holds the block.
	ErrKnownBlock = errors.New("block already known")

	chainMetrics = metrics.NewGaugeVec("ChainGauges", "Chain gauges")
)

// DBOpener constructs the key-value store under path, honoring action for a
// pre-existing store. The client supplies a leveldb opener; tests supply a
// memory one.
type DBOpener func(path string, action ethdb.WithExisting) (ethdb.Database, error)

// BlockChain maintains the canonical chain: blocks, receipts and total
// difficulties keyed by hash, plus the number-to-hash mapping of the current
// canonical branch. Head selection follows total difficulty.
//
// The chain is the single writer of the state store; every imported block's
// post-state is committed under its root before the block becomes reachable.
type BlockChain struct {
	mu sync.RWMutex

	db        ethdb.Database
	open      DBOpener
	dbPath    string
	genesis   *Genesis
	genesisB  *types.Block
	processor Processor

	currentBlock *types.Block
	currentTd    *big.Int

	blockCache    *lru.Cache
	tdCache       *lru.Cache
	receiptsCache *lru.Cache

	onBad func(*BadBlockError)

	logger log.Logger
}

// NewBlockChain opens (or initializes) a chain at dbPath using the given
// opener and genesis specification.
func NewBlockChain(open DBOpener, dbPath string, action ethdb.WithExisting, genesis *Genesis, processor Processor, logger log.Logger) (*BlockChain, error) {
	if logger == nil {
		logger = log.Global
	}
	db, err := open(dbPath, action)
	if err != nil {
		return nil, errors.Wrap(err, "opening chain database")
	}
	bc := &BlockChain{
		db:        db,
		open:      open,
		dbPath:    dbPath,
		genesis:   genesis,
		processor: processor,
		logger:    logger,
	}
	bc.blockCache, _ = lru.New(blockCacheLimit)
	bc.tdCache, _ = lru.New(tdCacheLimit)
	bc.receiptsCache, _ = lru.New(receiptsCacheLimit)

	if err := bc.loadLastState(); err != nil {
		return nil, err
	}
	bc.logger.WithFields(log.Fields{
		"number": bc.currentBlock.NumberU64(),
		"hash":   bc.currentBlock.Hash(),
		"td":     bc.currentTd,
	}).Info("Loaded chain head")
	return bc, nil
}

func (bc *BlockChain) loadLastState() error {
	bc.genesisB = bc.genesis.Commit(bc.db)
	head := rawdb.ReadHeadBlockHash(bc.db)
	block := rawdb.ReadBlock(bc.db, head)
	if block == nil {
		// Corrupted head pointer; fall back to the genesis.
		block = bc.genesisB
		rawdb.WriteHeadBlockHash(bc.db, block.Hash())
	}
	bc.currentBlock = block
	bc.currentTd = rawdb.ReadTd(bc.db, block.Hash())
	if bc.currentTd == nil {
		bc.currentTd = block.Difficulty()
	}
	return nil
}

// Genesis returns the chain's genesis block.
func (bc *BlockChain) Genesis() *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.genesisB
}

// CurrentBlock returns the head of the canonical chain.
func (bc *BlockChain) CurrentBlock() *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.currentBlock
}

// CurrentHash returns the hash of the canonical head.
func (bc *BlockChain) CurrentHash() common.Hash {
	return bc.CurrentBlock().Hash()
}

// GetBlock retrieves a block by hash, caching it if found.
func (bc *BlockChain) GetBlock(hash common.Hash) *types.Block {
	if cached, ok := bc.blockCache.Get(hash); ok {
		return cached.(*types.Block)
	}
	block := rawdb.ReadBlock(bc.db, hash)
	if block != nil {
		bc.blockCache.Add(hash, block)
	}
	return block
}

// HasBlock reports whether a block is fully present in the database.
func (bc *BlockChain) HasBlock(hash common.Hash) bool {
	if bc.blockCache.Contains(hash) {
		return true
	}
	return rawdb.HasBlock(bc.db, hash)
}

// Info retrieves a block header by hash.
func (bc *BlockChain) Info(hash common.Hash) *types.Header {
	block := bc.GetBlock(hash)
	if block == nil {
		return nil
	}
	return block.Header()
}

// GetTd retrieves a block's total difficulty by hash.
func (bc *BlockChain) GetTd(hash common.Hash) *big.Int {
	if cached, ok := bc.tdCache.Get(hash); ok {
		return cached.(*big.Int)
	}
	td := rawdb.ReadTd(bc.db, hash)
	if td != nil {
		bc.tdCache.Add(hash, td)
	}
	return td
}

// Receipts retrieves the receipts of all transactions in the given block.
func (bc *BlockChain) Receipts(hash common.Hash) types.Receipts {
	if cached, ok := bc.receiptsCache.Get(hash); ok {
		return cached.(types.Receipts)
	}
	receipts := rawdb.ReadReceipts(bc.db, hash)
	if receipts != nil {
		bc.receiptsCache.Add(hash, receipts)
	}
	return receipts
}

// Transactions retrieves the ordered transactions of the given block.
func (bc *BlockChain) Transactions(hash common.Hash) types.Transactions {
	block := bc.GetBlock(hash)
	if block == nil {
		return nil
	}
	return block.Transactions()
}

// TransactionHashes retrieves the ordered transaction digests of the given block.
func (bc *BlockChain) TransactionHashes(hash common.Hash) common.Hashes {
	return bc.Transactions(hash).Hashes()
}

// GetCanonicalHash returns the canonical hash for a given block number.
func (bc *BlockChain) GetCanonicalHash(number uint64) common.Hash {
	return rawdb.ReadCanonicalHash(bc.db, number)
}

// StateAt returns the state committed under the given root.
func (bc *BlockChain) StateAt(root common.Hash) (*StateDB, error) {
	return NewStateDB(bc.db, root)
}

// SetOnBad registers the callback invoked with every rejected block.
func (bc *BlockChain) SetOnBad(fn func(*BadBlockError)) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.onBad = fn
}

func (bc *BlockChain) reportBad(err *BadBlockError) {
	bc.mu.RLock()
	fn := bc.onBad
	bc.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// Sync drains up to max ready blocks from the queue into the chain and
// returns the canonical import route plus whether the queue has more work.
func (bc *BlockChain) Sync(bq *BlockQueue, max int) (live, dead common.Hashes, more bool) {
	blocks := bq.Drain(max)
	for _, block := range blocks {
		l, d, err := bc.insert(block)
		if err != nil {
			if badErr := (*BadBlockError)(nil); errors.As(err, &badErr) {
				bq.MarkBad(block.Hash())
				bc.reportBad(badErr)
			} else if errors.Is(err, ErrUnknownAncestor) {
				// The parent may still arrive; hand the block back.
				bq.Requeue(block)
			} else if !errors.Is(err, ErrKnownBlock) {
				bc.logger.WithFields(log.Fields{"hash": block.Hash(), "err": err}).Warn("Block import failed")
			}
			continue
		}
		live = append(live, l...)
		dead = append(dead, d...)
	}
	pending, _ := bq.Items()
	if chainMetrics != nil {
		chainMetrics.WithLabelValues("height").Set(float64(bc.CurrentBlock().NumberU64()))
	}
	return live, dead, pending > 0
}

// insert validates and writes one block, returning the canonical route it
// produced. Blocks off the canonical branch yield empty routes.
func (bc *BlockChain) insert(block *types.Block) (live, dead common.Hashes, err error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	hash := block.Hash()
	if bc.blockCache.Contains(hash) || rawdb.HasBlock(bc.db, hash) {
		return nil, nil, ErrKnownBlock
	}
	parent := bc.getBlockLocked(block.ParentHash())
	if parent == nil {
		return nil, nil, ErrUnknownAncestor
	}
	if block.NumberU64() != parent.NumberU64()+1 {
		return nil, nil, NewBadBlockError(block, "invalid block number", Hints{
			"required": parent.NumberU64() + 1,
			"got":      block.NumberU64(),
		})
	}

	// Execute the body against the parent state and check the header
	// commitments before anything is persisted.
	statedb, err := NewStateDB(bc.db, parent.Root())
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening parent state")
	}
	header := block.Header()
	gasPool := header.GasLimit
	var (
		receipts types.Receipts
		gasUsed  uint64
	)
	execHeader := types.CopyHeader(header)
	execHeader.GasUsed = 0
	for i, tx := range block.Transactions() {
		receipt, err := bc.processor.ApplyTransaction(statedb, execHeader, tx, &gasPool)
		if err != nil {
			return nil, nil, NewBadBlockError(block, err.Error(), Hints{"transactionIndex": i})
		}
		gasUsed += receipt.GasUsed
		execHeader.GasUsed = gasUsed
		receipts = append(receipts, receipt)
	}
	if gasUsed != header.GasUsed {
		return nil, nil, NewBadBlockError(block, "invalid gas used", Hints{
			"required": header.GasUsed,
			"got":      gasUsed,
		})
	}
	if txHash := types.DeriveTxsHash(block.Transactions()); txHash != header.TxHash {
		return nil, nil, NewBadBlockError(block, "invalid transactions root", Hints{
			"required_h256": header.TxHash,
			"got_h256":      txHash,
		})
	}
	if receiptHash := types.DeriveReceiptsHash(receipts); receiptHash != header.ReceiptHash {
		return nil, nil, NewBadBlockError(block, "invalid receipts root", Hints{
			"required_h256": header.ReceiptHash,
			"got_h256":      receiptHash,
		})
	}
	applyReward(statedb, header.Coinbase)
	if root := statedb.Root(); root != header.Root {
		return nil, nil, NewBadBlockError(block, "invalid state root", Hints{
			"required_h256": header.Root,
			"got_h256":      root,
		})
	}
	statedb.Commit()

	parentTd := bc.getTdLocked(block.ParentHash())
	if parentTd == nil {
		return nil, nil, ErrUnknownAncestor
	}
	td := new(big.Int).Add(parentTd, block.Difficulty())
	rawdb.WriteBlock(bc.db, block)
	rawdb.WriteTd(bc.db, hash, td)
	rawdb.WriteReceipts(bc.db, hash, receipts)
	bc.blockCache.Add(hash, block)
	bc.tdCache.Add(hash, td)
	bc.receiptsCache.Add(hash, receipts)

	// The total difficulty rule decides whether this block extends or
	// replaces the canonical branch.
	if td.Cmp(bc.currentTd) <= 0 {
		bc.logger.WithFields(log.Fields{"number": block.NumberU64(), "hash": hash}).Debug("Imported side-chain block")
		return nil, nil, nil
	}
	live, dead = bc.reorgLocked(block)
	bc.currentBlock = block
	bc.currentTd = td
	rawdb.WriteHeadBlockHash(bc.db, hash)
	bc.logger.WithFields(log.Fields{
		"number": block.NumberU64(),
		"hash":   hash,
		"txs":    block.Transactions().Len(),
		"dead":   len(dead),
	}).Info("Imported new chain head")
	return live, dead, nil
}

// reorgLocked rewrites the canonical number mapping from the old head to the
// new one, returning the blocks that joined (ascending) and left the
// canonical branch.
func (bc *BlockChain) reorgLocked(newHead *types.Block) (live, dead common.Hashes) {
	oldBlock := bc.currentBlock
	newBlock := newHead

	// Bring both cursors to the same height.
	for oldBlock.NumberU64() > newBlock.NumberU64() {
		dead = append(dead, oldBlock.Hash())
		rawdb.DeleteCanonicalHash(bc.db, oldBlock.NumberU64())
		oldBlock = bc.getBlockLocked(oldBlock.ParentHash())
	}
	for newBlock.NumberU64() > oldBlock.NumberU64() {
		live = append(live, newBlock.Hash())
		newBlock = bc.getBlockLocked(newBlock.ParentHash())
	}
	// Walk both back until the common ancestor.
	for oldBlock.Hash() != newBlock.Hash() {
		dead = append(dead, oldBlock.Hash())
		live = append(live, newBlock.Hash())
		oldBlock = bc.getBlockLocked(oldBlock.ParentHash())
		newBlock = bc.getBlockLocked(newBlock.ParentHash())
	}
	// live was collected new-head first; flip to ascending order and write
	// the fresh canonical mapping.
	for i, j := 0, len(live)-1; i < j; i, j = i+1, j-1 {
		live[i], live[j] = live[j], live[i]
	}
	number := newBlock.NumberU64()
	for _, hash := range live {
		number++
		rawdb.WriteCanonicalHash(bc.db, hash, number)
	}
	if len(dead) > 0 {
		bc.logger.WithFields(log.Fields{
			"ancestor": newBlock.NumberU64(),
			"live":     len(live),
			"dead":     len(dead),
		}).Info("Chain reorg executed")
	}
	return live, dead
}

func (bc *BlockChain) getBlockLocked(hash common.Hash) *types.Block {
	if cached, ok := bc.blockCache.Get(hash); ok {
		return cached.(*types.Block)
	}
	block := rawdb.ReadBlock(bc.db, hash)
	if block != nil {
		bc.blockCache.Add(hash, block)
	}
	return block
}

func (bc *BlockChain) getTdLocked(hash common.Hash) *big.Int {
	if cached, ok := bc.tdCache.Get(hash); ok {
		return cached.(*big.Int)
	}
	td := rawdb.ReadTd(bc.db, hash)
	if td != nil {
		bc.tdCache.Add(hash, td)
	}
	return td
}

// GarbageCollect trims the in-memory caches.
func (bc *BlockChain) GarbageCollect() {
	if bc.blockCache.Len() > blockCacheLimit/2 {
		bc.blockCache.Purge()
	}
	if bc.receiptsCache.Len() > receiptsCacheLimit/2 {
		bc.receiptsCache.Purge()
	}
}

// Reopen closes the backing store and opens it again under the given action.
// With ethdb.Kill this wipes the chain and reinitializes from the genesis.
func (bc *BlockChain) Reopen(action ethdb.WithExisting) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if err := bc.db.Close(); err != nil {
		bc.logger.WithField("err", err).Warn("Closing chain database failed")
	}
	db, err := bc.open(bc.dbPath, action)
	if err != nil {
		return errors.Wrap(err, "reopening chain database")
	}
	bc.db = db
	bc.blockCache.Purge()
	bc.tdCache.Purge()
	bc.receiptsCache.Purge()
	return bc.loadLastState()
}

// Database exposes the backing store to the coordinator for state reads.
func (bc *BlockChain) Database() ethdb.Database {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.db
}
