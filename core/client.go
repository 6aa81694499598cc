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

// Package core implements the Aurum client coordinator: the component binding
// the canonical chain, the pending-state mining workspace, the transaction
// and block queues, and the peer synchronization capability into one
// consistent machine.
package core

import (
	"math/big"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/ethdb/leveldb"
	"github.com/aurumchain/go-aurum/ethdb/memorydb"
	"github.com/aurumchain/go-aurum/event"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/params"
)

const (
	// Adaptive block-queue drain batch sizing: the batch grows while a drain
	// finishes under the target duration and shrinks when it overshoots.
	syncMin        = 1
	syncMax        = 100
	targetDuration = time.Second

	// workerIdleWait bounds how long the worker sleeps without a signal.
	workerIdleWait = time.Second

	// remoteWorkTimeout is how long after the last getWork request work keeps
	// being prepared for remote miners.
	remoteWorkTimeout = 30 * time.Second

	// tickInterval paces the housekeeping tick; gcInterval paces watch and
	// chain garbage collection.
	tickInterval = time.Second
	gcInterval   = 5 * time.Second
)

// canaryAddress is the well-known account whose storage slot 0 signals
// network-wide health. The original client constructs it from an empty hex
// literal, which is the zero address; that behavior is kept.
var canaryAddress = common.Address{}

// ExecutionResult is the outcome of a simulated call.
type ExecutionResult struct {
	Status  uint64
	GasUsed uint64
	Logs    []*types.Log
	Failed  bool
}

// Client coordinates the blockchain, the queues, the mining pipeline and the
// filter system. All mutable pipeline state lives in the three snapshots
// preMine, working and postMine, each behind its own lock; lock order is
// preMine, then working, then postMine.
type Client struct {
	config *Config

	vc       *VersionChecker
	chain    *BlockChain
	tq       *TxQueue
	bq       *BlockQueue
	gp       GasPricer
	proc     Processor
	farm     Farm
	host     Host
	registry *FilterRegistry
	reporter *badBlockReporter

	preMineMu  sync.RWMutex
	preMine    *PendingState
	workingMu  sync.RWMutex
	working    *PendingState
	postMineMu sync.RWMutex
	postMine   *PendingState

	miningInfoMu sync.RWMutex
	miningInfo   *types.Header

	syncBlockQueueFlag atomic.Bool
	syncTxQueueFlag    atomic.Bool
	remoteWorking      atomic.Bool
	wouldMine          atomic.Bool
	forceMining        atomic.Bool
	mineOnBadChain     atomic.Bool
	turboMining        atomic.Bool
	lastGetWork        atomic.Int64 // unix nanos of the last getWork request

	// worker-goroutine private
	syncAmount int
	lastTick   time.Time
	lastGC     time.Time
	tickCount  int

	chainFeed   event.Feed[ChainEvent]
	reorgFeed   event.Feed[ChainReorgEvent]
	pendingFeed event.Feed[PendingStateEvent]
	headFeed    event.Feed[ChainHeadEvent]

	signalled chan struct{}
	quit      chan struct{}
	running   atomic.Bool
	wg        sync.WaitGroup

	logger log.Logger
}

// NewClient constructs and starts a coordinator. The host and farm
// collaborators may not be nil; the processor defaults to the in-repo
// transfer processor.
func NewClient(config *Config, host Host, farm Farm, proc Processor, forceAction ethdb.WithExisting, logger log.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if proc == nil {
		proc = &TransferProcessor{}
	}
	if logger == nil {
		logger = log.Global
	}
	logger = logger.WithField("component", "client")

	genesis := config.Genesis
	if genesis == nil {
		genesis = DefaultGenesis()
	}
	genesisHash := genesis.ToBlock(memorydb.New()).Hash()

	// A memory-backed run has no persistent store to version-check.
	var vc *VersionChecker
	action := forceAction
	if config.DataDir != "" {
		vc = NewVersionChecker(config.DataDir, genesisHash, logger)
		action = ethdb.Max(vc.Action(), forceAction)
	}

	chain, err := NewBlockChain(dbOpener(config.DataDir, logger), config.DataDir, action, genesis, proc, logger)
	if err != nil {
		return nil, err
	}

	var gp GasPricer
	if config.GasPrice != nil {
		gp = NewTrivialGasPricer(config.GasPrice)
	} else {
		gp = NewBasicGasPricer(CheapestPrice, DefaultPrice, new(big.Int))
	}
	gp.Update(chain)

	c := &Client{
		config:    config,
		vc:        vc,
		chain:     chain,
		tq:        NewTxQueue(logger),
		bq:        NewBlockQueue(nil, logger),
		gp:        gp,
		proc:      proc,
		farm:      farm,
		host:      host,
		registry:  NewFilterRegistry(logger),
		reporter:  newBadBlockReporter(config.SentinelURL, logger),
		signalled: make(chan struct{}, 1),
		quit:      make(chan struct{}),
		logger:    logger,
	}
	c.syncAmount = syncMin
	c.mineOnBadChain.Store(config.MineOnBadChain)
	c.turboMining.Store(config.TurboMining)
	c.forceMining.Store(config.ForceMining)
	c.lastGetWork.Store(time.Now().Add(-remoteWorkTimeout).UnixNano())

	if err := c.resetSnapshots(); err != nil {
		return nil, err
	}

	c.tq.OnReady(c.onTransactionQueueReady)
	c.bq.OnReady(c.onBlockQueueReady)
	c.bq.SetOnBad(c.onBadBlock)
	c.chain.SetOnBad(c.onBadBlock)
	c.farm.OnSolutionFound(c.SubmitWork)

	c.host.RegisterCapability("aur", params.ProtocolVersion)
	c.host.SetNetworkID(config.NetworkID)

	if vc != nil {
		vc.SetOk()
	}

	c.startWorking()
	return c, nil
}

// dbOpener returns the store constructor for the given data directory. An
// empty directory keeps everything in memory.
func dbOpener(dataDir string, logger log.Logger) DBOpener {
	return func(path string, action ethdb.WithExisting) (ethdb.Database, error) {
		if dataDir == "" {
			return memorydb.New(), nil
		}
		chainPath := filepath.Join(path, "chaindata")
		if action == ethdb.Kill {
			if err := os.RemoveAll(chainPath); err != nil {
				return nil, errors.Wrap(err, "wiping chain database")
			}
		}
		return leveldb.New(chainPath, 128, 128, logger)
	}
}

// resetSnapshots rebuilds the three pipeline snapshots from the chain head.
func (c *Client) resetSnapshots() error {
	c.preMineMu.Lock()
	defer c.preMineMu.Unlock()
	c.workingMu.Lock()
	defer c.workingMu.Unlock()
	c.postMineMu.Lock()
	defer c.postMineMu.Unlock()

	preMine, err := newPendingState(c.chain, c.proc, c.config.MinerAddress, c.config.ExtraData, c.logger)
	if err != nil {
		return err
	}
	c.preMine = preMine
	c.working = preMine.Copy()
	c.postMine = preMine.Copy()
	return nil
}

func (c *Client) startWorking() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go c.update()
}

// Stop halts the worker loop and the mining farm. In-flight drains finish
// their current batch.
func (c *Client) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.quit)
	c.signal()
	c.wg.Wait()
	c.farm.Stop()
}

// Close stops the coordinator and releases the backing store.
func (c *Client) Close() error {
	c.Stop()
	return c.chain.Database().Close()
}

func (c *Client) signal() {
	select {
	case c.signalled <- struct{}{}:
	default:
	}
}

func (c *Client) onTransactionQueueReady() {
	c.syncTxQueueFlag.Store(true)
	c.signal()
}

func (c *Client) onBlockQueueReady() {
	c.syncBlockQueueFlag.Store(true)
	c.signal()
}

func (c *Client) onBadBlock(err *BadBlockError) {
	c.reporter.report(err)
}

// update is the worker loop. Queue callbacks raise flags and signal the
// condition channel; the loop drains whatever is flagged. A panic inside one
// iteration is logged and the loop continues.
func (c *Client) update() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		default:
		}
		c.doWork()
	}
}

func (c *Client) doWork() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(log.Fields{
				"error":      r,
				"stacktrace": string(debug.Stack()),
			}).Error("Worker iteration panicked")
		}
	}()

	if c.syncBlockQueueFlag.CompareAndSwap(true, false) {
		c.syncBlockQueue()
	}
	// Block drains take precedence; the transaction drain also yields while
	// the peer layer is still downloading the chain. A skipped drain is not
	// re-armed: it runs again on the next readiness signal (an onReady
	// callback, or onChainChanged once the block queue is quiet), and the
	// consumed flag lets the idle wait below fire.
	if c.syncTxQueueFlag.CompareAndSwap(true, false) && !c.syncBlockQueueFlag.Load() && !c.host.IsSyncing() {
		c.syncTransactionQueue()
	}

	c.tick()

	if !c.syncBlockQueueFlag.Load() && !c.syncTxQueueFlag.Load() {
		select {
		case <-c.signalled:
		case <-c.quit:
		case <-time.After(workerIdleWait):
		}
	}
}

// syncBlockQueue drains one batch from the block queue into the chain,
// adapting the batch size toward the target drain duration.
func (c *Client) syncBlockQueue() {
	start := time.Now()
	live, dead, more := c.chain.Sync(c.bq, c.syncAmount)
	elapsed := time.Since(start)

	c.logger.WithFields(log.Fields{
		"batch":   c.syncAmount,
		"elapsed": elapsed,
	}).Debug("Drained block queue")

	c.syncAmount = adaptBatch(c.syncAmount, elapsed)
	if more {
		c.syncBlockQueueFlag.Store(true)
	}
	if len(live) == 0 {
		return
	}
	c.onChainChanged(live, dead)
}

// adaptBatch resizes the drain batch toward the target duration: shrink by a
// tenth on overshoot, grow by a tenth plus one on undershoot, clamped to
// [syncMin, syncMax].
func adaptBatch(amount int, elapsed time.Duration) int {
	if elapsed > targetDuration*11/10 && amount > syncMin {
		amount = amount * 9 / 10
		if amount < syncMin {
			amount = syncMin
		}
	} else if elapsed < targetDuration*9/10 && amount < syncMax {
		amount = amount*11/10 + 1
		if amount > syncMax {
			amount = syncMax
		}
	}
	return amount
}

// syncTransactionQueue applies ready transactions to the working snapshot and
// publishes the result as the new post-mine state.
func (c *Client) syncTransactionQueue() {
	c.workingMu.Lock()
	fresh := c.working.SyncQueue(c.chain, c.tq, c.gp)
	c.workingMu.Unlock()

	if len(fresh) == 0 {
		return
	}

	c.workingMu.RLock()
	snapshot := c.working.Copy()
	c.workingMu.RUnlock()

	c.postMineMu.Lock()
	c.postMine = snapshot
	c.postMineMu.Unlock()

	changed := mapset.NewSet()
	c.postMineMu.RLock()
	pending := c.postMine.Pending()
	offset := len(pending) - len(fresh)
	for i, receipt := range fresh {
		c.registry.AppendFromNewPending(receipt, changed, pending[offset+i].Hash())
	}
	freshTxs := append(types.Transactions(nil), pending[offset:]...)
	c.postMineMu.RUnlock()

	// Tell the farm about the new transactions, then the watches, then the
	// network.
	c.onPostStateChanged()
	c.registry.NoteChanged(changed)
	c.host.NoteNewTransactions()
	c.pendingFeed.Send(PendingStateEvent{Txs: freshTxs})
}

// onChainChanged applies the reorg transaction policy, feeds the filter
// pipeline, and re-seeds the mining snapshots when the head moved.
func (c *Client) onChainChanged(live, dead common.Hashes) {
	// Transactions of dying blocks go back into the queue; they may land in
	// pending again unless the new branch already contains them.
	for _, h := range dead {
		c.logger.WithField("hash", h).Debug("Dead block")
		for _, tx := range c.chain.Transactions(h) {
			c.logger.WithField("hash", tx.Hash()).Debug("Resubmitting dead-block transaction")
			c.tq.Import(tx, nil, RetryDropped)
		}
	}
	// Transactions of freshly canonical blocks leave the queue for good.
	for _, h := range live {
		c.logger.WithField("hash", h).Debug("Live block")
		for _, th := range c.chain.TransactionHashes(h) {
			c.tq.Drop(th)
		}
	}

	c.host.NoteNewBlocks()

	changed := mapset.NewSet()
	for _, h := range live {
		header := c.chain.Info(h)
		txs := c.chain.Transactions(h)
		receipts := c.chain.Receipts(h)
		c.registry.AppendFromNewBlock(h, header, txs, receipts, changed)

		var logs []*types.Log
		for _, r := range receipts {
			logs = append(logs, r.Logs...)
		}
		c.chainFeed.Send(ChainEvent{Block: c.chain.GetBlock(h), Hash: h, Logs: logs})
	}

	// Restart mining on the new head once the block queue has gone quiet.
	if pending, _ := c.bq.Items(); pending == 0 {
		c.preMineMu.Lock()
		preChanged, err := c.preMine.Sync(c.chain)
		if err != nil {
			c.logger.WithField("err", err).Error("Failed to sync pre-mine state")
			preChanged = false
		}
		preCoinbase := c.preMine.Coinbase()
		c.preMineMu.Unlock()

		c.postMineMu.RLock()
		postCoinbase := c.postMine.Coinbase()
		priorPending := c.postMine.Pending()
		c.postMineMu.RUnlock()

		if preChanged || preCoinbase != postCoinbase {
			if c.IsMining() {
				c.logger.Info("New block on chain.")
			}

			c.preMineMu.RLock()
			fresh := c.preMine.Copy()
			c.preMineMu.RUnlock()

			c.workingMu.Lock()
			c.working = fresh
			c.workingMu.Unlock()

			// Prior pending transactions go back through the queue rather
			// than being grandfathered into the new snapshot.
			for _, tx := range priorPending {
				c.logger.WithField("hash", tx.Hash()).Debug("Resubmitting post-mine transaction")
				if res := c.tq.Import(tx, nil, RetryDropped); res != ImportSuccess {
					c.onTransactionQueueReady()
				}
			}

			c.workingMu.RLock()
			snapshot := c.working.Copy()
			c.workingMu.RUnlock()
			c.postMineMu.Lock()
			c.postMine = snapshot
			c.postMineMu.Unlock()

			changed.Add(PendingChangedFilter)
			c.onPostStateChanged()
		}

		// The queue may already hold the resubmitted transactions; drain it
		// again rather than waiting for the next import signal.
		c.onTransactionQueueReady()
	}

	c.registry.NoteChanged(changed)
	c.reorgFeed.Send(ChainReorgEvent{Live: live, Dead: dead})
	c.headFeed.Send(ChainHeadEvent{Block: c.chain.CurrentBlock()})
}

// onPostStateChanged reshuffles mining work after the post-state moved.
func (c *Client) onPostStateChanged() {
	c.logger.Debug("Post state changed.")
	c.rejigMining()
	c.remoteWorking.Store(false)
}

func (c *Client) remoteActive() bool {
	return time.Since(time.Unix(0, c.lastGetWork.Load())) < remoteWorkTimeout
}

func (c *Client) shouldServeWork() bool {
	return c.wouldMine.Load() || c.remoteActive()
}

// rejigMining is the single decision point for mining activity. Work is
// prepared iff someone wants it (local miner or a recent remote getWork), the
// block queue is quiet, and the chain is healthy or overridden.
func (c *Client) rejigMining() {
	pending, _ := c.bq.Items()
	if (c.wouldMine.Load() || c.remoteActive()) && pending == 0 && (!c.IsChainBad() || c.mineOnBadChain.Load()) {
		c.logger.Debug("Rejigging mining...")

		c.workingMu.Lock()
		c.working.CommitToMine(c.chain)
		c.workingMu.Unlock()

		c.workingMu.RLock()
		snapshot := c.working.Copy()
		c.workingMu.RUnlock()

		c.postMineMu.Lock()
		c.postMine = snapshot
		info := c.postMine.Info()
		work := c.postMine.WorkPackage()
		c.postMineMu.Unlock()

		c.miningInfoMu.Lock()
		c.miningInfo = info
		c.miningInfoMu.Unlock()

		if c.wouldMine.Load() {
			c.farm.SetWork(work)
			if c.turboMining.Load() {
				c.farm.StartGPU()
			} else {
				c.farm.StartCPU()
			}
			// Make sure the dataset for the current epoch is precomputed
			// before the workers need it.
			SeedHash(info.NumberU64())
		}
	}
	if !c.wouldMine.Load() {
		c.farm.Stop()
	}
}

// GetWork returns the current search package for remote miners, preparing
// one if work was not already being served.
func (c *Client) GetWork() WorkPackage {
	// Lock in the serving decision before refreshing the activity clock, so
	// the first request on an idle client triggers preparation itself.
	oldShould := c.shouldServeWork()
	c.lastGetWork.Store(time.Now().UnixNano())

	if !c.mineOnBadChain.Load() && c.IsChainBad() {
		return WorkPackage{}
	}

	if !oldShould && c.shouldServeWork() {
		c.onPostStateChanged()
	} else {
		// Work is already flowing; the refreshed activity clock above keeps
		// rejigMining preparing work for the remote miner.
		c.remoteWorking.Store(true)
	}

	c.postMineMu.RLock()
	work := c.postMine.WorkPackage()
	c.postMineMu.RUnlock()
	if work.IsEmpty() {
		// Serving was enabled but nothing has been committed yet, e.g. the
		// canary was only just overridden. Prepare on the spot.
		c.onPostStateChanged()
		c.postMineMu.RLock()
		work = c.postMine.WorkPackage()
		c.postMineMu.RUnlock()
	}
	return work
}

// SubmitWork applies a proof-of-work solution to the working snapshot. On
// success the sealed block is fed back through the block queue for normal
// import and the post-mine state is replaced.
func (c *Client) SubmitWork(sol Solution) bool {
	c.workingMu.Lock()
	if !c.working.CompleteSeal(sol) {
		c.workingMu.Unlock()
		return false
	}
	c.workingMu.Unlock()

	c.workingMu.RLock()
	newBlock := c.working.BlockBytes()
	snapshot := c.working.Copy()
	c.workingMu.RUnlock()

	c.postMineMu.Lock()
	c.postMine = snapshot
	c.postMineMu.Unlock()

	c.bq.ImportBytes(newBlock, c.chain, true)
	return true
}

// StartMining turns local mining intent on.
func (c *Client) StartMining() {
	c.wouldMine.Store(true)
	c.rejigMining()
}

// StopMining turns local mining intent off.
func (c *Client) StopMining() {
	c.wouldMine.Store(false)
	c.rejigMining()
}

// IsMining reports whether the farm has active workers.
func (c *Client) IsMining() bool {
	return c.farm.IsMining()
}

// SetForceMining records the force-mining flag and restarts mining if it is
// active. Work is prepared on an empty transaction queue whether or not the
// flag is set.
func (c *Client) SetForceMining(enable bool) {
	c.forceMining.Store(enable)
	if c.IsMining() {
		c.StartMining()
	}
}

// SetMineOnBadChain toggles ignoring the canary.
func (c *Client) SetMineOnBadChain(enable bool) {
	c.mineOnBadChain.Store(enable)
}

// SetTurboMining toggles the GPU worker preference.
func (c *Client) SetTurboMining(enable bool) {
	c.turboMining.Store(enable)
}

// Hashrate reports the farm's search speed.
func (c *Client) Hashrate() uint64 {
	if c.farm.IsMining() {
		return c.farm.MiningProgress().Rate()
	}
	return 0
}

// MiningProgress reports the farm's search statistics.
func (c *Client) MiningProgress() MiningProgress {
	if c.farm.IsMining() {
		return c.farm.MiningProgress()
	}
	return MiningProgress{}
}

// MiningHistory returns the per-worker mining history. It is always empty.
func (c *Client) MiningHistory() []MiningProgress {
	return nil
}

// IsChainBad consults the canary: any non-zero value in its slot 0 marks the
// chain bad.
func (c *Client) IsChainBad() bool {
	return c.StateAt(canaryAddress, common.Hash{}) != (common.Hash{})
}

// IsUpgradeNeeded reports whether the canary demands a client upgrade.
func (c *Client) IsUpgradeNeeded() bool {
	return c.StateAt(canaryAddress, common.Hash{}) == common.BigToHash(common.Big2)
}

// StateAt reads a storage slot from the post-mine state.
func (c *Client) StateAt(addr common.Address, key common.Hash) common.Hash {
	c.postMineMu.RLock()
	defer c.postMineMu.RUnlock()
	return c.postMine.State().GetState(addr, key)
}

// BalanceAt reads an account balance from the post-mine state.
func (c *Client) BalanceAt(addr common.Address) *big.Int {
	c.postMineMu.RLock()
	defer c.postMineMu.RUnlock()
	return c.postMine.State().GetBalance(addr)
}

// NonceAt reads an account nonce from the post-mine state.
func (c *Client) NonceAt(addr common.Address) uint64 {
	c.postMineMu.RLock()
	defer c.postMineMu.RUnlock()
	return c.postMine.State().GetNonce(addr)
}

// AsOf re-materializes the account state as of the given block. Failures are
// reported through the bad-block pipeline and yield an empty state.
func (c *Client) AsOf(blockHash common.Hash) *StateDB {
	empty, _ := NewStateDB(c.chain.Database(), common.Hash{})
	block := c.chain.GetBlock(blockHash)
	if block == nil {
		return empty
	}
	statedb, err := c.chain.StateAt(block.Root())
	if err != nil {
		c.onBadBlock(NewBadBlockError(block, err.Error(), nil))
		return empty
	}
	return statedb
}

// StateAtTransaction re-materializes the state of a block after its first
// txIndex transactions. With the zero hash it replays the post-mine pending
// list instead.
func (c *Client) StateAtTransaction(blockHash common.Hash, txIndex int) (*StateDB, error) {
	if blockHash == (common.Hash{}) {
		c.postMineMu.RLock()
		defer c.postMineMu.RUnlock()
		return c.postMine.FromPending(c.chain, txIndex)
	}
	block := c.chain.GetBlock(blockHash)
	if block == nil {
		return nil, errors.New("unknown block")
	}
	parent := c.chain.GetBlock(block.ParentHash())
	if parent == nil {
		return nil, ErrUnknownAncestor
	}
	statedb, err := c.chain.StateAt(parent.Root())
	if err != nil {
		c.onBadBlock(NewBadBlockError(block, err.Error(), nil))
		return nil, err
	}
	header := block.Header()
	env := types.CopyHeader(header)
	env.GasUsed = 0
	gasPool := header.GasLimit
	txs := block.Transactions()
	if txIndex > len(txs) {
		txIndex = len(txs)
	}
	for i := 0; i < txIndex; i++ {
		receipt, err := c.proc.ApplyTransaction(statedb, env, txs[i], &gasPool)
		if err != nil {
			badErr := NewBadBlockError(block, err.Error(), Hints{"transactionIndex": i})
			c.onBadBlock(badErr)
			return nil, badErr
		}
		env.GasUsed += receipt.GasUsed
	}
	return statedb, nil
}

// Call simulates a transaction against a copy of the post-mine state. The
// sender is credited with enough balance that the call cannot fail for
// insufficient funds. Simulation errors are folded into the result.
func (c *Client) Call(dest common.Address, data []byte, gas uint64, value, gasPrice *big.Int, from common.Address) ExecutionResult {
	if value == nil {
		value = new(big.Int)
	}
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}

	c.postMineMu.RLock()
	temp := c.postMine.State().Copy()
	env := types.CopyHeader(c.postMine.env)
	c.postMineMu.RUnlock()

	credit := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gas))
	credit.Add(credit, value)
	temp.AddBalance(from, credit)

	tx := types.NewTransaction(temp.GetNonce(from), dest, value, gas, gasPrice, data).WithFakeSender(from)
	gasPool := env.GasLimit
	receipt, err := c.proc.ApplyTransaction(temp, env, tx, &gasPool)
	if err != nil {
		return ExecutionResult{Failed: true}
	}
	return ExecutionResult{
		Status:  receipt.Status,
		GasUsed: receipt.GasUsed,
		Logs:    receipt.Logs,
	}
}

// ClearPending drops the pending transactions and the queue, resetting the
// working and post-mine states back to the chain head.
func (c *Client) ClearPending() {
	c.postMineMu.RLock()
	pending := len(c.postMine.Pending())
	c.postMineMu.RUnlock()
	if pending == 0 {
		return
	}
	c.tq.Clear()

	// Lock order: preMine, working, postMine.
	c.preMineMu.RLock()
	fresh := c.preMine.Copy()
	c.preMineMu.RUnlock()
	c.workingMu.Lock()
	c.working = fresh.Copy()
	c.workingMu.Unlock()
	c.postMineMu.Lock()
	c.postMine = fresh
	c.postMineMu.Unlock()

	c.StartMining()
	c.registry.NoteChanged(mapset.NewSet())
}

// KillChain stops all activity, wipes the on-disk chain and state, reopens
// fresh, and restarts mining if it was on.
func (c *Client) KillChain() error {
	wasMining := c.IsMining()
	if wasMining {
		c.StopMining()
	}
	c.Stop()

	c.tq.Clear()
	c.bq.Clear()
	c.farm.Stop()

	c.preMineMu.Lock()
	c.workingMu.Lock()
	c.postMineMu.Lock()
	err := c.chain.Reopen(ethdb.Kill)
	c.postMineMu.Unlock()
	c.workingMu.Unlock()
	c.preMineMu.Unlock()
	if err != nil {
		return err
	}
	if err := c.resetSnapshots(); err != nil {
		return err
	}

	c.host.Reset()

	c.quit = make(chan struct{})
	c.startWorking()
	if wasMining {
		c.StartMining()
	}
	return nil
}

// FlushTransactions synchronously drains the transaction queue into the
// pending state.
func (c *Client) FlushTransactions() {
	c.syncTxQueueFlag.Store(false)
	c.syncTransactionQueue()
}

// tick runs the once-per-second housekeeping: block queue retries, watch and
// chain garbage collection, and the periodic activity report.
func (c *Client) tick() {
	if time.Since(c.lastTick) < tickInterval {
		return
	}
	c.lastTick = time.Now()
	c.tickCount++
	c.bq.Tick(c.chain)

	if time.Since(c.lastGC) > gcInterval {
		c.registry.GC()
		c.chain.GarbageCollect()
		c.lastGC = time.Now()
	}
	if c.tickCount%15 == 0 {
		c.logger.WithField("ticks", c.tickCount).Trace("Worker activity")
	}
}

// --- queue, chain and filter accessors ---

// ImportTransaction feeds a signed transaction into the queue.
func (c *Client) ImportTransaction(tx *types.Transaction) ImportResult {
	return c.tq.Import(tx, nil, IgnoreDropped)
}

// ImportBlock feeds a raw block into the import queue.
func (c *Client) ImportBlock(data []byte) ImportResult {
	return c.bq.ImportBytes(data, c.chain, false)
}

// Pending returns the post-mine pending transactions.
func (c *Client) Pending() types.Transactions {
	c.postMineMu.RLock()
	defer c.postMineMu.RUnlock()
	return c.postMine.Pending()
}

// PendingReceipts returns the receipts parallel to Pending.
func (c *Client) PendingReceipts() types.Receipts {
	c.postMineMu.RLock()
	defer c.postMineMu.RUnlock()
	return c.postMine.Receipts()
}

// Chain exposes the canonical chain.
func (c *Client) Chain() *BlockChain { return c.chain }

// TxQueue exposes the transaction queue.
func (c *Client) TxQueue() *TxQueue { return c.tq }

// BlockQueue exposes the block import queue.
func (c *Client) BlockQueue() *BlockQueue { return c.bq }

// GasPricer exposes the price estimator.
func (c *Client) GasPricer() GasPricer { return c.gp }

// InstallWatch installs a filter and a watch for the criteria.
func (c *Client) InstallWatch(criteria FilterCriteria) uint64 {
	return c.registry.InstallWatch(criteria)
}

// InstallWatchID installs a watch on an existing or sentinel filter id.
func (c *Client) InstallWatchID(filterID common.Hash) uint64 {
	return c.registry.InstallWatchID(filterID)
}

// UninstallWatch removes a watch.
func (c *Client) UninstallWatch(id uint64) bool {
	return c.registry.UninstallWatch(id)
}

// PeekWatch returns a watch's buffered changes without draining.
func (c *Client) PeekWatch(id uint64) ([]WatchEntry, bool) {
	return c.registry.PeekWatch(id)
}

// CheckWatch drains and returns a watch's buffered changes.
func (c *Client) CheckWatch(id uint64) ([]WatchEntry, bool) {
	return c.registry.CheckWatch(id)
}

// SetNetworkID changes the advertised network membership.
func (c *Client) SetNetworkID(id uint64) {
	c.host.SetNetworkID(id)
}

// SyncStatus reports the peer layer's download progress.
func (c *Client) SyncStatus() SyncStatus {
	return c.host.Status()
}

// IsSyncing reports whether a chain download is in progress.
func (c *Client) IsSyncing() bool {
	return c.host.IsSyncing()
}

// SubscribeChainEvent registers a subscription of ChainEvent.
func (c *Client) SubscribeChainEvent(ch chan<- ChainEvent) event.Subscription {
	return c.chainFeed.Subscribe(ch)
}

// SubscribeChainReorgEvent registers a subscription of ChainReorgEvent.
func (c *Client) SubscribeChainReorgEvent(ch chan<- ChainReorgEvent) event.Subscription {
	return c.reorgFeed.Subscribe(ch)
}

// SubscribePendingStateEvent registers a subscription of PendingStateEvent.
func (c *Client) SubscribePendingStateEvent(ch chan<- PendingStateEvent) event.Subscription {
	return c.pendingFeed.Subscribe(ch)
}

// SubscribeChainHeadEvent registers a subscription of ChainHeadEvent.
func (c *Client) SubscribeChainHeadEvent(ch chan<- ChainHeadEvent) event.Subscription {
	return c.headFeed.Subscribe(ch)
}
