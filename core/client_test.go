package core

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

func TestClientFreshStartServesWork(t *testing.T) {
	env := newTestClient(t, testGenesis(), nil)

	work := env.client.GetWork()
	require.False(t, work.IsEmpty())
	require.NotEqual(t, common.Hash{}, work.HeaderHash)
	require.NotEqual(t, common.Hash{}, work.Boundary)
}

func TestClientTxDrainNotifiesPendingWatch(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client

	watchID := c.InstallWatchID(PendingChangedFilter)

	txs := types.Transactions{
		acc.transfer(t, 0, common.HexToAddress("0xaa"), 1),
		acc.transfer(t, 1, common.HexToAddress("0xaa"), 2),
		acc.transfer(t, 2, common.HexToAddress("0xaa"), 3),
	}
	for _, tx := range txs {
		require.Equal(t, ImportSuccess, c.ImportTransaction(tx))
	}

	waitFor(t, 5*time.Second, func() bool { return len(c.Pending()) == 3 })

	// The pending watch carries the three digests in application order.
	waitFor(t, 5*time.Second, func() bool {
		entries, _ := c.PeekWatch(watchID)
		return len(entries) == 3
	})
	entries, ok := c.CheckWatch(watchID)
	require.True(t, ok)
	for i, entry := range entries {
		require.True(t, entry.Special)
		require.Equal(t, txs[i].Hash(), entry.Hash)
	}

	// Receipts parallel the pending list.
	require.Len(t, c.PendingReceipts(), 3)
	// The peer layer heard about the new transactions.
	env.host.mu.Lock()
	defer env.host.mu.Unlock()
	require.Greater(t, env.host.newTxs, 0)
}

func TestClientBlockImportMovesHead(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client

	b1 := makeBlock(t, c.Chain(), c.Chain().Genesis(), common.HexToAddress("0xc0"), nil, 5)
	require.Equal(t, ImportSuccess, c.ImportBlock(b1.EncodeRLP()))

	waitFor(t, 5*time.Second, func() bool { return c.Chain().CurrentHash() == b1.Hash() })
}

func TestClientReorgResubmitsDeadTransactions(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client
	chain := c.Chain()

	chainWatch := c.InstallWatchID(ChainChangedFilter)

	// Head block carrying a transaction.
	oldTx := acc.transfer(t, 0, common.HexToAddress("0xaa"), 7)
	oldHead := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc1"), types.Transactions{oldTx}, 5)
	require.Equal(t, ImportSuccess, c.ImportBlock(oldHead.EncodeRLP()))
	waitFor(t, 5*time.Second, func() bool { return chain.CurrentHash() == oldHead.Hash() })
	// Drain the chain watch of the first import.
	c.CheckWatch(chainWatch)

	// Empty side branch of length two outranks the head by one block.
	side1 := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc2"), nil, 5)
	side2 := makeBlock(t, chain, side1, common.HexToAddress("0xc2"), nil, 5)
	require.Equal(t, ImportSuccess, c.ImportBlock(side1.EncodeRLP()))
	require.Equal(t, ImportSuccess, c.ImportBlock(side2.EncodeRLP()))

	waitFor(t, 5*time.Second, func() bool { return chain.CurrentHash() == side2.Hash() })

	// The dead block's transaction reappears in the queue (it is not part of
	// the new branch) and lands back in pending on the next drain.
	waitFor(t, 5*time.Second, func() bool {
		return c.TxQueue().Known(oldTx.Hash()) || len(c.Pending()) == 1
	})

	// The chain watch lists both new block hashes.
	waitFor(t, 5*time.Second, func() bool {
		entries, _ := c.PeekWatch(chainWatch)
		return len(entries) >= 2
	})
	entries, _ := c.CheckWatch(chainWatch)
	hashes := make(common.Hashes, 0, len(entries))
	for _, e := range entries {
		require.True(t, e.Special)
		hashes = append(hashes, e.Hash)
	}
	require.True(t, hashes.Contains(side1.Hash()))
	require.True(t, hashes.Contains(side2.Hash()))
}

func TestClientAdaptiveBatchBounds(t *testing.T) {
	// Simulate 2ms-per-block drains: the batch must converge high and stay
	// within bounds whatever the elapsed time does.
	amount := syncMin
	for i := 0; i < 50; i++ {
		amount = adaptBatch(amount, time.Duration(amount)*2*time.Millisecond)
		require.GreaterOrEqual(t, amount, syncMin)
		require.LessOrEqual(t, amount, syncMax)
	}
	require.GreaterOrEqual(t, amount, 80)

	// Slow imports shrink the batch back down, never below the floor.
	for i := 0; i < 100; i++ {
		amount = adaptBatch(amount, 2*time.Second)
		require.GreaterOrEqual(t, amount, syncMin)
	}
	require.Equal(t, syncMin, amount)
}

func TestClientCanaryBlocksWork(t *testing.T) {
	env := newTestClient(t, testGenesis(), nil)
	c := env.client

	// Trip the canary in the visible state.
	c.postMineMu.Lock()
	c.postMine.State().SetState(canaryAddress, common.Hash{}, common.BigToHash(common.Big1))
	c.postMineMu.Unlock()

	require.True(t, c.IsChainBad())
	require.True(t, c.GetWork().IsEmpty())

	c.SetMineOnBadChain(true)
	require.False(t, c.GetWork().IsEmpty())
}

func TestClientUpgradeNeeded(t *testing.T) {
	env := newTestClient(t, testGenesis(), nil)
	c := env.client

	require.False(t, c.IsUpgradeNeeded())
	c.postMineMu.Lock()
	c.postMine.State().SetState(canaryAddress, common.Hash{}, common.BigToHash(common.Big2))
	c.postMineMu.Unlock()
	require.True(t, c.IsUpgradeNeeded())
}

func TestClientSubmitWorkRoundTrip(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), func(cfg *Config) {
		cfg.MinerAddress = common.HexToAddress("0xc0")
	})
	c := env.client

	work := c.GetWork()
	require.False(t, work.IsEmpty())

	c.miningInfoMu.RLock()
	info := c.miningInfo
	c.miningInfoMu.RUnlock()
	require.NotNil(t, info)

	sol, found := SearchNonce(info, 0, 1<<22)
	require.True(t, found)

	require.True(t, c.SubmitWork(sol))
	// The sealed block goes back through the block queue and becomes the new
	// head, credited to the configured miner address.
	waitFor(t, 5*time.Second, func() bool { return c.Chain().CurrentBlock().NumberU64() == 1 })
	require.Equal(t, common.HexToAddress("0xc0"), c.Chain().CurrentBlock().Coinbase())
}

func TestClientWatchGC(t *testing.T) {
	env := newTestClient(t, testGenesis(), nil)
	c := env.client

	watchID := c.InstallWatch(FilterCriteria{})
	// Backdate the poll clock instead of sleeping out the 20s window.
	c.registry.mu.Lock()
	c.registry.watches[watchID].lastPoll = time.Now().Add(-watchIdleTimeout - time.Second)
	c.registry.mu.Unlock()

	c.registry.GC()

	_, ok := c.CheckWatch(watchID)
	require.False(t, ok)
}

func TestClientWatchSurvivesPolling(t *testing.T) {
	env := newTestClient(t, testGenesis(), nil)
	c := env.client

	watchID := c.InstallWatch(FilterCriteria{})
	for i := 0; i < 3; i++ {
		_, ok := c.PeekWatch(watchID)
		require.True(t, ok)
		c.registry.GC()
	}
	_, ok := c.CheckWatch(watchID)
	require.True(t, ok)
}

func TestClientCallCannotFailForFunds(t *testing.T) {
	env := newTestClient(t, testGenesis(), nil)
	c := env.client

	// The sender has no balance at all; the call is credited internally.
	pauper := common.HexToAddress("0xdddd")
	result := c.Call(common.HexToAddress("0xaa"), nil, 50000, big.NewInt(1000), big.NewInt(1), pauper)
	require.False(t, result.Failed)
	require.Equal(t, types.ReceiptStatusSuccessful, result.Status)
	require.Equal(t, uint64(21000), result.GasUsed)

	// Simulation left the real state untouched.
	require.Equal(t, new(big.Int), c.BalanceAt(common.HexToAddress("0xaa")))
}

func TestClientClearPending(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client

	c.ImportTransaction(acc.transfer(t, 0, common.HexToAddress("0xaa"), 1))
	waitFor(t, 5*time.Second, func() bool { return len(c.Pending()) == 1 })

	c.ClearPending()
	require.Empty(t, c.Pending())
	require.Zero(t, c.TxQueue().Size())
}

func TestClientKillChain(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client

	b1 := makeBlock(t, c.Chain(), c.Chain().Genesis(), common.HexToAddress("0xc0"), nil, 5)
	c.ImportBlock(b1.EncodeRLP())
	waitFor(t, 5*time.Second, func() bool { return c.Chain().CurrentBlock().NumberU64() == 1 })

	require.NoError(t, c.KillChain())
	require.Equal(t, uint64(0), c.Chain().CurrentBlock().NumberU64())

	env.host.mu.Lock()
	resets := env.host.resets
	env.host.mu.Unlock()
	require.Equal(t, 1, resets)

	// The reborn client still drains queues.
	c.ImportTransaction(acc.transfer(t, 0, common.HexToAddress("0xaa"), 1))
	waitFor(t, 5*time.Second, func() bool { return len(c.Pending()) == 1 })
}

func TestClientMiningLifecycle(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client

	require.False(t, c.IsMining())
	c.StartMining()
	require.True(t, c.IsMining())
	require.False(t, env.farm.lastWork().IsEmpty())

	c.StopMining()
	require.False(t, c.IsMining())

	// Mining history is intentionally empty.
	require.Empty(t, c.MiningHistory())
}

func TestClientTurboMiningPrefersGPU(t *testing.T) {
	env := newTestClient(t, testGenesis(), func(cfg *Config) {
		cfg.TurboMining = true
	})
	c := env.client

	c.StartMining()
	env.farm.mu.Lock()
	defer env.farm.mu.Unlock()
	require.Greater(t, env.farm.gpu, 0)
	require.Zero(t, env.farm.starts)
}

func TestClientMiningRefusedWhileBlockQueueBusy(t *testing.T) {
	acc := newTestAccount(t)
	env := newTestClient(t, testGenesis(acc.addr), nil)
	c := env.client

	// Stop the worker so queued blocks stay queued.
	c.Stop()

	b1 := makeBlock(t, c.Chain(), c.Chain().Genesis(), common.HexToAddress("0xc0"), nil, 5)
	c.BlockQueue().Import(b1, c.Chain(), false)

	c.miningInfoMu.Lock()
	c.miningInfo = nil
	c.miningInfoMu.Unlock()

	c.StartMining()
	c.miningInfoMu.RLock()
	defer c.miningInfoMu.RUnlock()
	require.Nil(t, c.miningInfo)
}
