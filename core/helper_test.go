package core

import (
	"crypto/ecdsa"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/ethdb/memorydb"
	"github.com/aurumchain/go-aurum/log"
)

var testLogger = log.New(log.WithNullLogger())

// fakeHost records the notifications the client sends to the peer layer.
type fakeHost struct {
	mu        sync.Mutex
	newTxs    int
	newBlocks int
	resets    int
	syncing   atomic.Bool
}

func (h *fakeHost) RegisterCapability(string, uint64) {}
func (h *fakeHost) Status() SyncStatus                { return SyncStatus{} }
func (h *fakeHost) SetNetworkID(uint64)               {}
func (h *fakeHost) IsSyncing() bool                   { return h.syncing.Load() }

func (h *fakeHost) NoteNewTransactions() {
	h.mu.Lock()
	h.newTxs++
	h.mu.Unlock()
}

func (h *fakeHost) NoteNewBlocks() {
	h.mu.Lock()
	h.newBlocks++
	h.mu.Unlock()
}

func (h *fakeHost) Reset() {
	h.mu.Lock()
	h.resets++
	h.mu.Unlock()
}

// fakeFarm records work packages; it never searches on its own.
type fakeFarm struct {
	mu      sync.Mutex
	work    WorkPackage
	mining  bool
	onFound func(Solution) bool
	starts  int
	gpu     int
}

func (f *fakeFarm) SetWork(work WorkPackage) {
	f.mu.Lock()
	f.work = work
	f.mu.Unlock()
}

func (f *fakeFarm) StartCPU() {
	f.mu.Lock()
	f.mining = true
	f.starts++
	f.mu.Unlock()
}

func (f *fakeFarm) StartGPU() {
	f.mu.Lock()
	f.mining = true
	f.gpu++
	f.mu.Unlock()
}

func (f *fakeFarm) Stop() {
	f.mu.Lock()
	f.mining = false
	f.mu.Unlock()
}

func (f *fakeFarm) IsMining() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mining
}

func (f *fakeFarm) MiningProgress() MiningProgress { return MiningProgress{} }

func (f *fakeFarm) OnSolutionFound(fn func(Solution) bool) {
	f.mu.Lock()
	f.onFound = fn
	f.mu.Unlock()
}

func (f *fakeFarm) lastWork() WorkPackage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.work
}

type testAccount struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newTestAccount(t *testing.T) testAccount {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testAccount{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (a testAccount) transfer(t *testing.T, nonce uint64, to common.Address, amount int64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, to, big.NewInt(amount), 21000, big.NewInt(1), nil)
	signed, err := types.SignTx(tx, a.key)
	require.NoError(t, err)
	return signed
}

func testGenesis(funded ...common.Address) *Genesis {
	alloc := make(map[common.Address]*big.Int)
	for _, addr := range funded {
		alloc[addr] = new(big.Int).Mul(big.NewInt(1000), BlockReward)
	}
	g := DefaultGenesis()
	g.Alloc = alloc
	return g
}

func memOpener(path string, action ethdb.WithExisting) (ethdb.Database, error) {
	return memorydb.New(), nil
}

func newTestChain(t *testing.T, genesis *Genesis) *BlockChain {
	t.Helper()
	chain, err := NewBlockChain(memOpener, "", ethdb.Trust, genesis, &TransferProcessor{}, testLogger)
	require.NoError(t, err)
	return chain
}

type testEnv struct {
	client *Client
	host   *fakeHost
	farm   *fakeFarm
}

func newTestClient(t *testing.T, genesis *Genesis, mod func(*Config)) *testEnv {
	t.Helper()
	config := DefaultConfig()
	config.Genesis = genesis
	if mod != nil {
		mod(config)
	}
	host := &fakeHost{}
	farm := &fakeFarm{}
	client, err := NewClient(config, host, farm, nil, ethdb.Trust, testLogger)
	require.NoError(t, err)
	t.Cleanup(client.Stop)
	return &testEnv{client: client, host: host, farm: farm}
}

// makeBlock builds a fully valid block on top of parent, mirroring exactly
// what the chain's import derives: rolling gas, commitments and the rewarded
// state root.
func makeBlock(t *testing.T, chain *BlockChain, parent *types.Block, coinbase common.Address, txs types.Transactions, timeOffset uint64) *types.Block {
	t.Helper()
	statedb, err := chain.StateAt(parent.Root())
	require.NoError(t, err)

	header := &types.Header{
		ParentHash: parent.Hash(),
		Coinbase:   coinbase,
		Number:     new(big.Int).Add(parent.Number(), common.Big1),
		Difficulty: CalcDifficulty(parent.Header(), parent.Time()+timeOffset),
		GasLimit:   CalcGasLimit(parent.Header()),
		Time:       parent.Time() + timeOffset,
	}

	proc := &TransferProcessor{}
	gasPool := header.GasLimit
	var receipts types.Receipts
	for _, tx := range txs {
		receipt, err := proc.ApplyTransaction(statedb, header, tx, &gasPool)
		require.NoError(t, err)
		header.GasUsed += receipt.GasUsed
		receipts = append(receipts, receipt)
	}
	applyReward(statedb, coinbase)

	header.Root = statedb.Commit()
	header.TxHash = types.DeriveTxsHash(txs)
	header.ReceiptHash = types.DeriveReceiptsHash(receipts)
	return types.NewBlock(header, txs)
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not reached within timeout")
}
