package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/ethdb"
)

func TestChainStartsAtGenesis(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	require.Equal(t, uint64(0), chain.CurrentBlock().NumberU64())
	require.Equal(t, chain.Genesis().Hash(), chain.CurrentHash())
}

func TestChainExtendsHead(t *testing.T) {
	acc := newTestAccount(t)
	chain := newTestChain(t, testGenesis(acc.addr))
	bq := NewBlockQueue(nil, testLogger)

	coinbase := common.HexToAddress("0xc0")
	b1 := makeBlock(t, chain, chain.Genesis(), coinbase, types.Transactions{
		acc.transfer(t, 0, common.HexToAddress("0xaa"), 100),
	}, 5)
	require.Equal(t, ImportSuccess, bq.Import(b1, chain, false))

	live, dead, more := chain.Sync(bq, 10)
	require.False(t, more)
	require.Empty(t, dead)
	require.Equal(t, common.Hashes{b1.Hash()}, live)
	require.Equal(t, b1.Hash(), chain.CurrentHash())

	// The transfer and the fees are visible in the committed state.
	statedb, err := chain.StateAt(b1.Root())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), statedb.GetBalance(common.HexToAddress("0xaa")))
	require.Equal(t, uint64(1), statedb.GetNonce(acc.addr))

	// Receipts were persisted alongside.
	receipts := chain.Receipts(b1.Hash())
	require.Len(t, receipts, 1)
	require.Equal(t, uint64(21000), receipts[0].GasUsed)
}

func TestChainReorgToHeavierBranch(t *testing.T) {
	acc := newTestAccount(t)
	chain := newTestChain(t, testGenesis(acc.addr))
	bq := NewBlockQueue(nil, testLogger)

	// Canonical head with one transaction.
	oldTx := acc.transfer(t, 0, common.HexToAddress("0xaa"), 7)
	oldHead := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc1"), types.Transactions{oldTx}, 5)
	bq.Import(oldHead, chain, false)
	live, _, _ := chain.Sync(bq, 10)
	require.Equal(t, common.Hashes{oldHead.Hash()}, live)

	// A two-block empty side branch outranks the single head.
	side1 := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc2"), nil, 5)
	side2 := makeBlock(t, chain, side1, common.HexToAddress("0xc2"), nil, 5)
	bq.Import(side1, chain, false)
	bq.Import(side2, chain, false)

	live, dead, _ := chain.Sync(bq, 10)
	require.Equal(t, common.Hashes{oldHead.Hash()}, dead)
	require.Equal(t, common.Hashes{side1.Hash(), side2.Hash()}, live)
	require.Equal(t, side2.Hash(), chain.CurrentHash())

	// Canonical number mapping follows the new branch.
	require.Equal(t, side1.Hash(), chain.GetCanonicalHash(1))
	require.Equal(t, side2.Hash(), chain.GetCanonicalHash(2))
}

func TestChainRejectsUnknownParent(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)

	orphan := &types.Header{
		ParentHash: common.HexToHash("0xdead"),
		Number:     big.NewInt(1),
		Difficulty: big.NewInt(131072),
		GasLimit:   5000000,
		Time:       10,
	}
	orphan.TxHash = types.DeriveTxsHash(nil)
	orphan.ReceiptHash = types.DeriveReceiptsHash(nil)
	bq.Import(types.NewBlock(orphan, nil), chain, false)

	live, dead, _ := chain.Sync(bq, 10)
	require.Empty(t, live)
	require.Empty(t, dead)
	// The orphan is parked for a later attempt.
	_, verifying := bq.Items()
	require.Equal(t, 1, verifying)
}

func TestChainReportsBadBlock(t *testing.T) {
	acc := newTestAccount(t)
	chain := newTestChain(t, testGenesis(acc.addr))
	bq := NewBlockQueue(nil, testLogger)

	var reported *BadBlockError
	chain.SetOnBad(func(err *BadBlockError) { reported = err })
	bq.SetOnBad(func(err *BadBlockError) {})

	// Corrupt the state root of an otherwise valid block.
	block := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc3"), nil, 5)
	header := block.Header()
	header.Root = common.HexToHash("0xbad")
	header.TxHash = types.DeriveTxsHash(nil)
	header.ReceiptHash = types.DeriveReceiptsHash(nil)
	bad := types.NewBlock(header, nil)

	bq.Import(bad, chain, false)
	live, _, _ := chain.Sync(bq, 10)
	require.Empty(t, live)
	require.NotNil(t, reported)
	require.Contains(t, reported.Reason, "state root")
	require.Contains(t, reported.Hints, "required_h256")

	// Descendants of the bad block are refused outright.
	child := &types.Header{
		ParentHash: bad.Hash(),
		Number:     big.NewInt(2),
		Difficulty: big.NewInt(131072),
		GasLimit:   5000000,
		Time:       20,
	}
	require.Equal(t, ImportBadChain, bq.Import(types.NewBlock(child, nil), chain, false))
}

func TestChainReopenKillWipes(t *testing.T) {
	acc := newTestAccount(t)
	chain := newTestChain(t, testGenesis(acc.addr))
	bq := NewBlockQueue(nil, testLogger)

	b1 := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc4"), nil, 5)
	bq.Import(b1, chain, false)
	chain.Sync(bq, 10)
	require.Equal(t, uint64(1), chain.CurrentBlock().NumberU64())

	require.NoError(t, chain.Reopen(ethdb.Kill))
	require.Equal(t, uint64(0), chain.CurrentBlock().NumberU64())
}
