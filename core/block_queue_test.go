package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

func TestBlockQueueImportAndDrain(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)

	b1 := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc0"), nil, 5)
	require.Equal(t, ImportSuccess, bq.Import(b1, chain, false))
	require.Equal(t, ImportAlreadyKnown, bq.Import(b1, chain, false))

	batch := bq.Drain(10)
	require.Len(t, batch, 1)
	require.Equal(t, b1.Hash(), batch[0].Hash())

	pending, _ := bq.Items()
	require.Zero(t, pending)
}

func TestBlockQueueRefusesChainKnownBlock(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)
	require.Equal(t, ImportAlreadyInChain, bq.Import(chain.Genesis(), chain, false))
}

func TestBlockQueueParksFutureBlocks(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)

	future := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc0"), nil,
		uint64(time.Now().Unix())+120)
	require.Equal(t, ImportFutureTime, bq.Import(future, chain, false))

	pending, verifying := bq.Items()
	require.Zero(t, pending)
	require.Equal(t, 1, verifying)

	// Not matured yet, Tick keeps it parked.
	bq.Tick(chain)
	pending, verifying = bq.Items()
	require.Zero(t, pending)
	require.Equal(t, 1, verifying)
}

func TestBlockQueueOurBlocksSkipFutureCheck(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)

	future := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc0"), nil,
		uint64(time.Now().Unix())+120)
	require.Equal(t, ImportSuccess, bq.Import(future, chain, true))
}

func TestBlockQueueVerifierScreens(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	verify := func(header *types.Header) error {
		if header.GasLimit == 0 {
			return errors.New("zero gas limit")
		}
		return nil
	}
	bq := NewBlockQueue(verify, testLogger)

	bad := types.NewBlock(&types.Header{
		ParentHash: chain.Genesis().Hash(),
		Number:     common.Big1,
		Difficulty: common.Big1,
	}, nil)
	require.Equal(t, ImportMalformed, bq.Import(bad, chain, false))
	// Once screened out, descendants are poisoned.
	child := types.NewBlock(&types.Header{
		ParentHash: bad.Hash(),
		Number:     common.Big2,
		Difficulty: common.Big1,
		GasLimit:   5000,
	}, nil)
	require.Equal(t, ImportBadChain, bq.Import(child, chain, false))
}

func TestBlockQueueOnReady(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)

	var fired int
	bq.OnReady(func() { fired++ })
	bq.Import(makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc0"), nil, 5), chain, false)
	require.Equal(t, 1, fired)
}

func TestBlockQueueClearKeepsBadSet(t *testing.T) {
	chain := newTestChain(t, testGenesis())
	bq := NewBlockQueue(nil, testLogger)

	b1 := makeBlock(t, chain, chain.Genesis(), common.HexToAddress("0xc0"), nil, 5)
	bq.MarkBad(b1.Hash())
	bq.Clear()
	require.Equal(t, ImportBadChain, bq.Import(b1, chain, false))
}
