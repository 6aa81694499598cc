package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

func TestTxQueueImportAndDedup(t *testing.T) {
	acc := newTestAccount(t)
	tq := NewTxQueue(testLogger)

	tx := acc.transfer(t, 0, common.HexToAddress("0xaa"), 1)
	require.Equal(t, ImportSuccess, tq.Import(tx, nil, IgnoreDropped))
	require.Equal(t, ImportAlreadyKnown, tq.Import(tx, nil, IgnoreDropped))
	require.Equal(t, 1, tq.Size())
}

func TestTxQueueRejectsMalformed(t *testing.T) {
	tq := NewTxQueue(testLogger)
	require.Equal(t, ImportMalformed, tq.ImportBytes([]byte{0x01, 0x02}, nil, IgnoreDropped))

	// Unsigned transactions have no recoverable sender.
	unsigned := types.NewTransaction(0, common.HexToAddress("0xaa"), big.NewInt(1), 21000, big.NewInt(1), nil)
	require.Equal(t, ImportMalformed, tq.Import(unsigned, nil, IgnoreDropped))
}

func TestTxQueueDropAndRetrySemantics(t *testing.T) {
	acc := newTestAccount(t)
	tq := NewTxQueue(testLogger)

	tx := acc.transfer(t, 0, common.HexToAddress("0xaa"), 1)
	tq.Import(tx, nil, IgnoreDropped)
	tq.Drop(tx.Hash())
	require.False(t, tq.Known(tx.Hash()))

	// A dropped transaction is refused by default...
	require.Equal(t, ImportAlreadyKnown, tq.Import(tx, nil, IgnoreDropped))
	require.Equal(t, 0, tq.Size())

	// ...but reorgs resurrect it with retry semantics.
	require.Equal(t, ImportSuccess, tq.Import(tx, nil, RetryDropped))
	require.True(t, tq.Known(tx.Hash()))
}

func TestTxQueueReadyOrdersNoncesPerSender(t *testing.T) {
	acc := newTestAccount(t)
	other := newTestAccount(t)
	tq := NewTxQueue(testLogger)

	// Import out of order.
	tq.Import(acc.transfer(t, 2, common.HexToAddress("0xaa"), 1), nil, IgnoreDropped)
	tq.Import(other.transfer(t, 0, common.HexToAddress("0xaa"), 1), nil, IgnoreDropped)
	tq.Import(acc.transfer(t, 0, common.HexToAddress("0xaa"), 1), nil, IgnoreDropped)
	tq.Import(acc.transfer(t, 1, common.HexToAddress("0xaa"), 1), nil, IgnoreDropped)

	ready := tq.Ready()
	require.Len(t, ready, 4)

	nonces := make(map[common.Address][]uint64)
	for _, tx := range ready {
		from, err := tx.Sender()
		require.NoError(t, err)
		nonces[from] = append(nonces[from], tx.Nonce())
	}
	require.Equal(t, []uint64{0, 1, 2}, nonces[acc.addr])
	require.Equal(t, []uint64{0}, nonces[other.addr])
}

func TestTxQueueOnReadyFires(t *testing.T) {
	acc := newTestAccount(t)
	tq := NewTxQueue(testLogger)

	var fired int
	tq.OnReady(func() { fired++ })
	tq.Import(acc.transfer(t, 0, common.HexToAddress("0xaa"), 1), nil, IgnoreDropped)
	require.Equal(t, 1, fired)
}

func TestTxQueueImportCallback(t *testing.T) {
	acc := newTestAccount(t)
	tq := NewTxQueue(testLogger)

	var got ImportResult = -1
	tq.Import(acc.transfer(t, 0, common.HexToAddress("0xaa"), 1), func(r ImportResult) { got = r }, IgnoreDropped)
	require.Equal(t, ImportSuccess, got)
}

func TestTxQueueClear(t *testing.T) {
	acc := newTestAccount(t)
	tq := NewTxQueue(testLogger)

	tx := acc.transfer(t, 0, common.HexToAddress("0xaa"), 1)
	tq.Import(tx, nil, IgnoreDropped)
	tq.Drop(tx.Hash())
	tq.Clear()

	// The dropped memory is gone too.
	require.Equal(t, ImportSuccess, tq.Import(tx, nil, IgnoreDropped))
}
