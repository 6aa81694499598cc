package core

import (
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

func pendingReceipt(addr common.Address, topics ...common.Hash) *types.Receipt {
	r := types.NewReceipt(types.ReceiptStatusSuccessful, 21000)
	r.Logs = []*types.Log{{Address: addr, Topics: topics}}
	return r
}

func TestFilterCriteriaMatching(t *testing.T) {
	addr := common.HexToAddress("0x01")
	topic := common.HexToHash("0xaa")

	tests := []struct {
		name     string
		criteria FilterCriteria
		log      *types.Log
		want     bool
	}{
		{"empty criteria match all", FilterCriteria{}, &types.Log{Address: addr}, true},
		{"address match", FilterCriteria{Addresses: []common.Address{addr}}, &types.Log{Address: addr}, true},
		{"address mismatch", FilterCriteria{Addresses: []common.Address{addr}}, &types.Log{Address: common.HexToAddress("0x02")}, false},
		{"topic match", FilterCriteria{Topics: [][]common.Hash{{topic}}}, &types.Log{Address: addr, Topics: []common.Hash{topic}}, true},
		{"topic mismatch", FilterCriteria{Topics: [][]common.Hash{{topic}}}, &types.Log{Address: addr, Topics: []common.Hash{common.HexToHash("0xbb")}}, false},
		{"topic wildcard position", FilterCriteria{Topics: [][]common.Hash{nil, {topic}}}, &types.Log{Address: addr, Topics: []common.Hash{common.HexToHash("0xbb"), topic}}, true},
		{"criteria longer than log topics", FilterCriteria{Topics: [][]common.Hash{{topic}, {topic}}}, &types.Log{Address: addr, Topics: []common.Hash{topic}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.criteria.Matches(tt.log))
		})
	}
}

func TestFilterRegistryPendingFlow(t *testing.T) {
	fr := NewFilterRegistry(testLogger)
	addr := common.HexToAddress("0x01")

	logWatch := fr.InstallWatch(FilterCriteria{Addresses: []common.Address{addr}})
	pendingWatch := fr.InstallWatchID(PendingChangedFilter)

	txHash := common.HexToHash("0x0f")
	changed := mapset.NewSet()
	fr.AppendFromNewPending(pendingReceipt(addr), changed, txHash)
	fr.NoteChanged(changed)

	entries, ok := fr.CheckWatch(logWatch)
	require.True(t, ok)
	require.Len(t, entries, 1)
	require.False(t, entries[0].Special)
	require.Equal(t, addr, entries[0].Log.Address)

	// The pending sentinel carries the raw transaction digest.
	entries, ok = fr.CheckWatch(pendingWatch)
	require.True(t, ok)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Special)
	require.Equal(t, txHash, entries[0].Hash)

	// Check drains: a second poll sees nothing.
	entries, ok = fr.CheckWatch(logWatch)
	require.True(t, ok)
	require.Empty(t, entries)
}

func TestFilterRegistryPeekDoesNotDrain(t *testing.T) {
	fr := NewFilterRegistry(testLogger)
	watchID := fr.InstallWatchID(PendingChangedFilter)

	changed := mapset.NewSet()
	fr.AppendFromNewPending(pendingReceipt(common.HexToAddress("0x01")), changed, common.HexToHash("0x02"))
	fr.NoteChanged(changed)

	first, ok := fr.PeekWatch(watchID)
	require.True(t, ok)
	require.Len(t, first, 1)

	second, ok := fr.PeekWatch(watchID)
	require.True(t, ok)
	require.Len(t, second, 1)
}

func TestFilterRegistryBlockFlowLocalises(t *testing.T) {
	fr := NewFilterRegistry(testLogger)
	addr := common.HexToAddress("0x01")
	watchID := fr.InstallWatch(FilterCriteria{Addresses: []common.Address{addr}})
	chainWatch := fr.InstallWatchID(ChainChangedFilter)

	acc := newTestAccount(t)
	tx := acc.transfer(t, 0, addr, 1)
	header := &types.Header{Number: common.Big2}
	blockHash := common.HexToHash("0xb1")

	receipts := types.Receipts{
		pendingReceipt(common.HexToAddress("0xff")), // no match
		pendingReceipt(addr, common.HexToHash("0xaa")),
	}
	changed := mapset.NewSet()
	fr.AppendFromNewBlock(blockHash, header, types.Transactions{tx, tx}, receipts, changed)
	fr.NoteChanged(changed)

	entries, _ := fr.CheckWatch(watchID)
	require.Len(t, entries, 1)
	l := entries[0].Log
	require.Equal(t, blockHash, l.BlockHash)
	require.Equal(t, uint64(2), l.BlockNumber)
	require.Equal(t, uint(1), l.TxIndex)
	require.Equal(t, uint(1), l.Index) // second log in the block
	require.Equal(t, tx.Hash(), l.TxHash)

	chainEntries, _ := fr.CheckWatch(chainWatch)
	require.Len(t, chainEntries, 1)
	require.Equal(t, blockHash, chainEntries[0].Hash)
}

func TestFilterRegistryNoteChangedClearsBuffers(t *testing.T) {
	fr := NewFilterRegistry(testLogger)
	addr := common.HexToAddress("0x01")
	fr.InstallWatch(FilterCriteria{Addresses: []common.Address{addr}})

	changed := mapset.NewSet()
	fr.AppendFromNewPending(pendingReceipt(addr), changed, common.HexToHash("0x02"))
	fr.NoteChanged(changed)

	// A watch installed after the flush sees no stale entries.
	lateWatch := fr.InstallWatch(FilterCriteria{Addresses: []common.Address{addr}})
	fr.NoteChanged(changed)
	entries, _ := fr.CheckWatch(lateWatch)
	require.Empty(t, entries)
}

func TestFilterRegistryGC(t *testing.T) {
	fr := NewFilterRegistry(testLogger)
	stale := fr.InstallWatchID(PendingChangedFilter)
	fresh := fr.InstallWatchID(ChainChangedFilter)
	pinned := fr.InstallWatchID(PendingChangedFilter)
	fr.PinWatch(pinned)

	// Backdate the stale and pinned watches beyond the idle timeout.
	fr.mu.Lock()
	fr.watches[stale].lastPoll = time.Now().Add(-watchIdleTimeout - time.Second)
	fr.watches[pinned].lastPoll = time.Now().Add(-watchIdleTimeout - time.Second)
	fr.mu.Unlock()

	fr.GC()

	_, ok := fr.CheckWatch(stale)
	require.False(t, ok)
	_, ok = fr.CheckWatch(fresh)
	require.True(t, ok)
	_, ok = fr.CheckWatch(pinned)
	require.True(t, ok)
}

func TestFilterRegistryUninstall(t *testing.T) {
	fr := NewFilterRegistry(testLogger)
	id := fr.InstallWatch(FilterCriteria{})
	require.True(t, fr.UninstallWatch(id))
	require.False(t, fr.UninstallWatch(id))
	_, ok := fr.CheckWatch(id)
	require.False(t, ok)
}
