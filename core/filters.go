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
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/rlp"
)

// The two sentinel filter ids. Their watches receive raw hashes instead of
// log entries: transaction digests for the pending filter, block hashes for
// the chain filter.
var (
	PendingChangedFilter = crypto.Keccak256Hash([]byte("aurum.filter.pending"))
	ChainChangedFilter   = crypto.Keccak256Hash([]byte("aurum.filter.chain"))
)

// watchIdleTimeout is how long a watch may go unpolled before it is
// garbage-collected.
const watchIdleTimeout = 20 * time.Second

// FilterCriteria selects log entries by emitting address and topic prefix.
// Empty address and topic lists match everything.
type FilterCriteria struct {
	Addresses []common.Address
	Topics    [][]common.Hash
}

// ID computes the filter's identity, the digest of its criteria.
func (c FilterCriteria) ID() common.Hash {
	addrs := make([][]byte, len(c.Addresses))
	for i, a := range c.Addresses {
		addrs[i] = rlp.EncodeBytes(a.Bytes())
	}
	topicLists := make([][]byte, len(c.Topics))
	for i, topics := range c.Topics {
		enc := make([][]byte, len(topics))
		for j, t := range topics {
			enc[j] = rlp.EncodeBytes(t.Bytes())
		}
		topicLists[i] = rlp.EncodeList(enc...)
	}
	return crypto.Keccak256Hash(rlp.EncodeList(
		rlp.EncodeList(addrs...),
		rlp.EncodeList(topicLists...),
	))
}

// Matches reports whether a single log entry satisfies the criteria.
func (c FilterCriteria) Matches(l *types.Log) bool {
	if len(c.Addresses) > 0 {
		var found bool
		for _, a := range c.Addresses {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(c.Topics) > len(l.Topics) {
		return false
	}
	for i, alternatives := range c.Topics {
		if len(alternatives) == 0 {
			continue // wildcard position
		}
		var found bool
		for _, t := range alternatives {
			if t == l.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchReceipt returns the receipt's log entries satisfying the criteria.
func (c FilterCriteria) MatchReceipt(r *types.Receipt) []*types.Log {
	var matched []*types.Log
	for _, l := range r.Logs {
		if c.Matches(l) {
			matched = append(matched, l)
		}
	}
	return matched
}

// WatchEntry is one buffered change of a watch: a localised log entry for
// ordinary filters, a raw hash for the sentinel filters.
type WatchEntry struct {
	Log     *types.Log
	Hash    common.Hash
	Special bool
}

// InstalledFilter accumulates matching localised log entries until a watch
// poll collects them.
type InstalledFilter struct {
	criteria FilterCriteria
	changes  []*types.Log
	refs     int
}

type watch struct {
	id       common.Hash // filter id the watch observes
	changes  []WatchEntry
	lastPoll time.Time
	pinned   bool
}

// FilterRegistry tracks installed log filters and the watches polling them.
// One mutex covers the whole structure; append and note operations are atomic
// with respect to watch polls.
type FilterRegistry struct {
	mu       sync.Mutex
	filters  map[common.Hash]*InstalledFilter
	specials map[common.Hash][]common.Hash
	watches  map[uint64]*watch
	nextID   uint64

	logger log.Logger
}

// NewFilterRegistry constructs a registry with the two sentinel filters
// pre-installed.
func NewFilterRegistry(logger log.Logger) *FilterRegistry {
	if logger == nil {
		logger = log.Global
	}
	return &FilterRegistry{
		filters: make(map[common.Hash]*InstalledFilter),
		specials: map[common.Hash][]common.Hash{
			PendingChangedFilter: nil,
			ChainChangedFilter:   nil,
		},
		watches: make(map[uint64]*watch),
		logger:  logger,
	}
}

// InstallWatch installs a filter for the criteria (reference-counted against
// duplicates) and a watch observing it, returning the watch id.
func (fr *FilterRegistry) InstallWatch(criteria FilterCriteria) uint64 {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	id := criteria.ID()
	if f, ok := fr.filters[id]; ok {
		f.refs++
	} else {
		fr.filters[id] = &InstalledFilter{criteria: criteria, refs: 1}
	}
	return fr.installWatchLocked(id)
}

// InstallWatchID installs a watch on an existing filter id, including the
// sentinel ids.
func (fr *FilterRegistry) InstallWatchID(filterID common.Hash) uint64 {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if f, ok := fr.filters[filterID]; ok {
		f.refs++
	}
	return fr.installWatchLocked(filterID)
}

func (fr *FilterRegistry) installWatchLocked(filterID common.Hash) uint64 {
	fr.nextID++
	fr.watches[fr.nextID] = &watch{id: filterID, lastPoll: time.Now()}
	return fr.nextID
}

// UninstallWatch removes a watch and drops its filter when the last watch on
// it disappears.
func (fr *FilterRegistry) UninstallWatch(id uint64) bool {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.uninstallWatchLocked(id)
}

func (fr *FilterRegistry) uninstallWatchLocked(id uint64) bool {
	w, ok := fr.watches[id]
	if !ok {
		return false
	}
	delete(fr.watches, id)
	if f, ok := fr.filters[w.id]; ok {
		f.refs--
		if f.refs <= 0 {
			delete(fr.filters, w.id)
		}
	}
	return true
}

// PinWatch exempts a watch from idle garbage collection.
func (fr *FilterRegistry) PinWatch(id uint64) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if w, ok := fr.watches[id]; ok {
		w.pinned = true
	}
}

// PeekWatch returns the buffered changes without draining them. The poll
// timestamp is refreshed.
func (fr *FilterRegistry) PeekWatch(id uint64) ([]WatchEntry, bool) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	w, ok := fr.watches[id]
	if !ok {
		return nil, false
	}
	w.lastPoll = time.Now()
	return append([]WatchEntry(nil), w.changes...), true
}

// CheckWatch drains and returns the buffered changes. The poll timestamp is
// refreshed.
func (fr *FilterRegistry) CheckWatch(id uint64) ([]WatchEntry, bool) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	w, ok := fr.watches[id]
	if !ok {
		return nil, false
	}
	w.lastPoll = time.Now()
	changes := w.changes
	w.changes = nil
	return changes, true
}

// AppendFromNewPending matches a fresh pending receipt against every filter,
// and records the transaction digest for the pending sentinel. The filter ids
// that accumulated changes are added to changed.
func (fr *FilterRegistry) AppendFromNewPending(receipt *types.Receipt, changed mapset.Set, sha3 common.Hash) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	changed.Add(PendingChangedFilter)
	fr.specials[PendingChangedFilter] = append(fr.specials[PendingChangedFilter], sha3)
	for id, f := range fr.filters {
		if m := f.criteria.MatchReceipt(receipt); len(m) > 0 {
			for _, l := range m {
				f.changes = append(f.changes, l.Localise(common.Hash{}, 0, sha3, 0, 0))
			}
			changed.Add(id)
		}
	}
}

// AppendFromNewBlock matches every receipt of a freshly canonical block
// against every filter, localising entries with their in-block positions, and
// records the block hash for the chain sentinel.
func (fr *FilterRegistry) AppendFromNewBlock(blockHash common.Hash, header *types.Header, txs types.Transactions, receipts types.Receipts, changed mapset.Set) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	changed.Add(ChainChangedFilter)
	fr.specials[ChainChangedFilter] = append(fr.specials[ChainChangedFilter], blockHash)

	logIndex := uint(0)
	for txIndex, receipt := range receipts {
		var txHash common.Hash
		if txIndex < len(txs) {
			txHash = txs[txIndex].Hash()
		}
		for _, l := range receipt.Logs {
			localised := l.Localise(blockHash, header.NumberU64(), txHash, uint(txIndex), logIndex)
			logIndex++
			for id, f := range fr.filters {
				if f.criteria.Matches(l) {
					f.changes = append(f.changes, localised)
					changed.Add(id)
				}
			}
		}
	}
}

// NoteChanged flushes the buffered filter changes into every watch observing
// a changed filter id, then clears all filter buffers.
func (fr *FilterRegistry) NoteChanged(changed mapset.Set) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	if changed.Cardinality() == 0 {
		return
	}
	for _, w := range fr.watches {
		if !changed.Contains(w.id) {
			continue
		}
		if f, ok := fr.filters[w.id]; ok {
			for _, l := range f.changes {
				w.changes = append(w.changes, WatchEntry{Log: l})
			}
		} else if hashes, ok := fr.specials[w.id]; ok {
			for _, h := range hashes {
				w.changes = append(w.changes, WatchEntry{Hash: h, Special: true})
			}
		}
	}
	for _, f := range fr.filters {
		f.changes = nil
	}
	for id := range fr.specials {
		fr.specials[id] = nil
	}
}

// GC uninstalls watches whose last poll is older than the idle timeout,
// except pinned watches.
func (fr *FilterRegistry) GC() {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	now := time.Now()
	for id, w := range fr.watches {
		if w.pinned {
			continue
		}
		if idle := now.Sub(w.lastPoll); idle > watchIdleTimeout {
			fr.logger.WithFields(log.Fields{"watch": id, "idle": idle}).Debug("GC: uninstalling idle watch")
			fr.uninstallWatchLocked(id)
		}
	}
}

// WatchCount reports the number of live watches.
func (fr *FilterRegistry) WatchCount() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return len(fr.watches)
}
