package core

import (
	"math/big"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

// SyncStatus describes the progress of the peer layer's chain download.
type SyncStatus struct {
	StartingBlock uint64
	CurrentBlock  uint64
	HighestBlock  uint64
}

// Host is the peer-to-peer layer as seen by the client. The transport itself
// lives outside this module; the client only drives it.
type Host interface {
	// RegisterCapability announces the chain protocol to the network stack.
	RegisterCapability(name string, version uint64)
	// Status reports the current sync progress.
	Status() SyncStatus
	// SetNetworkID changes the advertised network membership.
	SetNetworkID(id uint64)
	// NoteNewTransactions hints that fresh transactions are available for relay.
	NoteNewTransactions()
	// NoteNewBlocks hints that fresh blocks are available for relay.
	NoteNewBlocks()
	// Reset drops all peer state, used when the chain is wiped.
	Reset()
	// IsSyncing reports whether a chain download is in progress.
	IsSyncing() bool
}

// MiningProgress is a snapshot of the farm's search statistics.
type MiningProgress struct {
	Hashes uint64 // Total hashes computed
	MS     uint64 // Milliseconds of mining activity
}

// Rate returns the search speed in hashes per second.
func (p MiningProgress) Rate() uint64 {
	if p.MS == 0 {
		return 0
	}
	return p.Hashes * 1000 / p.MS
}

// Farm abstracts the proof-of-work search workers. The kernel itself
// (CPU or GPU search loops) lives outside this module.
type Farm interface {
	// SetWork hands the workers a fresh package to search.
	SetWork(work WorkPackage)
	// StartCPU spins up CPU search workers.
	StartCPU()
	// StartGPU spins up GPU search workers.
	StartGPU()
	// Stop halts all workers.
	Stop()
	// IsMining reports whether any worker is active.
	IsMining() bool
	// MiningProgress reports the current search statistics.
	MiningProgress() MiningProgress
	// OnSolutionFound registers the callback invoked when a worker finds a
	// nonce. The callback reports whether the solution was accepted.
	OnSolutionFound(fn func(Solution) bool)
}

// WorkPackage is what a proof-of-work worker needs to search.
type WorkPackage struct {
	HeaderHash common.Hash // Seal hash of the block under search
	SeedHash   common.Hash // Seed of the dataset epoch
	Boundary   common.Hash // Upper bound for valid search results
}

// IsEmpty reports whether the package carries no work.
func (w WorkPackage) IsEmpty() bool {
	return w.HeaderHash == (common.Hash{})
}

// Solution is a candidate proof-of-work result returned by a worker.
type Solution struct {
	Nonce     types.BlockNonce
	MixDigest common.Hash
}

// Processor executes transactions against a mutable state. Virtual machine
// internals are delegated here; the in-repo processor applies plain value
// transfers, which is all the coordinator semantics require.
type Processor interface {
	// ApplyTransaction executes tx on statedb in the environment described by
	// header, drawing gas from gasPool. It returns the receipt on success.
	ApplyTransaction(statedb *StateDB, header *types.Header, tx *types.Transaction, gasPool *uint64) (*types.Receipt, error)
}

// HeaderVerifier screens headers entering the block queue before the chain
// spends effort on them. Consensus validity proper remains with the chain.
type HeaderVerifier func(header *types.Header) error

// NullHost is a Host with no transport behind it, used when the node runs
// without a peer layer.
type NullHost struct{}

var _ Host = (*NullHost)(nil)

func (h *NullHost) RegisterCapability(string, uint64) {}
func (h *NullHost) Status() SyncStatus                { return SyncStatus{} }
func (h *NullHost) SetNetworkID(uint64)               {}
func (h *NullHost) NoteNewTransactions()              {}
func (h *NullHost) NoteNewBlocks()                    {}
func (h *NullHost) Reset()                            {}
func (h *NullHost) IsSyncing() bool                   { return false }

// boundary converts a difficulty into the proof-of-work search target.
func boundary(difficulty *big.Int) common.Hash {
	if difficulty == nil || difficulty.Sign() <= 0 {
		return common.BytesToHash(new(big.Int).Sub(maxUint256, common.Big1).Bytes())
	}
	return common.BytesToHash(new(big.Int).Div(maxUint256, difficulty).Bytes())
}

var maxUint256 = new(big.Int).Lsh(common.Big1, 256)
