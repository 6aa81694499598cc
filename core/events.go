package core

import (
	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
)

// NewTxsEvent is posted when a batch of transactions enter the transaction queue.
type NewTxsEvent struct{ Txs types.Transactions }

// PendingStateEvent is posted when the post-mine pending state is replaced.
type PendingStateEvent struct{ Txs types.Transactions }

// ChainEvent is posted for every block that becomes canonical.
type ChainEvent struct {
	Block *types.Block
	Hash  common.Hash
	Logs  []*types.Log
}

// ChainReorgEvent is posted when a drain of the block queue moved the head,
// carrying the full import route.
type ChainReorgEvent struct {
	Live common.Hashes
	Dead common.Hashes
}

// ChainHeadEvent is posted when the canonical head changes.
type ChainHeadEvent struct{ Block *types.Block }
