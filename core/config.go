package core

import (
	"math/big"

	"github.com/aurumchain/go-aurum/common"
)

// Config are the configuration parameters of the client coordinator.
type Config struct {
	// NetworkID identifies peer-network membership.
	NetworkID uint64

	// DataDir is where the chain and state stores live. Empty keeps
	// everything in memory.
	DataDir string

	// SentinelURL, when set, receives bad-block reports over JSON-RPC.
	SentinelURL string

	// MinerAddress is the beneficiary of sealed blocks.
	MinerAddress common.Address

	// ExtraData is included in the headers of sealed blocks.
	ExtraData []byte

	// ForceMining is recorded on the client. Work is prepared on an empty
	// transaction queue whether or not it is set.
	ForceMining bool

	// MineOnBadChain ignores the canary.
	MineOnBadChain bool

	// TurboMining prefers GPU workers.
	TurboMining bool

	// GasPrice pins the pricer to a fixed value. When nil the empirical
	// octile pricer is used instead.
	GasPrice *big.Int

	// Genesis overrides the chain's genesis specification. Nil selects the
	// main network genesis.
	Genesis *Genesis
}

// DefaultConfig returns the coordinator defaults of the main network.
func DefaultConfig() *Config {
	return &Config{
		NetworkID: 1,
	}
}
