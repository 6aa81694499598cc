package core

import (
	"math/big"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/params"
)

// BlockReward is the coinbase credit for sealing a block.
var BlockReward = new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// epochLength is the number of blocks sharing one proof-of-work dataset seed.
const epochLength = 30000

// CalcDifficulty computes the difficulty of a block at the given time on top
// of parent.
func CalcDifficulty(parent *types.Header, time uint64) *big.Int {
	adjust := new(big.Int).Div(parent.Difficulty, new(big.Int).SetUint64(params.DifficultyBoundDivisor))
	diff := new(big.Int)
	if time-parent.Time < params.DurationLimit {
		diff.Add(parent.Difficulty, adjust)
	} else {
		diff.Sub(parent.Difficulty, adjust)
	}
	if min := new(big.Int).SetUint64(params.MinimumDifficulty); diff.Cmp(min) < 0 {
		diff.Set(min)
	}
	return diff
}

// CalcGasLimit nudges the parent gas limit toward the genesis target within
// the protocol bound.
func CalcGasLimit(parent *types.Header) uint64 {
	limit := parent.GasLimit
	delta := limit/params.GasLimitBoundDivisor - 1
	target := params.GenesisGasLimit
	switch {
	case limit+delta < target:
		limit += delta
	case limit > target && limit-delta > target:
		limit -= delta
	}
	if limit < params.MinGasLimit {
		limit = params.MinGasLimit
	}
	return limit
}

// SeedHash returns the dataset seed of the epoch the block number falls in.
func SeedHash(number uint64) common.Hash {
	seed := make([]byte, 32)
	for i := uint64(0); i < number/epochLength; i++ {
		seed = crypto.Keccak256(seed)
	}
	return common.BytesToHash(seed)
}

// powResult computes the search digest of a seal attempt.
func powResult(sealHash common.Hash, nonce types.BlockNonce) common.Hash {
	return crypto.Keccak256Hash(sealHash.Bytes(), nonce[:])
}

// CheckProofOfWork reports whether the nonce satisfies the difficulty of the
// header under search.
func CheckProofOfWork(header *types.Header, sol Solution) bool {
	result := powResult(header.SealHash(), sol.Nonce)
	return result.Big().Cmp(boundary(header.Difficulty).Big()) <= 0
}

// SearchNonce scans nonces from start until one satisfies the header's
// difficulty, or maxAttempts runs out. It backs the CPU search workers and
// the tests; GPU kernels live outside this module.
func SearchNonce(header *types.Header, start, maxAttempts uint64) (Solution, bool) {
	sealHash := header.SealHash()
	target := boundary(header.Difficulty).Big()
	for i := uint64(0); i < maxAttempts; i++ {
		nonce := types.EncodeNonce(start + i)
		result := powResult(sealHash, nonce)
		if result.Big().Cmp(target) <= 0 {
			return Solution{Nonce: nonce, MixDigest: result}, true
		}
	}
	return Solution{}, false
}

// applyReward credits the beneficiary with the block reward. It runs both
// when work is committed and when an imported block is replayed, keeping the
// two state roots in agreement.
func applyReward(statedb *StateDB, coinbase common.Address) {
	statedb.AddBalance(coinbase, BlockReward)
}
