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

package params

const (
	// ProtocolVersion is the wire protocol version advertised to peers.
	ProtocolVersion uint64 = 60
	// MinorProtocolVersion changes when persisted blocks must be re-verified
	// against the current rules without wiping the database.
	MinorProtocolVersion uint64 = 2
	// DatabaseVersion changes when the on-disk schema becomes incompatible.
	DatabaseVersion uint64 = 9

	// TxGas is the per-transaction intrinsic gas.
	TxGas uint64 = 21000
	// TxDataZeroGas is the intrinsic gas per zero byte of transaction data.
	TxDataZeroGas uint64 = 4
	// TxDataNonZeroGas is the intrinsic gas per non-zero byte of transaction data.
	TxDataNonZeroGas uint64 = 68

	// MinGasLimit is the floor of the block gas limit.
	MinGasLimit uint64 = 5000
	// GenesisGasLimit is the gas limit of the genesis block.
	GenesisGasLimit uint64 = 4712388
	// GasLimitBoundDivisor bounds the per-block gas limit adjustment.
	GasLimitBoundDivisor uint64 = 1024

	// MinimumDifficulty is the floor of the block difficulty.
	MinimumDifficulty uint64 = 131072
	// DifficultyBoundDivisor bounds the per-block difficulty adjustment.
	DifficultyBoundDivisor uint64 = 2048
	// DurationLimit is the block time threshold below which difficulty rises.
	DurationLimit uint64 = 13

	// MaximumExtraDataSize is the maximum size of header extra data.
	MaximumExtraDataSize uint64 = 32
)
