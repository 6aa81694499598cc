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
	"errors"
	"math/big"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/params"
)

var (
	// ErrNonceTooLow is returned when a transaction's nonce is below the
	// account's current nonce.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned when a transaction's nonce is ahead of the
	// account's current nonce.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrInsufficientFunds is returned when the sender cannot cover
	// value + gasPrice * gasLimit.
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")

	// ErrGasLimitReached is returned when a transaction does not fit into the
	// block gas pool.
	ErrGasLimitReached = errors.New("gas limit reached")

	// ErrIntrinsicGas is returned when the transaction's gas limit is below
	// its intrinsic cost.
	ErrIntrinsicGas = errors.New("intrinsic gas too low")
)

// transferTopic marks the log entry every applied transfer emits, giving the
// filter pipeline an event stream without a virtual machine in the loop.
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// IntrinsicGas computes the gas a transaction consumes before any execution.
func IntrinsicGas(data []byte) uint64 {
	gas := params.TxGas
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGas
		}
	}
	return gas
}

// TransferProcessor applies plain value transfers. Contract execution is
// delegated to an external virtual machine behind the Processor interface;
// this processor covers everything the coordinator itself needs.
type TransferProcessor struct{}

var _ Processor = (*TransferProcessor)(nil)

// ApplyTransaction executes tx against statedb, drawing gas from gasPool.
func (p *TransferProcessor) ApplyTransaction(statedb *StateDB, header *types.Header, tx *types.Transaction, gasPool *uint64) (*types.Receipt, error) {
	from, err := tx.Sender()
	if err != nil {
		return nil, err
	}
	gas := IntrinsicGas(tx.Data())
	if tx.Gas() < gas {
		return nil, ErrIntrinsicGas
	}
	if *gasPool < gas {
		return nil, ErrGasLimitReached
	}
	switch nonce := statedb.GetNonce(from); {
	case tx.Nonce() < nonce:
		return nil, ErrNonceTooLow
	case tx.Nonce() > nonce:
		return nil, ErrNonceTooHigh
	}
	if statedb.GetBalance(from).Cmp(tx.Cost()) < 0 {
		return nil, ErrInsufficientFunds
	}

	gasFee := new(big.Int).Mul(tx.GasPrice(), new(big.Int).SetUint64(gas))
	statedb.SubBalance(from, new(big.Int).Add(tx.Value(), gasFee))
	statedb.SetNonce(from, tx.Nonce()+1)
	if to := tx.To(); to != nil {
		statedb.AddBalance(*to, tx.Value())
	}
	statedb.AddBalance(header.Coinbase, gasFee)
	*gasPool -= gas

	receipt := types.NewReceipt(types.ReceiptStatusSuccessful, header.GasUsed+gas)
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = gas
	if to := tx.To(); to != nil && tx.Value().Sign() > 0 {
		receipt.Logs = []*types.Log{{
			Address: *to,
			Topics:  []common.Hash{transferTopic, from.Hash(), to.Hash()},
			Data:    tx.Value().Bytes(),
		}}
	}
	return receipt, nil
}
