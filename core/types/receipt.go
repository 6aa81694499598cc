// Copyright 2014 The go-ethereum Authors
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

package types

import (
	"errors"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/rlp"
)

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the results of a transaction.
type Receipt struct {
	// Consensus fields.
	Status            uint64
	CumulativeGasUsed uint64
	Logs              []*Log

	// Implementation fields, filled in by the coordinator when a receipt
	// is produced or read back from a block.
	TxHash  common.Hash
	GasUsed uint64
}

// NewReceipt creates a barebones transaction receipt.
func NewReceipt(status uint64, cumulativeGasUsed uint64) *Receipt {
	return &Receipt{Status: status, CumulativeGasUsed: cumulativeGasUsed}
}

// EncodeRLP returns the canonical RLP encoding of the receipt.
func (r *Receipt) EncodeRLP() []byte {
	logs := make([][]byte, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = l.encodeRLP()
	}
	return rlp.EncodeList(
		rlp.EncodeUint64(r.Status),
		rlp.EncodeUint64(r.CumulativeGasUsed),
		rlp.EncodeList(logs...),
		rlp.EncodeBytes(r.TxHash.Bytes()),
		rlp.EncodeUint64(r.GasUsed),
	)
}

// DecodeReceipt decodes an RLP-encoded receipt.
func DecodeReceipt(b []byte) (*Receipt, error) {
	item, err := rlp.Decode(b)
	if err != nil {
		return nil, err
	}
	return decodeReceiptItem(item)
}

func decodeReceiptItem(item *rlp.Item) (*Receipt, error) {
	fields, err := item.List()
	if err != nil {
		return nil, err
	}
	if len(fields) != 5 {
		return nil, errors.New("receipt RLP must have 5 fields")
	}
	r := new(Receipt)
	if r.Status, err = fields[0].Uint64(); err != nil {
		return nil, err
	}
	if r.CumulativeGasUsed, err = fields[1].Uint64(); err != nil {
		return nil, err
	}
	logItems, err := fields[2].List()
	if err != nil {
		return nil, err
	}
	r.Logs = make([]*Log, len(logItems))
	for i, it := range logItems {
		if r.Logs[i], err = decodeLogItem(it); err != nil {
			return nil, err
		}
	}
	if err := decodeHash(fields[3], &r.TxHash); err != nil {
		return nil, err
	}
	if r.GasUsed, err = fields[4].Uint64(); err != nil {
		return nil, err
	}
	return r, nil
}

// Receipts is a list of receipts in block order.
type Receipts []*Receipt

// Len returns the number of receipts in this list.
func (rs Receipts) Len() int { return len(rs) }

// EncodeRLP returns the RLP encoding of the whole receipt list.
func (rs Receipts) EncodeRLP() []byte {
	enc := make([][]byte, len(rs))
	for i, r := range rs {
		enc[i] = r.EncodeRLP()
	}
	return rlp.EncodeList(enc...)
}

// DecodeReceipts decodes an RLP-encoded receipt list.
func DecodeReceipts(b []byte) (Receipts, error) {
	item, err := rlp.Decode(b)
	if err != nil {
		return nil, err
	}
	items, err := item.List()
	if err != nil {
		return nil, err
	}
	rs := make(Receipts, len(items))
	for i, it := range items {
		if rs[i], err = decodeReceiptItem(it); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// DeriveReceiptsHash computes the receipts commitment of a block.
func DeriveReceiptsHash(rs Receipts) common.Hash {
	enc := make([][]byte, len(rs))
	for i, r := range rs {
		enc[i] = r.EncodeRLP()
	}
	return DeriveSha(enc)
}
