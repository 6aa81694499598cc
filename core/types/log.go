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

// Log represents a contract log event. These events are generated by executed
// transactions and stored with the receipt they were produced by.
type Log struct {
	// Consensus fields:
	// address of the contract that generated the event
	Address common.Address
	// list of topics provided by the contract.
	Topics []common.Hash
	// supplied by the contract, usually ABI-encoded
	Data []byte

	// Derived fields. These fields are filled in when the log is localised
	// against a block.
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	BlockHash   common.Hash
	Index       uint
}

// Localise returns a copy of the log annotated with its position in the chain.
func (l *Log) Localise(blockHash common.Hash, blockNumber uint64, txHash common.Hash, txIndex, logIndex uint) *Log {
	cpy := *l
	cpy.BlockHash = blockHash
	cpy.BlockNumber = blockNumber
	cpy.TxHash = txHash
	cpy.TxIndex = txIndex
	cpy.Index = logIndex
	return &cpy
}

func (l *Log) encodeRLP() []byte {
	topics := make([][]byte, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = rlp.EncodeBytes(t.Bytes())
	}
	return rlp.EncodeList(
		rlp.EncodeBytes(l.Address.Bytes()),
		rlp.EncodeList(topics...),
		rlp.EncodeBytes(l.Data),
	)
}

func decodeLogItem(item *rlp.Item) (*Log, error) {
	fields, err := item.List()
	if err != nil {
		return nil, err
	}
	if len(fields) != 3 {
		return nil, errors.New("log RLP must have 3 fields")
	}
	l := new(Log)
	addr, err := fields[0].Bytes()
	if err != nil {
		return nil, err
	}
	l.Address = common.BytesToAddress(addr)
	topicItems, err := fields[1].List()
	if err != nil {
		return nil, err
	}
	l.Topics = make([]common.Hash, len(topicItems))
	for i, it := range topicItems {
		if err := decodeHash(it, &l.Topics[i]); err != nil {
			return nil, err
		}
	}
	data, err := fields[2].Bytes()
	if err != nil {
		return nil, err
	}
	l.Data = common.CopyBytes(data)
	return l, nil
}
