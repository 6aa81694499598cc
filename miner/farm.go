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

// Package miner hosts the local proof-of-work search workers.
package miner

import (
	"math/rand"
	"sync"
	"time"

	"github.com/aurumchain/go-aurum/core"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/crypto"
	"github.com/aurumchain/go-aurum/log"
)

const searchBatch = 1 << 16

// CPUFarm searches work packages on CPU goroutines. GPU kernels live outside
// this module; StartGPU falls back to the CPU search.
type CPUFarm struct {
	mu      sync.Mutex
	work    core.WorkPackage
	onFound func(core.Solution) bool
	quit    chan struct{}
	running bool
	threads int
	hashes  uint64
	started time.Time
	logger  log.Logger
}

// NewCPUFarm constructs a farm running the given number of search threads.
func NewCPUFarm(threads int, logger log.Logger) *CPUFarm {
	if threads < 1 {
		threads = 1
	}
	if logger == nil {
		logger = log.Global
	}
	return &CPUFarm{threads: threads, logger: logger.WithField("component", "farm")}
}

// OnSolutionFound registers the solution callback.
func (f *CPUFarm) OnSolutionFound(fn func(core.Solution) bool) {
	f.mu.Lock()
	f.onFound = fn
	f.mu.Unlock()
}

// SetWork hands the workers a fresh package. Running workers restart on it.
func (f *CPUFarm) SetWork(work core.WorkPackage) {
	f.mu.Lock()
	f.work = work
	restart := f.running
	f.mu.Unlock()
	if restart {
		f.Stop()
		f.StartCPU()
	}
}

// StartCPU spins up the search goroutines.
func (f *CPUFarm) StartCPU() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running || f.work.IsEmpty() {
		return
	}
	f.running = true
	f.started = time.Now()
	f.quit = make(chan struct{})
	for i := 0; i < f.threads; i++ {
		go f.search(f.work, f.quit, rand.Uint64())
	}
	f.logger.WithField("threads", f.threads).Debug("CPU search started")
}

// StartGPU is a CPU fallback; real GPU kernels attach through the Farm
// interface from outside.
func (f *CPUFarm) StartGPU() {
	f.StartCPU()
}

// Stop halts all workers.
func (f *CPUFarm) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.running = false
	close(f.quit)
}

// IsMining reports whether workers are active.
func (f *CPUFarm) IsMining() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// MiningProgress reports the search statistics since the last start.
func (f *CPUFarm) MiningProgress() core.MiningProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.MiningProgress{
		Hashes: f.hashes,
		MS:     uint64(time.Since(f.started).Milliseconds()),
	}
}

func (f *CPUFarm) search(work core.WorkPackage, quit chan struct{}, seed uint64) {
	target := work.Boundary.Big()
	nonce := seed
	for {
		select {
		case <-quit:
			return
		default:
		}
		for i := 0; i < searchBatch; i++ {
			n := types.EncodeNonce(nonce)
			result := crypto.Keccak256Hash(work.HeaderHash.Bytes(), n[:])
			nonce++
			if result.Big().Cmp(target) <= 0 {
				f.mu.Lock()
				f.hashes += uint64(i + 1)
				fn := f.onFound
				f.mu.Unlock()
				if fn != nil && fn(core.Solution{Nonce: n, MixDigest: result}) {
					return
				}
				break
			}
		}
		f.mu.Lock()
		f.hashes += searchBatch
		f.mu.Unlock()
	}
}
