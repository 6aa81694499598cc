package miner

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core"
	"github.com/aurumchain/go-aurum/log"
)

var testLogger = log.New(log.WithNullLogger())

// easyWork is a package that nearly every nonce satisfies.
func easyWork() core.WorkPackage {
	max := new(big.Int).Sub(new(big.Int).Lsh(common.Big1, 256), common.Big1)
	return core.WorkPackage{
		HeaderHash: common.HexToHash("0x01"),
		SeedHash:   common.HexToHash("0x02"),
		Boundary:   common.BytesToHash(max.Bytes()),
	}
}

func TestCPUFarmFindsSolution(t *testing.T) {
	farm := NewCPUFarm(1, testLogger)

	found := make(chan core.Solution, 1)
	farm.OnSolutionFound(func(sol core.Solution) bool {
		select {
		case found <- sol:
		default:
		}
		return true
	})

	farm.SetWork(easyWork())
	farm.StartCPU()
	defer farm.Stop()

	select {
	case sol := <-found:
		require.NotEqual(t, common.Hash{}, sol.MixDigest)
	case <-time.After(5 * time.Second):
		t.Fatal("no solution found")
	}
}

func TestCPUFarmLifecycle(t *testing.T) {
	farm := NewCPUFarm(2, testLogger)
	require.False(t, farm.IsMining())

	// Starting without work is a no-op.
	farm.StartCPU()
	require.False(t, farm.IsMining())

	farm.SetWork(easyWork())
	farm.StartCPU()
	require.True(t, farm.IsMining())

	farm.Stop()
	require.False(t, farm.IsMining())
	farm.Stop() // idempotent
}
