package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/ethdb/memorydb"
)

func TestStateDBCommitAndReload(t *testing.T) {
	db := memorydb.New()
	statedb, err := NewStateDB(db, common.Hash{})
	require.NoError(t, err)

	addr := common.HexToAddress("0x01")
	statedb.AddBalance(addr, big.NewInt(1000))
	statedb.SetNonce(addr, 3)
	statedb.SetState(addr, common.HexToHash("0x0a"), common.HexToHash("0x0b"))

	root := statedb.Commit()
	require.NotEqual(t, common.Hash{}, root)

	reloaded, err := NewStateDB(db, root)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), reloaded.GetBalance(addr))
	require.Equal(t, uint64(3), reloaded.GetNonce(addr))
	require.Equal(t, common.HexToHash("0x0b"), reloaded.GetState(addr, common.HexToHash("0x0a")))

	// The same content commits to the same root.
	require.Equal(t, root, reloaded.Commit())
}

func TestStateDBUnknownRoot(t *testing.T) {
	_, err := NewStateDB(memorydb.New(), common.HexToHash("0x99"))
	require.Error(t, err)
}

func TestStateDBCopyIsolation(t *testing.T) {
	statedb, err := NewStateDB(memorydb.New(), common.Hash{})
	require.NoError(t, err)

	addr := common.HexToAddress("0x01")
	statedb.AddBalance(addr, big.NewInt(5))

	cpy := statedb.Copy()
	cpy.AddBalance(addr, big.NewInt(5))
	require.Equal(t, big.NewInt(5), statedb.GetBalance(addr))
	require.Equal(t, big.NewInt(10), cpy.GetBalance(addr))
}

func TestStateDBRootIgnoresEmptyAccounts(t *testing.T) {
	statedb, err := NewStateDB(memorydb.New(), common.Hash{})
	require.NoError(t, err)
	before := statedb.Root()

	// Touching an account without giving it content keeps the root stable.
	statedb.AddBalance(common.HexToAddress("0x02"), new(big.Int))
	require.Equal(t, before, statedb.Root())
}
