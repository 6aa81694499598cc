package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/ethdb"
)

// TestClientFreshStartOnDisk covers the cold-boot path: an empty data dir is
// classified Kill, the status file is written, and a restart trusts it.
func TestClientFreshStartOnDisk(t *testing.T) {
	dir := t.TempDir()
	acc := newTestAccount(t)
	genesis := testGenesis(acc.addr)

	config := DefaultConfig()
	config.Genesis = genesis
	config.DataDir = dir

	client, err := NewClient(config, &fakeHost{}, &fakeFarm{}, nil, ethdb.Trust, testLogger)
	require.NoError(t, err)

	// The status file was written on successful startup.
	_, err = os.Stat(filepath.Join(dir, "status"))
	require.NoError(t, err)

	// State survives a restart.
	b1 := makeBlock(t, client.Chain(), client.Chain().Genesis(), common.HexToAddress("0xc0"), nil, 5)
	client.ImportBlock(b1.EncodeRLP())
	waitFor(t, 5*time.Second, func() bool { return client.Chain().CurrentBlock().NumberU64() == 1 })
	require.NoError(t, client.Close())

	reborn, err := NewClient(config, &fakeHost{}, &fakeFarm{}, nil, ethdb.Trust, testLogger)
	require.NoError(t, err)
	defer reborn.Close()
	require.Equal(t, b1.Hash(), reborn.Chain().CurrentHash())
}

// TestClientGenesisMismatchWipes covers the Kill path: a store written for a
// different genesis is wiped on startup.
func TestClientGenesisMismatchWipes(t *testing.T) {
	dir := t.TempDir()
	acc := newTestAccount(t)

	first := DefaultConfig()
	first.Genesis = testGenesis(acc.addr)
	first.DataDir = dir
	client, err := NewClient(first, &fakeHost{}, &fakeFarm{}, nil, ethdb.Trust, testLogger)
	require.NoError(t, err)
	b1 := makeBlock(t, client.Chain(), client.Chain().Genesis(), common.HexToAddress("0xc0"), nil, 5)
	client.ImportBlock(b1.EncodeRLP())
	waitFor(t, 5*time.Second, func() bool { return client.Chain().CurrentBlock().NumberU64() == 1 })
	require.NoError(t, client.Close())

	// Same directory, different genesis allocation.
	second := DefaultConfig()
	second.Genesis = testGenesis(newTestAccount(t).addr)
	second.DataDir = dir
	reborn, err := NewClient(second, &fakeHost{}, &fakeFarm{}, nil, ethdb.Trust, testLogger)
	require.NoError(t, err)
	defer reborn.Close()
	require.Equal(t, uint64(0), reborn.Chain().CurrentBlock().NumberU64())
}
