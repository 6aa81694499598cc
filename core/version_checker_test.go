package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/params"
	"github.com/aurumchain/go-aurum/rlp"
)

func TestVersionCheckerFreshDirectory(t *testing.T) {
	dir := t.TempDir()
	genesis := common.HexToHash("0x01")

	vc := NewVersionChecker(dir, genesis, testLogger)
	require.Equal(t, ethdb.Kill, vc.Action())
}

func TestVersionCheckerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	genesis := common.HexToHash("0x01")

	NewVersionChecker(dir, genesis, testLogger).SetOk()

	vc := NewVersionChecker(dir, genesis, testLogger)
	require.Equal(t, ethdb.Trust, vc.Action())
}

func TestVersionCheckerCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	genesis := common.HexToHash("0x02")

	NewVersionChecker(dir, genesis, testLogger).SetOk()

	_, err := os.Stat(filepath.Join(dir, "status"))
	require.NoError(t, err)
}

func TestVersionCheckerGenesisMismatch(t *testing.T) {
	dir := t.TempDir()
	NewVersionChecker(dir, common.HexToHash("0x01"), testLogger).SetOk()

	vc := NewVersionChecker(dir, common.HexToHash("0x02"), testLogger)
	require.Equal(t, ethdb.Kill, vc.Action())
}

func TestVersionCheckerMinorVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	genesis := common.HexToHash("0x03")

	status := rlp.EncodeList(
		rlp.EncodeUint64(params.ProtocolVersion),
		rlp.EncodeUint64(params.MinorProtocolVersion+1),
		rlp.EncodeUint64(params.DatabaseVersion),
		rlp.EncodeBytes(genesis.Bytes()),
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), status, 0644))

	vc := NewVersionChecker(dir, genesis, testLogger)
	require.Equal(t, ethdb.Verify, vc.Action())
}

func TestVersionCheckerDatabaseVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	genesis := common.HexToHash("0x04")

	status := rlp.EncodeList(
		rlp.EncodeUint64(params.ProtocolVersion),
		rlp.EncodeUint64(params.MinorProtocolVersion),
		rlp.EncodeUint64(params.DatabaseVersion+1),
		rlp.EncodeBytes(genesis.Bytes()),
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), status, 0644))

	vc := NewVersionChecker(dir, genesis, testLogger)
	require.Equal(t, ethdb.Kill, vc.Action())
}

func TestVersionCheckerMissingGenesisGrandfathered(t *testing.T) {
	dir := t.TempDir()
	genesis := common.HexToHash("0x05")

	status := rlp.EncodeList(
		rlp.EncodeUint64(params.ProtocolVersion),
		rlp.EncodeUint64(params.MinorProtocolVersion),
		rlp.EncodeUint64(params.DatabaseVersion),
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), status, 0644))

	vc := NewVersionChecker(dir, genesis, testLogger)
	require.Equal(t, ethdb.Trust, vc.Action())
}

func TestVersionCheckerGarbageStatus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte{0xff, 0x00, 0x13, 0x37}, 0644))

	vc := NewVersionChecker(dir, common.HexToHash("0x06"), testLogger)
	require.Equal(t, ethdb.Kill, vc.Action())
}
