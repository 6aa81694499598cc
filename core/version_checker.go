package core

import (
	"os"
	"path/filepath"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/params"
	"github.com/aurumchain/go-aurum/rlp"
)

const statusFileName = "status"

// VersionChecker inspects the status file of an on-disk data directory and
// decides whether the persistent store may be trusted, must be re-verified,
// or has to be wiped.
//
// The status file is an RLP list of
// [protocolVersion, minorProtocolVersion, databaseVersion, genesisHash].
// A missing genesis hash is treated as matching the current genesis, which
// grandfathers databases written before the field existed.
type VersionChecker struct {
	path    string
	genesis common.Hash
	action  ethdb.WithExisting
	logger  log.Logger
}

// NewVersionChecker reads <dbPath>/status and classifies the store.
func NewVersionChecker(dbPath string, genesis common.Hash, logger log.Logger) *VersionChecker {
	if logger == nil {
		logger = log.Global
	}
	vc := &VersionChecker{path: dbPath, genesis: genesis, logger: logger}
	vc.action = vc.check()
	return vc
}

// Action returns the classification of the store.
func (vc *VersionChecker) Action() ethdb.WithExisting {
	return vc.action
}

func (vc *VersionChecker) check() ethdb.WithExisting {
	data, err := os.ReadFile(filepath.Join(vc.path, statusFileName))
	if err != nil {
		return ethdb.Kill
	}
	item, err := rlp.Decode(data)
	if err != nil {
		return ethdb.Kill
	}
	fields, err := item.List()
	if err != nil || len(fields) < 3 {
		return ethdb.Kill
	}
	// The protocol version is recorded but does not influence the action.
	if _, err := fields[0].Uint64(); err != nil {
		return ethdb.Kill
	}
	minorProtocolVersion, err := fields[1].Uint64()
	if err != nil {
		return ethdb.Kill
	}
	databaseVersion, err := fields[2].Uint64()
	if err != nil {
		return ethdb.Kill
	}
	genesisHash := vc.genesis
	if len(fields) > 3 {
		raw, err := fields[3].Bytes()
		if err != nil || len(raw) != common.HashLength {
			return ethdb.Kill
		}
		genesisHash = common.BytesToHash(raw)
	}

	switch {
	case databaseVersion != params.DatabaseVersion || genesisHash != vc.genesis:
		return ethdb.Kill
	case minorProtocolVersion != params.MinorProtocolVersion:
		return ethdb.Verify
	default:
		return ethdb.Trust
	}
}

// SetOk records the current version tuple, marking the store good for the
// next startup. Directory creation failure is logged and swallowed; a later
// write surfaces the real I/O problem.
func (vc *VersionChecker) SetOk() {
	if vc.action == ethdb.Trust {
		return
	}
	if err := os.MkdirAll(vc.path, 0755); err != nil {
		vc.logger.WithFields(log.Fields{"path": vc.path, "err": err}).Warn("Failed to create database directory")
	}
	status := rlp.EncodeList(
		rlp.EncodeUint64(params.ProtocolVersion),
		rlp.EncodeUint64(params.MinorProtocolVersion),
		rlp.EncodeUint64(params.DatabaseVersion),
		rlp.EncodeBytes(vc.genesis.Bytes()),
	)
	if err := os.WriteFile(filepath.Join(vc.path, statusFileName), status, 0644); err != nil {
		vc.logger.WithFields(log.Fields{"path": vc.path, "err": err}).Warn("Failed to write status file")
	}
}
