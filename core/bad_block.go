package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aurumchain/go-aurum/common/hexutil"
	"github.com/aurumchain/go-aurum/core/types"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/params"
)

// Hints carries the heterogeneous debugging details attached to a rejected
// block: transaction or uncle indexes, required-vs-got mismatches, traces.
type Hints map[string]interface{}

// BadBlockError is the failure of a block to validate, carrying the offending
// block and any hints the validator attached.
type BadBlockError struct {
	Block  *types.Block
	Reason string
	Hints  Hints
}

// NewBadBlockError constructs a BadBlockError with the given hints.
func NewBadBlockError(block *types.Block, reason string, hints Hints) *BadBlockError {
	return &BadBlockError{Block: block, Reason: reason, Hints: hints}
}

func (e *BadBlockError) Error() string {
	return fmt.Sprintf("bad block %s: %s", e.Block.Hash().TerminalString(), e.Reason)
}

// Report assembles the structured report sent to the sentinel.
func (e *BadBlockError) Report() map[string]interface{} {
	report := map[string]interface{}{
		"client":          params.ClientIdentifier,
		"version":         params.Version,
		"protocolVersion": params.ProtocolVersion,
		"databaseVersion": params.DatabaseVersion,
		"errortype":       e.Reason,
		"block":           hexutil.Encode(e.Block.EncodeRLP()),
	}
	hints := make(map[string]interface{}, len(e.Hints))
	for tag, value := range e.Hints {
		switch v := value.(type) {
		case []byte:
			hints[tag] = hexutil.Encode(v)
		case fmt.Stringer:
			hints[tag] = v.String()
		default:
			hints[tag] = v
		}
	}
	report["hints"] = hints
	return report
}

const sentinelTimeout = 10 * time.Second

// badBlockReporter forwards bad-block reports to a configured sentinel
// endpoint over JSON-RPC. Reporting is best effort: failures are logged and
// swallowed, never surfaced to the import path.
type badBlockReporter struct {
	sentinelURL string
	client      *http.Client
	logger      log.Logger
}

func newBadBlockReporter(sentinelURL string, logger log.Logger) *badBlockReporter {
	return &badBlockReporter{
		sentinelURL: sentinelURL,
		client:      &http.Client{Timeout: sentinelTimeout},
		logger:      logger,
	}
}

// report logs the bad block locally and POSTs it to the sentinel if one is
// configured.
func (r *badBlockReporter) report(err *BadBlockError) {
	report := err.Report()
	pretty, _ := json.MarshalIndent(report, "", "  ")
	r.logger.WithField("report", string(pretty)).Warn("Bad block seen")

	if r.sentinelURL == "" {
		return
	}
	payload, marshalErr := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "aur_badBlock",
		"params":  []interface{}{report},
		"id":      1,
	})
	if marshalErr != nil {
		r.logger.WithField("err", marshalErr).Warn("Failed to encode bad block report")
		return
	}
	resp, postErr := r.client.Post(r.sentinelURL, "application/json", bytes.NewReader(payload))
	if postErr != nil {
		r.logger.WithFields(log.Fields{
			"sentinel": r.sentinelURL,
			"err":      postErr,
		}).Warn("Error reporting to sentinel. Sure the address is correct?")
		return
	}
	resp.Body.Close()
}
