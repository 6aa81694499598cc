package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aurumchain/go-aurum/log"
)

// Viper keys of the recognized options.
const (
	DataDirFlag        = "data-dir"
	LogLevelFlag       = "log-level"
	NetworkIDFlag      = "network-id"
	SentinelURLFlag    = "sentinel-url"
	MinerAddressFlag   = "miner-address"
	MineFlag           = "mine"
	ForceMiningFlag    = "force-mining"
	MineOnBadChainFlag = "mine-on-bad-chain"
	TurboMiningFlag    = "turbo-mining"
	MinerThreadsFlag   = "miner-threads"
	MetricsAddrFlag    = "metrics-addr"
)

var rootCmd = &cobra.Command{
	Use:               "go-aurum",
	Short:             "Aurum blockchain node",
	PersistentPreRunE: rootCmdPreRun,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(DataDirFlag, defaultDataDir(), "data directory for the databases")
	flags.String(LogLevelFlag, "info", "log level (trace|debug|info|warn|error)")
	flags.Uint64(NetworkIDFlag, 1, "network id of the peer network to join")
	flags.String(SentinelURLFlag, "", "JSON-RPC endpoint receiving bad block reports")
	flags.String(MinerAddressFlag, "", "beneficiary address of sealed blocks")
	flags.Bool(MineFlag, false, "start mining on boot")
	flags.Bool(ForceMiningFlag, false, "prepare mining work even with an empty transaction queue")
	flags.Bool(MineOnBadChainFlag, false, "keep mining when the canary marks the chain bad")
	flags.Bool(TurboMiningFlag, false, "prefer GPU search workers")
	flags.Int(MinerThreadsFlag, 1, "number of CPU search threads")
	flags.String(MetricsAddrFlag, "", "listen address of the metrics endpoint (empty disables)")

	rootCmd.AddCommand(startCmd)
}

func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	// Set the logger immediately after parsing cobra flags.
	logLevel := cmd.Flag(LogLevelFlag).Value.String()
	log.SetGlobalLogger("", logLevel)

	viper.SetEnvPrefix("GO_AURUM")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Make sure the data dir exists.
	dataDir := viper.GetString(DataDirFlag)
	if dataDir != "" {
		if _, err := os.Stat(dataDir); os.IsNotExist(err) {
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return err
			}
		}
	}
	log.Global.WithField("options", viper.AllSettings()).Debug("config options loaded")
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.go-aurum"
}
