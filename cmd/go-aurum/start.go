package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aurumchain/go-aurum/common"
	"github.com/aurumchain/go-aurum/core"
	"github.com/aurumchain/go-aurum/ethdb"
	"github.com/aurumchain/go-aurum/log"
	"github.com/aurumchain/go-aurum/metrics"
	"github.com/aurumchain/go-aurum/miner"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Aurum node",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := log.Global

	config := &core.Config{
		NetworkID:      viper.GetUint64(NetworkIDFlag),
		DataDir:        viper.GetString(DataDirFlag),
		SentinelURL:    viper.GetString(SentinelURLFlag),
		MinerAddress:   common.HexToAddress(viper.GetString(MinerAddressFlag)),
		ForceMining:    viper.GetBool(ForceMiningFlag),
		MineOnBadChain: viper.GetBool(MineOnBadChainFlag),
		TurboMining:    viper.GetBool(TurboMiningFlag),
	}

	farm := miner.NewCPUFarm(viper.GetInt(MinerThreadsFlag), logger)
	client, err := core.NewClient(config, &core.NullHost{}, farm, nil, ethdb.Trust, logger)
	if err != nil {
		return err
	}
	defer client.Stop()

	quit := make(chan struct{})
	defer close(quit)
	if addr := viper.GetString(MetricsAddrFlag); addr != "" {
		go func() {
			if err := metrics.StartMetricsServer(addr); err != nil {
				logger.WithField("err", err).Error("Metrics server failed")
			}
		}()
		go metrics.StartProcessMetrics(quit, logger)
	}

	if viper.GetBool(MineFlag) {
		client.StartMining()
	}
	logger.WithFields(log.Fields{
		"datadir": config.DataDir,
		"network": config.NetworkID,
		"head":    client.Chain().CurrentHash(),
	}).Info("Aurum node started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")
	return nil
}
