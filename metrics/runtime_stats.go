package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/aurumchain/go-aurum/log"
)

const statsCollectionPeriod = 15 * time.Second

// StartProcessMetrics samples process CPU and memory usage into gauges until
// the quit channel closes.
func StartProcessMetrics(quit <-chan struct{}, logger log.Logger) {
	if !enabled {
		return
	}
	cpuGauge := NewGaugeVec("process_cpu_usage", "Process and system CPU usage")
	memGauge := NewGaugeVec("process_mem_usage", "Process memory usage")

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.WithField("err", err).Error("Failed to attach process metrics")
		return
	}

	ticker := time.NewTicker(statsCollectionPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			collect(cpuGauge, memGauge, proc, logger)
		case <-quit:
			return
		}
	}
}

func collect(cpuGauge, memGauge *prometheus.GaugeVec, proc *process.Process, logger log.Logger) {
	if percent, err := proc.CPUPercent(); err != nil {
		logger.WithField("err", err).Error("Failed to get process CPU percent")
	} else {
		cpuGauge.WithLabelValues("process").Set(percent)
	}

	if usage, err := cpu.Percent(0, false); err != nil {
		logger.WithField("err", err).Error("Failed to get system CPU percent")
	} else if len(usage) > 0 {
		cpuGauge.WithLabelValues("system").Set(usage[0])
	}

	if memInfo, err := proc.MemoryInfo(); err != nil {
		logger.WithField("err", err).Error("Failed to get memory info")
	} else {
		memGauge.WithLabelValues("rss").Set(float64(memInfo.RSS))
		memGauge.WithLabelValues("swap").Set(float64(memInfo.Swap))
	}
}
