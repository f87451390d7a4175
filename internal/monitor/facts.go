package monitor

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/clustermon/cim-provider-kit/pkg/metrics"
	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// LocalUsage gathers resource usage for the host the provider runs on.
// Individual probes that fail are left at their zero value.
func LocalUsage(ctx context.Context) *types.NodeUsage {
	timer := prometheus.NewTimer(metrics.FactGatherTime.WithLabelValues())
	defer timer.ObserveDuration()

	usage := &types.NodeUsage{}

	count, err := cpu.CountsWithContext(ctx, true)
	if err == nil {
		usage.CPUCount = count
	}

	avg, err := load.AvgWithContext(ctx)
	if err == nil {
		usage.Load1 = avg.Load1
	}

	virtual, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil {
		usage.MemoryTotalMB = virtual.Total / 1024 / 1024
		usage.MemoryUsedMB = virtual.Used / 1024 / 1024
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err == nil {
		usage.UptimeSeconds = uptime
	}

	return usage
}

// enrichLocalNode attaches local resource usage to the snapshot node whose
// name matches the local hostname
func (m *Monitor) enrichLocalNode(ctx context.Context, snap *types.ClusterSnapshot) {
	hostname, err := os.Hostname()
	if err != nil {
		m.log.WithError(err).Debug("Cannot determine local hostname, skipping fact gathering")
		return
	}

	for i := range snap.Nodes {
		if snap.Nodes[i].Name == hostname {
			snap.Nodes[i].Usage = LocalUsage(ctx)
			return
		}
	}
}
