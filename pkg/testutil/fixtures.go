package testutil

import (
	"time"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// ClusterSnapshot returns a two node, two service snapshot used as the
// baseline fixture across tests
func ClusterSnapshot() *types.ClusterSnapshot {
	return &types.ClusterSnapshot{
		Cluster: types.Cluster{
			Name:      "production",
			Alias:     "Production Cluster",
			Quorate:   true,
			Votes:     2,
			MinQuorum: 2,
		},
		Nodes: []types.Node{
			{Name: "node01", State: types.NodeStateMember, Clustered: true, Votes: 1},
			{Name: "node02", State: types.NodeStateMember, Clustered: true, Votes: 1},
		},
		Services: []types.Service{
			{Name: "webserver", State: types.ServiceStateStarted, Owner: "node01", Autostart: true},
			{Name: "database", State: types.ServiceStateStarted, Owner: "node02", Autostart: true},
		},
		Taken: time.Now(),
	}
}

// DegradedSnapshot returns ClusterSnapshot with node02 dead and its
// service failed over
func DegradedSnapshot() *types.ClusterSnapshot {
	snap := ClusterSnapshot()
	snap.Nodes[1].State = types.NodeStateDead
	snap.Nodes[1].Clustered = false
	snap.Services[1].State = types.ServiceStateRecovering
	snap.Services[1].Owner = ""
	snap.Services[1].LastOwner = "node02"
	snap.Taken = time.Now()
	return snap
}

// ProviderConfig returns a minimal valid provider configuration
func ProviderConfig() types.ProviderConfig {
	return types.ProviderConfig{
		Type:         types.ProviderTypeCluster,
		Name:         "cluster-test",
		PollInterval: 50 * time.Millisecond,
		StaleAfter:   time.Second,
	}
}
