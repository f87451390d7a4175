// Package statusdoc parses the JSON cluster status document produced by
// the cluster manager and its management API.
package statusdoc

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/clustermon/cim-provider-kit/pkg/types"
)

// Parse converts a status document into a snapshot. The document must at
// minimum name the cluster; nodes and services are optional.
func Parse(body []byte) (*types.ClusterSnapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("status document is not valid JSON")
	}

	doc := gjson.ParseBytes(body)
	if !doc.Get("cluster.name").Exists() {
		return nil, fmt.Errorf("status document has no cluster name")
	}

	snap := &types.ClusterSnapshot{
		Cluster: types.Cluster{
			Name:      doc.Get("cluster.name").String(),
			Alias:     doc.Get("cluster.alias").String(),
			Quorate:   doc.Get("cluster.quorate").Bool(),
			Votes:     int(doc.Get("cluster.votes").Int()),
			MinQuorum: int(doc.Get("cluster.min_quorum").Int()),
		},
		Taken: time.Now(),
	}

	doc.Get("nodes").ForEach(func(_, node gjson.Result) bool {
		snap.Nodes = append(snap.Nodes, types.Node{
			Name:      node.Get("name").String(),
			State:     types.ParseNodeState(node.Get("state").String()),
			Clustered: node.Get("clustered").Bool(),
			Votes:     int(node.Get("votes").Int()),
		})
		return true
	})

	doc.Get("services").ForEach(func(_, svc gjson.Result) bool {
		service := types.Service{
			Name:         svc.Get("name").String(),
			State:        types.ParseServiceState(svc.Get("state").String()),
			Owner:        svc.Get("owner").String(),
			LastOwner:    svc.Get("last_owner").String(),
			Autostart:    svc.Get("autostart").Bool(),
			RestartCount: int(svc.Get("restart_count").Int()),
		}
		if ts := svc.Get("last_transition").Int(); ts > 0 {
			service.LastTransition = time.Unix(ts, 0)
		}
		snap.Services = append(snap.Services, service)
		return true
	})

	return snap, nil
}
