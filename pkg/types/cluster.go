package types

import (
	"strings"
	"time"
)

// NodeState represents the membership state of a cluster node
type NodeState string

const (
	NodeStateMember    NodeState = "member"
	NodeStateDead      NodeState = "dead"
	NodeStateEstranged NodeState = "estranged"
	NodeStateUnknown   NodeState = "unknown"
)

// ServiceState represents the run state of a managed cluster service
type ServiceState string

const (
	ServiceStateStarted    ServiceState = "started"
	ServiceStateStopped    ServiceState = "stopped"
	ServiceStateStarting   ServiceState = "starting"
	ServiceStateStopping   ServiceState = "stopping"
	ServiceStateFailed     ServiceState = "failed"
	ServiceStateRecovering ServiceState = "recovering"
	ServiceStateUnknown    ServiceState = "unknown"
)

// ParseNodeState maps a backend state string to a NodeState, defaulting to
// NodeStateUnknown for unrecognized values
func ParseNodeState(s string) NodeState {
	switch NodeState(strings.ToLower(s)) {
	case NodeStateMember, NodeStateDead, NodeStateEstranged:
		return NodeState(strings.ToLower(s))
	}
	return NodeStateUnknown
}

// ParseServiceState maps a backend state string to a ServiceState,
// defaulting to ServiceStateUnknown for unrecognized values
func ParseServiceState(s string) ServiceState {
	switch ServiceState(strings.ToLower(s)) {
	case ServiceStateStarted, ServiceStateStopped, ServiceStateStarting,
		ServiceStateStopping, ServiceStateFailed, ServiceStateRecovering:
		return ServiceState(strings.ToLower(s))
	}
	return ServiceStateUnknown
}

// ClusterSnapshot is a point-in-time view of cluster state as reported by
// the monitoring backend. Snapshots are immutable once published.
type ClusterSnapshot struct {
	// Sequence increases by one for every refresh; consumers use it to
	// detect missed updates
	Sequence uint64 `json:"sequence"`

	Cluster  Cluster   `json:"cluster"`
	Nodes    []Node    `json:"nodes"`
	Services []Service `json:"services"`

	// Taken records when the snapshot was captured
	Taken time.Time `json:"taken"`
}

// Age returns how old the snapshot is at the given instant
func (s *ClusterSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Taken)
}

// Node returns the named node, comparing names exactly
func (s *ClusterSnapshot) Node(name string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Service returns the named service
func (s *ClusterSnapshot) Service(name string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

// Cluster describes the cluster itself
type Cluster struct {
	Name string `json:"name"`

	// Alias is the operator-facing display name, when distinct from Name
	Alias string `json:"alias,omitempty"`

	// Quorate reports whether the cluster currently has quorum
	Quorate bool `json:"quorate"`

	// Votes is the current vote count; MinQuorum the threshold for quorum
	Votes     int `json:"votes"`
	MinQuorum int `json:"min_quorum"`
}

// Node describes one cluster member
type Node struct {
	Name  string    `json:"name"`
	State NodeState `json:"state"`

	// Clustered reports whether cluster software is running on the node
	Clustered bool `json:"clustered"`

	// Votes is the number of quorum votes the node contributes
	Votes int `json:"votes"`

	// Usage carries host resource usage when fact gathering is enabled;
	// nil otherwise
	Usage *NodeUsage `json:"usage,omitempty"`
}

// Online reports whether the node is a live cluster member
func (n Node) Online() bool {
	return n.State == NodeStateMember
}

// NodeUsage is host resource usage for a node, gathered locally
type NodeUsage struct {
	CPUCount      int     `json:"cpu_count"`
	Load1         float64 `json:"load1"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// Service describes one managed cluster service (resource group)
type Service struct {
	Name  string       `json:"name"`
	State ServiceState `json:"state"`

	// Owner is the node currently running the service; empty when stopped
	Owner string `json:"owner,omitempty"`

	// LastOwner is the node that ran the service before the last
	// transition
	LastOwner string `json:"last_owner,omitempty"`

	// Autostart reports whether the service starts with the cluster
	Autostart bool `json:"autostart"`

	// RestartCount is the number of restarts since the service was
	// last started cleanly
	RestartCount int `json:"restart_count"`

	// LastTransition is when the service last changed state
	LastTransition time.Time `json:"last_transition,omitempty"`
}

// Running reports whether the service is currently providing its resource
func (s Service) Running() bool {
	return s.State == ServiceStateStarted
}
