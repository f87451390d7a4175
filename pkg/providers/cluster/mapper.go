package cluster

import "github.com/clustermon/cim-provider-kit/pkg/types"

// ClusterPath returns the object path of the cluster instance
func ClusterPath(name string) types.ObjectPath {
	return types.NewObjectPath(types.ClassCluster, map[string]string{"Name": name})
}

// NodePath returns the object path of a node instance
func NodePath(name string) types.ObjectPath {
	return types.NewObjectPath(types.ClassClusterNode, map[string]string{"Name": name})
}

// ServicePath returns the object path of a service instance
func ServicePath(name string) types.ObjectPath {
	return types.NewObjectPath(types.ClassClusterService, map[string]string{"Name": name})
}

// MapCluster materializes the RedHat_Cluster instance from a snapshot
func MapCluster(snap *types.ClusterSnapshot) *types.Instance {
	return types.NewInstance(ClusterPath(snap.Cluster.Name)).
		Set("Name", snap.Cluster.Name).
		Set("Alias", snap.Cluster.Alias).
		Set("Quorate", snap.Cluster.Quorate).
		Set("Votes", snap.Cluster.Votes).
		Set("MinQuorum", snap.Cluster.MinQuorum).
		Set("NodeCount", len(snap.Nodes)).
		Set("ServiceCount", len(snap.Services))
}

// MapNode materializes a RedHat_ClusterNode instance
func MapNode(node types.Node) *types.Instance {
	inst := types.NewInstance(NodePath(node.Name)).
		Set("Name", node.Name).
		Set("State", string(node.State)).
		Set("Clustered", node.Clustered).
		Set("Votes", node.Votes)

	if node.Usage != nil {
		inst.Set("CPUCount", node.Usage.CPUCount).
			Set("Load1", node.Usage.Load1).
			Set("MemoryTotalMB", node.Usage.MemoryTotalMB).
			Set("MemoryUsedMB", node.Usage.MemoryUsedMB).
			Set("UptimeSeconds", node.Usage.UptimeSeconds)
	}

	return inst
}

// MapService materializes a RedHat_ClusterService instance
func MapService(svc types.Service) *types.Instance {
	inst := types.NewInstance(ServicePath(svc.Name)).
		Set("Name", svc.Name).
		Set("State", string(svc.State)).
		Set("Owner", svc.Owner).
		Set("LastOwner", svc.LastOwner).
		Set("Autostart", svc.Autostart).
		Set("RestartCount", svc.RestartCount)

	if !svc.LastTransition.IsZero() {
		inst.Set("LastTransition", svc.LastTransition)
	}

	return inst
}

// MapClass materializes every instance of the class in the snapshot
func MapClass(snap *types.ClusterSnapshot, class types.ClassName) []*types.Instance {
	switch {
	case class.Equal(types.ClassCluster):
		return []*types.Instance{MapCluster(snap)}
	case class.Equal(types.ClassClusterNode):
		instances := make([]*types.Instance, 0, len(snap.Nodes))
		for _, node := range snap.Nodes {
			instances = append(instances, MapNode(node))
		}
		return instances
	case class.Equal(types.ClassClusterService):
		instances := make([]*types.Instance, 0, len(snap.Services))
		for _, svc := range snap.Services {
			instances = append(instances, MapService(svc))
		}
		return instances
	}
	return nil
}

// MapSnapshot materializes every instance in the snapshot across all
// served classes
func MapSnapshot(snap *types.ClusterSnapshot) []*types.Instance {
	instances := []*types.Instance{MapCluster(snap)}
	for _, node := range snap.Nodes {
		instances = append(instances, MapNode(node))
	}
	for _, svc := range snap.Services {
		instances = append(instances, MapService(svc))
	}
	return instances
}

// ServedClasses lists the CIM classes the cluster provider serves
func ServedClasses() []types.ClassName {
	return []types.ClassName{
		types.ClassCluster,
		types.ClassClusterNode,
		types.ClassClusterService,
	}
}

// servesClass reports whether the provider serves the class
func servesClass(class types.ClassName) bool {
	for _, served := range ServedClasses() {
		if served.Equal(class) {
			return true
		}
	}
	return false
}
