package dag

import "sort"

// Cluster is a set of documents connected through instance references.
// Documents in different clusters share no prefabs.
type Cluster struct {
	// ID is assigned in output order, starting at 0.
	ID int

	// Paths lists the member documents in topological order.
	Paths []string
}

// Clusters partitions the DAG into connected components, largest first,
// and stamps Node.ClusterID. Returns an error if the DAG has a cycle.
func (d *DAG) Clusters() ([]Cluster, error) {
	if len(d.nodes) == 0 {
		return nil, nil
	}
	order, err := d.TopologicalSort()
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	sets := newDisjointSet()
	for id := range d.nodes {
		sets.add(id)
	}
	for from, refs := range d.adjacency {
		for to := range refs {
			sets.union(from, to)
		}
	}

	var clusters []Cluster
	for _, members := range sets.groups() {
		sort.Slice(members, func(i, j int) bool { return pos[members[i]] < pos[members[j]] })
		clusters = append(clusters, Cluster{Paths: members})
	}
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Paths) != len(clusters[j].Paths) {
			return len(clusters[i].Paths) > len(clusters[j].Paths)
		}
		return clusters[i].Paths[0] < clusters[j].Paths[0]
	})
	for i := range clusters {
		clusters[i].ID = i
		for _, id := range clusters[i].Paths {
			d.nodes[id].ClusterID = i
		}
	}
	return clusters, nil
}
