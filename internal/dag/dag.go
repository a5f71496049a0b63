// Package dag models instance dependencies between scene documents. An
// edge runs from a document to every document it instances, so the graph
// answers both "what must load before this document" and "which documents
// are stale when this one changes".
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains an instance cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when an edge would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing edge")

// Node is one document in the DAG.
type Node struct {
	ID string // Normalized document path

	// Missing marks documents that are referenced but were never added
	// with their own reference list.
	Missing bool

	// ClusterID is populated by Clusters.
	ClusterID int
}

// DAG is a directed acyclic graph of documents. If A instances B there is
// an edge from A to B.
type DAG struct {
	nodes map[string]*Node
	// adjacency maps nodeID → set of instanced document IDs (forward edges).
	adjacency map[string]map[string]bool
	// reverse maps nodeID → set of instancing document IDs (backward edges).
	reverse map[string]map[string]bool
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:     make(map[string]*Node),
		adjacency: make(map[string]map[string]bool),
		reverse:   make(map[string]map[string]bool),
	}
}

// FromDocuments builds the DAG for a set of documents and the instance paths
// each one references. Referenced paths missing from refs become Missing
// nodes. A reference cycle fails with ErrCycle naming the offending edge.
func FromDocuments(refs map[string][]string) (*DAG, error) {
	d := New()
	paths := make([]string, 0, len(refs))
	for p := range refs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := d.AddNode(p); err != nil {
			return nil, err
		}
	}
	for _, p := range paths {
		for _, ref := range refs[p] {
			if d.nodes[ref] == nil {
				_ = d.AddNode(ref)
				d.nodes[ref].Missing = true
			}
			if err := d.AddEdge(p, ref); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// AddNode adds a document. Returns ErrDuplicateNode if it already exists.
func (d *DAG) AddNode(id string) error {
	if _, exists := d.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	d.nodes[id] = &Node{ID: id}
	d.adjacency[id] = make(map[string]bool)
	d.reverse[id] = make(map[string]bool)
	return nil
}

// AddEdge records that from instances to. Both nodes must already exist.
// Returns an error if either node is missing, the edge would create a
// self-loop, or the edge would introduce a cycle.
func (d *DAG) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfEdge, from)
	}
	if _, ok := d.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := d.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	if d.adjacency[from][to] {
		return nil
	}
	// A path to → ... → from plus from → to would close a cycle.
	if d.hasPath(to, from) {
		return fmt.Errorf("%w: edge %s → %s would create a cycle", ErrCycle, from, to)
	}
	d.adjacency[from][to] = true
	d.reverse[to][from] = true
	return nil
}

// Remove removes a node and all its associated edges from the DAG.
// Returns ErrNodeNotFound if the node does not exist.
func (d *DAG) Remove(id string) error {
	if _, ok := d.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	for dep := range d.adjacency[id] {
		delete(d.reverse[dep], id)
	}
	delete(d.adjacency, id)

	for dependent := range d.reverse[id] {
		delete(d.adjacency[dependent], id)
	}
	delete(d.reverse, id)

	delete(d.nodes, id)
	return nil
}

// Node returns the node with the given ID, or nil if not found.
func (d *DAG) Node(id string) *Node {
	return d.nodes[id]
}

// Nodes returns all node IDs in the DAG, sorted alphabetically.
func (d *DAG) Nodes() []string {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of nodes in the DAG.
func (d *DAG) Len() int {
	return len(d.nodes)
}

// Refs returns the documents id instances directly, sorted.
func (d *DAG) Refs(id string) []string {
	return sortedSet(d.adjacency[id])
}

// TopologicalSort returns node IDs with every instanced document before the
// documents instancing it. Ties break alphabetically.
func (d *DAG) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(d.nodes))
	for id := range d.nodes {
		inDegree[id] = len(d.adjacency[id])
	}

	queue := d.zeroDegreeNodes(inDegree)
	sort.Strings(queue)

	sorted := make([]string, 0, len(d.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		var freed []string
		for dependent := range d.reverse[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if len(sorted) != len(d.nodes) {
		return nil, fmt.Errorf("%w: not all nodes could be ordered (%d of %d)",
			ErrCycle, len(sorted), len(d.nodes))
	}
	return sorted, nil
}

// Ancestors returns every document id instances, directly or through other
// documents, sorted. Returns nil for unknown ids.
func (d *DAG) Ancestors(id string) []string {
	if _, ok := d.nodes[id]; !ok {
		return nil
	}
	visited := make(map[string]bool)
	d.collect(d.adjacency, id, visited)
	return sortedSet(visited)
}

// Descendants returns every document that instances id, directly or through
// other documents, sorted. These are the documents to reload when id
// changes. Returns nil for unknown ids.
func (d *DAG) Descendants(id string) []string {
	if _, ok := d.nodes[id]; !ok {
		return nil
	}
	visited := make(map[string]bool)
	d.collect(d.reverse, id, visited)
	return sortedSet(visited)
}

// hasPath reports whether there is a directed path from src to dst
// through forward edges.
func (d *DAG) hasPath(src, dst string) bool {
	if src == dst {
		return false
	}
	visited := make(map[string]bool)
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range d.adjacency[cur] {
			if dep == dst {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return false
}

func (d *DAG) collect(edges map[string]map[string]bool, id string, visited map[string]bool) {
	for next := range edges[id] {
		if !visited[next] {
			visited[next] = true
			d.collect(edges, next, visited)
		}
	}
}

func (d *DAG) zeroDegreeNodes(inDegree map[string]int) []string {
	var result []string
	for id, deg := range inDegree {
		if deg == 0 {
			result = append(result, id)
		}
	}
	return result
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
