// Package dag provides the directed acyclic dependency graph used to order
// warehouse table builds. It supports cycle detection, topological sorting,
// and grouping nodes into barrier-separated execution levels.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed acyclic graph keyed by table name.
type Graph struct {
	nodes   map[string]bool
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]bool),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if !g.nodes[id] {
		g.nodes[id] = true
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	}
}

// AddEdge adds a directed edge from parent to child (child depends on
// parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	if !g.nodes[parentID] {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if !g.nodes[childID] {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetParents returns the dependencies of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the dependents of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle returns true if the graph contains a cycle, along with the
// cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for id := range g.nodes {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns node ids in topological order (dependencies
// before dependents). Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, id)
	}

	// Sort node ids first for deterministic order.
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visit(id)
	}
	return result, nil
}

// ExecutionLevels returns node ids grouped by execution level. Nodes at
// level N have all dependencies at levels < N, so a level may run
// concurrently once the previous level has fully completed.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}

		maxParentLevel := 0
		for _, parentID := range parents {
			if parentLevel := getLevel(parentID); parentLevel > maxParentLevel {
				maxParentLevel = parentLevel
			}
		}
		assigned[id] = maxParentLevel + 1
		return maxParentLevel + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if level := getLevel(id); level > maxLevel {
			maxLevel = level
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns nodes with no dependencies.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
