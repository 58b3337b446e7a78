package graph

import "sort"

// Components groups nodes into weakly connected components, treating edges
// as undirected. Components are ordered largest first, ties by first node;
// members keep node order.
func (g *Graph) Components() [][]string {
	pos := make(map[string]int, len(g.nodes))
	for i, id := range g.nodes {
		pos[id] = i
	}
	adj := make([][]int, len(g.nodes))
	for _, e := range g.edges {
		s, t := pos[e.Source], pos[e.Target]
		adj[s] = append(adj[s], t)
		adj[t] = append(adj[t], s)
	}

	visited := make([]bool, len(g.nodes))
	var comps [][]int
	for i := range g.nodes {
		if visited[i] {
			continue
		}
		var comp []int
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			comp = append(comp, node)
			for _, n := range adj[node] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}

	sort.SliceStable(comps, func(a, b int) bool { return len(comps[a]) > len(comps[b]) })

	out := make([][]string, len(comps))
	for i, comp := range comps {
		ids := make([]string, len(comp))
		for j, n := range comp {
			ids[j] = g.nodes[n]
		}
		out[i] = ids
	}
	return out
}

// Largest returns the size of the biggest component.
func Largest(comps [][]string) int {
	n := 0
	for _, c := range comps {
		if len(c) > n {
			n = len(c)
		}
	}
	return n
}
