package graph

import (
	"container/heap"
	"fmt"
	"math"
)

// Path is the outcome of a successful search
type Path struct {
	Stations      []string `json:"stations"`
	DistanceKm    float64  `json:"distance_km"`
	ExpandedNodes int      `json:"expanded_nodes"`
}

// Hops returns the number of edges travelled.
func (p Path) Hops() int {
	if len(p.Stations) == 0 {
		return 0
	}
	return len(p.Stations) - 1
}

// OptimalPath finds the shortest sequence of stations from start to target where no single
// hop is longer than rangeKm. The range applies to each edge on its own, not to the sum.
//
// The open set pops the lowest f-score; equal scores are resolved by the lower station index,
// which is the position of the station in the list given to New.
func (g *Graph) OptimalPath(start, target string, rangeKm float64) (Path, error) {
	startNode, err := g.lookup(start)
	if err != nil {
		return Path{}, err
	}
	goalNode, err := g.lookup(target)
	if err != nil {
		return Path{}, err
	}

	heuristic := func(node int) float64 {
		return g.distance(node, goalNode)
	}

	n := len(g.stations)
	cameFrom := make([]int, n)
	gScore := make([]float64, n)
	fScore := make([]float64, n)
	inOpen := make([]*openItem, n)
	for i := 0; i < n; i++ {
		cameFrom[i] = -1
		gScore[i] = math.Inf(1)
		fScore[i] = math.Inf(1)
	}

	gScore[startNode] = 0
	fScore[startNode] = heuristic(startNode)

	open := make(openSet, 0, n)
	startItem := &openItem{node: startNode, fScore: fScore[startNode]}
	heap.Push(&open, startItem)
	inOpen[startNode] = startItem

	expandedNodes := 0
	for open.Len() > 0 {
		current := heap.Pop(&open).(*openItem).node
		inOpen[current] = nil
		expandedNodes++

		if current == goalNode {
			return Path{
				Stations:      g.reconstructPath(cameFrom, current),
				DistanceKm:    gScore[current],
				ExpandedNodes: expandedNodes,
			}, nil
		}

		for _, neighbor := range g.adjacency[current] {
			weight := g.weights[newPairKey(current, neighbor)]
			tentative := gScore[current] + weight

			if tentative < gScore[neighbor] && rangeKm-weight >= 0 {
				cameFrom[neighbor] = current
				gScore[neighbor] = tentative
				fScore[neighbor] = tentative + heuristic(neighbor)

				if item := inOpen[neighbor]; item != nil {
					item.fScore = fScore[neighbor]
					heap.Fix(&open, item.indexInQueue)
				} else {
					item = &openItem{node: neighbor, fScore: fScore[neighbor]}
					heap.Push(&open, item)
					inOpen[neighbor] = item
				}
			}
		}
	}

	return Path{}, fmt.Errorf("%w: from %q to %q with a %.1f km range", ErrUnreachablePath, start, target, rangeKm)
}

// reconstructPath follows predecessor links back to the start and reverses them.
func (g *Graph) reconstructPath(cameFrom []int, current int) []string {
	path := []string{g.stations[current].Name}
	for cameFrom[current] != -1 {
		current = cameFrom[current]
		path = append(path, g.stations[current].Name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
