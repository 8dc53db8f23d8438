package graph

import (
	"fmt"
	"sort"

	"charging-route-service/internal/geo"
	"charging-route-service/internal/station"
)

// DefaultProximityThresholdKm links every pair of stations closer than this distance.
const DefaultProximityThresholdKm = 40.0

// pairKey identifies an undirected edge; lo is always the smaller index.
type pairKey struct {
	lo, hi int
}

func newPairKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Edge is an undirected link between two stations.
type Edge struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
}

// Neighbor is a station adjacent to another one together with the edge weight.
type Neighbor struct {
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

// Options defines parameters for graph construction.
type Options struct {
	ProximityThresholdKm float64
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithProximityThreshold overrides the distance under which stations are linked directly.
func WithProximityThreshold(km float64) Option {
	return func(options *Options) { options.ProximityThresholdKm = km }
}

// Graph is a weighted undirected graph over charging stations.
type Graph struct {
	stations  []station.Station
	index     map[string]int
	weights   map[pairKey]float64
	adjacency [][]int
}

// New builds the station graph. Every pair closer than the proximity threshold gets an
// edge; afterwards every station left without edges is linked to its nearest station.
func New(stations []station.Station, options ...Option) (*Graph, error) {
	graphOptions := Options{
		ProximityThresholdKm: DefaultProximityThresholdKm,
	}
	for _, option := range options {
		option(&graphOptions)
	}

	if len(stations) < 2 {
		return nil, fmt.Errorf("%w: need at least two stations, got %d", ErrMalformedGraph, len(stations))
	}

	g := &Graph{
		stations:  make([]station.Station, len(stations)),
		index:     make(map[string]int, len(stations)),
		weights:   make(map[pairKey]float64),
		adjacency: make([][]int, len(stations)),
	}
	copy(g.stations, stations)

	for i, s := range g.stations {
		if !geo.Valid(s.Latitude, s.Longitude) {
			return nil, fmt.Errorf("%w: station %q has non-finite coordinates", ErrMalformedGraph, s.Name)
		}
		if _, exists := g.index[s.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate station name %q", ErrMalformedGraph, s.Name)
		}
		g.index[s.Name] = i
	}

	// Proximity pass
	for i := range g.stations {
		for j := i + 1; j < len(g.stations); j++ {
			if d := g.distance(i, j); d < graphOptions.ProximityThresholdKm {
				g.addEdge(i, j, d)
			}
		}
	}

	// Repair pass: runs in index order, so a station linked by an earlier repair is skipped
	for i := range g.stations {
		if len(g.adjacency[i]) > 0 {
			continue
		}
		nearest, d := g.nearest(i)
		g.addEdge(i, nearest, d)
	}

	for i := range g.adjacency {
		sort.Ints(g.adjacency[i])
	}

	return g, nil
}

func (g *Graph) addEdge(a, b int, distanceKm float64) {
	key := newPairKey(a, b)
	if _, exists := g.weights[key]; exists {
		return
	}
	g.weights[key] = distanceKm
	g.adjacency[a] = append(g.adjacency[a], b)
	g.adjacency[b] = append(g.adjacency[b], a)
}

// nearest returns the closest other station to i; ties go to the lowest index.
func (g *Graph) nearest(i int) (int, float64) {
	best := -1
	bestDistance := 0.0
	for j := range g.stations {
		if j == i {
			continue
		}
		d := g.distance(i, j)
		if best == -1 || d < bestDistance {
			best = j
			bestDistance = d
		}
	}
	return best, bestDistance
}

func (g *Graph) distance(a, b int) float64 {
	sa, sb := g.stations[a], g.stations[b]
	return geo.Distance(sa.Latitude, sa.Longitude, sb.Latitude, sb.Longitude)
}

func (g *Graph) lookup(name string) (int, error) {
	i, ok := g.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStation, name)
	}
	return i, nil
}

// Len returns the number of stations in the graph.
func (g *Graph) Len() int {
	return len(g.stations)
}

// Stations returns the stations in index order.
func (g *Graph) Stations() []station.Station {
	out := make([]station.Station, len(g.stations))
	copy(out, g.stations)
	return out
}

// Station looks up a station by name.
func (g *Graph) Station(name string) (station.Station, bool) {
	i, ok := g.index[name]
	if !ok {
		return station.Station{}, false
	}
	return g.stations[i], true
}

// EdgeWeight returns the distance of the edge between a and b, if one exists.
func (g *Graph) EdgeWeight(a, b string) (float64, bool) {
	i, okA := g.index[a]
	j, okB := g.index[b]
	if !okA || !okB {
		return 0, false
	}
	w, ok := g.weights[newPairKey(i, j)]
	return w, ok
}

// Degree returns the number of edges incident to the named station.
func (g *Graph) Degree(name string) (int, error) {
	i, err := g.lookup(name)
	if err != nil {
		return 0, err
	}
	return len(g.adjacency[i]), nil
}

// Edges lists every edge once, ordered by endpoint index.
func (g *Graph) Edges() []Edge {
	keys := make([]pairKey, 0, len(g.weights))
	for key := range g.weights {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo < keys[j].lo
		}
		return keys[i].hi < keys[j].hi
	})

	edges := make([]Edge, 0, len(keys))
	for _, key := range keys {
		edges = append(edges, Edge{
			From:       g.stations[key.lo].Name,
			To:         g.stations[key.hi].Name,
			DistanceKm: g.weights[key],
		})
	}
	return edges
}

// Adjacent lists the stations linked to name, closest first.
func (g *Graph) Adjacent(name string) ([]Neighbor, error) {
	i, err := g.lookup(name)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(g.adjacency[i]))
	for _, j := range g.adjacency[i] {
		neighbors = append(neighbors, Neighbor{
			Name:       g.stations[j].Name,
			DistanceKm: g.weights[newPairKey(i, j)],
		})
	}
	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].DistanceKm != neighbors[b].DistanceKm {
			return neighbors[a].DistanceKm < neighbors[b].DistanceKm
		}
		return neighbors[a].Name < neighbors[b].Name
	})

	return neighbors, nil
}
