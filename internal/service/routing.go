package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"charging-route-service/internal/geo"
	"charging-route-service/internal/graph"
	"charging-route-service/internal/kinesis"
	"charging-route-service/internal/station"
	"charging-route-service/internal/storage"
)

var (
	ErrGraphNotReady = errors.New("station graph not ready")
	ErrInvalidRange  = errors.New("range must be a finite, non-negative number of kilometres")
)

// RouteEventStreamer publishes routing outcomes
type RouteEventStreamer interface {
	StreamRouteEvent(ctx context.Context, event kinesis.RouteEvent)
}

// Options configures the routing service
type Options struct {
	ProximityThresholdKm float64
	SurveyWorkers        int
}

type Option func(*Options)

// WithProximityThreshold sets the distance under which two stations are linked.
func WithProximityThreshold(km float64) Option {
	return func(options *Options) { options.ProximityThresholdKm = km }
}

// WithSurveyWorkers bounds the number of searches a reachability survey runs at once.
// Zero leaves the choice to the graph package.
func WithSurveyWorkers(workers int) Option {
	return func(options *Options) { options.SurveyWorkers = workers }
}

// RoutingService keeps a station graph built from storage and answers routing queries on it
type RoutingService struct {
	storage  storage.StationStorage
	options  Options
	streamer RouteEventStreamer

	// reloadMu serializes storage reads with the snapshot swap
	reloadMu sync.Mutex

	mu    sync.RWMutex
	graph *graph.Graph
}

// NewRoutingService creates a routing service. The graph is empty until Reload succeeds.
func NewRoutingService(storage storage.StationStorage, options ...Option) *RoutingService {
	serviceOptions := Options{
		ProximityThresholdKm: graph.DefaultProximityThresholdKm,
	}
	for _, option := range options {
		option(&serviceOptions)
	}

	return &RoutingService{
		storage: storage,
		options: serviceOptions,
	}
}

// SetKinesisStreamer sets the route event streamer
func (r *RoutingService) SetKinesisStreamer(streamer RouteEventStreamer) {
	r.streamer = streamer
}

// Reload rebuilds the graph from storage. Reloads run one at a time, so a snapshot is never
// replaced by one read from older storage state. If storage cannot be read the previous graph
// stays in place; if the stored stations no longer form a graph the snapshot is dropped.
func (r *RoutingService) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	stations, err := r.storage.GetAllStations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stations: %w", err)
	}

	sortByName(stations)
	merged := station.Merge(stations)

	g, err := graph.New(merged, graph.WithProximityThreshold(r.options.ProximityThresholdKm))
	if err != nil {
		if errors.Is(err, graph.ErrMalformedGraph) {
			r.mu.Lock()
			r.graph = nil
			r.mu.Unlock()
		}
		return fmt.Errorf("failed to build station graph: %w", err)
	}

	r.mu.Lock()
	r.graph = g
	r.mu.Unlock()

	slog.Info("Station graph rebuilt",
		"stations", len(stations),
		"sites", g.Len(),
		"edges", len(g.Edges()),
		"proximity_threshold_km", r.options.ProximityThresholdKm)

	return nil
}

// Ready reports whether a graph has been built
func (r *RoutingService) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.graph != nil
}

func (r *RoutingService) current() (*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.graph == nil {
		return nil, ErrGraphNotReady
	}
	return r.graph, nil
}

// RegisterStation adds a new station and rebuilds the graph
func (r *RoutingService) RegisterStation(ctx context.Context, s station.Station) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := r.storage.CreateStation(ctx, s); err != nil {
		return err
	}
	return r.reloadAfterWrite(ctx, s.Name)
}

// UpsertStation creates or replaces a station and rebuilds the graph
func (r *RoutingService) UpsertStation(ctx context.Context, s station.Station) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := r.storage.PutStation(ctx, s); err != nil {
		return err
	}
	return r.reloadAfterWrite(ctx, s.Name)
}

// DeleteStation removes a station and rebuilds the graph
func (r *RoutingService) DeleteStation(ctx context.Context, name string) error {
	if err := r.storage.DeleteStation(ctx, name); err != nil {
		return err
	}
	return r.reloadAfterWrite(ctx, name)
}

// GetStation returns a stored station by name
func (r *RoutingService) GetStation(ctx context.Context, name string) (station.Station, error) {
	return r.storage.GetStation(ctx, name)
}

func (r *RoutingService) reloadAfterWrite(ctx context.Context, name string) error {
	err := r.Reload(ctx)
	if errors.Is(err, graph.ErrMalformedGraph) {
		// fewer than two sites stored; queries wait for more stations
		slog.Warn("Station write applied but graph not rebuilt", "station", name, "error", err)
		return nil
	}
	return err
}

// GetAllStations returns every stored station sorted by name
func (r *RoutingService) GetAllStations(ctx context.Context) ([]station.Station, error) {
	stations, err := r.storage.GetAllStations(ctx)
	if err != nil {
		return nil, err
	}
	sortByName(stations)
	return stations, nil
}

// FindRoute returns the shortest chain of stations from start to target
func (r *RoutingService) FindRoute(ctx context.Context, start, target string, rangeKm float64) (graph.Path, error) {
	if err := validateRange(rangeKm); err != nil {
		return graph.Path{}, err
	}
	g, err := r.current()
	if err != nil {
		return graph.Path{}, err
	}

	path, err := g.OptimalPath(start, target, rangeKm)
	switch {
	case err == nil:
		slog.Info("Route found", "start", start, "target", target, "range_km", rangeKm,
			"distance_km", path.DistanceKm, "hops", path.Hops())
		r.stream(ctx, kinesis.RouteEvent{
			EventType:  kinesis.EventRouteFound,
			Origin:     start,
			Target:     target,
			RangeKm:    rangeKm,
			DistanceKm: path.DistanceKm,
			Hops:       path.Hops(),
			Stations:   path.Stations,
		})
	case errors.Is(err, graph.ErrUnreachablePath):
		slog.Info("Route unreachable", "start", start, "target", target, "range_km", rangeKm)
		r.stream(ctx, kinesis.RouteEvent{
			EventType: kinesis.EventRouteUnreachable,
			Origin:    start,
			Target:    target,
			RangeKm:   rangeKm,
		})
	}

	return path, err
}

// UnguaranteedZones lists the stations that cannot be reached from origin with the given range
func (r *RoutingService) UnguaranteedZones(ctx context.Context, origin string, rangeKm float64) ([]string, error) {
	if err := validateRange(rangeKm); err != nil {
		return nil, err
	}
	g, err := r.current()
	if err != nil {
		return nil, err
	}

	var surveyOptions []graph.SurveyOption
	if r.options.SurveyWorkers > 0 {
		surveyOptions = append(surveyOptions, graph.WithSurveyWorkers(r.options.SurveyWorkers))
	}

	zones, err := g.UnguaranteedZones(ctx, origin, rangeKm, surveyOptions...)
	if err != nil {
		return nil, err
	}

	slog.Info("Reachability survey completed", "origin", origin, "range_km", rangeKm,
		"stations", g.Len(), "unguaranteed", len(zones))
	r.stream(ctx, kinesis.RouteEvent{
		EventType:    kinesis.EventSurveyCompleted,
		Origin:       origin,
		RangeKm:      rangeKm,
		Stations:     zones,
		Unguaranteed: len(zones),
	})

	return zones, nil
}

// Adjacent lists the direct neighbours of a station in the current graph
func (r *RoutingService) Adjacent(name string) ([]graph.Neighbor, error) {
	g, err := r.current()
	if err != nil {
		return nil, err
	}
	return g.Adjacent(name)
}

// NearestStation finds the graph station closest to a coordinate
func (r *RoutingService) NearestStation(lat, lng float64) (station.Station, float64, error) {
	if !geo.Valid(lat, lng) {
		return station.Station{}, 0, fmt.Errorf("%w: non-finite coordinates", station.ErrInvalidStation)
	}
	g, err := r.current()
	if err != nil {
		return station.Station{}, 0, err
	}

	var best station.Station
	minDistance := math.MaxFloat64
	for _, s := range g.Stations() {
		if d := geo.Distance(lat, lng, s.Latitude, s.Longitude); d < minDistance {
			minDistance = d
			best = s
		}
	}

	return best, minDistance, nil
}

func (r *RoutingService) stream(ctx context.Context, event kinesis.RouteEvent) {
	if r.streamer != nil {
		r.streamer.StreamRouteEvent(ctx, event)
	}
}

func validateRange(rangeKm float64) error {
	if math.IsNaN(rangeKm) || math.IsInf(rangeKm, 0) || rangeKm < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidRange, rangeKm)
	}
	return nil
}

func sortByName(stations []station.Station) {
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].Name < stations[j].Name
	})
}
