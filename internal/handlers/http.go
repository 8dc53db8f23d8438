package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"charging-route-service/internal/graph"
	"charging-route-service/internal/service"
	"charging-route-service/internal/station"
	"charging-route-service/internal/storage"

	"github.com/gorilla/mux"
)

// HTTPHandler handles HTTP requests for the routing service
type HTTPHandler struct {
	routingService *service.RoutingService
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(routingService *service.RoutingService) *HTTPHandler {
	return &HTTPHandler{
		routingService: routingService,
	}
}

// RouteResponse is the body of a successful route query
type RouteResponse struct {
	Start         string   `json:"start"`
	Target        string   `json:"target"`
	RangeKm       float64  `json:"range_km"`
	Stations      []string `json:"stations"`
	DistanceKm    float64  `json:"distance_km"`
	Hops          int      `json:"hops"`
	ExpandedNodes int      `json:"expanded_nodes"`
}

// ReachabilityResponse is the body of a reachability survey
type ReachabilityResponse struct {
	Origin       string   `json:"origin"`
	RangeKm      float64  `json:"range_km"`
	Unguaranteed []string `json:"unguaranteed"`
}

type nearestResponse struct {
	Station    station.Station `json:"station"`
	DistanceKm float64         `json:"distance_km"`
}

type adjacentResponse struct {
	Station   string           `json:"station"`
	Neighbors []graph.Neighbor `json:"neighbors"`
}

// RegisterRoutes sets up HTTP routes
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/stations", h.GetAllStations).Methods("GET")
	router.HandleFunc("/stations", h.RegisterStation).Methods("POST")
	router.HandleFunc("/stations/nearest", h.FindNearestStation).Methods("GET")
	router.HandleFunc("/stations/{name}", h.GetStation).Methods("GET")
	router.HandleFunc("/stations/{name}", h.DeleteStation).Methods("DELETE")
	router.HandleFunc("/stations/{name}/adjacent", h.GetAdjacent).Methods("GET")
	router.HandleFunc("/route", h.FindRoute).Methods("GET")
	router.HandleFunc("/reachability", h.GetReachability).Methods("GET")
}

// Health returns service health status
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.routingService.Ready() {
		status = "waiting for stations"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// GetAllStations returns all stations
func (h *HTTPHandler) GetAllStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.routingService.GetAllStations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stations)
}

// RegisterStation adds a new station and rebuilds the graph
func (h *HTTPHandler) RegisterStation(w http.ResponseWriter, r *http.Request) {
	var s station.Station
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		slog.Error("Failed to decode station registration request", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	slog.Info("Station registration request received",
		"station", s.Name,
		"lat", s.Latitude,
		"lng", s.Longitude,
		"sockets", len(s.Sockets))

	if err := h.routingService.RegisterStation(r.Context(), s); err != nil {
		slog.Error("Station registration failed", "station", s.Name, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	slog.Info("Station registration successful", "station", s.Name)
	writeJSON(w, http.StatusCreated, s)
}

// GetStation returns a stored station
func (h *HTTPHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	s, err := h.routingService.GetStation(r.Context(), name)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// DeleteStation removes a station and rebuilds the graph
func (h *HTTPHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	if err := h.routingService.DeleteStation(r.Context(), name); err != nil {
		slog.Error("Station deletion failed", "station", name, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	slog.Info("Station deleted", "station", name)
	w.WriteHeader(http.StatusNoContent)
}

// FindNearestStation returns the graph station closest to a coordinate
func (h *HTTPHandler) FindNearestStation(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	if latStr == "" || lngStr == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		http.Error(w, "Invalid latitude", http.StatusBadRequest)
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		http.Error(w, "Invalid longitude", http.StatusBadRequest)
		return
	}

	nearest, distanceKm, err := h.routingService.NearestStation(lat, lng)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, nearestResponse{Station: nearest, DistanceKm: distanceKm})
}

// GetAdjacent lists the direct neighbours of a station
func (h *HTTPHandler) GetAdjacent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	neighbors, err := h.routingService.Adjacent(name)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, adjacentResponse{Station: name, Neighbors: neighbors})
}

// FindRoute returns the shortest chain of stations between two stations
func (h *HTTPHandler) FindRoute(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	target := r.URL.Query().Get("target")
	rangeStr := r.URL.Query().Get("range_km")

	if start == "" || target == "" || rangeStr == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	rangeKm, err := strconv.ParseFloat(rangeStr, 64)
	if err != nil {
		http.Error(w, "Invalid range", http.StatusBadRequest)
		return
	}

	path, err := h.routingService.FindRoute(r.Context(), start, target, rangeKm)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, RouteResponse{
		Start:         start,
		Target:        target,
		RangeKm:       rangeKm,
		Stations:      path.Stations,
		DistanceKm:    path.DistanceKm,
		Hops:          path.Hops(),
		ExpandedNodes: path.ExpandedNodes,
	})
}

// GetReachability lists the stations a vehicle cannot be guaranteed to reach from origin
func (h *HTTPHandler) GetReachability(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")
	rangeStr := r.URL.Query().Get("range_km")

	if origin == "" || rangeStr == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	rangeKm, err := strconv.ParseFloat(rangeStr, 64)
	if err != nil {
		http.Error(w, "Invalid range", http.StatusBadRequest)
		return
	}

	zones, err := h.routingService.UnguaranteedZones(r.Context(), origin, rangeKm)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, ReachabilityResponse{Origin: origin, RangeKm: rangeKm, Unguaranteed: zones})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, station.ErrInvalidStation), errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrUnknownStation), errors.Is(err, storage.ErrStationNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrStationExists):
		return http.StatusConflict
	case errors.Is(err, graph.ErrUnreachablePath):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrGraphNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
