package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"charging-route-service/internal/service"
	"charging-route-service/internal/station"
	"charging-route-service/internal/storage"

	"github.com/gorilla/mux"
)

func testStation(name string, lat, lng float64) station.Station {
	return station.Station{
		Name:      name,
		City:      "Girona",
		Latitude:  lat,
		Longitude: lng,
		Sockets:   []station.Socket{{ID: 1, ConnectorType: "CCS", PowerKW: 150}},
	}
}

// setupTestHandler stores A and B about 8 km apart and C about 76 km east of B.
func setupTestHandler(t *testing.T) (*mux.Router, *storage.MemoryStationStorage) {
	t.Helper()

	stationStorage := storage.NewMemoryStationStorage()
	ctx := context.Background()
	for _, s := range []station.Station{
		testStation("A", 41.0, 2.0),
		testStation("B", 41.0, 2.1),
		testStation("C", 41.0, 3.0),
	} {
		stationStorage.CreateStation(ctx, s)
	}

	routingService := service.NewRoutingService(stationStorage)
	if err := routingService.Reload(ctx); err != nil {
		t.Fatalf("Failed to build graph: %v", err)
	}

	router := mux.NewRouter()
	NewHTTPHandler(routingService).RegisterRoutes(router)
	return router, stationStorage
}

func serve(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHTTPHandler_Health(t *testing.T) {
	router := mux.NewRouter()
	NewHTTPHandler(service.NewRoutingService(storage.NewMemoryStationStorage())).RegisterRoutes(router)

	rr := serve(router, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "waiting for stations" {
		t.Errorf("Expected status 'waiting for stations', got '%s'", body["status"])
	}
}

func TestHTTPHandler_RegisterStation(t *testing.T) {
	router, stationStorage := setupTestHandler(t)

	s := testStation("D", 41.0, 2.5)
	jsonData, _ := json.Marshal(s)
	req := httptest.NewRequest("POST", "/stations", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	rr := serve(router, req)
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	var response station.Station
	json.NewDecoder(rr.Body).Decode(&response)
	if response.Name != "D" {
		t.Errorf("Expected name D, got %s", response.Name)
	}

	if _, err := stationStorage.GetStation(context.Background(), "D"); err != nil {
		t.Errorf("Expected D to be stored, got %v", err)
	}

	// Same name again
	req = httptest.NewRequest("POST", "/stations", bytes.NewBuffer(jsonData))
	rr = serve(router, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, rr.Code)
	}
}

func TestHTTPHandler_RegisterStation_Invalid(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("POST", "/stations", bytes.NewBufferString("{not json")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	noSockets, _ := json.Marshal(station.Station{Name: "E", Latitude: 41.0, Longitude: 2.2})
	rr = serve(router, httptest.NewRequest("POST", "/stations", bytes.NewBuffer(noSockets)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestHTTPHandler_GetAllStations(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/stations", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var stations []station.Station
	json.NewDecoder(rr.Body).Decode(&stations)
	if len(stations) != 3 {
		t.Fatalf("Expected 3 stations, got %d", len(stations))
	}
	if stations[0].Name != "A" || stations[2].Name != "C" {
		t.Errorf("Expected stations sorted by name, got %s..%s", stations[0].Name, stations[2].Name)
	}
}

func TestHTTPHandler_FindRoute(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/route?start=A&target=C&range_km=80", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var response RouteResponse
	json.NewDecoder(rr.Body).Decode(&response)

	expected := []string{"A", "B", "C"}
	if len(response.Stations) != len(expected) {
		t.Fatalf("Expected path %v, got %v", expected, response.Stations)
	}
	for i := range expected {
		if response.Stations[i] != expected[i] {
			t.Errorf("Expected path %v, got %v", expected, response.Stations)
			break
		}
	}
	if response.Hops != 2 {
		t.Errorf("Expected 2 hops, got %d", response.Hops)
	}
	if response.DistanceKm < 83 || response.DistanceKm > 85 {
		t.Errorf("Expected distance around 84 km, got %.2f", response.DistanceKm)
	}
}

func TestHTTPHandler_FindRoute_Errors(t *testing.T) {
	router, _ := setupTestHandler(t)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"missing params", "/route?start=A", http.StatusBadRequest},
		{"bad range", "/route?start=A&target=C&range_km=far", http.StatusBadRequest},
		{"negative range", "/route?start=A&target=C&range_km=-5", http.StatusBadRequest},
		{"unknown station", "/route?start=A&target=Z&range_km=80", http.StatusNotFound},
		{"out of range", "/route?start=A&target=C&range_km=50", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router, httptest.NewRequest("GET", tt.url, nil))
			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rr.Code)
			}
		})
	}
}

func TestHTTPHandler_FindRoute_NotReady(t *testing.T) {
	router := mux.NewRouter()
	NewHTTPHandler(service.NewRoutingService(storage.NewMemoryStationStorage())).RegisterRoutes(router)

	rr := serve(router, httptest.NewRequest("GET", "/route?start=A&target=B&range_km=80", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestHTTPHandler_GetReachability(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/reachability?origin=A&range_km=50", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response ReachabilityResponse
	json.NewDecoder(rr.Body).Decode(&response)
	if len(response.Unguaranteed) != 1 || response.Unguaranteed[0] != "C" {
		t.Errorf("Expected [C], got %v", response.Unguaranteed)
	}

	// Every station reachable still yields an empty list, not null
	rr = serve(router, httptest.NewRequest("GET", "/reachability?origin=A&range_km=80", nil))
	if !bytes.Contains(rr.Body.Bytes(), []byte(`"unguaranteed":[]`)) {
		t.Errorf("Expected empty unguaranteed list, got %s", rr.Body.String())
	}

	rr = serve(router, httptest.NewRequest("GET", "/reachability?origin=Z&range_km=80", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestHTTPHandler_GetAdjacent(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/stations/B/adjacent", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response adjacentResponse
	json.NewDecoder(rr.Body).Decode(&response)
	if len(response.Neighbors) != 2 {
		t.Fatalf("Expected 2 neighbors, got %d", len(response.Neighbors))
	}
	if response.Neighbors[0].Name != "A" || response.Neighbors[1].Name != "C" {
		t.Errorf("Expected neighbors [A C] by distance, got %v", response.Neighbors)
	}

	rr = serve(router, httptest.NewRequest("GET", "/stations/Z/adjacent", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestHTTPHandler_FindNearestStation(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/stations/nearest?lat=41.0&lng=2.95", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response nearestResponse
	json.NewDecoder(rr.Body).Decode(&response)
	if response.Station.Name != "C" {
		t.Errorf("Expected station C, got %s", response.Station.Name)
	}
}

func TestHTTPHandler_FindNearestStation_MissingParams(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/stations/nearest?lat=41.0", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestHTTPHandler_GetStation(t *testing.T) {
	router, _ := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("GET", "/stations/B", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response station.Station
	json.NewDecoder(rr.Body).Decode(&response)
	if response.Name != "B" || response.Longitude != 2.1 {
		t.Errorf("Expected station B at 2.1, got %s at %f", response.Name, response.Longitude)
	}

	rr = serve(router, httptest.NewRequest("GET", "/stations/Z", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestHTTPHandler_DeleteStation(t *testing.T) {
	router, stationStorage := setupTestHandler(t)

	rr := serve(router, httptest.NewRequest("DELETE", "/stations/C", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status %d, got %d", http.StatusNoContent, rr.Code)
	}

	if _, err := stationStorage.GetStation(context.Background(), "C"); err == nil {
		t.Errorf("Expected C to be removed from storage")
	}

	// The rebuilt graph no longer knows C
	rr = serve(router, httptest.NewRequest("GET", "/route?start=A&target=C&range_km=80", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	rr = serve(router, httptest.NewRequest("DELETE", "/stations/C", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
