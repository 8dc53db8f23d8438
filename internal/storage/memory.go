package storage

import (
	"context"
	"fmt"
	"sync"

	"charging-route-service/internal/station"
)

// MemoryStationStorage implements StationStorage using an in-memory map
type MemoryStationStorage struct {
	stations map[string]station.Station
	mu       sync.RWMutex
}

// NewMemoryStationStorage creates a new in-memory storage instance
func NewMemoryStationStorage() *MemoryStationStorage {
	return &MemoryStationStorage{
		stations: make(map[string]station.Station),
	}
}

func (m *MemoryStationStorage) CreateStation(ctx context.Context, s station.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stations[s.Name]; exists {
		return fmt.Errorf("%w: %s", ErrStationExists, s.Name)
	}

	m.stations[s.Name] = s
	return nil
}

func (m *MemoryStationStorage) PutStation(ctx context.Context, s station.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stations[s.Name] = s
	return nil
}

func (m *MemoryStationStorage) GetStation(ctx context.Context, name string) (station.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.stations[name]
	if !exists {
		return station.Station{}, fmt.Errorf("%w: %s", ErrStationNotFound, name)
	}

	return s, nil
}

func (m *MemoryStationStorage) DeleteStation(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stations[name]; !exists {
		return fmt.Errorf("%w: %s", ErrStationNotFound, name)
	}

	delete(m.stations, name)
	return nil
}

func (m *MemoryStationStorage) GetAllStations(ctx context.Context) ([]station.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]station.Station, 0, len(m.stations))
	for _, s := range m.stations {
		result = append(result, s)
	}

	return result, nil
}
