package storage

import (
	"context"
	"errors"

	"charging-route-service/internal/station"
)

// Common errors
var (
	ErrStationNotFound = errors.New("station not found")
	ErrStationExists   = errors.New("station already exists")
)

// StationStorage defines the interface for station data operations
type StationStorage interface {
	// CreateStation adds a new station, failing if the name is taken
	CreateStation(ctx context.Context, s station.Station) error

	// PutStation creates or replaces a station
	PutStation(ctx context.Context, s station.Station) error

	// GetStation retrieves a station by name
	GetStation(ctx context.Context, name string) (station.Station, error)

	// DeleteStation removes a station by name
	DeleteStation(ctx context.Context, name string) error

	// GetAllStations returns every stored station
	GetAllStations(ctx context.Context) ([]station.Station, error)
}
