package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"charging-route-service/internal/station"
)

// LoadStationsFile reads a JSON array of station records from path. Every record is
// validated; records sharing coordinates are returned as-is and merged later by the
// routing service.
func LoadStationsFile(path string) ([]station.Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read stations file: %w", err)
	}

	var stations []station.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, fmt.Errorf("could not parse stations file %s: %w", path, err)
	}

	for i, s := range stations {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, path, err)
		}
	}

	return stations, nil
}

// SeedStorage upserts every station into the given storage.
func SeedStorage(ctx context.Context, store StationStorage, stations []station.Station) error {
	for _, s := range stations {
		if err := store.PutStation(ctx, s); err != nil {
			return fmt.Errorf("failed to seed station %s: %w", s.Name, err)
		}
	}
	return nil
}
