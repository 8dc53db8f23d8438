// Package station holds the charging station record consumed by the routing graph.
package station

import (
	"errors"
	"fmt"

	"charging-route-service/internal/geo"
)

// ErrInvalidStation is returned by Validate for records the graph cannot use.
var ErrInvalidStation = errors.New("invalid station")

// Socket is a single charger attached to a station
type Socket struct {
	ID                int     `json:"id" dynamodbav:"id"`
	ConnectorType     string  `json:"connector_type" dynamodbav:"connector_type"`
	PowerKW           float64 `json:"power_kw" dynamodbav:"power_kw"`
	ChargeTimeMinutes int     `json:"charge_time_minutes" dynamodbav:"charge_time_minutes"`
	ConsumptionKWh    float64 `json:"consumption_kwh" dynamodbav:"consumption_kwh"`
}

// Station represents a physical charging location
type Station struct {
	Name      string   `json:"name" dynamodbav:"name"`
	Address   string   `json:"address,omitempty" dynamodbav:"address,omitempty"`
	City      string   `json:"city,omitempty" dynamodbav:"city,omitempty"`
	Latitude  float64  `json:"latitude" dynamodbav:"latitude"`
	Longitude float64  `json:"longitude" dynamodbav:"longitude"`
	PowerKW   float64  `json:"power_kw,omitempty" dynamodbav:"power_kw,omitempty"`
	Sockets   []Socket `json:"sockets" dynamodbav:"sockets"`
}

// Validate checks the ingestion invariants: a name, finite coordinates and at least one socket.
func (s Station) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidStation)
	}
	if !geo.Valid(s.Latitude, s.Longitude) {
		return fmt.Errorf("%w: station %q has non-finite coordinates", ErrInvalidStation, s.Name)
	}
	if len(s.Sockets) == 0 {
		return fmt.Errorf("%w: station %q has no sockets", ErrInvalidStation, s.Name)
	}
	return nil
}

// Merge collapses records sharing identical coordinates into one station. The first record
// of each site keeps its identity and attributes; sockets of later records are appended in
// input order. The input slice is left untouched.
func Merge(stations []Station) []Station {
	type site struct{ lat, lng float64 }

	merged := make([]Station, 0, len(stations))
	position := make(map[site]int, len(stations))

	for _, s := range stations {
		key := site{s.Latitude, s.Longitude}
		if i, ok := position[key]; ok {
			merged[i].Sockets = append(merged[i].Sockets, s.Sockets...)
			continue
		}

		s.Sockets = append([]Socket(nil), s.Sockets...)
		position[key] = len(merged)
		merged = append(merged, s)
	}

	return merged
}
