package kinesis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/google/uuid"
)

// Route event types
const (
	EventRouteFound       = "route_found"
	EventRouteUnreachable = "route_unreachable"
	EventSurveyCompleted  = "survey_completed"
)

// PutRecordAPI is the part of the Kinesis client the streamer uses
type PutRecordAPI interface {
	PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
}

type Streamer struct {
	client     PutRecordAPI
	streamName string
}

// RouteEvent describes the outcome of a routing query
type RouteEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"` // route_found, route_unreachable, survey_completed
	Timestamp    time.Time `json:"timestamp"`
	Origin       string    `json:"origin"`
	Target       string    `json:"target,omitempty"`
	RangeKm      float64   `json:"range_km"`
	DistanceKm   float64   `json:"distance_km,omitempty"`
	Hops         int       `json:"hops,omitempty"`
	Stations     []string  `json:"stations,omitempty"`
	Unguaranteed int       `json:"unguaranteed,omitempty"`
}

func NewStreamer(client PutRecordAPI, streamName string) *Streamer {
	return &Streamer{
		client:     client,
		streamName: streamName,
	}
}

// StreamRouteEvent publishes the event, partitioned by origin station. Failures are logged
// and dropped; routing never waits on analytics.
func (s *Streamer) StreamRouteEvent(ctx context.Context, event RouteEvent) {
	if s == nil || s.client == nil {
		return // Kinesis not enabled
	}

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal route event", "event_id", event.EventID, "error", err)
		return
	}

	_, err = s.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   &s.streamName,
		Data:         data,
		PartitionKey: &event.Origin,
	})

	if err != nil {
		slog.Error("Failed to stream route event", "event_id", event.EventID, "event_type", event.EventType, "error", err)
	} else {
		slog.Debug("Streamed route event", "event_id", event.EventID, "event_type", event.EventType)
	}
}
