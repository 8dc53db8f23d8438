package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKinesisClient struct {
	mock.Mock
}

func (m *MockKinesisClient) PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*kinesis.PutRecordOutput), args.Error(1)
}

func TestStreamer_StreamRouteEvent(t *testing.T) {
	mockClient := new(MockKinesisClient)
	streamer := NewStreamer(mockClient, "route-events")
	ctx := context.Background()

	var published RouteEvent
	mockClient.On("PutRecord", ctx, mock.MatchedBy(func(input *kinesis.PutRecordInput) bool {
		if *input.StreamName != "route-events" || *input.PartitionKey != "Lleida" {
			return false
		}
		return json.Unmarshal(input.Data, &published) == nil
	})).Return(&kinesis.PutRecordOutput{}, nil)

	streamer.StreamRouteEvent(ctx, RouteEvent{
		EventType:  EventRouteFound,
		Origin:     "Lleida",
		Target:     "Girona",
		RangeKm:    120,
		DistanceKm: 231.4,
		Hops:       3,
		Stations:   []string{"Lleida", "Manresa", "Vic", "Girona"},
	})

	mockClient.AssertExpectations(t)
	require.NotEmpty(t, published.EventID)
	assert.False(t, published.Timestamp.IsZero())
	assert.Equal(t, EventRouteFound, published.EventType)
	assert.Equal(t, 3, published.Hops)
	assert.Len(t, published.Stations, 4)
}

func TestStreamer_KeepsEventID(t *testing.T) {
	mockClient := new(MockKinesisClient)
	streamer := NewStreamer(mockClient, "route-events")
	ctx := context.Background()

	mockClient.On("PutRecord", ctx, mock.MatchedBy(func(input *kinesis.PutRecordInput) bool {
		var event RouteEvent
		return json.Unmarshal(input.Data, &event) == nil && event.EventID == "fixed-id"
	})).Return(&kinesis.PutRecordOutput{}, nil)

	streamer.StreamRouteEvent(ctx, RouteEvent{EventID: "fixed-id", EventType: EventSurveyCompleted, Origin: "Lleida"})

	mockClient.AssertExpectations(t)
}

func TestStreamer_PutRecordFailureIsDropped(t *testing.T) {
	mockClient := new(MockKinesisClient)
	streamer := NewStreamer(mockClient, "route-events")

	mockClient.On("PutRecord", mock.Anything, mock.Anything).
		Return(&kinesis.PutRecordOutput{}, errors.New("throughput exceeded"))

	assert.NotPanics(t, func() {
		streamer.StreamRouteEvent(context.Background(), RouteEvent{EventType: EventRouteUnreachable, Origin: "Lleida"})
	})
	mockClient.AssertNumberOfCalls(t, "PutRecord", 1)
}

func TestStreamer_Disabled(t *testing.T) {
	var nilStreamer *Streamer
	assert.NotPanics(t, func() {
		nilStreamer.StreamRouteEvent(context.Background(), RouteEvent{Origin: "Lleida"})
	})

	streamer := NewStreamer(nil, "route-events")
	assert.NotPanics(t, func() {
		streamer.StreamRouteEvent(context.Background(), RouteEvent{Origin: "Lleida"})
	})
}
