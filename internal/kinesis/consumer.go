package kinesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"charging-route-service/internal/station"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
)

// StreamReaderAPI is the part of the Kinesis client the consumer uses
type StreamReaderAPI interface {
	DescribeStream(ctx context.Context, params *kinesis.DescribeStreamInput, optFns ...func(*kinesis.Options)) (*kinesis.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *kinesis.GetShardIteratorInput, optFns ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *kinesis.GetRecordsInput, optFns ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error)
}

// StationSink receives station records decoded from the update feed
type StationSink interface {
	UpsertStation(ctx context.Context, s station.Station) error
}

// Consumer reads station updates from a stream and hands them to a StationSink
type Consumer struct {
	client       StreamReaderAPI
	streamName   string
	sink         StationSink
	pollInterval time.Duration
}

func NewConsumer(client StreamReaderAPI, streamName string, sink StationSink) *Consumer {
	return &Consumer{
		client:       client,
		streamName:   streamName,
		sink:         sink,
		pollInterval: 1 * time.Second,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	slog.Info("Starting Kinesis consumer", "stream", c.streamName)

	// Get stream description to find shards
	describeOutput, err := c.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{
		StreamName: &c.streamName,
	})
	if err != nil {
		slog.Error("Failed to describe Kinesis stream", "error", err)
		return
	}

	for _, shard := range describeOutput.StreamDescription.Shards {
		go c.processShard(ctx, *shard.ShardId)
	}
}

func (c *Consumer) processShard(ctx context.Context, shardID string) {
	slog.Info("Processing shard", "shard_id", shardID)

	iteratorOutput, err := c.client.GetShardIterator(ctx, &kinesis.GetShardIteratorInput{
		StreamName:        &c.streamName,
		ShardId:           &shardID,
		ShardIteratorType: types.ShardIteratorTypeLatest,
	})
	if err != nil {
		slog.Error("Failed to get shard iterator", "error", err, "shard_id", shardID)
		return
	}

	shardIterator := iteratorOutput.ShardIterator

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping shard processing", "shard_id", shardID)
			return
		default:
			if shardIterator == nil {
				slog.Warn("Shard iterator is nil, stopping", "shard_id", shardID)
				return
			}

			recordsOutput, err := c.client.GetRecords(ctx, &kinesis.GetRecordsInput{
				ShardIterator: shardIterator,
			})
			if err != nil {
				slog.Error("Failed to get records", "error", err, "shard_id", shardID)
				time.Sleep(c.pollInterval)
				continue
			}

			for _, record := range recordsOutput.Records {
				if err := c.processRecord(ctx, record); err != nil {
					slog.Error("Failed to apply station update", "error", err, "shard_id", shardID)
				}
			}

			shardIterator = recordsOutput.NextShardIterator
			time.Sleep(c.pollInterval) // Avoid aggressive polling
		}
	}
}

func (c *Consumer) processRecord(ctx context.Context, record types.Record) error {
	var s station.Station
	if err := json.Unmarshal(record.Data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal station record: %w", err)
	}

	slog.Debug("Processing station update",
		"station", s.Name,
		"lat", s.Latitude,
		"lng", s.Longitude,
		"sockets", len(s.Sockets))

	if err := c.sink.UpsertStation(ctx, s); err != nil {
		return fmt.Errorf("failed to upsert station %s: %w", s.Name, err)
	}

	return nil
}
