package storage

import (
	"context"
	"errors"
	"fmt"

	"charging-route-service/internal/station"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI interface for mocking
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStationStorage stores stations in a table keyed by station name
type DynamoDBStationStorage struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoDBStationStorage(client DynamoDBAPI, tableName string) *DynamoDBStationStorage {
	return &DynamoDBStationStorage{
		client:    client,
		tableName: tableName,
	}
}

func stationKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name": &types.AttributeValueMemberS{Value: name},
	}
}

func (d *DynamoDBStationStorage) CreateStation(ctx context.Context, s station.Station) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("failed to marshal station: %w", err)
	}

	// "name" is a reserved word in DynamoDB expressions
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#name)"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("%w: %s", ErrStationExists, s.Name)
		}
		return fmt.Errorf("failed to put station: %w", err)
	}

	return nil
}

func (d *DynamoDBStationStorage) PutStation(ctx context.Context, s station.Station) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("failed to marshal station: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put station: %w", err)
	}

	return nil
}

func (d *DynamoDBStationStorage) GetStation(ctx context.Context, name string) (station.Station, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       stationKey(name),
	})
	if err != nil {
		return station.Station{}, fmt.Errorf("failed to get station: %w", err)
	}

	if result.Item == nil {
		return station.Station{}, fmt.Errorf("%w: %s", ErrStationNotFound, name)
	}

	var s station.Station
	if err := attributevalue.UnmarshalMap(result.Item, &s); err != nil {
		return station.Station{}, fmt.Errorf("failed to unmarshal station: %w", err)
	}

	return s, nil
}

func (d *DynamoDBStationStorage) DeleteStation(ctx context.Context, name string) error {
	result, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(d.tableName),
		Key:          stationKey(name),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}

	if len(result.Attributes) == 0 {
		return fmt.Errorf("%w: %s", ErrStationNotFound, name)
	}

	return nil
}

func (d *DynamoDBStationStorage) GetAllStations(ctx context.Context) ([]station.Station, error) {
	var (
		stations []station.Station
		startKey map[string]types.AttributeValue
	)

	for {
		result, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(d.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan stations: %w", err)
		}

		for _, item := range result.Items {
			var s station.Station
			if err := attributevalue.UnmarshalMap(item, &s); err != nil {
				return nil, fmt.Errorf("failed to unmarshal station: %w", err)
			}
			stations = append(stations, s)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return stations, nil
}
