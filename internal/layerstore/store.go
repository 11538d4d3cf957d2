package layerstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
)

// DefaultTable is the metadata table name.
const DefaultTable = "custom-collector-extension-layers"

// IndexName is the global secondary index keyed by distribution.
const IndexName = "sk-pk-index"

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store reads and writes layer metadata records.
type Store struct {
	client DynamoDBAPI
	table  string
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(s *Store) {
		s.table = table
	}
}

// New creates a Store backed by the given client.
func New(client DynamoDBAPI, opts ...Option) *Store {
	s := &Store{client: client, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put writes a record. PK and SK are required; attributevalue omitempty tags
// drop empty optional strings, matching DynamoDB's refusal of empty values.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.PK == "" || rec.SK == "" {
		return fmt.Errorf("record must contain pk and sk attributes")
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return oerrors.Wrapf(oerrors.ErrAWS, "writing layer metadata: %v", err)
	}
	return nil
}

// Get fetches a record by its partition key. Returns (nil, nil) when the
// record does not exist.
func (s *Store) Get(ctx context.Context, pk string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return nil, oerrors.Wrapf(oerrors.ErrAWS, "reading layer metadata: %v", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return &rec, nil
}

// Delete removes a record by its partition key. Deleting an absent record is
// a success.
func (s *Store) Delete(ctx context.Context, pk string) error {
	rec, err := s.Get(ctx, pk)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return oerrors.Wrapf(oerrors.ErrAWS, "deleting layer metadata: %v", err)
	}
	return nil
}

// QueryByDistribution lists all records for a distribution via the GSI,
// following pagination to the end.
func (s *Store) QueryByDistribution(ctx context.Context, distribution string) ([]Record, error) {
	var records []Record
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			IndexName:              aws.String(IndexName),
			KeyConditionExpression: aws.String("sk = :sk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sk": &types.AttributeValueMemberS{Value: distribution},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, oerrors.Wrapf(oerrors.ErrAWS, "querying layer metadata for %q: %v", distribution, err)
		}

		page, err := unmarshalItems(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)

		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ScanAll lists every record in the table, following pagination to the end.
func (s *Store) ScanAll(ctx context.Context) ([]Record, error) {
	var records []Record
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, oerrors.Wrapf(oerrors.ErrAWS, "scanning layer metadata: %v", err)
		}

		page, err := unmarshalItems(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)

		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func unmarshalItems(items []map[string]types.AttributeValue) ([]Record, error) {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshaling record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
