// Package dynamodb implements the document store on Amazon DynamoDB.
//
// Every record lives in one table keyed by the "id" attribute; the "type"
// attribute tells posts and prompts apart. Requests are issued exactly as the
// repositories describe them: nothing is cached, retried or batched here
// beyond what the AWS SDK does itself.
package dynamodb

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"promptpress/app/internal/data/document"
)

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Options configures the DynamoDB connection. Endpoint is only needed for DynamoDB Local.
type Options struct {
	Table     string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Logger    *logrus.Logger
	// API overrides the client built from the credentials, mainly for tests.
	API API
}

// Store implements document.Store against a DynamoDB table.
type Store struct {
	api    API
	table  string
	logger *logrus.Logger
}

var _ document.Store = (*Store)(nil)

// New builds a Store. Without an injected API it creates a client with static credentials.
func New(opts Options) (*Store, error) {
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		return nil, eris.New("dynamodb table name is required")
	}

	api := opts.API
	if api == nil {
		if strings.TrimSpace(opts.Region) == "" {
			return nil, eris.New("dynamodb region is required")
		}

		clientOpts := dynamodb.Options{Region: opts.Region}
		if opts.AccessKey != "" || opts.SecretKey != "" {
			clientOpts.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		}
		if endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"); endpoint != "" {
			clientOpts.BaseEndpoint = aws.String(endpoint)
		}

		api = dynamodb.New(clientOpts)
	}

	return &Store{api: api, table: table, logger: opts.Logger}, nil
}

// Table returns the table every request targets.
func (s *Store) Table() string {
	return s.table
}

// GetItem issues a GetItem request for id and unmarshals the item into out.
func (s *Store) GetItem(ctx context.Context, id string, out any) (bool, error) {
	output, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(id),
	})
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "dynamodb get item")
		return false, eris.Wrapf(err, "dynamodb get item %s", id)
	}

	if output == nil || len(output.Item) == 0 {
		return false, nil
	}

	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return false, eris.Wrapf(err, "unmarshalling item %s", id)
	}

	return true, nil
}

// PutItemIfAbsent writes item with an attribute_not_exists(id) condition.
func (s *Store) PutItemIfAbsent(ctx context.Context, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return eris.Wrap(err, "marshalling item")
	}

	id := stringAttribute(av, document.KeyAttribute)
	if id == "" {
		return eris.New("item id is required")
	}

	condition := expression.AttributeNotExists(expression.Name(document.KeyAttribute))
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return eris.Wrap(err, "building put condition")
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return &document.ConditionalCheckError{ID: id, Err: err}
		}
		s.logError(logrus.Fields{"id": id}, err, "dynamodb put item")
		return eris.Wrapf(err, "dynamodb put item %s", id)
	}

	return nil
}

// DeleteItem issues an unconditional DeleteItem request for id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(id),
	})
	if err != nil {
		s.logError(logrus.Fields{"id": id}, err, "dynamodb delete item")
		return eris.Wrapf(err, "dynamodb delete item %s", id)
	}

	return nil
}

// Scan issues a single Scan request filtered on the discriminator.
func (s *Store) Scan(ctx context.Context, req document.ScanRequest, out any) (string, error) {
	input, err := s.scanInput(req)
	if err != nil {
		return "", err
	}

	output, err := s.api.Scan(ctx, input)
	if err != nil {
		s.logError(logrus.Fields{"kind": req.Kind}, err, "dynamodb scan")
		return "", eris.Wrapf(err, "dynamodb scan for %s", req.Kind)
	}

	items := []map[string]types.AttributeValue{}
	if output != nil && output.Items != nil {
		items = output.Items
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return "", eris.Wrapf(err, "unmarshalling scan page for %s", req.Kind)
	}

	if output == nil {
		return "", nil
	}
	return stringAttribute(output.LastEvaluatedKey, document.KeyAttribute), nil
}

func (s *Store) scanInput(req document.ScanRequest) (*dynamodb.ScanInput, error) {
	var filter expression.ConditionBuilder
	switch req.Match {
	case document.MatchExact:
		filter = expression.Name(document.TypeAttribute).Equal(expression.Value(req.Kind))
	default:
		filter = expression.Contains(expression.Name(document.TypeAttribute), req.Kind)
	}

	builder := expression.NewBuilder().WithFilter(filter)
	if len(req.Projection) > 0 {
		names := make([]expression.NameBuilder, 0, len(req.Projection))
		for _, attribute := range req.Projection {
			names = append(names, expression.Name(attribute))
		}
		builder = builder.WithProjection(expression.NamesList(names[0], names[1:]...))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, eris.Wrapf(err, "building scan expression for %s", req.Kind)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.table),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if req.StartKey != "" {
		input.ExclusiveStartKey = keyOf(req.StartKey)
	}

	return input, nil
}

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		document.KeyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func stringAttribute(item map[string]types.AttributeValue, name string) string {
	if value, ok := item[name].(*types.AttributeValueMemberS); ok {
		return value.Value
	}
	return ""
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error()).WithField("table", s.table)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
