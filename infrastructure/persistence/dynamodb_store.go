package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	attrPK = "PK"
	attrSK = "SK"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBConfig configures DynamoDBStore.
type DynamoDBConfig struct {
	TableName      string
	ConsistentRead bool
}

// DynamoDBStore implements DocumentStore on a single table. The partition key
// is the collection path and the sort key is the document ID, so a collection
// query is one partition query.
type DynamoDBStore struct {
	client DynamoDBAPI
	config DynamoDBConfig
	logger *zap.Logger
}

// NewDynamoDBStore creates a DynamoDB-backed store.
func NewDynamoDBStore(client DynamoDBAPI, config DynamoDBConfig, logger *zap.Logger) *DynamoDBStore {
	return &DynamoDBStore{
		client: client,
		config: config,
		logger: logger,
	}
}

func (s *DynamoDBStore) key(path string) map[string]types.AttributeValue {
	collection, id := Split(path)
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: collection},
		attrSK: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoDBStore) item(path string, doc Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(map[string]interface{}(doc))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	for k, v := range s.key(path) {
		item[k] = v
	}
	return item, nil
}

func toDocument(item map[string]types.AttributeValue) (Document, error) {
	var doc map[string]interface{}
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, err
	}
	delete(doc, attrPK)
	delete(doc, attrSK)
	return Document(doc), nil
}

// Get retrieves a single document.
func (s *DynamoDBStore) Get(ctx context.Context, path string) (Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.TableName),
		Key:            s.key(path),
		ConsistentRead: aws.Bool(s.config.ConsistentRead),
	})
	if err != nil {
		return nil, classify("GetItem", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	doc, err := toDocument(result.Item)
	if err != nil {
		return nil, fmt.Errorf("failed to convert DynamoDB item: %w", err)
	}

	s.logger.Debug("retrieved document", zap.String("path", path))
	return doc, nil
}

// Set stores a document. With Merge only the given top-level fields are written.
func (s *DynamoDBStore) Set(ctx context.Context, path string, doc Document, opts ...SetOption) error {
	if applySetOptions(opts).merge {
		return s.update(ctx, "Set", path, doc, false)
	}

	item, err := s.item(path, doc)
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	}); err != nil {
		return classify("PutItem", err)
	}

	s.logger.Debug("stored document", zap.String("path", path))
	return nil
}

// Create stores a document only if none exists at path.
func (s *DynamoDBStore) Create(ctx context.Context, path string, doc Document) error {
	item, err := s.item(path, doc)
	if err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return fmt.Errorf("build create condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.config.TableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return ErrAlreadyExists
		}
		return classify("PutItem", err)
	}

	s.logger.Debug("created document", zap.String("path", path))
	return nil
}

// Update sets fields on an existing document.
func (s *DynamoDBStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	return s.update(ctx, "Update", path, fields, true)
}

func (s *DynamoDBStore) update(ctx context.Context, op, path string, fields map[string]interface{}, mustExist bool) error {
	if len(fields) == 0 {
		return nil
	}

	var upd expression.UpdateBuilder
	for field, value := range fields {
		upd = upd.Set(expression.Name(field), expression.Value(value))
	}

	builder := expression.NewBuilder().WithUpdate(upd)
	if mustExist {
		builder = builder.WithCondition(expression.AttributeExists(expression.Name(attrPK)))
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       s.key(path),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if mustExist {
		input.ConditionExpression = expr.Condition()
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if mustExist && isConditionFailure(err) {
			return ErrNotFound
		}
		return classify("UpdateItem", err)
	}

	s.logger.Debug("updated document", zap.String("op", op), zap.String("path", path), zap.Int("fields", len(fields)))
	return nil
}

// Delete removes a document.
func (s *DynamoDBStore) Delete(ctx context.Context, path string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       s.key(path),
	}); err != nil {
		return classify("DeleteItem", err)
	}

	s.logger.Debug("deleted document", zap.String("path", path))
	return nil
}

// Query reads the whole collection partition, then sorts and limits in
// process. DynamoDB cannot order by non-key attributes.
func (s *DynamoDBStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(attrPK).Equal(expression.Value(collection)))

	if len(q.Filters) > 0 {
		cond := expression.Name(q.Filters[0].Field).Equal(expression.Value(q.Filters[0].Value))
		for _, f := range q.Filters[1:] {
			cond = cond.And(expression.Name(f.Field).Equal(expression.Value(f.Value)))
		}
		builder = builder.WithFilter(cond)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(s.config.ConsistentRead),
	})

	var docs []Document
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("Query", err)
		}
		for _, item := range page.Items {
			doc, err := toDocument(item)
			if err != nil {
				s.logger.Warn("skipping undecodable item", zap.String("collection", collection), zap.Error(err))
				continue
			}
			docs = append(docs, doc)
		}
	}

	sortDocuments(docs, q.OrderBy, q.Direction)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	s.logger.Debug("queried collection", zap.String("collection", collection), zap.Int("count", len(docs)))
	return docs, nil
}

// HealthCheck verifies the table is reachable.
func (s *DynamoDBStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.TableName),
	}); err != nil {
		return classify("DescribeTable", err)
	}
	return nil
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var transientCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"LimitExceededException":                 true,
}

// classify maps throttling and server-side faults to ErrUnavailable.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && transientCodes[apiErr.ErrorCode()] {
		return fmt.Errorf("%w: DynamoDB %s: %v", ErrUnavailable, op, err)
	}
	var opErr *smithy.OperationError
	if errors.As(err, &opErr) && !errors.As(err, &apiErr) {
		// transport-level failure before DynamoDB answered
		return fmt.Errorf("%w: DynamoDB %s: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("DynamoDB %s failed: %w", op, err)
}
