package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

const (
	// DynamoDB accepts at most this many requests in one BatchWriteItem call.
	dynamoDBMaxBatchSize      = 25
	// Unprocessed items of a batch are retried this many times, with exponential backoff,
	// before Reset gives up.
	dynamoDBMaxRetries        = 8
	dynamoDBInitialRetryDelay = 50 * time.Millisecond
)

// DynamoDBStore resets a DynamoDB table by deleting every item in it. The table itself is kept,
// since recreating a table is slow on real DynamoDB.
type DynamoDBStore struct {
	dynamodb   dynamodbiface.DynamoDBAPI
	tableName  string
	keyNames   []string
	retryDelay time.Duration
}

// NewDynamoDBStore creates a DynamoDBStore for a table whose primary key consists of the named
// attributes (the partition key, and the sort key if there is one).
func NewDynamoDBStore(client dynamodbiface.DynamoDBAPI, tableName string, keyNames ...string) *DynamoDBStore {
	return &DynamoDBStore{
		dynamodb:   client,
		tableName:  tableName,
		keyNames:   keyNames,
		retryDelay: dynamoDBInitialRetryDelay,
	}
}

// NewDynamoDBStoreForEndpoint creates a DynamoDBStore with a new client. A non-empty endpoint
// overrides the AWS endpoint, as is usual for a local DynamoDB instance.
func NewDynamoDBStoreForEndpoint(endpoint, region, tableName string, keyNames ...string) (*DynamoDBStore, error) {
	config := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewDynamoDBStore(dynamodb.New(sess), tableName, keyNames...), nil
}

func (d *DynamoDBStore) Name() string {
	return "dynamodb:" + d.tableName
}

func (d *DynamoDBStore) Reset(ctx context.Context) error {
	var requests []*dynamodb.WriteRequest
	input := &dynamodb.ScanInput{
		TableName:            aws.String(d.tableName),
		ProjectionExpression: d.projection(),
		ConsistentRead:       aws.Bool(true),
	}
	if input.ProjectionExpression != nil {
		input.ExpressionAttributeNames = d.projectionNames()
	}
	for {
		out, err := d.dynamodb.ScanWithContext(ctx, input)
		if err != nil {
			return err
		}
		for _, item := range out.Items {
			requests = append(requests, &dynamodb.WriteRequest{
				DeleteRequest: &dynamodb.DeleteRequest{Key: d.keyOf(item)},
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return d.batchWrite(ctx, requests)
}

func (d *DynamoDBStore) batchWrite(ctx context.Context, requests []*dynamodb.WriteRequest) error {
	for len(requests) > 0 {
		n := len(requests)
		if n > dynamoDBMaxBatchSize {
			n = dynamoDBMaxBatchSize
		}
		if err := d.writeBatch(ctx, requests[:n]); err != nil {
			return err
		}
		requests = requests[n:]
	}
	return nil
}

// writeBatch sends one batch, resending whatever DynamoDB reports as unprocessed until nothing is
// left or the retries run out.
func (d *DynamoDBStore) writeBatch(ctx context.Context, batch []*dynamodb.WriteRequest) error {
	delay := d.retryDelay
	for attempt := 0; ; attempt++ {
		out, err := d.dynamodb.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{d.tableName: batch},
		})
		if err != nil {
			return err
		}
		batch = out.UnprocessedItems[d.tableName]
		if len(batch) == 0 {
			return nil
		}
		if attempt == dynamoDBMaxRetries {
			return fmt.Errorf("%d items were still unprocessed after %d retries", len(batch), attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (d *DynamoDBStore) keyOf(item map[string]*dynamodb.AttributeValue) map[string]*dynamodb.AttributeValue {
	if len(d.keyNames) == 0 {
		return item
	}
	key := make(map[string]*dynamodb.AttributeValue, len(d.keyNames))
	for _, name := range d.keyNames {
		if v, ok := item[name]; ok {
			key[name] = v
		}
	}
	return key
}

func (d *DynamoDBStore) projection() *string {
	if len(d.keyNames) == 0 {
		return nil
	}
	expr := ""
	for i := range d.keyNames {
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf("#k%d", i)
	}
	return aws.String(expr)
}

func (d *DynamoDBStore) projectionNames() map[string]*string {
	names := make(map[string]*string, len(d.keyNames))
	for i, name := range d.keyNames {
		names[fmt.Sprintf("#k%d", i)] = aws.String(name)
	}
	return names
}
