// Package dynamodb implements ports.Ledger on two DynamoDB tables.
//
// The donations table is keyed by "id". The messages table is keyed by
// "identity" (partition) and "at" (sort, RFC 3339).
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// API is the subset of the DynamoDB client used by the ledger.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Ledger writes donation records and transcript lines as DynamoDB items.
type Ledger struct {
	client         API
	donationsTable string
	messagesTable  string
}

// New creates a ledger on top of an existing client.
func New(client API, donationsTable, messagesTable string) *Ledger {
	return &Ledger{
		client:         client,
		donationsTable: donationsTable,
		messagesTable:  messagesTable,
	}
}

// NewFromConfig loads the default AWS configuration (environment, shared
// config, instance role) for region and creates a ledger.
func NewFromConfig(ctx context.Context, region, donationsTable, messagesTable string) (*Ledger, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), donationsTable, messagesTable), nil
}

func (l *Ledger) AppendDonation(ctx context.Context, record domain.DonationRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal donation record: %w", err)
	}
	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.donationsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to save donation record to DynamoDB: %w", err)
	}
	return nil
}

func (l *Ledger) AppendMessage(ctx context.Context, entry domain.MessageLog) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.messagesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save message to DynamoDB: %w", err)
	}
	return nil
}

// Check describes the donations table.
func (l *Ledger) Check(ctx context.Context) error {
	_, err := l.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(l.donationsTable),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", l.donationsTable, err)
	}
	return nil
}
