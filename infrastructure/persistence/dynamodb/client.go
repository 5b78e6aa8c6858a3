// Package dynamodb implements the repositories on a single DynamoDB table.
//
// Key layout:
//
//	USER#<id>       PROFILE          user profile
//	EMAIL#<email>   EMAIL            email reservation, kept after the account is deleted
//	USER#<id>       LOCATION#<id>    favorite location (GSI1PK LOCATION#<id>)
//	USER#<id>       CITY#<city>      uniqueness guard for a live favorite
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	gsi1Name = "GSI1"

	entityUser     = "USER"
	entityEmail    = "EMAIL"
	entityLocation = "LOCATION"
	entityCity     = "CITY"
)

// API is the subset of the DynamoDB client the repositories call.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NewClient loads the default AWS configuration for region and returns a DynamoDB client.
func NewClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// HealthChecker verifies the table is reachable.
type HealthChecker struct {
	client    API
	tableName string
}

// NewHealthChecker creates a checker for tableName.
func NewHealthChecker(client API, tableName string) *HealthChecker {
	return &HealthChecker{client: client, tableName: tableName}
}

func (h *HealthChecker) Ping(ctx context.Context) error {
	_, err := h.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(h.tableName)})
	if apiErrorCode(err) == "ResourceNotFoundException" {
		return fmt.Errorf("table %s does not exist: %w", h.tableName, err)
	}
	return err
}

// apiErrorCode returns the service error code carried by err, or "".
func apiErrorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}

func userPK(id string) string        { return "USER#" + id }
func emailPK(email string) string    { return "EMAIL#" + email }
func locationSK(id string) string    { return "LOCATION#" + id }
func locationGSI(id string) string   { return "LOCATION#" + id }
func cityGuardSK(city string) string { return "CITY#" + city }

// isConditionFailure reports whether err is a failed condition, either on a single write
// or inside a cancelled transaction.
func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) || apiErrorCode(err) == "ConditionalCheckFailedException" {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
