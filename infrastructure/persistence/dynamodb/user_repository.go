package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// userItem represents the DynamoDB item structure for a user
type userItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       string `dynamodbav:"UserID"`
	Email        string `dynamodbav:"Email"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
	DeletedAt    string `dynamodbav:"DeletedAt,omitempty"`
}

type emailItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

func toUserItem(u *entities.User) userItem {
	item := userItem{
		PK:           userPK(u.ID),
		SK:           "PROFILE",
		EntityType:   entityUser,
		UserID:       u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if u.DeletedAt != nil {
		item.DeletedAt = u.DeletedAt.UTC().Format(time.RFC3339Nano)
	}
	return item
}

func (i userItem) toEntity() (*entities.User, error) {
	created, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse CreatedAt: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse UpdatedAt: %w", err)
	}
	user := &entities.User{
		ID:           i.UserID,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}
	if i.DeletedAt != "" {
		deleted, err := time.Parse(time.RFC3339Nano, i.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("parse DeletedAt: %w", err)
		}
		user.DeletedAt = &deleted
	}
	return user, nil
}

// UserRepository implements ports.UserRepository on DynamoDB.
type UserRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(client API, tableName string, logger *zap.Logger) *UserRepository {
	return &UserRepository{client: client, tableName: tableName, logger: logger}
}

// Create writes the profile and the email reservation in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	profile, err := attributevalue.MarshalMap(toUserItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	reservation, err := attributevalue.MarshalMap(emailItem{
		PK:         emailPK(user.Email),
		SK:         "EMAIL",
		EntityType: entityEmail,
		UserID:     user.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email reservation: %w", err)
	}

	notExists := aws.String("attribute_not_exists(PK)")
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: profile, ConditionExpression: notExists}},
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: reservation, ConditionExpression: notExists}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("user %s: %w", user.Email, ports.ErrDuplicate)
		}
		r.logger.Error("Failed to save user to DynamoDB", zap.Error(err), zap.String("userID", user.ID))
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	user, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string, includeDeleted bool) (*entities.User, error) {
	email = entities.NormalizeEmail(email)

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: emailPK(email)},
			"SK": &types.AttributeValueMemberS{Value: "EMAIL"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get email reservation: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("user %s: %w", email, ports.ErrNotFound)
	}

	var reservation emailItem
	if err := attributevalue.UnmarshalMap(result.Item, &reservation); err != nil {
		return nil, fmt.Errorf("failed to parse email reservation: %w", err)
	}

	user, err := r.load(ctx, reservation.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() && !includeDeleted {
		return nil, fmt.Errorf("user %s: %w", email, ports.ErrNotFound)
	}
	return user, nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := expression.Set(expression.Name("DeletedAt"), expression.Value(now)).
		Set(expression.Name("UpdatedAt"), expression.Value(now))
	condition := expression.Name("PK").AttributeExists().
		And(expression.Name("DeletedAt").AttributeNotExists())

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) load(ctx context.Context, id string) (*entities.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return item.toEntity()
}
