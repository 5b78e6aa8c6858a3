package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// locationItem represents the DynamoDB item structure for a favorite location
type locationItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	LocationID string `dynamodbav:"LocationID"`
	UserID     string `dynamodbav:"UserID"`
	City       string `dynamodbav:"City"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	DeletedAt  string `dynamodbav:"DeletedAt,omitempty"`
}

type cityGuardItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	LocationID string `dynamodbav:"LocationID"`
}

func toLocationItem(l *entities.Location) locationItem {
	item := locationItem{
		PK:         userPK(l.UserID),
		SK:         locationSK(l.ID),
		GSI1PK:     locationGSI(l.ID),
		GSI1SK:     "METADATA",
		EntityType: entityLocation,
		LocationID: l.ID,
		UserID:     l.UserID,
		City:       l.City,
		CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  l.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if l.DeletedAt != nil {
		item.DeletedAt = l.DeletedAt.UTC().Format(time.RFC3339Nano)
	}
	return item
}

func (i locationItem) toEntity() (*entities.Location, error) {
	created, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse CreatedAt: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse UpdatedAt: %w", err)
	}
	location := &entities.Location{
		ID:        i.LocationID,
		City:      i.City,
		UserID:    i.UserID,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if i.DeletedAt != "" {
		deleted, err := time.Parse(time.RFC3339Nano, i.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("parse DeletedAt: %w", err)
		}
		location.DeletedAt = &deleted
	}
	return location, nil
}

// LocationRepository implements ports.LocationRepository on DynamoDB.
type LocationRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(client API, tableName string, logger *zap.Logger) *LocationRepository {
	return &LocationRepository{client: client, tableName: tableName, logger: logger}
}

// Create writes the favorite together with its per-user city guard.
func (r *LocationRepository) Create(ctx context.Context, location *entities.Location) error {
	item, err := attributevalue.MarshalMap(toLocationItem(location))
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	guard, err := attributevalue.MarshalMap(cityGuardItem{
		PK:         userPK(location.UserID),
		SK:         cityGuardSK(location.City),
		EntityType: entityCity,
		LocationID: location.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal city guard: %w", err)
	}

	notExists := aws.String("attribute_not_exists(PK)")
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: item, ConditionExpression: notExists}},
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: guard, ConditionExpression: notExists}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("location %s: %w", location.City, ports.ErrDuplicate)
		}
		r.logger.Error("Failed to save location to DynamoDB", zap.Error(err), zap.String("locationID", location.ID))
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	keyExpr := expression.Key("GSI1PK").Equal(expression.Value(locationGSI(id))).
		And(expression.Key("GSI1SK").Equal(expression.Value("METADATA")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query location: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("location %s: %w", id, ports.ErrNotFound)
	}

	var item locationItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to parse location: %w", err)
	}
	location, err := item.toEntity()
	if err != nil {
		return nil, err
	}
	if location.IsDeleted() {
		return nil, fmt.Errorf("location %s: %w", id, ports.ErrNotFound)
	}
	return location, nil
}

func (r *LocationRepository) ExistsForUser(ctx context.Context, userID, city string) (bool, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: cityGuardSK(entities.NormalizeCity(city))},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get city guard: %w", err)
	}
	return result.Item != nil, nil
}

// ListByUser reads every live favorite of the user and pages in memory; a user holds few favorites.
func (r *LocationRepository) ListByUser(ctx context.Context, userID string, page common.PaginationParams) ([]*entities.Location, int, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("LOCATION#"))
	filter := expression.Name("DeletedAt").AttributeNotExists()

	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).WithFilter(filter).Build()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var all []*entities.Location
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query locations: %w", err)
		}
		for _, raw := range out.Items {
			var item locationItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to parse item", zap.Error(err))
				continue
			}
			location, err := item.toEntity()
			if err != nil {
				r.logger.Warn("Failed to parse item", zap.Error(err))
				continue
			}
			all = append(all, location)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	page = page.Normalize()
	start := page.CalculateOffset()
	if start >= total {
		return []*entities.Location{}, total, nil
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// SoftDelete marks the favorite deleted and releases its city guard atomically.
func (r *LocationRepository) SoftDelete(ctx context.Context, id string) error {
	location, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	update := expression.Set(expression.Name("DeletedAt"), expression.Value(now)).
		Set(expression.Name("UpdatedAt"), expression.Value(now))
	condition := expression.Name("DeletedAt").AttributeNotExists()
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: userPK(location.UserID)},
					"SK": &types.AttributeValueMemberS{Value: locationSK(location.ID)},
				},
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: userPK(location.UserID)},
					"SK": &types.AttributeValueMemberS{Value: cityGuardSK(location.City)},
				},
			}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("location %s: %w", id, ports.ErrNotFound)
		}
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}

// DistinctCities scans live favorites and folds them into a sorted set of cities.
func (r *LocationRepository) DistinctCities(ctx context.Context) ([]string, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityLocation)).
		And(expression.Name("DeletedAt").AttributeNotExists())
	projection := expression.NamesList(expression.Name("City"))

	expr, err := expression.NewBuilder().WithFilter(filter).WithProjection(projection).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	seen := make(map[string]struct{})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locations: %w", err)
		}
		for _, raw := range out.Items {
			var row struct {
				City string `dynamodbav:"City"`
			}
			if err := attributevalue.UnmarshalMap(raw, &row); err != nil {
				r.logger.Warn("Failed to parse item", zap.Error(err))
				continue
			}
			seen[row.City] = struct{}{}
		}
	}

	cities := make([]string, 0, len(seen))
	for city := range seen {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities, nil
}
