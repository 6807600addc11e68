package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

// streamKey is the partition key value for the single reading stream. The
// sort key is the record id, unix nanoseconds of the reading timestamp, so
// a Query walks history in insertion order.
const streamKey = "water-quality"

// DynamoHistory is the cloud-mode reading log. It satisfies the same store
// contract as the Postgres repository.
type DynamoHistory struct {
	svc   *dynamodb.Client
	table string
}

// NewDynamoHistory creates a new DynamoDB-backed history store.
func NewDynamoHistory(region, table string) (*DynamoHistory, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &DynamoHistory{
		svc:   dynamodb.NewFromConfig(cfg),
		table: table,
	}, nil
}

// readingItem is the DynamoDB shape of one classified reading.
type readingItem struct {
	Stream      string    `dynamodbav:"stream"`
	ID          int64     `dynamodbav:"id"`
	Timestamp   time.Time `dynamodbav:"timestamp"`
	PH          float64   `dynamodbav:"ph"`
	Turbidity   float64   `dynamodbav:"turbidity"`
	Temperature float64   `dynamodbav:"temperature"`
	TDS         float64   `dynamodbav:"tds"`
	Prediction  int       `dynamodbav:"prediction"`
	Label       string    `dynamodbav:"label"`
	Confidence  float64   `dynamodbav:"confidence"`
}

func toItem(rec domain.ReadingRecord, id int64) readingItem {
	return readingItem{
		Stream:      streamKey,
		ID:          id,
		Timestamp:   rec.Timestamp,
		PH:          rec.PH,
		Turbidity:   rec.Turbidity,
		Temperature: rec.Temperature,
		TDS:         rec.TDS,
		Prediction:  rec.Prediction,
		Label:       rec.Label,
		Confidence:  rec.Confidence,
	}
}

func (it readingItem) record() domain.ReadingRecord {
	return domain.ReadingRecord{
		ID:          it.ID,
		Timestamp:   it.Timestamp,
		PH:          it.PH,
		Turbidity:   it.Turbidity,
		Temperature: it.Temperature,
		TDS:         it.TDS,
		Prediction:  it.Prediction,
		Label:       it.Label,
		Confidence:  it.Confidence,
	}
}

// Append stores one classified reading and returns its assigned id.
func (c *DynamoHistory) Append(ctx context.Context, rec domain.ReadingRecord) (int64, error) {
	id := rec.Timestamp.UnixNano()

	item, err := attributevalue.MarshalMap(toItem(rec, id))
	if err != nil {
		return 0, fmt.Errorf("%w: marshal reading: %v", domain.ErrStoreUnavailable, err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      item,
	}
	if _, err := c.svc.PutItem(ctx, input); err != nil {
		return 0, fmt.Errorf("%w: append reading: %v", domain.ErrStoreUnavailable, err)
	}
	return id, nil
}

// List returns records oldest-first, narrowed by the window the same way the
// Postgres store narrows: inclusive From/To bounds, Limit keeps the newest.
func (c *DynamoHistory) List(ctx context.Context, w domain.Window) ([]domain.ReadingRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(c.table),
		KeyConditionExpression:    aws.String(keyCondition(w)),
		ExpressionAttributeValues: expressionValues(w),
	}

	if w.Limit > 0 {
		// Walk newest-first to honor the limit, then flip back to
		// insertion order.
		input.ScanIndexForward = aws.Bool(false)
		input.Limit = aws.Int32(int32(w.Limit))
		result, err := c.svc.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%w: list history: %v", domain.ErrStoreUnavailable, err)
		}
		records, err := unmarshalRecords(result.Items)
		if err != nil {
			return nil, err
		}
		reverse(records)
		return records, nil
	}

	records := []domain.ReadingRecord{}
	paginator := dynamodb.NewQueryPaginator(c.svc, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list history: %v", domain.ErrStoreUnavailable, err)
		}
		batch, err := unmarshalRecords(page.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// Recent returns the newest limit records, newest first.
func (c *DynamoHistory) Recent(ctx context.Context, limit int) ([]domain.ReadingRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("stream = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: streamKey},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	result, err := c.svc.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: recent history: %v", domain.ErrStoreUnavailable, err)
	}
	return unmarshalRecords(result.Items)
}

func keyCondition(w domain.Window) string {
	switch {
	case !w.From.IsZero() && !w.To.IsZero():
		return "stream = :s AND id BETWEEN :from AND :to"
	case !w.From.IsZero():
		return "stream = :s AND id >= :from"
	case !w.To.IsZero():
		return "stream = :s AND id <= :to"
	default:
		return "stream = :s"
	}
}

func expressionValues(w domain.Window) map[string]types.AttributeValue {
	values := map[string]types.AttributeValue{
		":s": &types.AttributeValueMemberS{Value: streamKey},
	}
	if !w.From.IsZero() {
		values[":from"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", w.From.UnixNano())}
	}
	if !w.To.IsZero() {
		values[":to"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", w.To.UnixNano())}
	}
	return values
}

func unmarshalRecords(items []map[string]types.AttributeValue) ([]domain.ReadingRecord, error) {
	var batch []readingItem
	if err := attributevalue.UnmarshalListOfMaps(items, &batch); err != nil {
		return nil, fmt.Errorf("%w: unmarshal readings: %v", domain.ErrStoreUnavailable, err)
	}
	records := make([]domain.ReadingRecord, len(batch))
	for i, it := range batch {
		records[i] = it.record()
	}
	return records, nil
}

func reverse(records []domain.ReadingRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
