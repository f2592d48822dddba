package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

const (
	defaultListLimit = 24
	maxListLimit     = 100

	attrPK         = "PK"
	attrSK         = "SK"
	attrCaptureID  = "capture_id"
	attrSource     = "source"
	attrClassName  = "class_name"
	attrCategory   = "category"
	attrSeverity   = "severity"
	attrConfidence = "confidence"
	attrFilename   = "filename"
	attrArchiveKey = "archive_key"
	attrArchiveURL = "archive_url"
	attrSizeBytes  = "size_bytes"
	attrCapturedAt = "captured_at"
)

// Config holds the DynamoDB settings for the capture index.
type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// CaptureIndexRepository keeps the capture metadata index in DynamoDB:
// one item per capture, partitioned by source and sorted by capture time.
// Implements port.CaptureIndex.
type CaptureIndexRepository struct {
	client      *dynamodb.Client
	tableName   string
	strongReads bool
}

type cursorPayload struct {
	Source string                 `json:"source"`
	FromMS int64                  `json:"from_ms,omitempty"`
	ToMS   int64                  `json:"to_ms,omitempty"`
	Key    map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

// NewCaptureIndexRepository creates the index client.
func NewCaptureIndexRepository(ctx context.Context, cfg Config) (*CaptureIndexRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &CaptureIndexRepository{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		strongReads: cfg.StrongReads,
	}, nil
}

// Put upserts one capture record.
func (r *CaptureIndexRepository) Put(ctx context.Context, record port.CaptureRecord) error {
	item, err := r.toItem(record)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}

	return nil
}

// ListBySource returns indexed captures for one source, newest first.
func (r *CaptureIndexRepository) ListBySource(
	ctx context.Context,
	query port.CaptureListQuery,
) (port.CaptureListPage, error) {
	source := strings.TrimSpace(query.Source)
	if err := valueobject.CaptureSource(source).Validate(); err != nil {
		return port.CaptureListPage{}, fmt.Errorf("invalid source: %w", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	fromMS, toMS, hasRange, err := normalizeTimeRange(query.From, query.To)
	if err != nil {
		return port.CaptureListPage{}, err
	}

	input := &dynamodb.QueryInput{
		TableName:        &r.tableName,
		Limit:            int32Pointer(int32(limit)),
		ScanIndexForward: boolPointer(false),
		ConsistentRead:   boolPointer(r.strongReads),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(source)},
		},
	}

	keyCondition := "#pk = :pk"
	if hasRange {
		input.ExpressionAttributeNames["#sk"] = attrSK
		input.ExpressionAttributeValues[":from"] = &types.AttributeValueMemberS{Value: buildSortLowerBound(fromMS)}
		input.ExpressionAttributeValues[":to"] = &types.AttributeValueMemberS{Value: buildSortUpperBound(toMS)}
		keyCondition += " AND #sk BETWEEN :from AND :to"
	}
	input.KeyConditionExpression = &keyCondition

	if strings.TrimSpace(query.Cursor) != "" {
		exclusiveStartKey, err := decodeCursor(query.Cursor, source, fromMS, toMS)
		if err != nil {
			return port.CaptureListPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return port.CaptureListPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.CaptureRecord, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return port.CaptureListPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey, source, fromMS, toMS)
		if err != nil {
			return port.CaptureListPage{}, err
		}
	}

	return port.CaptureListPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

func (r *CaptureIndexRepository) toItem(record port.CaptureRecord) (map[string]types.AttributeValue, error) {
	captureID := strings.TrimSpace(record.CaptureID)
	source := strings.TrimSpace(record.Source)
	if captureID == "" {
		return nil, fmt.Errorf("capture_id is required")
	}
	if err := valueobject.CaptureSource(source).Validate(); err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}

	capturedAt := record.CapturedAt.UTC()
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	capturedAtMS := capturedAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:         &types.AttributeValueMemberS{Value: buildPK(source)},
		attrSK:         &types.AttributeValueMemberS{Value: buildSK(capturedAtMS, captureID)},
		attrCaptureID:  &types.AttributeValueMemberS{Value: captureID},
		attrSource:     &types.AttributeValueMemberS{Value: source},
		attrClassName:  &types.AttributeValueMemberS{Value: record.ClassName},
		attrCategory:   &types.AttributeValueMemberS{Value: record.Category},
		attrSeverity:   &types.AttributeValueMemberS{Value: record.Severity},
		attrConfidence: &types.AttributeValueMemberN{Value: strconv.FormatFloat(record.Confidence, 'f', -1, 64)},
		attrCapturedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(capturedAtMS, 10)},
	}

	if filename := strings.TrimSpace(record.Filename); filename != "" {
		item[attrFilename] = &types.AttributeValueMemberS{Value: filename}
	}
	if key := strings.TrimSpace(record.ArchiveKey); key != "" {
		item[attrArchiveKey] = &types.AttributeValueMemberS{Value: key}
	}
	if url := strings.TrimSpace(record.ArchiveURL); url != "" {
		item[attrArchiveURL] = &types.AttributeValueMemberS{Value: url}
	}
	if record.SizeBytes > 0 {
		item[attrSizeBytes] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.SizeBytes, 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.CaptureRecord, error) {
	captureID, err := attrStringValue(item, attrCaptureID)
	if err != nil {
		return port.CaptureRecord{}, err
	}
	source, err := attrStringValue(item, attrSource)
	if err != nil {
		return port.CaptureRecord{}, err
	}
	capturedAtMS, err := attrInt64(item, attrCapturedAt)
	if err != nil {
		return port.CaptureRecord{}, err
	}

	return port.CaptureRecord{
		CaptureID:  captureID,
		Source:     source,
		ClassName:  optionalString(item, attrClassName),
		Category:   optionalString(item, attrCategory),
		Severity:   optionalString(item, attrSeverity),
		Confidence: optionalFloat64(item, attrConfidence),
		Filename:   optionalString(item, attrFilename),
		ArchiveKey: optionalString(item, attrArchiveKey),
		ArchiveURL: optionalString(item, attrArchiveURL),
		SizeBytes:  optionalInt64(item, attrSizeBytes),
		CapturedAt: time.UnixMilli(capturedAtMS).UTC(),
	}, nil
}

func normalizeTimeRange(from, to time.Time) (int64, int64, bool, error) {
	from = from.UTC()
	to = to.UTC()
	if from.IsZero() && to.IsZero() {
		return 0, math.MaxInt64, false, nil
	}

	fromMS := int64(0)
	toMS := int64(math.MaxInt64)
	if !from.IsZero() {
		fromMS = from.UnixMilli()
	}
	if !to.IsZero() {
		toMS = to.UnixMilli()
	}

	if fromMS > toMS {
		return 0, 0, false, fmt.Errorf("from must be less than or equal to to")
	}

	return fromMS, toMS, true, nil
}

func buildPK(source string) string {
	return "SOURCE#" + source
}

func buildSK(capturedAtMS int64, captureID string) string {
	return fmt.Sprintf("TS#%013d#ID#%s", capturedAtMS, captureID)
}

func buildSortLowerBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#", tsMS)
}

func buildSortUpperBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#~", tsMS)
}

func encodeCursor(
	key map[string]types.AttributeValue,
	source string,
	fromMS, toMS int64,
) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	payload := cursorPayload{
		Source: source,
		FromMS: fromMS,
		ToMS:   toMS,
		Key:    values,
	}

	serialized, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(
	cursor, source string,
	fromMS, toMS int64,
) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	if payload.Source != source || payload.FromMS != fromMS || payload.ToMS != toMS {
		return nil, fmt.Errorf("cursor does not match query filters")
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		if value.S != "" {
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
			continue
		}
		if value.N != "" {
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
			continue
		}
		return nil, fmt.Errorf("invalid cursor")
	}

	return key, nil
}

func attrStringValue(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func optionalFloat64(item map[string]types.AttributeValue, name string) float64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseFloat(value.Value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}
