package dynamodb

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dreschagin/leafwatch/internal/application/port"
)

func TestCaptureItemRoundTrip(t *testing.T) {
	repo := &CaptureIndexRepository{tableName: "captures"}

	capturedAt := time.Date(2026, 4, 10, 8, 15, 30, 0, time.UTC)
	record := port.CaptureRecord{
		CaptureID:  "41f2a77e-9c01-4f5a-b1d2-5a7e30c10b44",
		Source:     "daily_capture",
		ClassName:  "Late_blight",
		Category:   "disease",
		Severity:   "high",
		Confidence: 0.92,
		Filename:   "daily_20260410_081530.jpg",
		ArchiveKey: "daily/daily_20260410_081530.jpg",
		ArchiveURL: "https://storage.yandexcloud.net/leafwatch/daily/daily_20260410_081530.jpg",
		SizeBytes:  48213,
		CapturedAt: capturedAt,
	}

	item, err := repo.toItem(record)
	if err != nil {
		t.Fatalf("toItem failed: %v", err)
	}

	pk, ok := item[attrPK].(*types.AttributeValueMemberS)
	if !ok || pk.Value != "SOURCE#daily_capture" {
		t.Fatalf("unexpected partition key: %#v", item[attrPK])
	}

	sk, ok := item[attrSK].(*types.AttributeValueMemberS)
	if !ok {
		t.Fatalf("missing sort key")
	}
	expectedSK := buildSK(capturedAt.UnixMilli(), record.CaptureID)
	if sk.Value != expectedSK {
		t.Fatalf("expected sort key %s, got %s", expectedSK, sk.Value)
	}

	restored, err := fromItem(item)
	if err != nil {
		t.Fatalf("fromItem failed: %v", err)
	}

	if restored.CaptureID != record.CaptureID {
		t.Fatalf("expected capture id %s, got %s", record.CaptureID, restored.CaptureID)
	}
	if restored.ClassName != record.ClassName {
		t.Fatalf("expected class %s, got %s", record.ClassName, restored.ClassName)
	}
	if restored.Confidence != record.Confidence {
		t.Fatalf("expected confidence %v, got %v", record.Confidence, restored.Confidence)
	}
	if restored.SizeBytes != record.SizeBytes {
		t.Fatalf("expected size %d, got %d", record.SizeBytes, restored.SizeBytes)
	}
	if !restored.CapturedAt.Equal(capturedAt) {
		t.Fatalf("expected captured at %v, got %v", capturedAt, restored.CapturedAt)
	}
}

func TestCaptureItemValidation(t *testing.T) {
	repo := &CaptureIndexRepository{tableName: "captures"}

	testCases := []struct {
		name   string
		record port.CaptureRecord
	}{
		{
			name:   "missing capture id",
			record: port.CaptureRecord{Source: "manual_capture"},
		},
		{
			name:   "unknown source",
			record: port.CaptureRecord{CaptureID: "abc", Source: "cron"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := repo.toItem(tc.record); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestSortKeysOrderByTimestamp(t *testing.T) {
	earlier := buildSK(1700000000000, "zzz")
	later := buildSK(1700000000001, "aaa")
	if !(earlier < later) {
		t.Fatalf("expected %s to sort before %s", earlier, later)
	}

	lower := buildSortLowerBound(1700000000000)
	upper := buildSortUpperBound(1700000000000)
	if !(lower <= earlier && earlier <= upper) {
		t.Fatalf("expected %s to fall inside [%s, %s]", earlier, lower, upper)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "SOURCE#manual_capture"},
		attrSK: &types.AttributeValueMemberS{Value: buildSK(1700000000000, "abc")},
	}

	cursor, err := encodeCursor(key, "manual_capture", 0, 1800000000000)
	if err != nil {
		t.Fatalf("encodeCursor failed: %v", err)
	}

	decoded, err := decodeCursor(cursor, "manual_capture", 0, 1800000000000)
	if err != nil {
		t.Fatalf("decodeCursor failed: %v", err)
	}

	pk, ok := decoded[attrPK].(*types.AttributeValueMemberS)
	if !ok || pk.Value != "SOURCE#manual_capture" {
		t.Fatalf("unexpected decoded partition key: %#v", decoded[attrPK])
	}
}

func TestCursorRejectsMismatchedFilters(t *testing.T) {
	key := map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "SOURCE#manual_capture"},
		attrSK: &types.AttributeValueMemberS{Value: buildSK(1700000000000, "abc")},
	}

	cursor, err := encodeCursor(key, "manual_capture", 0, 1800000000000)
	if err != nil {
		t.Fatalf("encodeCursor failed: %v", err)
	}

	if _, err := decodeCursor(cursor, "daily_capture", 0, 1800000000000); err == nil {
		t.Fatalf("expected source mismatch to be rejected")
	}
	if _, err := decodeCursor(cursor, "manual_capture", 1, 1800000000000); err == nil {
		t.Fatalf("expected range mismatch to be rejected")
	}
	if _, err := decodeCursor("not-base64!!", "manual_capture", 0, 1800000000000); err == nil {
		t.Fatalf("expected malformed cursor to be rejected")
	}
}
