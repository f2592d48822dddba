package cloudwatch

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	applicationPort "github.com/dreschagin/leafwatch/internal/application/port"
)

func TestConvertToLogEvent(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/leafwatch/appliance",
		logStreamName: "greenhouse-01",
	}

	timestamp := time.Date(2026, 4, 10, 8, 15, 30, 0, time.UTC)
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelInfo,
		Message:   "capture completed",
		Fields: map[string]interface{}{
			"source":     "daily_capture",
			"class_name": "Late_blight",
			"size_bytes": 48213,
		},
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	// Verify timestamp
	expectedTimestamp := timestamp.UnixMilli()
	if event.Timestamp == nil || *event.Timestamp != expectedTimestamp {
		t.Errorf("Expected Timestamp=%d, got %v", expectedTimestamp, event.Timestamp)
	}

	// Verify message is valid JSON
	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("Failed to parse log message as JSON: %v", err)
	}

	// Verify structured fields
	if logData["level"] != string(applicationPort.LogLevelInfo) {
		t.Errorf("Expected level=INFO, got %v", logData["level"])
	}

	if logData["message"] != "capture completed" {
		t.Errorf("Expected message='capture completed', got %v", logData["message"])
	}

	fields, ok := logData["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected fields to be a map")
	}

	if fields["source"] != "daily_capture" {
		t.Errorf("Expected source=daily_capture, got %v", fields["source"])
	}

	if fields["class_name"] != "Late_blight" {
		t.Errorf("Expected class_name=Late_blight, got %v", fields["class_name"])
	}

	// Note: JSON numbers are float64
	if sizeBytes, ok := fields["size_bytes"].(float64); !ok || sizeBytes != 48213 {
		t.Errorf("Expected size_bytes=48213, got %v", fields["size_bytes"])
	}
}

func TestConvertToLogEvent_NoFields(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/leafwatch/appliance",
		logStreamName: "greenhouse-01",
	}

	timestamp := time.Now()
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelError,
		Message:   "classifier request failed",
		Fields:    nil,
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("Failed to parse log message as JSON: %v", err)
	}

	if logData["level"] != string(applicationPort.LogLevelError) {
		t.Errorf("Expected level=ERROR, got %v", logData["level"])
	}

	if logData["message"] != "classifier request failed" {
		t.Errorf("Expected message='classifier request failed', got %v", logData["message"])
	}

	if _, ok := logData["fields"]; ok {
		t.Error("Expected no fields key for entry without fields")
	}
}

func TestConvertToLogEvent_Truncation(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/leafwatch/appliance",
		logStreamName: "greenhouse-01",
	}

	// Create a very large message that exceeds CloudWatch limit
	largeMessage := string(make([]byte, maxLogEventSize+1000))

	entry := applicationPort.LogEntry{
		Timestamp: time.Now(),
		Level:     applicationPort.LogLevelInfo,
		Message:   largeMessage,
		Fields:    nil,
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	// Verify message was truncated
	messageLen := len(*event.Message)
	if messageLen > maxLogEventSize {
		t.Errorf("Expected message to be truncated to %d bytes, got %d", maxLogEventSize, messageLen)
	}

	// Verify truncation marker
	if messageLen >= 3 {
		lastThree := (*event.Message)[messageLen-3:]
		if lastThree != "..." {
			t.Error("Expected truncation marker '...' at end of message")
		}
	}
}

func TestChronologicalOrdering(t *testing.T) {
	now := time.Now()
	p := &LogsPublisher{
		logGroupName:  "/leafwatch/appliance",
		logStreamName: "greenhouse-01",
		buffer: []applicationPort.LogEntry{
			{Timestamp: now.Add(5 * time.Second), Level: applicationPort.LogLevelInfo, Message: "Third"},
			{Timestamp: now, Level: applicationPort.LogLevelInfo, Message: "First"},
			{Timestamp: now.Add(2 * time.Second), Level: applicationPort.LogLevelInfo, Message: "Second"},
		},
	}

	// Same sort flushBufferUnsafe applies before shipping
	sort.Slice(p.buffer, func(i, j int) bool {
		return p.buffer[i].Timestamp.Before(p.buffer[j].Timestamp)
	})

	expected := []string{"First", "Second", "Third"}
	for i, message := range expected {
		if p.buffer[i].Message != message {
			t.Errorf("Expected entry %d to be %q, got %q", i, message, p.buffer[i].Message)
		}
	}

	if !sort.SliceIsSorted(p.buffer, func(i, j int) bool {
		return p.buffer[i].Timestamp.Before(p.buffer[j].Timestamp)
	}) {
		t.Error("Entries not in chronological order")
	}
}
