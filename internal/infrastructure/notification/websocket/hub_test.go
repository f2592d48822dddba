package websocket

import (
	"testing"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

func TestBroadcastEnqueuesTypedMessages(t *testing.T) {
	hub := NewHub(logger.New("error"))

	hub.BroadcastStatus(&dto.StatusDTO{ConnectedClients: 1})
	hub.BroadcastCaptureResult(&dto.CaptureResultDTO{Success: true})
	hub.BroadcastDailyResult(&dto.CaptureResultDTO{Success: false})
	hub.BroadcastAlert(&dto.AlertDTO{Severity: "high"})
	hub.BroadcastSensorUpdate(&dto.ReadingDTO{Temperature: 24.5})

	expected := []string{
		MessageTypeStatusUpdate,
		MessageTypeCaptureResult,
		MessageTypeDailyResult,
		MessageTypeDiseaseAlert,
		MessageTypeSensorUpdate,
	}

	for _, messageType := range expected {
		select {
		case message := <-hub.broadcast:
			if message.Type != messageType {
				t.Errorf("Expected message type %s, got %s", messageType, message.Type)
			}
		default:
			t.Fatalf("Expected buffered message of type %s", messageType)
		}
	}
}

func TestEnqueueDropsWhenChannelFull(t *testing.T) {
	hub := NewHub(logger.New("error"))

	// Заполняем канал до отказа
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.enqueue(Message{Type: MessageTypeSensorUpdate})
	}

	// Следующее сообщение должно быть отброшено без блокировки
	hub.BroadcastStatus(&dto.StatusDTO{})

	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("Expected channel to stay at capacity %d, got %d", cap(hub.broadcast), len(hub.broadcast))
	}
}

func TestClientCountStartsAtZero(t *testing.T) {
	hub := NewHub(logger.New("error"))
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}
