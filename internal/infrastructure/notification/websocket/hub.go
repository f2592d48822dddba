package websocket

import (
	"sync"

	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// Типы сообщений, которые hub рассылает клиентам
const (
	MessageTypeWelcome       = "welcome"
	MessageTypeStatusUpdate  = "status_update"
	MessageTypeCaptureResult = "capture_result"
	MessageTypeDailyResult   = "daily_capture_result"
	MessageTypeDiseaseAlert  = "disease_alert"
	MessageTypeSensorUpdate  = "sensor_update"
)

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub управляет WebSocket клиентами и рассылает сообщения
// Реализует интерфейс port.NotificationService
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast сообщений
	broadcast chan Message

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для удаления клиентов
	unregister chan *Client

	// Снимок текущего состояния для welcome и request_update
	statusProvider func() *dto.StatusDTO

	// Mutex для защиты clients map
	mu sync.RWMutex

	// Logger
	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// SetStatusProvider задает источник снимка состояния
// Должен быть вызван до Run
func (h *Hub) SetStatusProvider(provider func() *dto.StatusDTO) {
	h.statusProvider = provider
}

// Run запускает hub (должен быть запущен в отдельной goroutine)
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

			// Новому клиенту сразу отправляем welcome и текущее состояние
			h.sendToClient(client, Message{Type: MessageTypeWelcome})
			if h.statusProvider != nil {
				h.sendToClient(client, Message{Type: MessageTypeStatusUpdate, Data: h.statusProvider()})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					// Сообщение отправлено
				default:
					// Канал клиента заполнен, закрываем соединение
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client channel full, disconnected")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastStatus отправляет снимок состояния всем клиентам
func (h *Hub) BroadcastStatus(status *dto.StatusDTO) {
	h.enqueue(Message{Type: MessageTypeStatusUpdate, Data: status})
}

// BroadcastCaptureResult отправляет результат съемки всем клиентам
func (h *Hub) BroadcastCaptureResult(result *dto.CaptureResultDTO) {
	h.enqueue(Message{Type: MessageTypeCaptureResult, Data: result})
}

// BroadcastDailyResult отправляет результат ежедневной съемки всем клиентам
func (h *Hub) BroadcastDailyResult(result *dto.CaptureResultDTO) {
	h.enqueue(Message{Type: MessageTypeDailyResult, Data: result})
}

// BroadcastAlert отправляет alert о болезни всем клиентам
func (h *Hub) BroadcastAlert(alert *dto.AlertDTO) {
	h.enqueue(Message{Type: MessageTypeDiseaseAlert, Data: alert})
}

// BroadcastSensorUpdate отправляет показания датчика всем клиентам
func (h *Hub) BroadcastSensorUpdate(reading *dto.ReadingDTO) {
	h.enqueue(Message{Type: MessageTypeSensorUpdate, Data: reading})
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue кладет сообщение в broadcast канал без блокировки
func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
		// Сообщение отправлено в канал
	default:
		h.logger.Warn("Broadcast channel full, dropping message", "type", message.Type)
	}
}

// sendToClient отправляет сообщение одному клиенту без блокировки
func (h *Hub) sendToClient(client *Client, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- message:
	default:
		h.logger.Warn("Client channel full, message dropped", "type", message.Type)
	}
}
