package websocket

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"gridbot/internal/models"
)

// sync.Pool для JSON буферов - убирает аллокации при каждом Broadcast

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Центральный менеджер для broadcast сообщений всем подключенным
// клиентам: обновления ордеров после сверки, события ботов,
// результаты синхронизации рынков. Потокобезопасен.
//
// Использование:
//  1. Создать hub: hub := NewHub()
//  2. Запустить в горутине: go hub.Run()
//  3. Отправлять сообщения: hub.BroadcastOrderUpdate(order)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Остановка цикла Run
	done chan struct{}

	// Счётчик сообщений, отброшенных при переполнении канала
	dropped atomic.Int64

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Обрабатывает регистрацию, отмену регистрации и broadcast.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client connected. Total clients: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client disconnected. Total clients: %d", h.ClientCount())

		case message := <-h.broadcast:
			// Копируем список клиентов под коротким RLock,
			// отправляем без блокировки, медленных удаляем под Write Lock
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает обрабатывать сообщения
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				log.Printf("Removed %d slow clients. Total clients: %d", len(toRemove), h.ClientCount())
			}
		}
	}
}

// Stop останавливает цикл Run
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast отправляет сообщение всем подключенным клиентам
//
// Не блокируется: при переполнении канала сообщение отбрасывается
// и учитывается в DroppedMessages.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		jsonBufferPool.Put(buf)
		return
	}

	// Убираем trailing newline от Encode
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Копируем данные (буфер вернётся в пул)
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)

	jsonBufferPool.Put(buf)

	select {
	case h.broadcast <- msgCopy:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastOrderUpdate отправляет изменение состояния ордера
//
// Реализует bot.OrderBroadcaster: вызывается циклом сверки после
// каждого обновлённого ордера.
func (h *Hub) BroadcastOrderUpdate(order *models.Order) {
	h.Broadcast(NewOrderUpdateMessage(order))
}

// BroadcastBotUpdate отправляет событие сеточного бота
func (h *Hub) BroadcastBotUpdate(gridBotID int, event string, orderCount int) {
	h.Broadcast(NewBotUpdateMessage(gridBotID, event, orderCount))
}

// BroadcastMarketSync отправляет результат синхронизации рынков
func (h *Hub) BroadcastMarketSync(exchangeID, attached int) {
	h.Broadcast(NewMarketSyncMessage(exchangeID, attached))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
