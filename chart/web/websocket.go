package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/raykavin/chartdeck/logger"

	"github.com/gorilla/websocket"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WebSocketManager handles WebSocket connections
type WebSocketManager struct {
	sync.RWMutex
	clients       map[*websocket.Conn]struct{}
	upgrader      websocket.Upgrader
	broadcastChan chan WebSocketMessage
	log           logger.Logger
	chart         *Chart
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager(log logger.Logger, chart *Chart) *WebSocketManager {
	manager := &WebSocketManager{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		broadcastChan: make(chan WebSocketMessage, 100),
		log:           log,
		chart:         chart,
	}

	// Start broadcast handler
	go manager.handleBroadcasts()

	return manager
}

// Broadcast queues an operation for delivery to every connected client
func (m *WebSocketManager) Broadcast(msg WebSocketMessage) {
	m.broadcastChan <- msg
}

// ClientCount returns the number of connected clients
func (m *WebSocketManager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

// handleBroadcasts processes messages from the broadcast channel
func (m *WebSocketManager) handleBroadcasts() {
	for msg := range m.broadcastChan {
		m.RLock()
		for conn := range m.clients {
			err := conn.WriteJSON(msg)
			if err != nil {
				m.log.Error("Error sending WebSocket message: ", err)
				conn.Close()
				// Removal happens in the client handler once the read fails
			}
		}
		m.RUnlock()
	}
}

// HandleWebSocket handles WebSocket connections
func (m *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Error("Failed to upgrade connection to WebSocket: ", err)
		return
	}

	// Register client
	m.Lock()
	m.clients[conn] = struct{}{}
	clientCount := len(m.clients)
	m.Unlock()

	m.log.Info("New WebSocket client connected, total: ", clientCount)

	// Send initial data
	go m.sendInitialData(conn)

	// Handle client messages
	go m.handleClient(conn)
}

// handleClient processes messages from a client
func (m *WebSocketManager) handleClient(conn *websocket.Conn) {
	defer func() {
		// Remove client on disconnect
		m.Lock()
		delete(m.clients, conn)
		m.log.Info("WebSocket client disconnected, remaining: ", len(m.clients))
		m.Unlock()
		conn.Close()
	}()

	// Keep connection alive with ping/pong
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte{}, time.Now().Add(10*time.Second))
	})

	// Read messages (we don't expect any, but need to handle disconnects)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Error("WebSocket read error: ", err)
			}
			break
		}
	}
}

// sendInitialData sends the full chart state to a new client
func (m *WebSocketManager) sendInitialData(conn *websocket.Conn) {
	msg := WebSocketMessage{
		Type:    "initialData",
		Payload: m.chart.snapshot(),
	}

	err := conn.WriteJSON(msg)
	if err != nil {
		m.log.Error("Error sending initial data: ", err)
	}
}
