package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/namay10/DcaVault/internal/domain/model"
)

// WebSocketBroadcaster implements Broadcaster interface for vault events.
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

func NewWebSocketBroadcaster() *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (b *WebSocketBroadcaster) BroadcastEvent(ev *model.VaultEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("failed to marshal vault event: %v", err)
		return
	}
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler returns an http.HandlerFunc to accept websocket connections.
func (b *WebSocketBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()
		// Read loop to detect disconnects and keep the connection alive
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}
