package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"stratos-backend/internal/model"
	"stratos-backend/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// clusterChannel carries {target_user_id, message} frames between instances
// so a user connected to another node still receives their events.
const clusterChannel = "cluster_events"

type Hub struct {
	// UserID -> connections; one user may hold several devices open.
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToCluster()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Last connection closed", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliverLocal pushes a frame to every local connection of one user. A full
// send buffer means the reader is gone; the connection is dropped rather
// than blocking the hub.
func (h *Hub) deliverLocal(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) publishCluster(userID uuid.UUID, data []byte) {
	if h.rdb == nil {
		return
	}
	wrapped, _ := json.Marshal(map[string]interface{}{
		"target_user_id": userID.String(),
		"message":        json.RawMessage(data),
	})
	h.rdb.Publish(context.Background(), clusterChannel, wrapped)
}

// SendEvent pushes a pipeline event envelope to every connection of one
// user. The bus relay calls this so the UI can follow session progress live.
func (h *Hub) SendEvent(userID uuid.UUID, eventType string, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})

	h.deliverLocal(userID, data)
	h.publishCluster(userID, data)
}

// Send delivers a stored notification to one user.
func (h *Hub) Send(userID uuid.UUID, notification model.Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.deliverLocal(userID, data)
	h.publishCluster(userID, data)
}

// subscribeToCluster forwards frames published by other instances to the
// users held locally. Frames for unknown users are ignored; whichever node
// owns the connection delivers them.
func (h *Hub) subscribeToCluster() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var frame struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		uid, err := uuid.Parse(frame.TargetUserID)
		if err != nil {
			continue
		}

		h.deliverLocal(uid, frame.Message)
	}
}
