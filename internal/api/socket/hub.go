// Package socket 私信的 websocket 实时通道。
package socket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/pkg/logger"
	"github.com/d60-Lab/social-feed/pkg/metrics"
)

// EventError 服务端推送的错误事件
const EventError = "error"

// Envelope 上下行消息统一格式
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub 维护在线连接，同一账号可以有多个连接
type Hub struct {
	mu      sync.RWMutex
	clients map[model.AccountID]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[model.AccountID]map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.SocketConnections.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.SocketConnections.Dec()
}

// Online 账号当前的连接数
func (h *Hub) Online(id model.AccountID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Deliver 推送给 to 中在线的账号；慢连接的缓冲区满时丢弃
func (h *Hub) Deliver(to []model.AccountID, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		logger.Error("encode socket event failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range to {
		for c := range h.clients[id] {
			c.push(msg)
		}
	}
}
