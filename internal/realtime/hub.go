// Package realtime pushes moderation board changes to connected browsers.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// PresenceHandler is called when the number of viewers of a board changes.
type PresenceHandler func(board string, count int)

// Hub maintains board -> set of connections and broadcasts messages.
// With Redis configured, events go through pub/sub so every dashboard
// process delivers them, this one included.
type Hub struct {
	// board -> map[clientID]*Client
	boards     map[string]map[string]*Client
	subs       map[string]func() // cancel Redis subscription per board
	mu         sync.RWMutex
	logger     *zap.Logger
	redis      RedisPublisher
	redisSub   RedisSubscriber
	onPresence PresenceHandler
}

// RedisPublisher publishes board events for other dashboard processes.
type RedisPublisher interface {
	PublishBoardEvent(board, event string, payload []byte) error
}

// RedisSubscriber subscribes to board channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeBoard(board string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		boards:   make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetPresenceHandler sets the callback for viewer count changes.
func (h *Hub) SetPresenceHandler(fn PresenceHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPresence = fn
}

// Register adds a client to a board. Starts the Redis subscription for the board if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.boards[c.Board] == nil {
		h.boards[c.Board] = make(map[string]*Client)
		if h.redisSub != nil {
			board := c.Board
			cancel, err := h.redisSub.SubscribeBoard(board, func(event string, payload []byte) {
				h.Broadcast(board, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("board subscription failed", zap.String("board", board), zap.Error(err))
			} else {
				h.subs[board] = cancel
			}
		}
	}
	h.boards[c.Board][c.ID] = c
	count := len(h.boards[c.Board])
	onPresence := h.onPresence
	h.mu.Unlock()
	if onPresence != nil {
		onPresence(c.Board, count)
	}
	h.logger.Debug("client joined board", zap.String("client_id", c.ID), zap.String("board", c.Board))
}

// Unregister removes a client from its board. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	count := -1
	if m, ok := h.boards[c.Board]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		count = len(m)
		if count == 0 {
			delete(h.boards, c.Board)
			if cancel, ok := h.subs[c.Board]; ok {
				cancel()
				delete(h.subs, c.Board)
			}
		}
	}
	onPresence := h.onPresence
	h.mu.Unlock()
	if onPresence != nil && count >= 0 {
		onPresence(c.Board, count)
	}
	h.logger.Debug("client left board", zap.String("client_id", c.ID), zap.String("board", c.Board))
}

// Broadcast sends a message to all clients of a board (local only).
func (h *Hub) Broadcast(board, event string, payload any) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode board event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.boards[board] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("client buffer full, dropping event", zap.String("client_id", c.ID))
		}
	}
}

// Publish delivers an event to every viewer of board. With Redis it is
// published only, and the subscription performs the local broadcast once.
func (h *Hub) Publish(board, event string, payload any) {
	if h.redis == nil {
		h.Broadcast(board, event, payload)
		return
	}
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode board event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishBoardEvent(board, event, data); err != nil {
		h.logger.Warn("publish board event, delivering locally", zap.String("board", board), zap.Error(err))
		h.Broadcast(board, event, json.RawMessage(data))
	}
}

// ClientCount returns the number of connected clients on a board.
func (h *Hub) ClientCount(board string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards[board])
}

// Close disconnects every client and cancels all subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for board, clients := range h.boards {
		for id, c := range clients {
			close(c.send)
			delete(clients, id)
		}
		delete(h.boards, board)
	}
	for board, cancel := range h.subs {
		cancel()
		delete(h.subs, board)
	}
}

func encode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}
