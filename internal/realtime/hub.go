// Package realtime fans stored notifications out to the websocket
// connections a user currently has open.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/Dias221467/Recovery_Tracker/internal/models"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
)

const subscriptionBuffer = 16

// Event is the frame written to a websocket client.
type Event struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// Subscription is one open connection of a user.
type Subscription struct {
	UserID string
	C      <-chan []byte

	send chan []byte
}

type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a connection for userID.
func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan []byte, subscriptionBuffer)
	sub := &Subscription{UserID: userID, C: ch, send: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Subscription]struct{})
	}
	h.clients[userID][sub] = struct{}{}

	logger.Log.WithField("user_id", userID).Debug("Realtime client subscribed")
	return sub
}

// Unsubscribe removes the connection and closes its channel. Calling it twice
// is harmless.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[sub.UserID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.clients, sub.UserID)
	}
}

// Connections reports how many connections userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Publish sends n to every connection of userID. A connection whose buffer is
// full misses the frame; the client catches up through GET /notifications.
func (h *Hub) Publish(userID string, n *models.Notification) {
	frame, err := json.Marshal(Event{Type: "notification", Notification: n})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to encode realtime event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients[userID] {
		select {
		case sub.send <- frame:
		default:
			logger.Log.WithField("user_id", userID).Warn("Realtime client too slow, frame dropped")
		}
	}
}
