package notify

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the JSON frame pushed to every connected family member and to
// registered webhooks.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

func NewEvent(eventType string, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}
}

// Hub fans events out to WebSocket clients, grouped by family.
type Hub struct {
	mu       sync.RWMutex
	families map[int]map[*client]struct{}
}

type client struct {
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		families: make(map[int]map[*client]struct{}),
	}
}

// Broadcast sends the event to every client of the family. Clients whose
// buffer is full are skipped rather than blocking the sender.
func (h *Hub) Broadcast(familyID int, evt Event) {
	frame, err := json.Marshal(evt)
	if err != nil {
		log.Println("notify: marshal event:", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.families[familyID] {
		select {
		case c.send <- frame:
		default:
		}
	}
}

func (h *Hub) register(familyID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.families[familyID] == nil {
		h.families[familyID] = make(map[*client]struct{})
	}
	h.families[familyID][c] = struct{}{}
}

func (h *Hub) unregister(familyID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.families[familyID], c)
	if len(h.families[familyID]) == 0 {
		delete(h.families, familyID)
	}
	close(c.send)
}

// ClientCount reports how many sockets are connected for the family.
func (h *Hub) ClientCount(familyID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.families[familyID])
}
