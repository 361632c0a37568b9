package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// EventType labels a hub payload.
type EventType string

const (
	EventHeadcountRecorded     EventType = "HeadcountRecorded"
	EventCoverageChanged       EventType = "CoverageChanged"
	EventTaskCreated           EventType = "TaskCreated"
	EventTaskStatusChanged     EventType = "TaskStatusChanged"
	EventIssueReported         EventType = "IssueReported"
	EventIssueStatusChanged    EventType = "IssueStatusChanged"
	EventFacilityStatusChanged EventType = "FacilityStatusChanged"
)

// Event is one dashboard update. Zone scopes delivery; an empty zone
// reaches every client.
type Event struct {
	Type    EventType       `json:"type"`
	Zone    string          `json:"zone,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BroadcastMessage packages a payload for a zone-scoped broadcast.
type BroadcastMessage struct {
	Zone    string
	Payload []byte
}

// Hub manages active clients and zone-scoped broadcasts.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
}

// NewHub builds a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage),
	}
}

// Run starts the hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.WantsZone(message.Zone) {
					continue
				}
				select {
				case client.Send <- message.Payload:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Broadcast sends a payload to all clients watching a zone. An empty zone
// reaches everyone.
func (h *Hub) Broadcast(zone string, payload []byte) {
	h.broadcast <- BroadcastMessage{Zone: zone, Payload: payload}
}

// BroadcastEvent marshals and broadcasts an event.
func (h *Hub) BroadcastEvent(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.Broadcast(event.Zone, payload)
	return nil
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Client represents a websocket connection. A client with no zone
// subscriptions receives everything.
type Client struct {
	Conn  *websocket.Conn
	Hub   *Hub
	Send  chan []byte
	mu    sync.RWMutex
	zones map[string]bool
}

// NewClient returns a client ready for registration.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}

// SetZones replaces the client's zone subscriptions. Each subscribe
// message starts over; zones are never merged across messages.
func (c *Client) SetZones(zones []string) {
	next := make(map[string]bool, len(zones))
	for _, zone := range zones {
		next[zone] = true
	}
	c.mu.Lock()
	c.zones = next
	c.mu.Unlock()
}

// WantsZone reports whether a broadcast for the given zone should reach
// this client.
func (c *Client) WantsZone(zone string) bool {
	if zone == "" {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.zones) == 0 {
		return true
	}
	return c.zones[zone]
}

// Zones returns the current subscription set.
func (c *Client) Zones() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	zones := make([]string, 0, len(c.zones))
	for zone := range c.zones {
		zones = append(zones, zone)
	}
	return zones
}
