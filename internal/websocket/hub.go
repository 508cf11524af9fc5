// Package websocket maintains the live progress connections. Clients join a
// per-run room and receive every progress event for that run until it ends
// or the stream's wall-clock budget expires.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ameyrk/gutengo/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// HeartbeatPeriod is how often a heartbeat event goes to a run's room
	// while the run is non-terminal.
	HeartbeatPeriod = 15 * time.Second

	// StreamTTL bounds one connection's lifetime. The client receives a
	// reconnect event and is expected to re-attach by run ID.
	StreamTTL = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Subscriber is the progress tracker surface the hub feeds from.
type Subscriber interface {
	Subscribe(runID string) (chan models.ProgressEvent, bool)
	Unsubscribe(runID string, ch chan models.ProgressEvent)
}

// Client is a single websocket connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	runID string
}

type runMessage struct {
	runID   string
	payload []byte
}

// Hub routes messages to connected clients. Clients with a run ID form that
// run's room; broadcast reaches everyone regardless of room.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	publish    chan runMessage

	feedMu sync.Mutex
	feeds  map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		publish:    make(chan runMessage, 64),
		feeds:      make(map[string]bool),
	}
}

// Run processes registrations and message routing. Call it once, on its own
// goroutine, before serving connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		case msg := <-h.publish:
			for client := range h.clients {
				if client.runID != msg.runID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// BroadcastJSON sends v to every connected client.
func (h *Hub) BroadcastJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket: marshal broadcast: %v", err)
		return
	}
	h.broadcast <- payload
}

// PublishRun sends an event to every client in the run's room.
func (h *Hub) PublishRun(runID string, event models.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket: marshal event for run %s: %v", runID, err)
		return
	}
	h.publish <- runMessage{runID: runID, payload: payload}
}

// ServeRun upgrades the request to a websocket, joins the run's room, and
// makes sure a tracker feed is pumping events into it. The connection
// receives a connected event first, then progress events until the run ends
// or the stream TTL forces a reconnect.
func (h *Hub) ServeRun(w http.ResponseWriter, r *http.Request, runID string, tracker Subscriber) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 32),
		runID: runID,
	}
	h.register <- client

	connected, _ := json.Marshal(models.ProgressEvent{Event: "connected", RunID: runID})
	client.send <- connected

	go client.writePump()
	go client.readPump()

	// Every joining client gets the run's current state right away, not just
	// the next update. Subscribing delivers the snapshot as the first event.
	events, ok := tracker.Subscribe(runID)
	if !ok {
		// Run already reaped.
		failed, _ := json.Marshal(models.ProgressEvent{
			Event:   "failed",
			RunID:   runID,
			Message: "unknown run",
		})
		client.send <- failed
		return
	}
	snapshot := <-events
	tracker.Unsubscribe(runID, events)
	if payload, err := json.Marshal(snapshot); err == nil {
		client.send <- payload
	}

	switch snapshot.Event {
	case "completed", "failed", "cancelled":
		// Terminal runs need no live feed; the snapshot said everything.
		return
	}

	h.ensureFeed(runID, tracker)
}

// ensureFeed starts at most one forwarding goroutine per run. The feed
// subscribes to the tracker and republishes into the room, with heartbeats
// while the run is live, and shuts down on the terminal event.
func (h *Hub) ensureFeed(runID string, tracker Subscriber) {
	h.feedMu.Lock()
	defer h.feedMu.Unlock()
	if h.feeds[runID] {
		return
	}

	events, ok := tracker.Subscribe(runID)
	if !ok {
		// Run already reaped; tell the room and stop.
		h.PublishRun(runID, models.ProgressEvent{
			Event:   "failed",
			RunID:   runID,
			Message: "unknown run",
		})
		return
	}
	h.feeds[runID] = true

	// Joining clients already got the current state directly in ServeRun, so
	// the subscription's own snapshot is not republished. A terminal snapshot
	// still goes to the room: it means the run ended before the feed attached
	// and no further event will ever arrive.
	select {
	case snapshot := <-events:
		switch snapshot.Event {
		case "completed", "failed", "cancelled":
			h.PublishRun(runID, snapshot)
			tracker.Unsubscribe(runID, events)
			delete(h.feeds, runID)
			return
		}
	default:
	}

	go func() {
		defer func() {
			tracker.Unsubscribe(runID, events)
			h.feedMu.Lock()
			delete(h.feeds, runID)
			h.feedMu.Unlock()
		}()

		heartbeat := time.NewTicker(HeartbeatPeriod)
		defer heartbeat.Stop()

		for {
			select {
			case event, open := <-events:
				if !open {
					return
				}
				h.PublishRun(runID, event)
				switch event.Event {
				case "completed", "failed", "cancelled":
					return
				}
			case <-heartbeat.C:
				h.PublishRun(runID, models.ProgressEvent{Event: "heartbeat", RunID: runID})
			}
		}
	}()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	ttl := time.NewTimer(StreamTTL)
	defer func() {
		ping.Stop()
		ttl.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ttl.C:
			reconnect, _ := json.Marshal(models.ProgressEvent{Event: "reconnect", RunID: c.runID})
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.TextMessage, reconnect)
			return
		}
	}
}
