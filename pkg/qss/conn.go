package qss

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps one client websocket connection: its own topic subscription
// set and a write mutex, since gorilla/websocket forbids concurrent writers
// on the same connection but request handlers and the notification router
// may both want to send to it at once.
type Conn struct {
	id string
	ws *websocket.Conn

	writeMu sync.Mutex

	topicsMu sync.RWMutex
	topics   map[string]struct{}
}

func newConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{id: id, ws: ws, topics: make(map[string]struct{})}
}

func (c *Conn) subscribe(topic string) {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	c.topics[topic] = struct{}{}
}

func (c *Conn) unsubscribe(topic string) {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	delete(c.topics, topic)
}

func (c *Conn) subscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

func (c *Conn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Conn) close(reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	_ = c.ws.WriteMessage(websocket.CloseMessage, msg)
	return c.ws.Close()
}
