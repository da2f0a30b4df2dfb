package weir

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Feed is an optional, embeddable fan-out of the Result stream to
// subscriber WebSocket connections, for a driver that wants a live
// dashboard without the core knowing anything about HTTP routing or
// rendering. Adapted from the teacher's WebSocket peer wrapper: same
// connection-oriented write/close shape, generalized from one peer to a
// broadcast registry.
type Feed struct {
	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{subscribers: make(map[*websocket.Conn]struct{})}
}

// Subscribe registers conn to receive every future Publish call's payload,
// until the connection errors or Unsubscribe is called.
func (f *Feed) Subscribe(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[conn] = struct{}{}
}

// Unsubscribe removes conn from the broadcast registry and closes it.
func (f *Feed) Unsubscribe(conn *websocket.Conn) error {
	f.mu.Lock()
	delete(f.subscribers, conn)
	f.mu.Unlock()
	return conn.Close()
}

// Publish serializes result as JSON and writes it to every live
// subscriber. A subscriber whose write fails is dropped from the registry;
// Publish never surfaces a per-subscriber error, since one dead dashboard
// connection should not interrupt a run.
func (f *Feed) Publish(result Result) {
	payload, err := json.Marshal(feedEvent{
		URI:    result.Request.URI.String(),
		Source: result.Request.Source,
		Status: result.Status.String(),
	})
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.subscribers {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(f.subscribers, conn)
			conn.Close()
		}
	}
}

// Close disconnects every current subscriber.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.subscribers {
		conn.Close()
		delete(f.subscribers, conn)
	}
	return nil
}

// feedEvent is the wire shape one Publish call sends to subscribers.
type feedEvent struct {
	URI    string `json:"uri"`
	Source string `json:"source"`
	Status string `json:"status"`
}
