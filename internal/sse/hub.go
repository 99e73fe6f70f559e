package sse

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DoneMessage is the last message of every job stream.
const DoneMessage = "[DONE]"

const cleanupInterval = 5 * time.Minute

// Hub fans out the messages of background review jobs to SSE clients
type Hub struct {
	mu      sync.RWMutex
	streams map[string]*stream
}

// stream holds the clients and the full message log of one job. Clients read
// the log through their own cursor, so a slow reader never loses messages.
type stream struct {
	mu      sync.Mutex
	clients []*Client
	buffer  []string
	done    bool
}

// Client reads one job's messages from its cursor onwards.
type Client struct {
	s      *stream
	next   int
	notify chan struct{}
}

func NewHub() *Hub {
	return &Hub{streams: make(map[string]*stream)}
}

// Run removes finished streams nobody listens to until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.cleanup()
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.streams {
		s.mu.Lock()
		idle := s.done && len(s.clients) == 0
		s.mu.Unlock()

		if idle {
			delete(h.streams, id)
		}
	}
}

// NewJob registers a stream under a fresh id and returns the id.
func (h *Hub) NewJob() string {
	id := uuid.NewString()
	h.mu.Lock()
	h.streams[id] = &stream{}
	h.mu.Unlock()
	return id
}

func (h *Hub) lookup(id string) (*stream, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.streams[id]
	return s, ok
}

// AddClient attaches a client positioned at the start of the stream, so it
// sees everything sent so far. It returns nil when no such stream exists.
func (h *Hub) AddClient(id string) *Client {
	s, ok := h.lookup(id)
	if !ok {
		return nil
	}

	client := &Client{s: s, notify: make(chan struct{}, 1)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append(s.clients, client)
	if len(s.buffer) > 0 {
		client.notify <- struct{}{}
	}
	return client
}

func (h *Hub) RemoveClient(id string, client *Client) {
	s, ok := h.lookup(id)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c == client {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return
		}
	}
}

// Send appends msg to the stream and wakes every client. Messages after
// DoneMessage are dropped.
func (h *Hub) Send(id, msg string) {
	s, ok := h.lookup(id)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}

	s.buffer = append(s.buffer, msg)
	if msg == DoneMessage {
		s.done = true
	}

	for _, client := range s.clients {
		select {
		case client.notify <- struct{}{}:
		default:
			// already signalled; the pending wake-up covers this message
		}
	}
}

// Ready fires when messages past the cursor may be available.
func (c *Client) Ready() <-chan struct{} {
	return c.notify
}

// Drain returns every message past the cursor and advances it.
func (c *Client) Drain() []string {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if c.next >= len(c.s.buffer) {
		return nil
	}
	msgs := append([]string(nil), c.s.buffer[c.next:]...)
	c.next = len(c.s.buffer)
	return msgs
}
