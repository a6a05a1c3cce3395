// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// client is one open event stream, typically a browser tab.
type client struct {
	ch      chan string
	voterID string
}

// Hub fans events out to the open streams of each voter.
// A voter who opened a ballot in two tabs has two streams; a vote cast in
// one of them is announced to both.
type Hub struct {
	clients map[string][]client // stream group (session) -> clients
	voters  map[string][]string // voter -> stream groups
	mu      sync.RWMutex
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string][]client),
		voters:  make(map[string][]string),
	}
}

// Register adds a stream of voterID under group.
// Returns the channel to receive events on.
func (h *Hub) Register(group, voterID string) chan string {
	ch := make(chan string, 10) // buffered to prevent blocking

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[group] = append(h.clients[group], client{ch: ch, voterID: voterID})

	if !lo.Contains(h.voters[voterID], group) {
		h.voters[voterID] = append(h.voters[voterID], group)
	}

	return ch
}

// Unregister removes a stream and closes its channel.
func (h *Hub) Unregister(group, voterID string, ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[group] = lo.Filter(h.clients[group], func(c client, _ int) bool {
		return c.ch != ch
	})

	if len(h.clients[group]) == 0 {
		delete(h.clients, group)

		h.voters[voterID] = lo.Without(h.voters[voterID], group)
		if len(h.voters[voterID]) == 0 {
			delete(h.voters, voterID)
		}
	}

	close(ch)
}

// SendToGroup sends a message to all streams of a group.
func (h *Hub) SendToGroup(group, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.send(h.clients[group], message)
}

// SendToVoter sends a message to every open stream of a voter.
func (h *Hub) SendToVoter(voterID, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, group := range h.voters[voterID] {
		h.send(h.clients[group], message)
	}
}

// Publish sends data as a JSON encoded named event to a voter.
func (h *Hub) Publish(voterID, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode event", "event", event, "error", err)
		return
	}
	h.SendToVoter(voterID, FormatEvent(event, string(payload)))
}

// send must be called with at least a read lock held, so that Unregister
// cannot close a channel while it is written to.
func (h *Hub) send(clients []client, message string) {
	for _, c := range clients {
		select {
		case c.ch <- message:
		default:
			// Channel full, skip (prevents blocking)
		}
	}
}

// Stats is a snapshot of the open realtime streams.
type Stats struct {
	Streams int `json:"streams"`
	Tabs    int `json:"tabs"`
	Voters  int `json:"voters"`
}

// Stats returns the current stream counts.
func (h *Hub) Stats() Stats {
	return Stats{
		Streams: h.ClientCount(),
		Tabs:    h.GroupCount(),
		Voters:  h.VoterCount(),
	}
}

// ClientCount returns the total number of connected streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.SumBy(lo.Values(h.clients), func(clients []client) int {
		return len(clients)
	})
}

// GroupCount returns the number of stream groups with active connections.
func (h *Hub) GroupCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// VoterCount returns the number of voters with active connections.
func (h *Hub) VoterCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.voters)
}
