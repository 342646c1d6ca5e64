package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/logger"
)

// Source builds the display snapshot of a loaded player.
type Source interface {
	Scoreboard(ctx context.Context, id domain.Identity) (*domain.Scoreboard, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, id domain.Identity) (*domain.Scoreboard, error)

func (f SourceFunc) Scoreboard(ctx context.Context, id domain.Identity) (*domain.Scoreboard, error) {
	return f(ctx, id)
}

// Hub fans scoreboard snapshots out to websocket subscribers. Change marks
// coalesce per player; at most one snapshot per player is pushed per tick.
type Hub struct {
	source   Source
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	subs    map[domain.Identity]map[*Client]struct{}
	pending map[domain.Identity]struct{}
}

func NewHub(source Source, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Hub{
		source:   source,
		interval: interval,
		log:      logger.With("component", "scoreboard"),
		subs:     make(map[domain.Identity]map[*Client]struct{}),
		pending:  make(map[domain.Identity]struct{}),
	}
}

// MarkDirty schedules a push for id. Unwatched players cost one map lookup.
func (h *Hub) MarkDirty(id domain.Identity) {
	h.mu.Lock()
	if _, watched := h.subs[id]; !watched {
		h.mu.Unlock()
		return
	}
	h.pending[id] = struct{}{}
	h.mu.Unlock()
}

// Run pushes pending snapshots once per tick, so a burst of marks becomes
// one push, until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.pushPending(ctx)
		}
	}
}

func (h *Hub) pushPending(ctx context.Context) {
	h.mu.Lock()
	if len(h.pending) == 0 {
		h.mu.Unlock()
		return
	}
	ids := make([]domain.Identity, 0, len(h.pending))
	for id := range h.pending {
		ids = append(ids, id)
	}
	h.pending = make(map[domain.Identity]struct{})
	h.mu.Unlock()

	for _, id := range ids {
		h.push(ctx, id)
	}
}

// push sends the current snapshot of id to its subscribers.
func (h *Hub) push(ctx context.Context, id domain.Identity) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var msg []byte
	sb, err := h.source.Scoreboard(ctx, id)
	switch {
	case err == nil:
		msg = encode(MsgScoreboard, sb)
	case errors.Is(err, domain.ErrPlayerNotLoaded):
		msg = encode(MsgOffline, OfflinePayload{UUID: id})
	default:
		h.log.Warn("scoreboard snapshot failed", "player", id, "error", err)
		return
	}
	h.broadcast(id, msg)
}

func (h *Hub) broadcast(id domain.Identity, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[id] {
		select {
		case c.Send <- msg:
		default:
			// slow reader
			h.log.Warn("scoreboard client too slow, dropping", "player", id, "subject", c.Subject)
			h.removeLocked(c)
		}
	}
}

// reply sends msg to c alone if it is still subscribed.
func (h *Hub) reply(c *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[c.PlayerID][c]; !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// Subscribe registers c and queues an initial snapshot for it.
func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	set := h.subs[c.PlayerID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.subs[c.PlayerID] = set
	}
	set[c] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	h.log.Debug("scoreboard subscribed", "player", c.PlayerID, "subject", c.Subject, "watchers", n)
	h.MarkDirty(c.PlayerID)
}

// OnDisconnect forgets c. Safe to call more than once.
func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.subs[c.PlayerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.subs, c.PlayerID)
		delete(h.pending, c.PlayerID)
	}
}

// Watchers counts subscribers of id.
func (h *Hub) Watchers(id domain.Identity) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for c := range set {
			h.removeLocked(c)
		}
	}
}
