package events

import (
	"sync"

	"blueberry/core/types"
)

const defaultBacklog = 1024

// attributeEvent is implemented by event types that can render themselves into
// the generic attribute form carried over RPC and WebSocket streams.
type attributeEvent interface {
	Event() *types.Event
}

// Journal persists emitted records under a sequence index so replay survives
// restarts. It is satisfied by the state manager.
type Journal interface {
	AppendEvent(sequence uint64, evt *types.Event) error
	EventsSince(cursor uint64) ([]Record, error)
	LatestEventSequence() (uint64, error)
}

// Hub fans emitted events out to subscribers while retaining a bounded
// in-memory backlog for replay. Sequence numbers are monotonically increasing
// and start at 1. When a journal is attached, every record is also appended
// to it and subscriptions replay from the journal, so cursors stay valid
// across restarts.
type Hub struct {
	mu      sync.Mutex
	next    uint64
	backlog []Record
	max     int
	subs    map[int]chan Record
	nextSub int
	journal Journal
}

// NewHub constructs a hub retaining up to backlog records for replay. A
// non-positive backlog falls back to the default of 1024 records.
func NewHub(backlog int) *Hub {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &Hub{
		next: 1,
		max:  backlog,
		subs: make(map[int]chan Record),
	}
}

// NewJournaledHub constructs a hub that appends every record to the journal
// and resumes sequence numbering after the journal's latest entry.
func NewJournaledHub(journal Journal, backlog int) (*Hub, error) {
	hub := NewHub(backlog)
	hub.journal = journal
	head, err := journal.LatestEventSequence()
	if err != nil {
		return nil, err
	}
	hub.next = head + 1
	return hub, nil
}

// Emit implements the Emitter interface. Events that cannot render attributes
// are wrapped with an empty attribute map so the stream stays uniform.
func (h *Hub) Emit(evt Event) {
	if h == nil || evt == nil {
		return
	}
	rendered := &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
	if attr, ok := evt.(attributeEvent); ok {
		if full := attr.Event(); full != nil {
			rendered = full
		}
	}
	h.mu.Lock()
	record := Record{Sequence: h.next, Event: rendered}
	h.next++
	if h.journal != nil {
		// Best effort: a failed append keeps the in-memory backlog serving
		// live subscribers, it only shortens what a restart can replay.
		_ = h.journal.AppendEvent(record.Sequence, rendered)
	}
	h.backlog = append(h.backlog, record)
	if len(h.backlog) > h.max {
		h.backlog = h.backlog[len(h.backlog)-h.max:]
	}
	for _, sub := range h.subs {
		select {
		case sub <- record:
		default:
			// Slow subscribers drop records rather than block state
			// transitions; they can re-sync from the backlog cursor.
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a listener resuming after the provided sequence cursor
// (0 replays the whole retained history). Replay comes from the journal when
// one is attached, otherwise from the bounded in-memory backlog. The returned
// cancel function must be called to release the subscription.
func (h *Hub) Subscribe(cursor uint64) (<-chan Record, func(), []Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var replay []Record
	if h.journal != nil {
		if journaled, err := h.journal.EventsSince(cursor); err == nil {
			replay = journaled
		}
	}
	if replay == nil {
		for _, record := range h.backlog {
			if record.Sequence > cursor {
				replay = append(replay, record)
			}
		}
	}
	ch := make(chan Record, 64)
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
		h.mu.Unlock()
	}
	return ch, cancel, replay
}
