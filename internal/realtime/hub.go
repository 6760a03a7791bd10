// Package realtime fans committed changes out to whoever is watching an
// owner's data: in-process subscribers, other server instances through Redis,
// and browsers through Server-Sent Events.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindInsert  Kind = "insert"
	KindUpdate  Kind = "update"
	KindDelete  Kind = "delete"
	KindRefresh Kind = "refresh" // re-read the whole table
)

const (
	TableCustomers = "customers"
	TableSales     = "transactions"
	TableTrays     = "tray_transactions"
	TableFruits    = "fruits"
)

// Broadcast as an event's OwnerID reaches every subscriber. The fruit catalog
// is shared by all users, so its changes go out this way.
const Broadcast = ""

type Event struct {
	Table    string    `json:"table"`
	Kind     Kind      `json:"kind"`
	OwnerID  string    `json:"owner_id,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher is what writers depend on. Publish never blocks on slow readers
// and never fails the caller: the change is already committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Forwarder carries an event beyond this process.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

const subscriberBuffer = 64

type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[uint64]chan Event
	nextID  uint64
	forward Forwarder
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[uint64]chan Event),
		log:  log,
	}
}

// SetForwarder attaches a cross-instance transport. Must be called before serving.
func (h *Hub) SetForwarder(f Forwarder) {
	h.mu.Lock()
	h.forward = f
	h.mu.Unlock()
}

// Subscribe registers interest in ownerID's changes. The returned cancel
// removes the subscription and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(ownerID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[uint64]chan Event)
	}
	h.subs[ownerID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if owned, ok := h.subs[ownerID]; ok {
				delete(owned, id)
				if len(owned) == 0 {
					delete(h.subs, ownerID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers locally and hands the event to the forwarder, if any.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.Deliver(ev)

	h.mu.RLock()
	fwd := h.forward
	h.mu.RUnlock()
	if fwd == nil {
		return
	}
	if err := fwd.Forward(ctx, ev); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"table": ev.Table,
			"kind":  ev.Kind,
		}).Warn("could not forward change event")
	}
}

// Deliver hands ev to local subscribers only. A subscriber whose buffer is
// full misses the event.
func (h *Hub) Deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ev.OwnerID != Broadcast {
		h.send(ev.OwnerID, h.subs[ev.OwnerID], ev)
		return
	}
	for owner, subs := range h.subs {
		h.send(owner, subs, ev)
	}
}

func (h *Hub) send(owner string, subs map[uint64]chan Event, ev Event) {
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			h.log.WithField("owner_id", owner).Warn("subscriber buffer full, dropping change event")
		}
	}
}

// Subscribers reports how many local subscriptions ownerID has.
func (h *Hub) Subscribers(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ownerID])
}

var _ Publisher = (*Hub)(nil)
