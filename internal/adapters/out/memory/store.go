// Package memory is an in-process implementation of the repository ports.
// A unit of work holds the store lock from Begin until Commit or Rollback and
// works on a private copy of the state, so transactions are serializable.
// Calls outside a transaction lock the store per call.
package memory

import (
	"maps"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/model/review"
)

type providerRow struct {
	provider *provider.Provider
	reserved int
}

type reservation struct {
	providerID kernel.UUID
	reservedAt time.Time
	released   bool
}

type state struct {
	orders        map[kernel.UUID]order.Snapshot
	history       map[kernel.UUID][]order.HistoryRecord
	providers     map[kernel.UUID]providerRow
	reservations  map[kernel.UUID]reservation
	reviews       map[kernel.UUID]*review.Review
	reviewByOrder map[kernel.UUID]kernel.UUID
	notifications map[kernel.UUID][]*notification.Request
}

func newState() *state {
	return &state{
		orders:        make(map[kernel.UUID]order.Snapshot),
		history:       make(map[kernel.UUID][]order.HistoryRecord),
		providers:     make(map[kernel.UUID]providerRow),
		reservations:  make(map[kernel.UUID]reservation),
		reviews:       make(map[kernel.UUID]*review.Review),
		reviewByOrder: make(map[kernel.UUID]kernel.UUID),
		notifications: make(map[kernel.UUID][]*notification.Request),
	}
}

// clone copies every map. Stored aggregates are immutable once written, so
// their pointers can be shared between copies.
func (s *state) clone() *state {
	c := &state{
		orders:        maps.Clone(s.orders),
		history:       make(map[kernel.UUID][]order.HistoryRecord, len(s.history)),
		providers:     maps.Clone(s.providers),
		reservations:  maps.Clone(s.reservations),
		reviews:       maps.Clone(s.reviews),
		reviewByOrder: maps.Clone(s.reviewByOrder),
		notifications: make(map[kernel.UUID][]*notification.Request, len(s.notifications)),
	}
	for id, h := range s.history {
		c.history[id] = append([]order.HistoryRecord(nil), h...)
	}
	for id, n := range s.notifications {
		c.notifications[id] = append([]*notification.Request(nil), n...)
	}
	return c
}

func (s *state) averageRating(providerID kernel.UUID) (float64, int) {
	var sum, count int
	for _, r := range s.reviews {
		if p := r.ProviderID(); p != nil && p.IsEqual(providerID) {
			sum += r.Rating()
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

// Store is the shared committed state.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}
