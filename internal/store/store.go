// Package store provides storage backends for the ride intake service.
//
// It includes an in-memory store for tests, an SQLite store for single-node
// deployments, and a Postgres store for shared deployments.
package store

import (
	"sort"
	"sync"

	"github.com/ridezone/intakebot/internal/models"
)

// Store is the persistence boundary for riders, zones, conversations,
// rides, and the message log. Lookups return (nil, nil) when the record
// does not exist.
type Store interface {
	GetRiderByPhone(phone string) (*models.Rider, error)
	SaveRider(r *models.Rider) error

	GetRideZone(id string) (*models.RideZone, error)
	GetRideZoneByPhone(phone string) (*models.RideZone, error)
	SaveRideZone(z *models.RideZone) error

	GetConversation(id string) (*models.Conversation, error)
	// GetActiveConversation returns the rider's newest non-closed
	// conversation in a zone, if any. At most one is expected per rider;
	// escalated and ride-created conversations still count so that a
	// follow-up text does not silently open a fresh exchange.
	GetActiveConversation(riderID, rideZoneID string) (*models.Conversation, error)
	SaveConversation(c *models.Conversation) error
	ListConversations(rideZoneID string) ([]models.Conversation, error)

	SaveRide(r *models.Ride) error
	// RecentCompleteRide returns the rider's most recent completed ride,
	// used to offer a repeat of the prior route.
	RecentCompleteRide(riderID string) (*models.Ride, error)

	AddMessage(m *models.Message) error
	ListMessages(conversationID string) ([]models.Message, error)

	Close() error
}

// Opts holds configuration options for persistent store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore is a mutex-guarded map-backed store used in tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	riders        map[string]models.Rider
	zones         map[string]models.RideZone
	conversations map[string]models.Conversation
	rides         map[string]models.Ride
	messages      []models.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		riders:        make(map[string]models.Rider),
		zones:         make(map[string]models.RideZone),
		conversations: make(map[string]models.Conversation),
		rides:         make(map[string]models.Ride),
	}
}

func (s *InMemoryStore) GetRiderByPhone(phone string) (*models.Rider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.riders {
		if r.PhoneNumber == phone {
			rc := r
			return &rc, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) SaveRider(r *models.Rider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.riders[r.ID] = *r
	return nil
}

func (s *InMemoryStore) GetRideZone(id string) (*models.RideZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if z, ok := s.zones[id]; ok {
		zc := z
		return &zc, nil
	}
	return nil, nil
}

func (s *InMemoryStore) GetRideZoneByPhone(phone string) (*models.RideZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, z := range s.zones {
		if z.PhoneNumber == phone {
			zc := z
			return &zc, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) SaveRideZone(z *models.RideZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[z.ID] = *z
	return nil
}

func (s *InMemoryStore) GetConversation(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.conversations[id]; ok {
		cc := c
		return &cc, nil
	}
	return nil, nil
}

func (s *InMemoryStore) GetActiveConversation(riderID, rideZoneID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.Conversation
	for _, c := range s.conversations {
		if c.RiderID != riderID || c.RideZoneID != rideZoneID || c.Status == models.StatusClosed {
			continue
		}
		cc := c
		if newest == nil || cc.CreatedAt.After(newest.CreatedAt) {
			newest = &cc
		}
	}
	return newest, nil
}

func (s *InMemoryStore) SaveConversation(c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = *c
	return nil
}

func (s *InMemoryStore) ListConversations(rideZoneID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Conversation
	for _, c := range s.conversations {
		if c.RideZoneID == rideZoneID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) SaveRide(r *models.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[r.ID] = *r
	return nil
}

func (s *InMemoryStore) RecentCompleteRide(riderID string) (*models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.Ride
	for _, r := range s.rides {
		if r.RiderID != riderID || !r.Complete {
			continue
		}
		rc := r
		if newest == nil || rc.CreatedAt.After(newest.CreatedAt) {
			newest = &rc
		}
	}
	return newest, nil
}

func (s *InMemoryStore) AddMessage(m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *InMemoryStore) ListMessages(conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
