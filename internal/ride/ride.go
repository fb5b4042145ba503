// Package ride materializes dispatchable bookings from completed
// conversations.
package ride

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ridezone/intakebot/internal/models"
	"github.com/ridezone/intakebot/internal/store"
)

// Opts holds configuration options for the ride creator.
type Opts struct {
	Now func() time.Time
}

// Option defines a configuration option for the ride creator.
type Option func(*Opts)

// WithNowFunc overrides the clock, mainly for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// Creator builds a Ride from a fully collected conversation and persists it.
type Creator struct {
	store store.Store
	now   func() time.Time
}

// NewCreator creates a store-backed ride creator.
func NewCreator(st store.Store, opts ...Option) *Creator {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Creator{store: st, now: cfg.Now}
}

// CreateFromConversation turns a conversation with all booking fields
// collected into a persisted Ride. A missing required field is an invariant
// violation: the dialogue engine only finalizes complete conversations.
func (c *Creator) CreateFromConversation(ctx context.Context, conv *models.Conversation, rider *models.Rider) (*models.Ride, error) {
	if conv.FromLatitude == nil || conv.FromLongitude == nil {
		return nil, fmt.Errorf("conversation %s has no origin coordinates", conv.ID)
	}
	if conv.PickupTime == nil {
		return nil, fmt.Errorf("conversation %s has no pickup time", conv.ID)
	}
	if conv.AdditionalPassengers == nil {
		return nil, fmt.Errorf("conversation %s has no passenger count", conv.ID)
	}

	r := &models.Ride{
		ID:                   uuid.NewString(),
		RiderID:              conv.RiderID,
		RideZoneID:           conv.RideZoneID,
		ConversationID:       conv.ID,
		Name:                 rider.Name,
		PickupAt:             *conv.PickupTime,
		FromAddress:          conv.FromAddress,
		FromCity:             conv.FromCity,
		FromLatitude:         *conv.FromLatitude,
		FromLongitude:        *conv.FromLongitude,
		ToAddress:            conv.ToAddress,
		ToCity:               conv.ToCity,
		ToLatitude:           conv.ToLatitude,
		ToLongitude:          conv.ToLongitude,
		AdditionalPassengers: *conv.AdditionalPassengers,
		CreatedAt:            c.now(),
	}
	if conv.SpecialRequests != nil {
		r.SpecialRequests = *conv.SpecialRequests
	}

	if err := c.store.SaveRide(r); err != nil {
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}
	slog.Info("Ride created from conversation", "ride_id", r.ID, "conversation_id", conv.ID)
	return r, nil
}
