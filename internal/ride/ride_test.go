package ride

import (
	"context"
	"testing"
	"time"

	"github.com/ridezone/intakebot/internal/models"
	"github.com/ridezone/intakebot/internal/store"
)

func f64(v float64) *float64 { return &v }

func completeConversation() *models.Conversation {
	pickup := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	passengers := 2
	requests := "wheelchair"
	return &models.Conversation{
		ID:                   "conv-1",
		RiderID:              "rider-1",
		RideZoneID:           "zone-1",
		FromAddress:          "425 Main St",
		FromCity:             "Springfield",
		FromLatitude:         f64(39.8),
		FromLongitude:        f64(-89.65),
		ToAddress:            "456 Oak Ave",
		ToCity:               "Springfield",
		ToLatitude:           f64(39.9),
		ToLongitude:          f64(-89.7),
		PickupTime:           &pickup,
		AdditionalPassengers: &passengers,
		SpecialRequests:      &requests,
	}
}

func TestCreateFromConversation(t *testing.T) {
	st := store.NewInMemoryStore()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	c := NewCreator(st, WithNowFunc(func() time.Time { return now }))

	conv := completeConversation()
	rider := &models.Rider{ID: "rider-1", Name: "Ada Lovelace"}

	r, err := c.CreateFromConversation(context.Background(), conv, rider)
	if err != nil {
		t.Fatalf("CreateFromConversation failed: %v", err)
	}
	if r.ID == "" {
		t.Error("ride should get an id")
	}
	if r.Name != "Ada Lovelace" {
		t.Errorf("Name = %q", r.Name)
	}
	if r.FromLatitude != 39.8 || r.FromLongitude != -89.65 {
		t.Errorf("origin = (%v, %v)", r.FromLatitude, r.FromLongitude)
	}
	if r.ToLatitude == nil || *r.ToLatitude != 39.9 {
		t.Errorf("destination latitude = %v", r.ToLatitude)
	}
	if r.AdditionalPassengers != 2 {
		t.Errorf("passengers = %d", r.AdditionalPassengers)
	}
	if r.SpecialRequests != "wheelchair" {
		t.Errorf("special requests = %q", r.SpecialRequests)
	}
	if !r.CreatedAt.Equal(now) {
		t.Errorf("created at = %v, want %v", r.CreatedAt, now)
	}
}

func TestCreateFromConversationUnknownDestination(t *testing.T) {
	st := store.NewInMemoryStore()
	c := NewCreator(st)

	conv := completeConversation()
	conv.SetUnknownDestination()
	conv.ToCity = ""
	conv.ToLatitude = nil
	conv.ToLongitude = nil

	r, err := c.CreateFromConversation(context.Background(), conv, &models.Rider{ID: "rider-1"})
	if err != nil {
		t.Fatalf("CreateFromConversation failed: %v", err)
	}
	if !r.HasUnknownDestination() {
		t.Error("ride should carry the unknown destination sentinel")
	}
	if r.ToLatitude != nil || r.ToLongitude != nil {
		t.Error("unknown destination must have no coordinates")
	}
}

func TestCreateFromConversationMissingFields(t *testing.T) {
	st := store.NewInMemoryStore()
	c := NewCreator(st)
	rider := &models.Rider{ID: "rider-1"}

	conv := completeConversation()
	conv.FromLatitude = nil
	if _, err := c.CreateFromConversation(context.Background(), conv, rider); err == nil {
		t.Error("expected an error without origin coordinates")
	}

	conv = completeConversation()
	conv.PickupTime = nil
	if _, err := c.CreateFromConversation(context.Background(), conv, rider); err == nil {
		t.Error("expected an error without a pickup time")
	}

	conv = completeConversation()
	conv.AdditionalPassengers = nil
	if _, err := c.CreateFromConversation(context.Background(), conv, rider); err == nil {
		t.Error("expected an error without a passenger count")
	}
}
