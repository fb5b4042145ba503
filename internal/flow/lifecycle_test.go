package flow

import (
	"testing"
	"time"

	"github.com/ridezone/intakebot/internal/models"
)

func f64(v float64) *float64 { return &v }

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// fullConversation returns a conversation with every booking field collected.
func fullConversation() *models.Conversation {
	return &models.Conversation{
		ID:                   "conv-1",
		Status:               models.StatusInProgress,
		FromAddress:          "123 Main St",
		FromCity:             "Springfield",
		FromLatitude:         f64(39.8),
		FromLongitude:        f64(-89.65),
		FromConfirmed:        true,
		ToAddress:            "456 Oak Ave",
		ToCity:               "Springfield",
		ToLatitude:           f64(39.9),
		ToLongitude:          f64(-89.7),
		ToConfirmed:          true,
		PickupTime:           timePtr(time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)),
		TimeConfirmed:        true,
		AdditionalPassengers: intPtr(1),
		SpecialRequests:      strPtr("none"),
	}
}

func knownRider() models.RiderContext {
	return models.RiderContext{Locale: models.LocaleEnglish, Name: "Ada Lovelace"}
}

func TestStageForPriorityOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *models.Conversation, rc *models.RiderContext)
		want   models.Stage
	}{
		{
			"no locale wins over everything",
			func(c *models.Conversation, rc *models.RiderContext) { rc.Locale = models.LocaleUnknown },
			models.StageCreated,
		},
		{
			"no name",
			func(c *models.Conversation, rc *models.RiderContext) { rc.Name = "" },
			models.StageHaveLanguage,
		},
		{
			"platform name does not count",
			func(c *models.Conversation, rc *models.RiderContext) { rc.HasSMSName = true },
			models.StageHaveLanguage,
		},
		{
			"no origin coordinates",
			func(c *models.Conversation, rc *models.RiderContext) {
				c.FromLatitude = nil
				c.FromLongitude = nil
			},
			models.StageHaveName,
		},
		{
			"origin unconfirmed",
			func(c *models.Conversation, rc *models.RiderContext) { c.FromConfirmed = false },
			models.StageHaveOrigin,
		},
		{
			"no destination coordinates",
			func(c *models.Conversation, rc *models.RiderContext) {
				c.ToAddress = ""
				c.ToLatitude = nil
				c.ToLongitude = nil
				c.ToConfirmed = false
			},
			models.StageHaveConfirmedOrigin,
		},
		{
			"destination unconfirmed",
			func(c *models.Conversation, rc *models.RiderContext) { c.ToConfirmed = false },
			models.StageHaveDestination,
		},
		{
			"no pickup time",
			func(c *models.Conversation, rc *models.RiderContext) { c.PickupTime = nil },
			models.StageHaveConfirmedDest,
		},
		{
			"time unconfirmed",
			func(c *models.Conversation, rc *models.RiderContext) { c.TimeConfirmed = false },
			models.StageHaveTime,
		},
		{
			"no passenger count",
			func(c *models.Conversation, rc *models.RiderContext) { c.AdditionalPassengers = nil },
			models.StageHaveConfirmedTime,
		},
		{
			"no special requests",
			func(c *models.Conversation, rc *models.RiderContext) { c.SpecialRequests = nil },
			models.StageHavePassengers,
		},
		{
			"everything collected",
			func(c *models.Conversation, rc *models.RiderContext) {},
			models.StageInfoComplete,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv := fullConversation()
			rc := knownRider()
			tc.mutate(conv, &rc)
			if got := StageFor(conv, rc); got != tc.want {
				t.Errorf("StageFor = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStageForIsDeterministic(t *testing.T) {
	conv := fullConversation()
	conv.TimeConfirmed = false
	rc := knownRider()

	first := StageFor(conv, rc)
	for i := 0; i < 5; i++ {
		if got := StageFor(conv, rc); got != first {
			t.Fatalf("StageFor changed between calls: %s then %s", first, got)
		}
	}
}

func TestStageForPriorRideOffer(t *testing.T) {
	conv := fullConversation()
	conv.FromLatitude = nil
	conv.FromLongitude = nil
	rc := knownRider()
	rc.RecentRide = &models.Ride{
		FromAddress: "123 Main St",
		ToAddress:   "456 Oak Ave",
	}

	if got := StageFor(conv, rc); got != models.StageHavePriorRide {
		t.Errorf("StageFor = %s, want %s", got, models.StageHavePriorRide)
	}

	// Declining the offer suppresses it for the rest of the conversation.
	conv.IgnorePriorRide = true
	if got := StageFor(conv, rc); got != models.StageHaveName {
		t.Errorf("StageFor after decline = %s, want %s", got, models.StageHaveName)
	}
}

func TestStageForPriorRideWithUnknownDestinationNotOffered(t *testing.T) {
	conv := fullConversation()
	conv.FromLatitude = nil
	conv.FromLongitude = nil
	rc := knownRider()
	rc.RecentRide = &models.Ride{
		FromAddress: "123 Main St",
		ToAddress:   models.UnknownDestinationAddress,
	}

	if got := StageFor(conv, rc); got != models.StageHaveName {
		t.Errorf("StageFor = %s, want %s", got, models.StageHaveName)
	}
}

func TestStageForUnknownDestinationSkipsToTime(t *testing.T) {
	conv := fullConversation()
	conv.SetUnknownDestination()
	conv.ToLatitude = nil
	conv.ToLongitude = nil
	conv.PickupTime = nil
	conv.TimeConfirmed = false
	rc := knownRider()

	if got := StageFor(conv, rc); got != models.StageHaveConfirmedDest {
		t.Errorf("StageFor = %s, want %s", got, models.StageHaveConfirmedDest)
	}

	// Once the time is in and confirmed the flow moves on to passengers.
	conv.PickupTime = timePtr(time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC))
	conv.TimeConfirmed = true
	conv.AdditionalPassengers = nil
	if got := StageFor(conv, rc); got != models.StageHaveConfirmedTime {
		t.Errorf("StageFor = %s, want %s", got, models.StageHaveConfirmedTime)
	}
}
