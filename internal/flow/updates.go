package flow

import (
	"time"

	"github.com/ridezone/intakebot/internal/models"
)

// EndpointUpdate sets or clears one ride endpoint. Clear wipes the
// coordinates and confirmation flag together so a declined address never
// leaks into a later geocoding round.
type EndpointUpdate struct {
	Clear     bool
	Address   string
	City      string
	Latitude  float64
	Longitude float64
	Confirmed bool
}

// TimeUpdate sets or clears the requested pickup time.
type TimeUpdate struct {
	Clear bool
	At    time.Time
}

// Updates is the field delta a stage handler returns. Handlers never mutate
// the conversation or rider themselves; the bot applies the delta in one
// place so the write path stays auditable.
type Updates struct {
	RiderLocale *models.Locale
	RiderName   *string

	IgnorePriorRide bool

	Origin               *EndpointUpdate
	Destination          *EndpointUpdate
	OriginConfirmed      *bool
	DestinationConfirmed *bool
	UnknownDestination   bool

	PickupTime    *TimeUpdate
	TimeConfirmed *bool

	Passengers      *int
	SpecialRequests *string

	Status *models.Status
}

// Apply writes the delta onto the conversation and rider records.
func (u Updates) Apply(conv *models.Conversation, rider *models.Rider, now time.Time) {
	if u.RiderLocale != nil {
		rider.Locale = *u.RiderLocale
		rider.UpdatedAt = now
	}
	if u.RiderName != nil {
		rider.Name = *u.RiderName
		rider.HasSMSName = false
		rider.UpdatedAt = now
	}

	if u.IgnorePriorRide {
		conv.IgnorePriorRide = true
	}

	if u.Origin != nil {
		if u.Origin.Clear {
			conv.FromLatitude = nil
			conv.FromLongitude = nil
			conv.FromConfirmed = false
		} else {
			lat, lon := u.Origin.Latitude, u.Origin.Longitude
			conv.FromAddress = u.Origin.Address
			conv.FromCity = u.Origin.City
			conv.FromLatitude = &lat
			conv.FromLongitude = &lon
			conv.FromConfirmed = u.Origin.Confirmed
		}
	}
	if u.Destination != nil {
		if u.Destination.Clear {
			conv.ToLatitude = nil
			conv.ToLongitude = nil
			conv.ToConfirmed = false
		} else {
			lat, lon := u.Destination.Latitude, u.Destination.Longitude
			conv.ToAddress = u.Destination.Address
			conv.ToCity = u.Destination.City
			conv.ToLatitude = &lat
			conv.ToLongitude = &lon
			conv.ToConfirmed = u.Destination.Confirmed
		}
	}
	if u.OriginConfirmed != nil {
		conv.FromConfirmed = *u.OriginConfirmed
	}
	if u.DestinationConfirmed != nil {
		conv.ToConfirmed = *u.DestinationConfirmed
	}
	if u.UnknownDestination {
		conv.SetUnknownDestination()
	}

	if u.PickupTime != nil {
		if u.PickupTime.Clear {
			conv.PickupTime = nil
		} else {
			at := u.PickupTime.At
			conv.PickupTime = &at
		}
	}
	if u.TimeConfirmed != nil {
		conv.TimeConfirmed = *u.TimeConfirmed
	}

	if u.Passengers != nil {
		n := *u.Passengers
		conv.AdditionalPassengers = &n
	}
	if u.SpecialRequests != nil {
		s := *u.SpecialRequests
		conv.SpecialRequests = &s
	}

	if u.Status != nil && *u.Status != conv.Status {
		conv.Status = *u.Status
		conv.StatusUpdatedAt = now
	}
}
