// Package models defines the core data structures for the ride intake bot.
//
// It includes the conversation record that carries collected booking fields,
// the rider profile, ride zones, materialized rides, and the message log
// shared across modules.
package models

import (
	"errors"
	"time"
)

// Locale identifies a supported message locale.
type Locale string

const (
	// LocaleUnknown means the rider has not chosen a language yet.
	LocaleUnknown Locale = ""
	// LocaleEnglish routes templates to English.
	LocaleEnglish Locale = "en"
	// LocaleSpanish routes templates to Spanish.
	LocaleSpanish Locale = "es"
)

// Status represents the operational state of a conversation.
type Status string

const (
	// StatusSMSCreated marks a conversation opened by an inbound text from the rider.
	StatusSMSCreated Status = "sms_created"
	// StatusInProgress marks a conversation actively collecting booking data.
	StatusInProgress Status = "in_progress"
	// StatusRideCreated marks a conversation whose booking has been materialized.
	StatusRideCreated Status = "ride_created"
	// StatusClosed marks a conversation closed by staff.
	StatusClosed Status = "closed"
	// StatusHelpNeeded marks a conversation escalated to a human.
	StatusHelpNeeded Status = "help_needed"
)

// IsValidStatus checks if the given conversation status is supported.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusSMSCreated, StatusInProgress, StatusRideCreated, StatusClosed, StatusHelpNeeded:
		return true
	default:
		return false
	}
}

// Stage represents the currently-missing-information checkpoint of a
// conversation. It is always derived from the collected fields, never stored.
type Stage string

const (
	StageCreated             Stage = "created"
	StageHaveLanguage        Stage = "have_language"
	StageHavePriorRide       Stage = "have_prior_ride"
	StageHaveName            Stage = "have_name"
	StageHaveOrigin          Stage = "have_origin"
	StageHaveConfirmedOrigin Stage = "have_confirmed_origin"
	StageHaveDestination     Stage = "have_destination"
	StageHaveConfirmedDest   Stage = "have_confirmed_destination"
	StageHaveTime            Stage = "have_time"
	StageHaveConfirmedTime   Stage = "have_confirmed_time"
	StageHavePassengers      Stage = "have_passengers"
	StageInfoComplete        Stage = "info_complete"
)

// UnknownDestinationAddress is the sentinel stored as the destination address
// when the rider does not know where they are going. A conversation with this
// destination is treated as destination-confirmed.
const UnknownDestinationAddress = "Unknown"

// Sentinel errors shared across modules.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrRiderNotFound        = errors.New("rider not found")
	ErrRideZoneNotFound     = errors.New("ride zone not found")
	ErrRideNotFound         = errors.New("ride not found")
	ErrNoHandlerForStage    = errors.New("no handler registered for lifecycle stage")
	ErrConversationFinished = errors.New("conversation is no longer processed by the bot")
)

// RideZone is the region a conversation belongs to. It carries the inbound
// phone number, the state abbreviation used as a geocoding hint, and the
// zone's UTC offset used to interpret free-text pickup times.
type RideZone struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	State            string    `json:"state"` // two-letter abbreviation, e.g. "OH"
	PhoneNumber      string    `json:"phone_number"`
	UTCOffsetSeconds int       `json:"utc_offset_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

// Location returns a fixed time.Location for the zone's UTC offset.
func (z *RideZone) Location() *time.Location {
	return time.FixedZone(z.Name, z.UTCOffsetSeconds)
}

// Rider is the profile of the person texting in.
type Rider struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name,omitempty"`
	Locale      Locale    `json:"locale,omitempty"`
	// HasSMSName reports that Name was auto-populated from the messaging
	// platform and must not be treated as a real name.
	HasSMSName bool      `json:"has_sms_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Ride is a dispatchable booking materialized from a completed conversation.
type Ride struct {
	ID                   string     `json:"id"`
	RiderID              string     `json:"rider_id"`
	RideZoneID           string     `json:"ride_zone_id"`
	ConversationID       string     `json:"conversation_id,omitempty"`
	Name                 string     `json:"name,omitempty"`
	PickupAt             time.Time  `json:"pickup_at"`
	FromAddress          string     `json:"from_address"`
	FromCity             string     `json:"from_city,omitempty"`
	FromLatitude         float64    `json:"from_latitude"`
	FromLongitude        float64    `json:"from_longitude"`
	ToAddress            string     `json:"to_address"`
	ToCity               string     `json:"to_city,omitempty"`
	ToLatitude           *float64   `json:"to_latitude,omitempty"`
	ToLongitude          *float64   `json:"to_longitude,omitempty"`
	AdditionalPassengers int        `json:"additional_passengers"`
	SpecialRequests      string     `json:"special_requests,omitempty"`
	Complete             bool       `json:"complete"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// HasUnknownDestination reports whether the ride was booked without a
// destination.
func (r *Ride) HasUnknownDestination() bool {
	return r.ToAddress == UnknownDestinationAddress
}

// Conversation is the unit of dialogue state. All collected booking fields
// are optional until set; the lifecycle stage is recomputed from them on
// every inbound message.
type Conversation struct {
	ID         string `json:"id"`
	RiderID    string `json:"rider_id"`
	RideZoneID string `json:"ride_zone_id"`
	RideID     string `json:"ride_id,omitempty"`
	FromPhone  string `json:"from_phone"`
	ToPhone    string `json:"to_phone"`

	Status Status `json:"status"`
	// BotCounter counts consecutive unsuccessful interpretation attempts.
	// Its meaning is scoped to the current lifecycle stage only.
	BotCounter int `json:"bot_counter"`

	FromAddress   string   `json:"from_address,omitempty"`
	FromCity      string   `json:"from_city,omitempty"`
	FromState     string   `json:"from_state,omitempty"`
	FromLatitude  *float64 `json:"from_latitude,omitempty"`
	FromLongitude *float64 `json:"from_longitude,omitempty"`
	FromConfirmed bool     `json:"from_confirmed,omitempty"`

	ToAddress   string   `json:"to_address,omitempty"`
	ToCity      string   `json:"to_city,omitempty"`
	ToLatitude  *float64 `json:"to_latitude,omitempty"`
	ToLongitude *float64 `json:"to_longitude,omitempty"`
	ToConfirmed bool     `json:"to_confirmed,omitempty"`

	PickupTime    *time.Time `json:"pickup_time,omitempty"`
	TimeConfirmed bool       `json:"time_confirmed,omitempty"`

	AdditionalPassengers *int    `json:"additional_passengers,omitempty"`
	SpecialRequests      *string `json:"special_requests,omitempty"`

	// IgnorePriorRide suppresses the repeat-prior-route offer after the
	// rider declined it.
	IgnorePriorRide bool `json:"ignore_prior_ride,omitempty"`

	StatusUpdatedAt time.Time `json:"status_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasUnknownDestination reports whether the rider answered "don't know" for
// the destination.
func (c *Conversation) HasUnknownDestination() bool {
	return c.ToAddress == UnknownDestinationAddress
}

// SetUnknownDestination marks the destination as unknown, which counts as a
// confirmed destination for lifecycle purposes.
func (c *Conversation) SetUnknownDestination() {
	c.ToAddress = UnknownDestinationAddress
	c.ToConfirmed = true
}

// Active reports whether the bot should still process inbound messages for
// this conversation.
func (c *Conversation) Active() bool {
	switch c.Status {
	case StatusSMSCreated, StatusInProgress:
		return true
	default:
		return false
	}
}

// MessageSender identifies which side of the conversation sent a message.
type MessageSender string

const (
	SenderRider MessageSender = "rider"
	SenderBot   MessageSender = "bot"
	SenderStaff MessageSender = "staff"
)

// Message is one text in the conversation log. Immutable once recorded.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SentBy         MessageSender `json:"sent_by"`
	Body           string        `json:"body"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	CreatedAt      time.Time     `json:"created_at"`
}

// InboundMessage is a single rider reply handed to the bot.
type InboundMessage struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// RiderContext is the read-only rider snapshot the lifecycle engine and
// stage handlers consume.
type RiderContext struct {
	Locale     Locale
	Name       string
	HasSMSName bool
	// RecentRide is the rider's most recent complete prior booking, nil if none.
	RecentRide *Ride
}

// LocaleKnown reports whether the rider has chosen a language.
func (rc RiderContext) LocaleKnown() bool {
	return rc.Locale != LocaleUnknown
}

// NameKnown reports whether the rider has supplied a real display name.
func (rc RiderContext) NameKnown() bool {
	return rc.Name != "" && !rc.HasSMSName
}

// FirstName returns the first word of the rider's name for prompts.
func (rc RiderContext) FirstName() string {
	for i := 0; i < len(rc.Name); i++ {
		if rc.Name[i] == ' ' {
			return rc.Name[:i]
		}
	}
	return rc.Name
}
