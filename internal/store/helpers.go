package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ridezone/intakebot/internal/models"
)

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nullStr maps an optional string pointer to a nullable column value. An
// empty non-nil string stays a value: for special requests "" means the
// rider answered "none", while NULL means never asked.
func nullStr(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// nilIfEmpty returns nil if s is empty, used for columns where empty and
// unset mean the same thing.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func scanRider(rs rowScanner) (*models.Rider, error) {
	var r models.Rider
	var name, locale sql.NullString
	if err := rs.Scan(&r.ID, &r.PhoneNumber, &name, &locale, &r.HasSMSName, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan rider failed: %w", err)
	}
	r.Name = name.String
	r.Locale = models.Locale(locale.String)
	return &r, nil
}

func scanRideZone(rs rowScanner) (*models.RideZone, error) {
	var z models.RideZone
	if err := rs.Scan(&z.ID, &z.Name, &z.State, &z.PhoneNumber, &z.UTCOffsetSeconds, &z.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan ride zone failed: %w", err)
	}
	return &z, nil
}

func scanConversation(rs rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	var rideID, fromAddr, fromCity, fromState, toAddr, toCity, special sql.NullString
	var fromLat, fromLon, toLat, toLon sql.NullFloat64
	var pickup sql.NullTime
	var passengers sql.NullInt64
	var status string

	err := rs.Scan(
		&c.ID, &c.RiderID, &c.RideZoneID, &rideID, &c.FromPhone, &c.ToPhone, &status, &c.BotCounter,
		&fromAddr, &fromCity, &fromState, &fromLat, &fromLon, &c.FromConfirmed,
		&toAddr, &toCity, &toLat, &toLon, &c.ToConfirmed,
		&pickup, &c.TimeConfirmed, &passengers, &special, &c.IgnorePriorRide,
		&c.StatusUpdatedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan conversation failed: %w", err)
	}

	c.Status = models.Status(status)
	c.RideID = rideID.String
	c.FromAddress = fromAddr.String
	c.FromCity = fromCity.String
	c.FromState = fromState.String
	c.ToAddress = toAddr.String
	c.ToCity = toCity.String
	if fromLat.Valid {
		c.FromLatitude = &fromLat.Float64
	}
	if fromLon.Valid {
		c.FromLongitude = &fromLon.Float64
	}
	if toLat.Valid {
		c.ToLatitude = &toLat.Float64
	}
	if toLon.Valid {
		c.ToLongitude = &toLon.Float64
	}
	if pickup.Valid {
		c.PickupTime = &pickup.Time
	}
	if passengers.Valid {
		n := int(passengers.Int64)
		c.AdditionalPassengers = &n
	}
	if special.Valid {
		s := special.String
		c.SpecialRequests = &s
	}
	return &c, nil
}

func scanRide(rs rowScanner) (*models.Ride, error) {
	var r models.Ride
	var convID, name, fromCity, toCity, special sql.NullString
	var toLat, toLon sql.NullFloat64
	var completedAt sql.NullTime

	err := rs.Scan(
		&r.ID, &r.RiderID, &r.RideZoneID, &convID, &name, &r.PickupAt,
		&r.FromAddress, &fromCity, &r.FromLatitude, &r.FromLongitude,
		&r.ToAddress, &toCity, &toLat, &toLon,
		&r.AdditionalPassengers, &special, &r.Complete, &completedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan ride failed: %w", err)
	}

	r.ConversationID = convID.String
	r.Name = name.String
	r.FromCity = fromCity.String
	r.ToCity = toCity.String
	r.SpecialRequests = special.String
	if toLat.Valid {
		r.ToLatitude = &toLat.Float64
	}
	if toLon.Valid {
		r.ToLongitude = &toLon.Float64
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return &r, nil
}

func scanMessage(rs rowScanner) (*models.Message, error) {
	var m models.Message
	var sentBy string
	if err := rs.Scan(&m.ID, &m.ConversationID, &sentBy, &m.Body, &m.From, &m.To, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan message failed: %w", err)
	}
	m.SentBy = models.MessageSender(sentBy)
	return &m, nil
}
