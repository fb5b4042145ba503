// This file implements the Postgres-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/ridezone/intakebot/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is the shared-database store for multi-node deployments.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store with the given DSN and runs
// migrations on open.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetRiderByPhone(phone string) (*models.Rider, error) {
	row := s.db.QueryRow(`SELECT id, phone_number, name, locale, has_sms_name, created_at, updated_at FROM riders WHERE phone_number = $1`, phone)
	r, err := scanRider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PostgresStore) SaveRider(r *models.Rider) error {
	_, err := s.db.Exec(`INSERT INTO riders (id, phone_number, name, locale, has_sms_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			name = EXCLUDED.name,
			locale = EXCLUDED.locale,
			has_sms_name = EXCLUDED.has_sms_name,
			updated_at = EXCLUDED.updated_at`,
		r.ID, r.PhoneNumber, nilIfEmpty(r.Name), nilIfEmpty(string(r.Locale)), r.HasSMSName, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveRider failed", "error", err, "rider_id", r.ID)
		return fmt.Errorf("failed to save rider %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetRideZone(id string) (*models.RideZone, error) {
	row := s.db.QueryRow(`SELECT id, name, state, phone_number, utc_offset_seconds, created_at FROM ride_zones WHERE id = $1`, id)
	z, err := scanRideZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return z, err
}

func (s *PostgresStore) GetRideZoneByPhone(phone string) (*models.RideZone, error) {
	row := s.db.QueryRow(`SELECT id, name, state, phone_number, utc_offset_seconds, created_at FROM ride_zones WHERE phone_number = $1`, phone)
	z, err := scanRideZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return z, err
}

func (s *PostgresStore) SaveRideZone(z *models.RideZone) error {
	_, err := s.db.Exec(`INSERT INTO ride_zones (id, name, state, phone_number, utc_offset_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			state = EXCLUDED.state,
			phone_number = EXCLUDED.phone_number,
			utc_offset_seconds = EXCLUDED.utc_offset_seconds`,
		z.ID, z.Name, z.State, z.PhoneNumber, z.UTCOffsetSeconds, z.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveRideZone failed", "error", err, "zone_id", z.ID)
		return fmt.Errorf("failed to save ride zone %s: %w", z.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetConversation(id string) (*models.Conversation, error) {
	row := s.db.QueryRow(`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *PostgresStore) GetActiveConversation(riderID, rideZoneID string) (*models.Conversation, error) {
	row := s.db.QueryRow(`SELECT `+conversationColumns+` FROM conversations
		WHERE rider_id = $1 AND ride_zone_id = $2 AND status != $3
		ORDER BY created_at DESC LIMIT 1`,
		riderID, rideZoneID, string(models.StatusClosed))
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *PostgresStore) SaveConversation(c *models.Conversation) error {
	_, err := s.db.Exec(`INSERT INTO conversations (`+conversationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		ON CONFLICT (id) DO UPDATE SET
			ride_id = EXCLUDED.ride_id,
			status = EXCLUDED.status,
			bot_counter = EXCLUDED.bot_counter,
			from_address = EXCLUDED.from_address,
			from_city = EXCLUDED.from_city,
			from_state = EXCLUDED.from_state,
			from_latitude = EXCLUDED.from_latitude,
			from_longitude = EXCLUDED.from_longitude,
			from_confirmed = EXCLUDED.from_confirmed,
			to_address = EXCLUDED.to_address,
			to_city = EXCLUDED.to_city,
			to_latitude = EXCLUDED.to_latitude,
			to_longitude = EXCLUDED.to_longitude,
			to_confirmed = EXCLUDED.to_confirmed,
			pickup_time = EXCLUDED.pickup_time,
			time_confirmed = EXCLUDED.time_confirmed,
			additional_passengers = EXCLUDED.additional_passengers,
			special_requests = EXCLUDED.special_requests,
			ignore_prior_ride = EXCLUDED.ignore_prior_ride,
			status_updated_at = EXCLUDED.status_updated_at,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.RiderID, c.RideZoneID, nilIfEmpty(c.RideID), c.FromPhone, c.ToPhone, string(c.Status), c.BotCounter,
		nilIfEmpty(c.FromAddress), nilIfEmpty(c.FromCity), nilIfEmpty(c.FromState), nullFloat(c.FromLatitude), nullFloat(c.FromLongitude), c.FromConfirmed,
		nilIfEmpty(c.ToAddress), nilIfEmpty(c.ToCity), nullFloat(c.ToLatitude), nullFloat(c.ToLongitude), c.ToConfirmed,
		nullTime(c.PickupTime), c.TimeConfirmed, nullInt(c.AdditionalPassengers), nullStr(c.SpecialRequests), c.IgnorePriorRide,
		c.StatusUpdatedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveConversation failed", "error", err, "conversation_id", c.ID)
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListConversations(rideZoneID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(`SELECT `+conversationColumns+` FROM conversations WHERE ride_zone_id = $1 ORDER BY created_at`, rideZoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveRide(r *models.Ride) error {
	_, err := s.db.Exec(`INSERT INTO rides (`+rideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			conversation_id = EXCLUDED.conversation_id,
			name = EXCLUDED.name,
			pickup_at = EXCLUDED.pickup_at,
			from_address = EXCLUDED.from_address,
			from_city = EXCLUDED.from_city,
			from_latitude = EXCLUDED.from_latitude,
			from_longitude = EXCLUDED.from_longitude,
			to_address = EXCLUDED.to_address,
			to_city = EXCLUDED.to_city,
			to_latitude = EXCLUDED.to_latitude,
			to_longitude = EXCLUDED.to_longitude,
			additional_passengers = EXCLUDED.additional_passengers,
			special_requests = EXCLUDED.special_requests,
			complete = EXCLUDED.complete,
			completed_at = EXCLUDED.completed_at`,
		r.ID, r.RiderID, r.RideZoneID, nilIfEmpty(r.ConversationID), nilIfEmpty(r.Name), r.PickupAt,
		r.FromAddress, nilIfEmpty(r.FromCity), r.FromLatitude, r.FromLongitude,
		r.ToAddress, nilIfEmpty(r.ToCity), nullFloat(r.ToLatitude), nullFloat(r.ToLongitude),
		r.AdditionalPassengers, nilIfEmpty(r.SpecialRequests), r.Complete, nullTime(r.CompletedAt), r.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveRide failed", "error", err, "ride_id", r.ID)
		return fmt.Errorf("failed to save ride %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) RecentCompleteRide(riderID string) (*models.Ride, error) {
	row := s.db.QueryRow(`SELECT `+rideColumns+` FROM rides
		WHERE rider_id = $1 AND complete
		ORDER BY created_at DESC LIMIT 1`, riderID)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PostgresStore) AddMessage(m *models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, conversation_id, sent_by, body, from_phone, to_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ConversationID, string(m.SentBy), m.Body, m.From, m.To, m.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddMessage failed", "error", err, "conversation_id", m.ConversationID)
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(conversationID string) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, conversation_id, sent_by, body, from_phone, to_phone, created_at
		FROM messages WHERE conversation_id = $1 ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
