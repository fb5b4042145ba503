// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ridezone/intakebot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

const conversationColumns = `id, rider_id, ride_zone_id, ride_id, from_phone, to_phone, status, bot_counter,
	from_address, from_city, from_state, from_latitude, from_longitude, from_confirmed,
	to_address, to_city, to_latitude, to_longitude, to_confirmed,
	pickup_time, time_confirmed, additional_passengers, special_requests, ignore_prior_ride,
	status_updated_at, created_at, updated_at`

const rideColumns = `id, rider_id, ride_zone_id, conversation_id, name, pickup_at,
	from_address, from_city, from_latitude, from_longitude,
	to_address, to_city, to_latitude, to_longitude,
	additional_passengers, special_requests, complete, completed_at, created_at`

// SQLiteStore is the file-backed store used for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path; its
// directory is created if missing and migrations run on open.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetRiderByPhone(phone string) (*models.Rider, error) {
	row := s.db.QueryRow(`SELECT id, phone_number, name, locale, has_sms_name, created_at, updated_at FROM riders WHERE phone_number = ?`, phone)
	r, err := scanRider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *SQLiteStore) SaveRider(r *models.Rider) error {
	_, err := s.db.Exec(`INSERT INTO riders (id, phone_number, name, locale, has_sms_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phone_number = excluded.phone_number,
			name = excluded.name,
			locale = excluded.locale,
			has_sms_name = excluded.has_sms_name,
			updated_at = excluded.updated_at`,
		r.ID, r.PhoneNumber, nilIfEmpty(r.Name), nilIfEmpty(string(r.Locale)), r.HasSMSName, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveRider failed", "error", err, "rider_id", r.ID)
		return fmt.Errorf("failed to save rider %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRideZone(id string) (*models.RideZone, error) {
	row := s.db.QueryRow(`SELECT id, name, state, phone_number, utc_offset_seconds, created_at FROM ride_zones WHERE id = ?`, id)
	z, err := scanRideZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return z, err
}

func (s *SQLiteStore) GetRideZoneByPhone(phone string) (*models.RideZone, error) {
	row := s.db.QueryRow(`SELECT id, name, state, phone_number, utc_offset_seconds, created_at FROM ride_zones WHERE phone_number = ?`, phone)
	z, err := scanRideZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return z, err
}

func (s *SQLiteStore) SaveRideZone(z *models.RideZone) error {
	_, err := s.db.Exec(`INSERT INTO ride_zones (id, name, state, phone_number, utc_offset_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			phone_number = excluded.phone_number,
			utc_offset_seconds = excluded.utc_offset_seconds`,
		z.ID, z.Name, z.State, z.PhoneNumber, z.UTCOffsetSeconds, z.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveRideZone failed", "error", err, "zone_id", z.ID)
		return fmt.Errorf("failed to save ride zone %s: %w", z.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetConversation(id string) (*models.Conversation, error) {
	row := s.db.QueryRow(`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) GetActiveConversation(riderID, rideZoneID string) (*models.Conversation, error) {
	row := s.db.QueryRow(`SELECT `+conversationColumns+` FROM conversations
		WHERE rider_id = ? AND ride_zone_id = ? AND status != ?
		ORDER BY created_at DESC LIMIT 1`,
		riderID, rideZoneID, string(models.StatusClosed))
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) SaveConversation(c *models.Conversation) error {
	_, err := s.db.Exec(`INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ride_id = excluded.ride_id,
			status = excluded.status,
			bot_counter = excluded.bot_counter,
			from_address = excluded.from_address,
			from_city = excluded.from_city,
			from_state = excluded.from_state,
			from_latitude = excluded.from_latitude,
			from_longitude = excluded.from_longitude,
			from_confirmed = excluded.from_confirmed,
			to_address = excluded.to_address,
			to_city = excluded.to_city,
			to_latitude = excluded.to_latitude,
			to_longitude = excluded.to_longitude,
			to_confirmed = excluded.to_confirmed,
			pickup_time = excluded.pickup_time,
			time_confirmed = excluded.time_confirmed,
			additional_passengers = excluded.additional_passengers,
			special_requests = excluded.special_requests,
			ignore_prior_ride = excluded.ignore_prior_ride,
			status_updated_at = excluded.status_updated_at,
			updated_at = excluded.updated_at`,
		c.ID, c.RiderID, c.RideZoneID, nilIfEmpty(c.RideID), c.FromPhone, c.ToPhone, string(c.Status), c.BotCounter,
		nilIfEmpty(c.FromAddress), nilIfEmpty(c.FromCity), nilIfEmpty(c.FromState), nullFloat(c.FromLatitude), nullFloat(c.FromLongitude), c.FromConfirmed,
		nilIfEmpty(c.ToAddress), nilIfEmpty(c.ToCity), nullFloat(c.ToLatitude), nullFloat(c.ToLongitude), c.ToConfirmed,
		nullTime(c.PickupTime), c.TimeConfirmed, nullInt(c.AdditionalPassengers), nullStr(c.SpecialRequests), c.IgnorePriorRide,
		c.StatusUpdatedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConversation failed", "error", err, "conversation_id", c.ID)
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListConversations(rideZoneID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(`SELECT `+conversationColumns+` FROM conversations WHERE ride_zone_id = ? ORDER BY created_at`, rideZoneID)
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

func (s *SQLiteStore) SaveRide(r *models.Ride) error {
	_, err := s.db.Exec(`INSERT INTO rides (`+rideColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			name = excluded.name,
			pickup_at = excluded.pickup_at,
			from_address = excluded.from_address,
			from_city = excluded.from_city,
			from_latitude = excluded.from_latitude,
			from_longitude = excluded.from_longitude,
			to_address = excluded.to_address,
			to_city = excluded.to_city,
			to_latitude = excluded.to_latitude,
			to_longitude = excluded.to_longitude,
			additional_passengers = excluded.additional_passengers,
			special_requests = excluded.special_requests,
			complete = excluded.complete,
			completed_at = excluded.completed_at`,
		r.ID, r.RiderID, r.RideZoneID, nilIfEmpty(r.ConversationID), nilIfEmpty(r.Name), r.PickupAt,
		r.FromAddress, nilIfEmpty(r.FromCity), r.FromLatitude, r.FromLongitude,
		r.ToAddress, nilIfEmpty(r.ToCity), nullFloat(r.ToLatitude), nullFloat(r.ToLongitude),
		r.AdditionalPassengers, nilIfEmpty(r.SpecialRequests), r.Complete, nullTime(r.CompletedAt), r.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveRide failed", "error", err, "ride_id", r.ID)
		return fmt.Errorf("failed to save ride %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RecentCompleteRide(riderID string) (*models.Ride, error) {
	row := s.db.QueryRow(`SELECT `+rideColumns+` FROM rides
		WHERE rider_id = ? AND complete = 1
		ORDER BY created_at DESC LIMIT 1`, riderID)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *SQLiteStore) AddMessage(m *models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, conversation_id, sent_by, body, from_phone, to_phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, string(m.SentBy), m.Body, m.From, m.To, m.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddMessage failed", "error", err, "conversation_id", m.ConversationID)
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMessages(conversationID string) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, conversation_id, sent_by, body, from_phone, to_phone, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at`, conversationID)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
