package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ridezone/intakebot/internal/api"
	"github.com/ridezone/intakebot/internal/flow"
	"github.com/ridezone/intakebot/internal/geo"
	"github.com/ridezone/intakebot/internal/i18n"
	"github.com/ridezone/intakebot/internal/messaging"
	"github.com/ridezone/intakebot/internal/models"
	"github.com/ridezone/intakebot/internal/ride"
	"github.com/ridezone/intakebot/internal/store"
	"github.com/ridezone/intakebot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for intakebot state data
	DefaultStateDir = "/var/lib/intakebot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "intakebot.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping intakebot with configured modules")
	if err := run(config, flags); err != nil {
		slog.Error("intakebot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("intakebot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	PlacesAPIKey  string
	TwilioSID     string
	TwilioToken   string
	TwilioFrom    string
	APIAddr       string
	SeedZoneName  string
	SeedZoneState string
	SeedZonePhone string
	SeedZoneUTC   int
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	placesAPIKey *string
	apiAddr      *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("INTAKEBOT_STATE_DIR"),
		PlacesAPIKey:  os.Getenv("PLACES_API_KEY"),
		TwilioSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:    os.Getenv("TWILIO_FROM_NUMBER"),
		APIAddr:       os.Getenv("API_ADDR"),
		SeedZoneName:  os.Getenv("SEED_ZONE_NAME"),
		SeedZoneState: os.Getenv("SEED_ZONE_STATE"),
		SeedZonePhone: os.Getenv("SEED_ZONE_PHONE"),
		SeedZoneUTC:   util.ParseIntEnv("SEED_ZONE_UTC_OFFSET", 0),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No INTAKEBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("INTAKEBOT_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"INTAKEBOT_STATE_DIR", config.StateDir,
		"PLACES_API_KEY_SET", config.PlacesAPIKey != "",
		"TWILIO_ACCOUNT_SID_SET", config.TwilioSID != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for intakebot data (overrides $INTAKEBOT_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for the store (overrides $DATABASE_URL)"),
		placesAPIKey: flag.String("places-api-key", config.PlacesAPIKey, "Google Places API key (overrides $PLACES_API_KEY)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"placesKeySet", *flags.placesAPIKey != "",
		"apiAddr", *flags.apiAddr)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if !isPostgresDSN(*flags.dbDSN) {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

func isPostgresDSN(dsn string) bool {
	return strings.Contains(dsn, "postgres://") || strings.Contains(dsn, "host=")
}

// openStore selects the backend from the DSN shape.
func openStore(dsn string) (store.Store, error) {
	if isPostgresDSN(dsn) {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// seedRideZone creates the configured ride zone if no zone answers its
// phone number yet. Deployments with zones already provisioned skip this.
func seedRideZone(st store.Store, config Config) error {
	if config.SeedZonePhone == "" {
		return nil
	}
	phone, err := messaging.CanonicalizePhone(config.SeedZonePhone)
	if err != nil {
		return err
	}
	existing, err := st.GetRideZoneByPhone(phone)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Debug("Ride zone already provisioned", "zone_id", existing.ID, "phone", phone)
		return nil
	}
	zone := &models.RideZone{
		ID:               uuid.NewString(),
		Name:             config.SeedZoneName,
		State:            config.SeedZoneState,
		PhoneNumber:      phone,
		UTCOffsetSeconds: config.SeedZoneUTC,
		CreatedAt:        time.Now(),
	}
	if err := st.SaveRideZone(zone); err != nil {
		return err
	}
	slog.Info("Seeded ride zone", "zone_id", zone.ID, "name", zone.Name, "phone", phone)
	return nil
}

func run(config Config, flags Flags) error {
	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seedRideZone(st, config); err != nil {
		return err
	}

	catalog, err := i18n.NewCatalog()
	if err != nil {
		return err
	}

	geocoder, err := geo.NewGooglePlaces(geo.WithAPIKey(*flags.placesAPIKey))
	if err != nil {
		return err
	}

	sender, err := messaging.NewTwilioService(
		messaging.WithAccountSID(config.TwilioSID),
		messaging.WithAuthToken(config.TwilioToken),
		messaging.WithFromNumber(config.TwilioFrom),
	)
	if err != nil {
		return err
	}

	rides := ride.NewCreator(st)
	bot := flow.NewBot(geocoder, catalog, rides)
	dispatcher := messaging.NewDispatcher(st, bot, sender)

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(st, dispatcher, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
