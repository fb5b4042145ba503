package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ridezone/intakebot/internal/geo"
	"github.com/ridezone/intakebot/internal/i18n"
	"github.com/ridezone/intakebot/internal/interpret"
	"github.com/ridezone/intakebot/internal/models"
)

// RideCreator materializes a dispatchable booking from a completed
// conversation. The bot only confirms the call was made; it does not consume
// the result beyond linking the ride id back.
type RideCreator interface {
	CreateFromConversation(ctx context.Context, conv *models.Conversation, rider *models.Rider) (*models.Ride, error)
}

// Input is the read-only snapshot one stage handler consumes.
type Input struct {
	Conversation *models.Conversation
	Rider        models.RiderContext
	Zone         *models.RideZone
	Body         string
	Counter      int
	Now          time.Time
}

// Result is what a stage handler returns: outbound text, the field delta,
// and the new retry counter. Handlers are pure; invoking one twice with the
// same input yields the same result.
type Result struct {
	Reply   string
	Counter int
	Updates Updates
	// CreateRide triggers booking materialization after the delta applies.
	CreateRide bool
}

type handlerFunc func(ctx context.Context, in Input) (Result, error)

// Opts holds configuration options for the dialogue bot.
type Opts struct {
	Now func() time.Time
}

// Option defines a configuration option for the dialogue bot.
type Option func(*Opts)

// WithNowFunc overrides the clock, mainly for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// Bot is the dialogue orchestrator: it resolves the lifecycle stage from the
// conversation's collected fields, dispatches to the matching stage handler,
// and applies the returned field delta in one place.
type Bot struct {
	geocoder geo.Geocoder
	catalog  *i18n.Catalog
	rides    RideCreator
	now      func() time.Time
	handlers map[models.Stage]handlerFunc
}

// NewBot creates a dialogue bot.
func NewBot(geocoder geo.Geocoder, catalog *i18n.Catalog, rides RideCreator, opts ...Option) *Bot {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	b := &Bot{
		geocoder: geocoder,
		catalog:  catalog,
		rides:    rides,
		now:      cfg.Now,
	}
	b.handlers = map[models.Stage]handlerFunc{
		models.StageCreated:             b.handleCreated,
		models.StageHaveLanguage:        b.handleHaveLanguage,
		models.StageHavePriorRide:       b.handleHavePriorRide,
		models.StageHaveName:            b.handleHaveName,
		models.StageHaveOrigin:          b.handleHaveOrigin,
		models.StageHaveConfirmedOrigin: b.handleHaveConfirmedOrigin,
		models.StageHaveDestination:     b.handleHaveDestination,
		models.StageHaveConfirmedDest:   b.handleHaveConfirmedDestination,
		models.StageHaveTime:            b.handleHaveTime,
		models.StageHaveConfirmedTime:   b.handleHaveConfirmedTime,
		models.StageHavePassengers:      b.handleHavePassengers,
		models.StageInfoComplete:        b.handleInfoComplete,
	}
	return b
}

// Process handles one inbound message for a conversation and returns the
// outbound reply text. The caller must serialize Process calls per
// conversation; the bot assumes exclusive access to the snapshot for the
// duration of the call. On error no field updates are applied.
func (b *Bot) Process(ctx context.Context, conv *models.Conversation, rider *models.Rider, zone *models.RideZone, recentRide *models.Ride, msg models.InboundMessage) (string, error) {
	if !conv.Active() {
		slog.Debug("Bot skipping inactive conversation", "conversation_id", conv.ID, "status", conv.Status)
		return "", fmt.Errorf("%w: status %s", models.ErrConversationFinished, conv.Status)
	}

	now := b.now()
	body := strings.TrimSpace(msg.Body)

	// An explicit help request bypasses retry counting at any stage.
	if interpret.HelpRequest(body) {
		slog.Info("Bot escalating on help request", "conversation_id", conv.ID)
		res := b.escalate(rider.Locale, conv.BotCounter)
		res.Updates.Apply(conv, rider, now)
		conv.UpdatedAt = now
		return res.Reply, nil
	}

	rc := models.RiderContext{
		Locale:     rider.Locale,
		Name:       rider.Name,
		HasSMSName: rider.HasSMSName,
		RecentRide: recentRide,
	}
	stage := StageFor(conv, rc)
	handler, ok := b.handlers[stage]
	if !ok {
		// A stage with no handler means the rule table and the dispatch map
		// have drifted; surface it to operators, never to the rider.
		slog.Error("Bot has no handler for stage", "conversation_id", conv.ID, "stage", stage)
		return "", fmt.Errorf("%w: %s", models.ErrNoHandlerForStage, stage)
	}
	slog.Debug("Bot dispatching", "conversation_id", conv.ID, "stage", stage, "counter", conv.BotCounter)

	res, err := handler(ctx, Input{
		Conversation: conv,
		Rider:        rc,
		Zone:         zone,
		Body:         body,
		Counter:      conv.BotCounter,
		Now:          now,
	})
	if err != nil {
		return "", fmt.Errorf("stage %s handler failed: %w", stage, err)
	}

	res.Updates.Apply(conv, rider, now)
	conv.BotCounter = res.Counter
	if conv.Status == models.StatusSMSCreated {
		// First processed inbound message moves an SMS-initiated
		// conversation into active collection.
		conv.Status = models.StatusInProgress
		conv.StatusUpdatedAt = now
	}
	conv.UpdatedAt = now

	if res.CreateRide && b.rides != nil {
		ride, err := b.rides.CreateFromConversation(ctx, conv, rider)
		if err != nil {
			slog.Error("Bot ride materialization failed", "conversation_id", conv.ID, "error", err)
			return "", fmt.Errorf("ride materialization failed: %w", err)
		}
		conv.RideID = ride.ID
		slog.Info("Bot materialized ride", "conversation_id", conv.ID, "ride_id", ride.ID)
	}

	return res.Reply, nil
}

// escalate moves the conversation to help_needed and freezes the retry
// counter. Messages arriving after escalation are not reprocessed here; the
// inbound pipeline routes them to staff.
func (b *Bot) escalate(locale models.Locale, counter int) Result {
	status := models.StatusHelpNeeded
	return Result{
		Reply:   b.catalog.T(locale, i18n.KeyBotStalled, nil),
		Counter: counter,
		Updates: Updates{Status: &status},
	}
}
