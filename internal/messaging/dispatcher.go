package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ridezone/intakebot/internal/flow"
	"github.com/ridezone/intakebot/internal/models"
	"github.com/ridezone/intakebot/internal/store"
)

// DispatcherOpts holds configuration options for the inbound dispatcher.
type DispatcherOpts struct {
	Now func() time.Time
}

// DispatcherOption defines a configuration option for the inbound dispatcher.
type DispatcherOption func(*DispatcherOpts)

// WithDispatcherNowFunc overrides the clock, mainly for tests.
func WithDispatcherNowFunc(now func() time.Time) DispatcherOption {
	return func(o *DispatcherOpts) { o.Now = now }
}

// Dispatcher routes inbound texts to the dialogue bot and outbound replies
// to the SMS service. It resolves the ride zone from the receiving number,
// the rider from the sending number, and the rider's open conversation in
// that zone, creating records as needed.
type Dispatcher struct {
	store  store.Store
	bot    *flow.Bot
	sender Service
	now    func() time.Time

	// locks serializes processing per conversation so that two texts from
	// the same rider never interleave handler dispatch and persistence.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDispatcher creates an inbound message dispatcher.
func NewDispatcher(st store.Store, bot *flow.Bot, sender Service, opts ...DispatcherOption) *Dispatcher {
	var cfg DispatcherOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		store:  st,
		bot:    bot,
		sender: sender,
		now:    cfg.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// conversationLock returns the mutex guarding one conversation's pipeline.
func (d *Dispatcher) conversationLock(conversationID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[conversationID] = l
	}
	return l
}

// HandleInbound processes one inbound text end to end: record it, run the
// bot, persist the resulting state, record and send the reply. Messages for
// escalated or finished conversations are logged but not answered.
func (d *Dispatcher) HandleInbound(ctx context.Context, msg models.InboundMessage) error {
	from, err := CanonicalizePhone(msg.From)
	if err != nil {
		return fmt.Errorf("invalid sender number: %w", err)
	}
	to, err := CanonicalizePhone(msg.To)
	if err != nil {
		return fmt.Errorf("invalid receiving number: %w", err)
	}

	zone, err := d.store.GetRideZoneByPhone(to)
	if err != nil {
		return fmt.Errorf("failed to look up ride zone: %w", err)
	}
	if zone == nil {
		return fmt.Errorf("%w: no zone for number %s", models.ErrRideZoneNotFound, to)
	}

	now := d.now()

	rider, err := d.store.GetRiderByPhone(from)
	if err != nil {
		return fmt.Errorf("failed to look up rider: %w", err)
	}
	if rider == nil {
		rider = &models.Rider{
			ID:          uuid.NewString(),
			PhoneNumber: from,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := d.store.SaveRider(rider); err != nil {
			return fmt.Errorf("failed to create rider: %w", err)
		}
		slog.Info("Dispatcher created rider", "rider_id", rider.ID)
	}

	conv, err := d.store.GetActiveConversation(rider.ID, zone.ID)
	if err != nil {
		return fmt.Errorf("failed to look up conversation: %w", err)
	}
	if conv == nil {
		conv = &models.Conversation{
			ID:              uuid.NewString(),
			RiderID:         rider.ID,
			RideZoneID:      zone.ID,
			FromPhone:       from,
			ToPhone:         to,
			Status:          models.StatusSMSCreated,
			StatusUpdatedAt: now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := d.store.SaveConversation(conv); err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		slog.Info("Dispatcher opened conversation", "conversation_id", conv.ID, "ride_zone_id", zone.ID)
	}

	lock := d.conversationLock(conv.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so a concurrently processed text is visible.
	fresh, err := d.store.GetConversation(conv.ID)
	if err != nil {
		return fmt.Errorf("failed to reload conversation: %w", err)
	}
	if fresh != nil {
		conv = fresh
	}

	if err := d.store.AddMessage(&models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SentBy:         models.SenderRider,
		Body:           msg.Body,
		From:           from,
		To:             to,
		CreatedAt:      now,
	}); err != nil {
		return fmt.Errorf("failed to record inbound message: %w", err)
	}

	if !conv.Active() {
		slog.Info("Dispatcher recorded message for finished conversation",
			"conversation_id", conv.ID, "status", conv.Status)
		return nil
	}

	recentRide, err := d.store.RecentCompleteRide(rider.ID)
	if err != nil {
		return fmt.Errorf("failed to look up recent ride: %w", err)
	}

	reply, err := d.bot.Process(ctx, conv, rider, zone, recentRide, msg)
	if err != nil {
		return fmt.Errorf("bot processing failed: %w", err)
	}

	rider.UpdatedAt = d.now()
	if err := d.store.SaveRider(rider); err != nil {
		return fmt.Errorf("failed to save rider: %w", err)
	}
	if err := d.store.SaveConversation(conv); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	if reply == "" {
		return nil
	}

	if err := d.store.AddMessage(&models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SentBy:         models.SenderBot,
		Body:           reply,
		From:           to,
		To:             from,
		CreatedAt:      d.now(),
	}); err != nil {
		return fmt.Errorf("failed to record outbound message: %w", err)
	}

	if err := d.sender.SendMessage(ctx, from, reply); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// StartStaffConversation opens a conversation on behalf of staff and sends
// the first message. The bot takes over when the rider replies.
func (d *Dispatcher) StartStaffConversation(ctx context.Context, riderPhone, zoneID, body string) (*models.Conversation, error) {
	phone, err := CanonicalizePhone(riderPhone)
	if err != nil {
		return nil, fmt.Errorf("invalid rider number: %w", err)
	}

	zone, err := d.store.GetRideZone(zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ride zone: %w", err)
	}
	if zone == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrRideZoneNotFound, zoneID)
	}

	now := d.now()

	rider, err := d.store.GetRiderByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up rider: %w", err)
	}
	if rider == nil {
		rider = &models.Rider{
			ID:          uuid.NewString(),
			PhoneNumber: phone,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := d.store.SaveRider(rider); err != nil {
			return nil, fmt.Errorf("failed to create rider: %w", err)
		}
	}

	conv := &models.Conversation{
		ID:              uuid.NewString(),
		RiderID:         rider.ID,
		RideZoneID:      zone.ID,
		FromPhone:       phone,
		ToPhone:         zone.PhoneNumber,
		Status:          models.StatusInProgress,
		StatusUpdatedAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := d.store.SaveConversation(conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if err := d.sender.SendMessage(ctx, phone, body); err != nil {
		return nil, fmt.Errorf("failed to send staff message: %w", err)
	}
	if err := d.store.AddMessage(&models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SentBy:         models.SenderStaff,
		Body:           body,
		From:           zone.PhoneNumber,
		To:             phone,
		CreatedAt:      now,
	}); err != nil {
		return nil, fmt.Errorf("failed to record staff message: %w", err)
	}

	slog.Info("Dispatcher opened staff conversation", "conversation_id", conv.ID, "ride_zone_id", zone.ID)
	return conv, nil
}
