package flow

import (
	"context"
	"log/slog"

	"github.com/ridezone/intakebot/internal/geo"
	"github.com/ridezone/intakebot/internal/i18n"
	"github.com/ridezone/intakebot/internal/interpret"
)

type endpoint string

const (
	endpointOrigin      endpoint = "origin"
	endpointDestination endpoint = "destination"
)

func (e endpoint) maxRetries() int {
	if e == endpointOrigin {
		return maxOriginRetries
	}
	return maxDestRetries
}

// handleLocation captures either ride endpoint from a free-text reply. It
// geocodes the reply with the zone's state appended and branches on the
// candidate count: one match stores the address and asks for confirmation,
// zero or many re-prompt and consume a retry. Not knowing the destination is
// a valid answer; not knowing the origin is not.
func (b *Bot) handleLocation(ctx context.Context, in Input, end endpoint) (Result, error) {
	if in.Counter > end.maxRetries() {
		return b.giveUpOnLocation(in, end), nil
	}

	if in.Body == "" {
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyNoAddressMatch, nil),
			Counter: in.Counter + 1,
		}, nil
	}
	if end == endpointDestination && interpret.DontKnow(in.Body) {
		return b.giveUpOnLocation(in, end), nil
	}

	candidates, err := b.geocoder.Search(ctx, in.Body+" "+in.Zone.State)
	if err != nil {
		// A degraded geocoder folds into zero candidates: the rider gets a
		// retry, operators get the log line.
		slog.Error("Bot geocoding failed, treating as no match",
			"conversation_id", in.Conversation.ID, "endpoint", end, "error", err)
		candidates = nil
	}

	switch {
	case len(candidates) == 1:
		return b.storeCandidate(in, end, candidates[0]), nil
	case len(candidates) > 1:
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyTooManyAddresses, nil),
			Counter: in.Counter + 1,
		}, nil
	default:
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyNoAddressMatch, nil),
			Counter: in.Counter + 1,
		}, nil
	}
}

// storeCandidate records the single matched address and builds the
// confirmation prompt, prefixing the place name when the candidate has one.
func (b *Bot) storeCandidate(in Input, end endpoint, c geo.Candidate) Result {
	parts := geo.SplitFormatted(c.FormattedAddress)

	confirm := parts.Confirm
	if c.Name != "" {
		confirm = c.Name + " - " + confirm
	}

	update := &EndpointUpdate{
		Address:   parts.Line,
		City:      parts.City,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
	updates := Updates{}
	if end == endpointOrigin {
		updates.Origin = update
	} else {
		updates.Destination = update
	}

	return Result{
		Reply: b.catalog.T(in.Rider.Locale, i18n.KeyConfirmAddress, map[string]interface{}{
			"Address": confirm,
		}),
		Counter: 0,
		Updates: updates,
	}
}

// giveUpOnLocation ends the capture attempt. An unknown destination is a
// terminal success that skips ahead to the pickup time; an unknown origin
// stalls the bot.
func (b *Bot) giveUpOnLocation(in Input, end endpoint) Result {
	if end == endpointDestination {
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyWhenPickup, nil),
			Counter: 0,
			Updates: Updates{UnknownDestination: true},
		}
	}
	return b.escalate(in.Rider.Locale, in.Counter)
}
