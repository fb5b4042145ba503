package flow

import (
	"context"
	"fmt"

	"github.com/ridezone/intakebot/internal/i18n"
	"github.com/ridezone/intakebot/internal/interpret"
	"github.com/ridezone/intakebot/internal/models"
)

// The language prompts are bilingual by necessity: no locale is known yet.
const (
	languagePrompt = `Hi, thanks for contacting us for a ride! This is an automated system. Reply "1" for English, Responder "2" para el español.`
	languageRetry  = `Sorry I did not understand. Reply help/ayuda to reach a person. Please reply with "1" for English. Responder "2" para el español.`
)

// Per-stage retry budgets: the highest counter value at which the handler
// still interprets input. Past the budget the handler escalates (or, for the
// destination, gives up gracefully).
const (
	maxLanguageRetries  = 2
	maxNameRetries      = 1
	maxPriorRideRetries = 1
	maxOriginRetries    = 2
	maxDestRetries      = 1
	maxTimeRetries      = 1
	maxPassengerRetries = 1
)

// handleCreated asks for and interprets the language choice.
func (b *Bot) handleCreated(ctx context.Context, in Input) (Result, error) {
	switch {
	case in.Counter == 0:
		return Result{Reply: languagePrompt, Counter: 1}, nil
	case in.Counter <= maxLanguageRetries:
		locale, ok := interpret.LanguageChoice(in.Body)
		if !ok {
			return Result{Reply: languageRetry, Counter: in.Counter + 1}, nil
		}
		return Result{
			Reply:   b.catalog.T(locale, i18n.KeyWhatIsYourName, nil),
			Counter: 0,
			Updates: Updates{RiderLocale: &locale},
		}, nil
	default:
		return b.escalate(in.Rider.Locale, in.Counter), nil
	}
}

// handleHaveLanguage accepts any non-empty reply as the rider's name.
func (b *Bot) handleHaveLanguage(ctx context.Context, in Input) (Result, error) {
	if in.Counter > maxNameRetries {
		return b.escalate(in.Rider.Locale, in.Counter), nil
	}
	if in.Body == "" {
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyEmptyNeedName, nil),
			Counter: in.Counter + 1,
		}, nil
	}

	name := in.Body
	first := models.RiderContext{Name: name}.FirstName()
	return Result{
		Reply: b.catalog.T(in.Rider.Locale, i18n.KeyWhatIsPickup, map[string]interface{}{
			"Name": first,
		}),
		Counter: 0,
		Updates: Updates{RiderName: &name},
	}, nil
}

// handleHavePriorRide offers to repeat the rider's last complete route with
// the endpoints swapped: the prior destination becomes the new origin.
func (b *Bot) handleHavePriorRide(ctx context.Context, in Input) (Result, error) {
	prior := in.Rider.RecentRide
	if prior == nil {
		return Result{}, fmt.Errorf("prior-ride stage reached without a prior ride for conversation %s", in.Conversation.ID)
	}

	switch {
	case in.Counter == 0:
		return Result{
			Reply: b.catalog.T(in.Rider.Locale, i18n.KeyAreYouGoingFromTo, map[string]interface{}{
				"From": prior.ToAddress,
				"To":   prior.FromAddress,
			}),
			Counter: 1,
		}, nil
	case in.Counter <= maxPriorRideRetries:
		if interpret.Affirmative(in.Body) {
			updates := invertRideAddresses(prior)
			return Result{
				Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyWhenPickup, nil),
				Counter: 0,
				Updates: updates,
			}, nil
		}
		// Anything else counts as a no: stop offering the prior route and
		// fall back to asking for the pickup location.
		return Result{
			Reply: b.catalog.T(in.Rider.Locale, i18n.KeyWhatIsPickup, map[string]interface{}{
				"Name": in.Rider.FirstName(),
			}),
			Counter: 0,
			Updates: Updates{IgnorePriorRide: true},
		}, nil
	default:
		return b.escalate(in.Rider.Locale, in.Counter), nil
	}
}

// invertRideAddresses copies the prior ride's endpoints swapped end-for-end,
// both pre-confirmed. The stored coordinates are reused without
// re-geocoding.
func invertRideAddresses(prior *models.Ride) Updates {
	origin := &EndpointUpdate{
		Address:   prior.ToAddress,
		City:      prior.ToCity,
		Confirmed: true,
	}
	if prior.ToLatitude != nil && prior.ToLongitude != nil {
		origin.Latitude = *prior.ToLatitude
		origin.Longitude = *prior.ToLongitude
	}
	dest := &EndpointUpdate{
		Address:   prior.FromAddress,
		City:      prior.FromCity,
		Latitude:  prior.FromLatitude,
		Longitude: prior.FromLongitude,
		Confirmed: true,
	}
	return Updates{Origin: origin, Destination: dest}
}

// handleHaveName captures the pickup location. A freshly SMS-initiated
// conversation gets the pickup prompt first: its opening message is a
// greeting, not an address.
func (b *Bot) handleHaveName(ctx context.Context, in Input) (Result, error) {
	if in.Conversation.Status == models.StatusSMSCreated {
		return Result{
			Reply: b.catalog.T(in.Rider.Locale, i18n.KeyWhatIsPickup, map[string]interface{}{
				"Name": in.Rider.FirstName(),
			}),
			Counter: 0,
		}, nil
	}
	return b.handleLocation(ctx, in, endpointOrigin)
}

// handleHaveOrigin confirms the matched pickup address. A no loops back to
// the pickup question and clears the stored coordinates without consuming
// retry budget.
func (b *Bot) handleHaveOrigin(ctx context.Context, in Input) (Result, error) {
	if interpret.Affirmative(in.Body) {
		confirmed := true
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyWhatIsDestination, nil),
			Counter: 0,
			Updates: Updates{OriginConfirmed: &confirmed},
		}, nil
	}
	return Result{
		Reply: b.catalog.T(in.Rider.Locale, i18n.KeyWhatIsPickup, map[string]interface{}{
			"Name": in.Rider.FirstName(),
		}),
		Counter: 0,
		Updates: Updates{Origin: &EndpointUpdate{Clear: true}},
	}, nil
}

// handleHaveConfirmedOrigin captures the destination.
func (b *Bot) handleHaveConfirmedOrigin(ctx context.Context, in Input) (Result, error) {
	return b.handleLocation(ctx, in, endpointDestination)
}

// handleHaveDestination confirms the matched destination address, with the
// same budget-free loop-back as the origin confirmation.
func (b *Bot) handleHaveDestination(ctx context.Context, in Input) (Result, error) {
	if interpret.Affirmative(in.Body) {
		confirmed := true
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyWhenPickup, nil),
			Counter: 0,
			Updates: Updates{DestinationConfirmed: &confirmed},
		}, nil
	}
	return Result{
		Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyWhatIsDestination, nil),
		Counter: 0,
		Updates: Updates{Destination: &EndpointUpdate{Clear: true}},
	}, nil
}

// handleHaveConfirmedDestination captures the pickup time.
func (b *Bot) handleHaveConfirmedDestination(ctx context.Context, in Input) (Result, error) {
	if in.Counter > maxTimeRetries {
		return b.escalate(in.Rider.Locale, in.Counter), nil
	}

	loc := in.Zone.Location()
	pickup, ok := interpret.PickupTime(in.Body, in.Now, loc)
	if !ok {
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyInvalidTime, nil),
			Counter: in.Counter + 1,
		}, nil
	}
	return Result{
		Reply: b.catalog.T(in.Rider.Locale, i18n.KeyConfirmTheTime, map[string]interface{}{
			"Time": pickup.In(loc).Format("3:04 pm"),
		}),
		Counter: 0,
		Updates: Updates{PickupTime: &TimeUpdate{At: pickup}},
	}, nil
}

// handleHaveTime confirms the parsed pickup time; a no clears it and re-asks
// without consuming retry budget.
func (b *Bot) handleHaveTime(ctx context.Context, in Input) (Result, error) {
	if interpret.Affirmative(in.Body) {
		confirmed := true
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyHowManyAdditional, nil),
			Counter: 0,
			Updates: Updates{TimeConfirmed: &confirmed},
		}, nil
	}
	return Result{
		Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyWhenPickup, nil),
		Counter: 0,
		Updates: Updates{PickupTime: &TimeUpdate{Clear: true}},
	}, nil
}

// handleHaveConfirmedTime captures the additional passenger count, 0-4.
func (b *Bot) handleHaveConfirmedTime(ctx context.Context, in Input) (Result, error) {
	if in.Counter > maxPassengerRetries {
		return b.escalate(in.Rider.Locale, in.Counter), nil
	}

	n, ok := interpret.NumberWord(in.Body)
	if !ok {
		return Result{
			Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyInvalidPassengers, nil),
			Counter: in.Counter + 1,
		}, nil
	}
	return Result{
		Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyAnySpecialRequests, nil),
		Counter: 0,
		Updates: Updates{Passengers: &n},
	}, nil
}

// handleHavePassengers takes the reply verbatim as special requests and
// finalizes the booking. This step always succeeds.
func (b *Bot) handleHavePassengers(ctx context.Context, in Input) (Result, error) {
	requests := in.Body
	status := models.StatusRideCreated
	return Result{
		Reply:   b.catalog.T(in.Rider.Locale, i18n.KeyThanksWaitDriver, nil),
		Counter: 0,
		Updates: Updates{
			SpecialRequests: &requests,
			Status:          &status,
		},
		CreateRide: true,
	}, nil
}

// handleInfoComplete escalates: a message after the booking is fully
// specified needs human attention.
func (b *Bot) handleInfoComplete(ctx context.Context, in Input) (Result, error) {
	return b.escalate(in.Rider.Locale, in.Counter), nil
}
