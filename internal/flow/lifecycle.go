// Package flow implements the dialogue state machine for ride intake: the
// lifecycle engine that derives the current stage from collected fields, one
// handler per stage, and the bot that dispatches inbound messages.
package flow

import "github.com/ridezone/intakebot/internal/models"

// StageFor derives the lifecycle stage from the collected fields. The rules
// are evaluated in a fixed priority order and that order is the dialogue
// script itself; the stage is never stored, only recomputed, so replayed or
// concurrent field updates are reflected on the next message.
//
// An unknown destination counts as a confirmed destination, which is why it
// routes to the time question before the destination rules get a chance to
// run, and why the time question target appears twice below.
func StageFor(c *models.Conversation, rc models.RiderContext) models.Stage {
	switch {
	case !rc.LocaleKnown():
		return models.StageCreated
	case !rc.NameKnown():
		return models.StageHaveLanguage
	case !c.IgnorePriorRide && rc.RecentRide != nil && !rc.RecentRide.HasUnknownDestination() && c.FromLatitude == nil:
		return models.StageHavePriorRide
	case c.FromLatitude == nil || c.FromLongitude == nil:
		return models.StageHaveName
	case !c.FromConfirmed:
		return models.StageHaveOrigin
	case c.HasUnknownDestination() && c.PickupTime == nil && !c.TimeConfirmed:
		return models.StageHaveConfirmedDest
	case (c.ToLatitude == nil || c.ToLongitude == nil) && !c.HasUnknownDestination():
		return models.StageHaveConfirmedOrigin
	case !c.ToConfirmed:
		return models.StageHaveDestination
	case c.PickupTime == nil:
		return models.StageHaveConfirmedDest
	case !c.TimeConfirmed:
		return models.StageHaveTime
	case c.AdditionalPassengers == nil:
		return models.StageHaveConfirmedTime
	case c.SpecialRequests == nil:
		return models.StageHavePassengers
	default:
		return models.StageInfoComplete
	}
}
