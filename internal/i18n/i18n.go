// Package i18n provides the localized outbound message catalog.
//
// Every text the bot sends is produced by looking up a template key in the
// rider's locale; templates live in embedded JSON files, one per locale.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/ridezone/intakebot/internal/models"
)

//go:embed locales/*.json
var localeFS embed.FS

// Template keys for every prompt the bot can send.
const (
	KeyWhatIsYourName     = "what_is_your_name"
	KeyEmptyNeedName      = "empty_need_name"
	KeyWhatIsPickup       = "what_is_pickup_location"
	KeyWhatIsDestination  = "what_is_destination_location"
	KeyConfirmAddress     = "confirm_address"
	KeyTooManyAddresses   = "too_many_addresses"
	KeyNoAddressMatch     = "no_address_match"
	KeyWhenPickup         = "when_do_you_want_pickup"
	KeyConfirmTheTime     = "confirm_the_time"
	KeyInvalidTime        = "invalid_time"
	KeyHowManyAdditional  = "how_many_additional"
	KeyInvalidPassengers  = "invalid_passengers"
	KeyAnySpecialRequests = "any_special_requests"
	KeyThanksWaitDriver   = "thanks_wait_for_driver"
	KeyBotStalled         = "bot_stalled"
	KeyAreYouGoingFromTo  = "are_you_going_from_to"
)

// Catalog resolves (template key, locale, args) to outbound text.
type Catalog struct {
	bundle *goi18n.Bundle
}

// NewCatalog loads the embedded locale files into a message bundle.
func NewCatalog() (*Catalog, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}
	for _, entry := range entries {
		path := "locales/" + entry.Name()
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("failed to load locale file %s: %w", path, err)
		}
		slog.Debug("Catalog loaded locale file", "path", path)
	}

	return &Catalog{bundle: bundle}, nil
}

// T renders the template key in the given locale with interpolation args.
// An unknown locale falls back to English; a missing key is logged and the
// key itself returned so the failure is visible rather than silent.
func (c *Catalog) T(locale models.Locale, key string, args map[string]interface{}) string {
	loc := goi18n.NewLocalizer(c.bundle, string(locale), string(models.LocaleEnglish))
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: args,
	})
	if err != nil {
		slog.Error("Catalog lookup failed", "key", key, "locale", locale, "error", err)
		return key
	}
	return msg
}
