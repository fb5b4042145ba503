package i18n

import (
	"strings"
	"testing"

	"github.com/ridezone/intakebot/internal/models"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return c
}

func TestCatalogEnglishLookup(t *testing.T) {
	c := newTestCatalog(t)
	got := c.T(models.LocaleEnglish, KeyWhatIsYourName, nil)
	if got != "Great! What is your name?" {
		t.Errorf("T = %q", got)
	}
}

func TestCatalogSpanishLookup(t *testing.T) {
	c := newTestCatalog(t)
	got := c.T(models.LocaleSpanish, KeyWhatIsYourName, nil)
	if !strings.Contains(got, "llama") {
		t.Errorf("T = %q, want the Spanish name prompt", got)
	}
}

func TestCatalogUnknownLocaleFallsBackToEnglish(t *testing.T) {
	c := newTestCatalog(t)
	got := c.T(models.LocaleUnknown, KeyWhatIsYourName, nil)
	if got != "Great! What is your name?" {
		t.Errorf("T = %q, want the English text", got)
	}
}

func TestCatalogInterpolation(t *testing.T) {
	c := newTestCatalog(t)
	got := c.T(models.LocaleEnglish, KeyWhatIsPickup, map[string]interface{}{"Name": "Ada"})
	if !strings.Contains(got, "Ada") {
		t.Errorf("T = %q, want the name interpolated", got)
	}

	got = c.T(models.LocaleEnglish, KeyAreYouGoingFromTo, map[string]interface{}{
		"From": "425 Main St",
		"To":   "456 Oak Ave",
	})
	if !strings.Contains(got, "425 Main St") || !strings.Contains(got, "456 Oak Ave") {
		t.Errorf("T = %q, want both addresses interpolated", got)
	}
}

func TestCatalogMissingKeyReturnsKey(t *testing.T) {
	c := newTestCatalog(t)
	if got := c.T(models.LocaleEnglish, "no_such_key", nil); got != "no_such_key" {
		t.Errorf("T = %q, want the key itself", got)
	}
}

func TestCatalogCoversEveryKey(t *testing.T) {
	keys := []string{
		KeyWhatIsYourName, KeyEmptyNeedName, KeyWhatIsPickup, KeyWhatIsDestination,
		KeyConfirmAddress, KeyTooManyAddresses, KeyNoAddressMatch, KeyWhenPickup,
		KeyConfirmTheTime, KeyInvalidTime, KeyHowManyAdditional, KeyInvalidPassengers,
		KeyAnySpecialRequests, KeyThanksWaitDriver, KeyBotStalled, KeyAreYouGoingFromTo,
	}
	// Superset of every template's args so templated keys render too.
	args := map[string]interface{}{
		"Name": "Ada", "Address": "425 Main St", "Time": "3:30 pm",
		"From": "425 Main St", "To": "456 Oak Ave",
	}
	c := newTestCatalog(t)
	for _, locale := range []models.Locale{models.LocaleEnglish, models.LocaleSpanish} {
		for _, key := range keys {
			if got := c.T(locale, key, args); got == key || got == "" {
				t.Errorf("locale %q key %q is not translated", locale, key)
			}
		}
	}
}
