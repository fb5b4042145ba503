// Package messaging provides the outbound SMS transport and the inbound
// dispatch pipeline that feeds the dialogue bot.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient phone number, returning digits only.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a text to a recipient.
	SendMessage(ctx context.Context, to string, body string) error
}

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

// phoneNumberRegex strips everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// MinPhoneDigits is the minimum digit count for a valid recipient.
const MinPhoneDigits = 6

// CanonicalizePhone removes all non-numeric characters and validates the
// result has at least MinPhoneDigits digits.
func CanonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}

	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < MinPhoneDigits {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum %d digits required)", canonical, MinPhoneDigits)
	}

	if recipient != canonical {
		slog.Debug("Canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}
