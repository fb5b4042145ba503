// Package interpret provides the stateless text classifiers used by the
// dialogue stage handlers: affirmative/negative replies, spoken numbers 0-4,
// "don't know" expressions, explicit help requests, and best-effort local
// pickup times.
package interpret

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/ridezone/intakebot/internal/models"
)

// PastGrace is how far in the past a parsed pickup time may fall before it
// is rejected as invalid.
const PastGrace = 10 * time.Minute

var (
	affirmativeRe = regexp.MustCompile(`(?i)y|right|correct|good|sure|cierto|bien|si|sí`)

	// helpRe is anchored on both ends: a reply that merely contains "help"
	// mid-sentence is not an escalation trigger.
	helpRe = regexp.MustCompile(`(?i)^(help|ayuda)$`)

	nowRe = regexp.MustCompile(`(?i)now|ahora`)

	digitRe = regexp.MustCompile(`[0-9]`)

	dontKnowRe = regexp.MustCompile(`(?i)don'?t know|unsure|dunno|skip|omitir|seguro|no se|no sé`)

	// numberPatterns is evaluated in order; tokens are bounded so that
	// out-of-range digits ("10") do not match a contained digit.
	numberPatterns = []struct {
		value int
		re    *regexp.Regexp
	}{
		{0, regexp.MustCompile(`(?i)\b(0|zero|none|cero|nada)\b`)},
		{1, regexp.MustCompile(`(?i)\b(1|one|uno|una)\b`)},
		{2, regexp.MustCompile(`(?i)\b(2|two|dos)\b`)},
		{3, regexp.MustCompile(`(?i)\b(3|three|tres)\b`)},
		{4, regexp.MustCompile(`(?i)\b(4|four|cuatro)\b`)},
	}

	timeParser = newTimeParser()
)

func newTimeParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Affirmative reports whether the reply reads as a yes. Any reply that does
// not match an affirmation token is a no; there is no "unparseable" outcome.
func Affirmative(body string) bool {
	return affirmativeRe.MatchString(strings.ToLower(body))
}

// NumberWord maps digits 0-4 and their English/Spanish spellings (including
// "none"/"nada") to an integer. The second return is false when nothing in
// range matched; callers must treat that as a retry condition, not as zero.
func NumberWord(body string) (int, bool) {
	for _, p := range numberPatterns {
		if p.re.MatchString(body) {
			return p.value, true
		}
	}
	return 0, false
}

// DontKnow reports whether the reply is an "unsure" expression. Replies
// containing any digit never match, so a street address with a house number
// is not swallowed.
func DontKnow(body string) bool {
	if digitRe.MatchString(body) {
		return false
	}
	return dontKnowRe.MatchString(body)
}

// HelpRequest reports whether the whole reply is the literal token "help"
// or "ayuda".
func HelpRequest(body string) bool {
	return helpRe.MatchString(strings.TrimSpace(body))
}

// LanguageChoice interprets a reply to the bilingual language prompt:
// "1" or anything containing "eng" selects English, "2" or "esp" Spanish.
func LanguageChoice(body string) (models.Locale, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(body, "1"), strings.Contains(lower, "eng"):
		return models.LocaleEnglish, true
	case strings.Contains(body, "2"), strings.Contains(lower, "esp"):
		return models.LocaleSpanish, true
	default:
		return models.LocaleUnknown, false
	}
}

// PickupTime parses a free-text pickup time in the zone's local time.
// "now"/"ahora" map to the current instant; anything else goes through a
// generic natural-language parse relative to now in loc. A time more than
// PastGrace in the past is rejected. The caller supplies now explicitly so
// results are reproducible in tests.
func PickupTime(body string, now time.Time, loc *time.Location) (time.Time, bool) {
	if nowRe.MatchString(body) {
		return now, true
	}

	result, err := timeParser.Parse(body, now.In(loc))
	if err != nil || result == nil {
		return time.Time{}, false
	}
	parsed := result.Time
	if parsed.Before(now.Add(-PastGrace)) {
		return time.Time{}, false
	}
	return parsed, true
}
