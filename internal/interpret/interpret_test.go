package interpret

import (
	"testing"
	"time"
)

func TestAffirmative(t *testing.T) {
	yes := []string{"yes", "y", "Yeah", "that's right", "correct", "sounds good", "sure", "si", "sí", "muy bien", "cierto"}
	for _, body := range yes {
		if !Affirmative(body) {
			t.Errorf("Affirmative(%q) = false, want true", body)
		}
	}

	no := []string{"no", "nope", "wrong address", "cancel", ""}
	for _, body := range no {
		if Affirmative(body) {
			t.Errorf("Affirmative(%q) = true, want false", body)
		}
	}
}

func TestNumberWord(t *testing.T) {
	cases := []struct {
		body string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"zero", 0, true},
		{"none", 0, true},
		{"nada", 0, true},
		{"1", 1, true},
		{"one", 1, true},
		{"uno", 1, true},
		{"2 people", 2, true},
		{"two", 2, true},
		{"dos", 2, true},
		{"3", 3, true},
		{"tres", 3, true},
		{"four", 4, true},
		{"cuatro", 4, true},
		{"just me and 4 friends", 4, true},
		{"10", 0, false},
		{"25", 0, false},
		{"five", 0, false},
		{"a few", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := NumberWord(tc.body)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("NumberWord(%q) = (%d, %v), want (%d, %v)", tc.body, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDontKnow(t *testing.T) {
	unsure := []string{"don't know", "dont know", "I'm unsure", "dunno", "skip", "no se", "no sé", "omitir"}
	for _, body := range unsure {
		if !DontKnow(body) {
			t.Errorf("DontKnow(%q) = false, want true", body)
		}
	}

	// A digit anywhere disqualifies the match so street addresses survive.
	if DontKnow("123 Dunno Lane") {
		t.Error("DontKnow should not match replies containing digits")
	}
	if DontKnow("425 Main St") {
		t.Error("DontKnow should not match a street address")
	}
	if DontKnow("yes") {
		t.Error("DontKnow should not match an ordinary reply")
	}
}

func TestHelpRequest(t *testing.T) {
	for _, body := range []string{"help", "HELP", "ayuda", " help ", "Ayuda"} {
		if !HelpRequest(body) {
			t.Errorf("HelpRequest(%q) = false, want true", body)
		}
	}
	for _, body := range []string{"I need help with the address", "helpful", "can you help", ""} {
		if HelpRequest(body) {
			t.Errorf("HelpRequest(%q) = true, want false", body)
		}
	}
}

func TestLanguageChoice(t *testing.T) {
	cases := []struct {
		body   string
		locale string
		ok     bool
	}{
		{"1", "en", true},
		{"English", "en", true},
		{"eng please", "en", true},
		{"2", "es", true},
		{"español", "es", true},
		{"Espanol", "es", true},
		{"hello", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		locale, ok := LanguageChoice(tc.body)
		if ok != tc.ok || string(locale) != tc.locale {
			t.Errorf("LanguageChoice(%q) = (%q, %v), want (%q, %v)", tc.body, locale, ok, tc.locale, tc.ok)
		}
	}
}

func TestPickupTimeNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	loc := time.FixedZone("zone", -5*3600)

	for _, body := range []string{"now", "right now", "ahora"} {
		got, ok := PickupTime(body, now, loc)
		if !ok {
			t.Fatalf("PickupTime(%q) failed", body)
		}
		if !got.Equal(now) {
			t.Errorf("PickupTime(%q) = %v, want %v", body, got, now)
		}
	}
}

func TestPickupTimeParsesClockTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	loc := time.UTC

	got, ok := PickupTime("at 3:30 pm", now, loc)
	if !ok {
		t.Fatal("expected a parse for a clock time")
	}
	if got.Hour() != 15 || got.Minute() != 30 {
		t.Errorf("parsed %v, want 15:30", got)
	}
}

func TestPickupTimeRejectsGarbage(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if _, ok := PickupTime("whenever the bus arrives maybe", now, time.UTC); ok {
		t.Error("expected no parse for unintelligible input")
	}
}

func TestPickupTimeRejectsPast(t *testing.T) {
	now := time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC)
	// 3:30 pm resolves to earlier today, well past the grace window.
	if got, ok := PickupTime("3:30 pm", now, time.UTC); ok && got.Before(now.Add(-PastGrace)) {
		t.Errorf("accepted a past time %v with now %v", got, now)
	}
}
