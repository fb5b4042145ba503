package models

import (
	"testing"
	"time"
)

func TestConversationActive(t *testing.T) {
	active := []Status{StatusSMSCreated, StatusInProgress}
	for _, s := range active {
		c := Conversation{Status: s}
		if !c.Active() {
			t.Errorf("Active() = false for %s", s)
		}
	}
	inactive := []Status{StatusRideCreated, StatusClosed, StatusHelpNeeded}
	for _, s := range inactive {
		c := Conversation{Status: s}
		if c.Active() {
			t.Errorf("Active() = true for %s", s)
		}
	}
}

func TestSetUnknownDestination(t *testing.T) {
	var c Conversation
	c.SetUnknownDestination()
	if !c.HasUnknownDestination() {
		t.Error("HasUnknownDestination should report the sentinel")
	}
	if !c.ToConfirmed {
		t.Error("an unknown destination counts as confirmed")
	}
}

func TestRiderContextNameKnown(t *testing.T) {
	if (RiderContext{}).NameKnown() {
		t.Error("empty name should not count")
	}
	if (RiderContext{Name: "WhatsApp User", HasSMSName: true}).NameKnown() {
		t.Error("a platform-supplied name should not count")
	}
	if !(RiderContext{Name: "Ada Lovelace"}).NameKnown() {
		t.Error("a rider-supplied name should count")
	}
}

func TestRiderContextFirstName(t *testing.T) {
	cases := []struct{ name, want string }{
		{"Ada Lovelace", "Ada"},
		{"Ada", "Ada"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := (RiderContext{Name: tc.name}).FirstName(); got != tc.want {
			t.Errorf("FirstName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRideZoneLocation(t *testing.T) {
	z := RideZone{Name: "Springfield", UTCOffsetSeconds: -5 * 3600}
	loc := z.Location()
	instant := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	if got := instant.In(loc).Hour(); got != 10 {
		t.Errorf("local hour = %d, want 10", got)
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []Status{StatusSMSCreated, StatusInProgress, StatusRideCreated, StatusClosed, StatusHelpNeeded} {
		if !IsValidStatus(s) {
			t.Errorf("IsValidStatus(%s) = false", s)
		}
	}
	if IsValidStatus("bogus") {
		t.Error("IsValidStatus should reject unknown statuses")
	}
}
