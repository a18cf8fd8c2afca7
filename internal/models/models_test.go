package models

import (
	"testing"
	"time"
)

func TestDayKeyFor(t *testing.T) {
	// Day keys are always computed in UTC, whatever the wall clock zone.
	tokyo := time.FixedZone("JST", 9*3600)
	late := time.Date(2026, 3, 15, 2, 30, 0, 0, tokyo) // 2026-03-14 17:30 UTC

	if got := DayKeyFor(late); got != "2026-03-14" {
		t.Errorf("DayKeyFor = %q, want 2026-03-14", got)
	}
}

func TestCoupleHelpers(t *testing.T) {
	c := &Couple{UserAID: "a", UserBID: "b"}

	if got := c.PartnerOf("a"); got != "b" {
		t.Errorf("PartnerOf(a) = %q", got)
	}
	if got := c.PartnerOf("b"); got != "a" {
		t.Errorf("PartnerOf(b) = %q", got)
	}
	if got := c.PartnerOf("x"); got != "" {
		t.Errorf("PartnerOf(x) = %q", got)
	}
	if !c.HasMember("a") || !c.HasMember("b") || c.HasMember("x") {
		t.Error("HasMember mismatch")
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	for status, terminal := range map[SessionStatus]bool{
		SessionAwaitingFirst:  false,
		SessionAwaitingSecond: false,
		SessionCompleted:      true,
		SessionAbandoned:      true,
	} {
		if status.Terminal() != terminal {
			t.Errorf("%s.Terminal() = %v", status, status.Terminal())
		}
	}
}

func TestActivityTypeValid(t *testing.T) {
	for _, activity := range Activities {
		if !activity.Valid() {
			t.Errorf("%s reported invalid", activity)
		}
	}
	if ActivityType("karaoke").Valid() {
		t.Error("unknown activity reported valid")
	}
}
