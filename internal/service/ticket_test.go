package service

import (
	"math/rand"
	"regexp"
	"testing"
	"time"
)

var ticketPattern = regexp.MustCompile(`^TRC-\d{6}-[A-Z0-9]{3}$`)

func TestTicketGenerator_Format(t *testing.T) {
	gen := NewTicketGenerator()
	for i := 0; i < 100; i++ {
		got := gen.Next()
		if !ticketPattern.MatchString(got) {
			t.Fatalf("ticket %q does not match %v", got, ticketPattern)
		}
	}
}

func TestTicketGenerator_TimestampSuffix(t *testing.T) {
	// 2026-08-31T12:00:00.123Z → epoch millis 1788177600123 → suffix 600123.
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 123_000_000, time.UTC)
	gen := &TicketGenerator{
		now: func() time.Time { return fixed },
		rng: rand.New(rand.NewSource(1)),
	}

	got := gen.Next()
	wantPrefix := "TRC-600123-"
	if got[:len(wantPrefix)] != wantPrefix {
		t.Errorf("Next() = %q, want prefix %q", got, wantPrefix)
	}
}

func TestTicketGenerator_ZeroPadded(t *testing.T) {
	// A millisecond count ending in 000042 must keep its leading zeros.
	fixed := time.UnixMilli(1_700_000_000_042)
	gen := &TicketGenerator{
		now: func() time.Time { return fixed },
		rng: rand.New(rand.NewSource(1)),
	}

	got := gen.Next()
	if !ticketPattern.MatchString(got) {
		t.Fatalf("ticket %q does not match %v", got, ticketPattern)
	}
	if got[4:10] != "000042" {
		t.Errorf("Next() = %q, want digits 000042", got)
	}
}
