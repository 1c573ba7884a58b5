package utils

import (
	"errors"
	"testing"
	"time"
)

func TestIsUniqueConstraintError(t *testing.T) {
	if IsUniqueConstraintError(nil) {
		t.Fatal("nil error reported as unique violation")
	}
	if !IsUniqueConstraintError(errors.New("constraint failed: UNIQUE constraint failed: state_transitions.id (2067)")) {
		t.Fatal("sqlite unique violation not detected")
	}
	if IsUniqueConstraintError(errors.New("database is locked")) {
		t.Fatal("unrelated error reported as unique violation")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	local := time.Date(2026, 5, 4, 10, 30, 0, 123, time.FixedZone("CEST", 2*60*60))
	raw := FormatTimestamp(local)
	if raw != "2026-05-04T08:30:00.000000123Z" {
		t.Fatalf("FormatTimestamp() = %q", raw)
	}
	if got := ParseTimestamp(raw); !got.Equal(local) || got.Location() != time.UTC {
		t.Fatalf("ParseTimestamp() = %v", got)
	}
	if !ParseTimestamp("yesterday").IsZero() {
		t.Fatal("ParseTimestamp(garbage) is not zero")
	}
}
