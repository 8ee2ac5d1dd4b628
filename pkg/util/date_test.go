package util

import (
	"testing"
	"time"
)

func TestParseEventTimeDateOnly(t *testing.T) {
	got, err := ParseEventTime("2024-10-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseEventTimeTrailingZ(t *testing.T) {
	got, err := ParseEventTime("2024-10-10T12:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(time.RFC3339) != "2024-10-10T12:30:00Z" {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseEventTimeNaiveIsUTC(t *testing.T) {
	got, err := ParseEventTime("2024-10-10 08:15:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 8 || got.Location() != time.UTC {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseEventTimeOffsetConverted(t *testing.T) {
	got, err := ParseEventTime("2024-10-10T08:00:00-04:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 12 || got.Location() != time.UTC {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseEventTimeFractional(t *testing.T) {
	got, err := ParseEventTime("2024-10-10T08:00:00.250")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nanosecond() != 250_000_000 {
		t.Fatalf("unexpected nanos %d", got.Nanosecond())
	}
}

func TestParseEventTimeRejects(t *testing.T) {
	for _, s := range []string{"", "   ", "not a date", "10/10/2024"} {
		if _, err := ParseEventTime(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	got := EndOfDay(in)
	if got.Add(time.Microsecond) != time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected end of day %v", got)
	}
}

func TestSymbolSet(t *testing.T) {
	if SymbolSet([]string{" ", ""}) != nil {
		t.Fatalf("expected nil set for blanks")
	}
	set := SymbolSet([]string{" aapl", "MSFT "})
	if _, ok := set["AAPL"]; !ok {
		t.Fatalf("missing AAPL")
	}
	if len(set) != 2 {
		t.Fatalf("unexpected size %d", len(set))
	}
}
