package dateformat

import (
	"errors"
	"testing"
	"time"
)

func TestParseSpec(t *testing.T) {
	m, err := ParseSpec("Birthday:yyyy-MM-dd, created: yyyy-MM-dd HH:mm:ss")
	if err != nil {
		t.Fatal(err)
	}
	if m["birthday"] != "yyyy-MM-dd" {
		t.Fatalf("got %q", m["birthday"])
	}
	if m["created"] != "yyyy-MM-dd HH:mm:ss" {
		t.Fatalf("got %q", m["created"])
	}

	m, err = ParseSpec("")
	if err != nil || len(m) != 0 {
		t.Fatal("expected empty map")
	}

	_, err = ParseSpec("nocolon")
	if !errors.Is(err, ErrMalformedSpec) {
		t.Fatal("expected ErrMalformedSpec")
	}
}

func TestToLayout(t *testing.T) {
	cases := map[string]string{
		"yyyy-MM-dd HH:mm:ss":      "2006-01-02 15:04:05",
		"dd/MM/yy":                 "02/01/06",
		"yyyy-MM-dd'T'HH:mm:ssXXX": "2006-01-02|15:04:05-07:00",
		"MMM d, yyyy h:mm a":       "Jan 2, 2006 3:04 PM",
		"yyyy-MM-dd HH:mm:ss.SSS":  "2006-01-02 15:04:05.000",
	}
	for pattern, want := range cases {
		if got := ToLayout(pattern); got != want {
			t.Fatalf("ToLayout(%q) = %q, want %q", pattern, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	ts, err := Parse("2022-01-24 10:11:12", DefaultTimestampFormat)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Day() != 24 || ts.Hour() != 10 {
		t.Fatal("mismatched date")
	}

	ts, err = Parse("1672406408279", DefaultDateFormat)
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.UnixMilli(1672406408279)) {
		t.Fatal("mismatched date for millis")
	}

	if _, err = Parse("not a date", DefaultDateFormat); err == nil {
		t.Fatal("expected error")
	}
	if _, err = Parse(" ", DefaultDateFormat); !errors.Is(err, ErrEmptyValue) {
		t.Fatal("expected ErrEmptyValue")
	}
}

func TestParseQuotedLiterals(t *testing.T) {
	ts, err := Parse("2024-01-02T10:30:00+02:00", "yyyy-MM-dd'T'HH:mm:ssXXX")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("got %s", ts)
	}

	// literal text that reads as layout tokens must match verbatim
	ts, err = Parse("2024103", "yyyy'1'MM")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Year() != 2024 || ts.Month() != time.March {
		t.Fatalf("got %s", ts)
	}

	ts, err = Parse("Mon 2024-05-06", "'Mon' yyyy-MM-dd")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Day() != 6 || ts.Month() != time.May {
		t.Fatalf("got %s", ts)
	}

	ts, err = Parse("10h30", "HH'h'mm")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Hour() != 10 || ts.Minute() != 30 {
		t.Fatalf("got %s", ts)
	}

	ts, err = Parse("7'", "H''")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Hour() != 7 {
		t.Fatalf("got %s", ts)
	}

	if _, err = Parse("2024-01-02 10:30:00", "yyyy-MM-dd'T'HH:mm:ss"); err == nil {
		t.Fatal("expected error for a missing literal")
	}
}
