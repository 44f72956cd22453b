package core

import (
	"testing"
	"time"
)

func TestNormalizeKind(t *testing.T) {
	for _, k := range entryKinds {
		if normalizeKind(k) != k {
			t.Errorf("known kind %q should pass through", k)
		}
	}
	if normalizeKind("PUMP_TEST") != "pump_test" {
		t.Error("kinds should be case-insensitive")
	}
	if normalizeKind("made-up") != "general" {
		t.Error("unknown kinds fall back to general")
	}
	if normalizeKind("") != "general" {
		t.Error("empty kind falls back to general")
	}
}

func TestNormalizeEntryDate(t *testing.T) {
	if got := normalizeEntryDate("2026-08-14"); got != "2026-08-14" {
		t.Errorf("valid date changed to %q", got)
	}
	today := time.Now().UTC().Format("2006-01-02")
	for _, bad := range []string{"", "not-a-date", "2026-13-40", "14/08/2026"} {
		if got := normalizeEntryDate(bad); got != today {
			t.Errorf("normalizeEntryDate(%q) = %q, want today", bad, got)
		}
	}
}

func TestKindLabel(t *testing.T) {
	fn := templateFuncs["kindLabel"].(func(string) string)
	cases := map[string]string{
		"general":   "General",
		"well_log":  "Well Log",
		"pump_test": "Pump Test",
	}
	for in, want := range cases {
		if got := fn(in); got != want {
			t.Errorf("kindLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
