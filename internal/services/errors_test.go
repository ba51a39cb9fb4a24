package services_test

import (
	"errors"
	"strings"
	"testing"

	"eventsift/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFetch, "scraping", "fetch", "status 503", base)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"scraping", "fetch", "status 503", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrClassification, "", "", "", nil)
	if err.Error() != "classification error: pipeline failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsFatalOnlyForConfiguration(t *testing.T) {
	cases := map[error]bool{
		services.Wrap(services.ErrConfiguration, "startup", "credentials", "missing", nil): true,
		services.Wrap(services.ErrFetch, "scraping", "fetch", "timeout", nil):              false,
		services.Wrap(services.ErrClassification, "classifying", "decode", "bad", nil):     false,
		services.Wrap(services.ErrPersistence, "scraping", "insert", "unique", nil):        false,
	}
	for err, want := range cases {
		if got := services.IsFatal(err); got != want {
			t.Fatalf("IsFatal(%v) = %v, want %v", err, got, want)
		}
	}
	if services.IsFatal(nil) {
		t.Fatal("expected nil to be non-fatal")
	}
}

func TestKindLabels(t *testing.T) {
	if got := services.Kind(services.Wrap(services.ErrParseSkip, "", "", "x", nil)); got != "parse_skip" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := services.Kind(errors.New("other")); got != "unknown" {
		t.Fatalf("unexpected kind %q", got)
	}
}
