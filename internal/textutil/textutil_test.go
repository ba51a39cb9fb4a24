package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSourceID(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		title  string
		date   string
		want   string
	}{
		{"with date", "eventbrite", "Go Meetup", "Tue, 3 Mar", "eventbrite_Go_Meetup_Tue,_3_Mar"},
		{"without date", "meetup", "London Gophers", "", "meetup_London_Gophers"},
		{"trims parts", " devpost ", "  Hack Night ", " ", "devpost_Hack_Night"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceID(tt.prefix, tt.title, tt.date); got != tt.want {
				t.Errorf("SourceID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceIDTruncates(t *testing.T) {
	got := SourceID("Imperial", strings.Repeat("é", 80), "")
	if n := utf8.RuneCountInString(got); n != MaxSourceIDLength {
		t.Fatalf("expected %d runes, got %d", MaxSourceIDLength, n)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
}

func TestNormalizeKey(t *testing.T) {
	a := NormalizeKey("  AI Meetup ", "LONDON", "2030-01-01")
	b := NormalizeKey("ai meetup", "london ", "2030-01-01")
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
	if NormalizeKey("ab", "c") == NormalizeKey("a", "bc") {
		t.Fatal("parts must not run together")
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("startupgrind"); got != "Startupgrind" {
		t.Errorf("TitleCase() = %q", got)
	}
	if got := TitleCase("ltw"); got != "Ltw" {
		t.Errorf("TitleCase() = %q", got)
	}
}

func TestCollapseSpaceAndTruncate(t *testing.T) {
	if got := CollapseSpace("  Go \n\t Night  "); got != "Go Night" {
		t.Errorf("CollapseSpace() = %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestContainsAny(t *testing.T) {
	phrase, ok := ContainsAny("Intro to Rust (Student Only) Imperial", []string{"staff only", "student only"})
	if !ok || phrase != "student only" {
		t.Fatalf("expected student only match, got %q %v", phrase, ok)
	}
	if _, ok := ContainsAny("Open to all", []string{"student only"}); ok {
		t.Fatal("unexpected match")
	}
}
