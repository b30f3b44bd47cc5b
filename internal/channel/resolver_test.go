package channel

import (
	"net/url"
	"testing"
)

func TestResolver_SchemeMirrorsOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"secure origin", "https://console.example.com", "wss://console.example.com/api/v1/events?token=tok1"},
		{"plain origin", "http://console.example.com:8080", "ws://console.example.com:8080/api/v1/events?token=tok1"},
		{"already ws", "ws://10.0.0.5:9000", "ws://10.0.0.5:9000/api/v1/events?token=tok1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolver{Origin: tt.origin}.Resolve("tok1")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_OverrideWins(t *testing.T) {
	r := Resolver{
		Origin:   "https://console.example.com",
		Override: "wss://events.internal:444",
	}

	got, err := r.Resolve("tok1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := "wss://events.internal:444/api/v1/events?token=tok1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolver_TokenIsEscaped(t *testing.T) {
	got, err := Resolver{Origin: "https://console.example.com"}.Resolve("a b&c=d")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if tok := u.Query().Get("token"); tok != "a b&c=d" {
		t.Errorf("token round-trip = %q, want %q", tok, "a b&c=d")
	}
}

func TestResolver_Errors(t *testing.T) {
	tests := []struct {
		name string
		r    Resolver
	}{
		{"nothing configured", Resolver{}},
		{"bad scheme", Resolver{Origin: "ftp://example.com"}},
		{"no host", Resolver{Origin: "https://"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.r.Resolve("tok1"); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
