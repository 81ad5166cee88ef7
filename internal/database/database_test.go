package database

import (
	"testing"
	"time"

	appconfig "github.com/robinhoot/robinhoot_api/internal/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	cfg := &appconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "shop user", Password: "p@ss/word", Name: "robinhoot", SSLMode: "disable",
	}
	want := "postgres://shop+user:p%40ss%2Fword@db:5432/robinhoot?sslmode=disable"
	if got := DSN(cfg); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestBackoffCapped(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: got %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestConnectNilConfig(t *testing.T) {
	if _, err := Connect(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
