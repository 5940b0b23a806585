package profile

import (
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STUDYPLAN_TIMEZONE",
		"STUDYPLAN_ADAPTIVE_INTERVALS",
		"STUDYPLAN_SYNC_REMOTE_URL",
		"STUDYPLAN_SYNC_INTERVAL",
		"STUDYPLAN_REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

// TestProfileDefaults checks the values FromEnv falls back to.
func TestProfileDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	if p.Timezone != "UTC" {
		t.Errorf("Timezone: expected UTC, got %q", p.Timezone)
	}
	if p.AdaptiveIntervals {
		t.Error("AdaptiveIntervals should be false by default")
	}
	if p.SyncInterval != DefaultSyncInterval {
		t.Errorf("SyncInterval: expected %v, got %v", DefaultSyncInterval, p.SyncInterval)
	}
	if p.IsSyncEnabled() {
		t.Error("sync should be disabled without a remote URL")
	}
}

// TestProfileFromEnv checks each environment variable is read.
func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) any
		expected any
	}{
		{"timezone", "STUDYPLAN_TIMEZONE", "America/Sao_Paulo", func(p *Profile) any { return p.Timezone }, "America/Sao_Paulo"},
		{"adaptive", "STUDYPLAN_ADAPTIVE_INTERVALS", "true", func(p *Profile) any { return p.AdaptiveIntervals }, true},
		{"sync url", "STUDYPLAN_SYNC_REMOTE_URL", "https://sync.example.com/plans", func(p *Profile) any { return p.SyncRemoteURL }, "https://sync.example.com/plans"},
		{"sync interval", "STUDYPLAN_SYNC_INTERVAL", "30s", func(p *Profile) any { return p.SyncInterval }, 30 * time.Second},
		{"bad sync interval", "STUDYPLAN_SYNC_INTERVAL", "soon", func(p *Profile) any { return p.SyncInterval }, DefaultSyncInterval},
		{"redis", "STUDYPLAN_REDIS_ADDR", "localhost:6379", func(p *Profile) any { return p.RedisAddr }, "localhost:6379"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envVar, tt.envValue)

			p := &Profile{}
			p.FromEnv()
			if got := tt.field(p); got != tt.expected {
				t.Errorf("%s: expected %v, got %v", tt.envVar, tt.expected, got)
			}
		})
	}
}

// TestProfileFlagsWinOverEnv checks values set before FromEnv are kept.
func TestProfileFlagsWinOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYPLAN_TIMEZONE", "Asia/Tokyo")

	p := &Profile{Timezone: "Europe/Lisbon", SyncInterval: time.Minute}
	p.FromEnv()
	if p.Timezone != "Europe/Lisbon" {
		t.Errorf("Timezone: expected flag value, got %q", p.Timezone)
	}
	if p.SyncInterval != time.Minute {
		t.Errorf("SyncInterval: expected 1m, got %v", p.SyncInterval)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "weird", Data: dir, Timezone: "UTC"}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.Mode != "demo" {
		t.Errorf("Mode: expected demo, got %q", p.Mode)
	}
	if p.Driver != "sqlite" {
		t.Errorf("Driver: expected sqlite, got %q", p.Driver)
	}
	if want := filepath.Join(dir, "studyplan_demo.db"); p.DSN != want {
		t.Errorf("DSN: expected %q, got %q", want, p.DSN)
	}
	if !p.IsDev() {
		t.Error("demo mode should count as dev")
	}
}

func TestValidateErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		profile Profile
	}{
		{"unknown driver", Profile{Data: dir, Driver: "mysql"}},
		{"postgres without dsn", Profile{Data: dir, Driver: "postgres"}},
		{"bad timezone", Profile{Data: dir, Timezone: "Mars/Olympus"}},
		{"missing data dir", Profile{Data: filepath.Join(dir, "missing")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			if err := p.Validate(); err == nil {
				t.Error("Validate() expected an error")
			}
		})
	}
}
