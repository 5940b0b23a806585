package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultSyncInterval is how often the sync runner drains its queue.
const DefaultSyncInterval = 5 * time.Minute

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where studyplan stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your studyplan instance, used in feed links.
	InstanceURL string

	Timezone          string        // STUDYPLAN_TIMEZONE (default: UTC), decides what "today" is
	AdaptiveIntervals bool          // STUDYPLAN_ADAPTIVE_INTERVALS (default: false)
	SyncRemoteURL     string        // STUDYPLAN_SYNC_REMOTE_URL, sync disabled when empty
	SyncInterval      time.Duration // STUDYPLAN_SYNC_INTERVAL (default: 5m)
	RedisAddr         string        // STUDYPLAN_REDIS_ADDR, L2 plan cache disabled when empty
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsSyncEnabled reports whether plans are pushed to a remote copy.
func (p *Profile) IsSyncEnabled() bool {
	return p.SyncRemoteURL != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads the STUDYPLAN_* environment variables. Values already set on
// the profile (e.g. from flags) win over the environment.
func (p *Profile) FromEnv() {
	if p.Timezone == "" {
		p.Timezone = getEnvOrDefault("STUDYPLAN_TIMEZONE", "UTC")
	}
	if !p.AdaptiveIntervals {
		p.AdaptiveIntervals = os.Getenv("STUDYPLAN_ADAPTIVE_INTERVALS") == "true"
	}
	if p.SyncRemoteURL == "" {
		p.SyncRemoteURL = os.Getenv("STUDYPLAN_SYNC_REMOTE_URL")
	}
	if p.RedisAddr == "" {
		p.RedisAddr = os.Getenv("STUDYPLAN_REDIS_ADDR")
	}
	if p.SyncInterval <= 0 {
		p.SyncInterval = DefaultSyncInterval
		if raw := os.Getenv("STUDYPLAN_SYNC_INTERVAL"); raw != "" {
			interval, err := time.ParseDuration(raw)
			if err != nil || interval <= 0 {
				slog.Warn("ignoring invalid sync interval", slog.String("value", raw))
			} else {
				p.SyncInterval = interval
			}
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}
	if _, err := time.LoadLocation(p.Timezone); p.Timezone != "" && err != nil {
		return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "studyplan")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/studyplan"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("studyplan_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
