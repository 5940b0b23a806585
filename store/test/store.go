package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/studyplan/internal/profile"
	"github.com/hrygo/studyplan/internal/version"
	"github.com/hrygo/studyplan/store"
	"github.com/hrygo/studyplan/store/db"
)

// NewTestingStore opens a migrated store. SQLite on a temporary file is the
// default; set DRIVER=postgres and POSTGRES_TEST_DSN to run against PostgreSQL.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	mode := "prod"
	p := &profile.Profile{
		Mode:     mode,
		Data:     t.TempDir(),
		Driver:   driver,
		Version:  version.GetCurrentVersion(mode),
		Timezone: "UTC",
	}
	switch driver {
	case "sqlite":
		p.DSN = filepath.Join(p.Data, fmt.Sprintf("studyplan_%s.db", mode))
	case "postgres":
		p.DSN = os.Getenv("POSTGRES_TEST_DSN")
		if p.DSN == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}
