package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/studyplan/internal/profile"
)

func TestSplitSQL(t *testing.T) {
	script := `-- comment line
CREATE TABLE a (
  name TEXT NOT NULL DEFAULT 'x;y'
);

CREATE INDEX idx_a ON a (name);
SELECT 1`

	statements := splitSQL(script)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "DEFAULT 'x;y'")
	assert.Equal(t, "CREATE INDEX idx_a ON a (name)", statements[1])
	assert.Equal(t, "SELECT 1", statements[2])
}

func TestSplitSQL_LatestSchemas(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres"} {
		data, err := migrationFS.ReadFile("migration/" + driver + "/" + LatestSchemaFileName)
		require.NoError(t, err, driver)
		statements := splitSQL(string(data))
		assert.Len(t, statements, 6, driver)
	}
}

func TestSchemaVersionOfMigrateScript(t *testing.T) {
	s := &Store{profile: &profile.Profile{Mode: "prod", Driver: "sqlite"}}

	v, err := s.getSchemaVersionOfMigrateScript("migration/sqlite/0.3/02__add_column.sql")
	require.NoError(t, err)
	assert.Equal(t, "0.3.3", v)

	_, err = s.getSchemaVersionOfMigrateScript("migration/sqlite/0.3/xx__bad.sql")
	assert.Error(t, err)

	current, err := s.GetCurrentSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.3.0", current)
}
