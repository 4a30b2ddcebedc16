package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"yayasan/internal/database"
	"yayasan/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain keeps gorm's per-query debug lines out of the test output.
func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func TestNewConnectionSQLite(t *testing.T) {
	db, err := database.NewConnection(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"pengajuan", "arus_kas", "guru", "caregivers", "users", "audit_logs", "kelas", "siswa"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	assert.True(t, db.Migrator().HasColumn(&model.Submission{}, "version"))
	assert.True(t, db.Migrator().HasColumn(&model.LedgerEntry{}, "pengajuan_id"))
}

func TestNewConnectionUnknownDriver(t *testing.T) {
	_, err := database.NewConnection("oracle", "")
	assert.ErrorContains(t, err, "unsupported database driver")
}
