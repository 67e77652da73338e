package seeder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ridoystarlord/seedato/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeSeedFixture(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(seedsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(seedsDir, name), []byte(content), 0644))
}

func TestParseSeedFileRoundTrip(t *testing.T) {
	chdir(t, t.TempDir())

	path, err := sqlgen.WriteSeedFile(
		[]string{
			`CREATE TABLE IF NOT EXISTS "pets" (
  "id" text PRIMARY KEY
);`,
			`INSERT INTO "pets" ("id") VALUES
  ('a1');`,
		},
		[]string{`DELETE FROM "pets" WHERE "id" IN ('a1');`},
	)
	require.NoError(t, err)

	applySQL, cleanupSQL, err := parseSeedFile(filepath.Base(path))
	require.NoError(t, err)

	assert.Contains(t, applySQL, `CREATE TABLE IF NOT EXISTS "pets"`)
	assert.Contains(t, applySQL, `INSERT INTO "pets"`)
	assert.NotContains(t, applySQL, "DELETE FROM")
	assert.Equal(t, `DELETE FROM "pets" WHERE "id" IN ('a1');`, cleanupSQL)
}

func TestParseSeedFileMissingCleanupSection(t *testing.T) {
	chdir(t, t.TempDir())
	writeSeedFixture(t, "20240101000000_seed.sql", "-- Seed (Apply)\n-- ============\nSELECT 1;\n")

	_, _, err := parseSeedFile("20240101000000_seed.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup section")
}

func TestParseSeedFileMissingSeedSection(t *testing.T) {
	chdir(t, t.TempDir())
	writeSeedFixture(t, "20240101000000_seed.sql", "SELECT 1;\n\n-- Cleanup (Rollback)\n-- ==================\nSELECT 2;\n")

	_, _, err := parseSeedFile("20240101000000_seed.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed section")
}

func TestSeedFilesSortedAndFiltered(t *testing.T) {
	chdir(t, t.TempDir())
	writeSeedFixture(t, "20240201000000_seed.sql", "")
	writeSeedFixture(t, "20240101000000_seed.sql", "")
	writeSeedFixture(t, "notes.txt", "")
	require.NoError(t, os.MkdirAll(filepath.Join(seedsDir, "archive"), 0755))

	files, err := getSeedFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"20240101000000_seed.sql", "20240201000000_seed.sql"}, files)
}
