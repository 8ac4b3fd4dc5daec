package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", versionOf("001_init.sql"))
	assert.Equal(t, "002", versionOf("/tmp/migrations/002_add_reviews_index.sql"))
	assert.Equal(t, "plain.sql", versionOf("plain.sql"))
}

func TestSQLFilesAreSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_c.sql", "002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := sqlFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql", "010_c.sql"}, files)

	_, err = sqlFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
