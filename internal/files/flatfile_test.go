package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("1;a\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestIsFlatFile(t *testing.T) {
	assert.True(t, IsFlatFile("dbo.Orders_20240101_000000.bcp"))
	assert.True(t, IsFlatFile("exports/dbo.Orders.BCP.GZ"))
	assert.False(t, IsFlatFile("dbo.Orders.csv"))
	assert.False(t, IsFlatFile("dbo.Orders.gz"))
}

func TestLatest_PicksNewestByModTime(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "dbo.A_20240101_000000.bcp"), now.Add(-3*time.Hour))
	touch(t, filepath.Join(dir, "dbo.B_20240102_000000.bcp.gz"), now.Add(-1*time.Hour))
	touch(t, filepath.Join(dir, "notes.txt"), now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "newer.bcp"), 0o755))

	got, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dbo.B_20240102_000000.bcp.gz"), got)
}

func TestLatest_Empty(t *testing.T) {
	_, err := Latest(t.TempDir())
	assert.ErrorIs(t, err, bcpstage.ErrSourceNotFound)

	_, err = Latest(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, bcpstage.ErrSourceNotFound)
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "dbo.Orders.bcp"), time.Now())

	t.Run("explicit relative name", func(t *testing.T) {
		got, err := ResolveLocal(dir, "dbo.Orders.bcp")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "dbo.Orders.bcp"), got)
	})

	t.Run("explicit absolute name ignores dir", func(t *testing.T) {
		abs := filepath.Join(dir, "dbo.Orders.bcp")
		got, err := ResolveLocal("/somewhere/else", abs)
		require.NoError(t, err)
		assert.Equal(t, abs, got)
	})

	t.Run("explicit missing", func(t *testing.T) {
		_, err := ResolveLocal(dir, "dbo.Missing.bcp")
		assert.ErrorIs(t, err, bcpstage.ErrSourceNotFound)
	})

	t.Run("newest when unnamed", func(t *testing.T) {
		got, err := ResolveLocal(dir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "dbo.Orders.bcp"), got)
	})
}

func TestStampedName(t *testing.T) {
	at := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "dbo.Customers_20240115_093000", StampedName("dbo.Customers", at))
	assert.Equal(t, "dbo.Customers", bcpstage.InferTableName(StampedName("dbo.Customers", at)+".bcp.gz"))
}
