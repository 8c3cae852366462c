package csvfile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/types"
)

func row(id string, extra map[string]string) map[string]string {
	r := map[string]string{"identifier": id, "status": types.StatusActive}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestReadAllCreatesFileWithCanonicalHeader(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	rows, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)

	f, err := os.Open(filepath.Join(dir, "records.csv"))
	require.NoError(t, err)
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	require.NoError(t, err)
	assert.Equal(t, types.FieldNames, header)
}

func TestWriteAllReadAllRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	in := []map[string]string{
		row("jperez", map[string]string{"first_names": "Juan", "site": "CENTRAL"}),
		row("mgarcia", map[string]string{"first_names": "Maria", "vpn_active": "SI"}),
	}
	require.NoError(t, s.WriteAll(ctx, in))

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// File order preserved, every canonical field present.
	assert.Equal(t, "jperez", out[0]["identifier"])
	assert.Equal(t, "mgarcia", out[1]["identifier"])
	assert.Equal(t, "Juan", out[0]["first_names"])
	assert.Equal(t, "SI", out[1]["vpn_active"])
	assert.Len(t, out[0], len(types.FieldNames))
}

func TestWriteAllRejectsMissingIdentifier(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	err = s.WriteAll(ctx, []map[string]string{
		row("jperez", nil),
		{"first_names": "Anon"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrMissingIdentifier)

	// Nothing was written.
	rows, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMigrateSchemaFillsNewAndDropsLegacy(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	// Hand-write an old-generation table: a legacy column, a missing one.
	legacy := "identifier,first_names,legacy_badge\njperez,Juan,B-42\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "records.csv"), []byte(legacy), 0o644))

	rows, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "jperez", rows[0]["identifier"])
	assert.Equal(t, "Juan", rows[0]["first_names"])
	assert.Equal(t, "", rows[0]["vpn_active"]) // new field filled empty
	_, hasLegacy := rows[0]["legacy_badge"]
	assert.False(t, hasLegacy)

	// The file itself was rewritten with the canonical header.
	b, err := os.ReadFile(filepath.Join(dir, "records.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), strings.Join(types.FieldNames, ",")))
	assert.NotContains(t, string(b), "legacy_badge")
}

func TestBackupAndPrune(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.WriteAll(ctx, []map[string]string{row("jperez", nil)}))

	path, err := s.Backup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)

	src, err := os.ReadFile(filepath.Join(dir, "records.csv"))
	require.NoError(t, err)
	cp, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src, cp)

	// A future cutoff prunes it, a past cutoff keeps it.
	deleted, err := s.PruneBackupsOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)

	deleted, err = s.PruneBackupsOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.NoFileExists(t, path)
}

func TestExportWritesTimestampedCopy(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := s.Export("records", []map[string]string{row("jperez", nil)})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, filepath.Base(path), "records_")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "jperez")
}
