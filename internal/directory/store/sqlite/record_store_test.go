package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/mquispe/accessdir/internal/db"
	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/types"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	ctx := context.Background()

	db, err := dbpkg.Open(ctx, dbpkg.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Env:  "dev",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer := dbpkg.NewWriter(db)
	t.Cleanup(writer.Close)

	return NewRecordStore(db, writer)
}

func row(id string, extra map[string]string) map[string]string {
	r := map[string]string{"identifier": id, "status": types.StatusActive}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestWriteAllReadAllPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []map[string]string{
		row("zfirst", map[string]string{"site": "CENTRAL"}),
		row("asecond", map[string]string{"vpn_active": "SI"}),
	}
	require.NoError(t, s.WriteAll(ctx, in))

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Table order, not key order.
	assert.Equal(t, "zfirst", out[0]["identifier"])
	assert.Equal(t, "asecond", out[1]["identifier"])
	assert.Equal(t, "SI", out[1]["vpn_active"])
	assert.Len(t, out[0], len(types.FieldNames))
}

func TestWriteAllReplacesWholeTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteAll(ctx, []map[string]string{row("old", nil)}))
	require.NoError(t, s.WriteAll(ctx, []map[string]string{row("new", nil)}))

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0]["identifier"])
}

func TestWriteAllRejectsMissingIdentifier(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteAll(ctx, []map[string]string{{"first_names": "Anon"}})
	assert.ErrorIs(t, err, store.ErrMissingIdentifier)

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}
