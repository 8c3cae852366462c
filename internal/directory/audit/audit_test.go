package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	require.NoError(t, sc.Err())
	return n
}

func TestRecordAppendsBothLogs(t *testing.T) {
	dir := t.TempDir()
	trail, err := New(dir, 0)
	require.NoError(t, err)

	require.NoError(t, trail.Record(Event{Actor: "admin", Action: "RECORD_CREATE", Detail: "jperez"}))
	require.NoError(t, trail.Record(Event{Actor: "admin", Action: "RECORD_UPDATE", Detail: "jperez"}))

	textPath := filepath.Join(dir, "audit.log")
	jsonlPath := filepath.Join(dir, "audit.jsonl")
	assert.Equal(t, 2, countLines(t, textPath))
	assert.Equal(t, 2, countLines(t, jsonlPath))

	// Every JSONL line decodes back into an event with id and timestamp set.
	f, err := os.Open(jsonlPath)
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
		assert.Equal(t, "admin", ev.Actor)
	}
	require.NoError(t, sc.Err())
}

func TestRecentMostRecentFirst(t *testing.T) {
	trail, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	for _, action := range []string{"FIRST", "SECOND", "THIRD"} {
		require.NoError(t, trail.Record(Event{Actor: "admin", Action: action}))
	}

	got := trail.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "THIRD", got[0].Action)
	assert.Equal(t, "SECOND", got[1].Action)

	all := trail.Recent(0)
	assert.Len(t, all, 3)
	assert.Equal(t, "THIRD", all[0].Action)
}

func TestBufferCapBoundsMemoryNotLogs(t *testing.T) {
	dir := t.TempDir()
	trail, err := New(dir, 2)
	require.NoError(t, err)

	for _, action := range []string{"A", "B", "C", "D"} {
		require.NoError(t, trail.Record(Event{Actor: "admin", Action: action}))
	}

	got := trail.Recent(0)
	require.Len(t, got, 2)
	assert.Equal(t, "D", got[0].Action)
	assert.Equal(t, "C", got[1].Action)

	// Durable logs still carry every event.
	assert.Equal(t, 4, countLines(t, filepath.Join(dir, "audit.log")))
	assert.Equal(t, 4, countLines(t, filepath.Join(dir, "audit.jsonl")))
}

func TestRecordKeepsSuppliedIDAndTimestamp(t *testing.T) {
	trail, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, trail.Record(Event{ID: "fixed-id", Timestamp: ts, Actor: "x", Action: "Y"}))

	got := trail.Recent(1)
	require.Len(t, got, 1)
	assert.Equal(t, "fixed-id", got[0].ID)
	assert.Equal(t, ts, got[0].Timestamp)
}
