package service

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackupPruner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeBackupPruner) PruneBackupsOlderThan(_ context.Context, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

func (f *fakeBackupPruner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestBackupPrunerRunsImmediatelyOnStart(t *testing.T) {
	fake := &fakeBackupPruner{}
	p := NewBackupPruner(fake, PrunerConfig{RetentionDays: 7, IntervalHours: 1}, log.New(io.Discard, "", 0))

	p.Start(context.Background())
	defer p.Stop()

	// The startup prune happens before the first tick.
	deadline := time.After(2 * time.Second)
	for fake.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("pruner never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.GreaterOrEqual(t, fake.count(), 1)
}

func TestBackupPrunerDisabledAtZeroRetention(t *testing.T) {
	fake := &fakeBackupPruner{}
	p := NewBackupPruner(fake, PrunerConfig{RetentionDays: 0}, log.New(io.Discard, "", 0))

	p.Start(context.Background())
	p.Stop() // returns immediately; the loop never started

	assert.Equal(t, 0, fake.count())
}
