package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gofrs/flock"
)

// MarkerName is the file recording when the Daily/All snapshots were last written
const MarkerName = "CUserdataDoneToday.txt"

const lockRetryDelay = 100 * time.Millisecond

// DoneToday persists the last Daily/All emission. The marker is guarded by a
// lock file so overlapping runs do not both emit.
type DoneToday struct {
	path string
	loc  *time.Location
	lock *flock.Flock
}

// NewDoneToday creates a marker in stateDir, comparing days in loc
func NewDoneToday(stateDir string, loc *time.Location) *DoneToday {
	if loc == nil {
		loc = time.Local
	}
	path := filepath.Join(stateDir, MarkerName)
	return &DoneToday{
		path: path,
		loc:  loc,
		lock: flock.New(path + ".lock"),
	}
}

// Lock waits for the marker lock until ctx is done
func (d *DoneToday) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	ok, err := d.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", d.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to lock %s", d.path)
	}
	return func() { _ = d.lock.Unlock() }, nil
}

// Last returns the persisted time; ok is false when nothing was recorded yet
func (d *DoneToday) Last() (last time.Time, ok bool, err error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read %s: %w", d.path, err)
	}

	s := strings.TrimSpace(string(data))
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := dateparse.ParseIn(s, d.loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid marker %q: %w", s, err)
	}
	return t, true, nil
}

// Due reports whether the Daily/All snapshots have not been written on now's calendar day
func (d *DoneToday) Due(now time.Time) (bool, error) {
	last, ok, err := d.Last()
	if err != nil || !ok {
		return true, err
	}
	return !sameDay(last.In(d.loc), now.In(d.loc)), nil
}

// Mark records now as the last emission
func (d *DoneToday) Mark(now time.Time) error {
	if err := os.WriteFile(d.path, []byte(now.In(d.loc).Format(time.RFC3339)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
