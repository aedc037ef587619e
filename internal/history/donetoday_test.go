package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoneTodayDue(t *testing.T) {
	d := NewDoneToday(t.TempDir(), time.UTC)
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)

	due, err := d.Due(now)
	require.NoError(t, err)
	assert.True(t, due, "nothing recorded yet")

	require.NoError(t, d.Mark(now))
	due, err = d.Due(now.Add(30 * time.Minute))
	require.NoError(t, err)
	assert.False(t, due)

	due, err = d.Due(now.Add(90 * time.Minute))
	require.NoError(t, err)
	assert.True(t, due, "new calendar day")
}

func TestDoneTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	d := NewDoneToday(t.TempDir(), loc)

	// 20:00 UTC on the 1st is 06:00 on the 2nd at UTC+10
	require.NoError(t, d.Mark(time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)))
	due, err := d.Due(time.Date(2024, 3, 2, 9, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestDoneTodayReadsOtherFormats(t *testing.T) {
	dir := t.TempDir()
	d := NewDoneToday(dir, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerName), []byte("2024-06-15 08:30:00\n"), 0644))

	last, ok, err := d.Last()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC), last)
}

func TestDoneTodayInvalidMarkerIsDue(t *testing.T) {
	dir := t.TempDir()
	d := NewDoneToday(dir, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerName), []byte("not a date"), 0644))

	due, err := d.Due(time.Now())
	assert.Error(t, err)
	assert.True(t, due)
}

func TestDoneTodayLock(t *testing.T) {
	d := NewDoneToday(filepath.Join(t.TempDir(), "state"), time.UTC)

	unlock, err := d.Lock(context.Background())
	require.NoError(t, err)
	unlock()

	unlock, err = d.Lock(context.Background())
	require.NoError(t, err)
	unlock()
}
