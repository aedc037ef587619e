package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stationcharts/internal/history"
	"stationcharts/internal/storage"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func series(start time.Time, step time.Duration, values ...float64) [][]float64 {
	var out [][]float64
	for i, v := range values {
		out = append(out, []float64{float64(start.Add(time.Duration(i) * step).UnixMilli()), v})
	}
	return out
}

func newRenderer(t *testing.T) (*Renderer, storage.StorageClient) {
	t.Helper()
	store, err := storage.NewLocalStorageClient(t.TempDir())
	require.NoError(t, err)
	return NewRenderer(store, 300, time.UTC), store
}

func TestRender(t *testing.T) {
	r, store := newRenderer(t)
	start := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	snap := history.Snapshot{
		"evapotranspiration": series(start, time.Hour, 0.1, 0.3, 0.4, 0.2),
		"sunhours":           series(start, time.Hour, 0, 0.5, 1, 1),
	}

	name, err := r.Render(context.Background(), "CUserdataRECENT.json", snap)
	require.NoError(t, err)
	assert.Equal(t, "CUserdataRECENT.png", name)

	data, err := store.GetFile(context.Background(), name)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestRenderFlatSeries(t *testing.T) {
	r, _ := newRenderer(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := r.Render(context.Background(), "flat.json", history.Snapshot{
		"heatingdegreedays": series(start, 24*time.Hour, 0, 0, 0),
	})
	assert.NoError(t, err)
}

func TestRenderNothingToPlot(t *testing.T) {
	r, _ := newRenderer(t)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := map[string]history.Snapshot{
		"empty":        {},
		"single point": {"sunhours": series(now, time.Hour, 1)},
		"only wind":    {history.WindBarbsKey: {{1, 2, 3}, {4, 5, 6}}},
	}
	for name, snap := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Render(context.Background(), "x.json", snap)
			assert.ErrorIs(t, err, ErrNothingToPlot)
		})
	}
}

func TestRenderFiles(t *testing.T) {
	r, store := newRenderer(t)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	daily, err := json.Marshal(history.Snapshot{"coolingdegreedays": series(start, 24*time.Hour, 1.2, 3.4, 2.2)})
	require.NoError(t, err)
	require.NoError(t, store.StoreFile(ctx, "CUserdataDAILY.json", daily))
	require.NoError(t, store.StoreFile(ctx, "CUserdataALL.json", []byte(`{}`)))

	written, err := r.RenderFiles(ctx, []string{"CUserdataDAILY.json", "CUserdataALL.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CUserdataDAILY.png"}, written)

	exists, err := store.FileExists(ctx, "CUserdataALL.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRenderFilesErrors(t *testing.T) {
	r, store := newRenderer(t)
	ctx := context.Background()

	_, err := r.RenderFiles(ctx, []string{"missing.json"})
	assert.Error(t, err)

	require.NoError(t, store.StoreFile(ctx, "bad.json", []byte("not json")))
	_, err = r.RenderFiles(ctx, []string{"bad.json"})
	assert.Error(t, err)
}

func TestRenderStored(t *testing.T) {
	r, store := newRenderer(t)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	data, err := json.Marshal(history.Snapshot{
		"heatingdegreedays": series(start, 24*time.Hour, 2, 5, 1),
	})
	require.NoError(t, err)
	require.NoError(t, store.StoreFile(ctx, "CUserdataDAILY.json", data))
	require.NoError(t, store.StoreFile(ctx, "charts.json", data))
	require.NoError(t, store.StoreFile(ctx, "archive/CUserdataALL.json", data))

	images, err := r.RenderStored(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CUserdataDAILY.png"}, images)

	exists, err := store.FileExists(ctx, "charts.png")
	require.NoError(t, err)
	assert.False(t, exists)
}
