package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"stationcharts/internal/compiler"
	"stationcharts/internal/history"
	"stationcharts/internal/logger"
	"stationcharts/internal/storage"
)

// ErrNothingToPlot is returned for snapshots without a drawable series
var ErrNothingToPlot = errors.New("no series with at least two points")

const defaultWidth = 900

var palette = []drawing.Color{
	{R: 51, G: 102, B: 204, A: 255},
	{R: 220, G: 57, B: 18, A: 255},
	{R: 255, G: 153, B: 0, A: 255},
	{R: 16, G: 150, B: 24, A: 255},
	{R: 153, G: 0, B: 153, A: 255},
	{R: 0, G: 153, B: 198, A: 255},
}

// Renderer draws emitter snapshots as PNG images next to their JSON files
type Renderer struct {
	store  storage.StorageClient
	width  int
	height int
	loc    *time.Location
	log    *logger.Logger
}

// NewRenderer creates a renderer producing images of the given height
func NewRenderer(store storage.StorageClient, height int, loc *time.Location) *Renderer {
	if height <= 0 {
		height = 500
	}
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{
		store:  store,
		width:  defaultWidth,
		height: height,
		loc:    loc,
		log:    logger.Component("preview"),
	}
}

// PNGName returns the image name for a snapshot file
func PNGName(datafile string) string {
	return strings.TrimSuffix(datafile, ".json") + ".png"
}

// RenderFiles reads stored snapshots and renders each one. Snapshots with
// nothing to draw are skipped.
func (r *Renderer) RenderFiles(ctx context.Context, files []string) ([]string, error) {
	var written []string
	for _, name := range files {
		data, err := r.store.GetFile(ctx, name)
		if err != nil {
			return written, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var snap history.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return written, fmt.Errorf("failed to decode %s: %w", name, err)
		}

		png, err := r.Render(ctx, name, snap)
		if errors.Is(err, ErrNothingToPlot) {
			r.log.Debug("nothing to preview", logger.Fields{"file": name})
			continue
		}
		if err != nil {
			return written, err
		}
		written = append(written, png)
	}
	return written, nil
}

// RenderStored renders every snapshot already present in the store root
func (r *Renderer) RenderStored(ctx context.Context) ([]string, error) {
	names, err := r.store.ListDir(ctx, "", false)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range names {
		if compiler.IsUserdataFile(name) && strings.HasSuffix(name, ".json") {
			files = append(files, name)
		}
	}
	return r.RenderFiles(ctx, files)
}

// Render draws one snapshot and stores it, returning the image name
func (r *Renderer) Render(ctx context.Context, name string, snap history.Snapshot) (string, error) {
	graph, err := r.graph(strings.TrimSuffix(name, ".json"), snap)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}

	out := PNGName(name)
	if err := r.store.StoreFile(ctx, out, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", out, err)
	}
	r.log.Info("preview rendered", logger.Fields{"file": out, "series": len(graph.Series)})
	return out, nil
}

func (r *Renderer) graph(title string, snap history.Snapshot) (*chart.Chart, error) {
	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	var first, last time.Time

	for _, key := range snap.SeriesNames() {
		if key == history.WindBarbsKey {
			continue
		}
		xs, ys := r.points(snap[key])
		if len(xs) < 2 {
			continue
		}
		for _, y := range ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
		if first.IsZero() || xs[0].Before(first) {
			first = xs[0]
		}
		if xs[len(xs)-1].After(last) {
			last = xs[len(xs)-1]
		}

		color := palette[len(series)%len(palette)]
		series = append(series, chart.TimeSeries{
			Name:    key,
			Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
			XValues: xs,
			YValues: ys,
		})
	}
	if len(series) == 0 || !last.After(first) {
		return nil, ErrNothingToPlot
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	layout := "02 Jan 15:04"
	if last.Sub(first) > 7*24*time.Hour {
		layout = "02 Jan 06"
	}

	graph := &chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 14, FontColor: drawing.ColorBlack},
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Width:  r.width,
		Height: r.height,
		XAxis: chart.XAxis{
			Style: chart.Style{FontSize: 9},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return time.Unix(0, int64(f)).In(r.loc).Format(layout)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 9},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph, nil
}

// points converts [epoch_ms, value, ...] rows into go-chart values
func (r *Renderer) points(rows [][]float64) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 || math.IsNaN(row[1]) {
			continue
		}
		xs = append(xs, time.UnixMilli(int64(row[0])).In(r.loc))
		ys = append(ys, row[1])
	}
	return xs, ys
}
