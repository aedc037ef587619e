package history

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"stationcharts/internal/logger"
)

// StartupDelay lets the host application finish uploading the wind files
// of the current interval before they are read.
const StartupDelay = 30 * time.Second

// Wind files and fields merged into barbs
const (
	WindSpeedFile     = "wdata.json"
	WindSpeedField    = "wspeed"
	WindDirectionFile = "wdirdata.json"
	WindBearingField  = "avgbearing"
)

// WindFetcher reads the live wind files and merges them into [ts, speed, bearing] triples
type WindFetcher struct {
	client *resty.Client
	delay  time.Duration
	log    *logger.Logger
}

// NewWindFetcher creates a fetcher for the files published below baseURL
func NewWindFetcher(baseURL string) *WindFetcher {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(2 * time.Second)

	return &WindFetcher{
		client: client,
		delay:  StartupDelay,
		log:    logger.Component("wind"),
	}
}

// SetDelay overrides the startup delay
func (w *WindFetcher) SetDelay(d time.Duration) {
	w.delay = d
}

// Fetch waits the startup delay, then reads speed and direction one after the
// other and pairs samples with equal timestamps inside [start, end).
func (w *WindFetcher) Fetch(ctx context.Context, start, end time.Time) ([][]float64, error) {
	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	speed, err := w.fetchSeries(ctx, WindSpeedFile, WindSpeedField)
	if err != nil {
		return nil, err
	}
	bearing, err := w.fetchSeries(ctx, WindDirectionFile, WindBearingField)
	if err != nil {
		return nil, err
	}

	byTime := make(map[int64]float64, len(bearing))
	for _, b := range bearing {
		byTime[b.ts] = b.value
	}

	lo, hi := start.UnixMilli(), end.UnixMilli()
	var barbs [][]float64
	for _, s := range speed {
		if s.ts < lo || s.ts >= hi {
			continue
		}
		b, ok := byTime[s.ts]
		if !ok {
			continue
		}
		barbs = append(barbs, []float64{float64(s.ts), round1(s.value), b})
	}

	w.log.Debug("wind barbs merged", logger.Fields{"speed": len(speed), "bearing": len(bearing), "barbs": len(barbs)})
	return barbs, nil
}

type sample struct {
	ts    int64
	value float64
}

func (w *WindFetcher) fetchSeries(ctx context.Context, file, field string) ([]sample, error) {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(file)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", file, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", file, resp.StatusCode())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s is not valid JSON", file)
	}

	var out []sample
	gjson.GetBytes(body, field).ForEach(func(_, item gjson.Result) bool {
		pair := item.Array()
		if len(pair) < 2 {
			return true
		}
		out = append(out, sample{ts: pair[0].Int(), value: pair[1].Float()})
		return true
	})
	return out, nil
}
