package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stationcharts/internal/compiler"
	"stationcharts/internal/config"
	"stationcharts/internal/logger"
	"stationcharts/internal/models"
	"stationcharts/internal/storage"
)

// WindBarbsKey holds the merged wind triples in the RECENT snapshot
const WindBarbsKey = "windbarbs"

// LogSource provides the station's logged records
type LogSource interface {
	ReadDayfile() ([]models.DayfileValue, error)
	ReadMonthlyWindow(start, end time.Time) ([]models.MonthfileValue, error)
}

// Variable is one series a snapshot must carry
type Variable struct {
	Name  string
	Range models.PlotvarRangeType
}

// Snapshot maps a field name to its [epoch_ms, value] points
type Snapshot map[string][][]float64

// Result describes what one run wrote
type Result struct {
	TimeStart time.Time
	TimeEnd   time.Time
	Files     []string
	// DailyRan is set when the Daily/All snapshots were (re)built
	DailyRan bool
}

// Emitter writes the CUserdata snapshots for variables the host application does not publish
type Emitter struct {
	cfg    *config.Config
	store  storage.StorageClient
	source LogSource
	marker *DoneToday
	wind   *WindFetcher
	loc    *time.Location
	now    func() time.Time
	log    *logger.Logger
}

// NewEmitter creates an emitter. wind may be nil when no chart shows wind barbs.
func NewEmitter(cfg *config.Config, store storage.StorageClient, source LogSource, wind *WindFetcher, loc *time.Location) *Emitter {
	if loc == nil {
		loc = time.Local
	}
	return &Emitter{
		cfg:    cfg,
		store:  store,
		source: source,
		marker: NewDoneToday(cfg.Paths.StateDir, loc),
		wind:   wind,
		loc:    loc,
		now:    time.Now,
		log:    logger.Component("history"),
	}
}

// Variables selects the resolved variables served from the snapshots. The
// range is taken from the snapshot a variable was assigned to.
func Variables(vars []models.AllVarInfo) []Variable {
	var out []Variable
	for _, v := range vars {
		if !compiler.IsUserdataFile(v.Datafile) {
			continue
		}
		r := models.PlotvarRangeType(-1)
		switch v.Datafile {
		case compiler.UserdataRecent:
			r = models.RangeRecent
		case compiler.UserdataDaily:
			r = models.RangeDaily
		case compiler.UserdataAll:
			r = models.RangeAll
		}
		out = append(out, Variable{Name: v.TypeName, Range: r})
	}
	return out
}

// Window returns [timeStart, timeEnd) for the recent snapshot
func (e *Emitter) Window(now time.Time) (time.Time, time.Time) {
	end := now.Truncate(e.cfg.LogIntervalDuration())
	return end.Add(-e.cfg.GraphWindow()), end
}

// Emit writes RECENT on every run and DAILY/ALL at most once per calendar day
func (e *Emitter) Emit(ctx context.Context, vars []Variable, withWind bool) (*Result, error) {
	now := e.now()
	res := &Result{}
	res.TimeStart, res.TimeEnd = e.Window(now)

	var recent, daily, all []string
	for _, v := range vars {
		switch v.Range {
		case models.RangeRecent:
			recent = appendUnique(recent, v.Name)
		case models.RangeDaily:
			daily = appendUnique(daily, v.Name)
		case models.RangeAll:
			all = appendUnique(all, v.Name)
		default:
			e.log.Error("snapshot variable skipped", fmt.Errorf("%w: %s", compiler.ErrUnknownRange, v.Range),
				logger.Fields{"variable": v.Name})
		}
	}

	if len(recent) > 0 || (withWind && e.wind != nil) {
		if err := e.emitRecent(ctx, recent, withWind, res); err != nil {
			return res, err
		}
	}

	if len(daily) > 0 || len(all) > 0 {
		if err := e.emitDaily(ctx, daily, all, now, res); err != nil {
			return res, err
		}
	}

	e.log.Info("snapshots emitted", logger.Fields{
		"files":     strings.Join(res.Files, ","),
		"daily_ran": res.DailyRan,
		"start":     res.TimeStart.Format(time.RFC3339),
		"end":       res.TimeEnd.Format(time.RFC3339),
	})
	return res, nil
}

func (e *Emitter) emitRecent(ctx context.Context, names []string, withWind bool, res *Result) error {
	snap := Snapshot{}

	if len(names) > 0 {
		records, err := e.source.ReadMonthlyWindow(res.TimeStart, res.TimeEnd)
		if err != nil {
			return fmt.Errorf("failed to read recent logs: %w", err)
		}
		for _, name := range names {
			get, ok := models.MonthfileAccessor(name)
			if !ok {
				e.log.Error("no logged field for recent variable", nil, logger.Fields{"variable": name})
				continue
			}
			points := make([][]float64, 0, len(records))
			for i := range records {
				points = append(points, point(records[i].ThisDate, get(&records[i])))
			}
			snap[name] = points
		}
	}

	if withWind && e.wind != nil {
		barbs, err := e.wind.Fetch(ctx, res.TimeStart, res.TimeEnd)
		if err != nil {
			e.log.Error("wind barbs not merged", err)
		} else {
			snap[WindBarbsKey] = barbs
		}
	}

	return e.storeSnapshot(ctx, compiler.UserdataRecent, snap, res)
}

func (e *Emitter) emitDaily(ctx context.Context, daily, all []string, now time.Time, res *Result) error {
	unlock, err := e.marker.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if !e.nonIncremental() {
		due, err := e.marker.Due(now)
		if err != nil {
			e.log.Warn("unreadable marker, rebuilding daily snapshots", logger.Fields{"error": err.Error()})
		}
		if !due {
			e.log.Debug("daily snapshots already written today")
			return nil
		}
	}

	days, err := e.source.ReadDayfile()
	if err != nil {
		return fmt.Errorf("failed to read dayfile: %w", err)
	}

	if len(daily) > 0 {
		from := startOfDay(now.In(e.loc)).AddDate(0, 0, -e.cfg.Graphs.DailyGraphDays)
		var recentDays []models.DayfileValue
		for _, d := range days {
			if !d.ThisDate.Before(from) {
				recentDays = append(recentDays, d)
			}
		}
		if err := e.storeSnapshot(ctx, compiler.UserdataDaily, e.dailySnapshot(daily, recentDays), res); err != nil {
			return err
		}
	}
	if len(all) > 0 {
		if err := e.storeSnapshot(ctx, compiler.UserdataAll, e.dailySnapshot(all, days), res); err != nil {
			return err
		}
	}

	if err := e.marker.Mark(now); err != nil {
		return err
	}
	res.DailyRan = true
	return nil
}

// dailySnapshot extracts the named series from daily summaries
func (e *Emitter) dailySnapshot(names []string, days []models.DayfileValue) Snapshot {
	snap := Snapshot{}
	for _, name := range names {
		get, ok := dailyField(name)
		if !ok {
			e.log.Error("no dayfile field for daily variable", nil, logger.Fields{"variable": name})
			continue
		}
		points := make([][]float64, 0, len(days))
		for i := range days {
			points = append(points, point(days[i].ThisDate, get(&days[i])))
		}
		snap[name] = points
	}
	return snap
}

// dailyField maps a snapshot variable to its dayfile value
func dailyField(name string) (func(*models.DayfileValue) float64, bool) {
	switch strings.ToLower(name) {
	case "heatingdegreedays":
		return func(v *models.DayfileValue) float64 { return v.HeatingDegreeDays }, true
	case "coolingdegreedays":
		return func(v *models.DayfileValue) float64 { return v.CoolingDegreeDays }, true
	case "evapotranspiration":
		return func(v *models.DayfileValue) float64 { return v.Evapotranspiration }, true
	default:
		return models.DayfileAccessor(name)
	}
}

func (e *Emitter) storeSnapshot(ctx context.Context, name string, snap Snapshot, res *Result) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := e.store.StoreFile(ctx, name, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	res.Files = append(res.Files, name)
	return nil
}

func (e *Emitter) nonIncremental() bool {
	return e.cfg.Graphs.NonIncremental || e.cfg.Env.NonIncremental
}

// SeriesNames returns the sorted keys of a snapshot
func (s Snapshot) SeriesNames() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func point(t time.Time, v float64) []float64 {
	return []float64{float64(t.UnixMilli()), round1(v)}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func appendUnique(list []string, name string) []string {
	for _, n := range list {
		if strings.EqualFold(n, name) {
			return list
		}
	}
	return append(list, name)
}
