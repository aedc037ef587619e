package logs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stationcharts/internal/logger"
	"stationcharts/internal/models"
)

// DayfileName is the daily summary log in the data directory
const DayfileName = "dayfile.txt"

// Reader reads the station's text logs from a data directory
type Reader struct {
	dir string
	loc *time.Location
	log *logger.Logger
}

// NewReader creates a reader for logs whose timestamps are in loc
func NewReader(dataDir string, loc *time.Location) *Reader {
	if loc == nil {
		loc = time.Local
	}
	return &Reader{dir: dataDir, loc: loc, log: logger.Component("logs")}
}

// MonthlyLogName returns the monthly log file holding records of t, e.g. Mar24log.txt
func MonthlyLogName(t time.Time) string {
	return t.Format("Jan06") + "log.txt"
}

// ReadDayfile returns every parsable day of the daily summary in file order.
// Malformed lines are logged and skipped.
func (r *Reader) ReadDayfile() ([]models.DayfileValue, error) {
	var days []models.DayfileValue
	err := r.scan(filepath.Join(r.dir, DayfileName), func(n int, line string) {
		v, err := ParseDayfileLine(line, r.loc)
		if err != nil {
			r.log.Warn("skipping dayfile line", logger.Fields{"line": n, "error": err.Error()})
			return
		}
		days = append(days, v)
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

// ReadMonthlyWindow returns the interval records with start <= ThisDate < end,
// reading every monthly log the window touches. Missing months are skipped.
func (r *Reader) ReadMonthlyWindow(start, end time.Time) ([]models.MonthfileValue, error) {
	var records []models.MonthfileValue

	start, end = start.In(r.loc), end.In(r.loc)
	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, r.loc)
	for !month.After(end) {
		path := filepath.Join(r.dir, MonthlyLogName(month))
		err := r.scan(path, func(n int, line string) {
			v, err := ParseMonthfileLine(line, r.loc)
			if err != nil {
				r.log.Warn("skipping log line", logger.Fields{"file": filepath.Base(path), "line": n, "error": err.Error()})
				return
			}
			if v.ThisDate.Before(start) || !v.ThisDate.Before(end) {
				return
			}
			records = append(records, v)
		})
		if errors.Is(err, os.ErrNotExist) {
			r.log.Debug("monthly log missing", logger.Fields{"file": filepath.Base(path)})
		} else if err != nil {
			return nil, err
		}
		month = month.AddDate(0, 1, 0)
	}

	return records, nil
}

func (r *Reader) scan(path string, fn func(n int, line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		if line := sc.Text(); line != "" {
			fn(n, line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read log %s: %w", path, err)
	}
	return nil
}
