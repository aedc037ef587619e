package logs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stationcharts/internal/models"
)

// ErrShortLine is returned for a record without the date and first values
var ErrShortLine = errors.New("log line has too few fields")

type column[T any] struct {
	index int
	set   func(*T, float64)
}

// Daily summary columns; the interleaved time-of-extreme columns are skipped
var dayfileColumns = []column[models.DayfileValue]{
	{1, func(v *models.DayfileValue, f float64) { v.HighWindGust = f }},
	{2, func(v *models.DayfileValue, f float64) { v.HighGustBearing = f }},
	{4, func(v *models.DayfileValue, f float64) { v.MinTemp = f }},
	{6, func(v *models.DayfileValue, f float64) { v.MaxTemp = f }},
	{8, func(v *models.DayfileValue, f float64) { v.MinPressure = f }},
	{10, func(v *models.DayfileValue, f float64) { v.MaxPressure = f }},
	{12, func(v *models.DayfileValue, f float64) { v.MaxRainRate = f }},
	{14, func(v *models.DayfileValue, f float64) { v.TotalRain = f }},
	{15, func(v *models.DayfileValue, f float64) { v.AvgTemp = f }},
	{16, func(v *models.DayfileValue, f float64) { v.WindRun = f }},
	{17, func(v *models.DayfileValue, f float64) { v.HighAvgWind = f }},
	{19, func(v *models.DayfileValue, f float64) { v.LowHumidity = f }},
	{21, func(v *models.DayfileValue, f float64) { v.HighHumidity = f }},
	{23, func(v *models.DayfileValue, f float64) { v.Evapotranspiration = f }},
	{24, func(v *models.DayfileValue, f float64) { v.SunHours = f }},
	{25, func(v *models.DayfileValue, f float64) { v.HighHeatIndex = f }},
	{27, func(v *models.DayfileValue, f float64) { v.HighAppTemp = f }},
	{29, func(v *models.DayfileValue, f float64) { v.LowAppTemp = f }},
	{31, func(v *models.DayfileValue, f float64) { v.HighHourlyRain = f }},
	{33, func(v *models.DayfileValue, f float64) { v.LowWindChill = f }},
	{35, func(v *models.DayfileValue, f float64) { v.HighDewPoint = f }},
	{37, func(v *models.DayfileValue, f float64) { v.LowDewPoint = f }},
	{39, func(v *models.DayfileValue, f float64) { v.DominantWindDir = f }},
	{40, func(v *models.DayfileValue, f float64) { v.HeatingDegreeDays = f }},
	{41, func(v *models.DayfileValue, f float64) { v.CoolingDegreeDays = f }},
	{42, func(v *models.DayfileValue, f float64) { v.HighSolarRad = f }},
	{44, func(v *models.DayfileValue, f float64) { v.HighUV = f }},
	{46, func(v *models.DayfileValue, f float64) { v.HighFeelsLike = f }},
	{48, func(v *models.DayfileValue, f float64) { v.LowFeelsLike = f }},
	{50, func(v *models.DayfileValue, f float64) { v.HighHumidex = f }},
}

// Monthly log columns after the date (0) and time (1)
var monthfileColumns = []column[models.MonthfileValue]{
	{2, func(v *models.MonthfileValue, f float64) { v.Temperature = f }},
	{3, func(v *models.MonthfileValue, f float64) { v.Humidity = f }},
	{4, func(v *models.MonthfileValue, f float64) { v.DewPoint = f }},
	{5, func(v *models.MonthfileValue, f float64) { v.WindSpeed = f }},
	{6, func(v *models.MonthfileValue, f float64) { v.WindGust = f }},
	{7, func(v *models.MonthfileValue, f float64) { v.WindBearing = f }},
	{8, func(v *models.MonthfileValue, f float64) { v.RainRate = f }},
	{9, func(v *models.MonthfileValue, f float64) { v.RainToday = f }},
	{10, func(v *models.MonthfileValue, f float64) { v.Pressure = f }},
	{11, func(v *models.MonthfileValue, f float64) { v.RainCounter = f }},
	{12, func(v *models.MonthfileValue, f float64) { v.InsideTemp = f }},
	{13, func(v *models.MonthfileValue, f float64) { v.InsideHumidity = f }},
	{14, func(v *models.MonthfileValue, f float64) { v.LatestGust = f }},
	{15, func(v *models.MonthfileValue, f float64) { v.WindChill = f }},
	{16, func(v *models.MonthfileValue, f float64) { v.HeatIndex = f }},
	{17, func(v *models.MonthfileValue, f float64) { v.UV = f }},
	{18, func(v *models.MonthfileValue, f float64) { v.SolarRad = f }},
	{19, func(v *models.MonthfileValue, f float64) { v.Evapotranspiration = f }},
	{20, func(v *models.MonthfileValue, f float64) { v.AnnualET = f }},
	{21, func(v *models.MonthfileValue, f float64) { v.ApparentTemp = f }},
	{22, func(v *models.MonthfileValue, f float64) { v.MaxSolarRad = f }},
	{23, func(v *models.MonthfileValue, f float64) { v.SunHours = f }},
	{24, func(v *models.MonthfileValue, f float64) { v.CurrentBearing = f }},
	{25, func(v *models.MonthfileValue, f float64) { v.RG11Rain = f }},
	{26, func(v *models.MonthfileValue, f float64) { v.RainSinceMidnight = f }},
	{27, func(v *models.MonthfileValue, f float64) { v.FeelsLike = f }},
	{28, func(v *models.MonthfileValue, f float64) { v.Humidex = f }},
}

// splitFields splits a log line. Semicolon separated files use a decimal comma.
func splitFields(line string) []string {
	sep, decimalComma := ",", false
	if strings.Contains(line, ";") {
		sep, decimalComma = ";", true
	}
	fields := strings.Split(strings.TrimSpace(line), sep)
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if decimalComma {
			f = strings.Replace(f, ",", ".", 1)
		}
		fields[i] = f
	}
	return fields
}

// parseDate reads dd/mm/yy with '/', '-' or '.' as separator
func parseDate(s string, loc *time.Location) (time.Time, error) {
	norm := strings.NewReplacer("-", "/", ".", "/").Replace(s)
	t, err := time.ParseInLocation("02/01/06", norm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid log date %q: %w", s, err)
	}
	return t, nil
}

func parseClock(s string) (hour, minute int, err error) {
	norm := strings.NewReplacer(".", ":", "-", ":").Replace(s)
	t, err := time.Parse("15:04", norm)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid log time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func fill[T any](v *T, fields []string, columns []column[T]) error {
	for _, c := range columns {
		if c.index >= len(fields) || fields[c.index] == "" {
			continue
		}
		f, err := strconv.ParseFloat(fields[c.index], 64)
		if err != nil {
			return fmt.Errorf("field %d: %w", c.index, err)
		}
		c.set(v, f)
	}
	return nil
}

// ParseDayfileLine parses one line of the daily summary log
func ParseDayfileLine(line string, loc *time.Location) (models.DayfileValue, error) {
	var v models.DayfileValue
	fields := splitFields(line)
	if len(fields) < 2 {
		return v, ErrShortLine
	}

	date, err := parseDate(fields[0], loc)
	if err != nil {
		return v, err
	}
	v.ThisDate = date

	if err := fill(&v, fields, dayfileColumns); err != nil {
		return v, err
	}
	return v, nil
}

// ParseMonthfileLine parses one interval record of a monthly log
func ParseMonthfileLine(line string, loc *time.Location) (models.MonthfileValue, error) {
	var v models.MonthfileValue
	fields := splitFields(line)
	if len(fields) < 3 {
		return v, ErrShortLine
	}

	date, err := parseDate(fields[0], loc)
	if err != nil {
		return v, err
	}
	hour, minute, err := parseClock(fields[1])
	if err != nil {
		return v, err
	}
	v.ThisDate = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)

	if err := fill(&v, fields, monthfileColumns); err != nil {
		return v, err
	}
	return v, nil
}
