package compiler

import (
	"errors"
	"strings"

	"github.com/yuin/goldmark"

	"stationcharts/internal/config"
	"stationcharts/internal/logger"
)

var (
	// ErrUnknownRange aborts resolution of an output file
	ErrUnknownRange = errors.New("unknown plotvar range type")
	// ErrNoEquationVars drops a single equation series
	ErrNoEquationVars = errors.New("equation references no known variables")
	// ErrBadEquation drops a single equation series
	ErrBadEquation = errors.New("malformed equation")
	// ErrUnknownAxis drops an axis; its series attach to the first axis
	ErrUnknownAxis = errors.New("unknown axis type")
	// ErrNoCharts is returned when an output file has nothing to render
	ErrNoCharts = errors.New("no charts to compile")
)

// Settings are the station properties the generated code depends on
type Settings struct {
	TempUnit       string
	PressureUnit   string
	RainUnit       string
	WindUnit       string
	GraphHours     int
	DailyGraphDays int
	ChartHeight    int
	WindBarbColor  string
}

// SettingsFromConfig extracts compiler settings from a run configuration
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		TempUnit:       strings.ToUpper(cfg.Station.TempUnit),
		PressureUnit:   cfg.Station.PressureUnit,
		RainUnit:       cfg.Station.RainUnit,
		WindUnit:       cfg.Station.WindUnit,
		GraphHours:     cfg.Graphs.GraphHours,
		DailyGraphDays: cfg.Graphs.DailyGraphDays,
		ChartHeight:    cfg.Graphs.ChartHeight,
		WindBarbColor:  cfg.Graphs.WindBarbColor,
	}
}

// DefaultSettings mirrors config.Default
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

func (s Settings) freezing() int {
	if s.TempUnit == "F" {
		return 32
	}
	return 0
}

// pass holds the state of compiling one output file. A new pass is
// created for every file so the emit-once latches never leak between files.
type pass struct {
	settings Settings
	log      *logger.Logger
	md       goldmark.Markdown
	vars     *VarSet

	sumFunctionGenerated bool
}

func newPass(settings Settings, log *logger.Logger, md goldmark.Markdown) *pass {
	return &pass{settings: settings, log: log, md: md}
}

// sumFunction returns the sum() helper the first time it is asked for and
// nothing afterwards.
func (p *pass) sumFunction() string {
	if p.sumFunctionGenerated {
		return ""
	}
	p.sumFunctionGenerated = true
	return SumFunction
}
