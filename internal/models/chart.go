package models

import (
	"fmt"
	"strings"
)

// AxisType is a bit set of semantic y-axis categories. A Plotvar carries
// exactly one flag, a ChartDef the union of its plot variables' flags.
type AxisType uint32

const (
	AxisTemp AxisType = 1 << iota
	AxisPressure
	AxisRain
	AxisRrate
	AxisWind
	AxisDirection
	AxisUV
	AxisSolar
	AxisHumidity
	AxisHours
	AxisEVT
	AxisDistance
	AxisHeight
	AxisDegreeDays
	AxisFree
	AxisAQ
	AxisPpm
	AxisSoilMoisture

	AxisNone AxisType = 0
)

// AxisPriority is the fixed order in which axis categories are tested
var AxisPriority = []AxisType{
	AxisTemp, AxisPressure, AxisRain, AxisRrate, AxisWind, AxisDirection, AxisUV, AxisSolar,
	AxisHumidity, AxisHours, AxisEVT, AxisDistance, AxisHeight, AxisDegreeDays, AxisFree,
	AxisAQ, AxisPpm, AxisSoilMoisture,
}

var axisNames = map[AxisType]string{
	AxisTemp:         "Temp",
	AxisPressure:     "Pressure",
	AxisRain:         "Rain",
	AxisRrate:        "Rrate",
	AxisWind:         "Wind",
	AxisDirection:    "Direction",
	AxisUV:           "UV",
	AxisSolar:        "Solar",
	AxisHumidity:     "Humidity",
	AxisHours:        "Hours",
	AxisEVT:          "EVT",
	AxisDistance:     "Distance",
	AxisHeight:       "Height",
	AxisDegreeDays:   "DegreeDays",
	AxisFree:         "Free",
	AxisAQ:           "AQ",
	AxisPpm:          "ppm",
	AxisSoilMoisture: "SoilMoisture",
}

// Has reports whether every bit of flag is set in a
func (a AxisType) Has(flag AxisType) bool {
	return flag != 0 && a&flag == flag
}

// IsSingle reports whether exactly one category bit is set
func (a AxisType) IsSingle() bool {
	return a != 0 && a&(a-1) == 0
}

// String returns the category names joined with '|'
func (a AxisType) String() string {
	if a == AxisNone {
		return "None"
	}
	var names []string
	for _, f := range AxisPriority {
		if a.Has(f) {
			names = append(names, axisNames[f])
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("AxisType(%d)", uint32(a))
	}
	return strings.Join(names, "|")
}

// ParseAxisType maps a category name (case-insensitive) to its flag
func ParseAxisType(name string) (AxisType, error) {
	for _, f := range AxisPriority {
		if strings.EqualFold(axisNames[f], strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return AxisNone, fmt.Errorf("unknown axis type %q", name)
}

// PlotvarRangeType selects the log family and the live JSON files backing a variable
type PlotvarRangeType int

const (
	RangeRecent PlotvarRangeType = iota
	RangeDaily
	RangeExtra
	RangeAll
)

// String returns the range name
func (r PlotvarRangeType) String() string {
	switch r {
	case RangeRecent:
		return "Recent"
	case RangeDaily:
		return "Daily"
	case RangeExtra:
		return "Extra"
	case RangeAll:
		return "All"
	default:
		return fmt.Sprintf("PlotvarRangeType(%d)", int(r))
	}
}

// ParseRangeType maps a range name (case-insensitive) to its value
func ParseRangeType(name string) (PlotvarRangeType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "recent":
		return RangeRecent, nil
	case "daily":
		return RangeDaily, nil
	case "extra":
		return RangeExtra, nil
	case "all":
		return RangeAll, nil
	default:
		return RangeRecent, fmt.Errorf("unknown range %q", name)
	}
}

// AllVarInfo is one de-duplicated runtime array shared by every chart of an output file
type AllVarInfo struct {
	KeywordName string
	TypeName    string
	Datafile    string
}

// Plotvar is one series of a chart
type Plotvar struct {
	Keyword   string
	PlotVar   string
	Datafile  string
	GraphType string
	Axis      AxisType
	Color     string
	Unit      string
	LineWidth int
	Opacity   float64
	ZIndex    int
	Visible   bool
	Period    int
	Equation  *string
	IsStats   bool
	Range     PlotvarRangeType

	// EqAllVarList is filled by the resolver with the variables the equation references
	EqAllVarList []AllVarInfo
}

// HasEquation reports whether the series is computed client side
func (p *Plotvar) HasEquation() bool {
	return p.Equation != nil && strings.TrimSpace(*p.Equation) != ""
}

// ChartDef is one chart of an output file
type ChartDef struct {
	Id             string
	Title          string
	Range          PlotvarRangeType
	Zoom           int
	Axis           AxisType
	HasWindBarbs   bool
	WindBarbsBelow bool
	WindBarbColor  string
	HasScatter     bool
	HasInfo        bool
	InfoText       string
	PlotVars       []*Plotvar
}

// UnionAxis returns the union of the plot variables' axis flags
func (c *ChartDef) UnionAxis() AxisType {
	var a AxisType
	for _, p := range c.PlotVars {
		a |= p.Axis
	}
	return a
}
