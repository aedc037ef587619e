package compiler

import (
	"fmt"
	"strings"

	"stationcharts/internal/logger"
	"stationcharts/internal/models"
)

const soilMoisture2ID = "SoilMoisture2"

// yAxis is one value axis of a chart
type yAxis struct {
	ID       string
	Category models.AxisType
	Unit     string
	Opposite bool
	Options  map[string]interface{}
	// LinkedTo names the axis a mirror repeats
	LinkedTo string
}

// axisSet is the unified axis layout of one chart
type axisSet struct {
	Axes []yAxis
	// byKeyword maps a plot keyword to the id of the axis its series uses
	byKeyword map[string]string
}

// AxisFor returns the axis id for a plot variable's series
func (s *axisSet) AxisFor(keyword string) string {
	if id, ok := s.byKeyword[strings.ToLower(keyword)]; ok {
		return id
	}
	return s.Axes[0].ID
}

// unifyAxes lays out one axis per category used by the chart, in plot order.
// Only SoilMoisture may get a second axis, for a second distinct unit.
func (p *pass) unifyAxes(c *models.ChartDef) *axisSet {
	set := &axisSet{byKeyword: make(map[string]string)}
	created := make(map[models.AxisType]string)
	var soilUnits []string

	add := func(cat models.AxisType, id string, pv *models.Plotvar) string {
		ax := yAxis{
			ID:       id,
			Category: cat,
			Unit:     pv.Unit,
			Opposite: len(set.Axes)%2 == 1,
		}
		ax.Options = p.axisOptions(ax)
		set.Axes = append(set.Axes, ax)
		return id
	}

	for _, pv := range c.PlotVars {
		cat, ok := categoryOf(pv.Axis)
		if !ok {
			p.log.Error("plot variable has no usable axis", fmt.Errorf("%s: %w", pv.Axis, ErrUnknownAxis),
				logger.Fields{"chart": c.Id, "keyword": pv.Keyword})
			continue
		}

		var id string
		if cat == models.AxisSoilMoisture {
			id = p.soilAxis(c, pv, &soilUnits, created, add)
		} else if existing, seen := created[cat]; seen {
			id = existing
		} else {
			id = add(cat, axisID(cat), pv)
			created[cat] = id
		}
		set.byKeyword[strings.ToLower(pv.Keyword)] = id
	}

	if len(set.Axes) == 0 {
		p.log.Warn("chart has no valid axis, using a free axis", logger.Fields{"chart": c.Id})
		add(models.AxisFree, axisID(models.AxisFree), &models.Plotvar{})
	}

	if len(set.Axes) == 1 {
		base := set.Axes[0]
		mirror := yAxis{
			ID:       base.ID + "Mirror",
			Category: base.Category,
			Unit:     base.Unit,
			Opposite: true,
			LinkedTo: base.ID,
		}
		mirror.Options = p.mirrorOptions(base, mirror)
		set.Axes = append(set.Axes, mirror)
	}

	return set
}

func (p *pass) soilAxis(c *models.ChartDef, pv *models.Plotvar, units *[]string,
	created map[models.AxisType]string, add func(models.AxisType, string, *models.Plotvar) string) string {
	for i, u := range *units {
		if u == pv.Unit {
			if i == 0 {
				return axisID(models.AxisSoilMoisture)
			}
			return soilMoisture2ID
		}
	}

	switch len(*units) {
	case 0:
		*units = append(*units, pv.Unit)
		id := add(models.AxisSoilMoisture, axisID(models.AxisSoilMoisture), pv)
		created[models.AxisSoilMoisture] = id
		return id
	case 1:
		*units = append(*units, pv.Unit)
		return add(models.AxisSoilMoisture, soilMoisture2ID, pv)
	default:
		p.log.Warn("third soil moisture unit shares the second axis", logger.Fields{
			"chart": c.Id, "keyword": pv.Keyword, "unit": pv.Unit,
		})
		return soilMoisture2ID
	}
}

// categoryOf returns the first category in priority order carried by a
func categoryOf(a models.AxisType) (models.AxisType, bool) {
	for _, f := range models.AxisPriority {
		if a.Has(f) {
			return f, true
		}
	}
	return models.AxisNone, false
}

func axisID(cat models.AxisType) string {
	return cat.String()
}

func (p *pass) axisOptions(ax yAxis) map[string]interface{} {
	s := p.settings
	opts := map[string]interface{}{
		"id":        ax.ID,
		"opposite":  ax.Opposite,
		"showEmpty": false,
		"title":     map[string]interface{}{"text": p.axisTitle(ax)},
		"labels":    labelPlacement(ax.Opposite),
	}

	switch ax.Category {
	case models.AxisTemp:
		freezing := s.freezing()
		opts["plotLines"] = []interface{}{
			map[string]interface{}{"value": freezing, "color": "rgb(0, 0, 180)", "width": 1, "zIndex": 2},
		}
		labels := labelPlacement(ax.Opposite)
		labels["formatter"] = jsCode(fmt.Sprintf(
			"function () { return '<span style=\"fill: ' + (this.value <= %d ? 'blue' : 'red') + ';\">' + this.value + '</span>'; }",
			freezing))
		opts["labels"] = labels
	case models.AxisPressure:
		labels := labelPlacement(ax.Opposite)
		labels["format"] = fmt.Sprintf("{value:.%df}", pressureDecimals(s.PressureUnit))
		opts["labels"] = labels
	case models.AxisRain, models.AxisRrate, models.AxisEVT:
		opts["softMin"] = 0
		if s.RainUnit == "in" {
			opts["softMax"] = 0.04
		} else {
			opts["softMax"] = 1
		}
	case models.AxisDistance:
		opts["softMin"] = 0
		opts["softMax"] = 10
	case models.AxisHeight:
		opts["softMin"] = 0
		opts["softMax"] = 100
	case models.AxisDegreeDays:
		opts["softMin"] = 0
		opts["softMax"] = 10
	case models.AxisFree:
		opts["softMin"] = 0
		opts["softMax"] = 1
	case models.AxisDirection:
		opts["min"] = 0
		opts["max"] = 360
		opts["tickInterval"] = 45
		labels := labelPlacement(ax.Opposite)
		labels["formatter"] = jsCode("function () { var c = ['N','NE','E','SE','S','SW','W','NW','N']; return c[Math.round(this.value / 45)]; }")
		opts["labels"] = labels
	case models.AxisHumidity, models.AxisSoilMoisture:
		opts["min"] = 0
		opts["max"] = 100
	case models.AxisWind, models.AxisSolar, models.AxisHours, models.AxisAQ:
		opts["min"] = 0
	case models.AxisUV:
		opts["min"] = 0
		opts["softMax"] = 4
	case models.AxisPpm:
		opts["softMin"] = 400
		opts["softMax"] = 1000
	}

	return opts
}

func (p *pass) mirrorOptions(base, mirror yAxis) map[string]interface{} {
	opts := map[string]interface{}{
		"id":            mirror.ID,
		"linkedTo":      jsCode(fmt.Sprintf("chart.yAxis.indexOf(chart.get(%s))", jsString(base.ID))),
		"opposite":      true,
		"gridLineWidth": 0,
		"lineWidth":     0,
		"title":         map[string]interface{}{"text": nil},
	}
	labels := labelPlacement(true)
	if baseLabels, ok := base.Options["labels"].(map[string]interface{}); ok {
		for _, k := range []string{"formatter", "format"} {
			if v, ok := baseLabels[k]; ok {
				labels[k] = v
			}
		}
	}
	opts["labels"] = labels
	return opts
}

func labelPlacement(opposite bool) map[string]interface{} {
	if opposite {
		return map[string]interface{}{"align": "left", "x": 5}
	}
	return map[string]interface{}{"align": "right", "x": -5}
}

func pressureDecimals(unit string) int {
	switch strings.ToLower(unit) {
	case "inhg":
		return 2
	case "kpa":
		return 1
	default:
		return 0
	}
}

func (p *pass) axisTitle(ax yAxis) string {
	s := p.settings
	switch ax.Category {
	case models.AxisTemp:
		return fmt.Sprintf("Temperature (°%s)", s.TempUnit)
	case models.AxisPressure:
		return fmt.Sprintf("Pressure (%s)", s.PressureUnit)
	case models.AxisRain:
		return fmt.Sprintf("Rainfall (%s)", s.RainUnit)
	case models.AxisRrate:
		return fmt.Sprintf("Rainfall rate (%s/hr)", s.RainUnit)
	case models.AxisWind:
		return fmt.Sprintf("Wind speed (%s)", s.WindUnit)
	case models.AxisDirection:
		return "Bearing"
	case models.AxisUV:
		return "UV index"
	case models.AxisSolar:
		return "Solar radiation (W/m²)"
	case models.AxisHumidity:
		return "Humidity (%)"
	case models.AxisHours:
		return "Sunshine (hrs)"
	case models.AxisEVT:
		return fmt.Sprintf("Evapotranspiration (%s)", s.RainUnit)
	case models.AxisDistance:
		return fmt.Sprintf("Wind run (%s)", windRunUnit(s.WindUnit))
	case models.AxisDegreeDays:
		return "Degree days"
	case models.AxisAQ:
		return "Particulates (µg/m³)"
	case models.AxisPpm:
		return "CO₂ (ppm)"
	}

	name := ax.Category.String()
	if ax.Category == models.AxisSoilMoisture {
		name = "Soil moisture"
	}
	if ax.Unit != "" {
		return fmt.Sprintf("%s (%s)", name, ax.Unit)
	}
	return name
}

func windRunUnit(windUnit string) string {
	switch strings.ToLower(windUnit) {
	case "mph":
		return "miles"
	case "kts", "knots":
		return "nm"
	default:
		return "km"
	}
}
