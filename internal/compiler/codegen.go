package compiler

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"stationcharts/internal/logger"
	"stationcharts/internal/models"
)

// Wind files merged into WindBarbData
const (
	windSpeedFile     = "wdata.json"
	windSpeedField    = "wspeed"
	windDirectionFile = "wdirdata.json"
	windBearingField  = "avgbearing"
)

// AjaxName returns the loader function name for a datafile
func AjaxName(datafile string) string {
	return jsIdent(strings.TrimSuffix(datafile, ".json")) + "Ajax"
}

// ContainerID returns the id of the div a chart renders into
func ContainerID(chartID string) string {
	return "chartcontainer" + jsIdent(chartID)
}

func doName(chartID string) string        { return "do" + jsIdent(chartID) }
func addSeriesName(chartID string) string { return jsIdent(chartID) + "AddSeries" }

func hasWindBarbs(charts []*models.ChartDef) bool {
	for _, c := range charts {
		if c.HasWindBarbs {
			return true
		}
	}
	return false
}

// menuHTML renders the chart selector and one container per chart
func (p *pass) menuHTML(charts []*models.ChartDef) string {
	var sb strings.Builder
	sb.WriteString("<select id=\"graphmenu\" onchange=\"SetGraphView(this.value)\">\n")
	for _, c := range charts {
		title := c.Title
		if title == "" {
			title = c.Id
		}
		fmt.Fprintf(&sb, "  <option value=\"%s\">%s</option>\n", html.EscapeString(jsIdent(c.Id)), html.EscapeString(title))
	}
	sb.WriteString("</select>\n")
	for _, c := range charts {
		fmt.Fprintf(&sb, "<div id=\"%s\" class=\"chartcontainer\"></div>\n", ContainerID(c.Id))
	}
	return sb.String()
}

func (p *pass) css() string {
	return fmt.Sprintf("<style>\n.chartcontainer { height: %dpx; margin: 0 auto; display: none; }\n#graphmenu { margin: 5px; }\n</style>\n",
		p.settings.ChartHeight)
}

// menuJS renders the dispatcher that switches charts and keeps the choice in the URL
func (p *pass) menuJS(charts []*models.ChartDef) string {
	first := jsString(jsIdent(charts[0].Id))

	var sb strings.Builder
	sb.WriteString("var chart;\n")
	sb.WriteString("function SetGraphView(id) {\n")
	fmt.Fprintf(&sb, "  if (!$('#chartcontainer' + id).length) id = %s;\n", first)
	sb.WriteString("  var url = new URL(window.location.href);\n")
	sb.WriteString("  url.searchParams.set('chart', id);\n")
	sb.WriteString("  window.history.replaceState(null, '', url);\n")
	sb.WriteString("  $('#graphmenu').val(id);\n")
	sb.WriteString("  $('.chartcontainer').hide();\n")
	sb.WriteString("  $('#chartcontainer' + id).show();\n")
	sb.WriteString("  if (chart) { chart.destroy(); chart = undefined; }\n")
	sb.WriteString("  switch (id) {\n")
	for _, c := range charts {
		fmt.Fprintf(&sb, "    case %s: %s(); break;\n", jsString(jsIdent(c.Id)), doName(c.Id))
	}
	sb.WriteString("  }\n")
	sb.WriteString("}\n")
	sb.WriteString("function ChartFromURL() {\n")
	sb.WriteString("  var id = new URL(window.location.href).searchParams.get('chart');\n")
	fmt.Fprintf(&sb, "  return id === null ? %s : id;\n", first)
	sb.WriteString("}\n")
	return sb.String()
}

// initJS declares every runtime array and starts the loaders
func (p *pass) initJS(charts []*models.ChartDef) string {
	var sb strings.Builder
	sb.WriteString("Highcharts.setOptions({ time: { useUTC: false } });\n")
	for _, v := range p.vars.List() {
		fmt.Fprintf(&sb, "var %s = [];\n", jsIdent(v.KeywordName))
	}
	sb.WriteString("var WindBarbData = [];\n")
	sb.WriteString("var sumResult = [];\n")
	sb.WriteString("var i;\n")

	var loaders []string
	for _, f := range p.vars.Datafiles() {
		loaders = append(loaders, AjaxName(f)+"()")
	}
	if hasWindBarbs(charts) {
		loaders = append(loaders, "WindBarbsAjax()")
	}

	sb.WriteString("$(function () {\n")
	fmt.Fprintf(&sb, "  $.when(%s).done(function () {\n", strings.Join(loaders, ", "))
	sb.WriteString("    SetGraphView(ChartFromURL());\n")
	sb.WriteString("  });\n")
	sb.WriteString("});\n")
	return sb.String()
}

// ajaxJS renders one loader per datafile filling all arrays sourced from it
func (p *pass) ajaxJS(charts []*models.ChartDef) string {
	var sb strings.Builder
	for _, f := range p.vars.Datafiles() {
		fmt.Fprintf(&sb, "function %s() {\n", AjaxName(f))
		fmt.Fprintf(&sb, "  return $.ajax({ url: %s, cache: false, dataType: 'json' })\n", jsString(f))
		sb.WriteString("  .done(function (resp) {\n")
		for _, v := range p.vars.List() {
			if v.Datafile != f {
				continue
			}
			name := jsIdent(v.KeywordName)
			field := jsString(v.TypeName)
			fmt.Fprintf(&sb, "    %s = [];\n", name)
			fmt.Fprintf(&sb, "    if (resp[%s]) resp[%s].forEach(function (item) { %s.push([item[0], item[1]]); });\n", field, field, name)
		}
		sb.WriteString("  });\n")
		sb.WriteString("}\n")
	}

	if hasWindBarbs(charts) {
		sb.WriteString("function WindBarbsAjax() {\n")
		sb.WriteString("  return $.when(\n")
		fmt.Fprintf(&sb, "    $.ajax({ url: %s, cache: false, dataType: 'json' }),\n", jsString(windSpeedFile))
		fmt.Fprintf(&sb, "    $.ajax({ url: %s, cache: false, dataType: 'json' })\n", jsString(windDirectionFile))
		sb.WriteString("  ).done(function (speedResp, dirResp) {\n")
		fmt.Fprintf(&sb, "    var speed = speedResp[0][%s] || [];\n", jsString(windSpeedField))
		fmt.Fprintf(&sb, "    var dir = dirResp[0][%s] || [];\n", jsString(windBearingField))
		sb.WriteString("    var bearing = {};\n")
		sb.WriteString("    dir.forEach(function (item) { bearing[item[0]] = item[1]; });\n")
		sb.WriteString("    WindBarbData = [];\n")
		sb.WriteString("    speed.forEach(function (item) { if (item[0] in bearing) WindBarbData.push([item[0], item[1], bearing[item[0]]]); });\n")
		sb.WriteString("  });\n")
		sb.WriteString("}\n")
	}
	return sb.String()
}

// chartJS renders do<Id>() and <Id>AddSeries(chart) for one chart
func (p *pass) chartJS(c *models.ChartDef) (string, error) {
	axes := p.unifyAxes(c)

	options, err := marshalJS(p.chartOptions(c))
	if err != nil {
		return "", fmt.Errorf("chart %s: %w", c.Id, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s() {\n", doName(c.Id))
	fmt.Fprintf(&sb, "  var options = %s;\n", options)
	sb.WriteString("  chart = new Highcharts.StockChart(options);\n")
	sb.WriteString("  chart.showLoading();\n")
	for _, ax := range axes.Axes {
		axisJS, err := marshalJS(ax.Options)
		if err != nil {
			return "", fmt.Errorf("chart %s, axis %s: %w", c.Id, ax.ID, err)
		}
		fmt.Fprintf(&sb, "  chart.addAxis(%s, false, false);\n", axisJS)
	}
	fmt.Fprintf(&sb, "  %s(chart);\n", addSeriesName(c.Id))
	if c.HasInfo && strings.TrimSpace(c.InfoText) != "" {
		sb.WriteString(p.infoJS(c))
	}
	sb.WriteString("  chart.hideLoading();\n")
	sb.WriteString("  chart.redraw();\n")
	sb.WriteString("}\n")

	sb.WriteString(p.addSeriesJS(c, axes))
	return sb.String(), nil
}

func (p *pass) chartOptions(c *models.ChartDef) map[string]interface{} {
	buttons := p.rangeButtons(c.Range)
	selected := c.Zoom
	if selected < 0 || selected >= len(buttons) {
		selected = len(buttons) - 1
	}

	chartType := "line"
	if c.HasScatter {
		chartType = "scatter"
	}

	xDateFormat := "%A, %b %e, %H:%M"
	if c.Range == models.RangeDaily || c.Range == models.RangeAll {
		xDateFormat = "%A, %b %e, %Y"
	}

	opts := map[string]interface{}{
		"chart": map[string]interface{}{
			"renderTo":   ContainerID(c.Id),
			"type":       chartType,
			"zoomType":   "x",
			"alignTicks": false,
		},
		"title":   map[string]interface{}{"text": c.Title},
		"credits": map[string]interface{}{"enabled": true},
		"legend":  map[string]interface{}{"enabled": true},
		"rangeSelector": map[string]interface{}{
			"buttons":      buttons,
			"selected":     selected,
			"inputEnabled": false,
		},
		"navigator": map[string]interface{}{"enabled": true},
		"xAxis": map[string]interface{}{
			"type":    "datetime",
			"ordinal": false,
			"dateTimeLabelFormats": map[string]interface{}{
				"day":   "%e %b",
				"week":  "%e %b %y",
				"month": "%b %y",
				"year":  "%Y",
			},
		},
		"yAxis": []interface{}{},
		"tooltip": map[string]interface{}{
			"shared":      true,
			"split":       false,
			"xDateFormat": xDateFormat,
		},
		"plotOptions": map[string]interface{}{
			"series": map[string]interface{}{
				"dataGrouping": map[string]interface{}{"enabled": false},
			},
		},
		"series": []interface{}{},
	}
	if c.HasScatter {
		opts["plotOptions"].(map[string]interface{})["scatter"] = map[string]interface{}{
			"marker": map[string]interface{}{"enabled": true, "radius": 2},
		}
	}
	return opts
}

// rangeButtons sizes the range selector from the configured windows
func (p *pass) rangeButtons(r models.PlotvarRangeType) []interface{} {
	button := func(typ string, count int, text string) interface{} {
		b := map[string]interface{}{"type": typ, "text": text}
		if count > 0 {
			b["count"] = count
		}
		return b
	}

	var buttons []interface{}
	switch r {
	case models.RangeDaily:
		if p.settings.DailyGraphDays > 7 {
			buttons = append(buttons, button("day", 7, "7d"))
		}
		if p.settings.DailyGraphDays > 31 {
			buttons = append(buttons, button("month", 1, "1m"))
		}
	case models.RangeAll:
		buttons = append(buttons,
			button("month", 1, "1m"),
			button("month", 3, "3m"),
			button("month", 6, "6m"),
			button("year", 1, "1y"),
			button("ytd", 0, "YTD"))
	default:
		for _, h := range []int{6, 12, 24, 48} {
			if h < p.settings.GraphHours {
				buttons = append(buttons, button("hour", h, fmt.Sprintf("%dh", h)))
			}
		}
	}
	return append(buttons, button("all", 0, "All"))
}

// infoJS adds a button toggling a label with the chart's rendered notes
func (p *pass) infoJS(c *models.ChartDef) string {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(c.InfoText), &buf); err != nil {
		p.log.Error("failed to render chart info", err, logger.Fields{"chart": c.Id})
		buf.Reset()
		buf.WriteString(html.EscapeString(c.InfoText))
	}
	text := jsString(strings.TrimSpace(buf.String()))

	var sb strings.Builder
	sb.WriteString("  chart.renderer.button('Info', chart.plotLeft, 10, function () {\n")
	sb.WriteString("    if (chart.infoLabel) { chart.infoLabel.destroy(); chart.infoLabel = undefined; return; }\n")
	fmt.Fprintf(&sb, "    chart.infoLabel = chart.renderer.label(%s, chart.plotLeft + 10, chart.plotTop + 10, null, null, null, true)\n", text)
	sb.WriteString("      .attr({ fill: 'rgba(255, 255, 255, 0.9)', padding: 8, r: 5, zIndex: 10 })\n")
	sb.WriteString("      .css({ width: '300px' })\n")
	sb.WriteString("      .add();\n")
	sb.WriteString("  }).add();\n")
	return sb.String()
}

// addSeriesJS renders <Id>AddSeries(chart). Equation series that cannot be
// rewritten are logged and left out.
func (p *pass) addSeriesJS(c *models.ChartDef, axes *axisSet) string {
	var helper, body strings.Builder
	firstSeries := ""

	for _, pv := range c.PlotVars {
		name := p.seriesVar(pv)
		data := name

		switch {
		case pv.HasEquation():
			eq, err := RewriteEquation(pv)
			if err != nil {
				p.log.Error("equation series not supported", err, logger.Fields{"chart": c.Id, "keyword": pv.Keyword})
				continue
			}
			if eq.Sum != "" {
				helper.WriteString(p.sumFunction())
			}
			eq.Keyword = name
			body.WriteString(eq.JS())
		case pv.GraphType == "columnrange":
			lo, hi, ok := rangePair(pv)
			if !ok {
				p.log.Error("columnrange series not supported", nil, logger.Fields{"chart": c.Id, "keyword": pv.Keyword})
				continue
			}
			loName, hiName := p.rangeVar(lo), p.rangeVar(hi)
			data = name + "Range"
			fmt.Fprintf(&body, "  var %s = [];\n", data)
			fmt.Fprintf(&body, "  for (i=0; i<%s.length && i<%s.length; i++) %s.push([%s[i][0], %s[i][1], %s[i][1]]);\n",
				loName, hiName, data, loName, loName, hiName)
		}

		axisID := axes.AxisFor(pv.Keyword)
		fmt.Fprintf(&body, "  chart.addSeries(%s, false);\n", mustJS(p.seriesOptions(c, pv, name, data, axisID)))
		if pv.IsStats || pv.GraphType == "sma" {
			fmt.Fprintf(&body, "  chart.addSeries(%s, false);\n", mustJS(smaOptions(pv, name, axisID)))
		}
		if firstSeries == "" {
			firstSeries = name
		}
	}

	if c.HasWindBarbs {
		fmt.Fprintf(&body, "  chart.addSeries(%s, false);\n", mustJS(p.windBarbOptions(c, firstSeries)))
	}

	var sb strings.Builder
	sb.WriteString(helper.String())
	fmt.Fprintf(&sb, "function %s(chart) {\n", addSeriesName(c.Id))
	sb.WriteString(body.String())
	sb.WriteString("}\n")
	return sb.String()
}

// seriesVar returns the runtime array name of a plot variable. An equation
// whose keyword is also a global array fills a local array of its own, so the
// global stays visible inside <Id>AddSeries.
func (p *pass) seriesVar(pv *models.Plotvar) string {
	if pv.HasEquation() {
		if _, clash := p.vars.Get(pv.Keyword); clash {
			return jsIdent(pv.Keyword) + "Eq"
		}
		return jsIdent(pv.Keyword)
	}
	if v, ok := p.vars.Find(pv.PlotVar, pv.Datafile); ok {
		return jsIdent(v.KeywordName)
	}
	if v, ok := p.vars.Get(pv.Keyword); ok {
		return jsIdent(v.KeywordName)
	}
	return jsIdent(pv.Keyword)
}

// rangeVar returns the array serving one half of a columnrange pair
func (p *pass) rangeVar(v models.AllVarInfo) string {
	if have, ok := p.vars.Find(v.TypeName, v.Datafile); ok {
		return jsIdent(have.KeywordName)
	}
	return jsIdent(v.KeywordName)
}

func (p *pass) seriesOptions(c *models.ChartDef, pv *models.Plotvar, name, data, axisID string) map[string]interface{} {
	opts := map[string]interface{}{
		"id":      name,
		"name":    pv.Keyword,
		"data":    jsCode(data),
		"yAxis":   axisID,
		"type":    seriesType(c, pv),
		"visible": pv.Visible,
	}
	if pv.Color != "" {
		opts["color"] = pv.Color
	}
	if pv.LineWidth > 0 {
		opts["lineWidth"] = pv.LineWidth
	}
	if pv.Opacity > 0 {
		opts["opacity"] = pv.Opacity
	}
	if pv.ZIndex != 0 {
		opts["zIndex"] = pv.ZIndex
	}
	if pv.Unit != "" {
		opts["tooltip"] = map[string]interface{}{"valueSuffix": " " + pv.Unit}
	}
	return opts
}

func seriesType(c *models.ChartDef, pv *models.Plotvar) string {
	switch pv.GraphType {
	case "sma":
		return "spline"
	case "":
		if c.HasScatter {
			return "scatter"
		}
		return "line"
	default:
		return pv.GraphType
	}
}

func smaOptions(pv *models.Plotvar, name, axisID string) map[string]interface{} {
	period := pv.Period
	if period <= 0 {
		period = 10
	}
	opts := map[string]interface{}{
		"type":     "sma",
		"linkedTo": name,
		"name":     pv.Keyword + " SMA",
		"yAxis":    axisID,
		"params":   map[string]interface{}{"period": period},
		"visible":  pv.Visible,
		"marker":   map[string]interface{}{"enabled": false},
	}
	if pv.Color != "" {
		opts["color"] = pv.Color
	}
	return opts
}

func (p *pass) windBarbOptions(c *models.ChartDef, firstSeries string) map[string]interface{} {
	color := c.WindBarbColor
	if color == "" {
		color = p.settings.WindBarbColor
	}
	opts := map[string]interface{}{
		"type":         "windbarb",
		"id":           "WindBarbs",
		"name":         "Wind",
		"data":         jsCode("WindBarbData"),
		"color":        color,
		"showInLegend": false,
		"tooltip":      map[string]interface{}{"valueSuffix": " " + p.settings.WindUnit},
	}
	if !c.WindBarbsBelow && firstSeries != "" {
		opts["onSeries"] = firstSeries
	}
	return opts
}
