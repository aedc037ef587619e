package compiler

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"stationcharts/internal/logger"
	"stationcharts/internal/models"
)

// Output is the generated code of one output file
type Output struct {
	ID      string
	Menu    string
	CSS     string
	MenuJS  string
	InitJS  string
	AjaxJS  string
	ChartJS string
	// Vars are the runtime arrays the file declares
	Vars []models.AllVarInfo
}

// FileName returns the name the bundled fragment is stored under
func (o *Output) FileName() string {
	return o.ID + "charts.txt"
}

// Bundle concatenates the artefacts into the HTML fragment served to the browser
func (o *Output) Bundle() string {
	var sb strings.Builder
	sb.WriteString(o.CSS)
	sb.WriteString(o.Menu)
	sb.WriteString("<script>\n")
	sb.WriteString(o.MenuJS)
	sb.WriteString(o.InitJS)
	sb.WriteString(o.AjaxJS)
	sb.WriteString(o.ChartJS)
	sb.WriteString("</script>\n")
	return sb.String()
}

// Compiler turns chart definitions into browser code
type Compiler struct {
	settings Settings
	log      *logger.Logger
	md       goldmark.Markdown
}

// New creates a compiler for a station's settings
func New(settings Settings) *Compiler {
	return &Compiler{
		settings: settings,
		log:      logger.Component("codegen"),
		md:       goldmark.New(),
	}
}

// Compile generates the code for all charts of one output file. Broken
// series and axes are logged and left out; only an unresolvable variable
// list fails the file.
func (c *Compiler) Compile(outputID string, charts []*models.ChartDef) (*Output, error) {
	if len(charts) == 0 {
		return nil, fmt.Errorf("output %s: %w", outputID, ErrNoCharts)
	}

	p := newPass(c.settings, c.log, c.md)
	vars, err := resolve(charts, logger.Component("resolver"))
	if err != nil {
		return nil, fmt.Errorf("output %s: %w", outputID, err)
	}
	p.vars = vars

	out := &Output{
		ID:     outputID,
		Menu:   p.menuHTML(charts),
		CSS:    p.css(),
		MenuJS: p.menuJS(charts),
		InitJS: p.initJS(charts),
		AjaxJS: p.ajaxJS(charts),
		Vars:   vars.List(),
	}

	var chartJS strings.Builder
	for _, ch := range charts {
		js, err := p.chartJS(ch)
		if err != nil {
			c.log.Error("chart skipped", err, logger.Fields{"output": outputID, "chart": ch.Id})
			continue
		}
		chartJS.WriteString(js)
	}
	out.ChartJS = chartJS.String()

	c.log.Info("compiled output", logger.Fields{
		"output":    outputID,
		"charts":    len(charts),
		"variables": len(out.Vars),
		"datafiles": len(vars.Datafiles()),
	})
	return out, nil
}
