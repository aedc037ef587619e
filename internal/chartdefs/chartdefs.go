package chartdefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	"stationcharts/internal/compiler"
	"stationcharts/internal/models"
)

var idRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Definitions are the charts of one output file
type Definitions struct {
	Output string
	Charts []*models.ChartDef
}

type document struct {
	Output string     `yaml:"output"`
	Charts []chartDoc `yaml:"charts"`
}

type chartDoc struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Range          string    `yaml:"range"`
	Zoom           *int      `yaml:"zoom"`
	WindBarbs      bool      `yaml:"windbarbs"`
	WindBarbsBelow bool      `yaml:"windbarbsbelow"`
	WindBarbColor  string    `yaml:"windbarbcolor"`
	Scatter        bool      `yaml:"scatter"`
	Info           string    `yaml:"info"`
	Plots          []plotDoc `yaml:"plots"`
}

type plotDoc struct {
	Keyword   string  `yaml:"keyword"`
	PlotVar   string  `yaml:"plotvar"`
	Datafile  string  `yaml:"datafile"`
	GraphType string  `yaml:"graphtype"`
	Axis      string  `yaml:"axis"`
	Color     string  `yaml:"color"`
	Unit      string  `yaml:"unit"`
	LineWidth int     `yaml:"linewidth"`
	Opacity   float64 `yaml:"opacity"`
	ZIndex    int     `yaml:"zindex"`
	Visible   *bool   `yaml:"visible"`
	Period    int     `yaml:"period"`
	Equation  string  `yaml:"equation"`
	Stats     bool    `yaml:"stats"`
}

// Load reads a definition file. The output id defaults to the file name.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart definitions: %w", err)
	}

	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if defs.Output == "" {
		defs.Output = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return defs, nil
}

// Parse decodes and validates definitions
func Parse(data []byte) (*Definitions, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse chart definitions: %w", err)
	}
	if len(doc.Charts) == 0 {
		return nil, errors.New("no charts defined")
	}

	defs := &Definitions{Output: doc.Output}
	seen := make(map[string]bool)
	for i, cd := range doc.Charts {
		c, err := cd.toChart()
		if err != nil {
			return nil, fmt.Errorf("chart %d (%s): %w", i+1, cd.ID, err)
		}
		key := strings.ToLower(c.Id)
		if seen[key] {
			return nil, fmt.Errorf("chart %d: duplicate id %q", i+1, c.Id)
		}
		seen[key] = true
		defs.Charts = append(defs.Charts, c)
	}
	return defs, nil
}

func (cd chartDoc) toChart() (*models.ChartDef, error) {
	if !idRe.MatchString(cd.ID) {
		return nil, fmt.Errorf("invalid id %q", cd.ID)
	}
	if len(cd.Plots) == 0 {
		return nil, errors.New("chart has no plots")
	}

	r := models.RangeRecent
	if cd.Range != "" {
		var err error
		if r, err = models.ParseRangeType(cd.Range); err != nil {
			return nil, err
		}
	}

	c := &models.ChartDef{
		Id:             cd.ID,
		Title:          cd.Title,
		Range:          r,
		Zoom:           -1,
		HasWindBarbs:   cd.WindBarbs,
		WindBarbsBelow: cd.WindBarbsBelow,
		WindBarbColor:  cd.WindBarbColor,
		HasScatter:     cd.Scatter,
		HasInfo:        strings.TrimSpace(cd.Info) != "",
		InfoText:       cd.Info,
	}
	if c.Title == "" {
		c.Title = c.Id
	}
	if cd.Zoom != nil {
		c.Zoom = *cd.Zoom
	}

	for j, pd := range cd.Plots {
		p, err := pd.toPlotvar(r)
		if err != nil {
			return nil, fmt.Errorf("plot %d (%s): %w", j+1, pd.Keyword, err)
		}
		c.PlotVars = append(c.PlotVars, p)
	}
	c.Axis = c.UnionAxis()
	return c, nil
}

func (pd plotDoc) toPlotvar(r models.PlotvarRangeType) (*models.Plotvar, error) {
	if !idRe.MatchString(pd.Keyword) {
		return nil, fmt.Errorf("invalid keyword %q", pd.Keyword)
	}

	p := &models.Plotvar{
		Keyword:   pd.Keyword,
		PlotVar:   pd.PlotVar,
		Datafile:  pd.Datafile,
		GraphType: strings.ToLower(pd.GraphType),
		Color:     pd.Color,
		Unit:      pd.Unit,
		LineWidth: pd.LineWidth,
		Opacity:   pd.Opacity,
		ZIndex:    pd.ZIndex,
		Visible:   pd.Visible == nil || *pd.Visible,
		Period:    pd.Period,
		IsStats:   pd.Stats,
		Range:     r,
	}
	if eq := strings.TrimSpace(pd.Equation); eq != "" {
		p.Equation = &eq
	}

	if pd.Axis != "" {
		a, err := models.ParseAxisType(pd.Axis)
		if err != nil {
			return nil, err
		}
		p.Axis = a
	}

	if !p.HasEquation() {
		table, err := compiler.TableFor(r)
		if err != nil {
			return nil, err
		}
		if info, ok := table.Lookup(p.Keyword); ok {
			if p.PlotVar == "" {
				p.PlotVar = info.Type
			}
			if p.Datafile == "" {
				p.Datafile = compiler.DatafileFor(info, r)
			}
			if p.Axis == models.AxisNone {
				p.Axis = info.Axis
			}
		}
		if p.PlotVar == "" || p.Datafile == "" {
			return nil, errors.New("unknown keyword needs plotvar and datafile")
		}
	}

	if p.Axis == models.AxisNone {
		return nil, errors.New("axis is required")
	}
	if !p.Axis.IsSingle() {
		return nil, fmt.Errorf("plot axis must be a single category, got %s", p.Axis)
	}
	return p, nil
}
