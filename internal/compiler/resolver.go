package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"stationcharts/internal/logger"
	"stationcharts/internal/models"
)

// columnrange series carry a 3 character prefix (min/max/avg) on their field name
const rangePrefixLen = 3

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// reserved identifiers an equation may use that are not variables
var equationFuncs = map[string]bool{
	"sum": true, "ln": true, "sqrt": true, "exp": true, "pow": true,
	"math": true, "e": true, "pi": true,
}

// VarSet is the de-duplicated variable list of one output file, in registration order.
// A JSON field of one datafile gets exactly one array, and array names are
// unique ignoring case.
type VarSet struct {
	vars    []models.AllVarInfo
	index   map[string]int
	sources map[string]int
}

func newVarSet() *VarSet {
	return &VarSet{index: make(map[string]int), sources: make(map[string]int)}
}

func sourceKey(typeName, datafile string) string {
	if typeName == "" || datafile == "" {
		return ""
	}
	return strings.ToLower(typeName) + "\x00" + datafile
}

// Add registers v and returns the entry its data is served from. A field
// already registered under any name is reused. A new field whose keyword is
// taken by another field gets a fresh array name.
func (s *VarSet) Add(v models.AllVarInfo) models.AllVarInfo {
	src := sourceKey(v.TypeName, v.Datafile)
	if i, ok := s.sources[src]; ok && src != "" {
		return s.vars[i]
	}

	key := strings.ToLower(v.KeywordName)
	if i, ok := s.index[key]; ok {
		if src == "" || sourceKey(s.vars[i].TypeName, s.vars[i].Datafile) == "" {
			return s.vars[i]
		}
		v.KeywordName = s.freeName(v)
		key = strings.ToLower(v.KeywordName)
	}

	s.index[key] = len(s.vars)
	if src != "" {
		s.sources[src] = len(s.vars)
	}
	s.vars = append(s.vars, v)
	return v
}

// freeName picks an unused array name for a keyword clash. ALL snapshot
// variables take an All suffix, anything else a number.
func (s *VarSet) freeName(v models.AllVarInfo) string {
	if v.Datafile == UserdataAll {
		if _, taken := s.index[strings.ToLower(v.KeywordName+"All")]; !taken {
			return v.KeywordName + "All"
		}
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s%d", v.KeywordName, n)
		if _, taken := s.index[strings.ToLower(name)]; !taken {
			return name
		}
	}
}

// Get returns the entry registered for keyword
func (s *VarSet) Get(keyword string) (models.AllVarInfo, bool) {
	i, ok := s.index[strings.ToLower(keyword)]
	if !ok {
		return models.AllVarInfo{}, false
	}
	return s.vars[i], true
}

// Find returns the entry serving a JSON field of a datafile
func (s *VarSet) Find(typeName, datafile string) (models.AllVarInfo, bool) {
	i, ok := s.sources[sourceKey(typeName, datafile)]
	if !ok {
		return models.AllVarInfo{}, false
	}
	return s.vars[i], true
}

// List returns the registered variables in order
func (s *VarSet) List() []models.AllVarInfo {
	return s.vars
}

// Datafiles returns the distinct non-empty datafiles in first-use order
func (s *VarSet) Datafiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, v := range s.vars {
		if v.Datafile == "" || seen[v.Datafile] {
			continue
		}
		seen[v.Datafile] = true
		files = append(files, v.Datafile)
	}
	return files
}

// Resolve builds the runtime variable list for all charts of one output file
// and fills every equation variable's EqAllVarList. An equation variable with
// an unknown range aborts the whole resolution.
func Resolve(charts []*models.ChartDef) ([]models.AllVarInfo, error) {
	set, err := resolve(charts, logger.Component("resolver"))
	if err != nil {
		return nil, err
	}
	return set.List(), nil
}

func resolve(charts []*models.ChartDef, log *logger.Logger) (*VarSet, error) {
	set := newVarSet()

	for _, c := range charts {
		for _, p := range c.PlotVars {
			if p.HasEquation() {
				continue
			}
			set.Add(models.AllVarInfo{KeywordName: p.Keyword, TypeName: p.PlotVar, Datafile: p.Datafile})
		}
	}

	for _, c := range charts {
		for _, p := range c.PlotVars {
			if p.GraphType == "columnrange" {
				lo, hi, ok := rangePair(p)
				if !ok {
					log.Error("columnrange variable name too short", nil, logger.Fields{"chart": c.Id, "plotvar": p.PlotVar})
					continue
				}
				set.Add(lo)
				set.Add(hi)
			}

			if !p.HasEquation() {
				continue
			}
			if err := resolveEquation(set, c, p, log); err != nil {
				return nil, err
			}
		}
	}

	log.Debug("resolved variables", logger.Fields{"charts": len(charts), "variables": len(set.vars)})
	return set, nil
}

// rangePair derives the min/max variables backing a columnrange series
func rangePair(p *models.Plotvar) (models.AllVarInfo, models.AllVarInfo, bool) {
	if len(p.PlotVar) <= rangePrefixLen {
		return models.AllVarInfo{}, models.AllVarInfo{}, false
	}
	suffix := p.PlotVar[rangePrefixLen:]
	lo := models.AllVarInfo{KeywordName: "min" + suffix, TypeName: "min" + suffix, Datafile: p.Datafile}
	hi := models.AllVarInfo{KeywordName: "max" + suffix, TypeName: "max" + suffix, Datafile: p.Datafile}
	return lo, hi, true
}

func resolveEquation(set *VarSet, c *models.ChartDef, p *models.Plotvar, log *logger.Logger) error {
	table, err := TableFor(p.Range)
	if err != nil {
		log.Error("equation variable has an unknown range", err, logger.Fields{"chart": c.Id, "keyword": p.Keyword})
		return fmt.Errorf("chart %s, %s: %w", c.Id, p.Keyword, err)
	}

	p.EqAllVarList = nil
	for _, tok := range equationIdents(*p.Equation) {
		info, ok := table.Lookup(tok)
		if !ok {
			// A variable declared by another plot of this file is usable too
			if v, found := set.Get(tok); found {
				p.EqAllVarList = appendVar(p.EqAllVarList, v)
				continue
			}
			log.Error("equation references an unknown variable", nil, logger.Fields{
				"chart": c.Id, "keyword": p.Keyword, "variable": tok, "range": p.Range.String(),
			})
			continue
		}

		v := set.Add(models.AllVarInfo{
			KeywordName: info.Keyword,
			TypeName:    info.Type,
			Datafile:    DatafileFor(info, p.Range),
		})
		p.EqAllVarList = appendVar(p.EqAllVarList, v)
	}

	return nil
}

// equationIdents returns the distinct identifiers of a formula that may name
// variables, in order of first use. Function names, member accesses and
// numeric exponents are left out.
func equationIdents(formula string) []string {
	var idents []string
	seen := make(map[string]bool)
	for _, loc := range identRe.FindAllStringIndex(formula, -1) {
		start := loc[0]
		if start > 0 && (formula[start-1] == '.' || isDigit(formula[start-1])) {
			continue
		}
		tok := formula[start:loc[1]]
		lower := strings.ToLower(tok)
		if seen[lower] || equationFuncs[lower] {
			continue
		}
		seen[lower] = true
		idents = append(idents, tok)
	}
	return idents
}

func appendVar(list []models.AllVarInfo, v models.AllVarInfo) []models.AllVarInfo {
	for _, have := range list {
		if have.KeywordName == v.KeywordName {
			return list
		}
	}
	return append(list, v)
}
