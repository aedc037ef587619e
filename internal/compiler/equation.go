package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"stationcharts/internal/models"
)

// SumFunction is the running-total helper shared by every sum() equation of
// a file. The total restarts at the first sample and on 1 January local time.
const SumFunction = `function sum(curVal, valArray, curIndex, thisEpochDate) {
  var thisDate = new Date(thisEpochDate);
  if (curIndex == 0 || (thisDate.getMonth() == 0 && thisDate.getDate() == 1)) return curVal;
  return valArray[curIndex - 1][1] + curVal;
}
`

var mathFuncs = map[string]string{
	"ln":   "Math.log",
	"sqrt": "Math.sqrt",
	"exp":  "Math.exp",
	"pow":  "Math.pow",
}

var sumCallRe = regexp.MustCompile(`(?i)\bsum\s*\(`)

// Equation is a rewritten formula ready to be emitted as push loops
type Equation struct {
	Keyword string
	// Driver is the array timestamps are taken from
	Driver string
	// Sum is the rewritten argument of sum(), empty when the formula has none
	Sum  string
	Expr string
}

// RewriteEquation translates the plot variable's formula into JavaScript
// indexed by the loop variable i. The variable must have been resolved.
func RewriteEquation(p *models.Plotvar) (*Equation, error) {
	if !p.HasEquation() {
		return nil, fmt.Errorf("%s: %w", p.Keyword, ErrBadEquation)
	}
	if len(p.EqAllVarList) == 0 {
		return nil, fmt.Errorf("%s: %w", p.Keyword, ErrNoEquationVars)
	}

	src := strings.TrimSpace(*p.Equation)
	if err := checkParens(src); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Keyword, err)
	}

	eq := &Equation{
		Keyword: jsIdent(p.Keyword),
		Driver:  jsIdent(p.EqAllVarList[0].KeywordName),
	}

	vars := newVarMatcher(p)
	calls := sumCallRe.FindAllStringIndex(src, -1)
	switch len(calls) {
	case 0:
		eq.Expr = rewriteExpr(src, vars)
	case 1:
		open := calls[0][1] - 1
		end := matchingParen(src, open)
		inner := src[open+1 : end]
		if strings.TrimSpace(inner) == "" {
			return nil, fmt.Errorf("%s: empty sum(): %w", p.Keyword, ErrBadEquation)
		}
		eq.Sum = rewriteExpr(inner, vars)
		eq.Expr = rewriteExpr(src[:calls[0][0]], vars) +
			"sumResult[i][1]" +
			rewriteExpr(src[end+1:], vars)
	default:
		return nil, fmt.Errorf("%s: only one sum() per equation: %w", p.Keyword, ErrBadEquation)
	}

	return eq, nil
}

// JS returns the statements filling the equation's array
func (e *Equation) JS() string {
	var sb strings.Builder
	d := e.Driver
	fmt.Fprintf(&sb, "  var %s = [];\n", e.Keyword)
	if e.Sum != "" {
		sb.WriteString("  sumResult = [];\n")
		fmt.Fprintf(&sb, "  for (i=0; i<%s.length; i++) sumResult.push([%s[i][0], sum(%s, sumResult, i, %s[i][0])]);\n", d, d, e.Sum, d)
	}
	fmt.Fprintf(&sb, "  for (i=0; i<%s.length; i++) %s.push([%s[i][0], %s]);\n", d, e.Keyword, d, e.Expr)
	return sb.String()
}

// rewriteExpr maps functions to Math and variable names to their value at index i
func rewriteExpr(s string, vars *varMatcher) string {
	var sb strings.Builder
	last := 0
	for _, loc := range identRe.FindAllStringIndex(s, -1) {
		start, end := loc[0], loc[1]
		tok := s[start:end]
		sb.WriteString(s[last:start])
		last = end

		// member access or the exponent of a numeric literal
		if start > 0 && (s[start-1] == '.' || isDigit(s[start-1])) {
			sb.WriteString(tok)
			continue
		}

		lower := strings.ToLower(tok)
		if fn, ok := mathFuncs[lower]; ok && nextNonSpace(s, end) == '(' {
			sb.WriteString(fn)
			continue
		}
		if v, ok := vars.find(tok); ok {
			sb.WriteString(jsIdent(v.KeywordName))
			sb.WriteString("[i][1]")
			continue
		}
		sb.WriteString(tok)
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// varMatcher maps the names a formula uses onto its resolved variables
type varMatcher struct {
	vars  []models.AllVarInfo
	table *KeywordTable
	r     models.PlotvarRangeType
}

func newVarMatcher(p *models.Plotvar) *varMatcher {
	table, _ := TableFor(p.Range)
	return &varMatcher{vars: p.EqAllVarList, table: table, r: p.Range}
}

// find matches the array name first, then the field the keyword table names
// (the array may be shared under another name), then the field name itself.
func (m *varMatcher) find(name string) (models.AllVarInfo, bool) {
	for _, v := range m.vars {
		if strings.EqualFold(v.KeywordName, name) {
			return v, true
		}
	}
	if m.table != nil {
		if info, ok := m.table.Lookup(name); ok {
			file := DatafileFor(info, m.r)
			for _, v := range m.vars {
				if strings.EqualFold(v.TypeName, info.Type) && v.Datafile == file {
					return v, true
				}
			}
		}
	}
	for _, v := range m.vars {
		if strings.EqualFold(v.TypeName, name) {
			return v, true
		}
	}
	return models.AllVarInfo{}, false
}

func checkParens(s string) error {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced ')': %w", ErrBadEquation)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced '(': %w", ErrBadEquation)
	}
	return nil
}

// matchingParen returns the index of the ')' closing the '(' at open.
// Parentheses are known to be balanced.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(s) - 1
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return s[i]
		}
	}
	return 0
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
