package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stationcharts/internal/models"
)

func equation(s string) *string { return &s }

func chart(id string, r models.PlotvarRangeType, plots ...*models.Plotvar) *models.ChartDef {
	for _, p := range plots {
		p.Range = r
	}
	c := &models.ChartDef{Id: id, Title: id, Range: r, PlotVars: plots}
	c.Axis = c.UnionAxis()
	return c
}

func TestResolveSinglePlot(t *testing.T) {
	charts := []*models.ChartDef{
		chart("Temp1", models.RangeRecent, &models.Plotvar{Keyword: "outTemp", PlotVar: "outTemp", Datafile: "tempdata.json", Axis: models.AxisTemp}),
	}

	vars, err := Resolve(charts)
	require.NoError(t, err)
	assert.Equal(t, []models.AllVarInfo{{KeywordName: "outTemp", TypeName: "outTemp", Datafile: "tempdata.json"}}, vars)
}

func TestResolveDeduplicatesIgnoringCase(t *testing.T) {
	charts := []*models.ChartDef{
		chart("A", models.RangeRecent, &models.Plotvar{Keyword: "Temperature", PlotVar: "temp", Datafile: "tempdata.json"}),
		chart("B", models.RangeRecent,
			&models.Plotvar{Keyword: "temperature", PlotVar: "temp", Datafile: "tempdata.json"},
			&models.Plotvar{Keyword: "Humidity", PlotVar: "hum", Datafile: "humdata.json"},
		),
	}

	vars, err := Resolve(charts)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "Temperature", vars[0].KeywordName)
	assert.Equal(t, "Humidity", vars[1].KeywordName)
}

func TestResolveColumnRange(t *testing.T) {
	charts := []*models.ChartDef{
		chart("Daily", models.RangeDaily, &models.Plotvar{
			Keyword: "DailyTemp", PlotVar: "avgTemp", Datafile: "alldailytempdata.json", GraphType: "columnrange",
		}),
	}

	vars, err := Resolve(charts)
	require.NoError(t, err)
	assert.Equal(t, []models.AllVarInfo{
		{KeywordName: "DailyTemp", TypeName: "avgTemp", Datafile: "alldailytempdata.json"},
		{KeywordName: "minTemp", TypeName: "minTemp", Datafile: "alldailytempdata.json"},
		{KeywordName: "maxTemp", TypeName: "maxTemp", Datafile: "alldailytempdata.json"},
	}, vars)
}

func TestResolveEquationReusesEntries(t *testing.T) {
	spread := &models.Plotvar{Keyword: "DewSpread", Equation: equation("Temperature - dewpoint"), Axis: models.AxisTemp}
	feels := &models.Plotvar{Keyword: "Offset", Equation: equation("Temperature + 1"), Axis: models.AxisTemp}
	charts := []*models.ChartDef{
		chart("A", models.RangeRecent,
			&models.Plotvar{Keyword: "Temperature", PlotVar: "temp", Datafile: "tempdata.json"},
			spread,
		),
		chart("B", models.RangeRecent, feels),
	}

	vars, err := Resolve(charts)
	require.NoError(t, err)
	assert.Equal(t, []models.AllVarInfo{
		{KeywordName: "Temperature", TypeName: "temp", Datafile: "tempdata.json"},
		{KeywordName: "Dewpoint", TypeName: "dew", Datafile: "tempdata.json"},
	}, vars)

	assert.Equal(t, []models.AllVarInfo{vars[0], vars[1]}, spread.EqAllVarList)
	assert.Equal(t, []models.AllVarInfo{vars[0]}, feels.EqAllVarList)
}

func TestResolveEquationMatchesWholeNames(t *testing.T) {
	diff := &models.Plotvar{Keyword: "Diff", Equation: equation("ExtraTemp10 - ExtraTemp1")}
	_, err := Resolve([]*models.ChartDef{chart("X", models.RangeExtra, diff)})
	require.NoError(t, err)

	require.Len(t, diff.EqAllVarList, 2)
	assert.Equal(t, "ExtraTemp10", diff.EqAllVarList[0].KeywordName)
	assert.Equal(t, "ExtraTemp1", diff.EqAllVarList[1].KeywordName)
	assert.Equal(t, "extratempdata.json", diff.EqAllVarList[0].Datafile)
}

func TestResolveEquationByFieldName(t *testing.T) {
	sumRain := &models.Plotvar{Keyword: "sumRain", Equation: equation("sum(rfall)")}
	vars, err := Resolve([]*models.ChartDef{chart("Rain", models.RangeRecent, sumRain)})
	require.NoError(t, err)

	assert.Equal(t, []models.AllVarInfo{{KeywordName: "Rainfall", TypeName: "rfall", Datafile: "raindata.json"}}, vars)
	assert.Equal(t, vars, sumRain.EqAllVarList)
}

func TestResolveAllRangeUsesAllSnapshot(t *testing.T) {
	daily := &models.Plotvar{Keyword: "HDD", Equation: equation("HeatingDegreeDays")}
	all := &models.Plotvar{Keyword: "CDD", Equation: equation("CoolingDegreeDays")}
	vars, err := Resolve([]*models.ChartDef{
		chart("D", models.RangeDaily, daily),
		chart("A", models.RangeAll, all),
	})
	require.NoError(t, err)

	require.Len(t, vars, 2)
	assert.Equal(t, UserdataDaily, vars[0].Datafile)
	assert.Equal(t, UserdataAll, vars[1].Datafile)
}

func TestResolveUnknownRange(t *testing.T) {
	bad := &models.Plotvar{Keyword: "Bad", Equation: equation("Temperature")}
	c := chart("X", models.RangeRecent, bad)
	bad.Range = models.PlotvarRangeType(42)

	vars, err := Resolve([]*models.ChartDef{c})
	assert.Nil(t, vars)
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestResolveUnknownEquationVariable(t *testing.T) {
	bad := &models.Plotvar{Keyword: "Bad", Equation: equation("NoSuchThing * 2")}
	vars, err := Resolve([]*models.ChartDef{chart("X", models.RangeRecent, bad)})
	require.NoError(t, err)
	assert.Empty(t, vars)
	assert.Empty(t, bad.EqAllVarList)
}

func TestResolveVariableCount(t *testing.T) {
	charts := []*models.ChartDef{
		chart("A", models.RangeRecent,
			&models.Plotvar{Keyword: "Temperature", PlotVar: "temp", Datafile: "tempdata.json"},
			&models.Plotvar{Keyword: "Humidity", PlotVar: "hum", Datafile: "humdata.json"},
			&models.Plotvar{Keyword: "E1", Equation: equation("Temperature * Pressure")},
			&models.Plotvar{Keyword: "E2", Equation: equation("sqrt(WindSpeed) + Pressure")},
		),
		chart("B", models.RangeDaily,
			&models.Plotvar{Keyword: "Rng", PlotVar: "avgTemp", Datafile: "alldailytempdata.json", GraphType: "columnrange"},
			&models.Plotvar{Keyword: "humidity", PlotVar: "hum", Datafile: "humdata.json"},
		),
	}

	vars, err := Resolve(charts)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, v := range vars {
		key := strings.ToLower(v.KeywordName)
		assert.False(t, seen[key], "duplicate %s", v.KeywordName)
		seen[key] = true
	}

	// Temperature, Humidity, Rng + minTemp, maxTemp + Pressure, WindSpeed
	assert.Len(t, vars, 7)
}

func TestVarSetDatafiles(t *testing.T) {
	set := newVarSet()
	set.Add(models.AllVarInfo{KeywordName: "a", Datafile: "one.json"})
	set.Add(models.AllVarInfo{KeywordName: "b", Datafile: "two.json"})
	set.Add(models.AllVarInfo{KeywordName: "c", Datafile: "one.json"})
	set.Add(models.AllVarInfo{KeywordName: "d"})

	assert.Equal(t, []string{"one.json", "two.json"}, set.Datafiles())

	v, ok := set.Get("B")
	require.True(t, ok)
	assert.Equal(t, "b", v.KeywordName)
}

func TestResolveSameKeywordDailyAndAll(t *testing.T) {
	daily := &models.Plotvar{Keyword: "HeatingDegreeDays", PlotVar: "heatingdegreedays", Datafile: UserdataDaily, Axis: models.AxisDegreeDays}
	all := &models.Plotvar{Keyword: "HeatingDegreeDays", PlotVar: "heatingdegreedays", Datafile: UserdataAll, Axis: models.AxisDegreeDays}

	vars, err := Resolve([]*models.ChartDef{
		chart("D", models.RangeDaily, daily),
		chart("A", models.RangeAll, all),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.AllVarInfo{
		{KeywordName: "HeatingDegreeDays", TypeName: "heatingdegreedays", Datafile: UserdataDaily},
		{KeywordName: "HeatingDegreeDaysAll", TypeName: "heatingdegreedays", Datafile: UserdataAll},
	}, vars)
}

func TestResolveSameEquationVariableDailyAndAll(t *testing.T) {
	daily := &models.Plotvar{Keyword: "HDDx2", Equation: equation("HeatingDegreeDays * 2"), Axis: models.AxisDegreeDays}
	all := &models.Plotvar{Keyword: "HDDHalf", Equation: equation("HeatingDegreeDays / 2"), Axis: models.AxisDegreeDays}

	vars, err := Resolve([]*models.ChartDef{
		chart("D", models.RangeDaily, daily),
		chart("A", models.RangeAll, all),
	})
	require.NoError(t, err)
	require.Len(t, vars, 2)

	assert.Equal(t, []models.AllVarInfo{vars[0]}, daily.EqAllVarList)
	assert.Equal(t, []models.AllVarInfo{vars[1]}, all.EqAllVarList)
	assert.Equal(t, UserdataAll, all.EqAllVarList[0].Datafile)

	eq, err := RewriteEquation(all)
	require.NoError(t, err)
	assert.Equal(t, "HeatingDegreeDaysAll[i][1] / 2", eq.Expr)
}

func TestResolveKeywordClashGetsNumberedName(t *testing.T) {
	vars, err := Resolve([]*models.ChartDef{
		chart("A", models.RangeRecent, &models.Plotvar{Keyword: "Lightning", PlotVar: "strikes", Datafile: "lightning.json"}),
		chart("B", models.RangeRecent, &models.Plotvar{Keyword: "Lightning", PlotVar: "strikes", Datafile: "storm.json"}),
	})
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "Lightning", vars[0].KeywordName)
	assert.Equal(t, "Lightning2", vars[1].KeywordName)
	assert.Equal(t, "storm.json", vars[1].Datafile)
}

func TestResolveEquationSharesDeclaredField(t *testing.T) {
	byField := &models.Plotvar{Keyword: "sumRain", Equation: equation("sum(rfall)"), Axis: models.AxisRain}
	byKeyword := &models.Plotvar{Keyword: "RainX2", Equation: equation("Rainfall * 2"), Axis: models.AxisRain}
	vars, err := Resolve([]*models.ChartDef{
		chart("Rain", models.RangeRecent,
			&models.Plotvar{Keyword: "rfall", PlotVar: "rfall", Datafile: "raindata.json", Axis: models.AxisRain},
			byField,
			byKeyword,
		),
	})
	require.NoError(t, err)

	want := []models.AllVarInfo{{KeywordName: "rfall", TypeName: "rfall", Datafile: "raindata.json"}}
	assert.Equal(t, want, vars)
	assert.Equal(t, want, byField.EqAllVarList)
	assert.Equal(t, want, byKeyword.EqAllVarList)

	eq, err := RewriteEquation(byKeyword)
	require.NoError(t, err)
	assert.Equal(t, "rfall[i][1] * 2", eq.Expr)
}

func TestEquationIdents(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"Temperature * 1e3", []string{"Temperature"}},
		{"Math.PI * sqrt(Dewpoint) - temperature + Temperature", []string{"Dewpoint", "temperature"}},
		{"sum(rfall) + 2.5e-1", []string{"rfall"}},
		{"pow(x, 2) + ln(y)", []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			assert.Equal(t, tt.want, equationIdents(tt.formula))
		})
	}
}
