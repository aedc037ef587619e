package compiler

import (
	"fmt"
	"strings"

	"stationcharts/internal/models"
)

// UserdataPrefix marks datafiles produced by the historical emitter rather
// than by the host weather application.
const UserdataPrefix = "CUserdata"

// Snapshot file names written by the historical emitter
const (
	UserdataRecent = UserdataPrefix + "RECENT.json"
	UserdataDaily  = UserdataPrefix + "DAILY.json"
	UserdataAll    = UserdataPrefix + "ALL.json"
)

// KeywordInfo describes one variable a chart definition or an equation may name
type KeywordInfo struct {
	Keyword  string
	Type     string
	Datafile string
	Axis     models.AxisType
}

// IsUserdataFile reports whether a datafile name belongs to the emitter snapshots
func IsUserdataFile(datafile string) bool {
	return strings.HasPrefix(datafile, UserdataPrefix)
}

// KeywordTable is an ordered keyword list with case-insensitive lookup.
// A variable can be named by its keyword or by its JSON field name.
type KeywordTable struct {
	entries []KeywordInfo
	index   map[string]int
	types   map[string]int
}

func newTable(entries []KeywordInfo) *KeywordTable {
	t := &KeywordTable{
		entries: entries,
		index:   make(map[string]int, len(entries)),
		types:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		t.index[strings.ToLower(e.Keyword)] = i
		if _, dup := t.types[strings.ToLower(e.Type)]; !dup {
			t.types[strings.ToLower(e.Type)] = i
		}
	}
	return t
}

// Lookup finds a keyword, or failing that a field name, ignoring case
func (t *KeywordTable) Lookup(name string) (KeywordInfo, bool) {
	key := strings.ToLower(name)
	i, ok := t.index[key]
	if !ok {
		i, ok = t.types[key]
	}
	if !ok {
		return KeywordInfo{}, false
	}
	return t.entries[i], true
}

func kw(keyword, typ, datafile string, axis models.AxisType) KeywordInfo {
	return KeywordInfo{Keyword: keyword, Type: typ, Datafile: datafile, Axis: axis}
}

var recentTable = newTable([]KeywordInfo{
	kw("Temperature", "temp", "tempdata.json", models.AxisTemp),
	kw("Dewpoint", "dew", "tempdata.json", models.AxisTemp),
	kw("ApparentTemp", "apptemp", "tempdata.json", models.AxisTemp),
	kw("FeelsLike", "feelslike", "tempdata.json", models.AxisTemp),
	kw("WindChill", "wchill", "tempdata.json", models.AxisTemp),
	kw("HeatIndex", "heatindex", "tempdata.json", models.AxisTemp),
	kw("InsideTemp", "intemp", "tempdata.json", models.AxisTemp),
	kw("Humidex", "humidex", "tempdata.json", models.AxisTemp),
	kw("Humidity", "hum", "humdata.json", models.AxisHumidity),
	kw("InsideHumidity", "inhum", "humdata.json", models.AxisHumidity),
	kw("Pressure", "press", "pressdata.json", models.AxisPressure),
	kw("RainRate", "rrate", "raindata.json", models.AxisRrate),
	kw("Rainfall", "rfall", "raindata.json", models.AxisRain),
	kw("WindSpeed", "wspeed", "wdata.json", models.AxisWind),
	kw("WindGust", "wgust", "wdata.json", models.AxisWind),
	kw("Bearing", "bearing", "wdirdata.json", models.AxisDirection),
	kw("AverageBearing", "avgbearing", "wdirdata.json", models.AxisDirection),
	kw("UV", "UV", "solardata.json", models.AxisUV),
	kw("SolarRad", "SolarRad", "solardata.json", models.AxisSolar),
	kw("SolarTheoretical", "CurrentSolarMax", "solardata.json", models.AxisSolar),
	kw("ET", "evapotranspiration", UserdataRecent, models.AxisEVT),
	kw("SunHours", "sunhours", UserdataRecent, models.AxisHours),
})

// Daily and All charts share keywords; only the emitter snapshot they come from differs
var dailyTable = newTable([]KeywordInfo{
	kw("MinTemp", "minTemp", "alldailytempdata.json", models.AxisTemp),
	kw("MaxTemp", "maxTemp", "alldailytempdata.json", models.AxisTemp),
	kw("AvgTemp", "avgTemp", "alldailytempdata.json", models.AxisTemp),
	kw("MinHumidity", "minHum", "alldailyhumdata.json", models.AxisHumidity),
	kw("MaxHumidity", "maxHum", "alldailyhumdata.json", models.AxisHumidity),
	kw("MinPressure", "minBaro", "alldailypressdata.json", models.AxisPressure),
	kw("MaxPressure", "maxBaro", "alldailypressdata.json", models.AxisPressure),
	kw("MaxGust", "maxGust", "alldailywinddata.json", models.AxisWind),
	kw("MaxWind", "maxWind", "alldailywinddata.json", models.AxisWind),
	kw("WindRun", "windRun", "alldailywinddata.json", models.AxisDistance),
	kw("MaxRainRate", "maxRainRate", "alldailyraindata.json", models.AxisRrate),
	kw("Rain", "rain", "alldailyraindata.json", models.AxisRain),
	kw("DailySunHours", "sunHours", "alldailysolardata.json", models.AxisHours),
	kw("MaxSolarRad", "solarRad", "alldailysolardata.json", models.AxisSolar),
	kw("MaxUV", "uvi", "alldailysolardata.json", models.AxisUV),
	kw("GrowingDegreeDays1", "GDD1", "alldailydegdaydata.json", models.AxisDegreeDays),
	kw("GrowingDegreeDays2", "GDD2", "alldailydegdaydata.json", models.AxisDegreeDays),
	kw("HeatingDegreeDays", "heatingdegreedays", UserdataDaily, models.AxisDegreeDays),
	kw("CoolingDegreeDays", "coolingdegreedays", UserdataDaily, models.AxisDegreeDays),
	kw("Evapotranspiration", "evapotranspiration", UserdataDaily, models.AxisEVT),
	kw("MaxHumidex", "highhumidex", UserdataDaily, models.AxisTemp),
})

var extraTable = newTable(extraEntries())

func extraEntries() []KeywordInfo {
	var entries []KeywordInfo
	add := func(prefix, datafile string, n int, axis models.AxisType) {
		for i := 1; i <= n; i++ {
			name := fmt.Sprintf("%s%d", prefix, i)
			entries = append(entries, kw(name, strings.ToLower(name), datafile, axis))
		}
	}
	add("ExtraTemp", "extratempdata.json", 10, models.AxisTemp)
	add("ExtraHum", "extrahumdata.json", 10, models.AxisHumidity)
	add("ExtraDewPoint", "extradewdata.json", 10, models.AxisTemp)
	add("SoilTemp", "soiltempdata.json", 16, models.AxisTemp)
	add("SoilMoisture", "soilmoistdata.json", 16, models.AxisSoilMoisture)
	add("LeafWetness", "leafwetdata.json", 8, models.AxisFree)
	add("UserTemp", "usertempdata.json", 8, models.AxisTemp)
	entries = append(entries,
		kw("CO2", "co2", "co2sensordata.json", models.AxisPpm),
		kw("CO2Avg", "co2avg", "co2sensordata.json", models.AxisPpm),
		kw("PM2p5", "pm2p5", "co2sensordata.json", models.AxisAQ),
		kw("PM10", "pm10", "co2sensordata.json", models.AxisAQ),
	)
	return entries
}

// TableFor returns the keyword table serving a range
func TableFor(r models.PlotvarRangeType) (*KeywordTable, error) {
	switch r {
	case models.RangeRecent:
		return recentTable, nil
	case models.RangeDaily, models.RangeAll:
		return dailyTable, nil
	case models.RangeExtra:
		return extraTable, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRange, r)
	}
}

// DatafileFor returns the JSON file a keyword is fetched from for a range.
// Emitter-backed Daily keywords move to the ALL snapshot for All charts.
func DatafileFor(info KeywordInfo, r models.PlotvarRangeType) string {
	if r == models.RangeAll && info.Datafile == UserdataDaily {
		return UserdataAll
	}
	return info.Datafile
}
