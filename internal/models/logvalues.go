package models

import (
	"sort"
	"strings"
	"time"
)

// DayfileValue is one line of the daily summary log
type DayfileValue struct {
	ThisDate           time.Time
	HighWindGust       float64
	HighGustBearing    float64
	MinTemp            float64
	MaxTemp            float64
	MinPressure        float64
	MaxPressure        float64
	MaxRainRate        float64
	TotalRain          float64
	AvgTemp            float64
	WindRun            float64
	HighAvgWind        float64
	LowHumidity        float64
	HighHumidity       float64
	Evapotranspiration float64
	SunHours           float64
	HighHeatIndex      float64
	HighAppTemp        float64
	LowAppTemp         float64
	HighHourlyRain     float64
	LowWindChill       float64
	HighDewPoint       float64
	LowDewPoint        float64
	DominantWindDir    float64
	HeatingDegreeDays  float64
	CoolingDegreeDays  float64
	HighSolarRad       float64
	HighUV             float64
	HighFeelsLike      float64
	LowFeelsLike       float64
	HighHumidex        float64
}

// MonthfileValue is one interval record of a monthly log
type MonthfileValue struct {
	ThisDate           time.Time
	Temperature        float64
	Humidity           float64
	DewPoint           float64
	WindSpeed          float64
	WindGust           float64
	WindBearing        float64
	RainRate           float64
	RainToday          float64
	Pressure           float64
	RainCounter        float64
	InsideTemp         float64
	InsideHumidity     float64
	LatestGust         float64
	WindChill          float64
	HeatIndex          float64
	UV                 float64
	SolarRad           float64
	Evapotranspiration float64
	AnnualET           float64
	ApparentTemp       float64
	MaxSolarRad        float64
	SunHours           float64
	CurrentBearing     float64
	RG11Rain           float64
	RainSinceMidnight  float64
	FeelsLike          float64
	Humidex            float64
}

// DayfileFields maps a lower-case field name to its accessor
var DayfileFields = map[string]func(*DayfileValue) float64{
	"highwindgust":       func(v *DayfileValue) float64 { return v.HighWindGust },
	"highgustbearing":    func(v *DayfileValue) float64 { return v.HighGustBearing },
	"mintemp":            func(v *DayfileValue) float64 { return v.MinTemp },
	"maxtemp":            func(v *DayfileValue) float64 { return v.MaxTemp },
	"minpressure":        func(v *DayfileValue) float64 { return v.MinPressure },
	"maxpressure":        func(v *DayfileValue) float64 { return v.MaxPressure },
	"maxrainrate":        func(v *DayfileValue) float64 { return v.MaxRainRate },
	"totalrain":          func(v *DayfileValue) float64 { return v.TotalRain },
	"avgtemp":            func(v *DayfileValue) float64 { return v.AvgTemp },
	"windrun":            func(v *DayfileValue) float64 { return v.WindRun },
	"highavgwind":        func(v *DayfileValue) float64 { return v.HighAvgWind },
	"lowhumidity":        func(v *DayfileValue) float64 { return v.LowHumidity },
	"highhumidity":       func(v *DayfileValue) float64 { return v.HighHumidity },
	"evapotranspiration": func(v *DayfileValue) float64 { return v.Evapotranspiration },
	"sunhours":           func(v *DayfileValue) float64 { return v.SunHours },
	"highheatindex":      func(v *DayfileValue) float64 { return v.HighHeatIndex },
	"highapptemp":        func(v *DayfileValue) float64 { return v.HighAppTemp },
	"lowapptemp":         func(v *DayfileValue) float64 { return v.LowAppTemp },
	"highhourlyrain":     func(v *DayfileValue) float64 { return v.HighHourlyRain },
	"lowwindchill":       func(v *DayfileValue) float64 { return v.LowWindChill },
	"highdewpoint":       func(v *DayfileValue) float64 { return v.HighDewPoint },
	"lowdewpoint":        func(v *DayfileValue) float64 { return v.LowDewPoint },
	"dominantwinddir":    func(v *DayfileValue) float64 { return v.DominantWindDir },
	"heatingdegreedays":  func(v *DayfileValue) float64 { return v.HeatingDegreeDays },
	"coolingdegreedays":  func(v *DayfileValue) float64 { return v.CoolingDegreeDays },
	"highsolarrad":       func(v *DayfileValue) float64 { return v.HighSolarRad },
	"highuv":             func(v *DayfileValue) float64 { return v.HighUV },
	"highfeelslike":      func(v *DayfileValue) float64 { return v.HighFeelsLike },
	"lowfeelslike":       func(v *DayfileValue) float64 { return v.LowFeelsLike },
	"highhumidex":        func(v *DayfileValue) float64 { return v.HighHumidex },
}

// MonthfileFields maps a lower-case field name to its accessor
var MonthfileFields = map[string]func(*MonthfileValue) float64{
	"temperature":        func(v *MonthfileValue) float64 { return v.Temperature },
	"humidity":           func(v *MonthfileValue) float64 { return v.Humidity },
	"dewpoint":           func(v *MonthfileValue) float64 { return v.DewPoint },
	"windspeed":          func(v *MonthfileValue) float64 { return v.WindSpeed },
	"windgust":           func(v *MonthfileValue) float64 { return v.WindGust },
	"windbearing":        func(v *MonthfileValue) float64 { return v.WindBearing },
	"rainrate":           func(v *MonthfileValue) float64 { return v.RainRate },
	"raintoday":          func(v *MonthfileValue) float64 { return v.RainToday },
	"pressure":           func(v *MonthfileValue) float64 { return v.Pressure },
	"insidetemp":         func(v *MonthfileValue) float64 { return v.InsideTemp },
	"insidehumidity":     func(v *MonthfileValue) float64 { return v.InsideHumidity },
	"windchill":          func(v *MonthfileValue) float64 { return v.WindChill },
	"heatindex":          func(v *MonthfileValue) float64 { return v.HeatIndex },
	"uv":                 func(v *MonthfileValue) float64 { return v.UV },
	"solarrad":           func(v *MonthfileValue) float64 { return v.SolarRad },
	"evapotranspiration": func(v *MonthfileValue) float64 { return v.Evapotranspiration },
	"apparenttemp":       func(v *MonthfileValue) float64 { return v.ApparentTemp },
	"maxsolarrad":        func(v *MonthfileValue) float64 { return v.MaxSolarRad },
	"sunhours":           func(v *MonthfileValue) float64 { return v.SunHours },
	"feelslike":          func(v *MonthfileValue) float64 { return v.FeelsLike },
	"humidex":            func(v *MonthfileValue) float64 { return v.Humidex },
}

// DayfileAccessor looks up a dayfile field by name, ignoring case
func DayfileAccessor(name string) (func(*DayfileValue) float64, bool) {
	f, ok := DayfileFields[strings.ToLower(name)]
	return f, ok
}

// MonthfileAccessor looks up a monthly log field by name, ignoring case
func MonthfileAccessor(name string) (func(*MonthfileValue) float64, bool) {
	f, ok := MonthfileFields[strings.ToLower(name)]
	return f, ok
}

// FieldNames returns the sorted keys of an accessor table
func FieldNames[T any](table map[string]func(*T) float64) []string {
	names := make([]string, 0, len(table))
	for k := range table {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
