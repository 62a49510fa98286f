package units

import "strings"

// unit is a linear conversion into the base unit of its family:
// base = value*scale + offset.
type unit struct {
	family string
	scale  float64
	offset float64
}

var table = map[string]unit{
	// temperature, base K
	"k":       {"temperature", 1, 0},
	"kelvin":  {"temperature", 1, 0},
	"degc":    {"temperature", 1, 273.15},
	"c":       {"temperature", 1, 273.15},
	"celsius": {"temperature", 1, 273.15},
	"degf":    {"temperature", 5.0 / 9.0, 273.15 - 32*5.0/9.0},
	"f":       {"temperature", 5.0 / 9.0, 273.15 - 32*5.0/9.0},

	// length, base m
	"m":  {"length", 1, 0},
	"km": {"length", 1000, 0},
	"cm": {"length", 0.01, 0},
	"mm": {"length", 0.001, 0},
	"ft": {"length", 0.3048, 0},
	"in": {"length", 0.0254, 0},
	"mi": {"length", 1609.344, 0},

	// speed, base m/s
	"m/s":   {"speed", 1, 0},
	"m s-1": {"speed", 1, 0},
	"km/h":  {"speed", 1000.0 / 3600.0, 0},
	"km/hr": {"speed", 1000.0 / 3600.0, 0},
	"mph":   {"speed", 0.44704, 0},
	"kt":    {"speed", 1852.0 / 3600.0, 0},
	"knot":  {"speed", 1852.0 / 3600.0, 0},
	"knots": {"speed", 1852.0 / 3600.0, 0},
	"cm/s":  {"speed", 0.01, 0},

	// pressure, base Pa
	"pa":   {"pressure", 1, 0},
	"hpa":  {"pressure", 100, 0},
	"kpa":  {"pressure", 1000, 0},
	"mbar": {"pressure", 100, 0},
	"mb":   {"pressure", 100, 0},
	"bar":  {"pressure", 100000, 0},
	"atm":  {"pressure", 101325, 0},
	"mmhg": {"pressure", 133.322387415, 0},
	"inhg": {"pressure", 3386.389, 0},

	// time, base s
	"s":       {"time", 1, 0},
	"sec":     {"time", 1, 0},
	"seconds": {"time", 1, 0},
	"ms":      {"time", 0.001, 0},
	"min":     {"time", 60, 0},
	"minutes": {"time", 60, 0},
	"h":       {"time", 3600, 0},
	"hr":      {"time", 3600, 0},
	"hours":   {"time", 3600, 0},
	"day":     {"time", 86400, 0},
	"days":    {"time", 86400, 0},

	// dimensionless fraction, base 1
	"1":        {"fraction", 1, 0},
	"fraction": {"fraction", 1, 0},
	"%":        {"fraction", 0.01, 0},
	"percent":  {"fraction", 0.01, 0},

	// mass ratio, base kg/kg
	"kg/kg": {"mass ratio", 1, 0},
	"g/kg":  {"mass ratio", 0.001, 0},

	// angle, base degree
	"degree":  {"angle", 1, 0},
	"degrees": {"angle", 1, 0},
	"deg":     {"angle", 1, 0},
	"rad":     {"angle", 57.29577951308232, 0},
	"radian":  {"angle", 57.29577951308232, 0},
	"radians": {"angle", 57.29577951308232, 0},

	// irradiance, base W/m^2
	"w/m^2":  {"irradiance", 1, 0},
	"w/m2":   {"irradiance", 1, 0},
	"w m-2":  {"irradiance", 1, 0},
	"kw/m^2": {"irradiance", 1000, 0},
	"kw/m2":  {"irradiance", 1000, 0},

	// precipitation rate, base mm/h
	"mm/h":  {"precipitation rate", 1, 0},
	"mm/hr": {"precipitation rate", 1, 0},
	"in/h":  {"precipitation rate", 25.4, 0},
	"in/hr": {"precipitation rate", 25.4, 0},
}

func lookup(name string) (unit, bool) {
	u, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return u, ok
}
