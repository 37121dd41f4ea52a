package domain

import (
	"strings"
)

// Climate is the climate class of a registered location
type Climate int

const (
	ClimateOther Climate = iota
	ClimateArid
	ClimateSemiArid
	ClimateHumid
	ClimateTropical
	ClimateCoastal
)

var climateNames = map[Climate]string{
	ClimateOther:    "other",
	ClimateArid:     "arid",
	ClimateSemiArid: "semi-arid",
	ClimateHumid:    "humid",
	ClimateTropical: "tropical",
	ClimateCoastal:  "coastal",
}

// Climates lists every climate class in declaration order
func Climates() []Climate {
	return []Climate{ClimateOther, ClimateArid, ClimateSemiArid, ClimateHumid, ClimateTropical, ClimateCoastal}
}

// String returns the display name used in API payloads
func (c Climate) String() string {
	if name, ok := climateNames[c]; ok {
		return name
	}
	return climateNames[ClimateOther]
}

// ParseClimate maps free-form climate text to a Climate. Unknown text maps to ClimateOther.
func ParseClimate(s string) Climate {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)

	switch key {
	case "arid":
		return ClimateArid
	case "semi-arid", "semiarid":
		return ClimateSemiArid
	case "humid":
		return ClimateHumid
	case "tropical":
		return ClimateTropical
	case "coastal":
		return ClimateCoastal
	default:
		return ClimateOther
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Climate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Climate) UnmarshalText(text []byte) error {
	*c = ParseClimate(string(text))
	return nil
}

// Location is a named agricultural site with its climate and crops
type Location struct {
	Name        string     `json:"location" yaml:"name"`
	Coordinates [2]float64 `json:"coordinates" yaml:"coordinates"` // lat, lon
	Region      string     `json:"region" yaml:"region"`
	Climate     Climate    `json:"climate" yaml:"climate"`
	MajorCrops  []string   `json:"crops" yaml:"crops"`
}

// Latitude returns the first coordinate
func (l Location) Latitude() float64 { return l.Coordinates[0] }

// Longitude returns the second coordinate
func (l Location) Longitude() float64 { return l.Coordinates[1] }
