// Package registry holds the static table of supported agricultural locations.
package registry

import (
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// India centroid, used for unrecognized locations
const (
	DefaultLat = 20.5937
	DefaultLon = 78.9629
)

var builtin = []domain.Location{
	{
		Name:        "Anand",
		Coordinates: [2]float64{22.5645, 72.9289},
		Region:      "Gujarat",
		Climate:     domain.ClimateSemiArid,
		MajorCrops:  []string{"Cotton", "Wheat", "Sugarcane", "Tobacco"},
	},
	{
		Name:        "Jhagdia",
		Coordinates: [2]float64{21.7500, 73.1500},
		Region:      "Gujarat",
		Climate:     domain.ClimateHumid,
		MajorCrops:  []string{"Rice", "Cotton", "Sugarcane", "Banana"},
	},
	{
		Name:        "Kota",
		Coordinates: [2]float64{25.2138, 75.8648},
		Region:      "Rajasthan",
		Climate:     domain.ClimateArid,
		MajorCrops:  []string{"Wheat", "Soybean", "Mustard", "Coriander"},
	},
	{
		Name:        "Maddur",
		Coordinates: [2]float64{12.5847, 77.0128},
		Region:      "Karnataka",
		Climate:     domain.ClimateTropical,
		MajorCrops:  []string{"Rice", "Ragi", "Coconut", "Areca nut"},
	},
	{
		Name:        "Talala",
		Coordinates: [2]float64{21.3500, 70.3000},
		Region:      "Gujarat",
		Climate:     domain.ClimateCoastal,
		MajorCrops:  []string{"Groundnut", "Cotton", "Mango", "Coconut"},
	},
}

var (
	mu    sync.RWMutex
	table = index(builtin)
)

func index(locs []domain.Location) map[string]domain.Location {
	m := make(map[string]domain.Location, len(locs))
	for _, loc := range locs {
		m[key(loc.Name)] = loc
	}
	return m
}

// clone detaches a record from the shared table
func clone(loc domain.Location) domain.Location {
	loc.MajorCrops = slices.Clone(loc.MajorCrops)
	return loc
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Default returns the generic record used for unrecognized names
func Default(name string) domain.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown"
	}
	return domain.Location{
		Name:        name,
		Coordinates: [2]float64{DefaultLat, DefaultLon},
		Region:      "Unknown",
		Climate:     domain.ClimateOther,
		MajorCrops:  []string{"Mixed"},
	}
}

// Lookup returns the registered location, or the default record. It never fails.
func Lookup(name string) domain.Location {
	mu.RLock()
	loc, ok := table[key(name)]
	mu.RUnlock()
	if !ok {
		return Default(name)
	}
	return clone(loc)
}

// Known reports whether name is a registered location
func Known(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := table[key(name)]
	return ok
}

// All returns every registered location sorted by name
func All() []domain.Location {
	mu.RLock()
	out := make([]domain.Location, 0, len(table))
	for _, loc := range table {
		out = append(out, clone(loc))
	}
	mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered location names sorted
func Names() []string {
	locs := All()
	names := make([]string, len(locs))
	for i, loc := range locs {
		names[i] = loc.Name
	}
	return names
}

// Nearest returns the registered location closest to the given point and its distance in km
func Nearest(lat, lon float64) (domain.Location, float64) {
	best := Default("")
	bestDist := math.Inf(1)
	for _, loc := range All() {
		d := utils.Haversine(lat, lon, loc.Latitude(), loc.Longitude())
		if d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best, bestDist
}

type fileFormat struct {
	Locations []domain.Location `yaml:"locations"`
}

// LoadFile replaces the registry table with the locations listed in a YAML file
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("registry: failed to read %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("registry: failed to parse %s: %w", path, err)
	}
	if len(f.Locations) == 0 {
		return fmt.Errorf("registry: %s lists no locations", path)
	}
	for i, loc := range f.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("registry: location #%d has no name", i+1)
		}
		if len(loc.MajorCrops) == 0 {
			f.Locations[i].MajorCrops = []string{"Mixed"}
		}
	}

	mu.Lock()
	table = index(f.Locations)
	mu.Unlock()
	return nil
}

// Reset restores the built-in table
func Reset() {
	mu.Lock()
	table = index(builtin)
	mu.Unlock()
}
