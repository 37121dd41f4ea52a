package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

func TestLookup_Known(t *testing.T) {
	loc := Lookup("Kota")
	assert.Equal(t, "Kota", loc.Name)
	assert.Equal(t, "Rajasthan", loc.Region)
	assert.Equal(t, domain.ClimateArid, loc.Climate)
	assert.Equal(t, []string{"Wheat", "Soybean", "Mustard", "Coriander"}, loc.MajorCrops)
}

func TestLookup_CaseAndWhitespace(t *testing.T) {
	assert.Equal(t, "Anand", Lookup("  anand ").Name)
	assert.Equal(t, domain.ClimateCoastal, Lookup("TALALA").Climate)
}

func TestLookup_NeverFails(t *testing.T) {
	for _, name := range []string{"", "   ", "Atlantis", "kota-2", "\x00"} {
		loc := Lookup(name)
		assert.NotEmpty(t, loc.Name)
		assert.Equal(t, "Unknown", loc.Region)
		assert.Equal(t, domain.ClimateOther, loc.Climate)
		assert.Equal(t, []string{"Mixed"}, loc.MajorCrops)
		assert.Equal(t, [2]float64{DefaultLat, DefaultLon}, loc.Coordinates)
	}
	assert.Equal(t, "Unknown", Lookup("").Name)
	assert.Equal(t, "Atlantis", Lookup("Atlantis").Name)
}

func TestAllAndNames(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"Anand", "Jhagdia", "Kota", "Maddur", "Talala"}, names)
	assert.Len(t, All(), 5)
	assert.True(t, Known("maddur"))
	assert.False(t, Known("Mumbai"))
}

func TestNearest(t *testing.T) {
	loc, dist := Nearest(25.18, 75.83)
	assert.Equal(t, "Kota", loc.Name)
	assert.Less(t, dist, 10.0)

	loc, _ = Nearest(12.3, 76.6)
	assert.Equal(t, "Maddur", loc.Name)
}

func TestLoadFile(t *testing.T) {
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "locations.yaml")
	content := `
locations:
  - name: Nashik
    coordinates: [19.9975, 73.7898]
    region: Maharashtra
    climate: Semi-arid
    crops: [Grapes, Onion]
  - name: Ooty
    coordinates: [11.4102, 76.6950]
    region: Tamil Nadu
    climate: humid
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, LoadFile(path))

	assert.Equal(t, []string{"Nashik", "Ooty"}, Names())
	nashik := Lookup("nashik")
	assert.Equal(t, domain.ClimateSemiArid, nashik.Climate)
	assert.Equal(t, [2]float64{19.9975, 73.7898}, nashik.Coordinates)
	assert.Equal(t, []string{"Mixed"}, Lookup("Ooty").MajorCrops)
	assert.False(t, Known("Kota"))
}

func TestLoadFile_Errors(t *testing.T) {
	t.Cleanup(Reset)
	dir := t.TempDir()

	err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("locations: []\n"), 0o644))
	assert.Error(t, LoadFile(empty))

	unnamed := filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(unnamed, []byte("locations:\n  - region: X\n"), 0o644))
	assert.Error(t, LoadFile(unnamed))

	// failed loads leave the built-in table in place
	assert.True(t, Known("Kota"))
}

func TestLookup_ReturnsDetachedCrops(t *testing.T) {
	loc := Lookup("Kota")
	loc.MajorCrops[0] = "Tampered"
	loc.MajorCrops = append(loc.MajorCrops, "Extra")

	for _, l := range All() {
		l.MajorCrops[0] = "Tampered"
	}
	near, _ := Nearest(25.2, 75.9)
	near.MajorCrops[0] = "Tampered"

	assert.Equal(t, []string{"Wheat", "Soybean", "Mustard", "Coriander"}, Lookup("Kota").MajorCrops)
}
