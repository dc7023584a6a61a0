package agents

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/tilecity/internal/world"
)

// DwellRange is an inclusive hour range.
type DwellRange struct {
	Min Hours `yaml:"min"`
	Max Hours `yaml:"max"`
}

// ZoneRules holds the dwell bounds for each activity tile and the window
// residents leave home in.
type ZoneRules struct {
	Departure DwellRange
	Dwell     map[world.Tile]DwellRange
}

// DefaultZoneRules returns the stock dwell table.
func DefaultZoneRules() ZoneRules {
	return ZoneRules{
		Departure: DwellRange{Min: 4, Max: 8},
		Dwell: map[world.Tile]DwellRange{
			world.TileOffice: {Min: 4, Max: 8},
			world.TileMall:   {Min: 4, Max: 10},
			world.TileSchool: {Min: 8, Max: 12},
			world.TilePark:   {Min: 2, Max: 6},
		},
	}
}

// DwellFor returns the dwell bounds for an activity tile. Asking for any other
// tile is an invariant violation.
func (z ZoneRules) DwellFor(t world.Tile) DwellRange {
	if !t.IsActivity() {
		panic(fmt.Sprintf("agents: no dwell range for %s", t))
	}
	r, ok := z.Dwell[t]
	if !ok {
		panic(fmt.Sprintf("agents: dwell range for %s not configured", t))
	}
	return r
}

type zoneRulesFile struct {
	Departure DwellRange            `yaml:"departure"`
	Dwell     map[string]DwellRange `yaml:"dwell"`
}

// LoadZoneRules reads a YAML rules table over the defaults. Tiles not named in
// the file keep their default bounds.
func LoadZoneRules(path string) (ZoneRules, error) {
	rules := DefaultZoneRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read zone rules: %w", err)
	}
	var f zoneRulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return rules, fmt.Errorf("parse zone rules: %w", err)
	}

	if f.Departure != (DwellRange{}) {
		if err := f.Departure.validate(); err != nil {
			return rules, fmt.Errorf("departure: %w", err)
		}
		rules.Departure = f.Departure
	}
	for name, r := range f.Dwell {
		t, err := world.ParseTile(name)
		if err != nil {
			return rules, fmt.Errorf("dwell: %w", err)
		}
		if !t.IsActivity() {
			return rules, fmt.Errorf("dwell: %s is not an activity zone", t)
		}
		if err := r.validate(); err != nil {
			return rules, fmt.Errorf("dwell %s: %w", t, err)
		}
		rules.Dwell[t] = r
	}
	return rules, nil
}

func (r DwellRange) validate() error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("invalid range [%d, %d]", r.Min, r.Max)
	}
	return nil
}
