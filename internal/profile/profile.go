// Package profile defines named sensor parameter profiles for the telemetry
// simulator, with an embedded registry and a YAML file loader.
package profile

import (
	"sort"
	"time"

	"github.com/arloliu/turbsim/internal/telemetry"
)

// Profile bundles everything needed to simulate one sensor: the generator
// parameters, the emission interval, and asset identity.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// AssetIDPrefix plus AssetNumber (zero-padded to three digits) forms the
	// asset id, e.g. "HPE_Turbine" + 7 -> "HPE_Turbine007".
	AssetIDPrefix string `yaml:"assetIdPrefix" default:"Turbine"`
	AssetNumber   int    `yaml:"assetNumber" default:"7"`

	// Interval is the wall-clock period between ticks in run mode.
	Interval time.Duration `yaml:"interval" default:"10s" validate:"gt=0"`

	Params telemetry.Params `yaml:"params"`
}

// Registry holds all available profiles.
var Registry = map[string]*Profile{}

func init() {
	Register(GRX2Turbine())
	Register(BenchDemo())
}

// Register adds a profile to the registry.
func Register(p *Profile) {
	Registry[p.Name] = p
}

// Get retrieves a profile by name.
func Get(name string) (*Profile, bool) {
	p, ok := Registry[name]
	return p, ok
}

// List returns all registered profile names, sorted.
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
