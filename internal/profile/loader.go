package profile

import (
	"fmt"

	"github.com/arloliu/fuda"
)

// LoadFromFile loads a custom profile from a YAML file using fuda for
// parsing, defaults and env overrides.
func LoadFromFile(path string) (*Profile, error) {
	var p Profile
	if err := fuda.LoadFile(path, &p); err != nil {
		return nil, fmt.Errorf("failed to load profile file: %w", err)
	}

	if p.Name == "" {
		return nil, fmt.Errorf("profile name is required")
	}

	return &p, nil
}

// AssetID renders the asset identifier, e.g. "Turbine007".
func (p *Profile) AssetID() string {
	return fmt.Sprintf("%s%03d", p.AssetIDPrefix, p.AssetNumber)
}
