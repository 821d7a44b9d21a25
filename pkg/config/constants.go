// Copyright 2025 Lumina Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed constants.yml
var defaultConstants []byte

// DefaultReservedRegions is applied when a constants file does not list any
// reserved region overrides. The reserved catalog calls us-east-1 "us-east"
// while every other region keeps its public name.
var DefaultReservedRegions = map[string]string{"us-east": "us-east-1"}

// Constants holds the pricing catalog vocabulary.
//
// Every table maps a catalog-internal name to its public name. Catalog tokens
// are case-sensitive ("stdODI"), which is why constants are decoded with
// yaml.v3 rather than Viper (Viper lower-cases map keys).
type Constants struct {
	// Regions maps on-demand catalog region names to public regions.
	Regions map[string]string `yaml:"regions"`

	// ReservedRegions maps reserved catalog region names to public regions.
	// Public regions missing from this table are used unchanged. A nil map
	// means DefaultReservedRegions; an explicit empty map disables overrides.
	ReservedRegions map[string]string `yaml:"reservedRegions"`

	// Types maps catalog instance family tokens to public families (m1, m3...).
	Types map[string]string `yaml:"types"`

	// Subtypes maps catalog size tokens to public sizes (small, large...).
	Subtypes map[string]string `yaml:"subtypes"`

	// URLs locates the three pricing documents.
	URLs CatalogURLs `yaml:"urls"`
}

// CatalogURLs are the locations of the pricing catalog documents.
type CatalogURLs struct {
	OnDemand     string `yaml:"ondemand"`
	HeavyLinux   string `yaml:"heavylinux"`
	HeavyWindows string `yaml:"heavywin"`
}

// LoadConstants reads the constants file at path. An empty path returns the
// constants embedded in the binary.
func LoadConstants(path string) (*Constants, error) {
	if path == "" {
		return DefaultConstants()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constants file %s: %w", path, err)
	}

	c, err := ParseConstants(data)
	if err != nil {
		return nil, fmt.Errorf("constants file %s: %w", path, err)
	}
	return c, nil
}

// DefaultConstants returns the embedded constants.
func DefaultConstants() (*Constants, error) {
	return ParseConstants(defaultConstants)
}

// ParseConstants decodes and validates a constants document.
func ParseConstants(data []byte) (*Constants, error) {
	var c Constants
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse constants: %w", err)
	}

	if c.ReservedRegions == nil {
		c.ReservedRegions = make(map[string]string, len(DefaultReservedRegions))
		for k, v := range DefaultReservedRegions {
			c.ReservedRegions[k] = v
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid constants: %w", err)
	}
	return &c, nil
}

// Validate checks that every table is present and every URL is set. Bijection
// checks are done when the translation tables are built.
func (c *Constants) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("regions table is empty")
	}
	if len(c.Types) == 0 {
		return fmt.Errorf("types table is empty")
	}
	if len(c.Subtypes) == 0 {
		return fmt.Errorf("subtypes table is empty")
	}

	urls := map[string]string{
		"ondemand":   c.URLs.OnDemand,
		"heavylinux": c.URLs.HeavyLinux,
		"heavywin":   c.URLs.HeavyWindows,
	}
	for _, name := range []string{"ondemand", "heavylinux", "heavywin"} {
		if urls[name] == "" {
			return fmt.Errorf("urls.%s is required", name)
		}
	}

	// A reserved override must point at a region the on-demand table knows,
	// otherwise the identity fallback would silently shadow it.
	public := make(map[string]bool, len(c.Regions))
	for _, region := range c.Regions {
		public[region] = true
	}
	for catalog, region := range c.ReservedRegions {
		if !public[region] {
			return fmt.Errorf("reservedRegions.%s refers to unknown region %q", catalog, region)
		}
	}

	return nil
}
