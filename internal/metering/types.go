package metering

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Unit is a billable unit of measure and its point rate. A usage of n units
// costs floor(n * Points / Per) points.
type Unit struct {
	// Canonical name (set during YAML unmarshaling)
	Name string `yaml:"-" json:"name"`

	DisplayName string   `yaml:"display_name" json:"display_name"`
	Labels      []string `yaml:"labels" json:"labels"`
	Points      int64    `yaml:"points" json:"points"`
	Per         int64    `yaml:"per" json:"per"`
}

// Feature is a metered AI feature.
type Feature struct {
	// Feature type identifier (set during YAML unmarshaling)
	Name string `yaml:"-" json:"name"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	DefaultUnit string `yaml:"default_unit" json:"default_unit"`
}

// unitFile preserves unit order from units.yaml
type unitFile struct {
	Units []Unit
}

// featureFile preserves feature order from features.yaml
type featureFile struct {
	Features []Feature
}

func (f *unitFile) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "units", func(key string, value *yaml.Node) error {
		var u Unit
		if err := value.Decode(&u); err != nil {
			return err
		}
		if u.Points <= 0 || u.Per <= 0 {
			return fmt.Errorf("unit %s: points and per must be positive", key)
		}
		u.Name = key
		f.Units = append(f.Units, u)
		return nil
	})
}

func (f *featureFile) UnmarshalYAML(node *yaml.Node) error {
	return decodeOrdered(node, "features", func(key string, value *yaml.Node) error {
		var feat Feature
		if err := value.Decode(&feat); err != nil {
			return err
		}
		feat.Name = key
		f.Features = append(f.Features, feat)
		return nil
	})
}

// decodeOrdered walks the mapping under section in document order.
// Mapping nodes alternate key, value, key, value...
func decodeOrdered(node *yaml.Node, section string, fn func(key string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != section {
			continue
		}
		entries := node.Content[i+1]
		if entries.Kind != yaml.MappingNode {
			return fmt.Errorf("%s must be a mapping", section)
		}
		for j := 0; j+1 < len(entries.Content); j += 2 {
			if err := fn(entries.Content[j].Value, entries.Content[j+1]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("missing %s section", section)
}
