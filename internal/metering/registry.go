package metering

import (
	"embed"
	"fmt"
	"math"
	"sync"

	"gopkg.in/yaml.v3"

	"lingoclass/internal/domain"
)

//go:embed config/*.yaml
var configFiles embed.FS

// roundingSlack absorbs binary rounding of decimal inputs such as 0.7 * 10
// before flooring.
const roundingSlack = 1e-9

// Registry holds the unit rates and metered features.
type Registry struct {
	units    []Unit
	byLabel  map[string]*Unit // canonical names and labels
	features []Feature
	byName   map[string]*Feature
	mu       sync.RWMutex
}

// NewRegistry creates a registry from the embedded YAML files
func NewRegistry() (*Registry, error) {
	unitData, err := configFiles.ReadFile("config/units.yaml")
	if err != nil {
		return nil, fmt.Errorf("read units.yaml: %w", err)
	}
	featureData, err := configFiles.ReadFile("config/features.yaml")
	if err != nil {
		return nil, fmt.Errorf("read features.yaml: %w", err)
	}
	return Parse(unitData, featureData)
}

// Parse builds a registry from raw units and features documents.
func Parse(unitData, featureData []byte) (*Registry, error) {
	var uf unitFile
	if err := yaml.Unmarshal(unitData, &uf); err != nil {
		return nil, fmt.Errorf("unmarshal units: %w", err)
	}
	var ff featureFile
	if err := yaml.Unmarshal(featureData, &ff); err != nil {
		return nil, fmt.Errorf("unmarshal features: %w", err)
	}

	r := &Registry{
		units:    uf.Units,
		byLabel:  make(map[string]*Unit),
		features: ff.Features,
		byName:   make(map[string]*Feature),
	}

	for i := range r.units {
		u := &r.units[i]
		for _, key := range append([]string{u.Name}, u.Labels...) {
			if other, dup := r.byLabel[key]; dup {
				return nil, fmt.Errorf("label %q used by both %s and %s", key, other.Name, u.Name)
			}
			r.byLabel[key] = u
		}
	}

	for i := range r.features {
		f := &r.features[i]
		if _, ok := r.byLabel[f.DefaultUnit]; !ok {
			return nil, fmt.Errorf("feature %s: unknown default unit %q", f.Name, f.DefaultUnit)
		}
		r.byName[f.Name] = f
	}

	return r, nil
}

// Unit resolves a canonical unit name or label.
func (r *Registry) Unit(name string) (*Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byLabel[name]
	if !ok {
		return nil, &domain.InvalidUnitError{Unit: name}
	}
	return u, nil
}

// Units returns all units in the order they are defined
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Unit(nil), r.units...)
}

// Feature returns a metered feature by its type name.
func (r *Registry) Feature(name string) (*Feature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	return f, ok
}

// FeatureNames lists metered feature types in definition order.
func (r *Registry) FeatureNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.features))
	for _, f := range r.features {
		names = append(names, f.Name)
	}
	return names
}

// ConvertUnitsToPoints returns floor(count * rate) for the named unit.
// Unknown units return *domain.InvalidUnitError.
func (r *Registry) ConvertUnitsToPoints(count float64, unit string) (int64, error) {
	u, err := r.Unit(unit)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(count) || math.IsInf(count, 0) || count < 0 {
		return 0, fmt.Errorf("%w: unit count must be a non-negative number", domain.ErrValidation)
	}
	points := math.Floor(count*float64(u.Points)/float64(u.Per) + roundingSlack)
	if points > math.MaxInt64/2 {
		return 0, fmt.Errorf("%w: unit count too large", domain.ErrValidation)
	}
	return int64(points), nil
}
