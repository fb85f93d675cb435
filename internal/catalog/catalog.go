// Package catalog holds the static registry of compliance controls. The
// catalog is loaded once at process start and read-only afterward; any
// problem loading it is a fatal configuration error, not a scan error.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"compliance-autopilot/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Controls []model.ControlDefinition `yaml:"controls"`
}

// Catalog is the immutable control registry.
type Catalog struct {
	controls map[string]model.ControlDefinition
	ordered  []model.ControlDefinition
	surfaces []model.Surface
}

// Load builds the catalog from the embedded default control set.
func Load() (*Catalog, error) {
	return parse(defaultCatalog)
}

// LoadFile builds the catalog from a user-supplied YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(f.Controls) == 0 {
		return nil, fmt.Errorf("catalog: no controls defined")
	}

	c := &Catalog{controls: make(map[string]model.ControlDefinition, len(f.Controls))}
	seenSurface := map[model.Surface]bool{}

	for i, ctrl := range f.Controls {
		if !ctrl.Framework.Valid() {
			return nil, fmt.Errorf("catalog: control #%d: unknown framework %q", i+1, ctrl.Framework)
		}
		if ctrl.ControlID == "" {
			return nil, fmt.Errorf("catalog: control #%d: missing control_id", i+1)
		}
		if !ctrl.Surface.Valid() {
			return nil, fmt.Errorf("catalog: control %s/%s: unknown surface %q", ctrl.Framework, ctrl.ControlID, ctrl.Surface)
		}
		if !ctrl.Severity.Valid() {
			return nil, fmt.Errorf("catalog: control %s/%s: unknown severity %q", ctrl.Framework, ctrl.ControlID, ctrl.Severity)
		}
		key := controlKey(ctrl.Framework, ctrl.ControlID)
		if _, dup := c.controls[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate control %s/%s", ctrl.Framework, ctrl.ControlID)
		}
		c.controls[key] = ctrl
		c.ordered = append(c.ordered, ctrl)
		if !seenSurface[ctrl.Surface] {
			seenSurface[ctrl.Surface] = true
			c.surfaces = append(c.surfaces, ctrl.Surface)
		}
	}

	return c, nil
}

func controlKey(fw model.Framework, id string) string {
	return string(fw) + "/" + id
}

// Lookup returns the definition for (framework, controlID), or false when
// the catalog does not know the pair.
func (c *Catalog) Lookup(fw model.Framework, controlID string) (model.ControlDefinition, bool) {
	ctrl, ok := c.controls[controlKey(fw, controlID)]
	return ctrl, ok
}

// Surfaces returns every surface the catalog defines at least one control
// for, in catalog declaration order.
func (c *Catalog) Surfaces() []model.Surface {
	out := make([]model.Surface, len(c.surfaces))
	copy(out, c.surfaces)
	return out
}

// ControlsFor returns the controls under one surface, ordered by framework
// then control ID.
func (c *Catalog) ControlsFor(surface model.Surface) []model.ControlDefinition {
	var out []model.ControlDefinition
	for _, ctrl := range c.ordered {
		if ctrl.Surface == surface {
			out = append(out, ctrl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Framework != out[j].Framework {
			return out[i].Framework < out[j].Framework
		}
		return out[i].ControlID < out[j].ControlID
	})
	return out
}

// Len returns the number of controls in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
