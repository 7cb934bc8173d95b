// Package presets loads named field sets applied to circuits in one step.
package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"eicrcore/internal/bulk"
	"eicrcore/pkg/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrNotFound is returned by Catalog.Get for an unknown preset name.
var ErrNotFound = errors.New("preset not found")

// Preset is a named set of field values.
type Preset struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Values      map[string]string `yaml:"values" json:"values"`
}

// Assignments returns the preset's values in canonical field order.
func (p Preset) Assignments() ([]bulk.Assignment, error) {
	byField := make(map[domain.Field]string, len(p.Values))
	for k, v := range p.Values {
		f, err := domain.ParseField(k)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		if f == domain.FieldID {
			return nil, fmt.Errorf("preset %s: %w", p.Name, domain.ErrImmutableField)
		}
		byField[f] = v
	}
	out := make([]bulk.Assignment, 0, len(byField))
	for _, f := range domain.Fields() {
		if v, ok := byField[f]; ok {
			out = append(out, bulk.Assignment{Field: f, Value: v})
		}
	}
	return out, nil
}

type document struct {
	Presets []Preset `yaml:"presets"`
}

// Catalog indexes presets by lower-cased name.
type Catalog struct {
	byName map[string]Preset
}

// Defaults returns the built-in catalog.
func Defaults() *Catalog {
	c, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("presets: embedded defaults invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML preset document and validates every field name.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	c := &Catalog{byName: make(map[string]Preset, len(doc.Presets))}
	for _, p := range doc.Presets {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, errors.New("decode presets: preset without name")
		}
		if _, err := p.Assignments(); err != nil {
			return nil, err
		}
		c.byName[strings.ToLower(p.Name)] = p
	}
	return c, nil
}

// Load reads the built-in presets and overlays those in path, if set.
// Presets from the file replace built-ins with the same name.
func Load(path string) (*Catalog, error) {
	c := Defaults()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for k, p := range extra.byName {
		c.byName[k] = p
	}
	return c, nil
}

// Get returns the named preset.
func (c *Catalog) Get(name string) (Preset, error) {
	p, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// Names lists preset names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.byName))
	for _, p := range c.byName {
		out = append(out, p.Name)
	}
	sort.Strings(out)
	return out
}
