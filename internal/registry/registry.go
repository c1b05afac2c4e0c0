// Package registry describes the options a server knows about: their kind,
// default, allowed choices and a markdown description. Definitions are
// loaded from YAML.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/marcus/optsync/internal/settings"
	"github.com/marcus/optsync/internal/suggest"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Definition describes a single option.
type Definition struct {
	Name        string         `json:"name" yaml:"name"`
	Label       string         `json:"label,omitempty" yaml:"label"`
	Kind        settings.Kind  `json:"kind" yaml:"kind"`
	Default     settings.Value `json:"default" yaml:"-"`
	Choices     []string       `json:"choices,omitempty" yaml:"choices"`
	Description string         `json:"description,omitempty" yaml:"description"`
}

// Control returns the input control used to edit the option.
func (d Definition) Control() settings.ControlKind {
	switch {
	case d.Kind == settings.KindBool:
		return settings.ControlCheckbox
	case len(d.Choices) > 0:
		return settings.ControlSelect
	default:
		return settings.ControlText
	}
}

// Title returns the label, falling back to the name.
func (d Definition) Title() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// InvalidValueError reports a value that does not fit its definition.
type InvalidValueError struct {
	Name   string
	Value  settings.Value
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value.String(), e.Name, e.Reason)
}

// Validate checks v against the definition.
func (d Definition) Validate(v settings.Value) error {
	if v.Kind() != d.Kind {
		return &InvalidValueError{Name: d.Name, Value: v, Reason: fmt.Sprintf("expected %s", d.Kind)}
	}
	if len(d.Choices) > 0 {
		s, _ := v.Str()
		if !slices.Contains(d.Choices, s) {
			return &InvalidValueError{Name: d.Name, Value: v, Reason: fmt.Sprintf("must be one of %v", d.Choices)}
		}
	}
	return nil
}

// Registry is an immutable set of option definitions.
type Registry struct {
	defs map[string]Definition
}

// yamlDefinition mirrors Definition with a raw default so bools and strings
// can both be decoded.
type yamlDefinition struct {
	Definition `yaml:",inline"`
	RawDefault yaml.Node `yaml:"default"`
}

type yamlFile struct {
	Options []yamlDefinition `yaml:"options"`
}

// Parse builds a Registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	r := &Registry{defs: make(map[string]Definition, len(f.Options))}
	for i, yd := range f.Options {
		d := yd.Definition
		if d.Name == "" {
			return nil, fmt.Errorf("registry option %d: name is required", i)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("registry option %s: duplicate name", d.Name)
		}
		if d.Kind == "" {
			d.Kind = settings.KindString
		}
		if d.Kind != settings.KindString && d.Kind != settings.KindBool {
			return nil, fmt.Errorf("registry option %s: unknown kind %q", d.Name, d.Kind)
		}
		def, err := decodeDefault(d, &yd.RawDefault)
		if err != nil {
			return nil, err
		}
		d.Default = def
		if err := d.Validate(d.Default); err != nil {
			return nil, fmt.Errorf("registry option %s: default: %w", d.Name, err)
		}
		r.defs[d.Name] = d
	}
	return r, nil
}

func decodeDefault(d Definition, node *yaml.Node) (settings.Value, error) {
	if node.Kind == 0 {
		if d.Kind == settings.KindBool {
			return settings.Bool(false), nil
		}
		if len(d.Choices) > 0 {
			return settings.String(d.Choices[0]), nil
		}
		return settings.String(""), nil
	}
	if d.Kind == settings.KindBool {
		var b bool
		if err := node.Decode(&b); err != nil {
			return settings.Value{}, fmt.Errorf("registry option %s: default must be a bool: %w", d.Name, err)
		}
		return settings.Bool(b), nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return settings.Value{}, fmt.Errorf("registry option %s: default must be a string: %w", d.Name, err)
	}
	return settings.String(s), nil
}

// Load reads a Registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(defaultYAML)
	if err != nil {
		panic("built-in registry: " + err.Error())
	}
	return r
}

// FromDefinitions builds a Registry from already-decoded definitions, as
// received from a server's schema endpoint.
func FromDefinitions(defs []Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.Name] = d
	}
	return r
}

// Get returns the definition of name.
func (r *Registry) Get(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Require returns the definition of name or an ErrUnknownOption error that
// suggests close names.
func (r *Registry) Require(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s%s", settings.ErrUnknownOption, name, suggest.DidYouMean(r.Suggest(name)))
	}
	return d, nil
}

// Suggest returns defined names close to name, best first.
func (r *Registry) Suggest(name string) []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return suggest.Closest(name, names)
}

// Definitions returns all definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Defaults returns the default value of every option.
func (r *Registry) Defaults() settings.Options {
	out := make(settings.Options, len(r.defs))
	for name, d := range r.defs {
		out[name] = d.Default
	}
	return out
}

// Validate checks a single named value.
func (r *Registry) Validate(name string, v settings.Value) error {
	d, err := r.Require(name)
	if err != nil {
		return err
	}
	return d.Validate(v)
}

// ValidateAll checks every value in opts, reporting the first failure in
// name order.
func (r *Registry) ValidateAll(opts settings.Options) error {
	for _, name := range opts.Names() {
		if err := r.Validate(name, opts[name]); err != nil {
			return err
		}
	}
	return nil
}

// ParseInput converts user text into a value of the option's kind.
func (r *Registry) ParseInput(name, text string) (settings.Value, error) {
	d, err := r.Require(name)
	if err != nil {
		return settings.Value{}, err
	}
	v, err := settings.ParseValue(d.Kind, text)
	if err != nil {
		return settings.Value{}, err
	}
	if err := d.Validate(v); err != nil {
		return settings.Value{}, err
	}
	return v, nil
}

// IsInvalidValue reports whether err is an *InvalidValueError.
func IsInvalidValue(err error) bool {
	var ive *InvalidValueError
	return errors.As(err, &ive)
}
