// Package plugins is the startup manifest of command plugins. The manifest
// names which built-in plugins load, in which order, and may override their
// visibility or enable flag.
//
//	plugins:
//	  - name: generic
//	  - name: marriage
//	  - name: developer
//	    visible: false
//	  - name: settings
//	    enabled: false
package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"maika/internal/core"
	"maika/internal/plugins/developer"
	"maika/internal/plugins/generic"
	"maika/internal/plugins/marriage"
	"maika/internal/plugins/profile"
	"maika/internal/plugins/settings"
)

var builtins = map[string]func() core.Plugin{
	"generic":   generic.New,
	"marriage":  marriage.New,
	"profile":   profile.New,
	"settings":  settings.New,
	"developer": developer.New,
}

var defaultOrder = []string{"generic", "marriage", "profile", "settings", "developer"}

// Builtins lists the names a manifest may reference.
func Builtins() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type Entry struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled,omitempty"`
	Visible *bool  `yaml:"visible,omitempty"`
}

type Manifest struct {
	Plugins []Entry `yaml:"plugins"`
}

// Default loads every built-in plugin with its own flags.
func Default() Manifest {
	m := Manifest{Plugins: make([]Entry, 0, len(defaultOrder))}
	for _, name := range defaultOrder {
		m.Plugins = append(m.Plugins, Entry{Name: name})
	}
	return m
}

// Load reads a manifest file. An empty path yields Default.
func Load(path string) (Manifest, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: read plugin manifest: %v", core.ErrConfig, err)
	}
	return Parse(data)
}

// Parse decodes a manifest, rejecting unknown keys and repeated entries.
// Unknown plugin names are not an error here; their sources fail at load
// time and are skipped.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("%w: parse plugin manifest: %v", core.ErrConfig, err)
	}
	if len(m.Plugins) == 0 {
		return Manifest{}, fmt.Errorf("%w: plugin manifest lists no plugins", core.ErrConfig)
	}

	seen := make(map[string]bool, len(m.Plugins))
	for i, e := range m.Plugins {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		if name == "" {
			return Manifest{}, fmt.Errorf("%w: plugin manifest entry %d has no name", core.ErrConfig, i)
		}
		if seen[name] {
			return Manifest{}, fmt.Errorf("%w: plugin %q listed twice", core.ErrConfig, name)
		}
		seen[name] = true
		m.Plugins[i].Name = name
	}
	return m, nil
}

// Sources turns the manifest into registry sources, in manifest order.
func (m Manifest) Sources() []core.Source {
	out := make([]core.Source, 0, len(m.Plugins))
	for _, e := range m.Plugins {
		out = append(out, core.Source{Name: e.Name, Load: loader(e)})
	}
	return out
}

func loader(e Entry) func() (core.Plugin, error) {
	return func() (core.Plugin, error) {
		build, ok := builtins[e.Name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q (known: %s)", e.Name, strings.Join(Builtins(), ", "))
		}
		p := build()
		if e.Enabled == nil && e.Visible == nil {
			return p, nil
		}
		return &overridden{Plugin: p, enabled: e.Enabled, visible: e.Visible}, nil
	}
}

type overridden struct {
	core.Plugin
	enabled *bool
	visible *bool
}

func (o *overridden) Enabled() bool {
	if o.enabled != nil {
		return *o.enabled
	}
	return o.Plugin.Enabled()
}

func (o *overridden) Visible() bool {
	if o.visible != nil {
		return *o.visible
	}
	return o.Plugin.Visible()
}
