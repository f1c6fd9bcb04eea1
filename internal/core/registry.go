package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Registry indexes loaded plugins and their commands by name and alias.
// It is filled once by Load and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	loaded  bool
	plugins []Plugin
	index   map[string]Command
	logger  zerolog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		index:  make(map[string]Command),
		logger: logger,
	}
}

type indexEntry struct {
	cmd    Command
	plugin string
}

// Load builds plugins from sources in order. A source that fails to load is
// logged and skipped; disabled plugins are skipped. Any duplicate plugin
// name, command name or alias fails the whole load with ErrConfig and leaves
// the registry empty.
func (r *Registry) Load(sources []Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return fmt.Errorf("%w: registry already loaded", ErrConfig)
	}

	var plugins []Plugin
	seenPlugins := make(map[string]string)
	index := make(map[string]indexEntry)

	for _, src := range sources {
		p, err := loadSource(src)
		if err != nil {
			r.logger.Error().Err(err).Str("source", src.Name).Msg("failed to load plugin, skipping")
			continue
		}
		if !p.Enabled() {
			r.logger.Info().Str("plugin", p.Name()).Msg("plugin disabled, skipping")
			continue
		}

		key := strings.ToLower(p.Name())
		if key == "" {
			return fmt.Errorf("%w: source %q produced a plugin without a name", ErrConfig, src.Name)
		}
		if prev, dup := seenPlugins[key]; dup {
			return fmt.Errorf("%w: plugin %q from source %q collides with source %q", ErrConfig, p.Name(), src.Name, prev)
		}
		seenPlugins[key] = src.Name

		for _, cmd := range p.Commands() {
			tokens := append([]string{cmd.Name()}, cmd.Aliases()...)
			for _, tok := range tokens {
				if tok == "" || strings.ContainsAny(tok, " \t\n") {
					return fmt.Errorf("%w: command %q in plugin %q has an invalid name or alias %q", ErrConfig, cmd.Name(), p.Name(), tok)
				}
				if prev, dup := index[tok]; dup {
					return fmt.Errorf("%w: %q of command %q (plugin %q) collides with command %q (plugin %q)",
						ErrConfig, tok, cmd.Name(), p.Name(), prev.cmd.Name(), prev.plugin)
				}
				index[tok] = indexEntry{cmd: cmd, plugin: p.Name()}
			}
		}

		plugins = append(plugins, p)
		r.logger.Info().Str("plugin", p.Name()).Int("commands", len(p.Commands())).Msg("loaded plugin")
	}

	for tok, e := range index {
		r.index[tok] = e.cmd
	}
	r.plugins = plugins
	r.loaded = true
	return nil
}

func loadSource(src Source) (p Plugin, err error) {
	if src.Load == nil {
		return nil, fmt.Errorf("source %q has no loader", src.Name)
	}
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("source %q panicked: %v", src.Name, rec)
		}
	}()
	p, err = src.Load()
	if err == nil && p == nil {
		err = fmt.Errorf("source %q returned no plugin", src.Name)
	}
	return p, err
}

// Lookup matches token exactly against every command name and alias.
func (r *Registry) Lookup(token string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.index[token]
	return cmd, ok
}

// List returns plugins in load order. Hidden plugins are included only when
// includeHidden is set (operators).
func (r *Registry) List(includeHidden bool) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		if includeHidden || p.Visible() {
			out = append(out, p)
		}
	}
	return out
}

// Plugin finds a loaded plugin by case-insensitive name.
func (r *Registry) Plugin(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if strings.EqualFold(p.Name(), name) {
			return p, true
		}
	}
	return nil, false
}

// Count returns the number of loaded plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
