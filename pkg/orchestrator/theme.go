package orchestrator

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-reportgen/pkg/render/template/gotemplate"
)

// DefaultThemeName names the built-in theme.
const DefaultThemeName = "default"

var (
	// ErrUnknownTheme is returned by ThemeSet.Select for unregistered names.
	ErrUnknownTheme = errors.New("orchestrator: unknown theme")
	// ErrUnknownVariant is returned by ThemeSet.Select for unknown variants.
	ErrUnknownVariant = errors.New("orchestrator: unknown theme variant")
)

// ThemeSet is an in-memory theme.ThemeSelector over a fixed list of
// manifests. The first registered manifest answers requests without a name.
type ThemeSet struct {
	mu        sync.RWMutex
	manifests map[string]*theme.Manifest
	fallback  string
}

var _ theme.ThemeSelector = (*ThemeSet)(nil)

// NewThemeSet registers manifests in order.
func NewThemeSet(manifests ...*theme.Manifest) (*ThemeSet, error) {
	set := &ThemeSet{manifests: make(map[string]*theme.Manifest)}
	for _, m := range manifests {
		if err := set.Register(m); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// DefaultThemes returns a ThemeSet holding DefaultTheme.
func DefaultThemes() *ThemeSet {
	set, _ := NewThemeSet(DefaultTheme())
	return set
}

// Register adds m. Names must be unique.
func (s *ThemeSet) Register(m *theme.Manifest) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return errors.New("orchestrator: theme manifest needs a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[m.Name]; exists {
		return fmt.Errorf("orchestrator: theme %q already registered", m.Name)
	}
	s.manifests[m.Name] = m
	if s.fallback == "" {
		s.fallback = m.Name
	}
	return nil
}

// Names lists the registered theme names, sorted.
func (s *ThemeSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select implements theme.ThemeSelector. An empty variant selects the base
// tokens of the theme.
func (s *ThemeSet) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		name = s.fallback
	}
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := m.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q of %q", ErrUnknownVariant, variant, name)
		}
	}
	return &theme.Selection{Theme: m.Name, Variant: variant, Manifest: m}, nil
}

// RendererConfig flattens a selection into what renderers consume: variant
// tokens, templates, and asset files override the base manifest, and every
// token is also exposed as a CSS custom property.
func RendererConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
	}
	m := selection.Manifest
	if m == nil {
		return cfg
	}

	var variant theme.Variant
	if selection.Variant != "" {
		variant = m.Variants[selection.Variant]
	}

	cfg.Tokens = mergeStrings(m.Tokens, variant.Tokens)
	cfg.Partials = mergeStrings(m.Templates, variant.Templates)
	if len(cfg.Tokens) > 0 {
		cfg.CSSVars = make(map[string]string, len(cfg.Tokens))
		for key, val := range cfg.Tokens {
			cfg.CSSVars[gotemplate.CSSVarName(key)] = val
		}
	}

	files := mergeStrings(m.Assets.Files, variant.Assets.Files)
	prefix := m.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if prefix == "" || strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
			return file
		}
		return path.Join(prefix, file)
	}
	return cfg
}

// DefaultTheme is the built-in theme with light and dark variants.
func DefaultTheme() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color.text":       "#1f2933",
			"color.muted":      "#6b7280",
			"color.background": "#ffffff",
			"color.accent":     "#2563eb",
			"color.error":      "#b91c1c",
		},
		Variants: map[string]theme.Variant{
			"light": {},
			"dark": {
				Tokens: map[string]string{
					"color.text":       "#e5e7eb",
					"color.muted":      "#9ca3af",
					"color.background": "#111827",
					"color.accent":     "#60a5fa",
					"color.error":      "#f87171",
				},
			},
		},
	}
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
