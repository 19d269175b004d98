package page

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Default theme identifiers.
const (
	DefaultThemeName = "portfolio"
	VariantDark      = "dark"
)

// Asset keys resolved through RendererConfig.AssetURL.
const (
	AssetStylesheet = "stylesheet"
	AssetScript     = "script"
)

// ErrUnknownTheme is returned when a theme or variant is not registered.
var ErrUnknownTheme = errors.New("page: unknown theme")

// DefaultManifest describes the built-in theme. The notify tokens carry the
// banner colors.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-primary":  "#3498db",
			"color-danger":   "#e74c3c",
			"color-text":     "#2c3e50",
			"color-surface":  "#ffffff",
			"color-page":     "#f5f7fa",
			"notify-info":    "#3498db",
			"notify-success": "#2ecc71",
			"radius":         "5px",
		},
		Assets: theme.Assets{
			Prefix: "/assets",
			Files: map[string]string{
				AssetStylesheet: "portfolio.css",
				AssetScript:     "portfolio.js",
			},
		},
		Variants: map[string]theme.Variant{
			VariantDark: {
				Tokens: map[string]string{
					"color-text":    "#ecf0f1",
					"color-surface": "#22313f",
					"color-page":    "#1b2631",
				},
			},
		},
	}
}

// Themes holds the registered manifests and picks one by name and variant.
// It is read-only after NewThemes.
type Themes struct {
	provider       theme.ThemeProvider
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Themes)(nil)

// NewThemes registers manifests (DefaultManifest when none are given). The
// defaults apply when Select is called with empty names.
func NewThemes(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*Themes, error) {
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{DefaultManifest()}
	}
	registry := theme.NewRegistry()
	t := &Themes{
		provider:       registry,
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, m := range manifests {
		if m == nil {
			continue
		}
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("page: register theme %q: %w", m.Name, err)
		}
		t.manifests[m.Name] = m
	}
	if t.defaultTheme == "" {
		t.defaultTheme = manifests[0].Name
	}
	return t, nil
}

// Provider exposes the underlying go-theme registry.
func (t *Themes) Provider() theme.ThemeProvider {
	return t.provider
}

// Names lists the registered theme names.
func (t *Themes) Names() []string {
	out := make([]string, 0, len(t.manifests))
	for name := range t.manifests {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Select resolves a theme and variant, falling back to the defaults for
// empty arguments.
func (t *Themes) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)
	if name == "" {
		name = t.defaultTheme
	}
	if variant == "" {
		variant = t.defaultVariant
	}

	manifest, ok := t.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q has no variant %q", ErrUnknownTheme, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfigFor flattens a selection into renderer settings: variant
// tokens override base tokens, every token becomes a --name CSS variable,
// and asset keys resolve below base joined with the manifest prefix.
func RendererConfigFor(sel *theme.Selection, base string) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	manifest := sel.Manifest
	variant := manifest.Variants[sel.Variant]

	tokens := mergeStrings(manifest.Tokens, variant.Tokens)
	partials := mergeStrings(manifest.Templates, variant.Templates)
	files := mergeStrings(manifest.Assets.Files, variant.Assets.Files)

	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}
	root := path.Join("/", base, prefix)

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			return path.Join(root, file)
		},
	}
}

// CSSVarsStyle renders vars as a :root rule with sorted declarations.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func mergeStrings(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
