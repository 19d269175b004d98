// Package i18n resolves message keys into localized strings.
//
// Catalogs are YAML documents whose nested maps flatten into dotted keys, so
//
//	form:
//	  name:
//	    required: Name is required
//
// yields the key "form.name.required". The ru and en catalogs ship embedded.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a lookup names no locale or an unknown one.
const DefaultLocale = "ru"

var (
	// ErrMissingTranslator is passed to MissingTranslationHandler when no
	// translator is configured.
	ErrMissingTranslator = errors.New("i18n: translator not configured")
	// ErrMissingKey reports a key absent from both the requested and the
	// fallback locale.
	ErrMissingKey = errors.New("i18n: missing translation")
)

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves a key for a locale. Args, when present, are applied to
// the message with fmt.Sprintf.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler produces the string shown when a lookup fails.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// KeyOnMissing returns the key itself.
func KeyOnMissing(_ string, key string, _ []any, _ error) string {
	return key
}

// Catalog is an in-memory Translator keyed by locale then dotted key.
type Catalog struct {
	mu       sync.RWMutex
	fallback string
	messages map[string]map[string]string
}

var _ Translator = (*Catalog)(nil)

// NewCatalog returns an empty catalog with the given fallback locale.
func NewCatalog(fallback string) *Catalog {
	fallback = normalizeLocale(fallback)
	if fallback == "" {
		fallback = DefaultLocale
	}
	return &Catalog{
		fallback: fallback,
		messages: make(map[string]map[string]string),
	}
}

// Default returns a catalog loaded from the embedded locale files.
func Default() (*Catalog, error) {
	c := NewCatalog(DefaultLocale)
	if err := c.LoadFS(embedded, "locales"); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFS reads every *.yaml or *.yml file in dir; the file stem names the
// locale.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", entry.Name(), err)
		}
		if err := c.Load(strings.TrimSuffix(entry.Name(), ext), data); err != nil {
			return err
		}
	}
	return nil
}

// Load merges a YAML catalog into locale.
func (c *Catalog) Load(locale string, data []byte) error {
	locale = normalizeLocale(locale)
	if locale == "" {
		return fmt.Errorf("i18n: empty locale")
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", locale, err)
	}

	flat := make(map[string]string)
	flatten("", doc, flat)

	c.mu.Lock()
	defer c.mu.Unlock()
	dst, ok := c.messages[locale]
	if !ok {
		dst = make(map[string]string, len(flat))
		c.messages[locale] = dst
	}
	for k, v := range flat {
		dst[k] = v
	}
	return nil
}

// Set registers a single message.
func (c *Catalog) Set(locale, key, message string) {
	locale = normalizeLocale(locale)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.messages[locale] == nil {
		c.messages[locale] = make(map[string]string)
	}
	c.messages[locale][key] = message
}

// Locales lists the loaded locales, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Has reports whether locale was loaded.
func (c *Catalog) Has(locale string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[normalizeLocale(locale)]
	return ok
}

// Translate looks key up in locale, then in its base language ("en" for
// "en-US"), then in the fallback locale.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	key = strings.TrimSpace(key)
	c.mu.RLock()
	msg, ok := c.lookup(normalizeLocale(locale), key)
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q (%s)", ErrMissingKey, key, locale)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return msg, nil
}

func (c *Catalog) lookup(locale, key string) (string, bool) {
	candidates := []string{locale}
	if base, _, found := strings.Cut(locale, "-"); found {
		candidates = append(candidates, base)
	}
	candidates = append(candidates, c.fallback)
	for _, candidate := range candidates {
		if msg, ok := c.messages[candidate][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// T translates key and routes failures through onMissing (KeyOnMissing when
// nil). A nil translator reports ErrMissingTranslator.
func T(t Translator, onMissing MissingTranslationHandler, locale, key string, args ...any) string {
	if onMissing == nil {
		onMissing = KeyOnMissing
	}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	msg, err := t.Translate(locale, key, args...)
	if err != nil || strings.TrimSpace(msg) == "" {
		return onMissing(locale, key, args, err)
	}
	return msg
}

func flatten(prefix string, node any, out map[string]string) {
	switch value := node.(type) {
	case map[string]any:
		for k, v := range value {
			flatten(join(prefix, k), v, out)
		}
	case nil:
	default:
		if prefix != "" {
			out[prefix] = fmt.Sprint(value)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}
