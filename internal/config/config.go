// Package config resolves runtime settings for the portfolio server and CLI.
//
// Sources are applied in order, later ones winning:
//
//  1. Defaults
//  2. Config file (.json/.jsonc parsed as JSONC, .yaml/.yml as YAML)
//  3. .env file
//  4. PORTFOLIO_* environment variables
//  5. Command line overrides
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-portfolio/pkg/carousel"
	"github.com/goliatone/go-portfolio/pkg/i18n"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/recordstore"
	"github.com/goliatone/go-portfolio/pkg/render/page"
)

var (
	// ErrInvalid wraps every validation and parse failure.
	ErrInvalid = errors.New("config: invalid configuration")
	// ErrFileNotFound is returned when an explicit config path does not exist.
	ErrFileNotFound = errors.New("config: file not found")
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "PORTFOLIO_"

// DefaultEnvFile is read when LoadInput.EnvFile is empty. A missing file is
// not an error.
const DefaultEnvFile = ".env"

// Config holds the resolved settings.
type Config struct {
	Listen        string         `json:"listen" yaml:"listen"`
	Store         string         `json:"store" yaml:"store"`
	StorageKey    string         `json:"storage_key" yaml:"storage_key"`
	BasePath      string         `json:"base_path" yaml:"base_path"`
	Locale        string         `json:"locale" yaml:"locale"`
	Theme         string         `json:"theme" yaml:"theme"`
	ThemeVariant  string         `json:"theme_variant" yaml:"theme_variant"`
	CorruptPolicy string         `json:"corrupt_policy" yaml:"corrupt_policy"`
	Carousel      CarouselConfig `json:"carousel" yaml:"carousel"`
	Notify        NotifyConfig   `json:"notify" yaml:"notify"`

	// Sources lists the files that contributed, for diagnostics.
	Sources []string `json:"-" yaml:"-"`
}

// CarouselConfig configures the slider.
type CarouselConfig struct {
	Delay    Duration         `json:"delay" yaml:"delay"`
	AutoPlay *bool            `json:"autoplay,omitempty" yaml:"autoplay,omitempty"`
	Slides   []carousel.Slide `json:"slides,omitempty" yaml:"slides,omitempty"`
}

// AutoPlayEnabled reports the effective autoplay flag (default on).
func (c CarouselConfig) AutoPlayEnabled() bool {
	return c.AutoPlay == nil || *c.AutoPlay
}

// NotifyConfig configures banner timing.
type NotifyConfig struct {
	Display Duration `json:"display" yaml:"display"`
	Fade    Duration `json:"fade" yaml:"fade"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:        ":8080",
		Store:         "file://portfolio.json",
		StorageKey:    recordstore.DefaultKey,
		BasePath:      "/",
		Locale:        i18n.DefaultLocale,
		Theme:         page.DefaultThemeName,
		CorruptPolicy: string(recordstore.CorruptFail),
		Carousel: CarouselConfig{
			Delay:  Duration(carousel.DefaultDelay),
			Slides: DefaultSlides(),
		},
		Notify: NotifyConfig{
			Display: Duration(notify.DefaultDisplayDuration),
			Fade:    Duration(notify.DefaultFadeDuration),
		},
	}
}

// DefaultSlides is the slide set used when none is configured.
func DefaultSlides() []carousel.Slide {
	return []carousel.Slide{
		{Title: "Веб-разработка", Caption: "Современные сайты и <strong>веб-приложения</strong>"},
		{Title: "Мобильные приложения", Caption: "Кроссплатформенные решения для iOS и Android"},
		{Title: "Дизайн интерфейсов", Caption: "Удобные и <em>красивые</em> интерфейсы"},
	}
}

// Overrides carries values set on the command line. Empty fields are ignored.
type Overrides struct {
	Listen        string
	Store         string
	BasePath      string
	Locale        string
	Theme         string
	ThemeVariant  string
	CorruptPolicy string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	// ConfigPath is an explicit config file; it must exist when set.
	ConfigPath string
	// EnvFile overrides DefaultEnvFile. Set NoEnvFile to skip it entirely.
	EnvFile   string
	NoEnvFile bool
	// Env is the process environment; nil means os.Environ.
	Env       map[string]string
	Overrides Overrides
}

// Load resolves the configuration and validates it.
func Load(input LoadInput) (Config, error) {
	cfg := Default()

	if input.ConfigPath != "" {
		fileCfg, err := loadFile(input.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fileCfg)
		cfg.Sources = append(cfg.Sources, input.ConfigPath)
	}

	env := input.Env
	if env == nil {
		env = environ()
	}

	if !input.NoEnvFile {
		envFile := input.EnvFile
		if envFile == "" {
			envFile = DefaultEnvFile
		}
		dotenv, loaded, err := readEnvFile(envFile, input.EnvFile != "")
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg.Sources = append(cfg.Sources, envFile)
			// real environment wins over .env
			for k, v := range env {
				dotenv[k] = v
			}
			env = dotenv
		}
	}

	var err error
	cfg, err = applyEnv(cfg, env)
	if err != nil {
		return Config{}, err
	}
	cfg = applyOverrides(cfg, input.Overrides)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved configuration.
func Validate(cfg Config) error {
	var problems []string
	if strings.TrimSpace(cfg.Listen) == "" {
		problems = append(problems, "listen is required")
	}
	if strings.TrimSpace(cfg.Store) == "" {
		problems = append(problems, "store is required")
	}
	if strings.TrimSpace(cfg.StorageKey) == "" {
		problems = append(problems, "storage_key is required")
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		problems = append(problems, "locale is required")
	}
	if _, ok := recordstore.ParseCorruptPolicy(cfg.CorruptPolicy); !ok {
		problems = append(problems, fmt.Sprintf("corrupt_policy %q must be %q or %q",
			cfg.CorruptPolicy, recordstore.CorruptFail, recordstore.CorruptReseed))
	}
	if cfg.Carousel.Delay <= 0 {
		problems = append(problems, "carousel.delay must be positive")
	}
	if len(cfg.Carousel.Slides) == 0 {
		problems = append(problems, "carousel.slides must not be empty")
	}
	if cfg.Notify.Display <= 0 || cfg.Notify.Fade <= 0 {
		problems = append(problems, "notify durations must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := parse(filepath.Ext(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

func parse(ext string, data []byte) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid YAML: %w", err)
		}
	case ".json", ".jsonc", "":
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JSONC: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(standardized))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("invalid JSON: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config extension %q", ext)
	}
	return cfg, nil
}

func readEnvFile(path string, mustExist bool) (map[string]string, bool, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil, false, nil
		}
		if os.IsNotExist(err) {
			return nil, false, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}
	return values, true, nil
}

func merge(base, overlay Config) Config {
	setString(&base.Listen, overlay.Listen)
	setString(&base.Store, overlay.Store)
	setString(&base.StorageKey, overlay.StorageKey)
	setString(&base.BasePath, overlay.BasePath)
	setString(&base.Locale, overlay.Locale)
	setString(&base.Theme, overlay.Theme)
	setString(&base.ThemeVariant, overlay.ThemeVariant)
	setString(&base.CorruptPolicy, overlay.CorruptPolicy)

	if overlay.Carousel.Delay != 0 {
		base.Carousel.Delay = overlay.Carousel.Delay
	}
	if overlay.Carousel.AutoPlay != nil {
		enabled := *overlay.Carousel.AutoPlay
		base.Carousel.AutoPlay = &enabled
	}
	if len(overlay.Carousel.Slides) > 0 {
		base.Carousel.Slides = append([]carousel.Slide(nil), overlay.Carousel.Slides...)
	}
	if overlay.Notify.Display != 0 {
		base.Notify.Display = overlay.Notify.Display
	}
	if overlay.Notify.Fade != 0 {
		base.Notify.Fade = overlay.Notify.Fade
	}
	return base
}

func applyEnv(cfg Config, env map[string]string) (Config, error) {
	lookup := func(name string) (string, bool) {
		v, ok := env[EnvPrefix+name]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	fields := map[string]*string{
		"LISTEN":         &cfg.Listen,
		"STORE":          &cfg.Store,
		"STORAGE_KEY":    &cfg.StorageKey,
		"BASE_PATH":      &cfg.BasePath,
		"LOCALE":         &cfg.Locale,
		"THEME":          &cfg.Theme,
		"THEME_VARIANT":  &cfg.ThemeVariant,
		"CORRUPT_POLICY": &cfg.CorruptPolicy,
	}
	for name, target := range fields {
		if v, ok := lookup(name); ok {
			*target = v
		}
	}

	durations := map[string]*Duration{
		"CAROUSEL_DELAY": &cfg.Carousel.Delay,
		"NOTIFY_DISPLAY": &cfg.Notify.Display,
		"NOTIFY_FADE":    &cfg.Notify.Fade,
	}
	for name, target := range durations {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s%s: %w", ErrInvalid, EnvPrefix, name, err)
		}
		*target = d
	}

	if v, ok := lookup("CAROUSEL_AUTOPLAY"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %sCAROUSEL_AUTOPLAY: %w", ErrInvalid, EnvPrefix, err)
		}
		cfg.Carousel.AutoPlay = &enabled
	}
	return cfg, nil
}

func applyOverrides(cfg Config, o Overrides) Config {
	setString(&cfg.Listen, o.Listen)
	setString(&cfg.Store, o.Store)
	setString(&cfg.BasePath, o.BasePath)
	setString(&cfg.Locale, o.Locale)
	setString(&cfg.Theme, o.Theme)
	setString(&cfg.ThemeVariant, o.ThemeVariant)
	setString(&cfg.CorruptPolicy, o.CorruptPolicy)
	return cfg
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Duration accepts Go duration strings ("5s", "300ms") or integer
// milliseconds in config files.
type Duration time.Duration

// ParseDuration parses a duration string or a bare millisecond count.
func ParseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %w", err)
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}
