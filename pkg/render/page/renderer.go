// Package page renders the portfolio page: the contact table, the add form
// with inline errors, live notifications and the carousel.
//
// Templates ship embedded and run through the pongo2 engine, which escapes
// every interpolated value. Slide captions come from configuration and may
// carry light markup; they are sanitized with bluemonday and emitted as is.
package page

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-portfolio/pkg/carousel"
	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/i18n"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/render/template"
	"github.com/goliatone/go-portfolio/pkg/render/template/gotemplate"
)

// TemplateName is the entry template.
const TemplateName = "page"

// Data is everything one page render needs.
type Data struct {
	Rows          []render.Row
	Count         int
	Form          Form
	Notifications []notify.Notification
	Carousel      carousel.State
}

// Form is the add form state as shown to the user.
type Form struct {
	Values formgate.Values
	Errors map[string]string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEngine replaces the default embedded-template engine.
func WithEngine(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithTemplatesDir loads templates from dir before falling back to the
// embedded set.
func WithTemplatesDir(dir string) Option {
	return func(r *Renderer) {
		r.templatesDir = strings.TrimSpace(dir)
	}
}

// WithTranslator sets the message catalog.
func WithTranslator(t i18n.Translator) Option {
	return func(r *Renderer) {
		if t != nil {
			r.translator = t
		}
	}
}

// WithLocale sets the page locale.
func WithLocale(locale string) Option {
	return func(r *Renderer) {
		if locale = strings.TrimSpace(locale); locale != "" {
			r.locale = locale
		}
	}
}

// WithTheme sets the resolved theme configuration.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		if cfg != nil {
			r.theme = cfg
		}
	}
}

// WithBasePath prefixes every form action.
func WithBasePath(base string) Option {
	return func(r *Renderer) {
		r.base = normalizeBase(base)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer turns Data into HTML.
type Renderer struct {
	engine       template.TemplateRenderer
	templatesDir string
	translator   i18n.Translator
	locale       string
	theme        *theme.RendererConfig
	base         string
	logger       *slog.Logger
}

// New builds a Renderer. Without WithEngine it creates a pongo2 engine over
// the embedded templates with the translation helpers installed.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		locale: i18n.DefaultLocale,
		base:   "/",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.translator == nil {
		catalog, err := i18n.Default()
		if err != nil {
			return nil, fmt.Errorf("page: load messages: %w", err)
		}
		r.translator = catalog
	}
	if r.theme == nil {
		themes, err := NewThemes("", "")
		if err != nil {
			return nil, err
		}
		sel, err := themes.Select("", "")
		if err != nil {
			return nil, err
		}
		r.theme = RendererConfigFor(sel, r.base)
	}
	if r.engine == nil {
		engineOpts := []gotemplate.Option{
			gotemplate.WithFS(Templates()),
			gotemplate.WithTemplateFunc(i18n.TemplateFuncs(r.translator, i18n.TemplateConfig{})),
		}
		if r.templatesDir != "" {
			engineOpts = append(engineOpts, gotemplate.WithBaseDir(r.templatesDir))
		}
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("page: template engine: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// Locale returns the page locale.
func (r *Renderer) Locale() string {
	return r.locale
}

// Theme returns the resolved theme configuration.
func (r *Renderer) Theme() *theme.RendererConfig {
	return r.theme
}

// Render writes the page to w.
func (r *Renderer) Render(w io.Writer, data Data) error {
	if _, err := r.engine.RenderTemplate(TemplateName, r.view(data), w); err != nil {
		return fmt.Errorf("page: render: %w", err)
	}
	return nil
}

// String renders the page into a string.
func (r *Renderer) String(data Data) (string, error) {
	out, err := r.engine.RenderTemplate(TemplateName, r.view(data))
	if err != nil {
		return "", fmt.Errorf("page: render: %w", err)
	}
	return out, nil
}

func (r *Renderer) view(data Data) map[string]any {
	rows := data.Rows
	if rows == nil {
		rows = []render.Row{}
	}
	return map[string]any{
		"locale":        r.locale,
		"rows":          rows,
		"count_label":   r.t("table.count", data.Count),
		"form":          r.formView(data.Form),
		"notifications": r.notificationsView(data.Notifications),
		"carousel":      r.carouselView(data.Carousel),
		"theme":         r.themeView(),
	}
}

type fieldView struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Value          string `json:"value"`
	Error          string `json:"error"`
	LabelKey       string `json:"label_key"`
	PlaceholderKey string `json:"placeholder_key"`
}

func (r *Renderer) formView(form Form) map[string]any {
	fields := []fieldView{
		{Name: formgate.FieldName, Type: "text"},
		{Name: formgate.FieldEmail, Type: "email"},
		{Name: formgate.FieldPhone, Type: "tel"},
	}
	for i := range fields {
		f := &fields[i]
		f.Value = form.Values[f.Name]
		f.Error = form.Errors[f.Name]
		f.LabelKey = "form." + f.Name + ".label"
		f.PlaceholderKey = "form." + f.Name + ".placeholder"
	}
	return map[string]any{
		"action": r.base + "records",
		"fields": fields,
	}
}

type notificationView struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Stage   string `json:"stage"`
	Color   string `json:"color"`
}

func (r *Renderer) notificationsView(items []notify.Notification) []notificationView {
	out := make([]notificationView, 0, len(items))
	for _, n := range items {
		out = append(out, notificationView{
			ID:      n.ID,
			Message: n.Message,
			Kind:    string(n.Kind),
			Stage:   string(n.Stage),
			Color:   r.NotificationColor(n.Kind),
		})
	}
	return out
}

// NotificationColor returns the banner color for kind from the theme tokens.
func (r *Renderer) NotificationColor(kind notify.Kind) string {
	if r.theme != nil {
		if color := r.theme.Tokens["notify-"+string(kind)]; color != "" {
			return color
		}
	}
	if kind == notify.KindSuccess {
		return "#2ecc71"
	}
	return "#3498db"
}

type slideView struct {
	Title      string `json:"title"`
	Caption    string `json:"caption"`
	Active     bool   `json:"active"`
	GoToAction string `json:"goto_action"`
}

func (r *Renderer) carouselView(state carousel.State) map[string]any {
	slides := make([]slideView, 0, len(state.Slides))
	for i, slide := range state.Slides {
		slides = append(slides, slideView{
			Title:      slide.Title,
			Caption:    SanitizeCaption(slide.Caption),
			Active:     i < len(state.Active) && state.Active[i],
			GoToAction: fmt.Sprintf("%scarousel/goto/%d", r.base, i),
		})
	}
	return map[string]any{
		"slides":        slides,
		"autoplay":      state.AutoPlay,
		"delay_ms":      state.DelayMS,
		"delay_label":   r.t("carousel.delay", state.Delay),
		"prev_action":   r.base + "carousel/prev",
		"next_action":   r.base + "carousel/next",
		"toggle_action": r.base + "carousel/toggle",
	}
}

func (r *Renderer) themeView() map[string]any {
	view := map[string]any{}
	if r.theme == nil {
		return view
	}
	view["name"] = r.theme.Theme
	view["variant"] = r.theme.Variant
	view["css_vars"] = CSSVarsStyle(r.theme.CSSVars)
	if r.theme.AssetURL != nil {
		view["stylesheet"] = r.theme.AssetURL(AssetStylesheet)
		view["script"] = r.theme.AssetURL(AssetScript)
	}
	return view
}

func (r *Renderer) t(key string, args ...any) string {
	return i18n.T(r.translator, nil, r.locale, key, args...)
}

func normalizeBase(base string) string {
	base = "/" + strings.Trim(strings.TrimSpace(base), "/")
	if base != "/" {
		base += "/"
	}
	return base
}
