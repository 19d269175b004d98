// Package formgate validates contact form input and, when every field passes,
// hands the normalized values to an Adder.
package formgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/goliatone/go-portfolio/pkg/i18n"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/record"
)

// ErrNoAdder is returned by New when no Adder is supplied.
var ErrNoAdder = errors.New("formgate: adder is required")

// Adder creates a record from validated values.
type Adder interface {
	Add(ctx context.Context, name, email, phone string) (record.Record, error)
}

// FieldError is a single failed rule.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Errors maps field names to their failure. An empty map means valid.
type Errors map[string]FieldError

// Has reports whether field failed.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Fields lists failed field names, sorted.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for field := range e {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Messages flattens the errors into field -> localized message.
func (e Errors) Messages() map[string]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string]string, len(e))
	for field, fe := range e {
		out[field] = fe.Message
	}
	return out
}

// Result is the outcome of Submit.
type Result struct {
	Values Values
	Errors Errors
	Record *record.Record
	// Reset is set when the form should be cleared.
	Reset bool
}

// Valid reports whether the submission passed validation.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Option configures a Gate.
type Option func(*Gate)

// WithNotifier posts a success banner after each accepted submission.
func WithNotifier(n notify.Notifier) Option {
	return func(g *Gate) {
		g.notifier = n
	}
}

// WithTranslator sets the translator used for error and banner messages.
func WithTranslator(t i18n.Translator) Option {
	return func(g *Gate) {
		if t != nil {
			g.translator = t
		}
	}
}

// WithLocale sets the message locale.
func WithLocale(locale string) Option {
	return func(g *Gate) {
		if locale != "" {
			g.locale = locale
		}
	}
}

// WithRules replaces the default rule table.
func WithRules(rules ...Rule) Option {
	return func(g *Gate) {
		if len(rules) > 0 {
			g.rules = append([]Rule(nil), rules...)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Gate validates submissions and forwards valid ones to its Adder.
type Gate struct {
	adder      Adder
	notifier   notify.Notifier
	translator i18n.Translator
	locale     string
	rules      []Rule
	logger     *slog.Logger
}

// New builds a Gate around adder.
func New(adder Adder, opts ...Option) (*Gate, error) {
	if adder == nil {
		return nil, ErrNoAdder
	}
	g := &Gate{
		adder:  adder,
		locale: i18n.DefaultLocale,
		rules:  DefaultRules(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(g)
	}
	if g.translator == nil {
		catalog, err := i18n.Default()
		if err != nil {
			return nil, fmt.Errorf("formgate: load messages: %w", err)
		}
		g.translator = catalog
	}
	return g, nil
}

// Locale returns the configured message locale.
func (g *Gate) Locale() string {
	return g.locale
}

// Validate runs every rule against the normalized values. Fields are checked
// independently; a failure in one never hides another.
func (g *Gate) Validate(values Values) Errors {
	normalized := values.Normalized()
	errs := make(Errors)
	for _, rule := range g.rules {
		if key, failed := evaluate(rule, normalized[rule.Field]); failed {
			errs[rule.Field] = FieldError{Key: key, Message: g.message(key)}
		}
	}
	return errs
}

// Submit validates values and, when valid, adds the record and posts the
// success banner. An Adder error is returned as is and leaves the form
// values intact.
func (g *Gate) Submit(ctx context.Context, values Values) (Result, error) {
	normalized := values.Normalized()
	errs := g.Validate(normalized)
	if len(errs) > 0 {
		g.logger.Debug("submission rejected", "fields", errs.Fields())
		return Result{Values: normalized, Errors: errs}, nil
	}

	rec, err := g.adder.Add(ctx, normalized[FieldName], normalized[FieldEmail], normalized[FieldPhone])
	if err != nil {
		return Result{Values: normalized}, err
	}

	if g.notifier != nil {
		g.notifier.Notify(g.message(KeyAdded), notify.KindSuccess)
	}
	return Result{Values: Values{}, Errors: Errors{}, Record: &rec, Reset: true}, nil
}

// Message translates key in the gate's locale.
func (g *Gate) Message(key string) string {
	return g.message(key)
}

func (g *Gate) message(key string) string {
	return i18n.T(g.translator, nil, g.locale, key)
}

func evaluate(rule Rule, value string) (string, bool) {
	if value == "" {
		return rule.RequiredKey, rule.RequiredKey != ""
	}
	for _, check := range rule.Checks {
		if check.Check != nil && !check.Check(value) {
			return check.Key, true
		}
	}
	return "", false
}
