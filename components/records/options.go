package records

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-portfolio/pkg/carousel"
	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/record"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/render/page"
)

// RecordStore is the part of the record store the handler uses directly.
type RecordStore interface {
	Records() []record.Record
	Count() int
	Delete(ctx context.Context, id int) (bool, error)
}

// Submitter validates and adds records.
type Submitter interface {
	Submit(ctx context.Context, values formgate.Values) (formgate.Result, error)
}

// Table supplies the rendered rows.
type Table interface {
	Rows() []render.Row
	Count() int
}

// Notifications lists live banners.
type Notifications interface {
	Active() []notify.Notification
}

// Carousel is the slide state machine.
type Carousel interface {
	Next() carousel.State
	Prev() carousel.State
	GoTo(i int) (carousel.State, bool)
	Toggle() carousel.State
	State() carousel.State
}

// PageRenderer renders the HTML page.
type PageRenderer interface {
	Render(w io.Writer, data page.Data) error
}

// GuardFunc may reject a request before it reaches a route. Returning an
// HTTPError selects the status code; other errors map to 403.
type GuardFunc func(r *http.Request) error

// Options wires the handler to its collaborators.
type Options struct {
	Title         string
	Store         RecordStore
	Gate          Submitter
	Table         Table
	Notifications Notifications
	Carousel      Carousel
	Page          PageRenderer
	Assets        fs.FS
	Guard         GuardFunc
	Logger        *slog.Logger
	// BasePath is where the component is mounted; it prefixes redirects and
	// the OpenAPI server URL.
	BasePath string
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Title:    "Portfolio",
		BasePath: "/",
		Logger:   slog.Default(),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BasePath == "" {
		opts.BasePath = "/"
	}
	if opts.Title == "" {
		opts.Title = "Portfolio"
	}
	return opts
}

func WithStore(store RecordStore) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = store
	}
}

func WithGate(gate Submitter) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Gate = gate
	}
}

func WithTable(table Table) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Table = table
	}
}

func WithNotifications(n Notifications) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Notifications = n
	}
}

func WithCarousel(c Carousel) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Carousel = c
	}
}

func WithPage(p PageRenderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Page = p
	}
}

func WithAssets(assets fs.FS) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Assets = assets
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func WithTitle(title string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Title = title
	}
}

func WithBasePath(base string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = base
	}
}
