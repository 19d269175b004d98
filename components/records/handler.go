package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/render/page"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

var errNotConfigured = errors.New("records: handler is missing a collaborator")

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the handler from a pre-constructed Options value.
// Routes are relative to the mount point; RegisterRoutes strips BasePath.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	h := &handler{opts: opts, base: normalizeBase(opts.BasePath)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.page)
	mux.HandleFunc("POST /records", h.submit)
	mux.HandleFunc("POST /records/{id}/delete", h.deleteForm)
	mux.HandleFunc("POST /carousel/{action}", h.carouselAction)
	mux.HandleFunc("POST /carousel/goto/{index}", h.carouselGoTo)

	mux.HandleFunc("GET /api/records", h.listRecords)
	mux.HandleFunc("POST /api/records", h.createRecord)
	mux.HandleFunc("DELETE /api/records/{id}", h.deleteRecord)
	mux.HandleFunc("GET /api/notifications", h.listNotifications)
	mux.HandleFunc("GET /api/carousel", h.carouselState)
	mux.HandleFunc("GET /api/openapi.json", h.openAPI)

	if opts.Assets != nil {
		mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(opts.Assets)))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		mux.ServeHTTP(w, r)
	})
}

type handler struct {
	opts Options
	base string
}

func (h *handler) page(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, page.Form{})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	if h.opts.Gate == nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: errNotConfigured})
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, StatusError{Code: http.StatusBadRequest, Err: err})
		return
	}

	res, err := h.opts.Gate.Submit(r.Context(), formgate.ValuesFromForm(r.PostForm))
	if err != nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: err})
		return
	}
	if !res.Valid() {
		h.renderPage(w, r, http.StatusUnprocessableEntity, page.Form{
			Values: res.Values,
			Errors: res.Errors.Messages(),
		})
		return
	}
	h.opts.Logger.Info("record submitted", "id", res.Record.ID)
	h.redirectHome(w, r)
}

func (h *handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	if err := h.delete(r); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirectHome(w, r)
}

func (h *handler) carouselAction(w http.ResponseWriter, r *http.Request) {
	if h.opts.Carousel == nil {
		h.fail(w, r, StatusError{Code: http.StatusNotFound})
		return
	}
	switch r.PathValue("action") {
	case "next":
		h.opts.Carousel.Next()
	case "prev":
		h.opts.Carousel.Prev()
	case "toggle":
		h.opts.Carousel.Toggle()
	default:
		h.fail(w, r, StatusError{Code: http.StatusNotFound})
		return
	}
	h.carouselDone(w, r)
}

func (h *handler) carouselGoTo(w http.ResponseWriter, r *http.Request) {
	if h.opts.Carousel == nil {
		h.fail(w, r, StatusError{Code: http.StatusNotFound})
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.fail(w, r, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("records: invalid slide index %q", r.PathValue("index"))})
		return
	}
	// out-of-range jumps are ignored by the slider
	h.opts.Carousel.GoTo(index)
	h.carouselDone(w, r)
}

func (h *handler) carouselDone(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, h.opts.Carousel.State())
		return
	}
	h.redirectHome(w, r)
}

func (h *handler) renderPage(w http.ResponseWriter, r *http.Request, status int, form page.Form) {
	if h.opts.Page == nil || h.opts.Table == nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: errNotConfigured})
		return
	}
	data := page.Data{
		Rows:  h.opts.Table.Rows(),
		Count: h.opts.Table.Count(),
		Form:  form,
	}
	if h.opts.Notifications != nil {
		data.Notifications = h.opts.Notifications.Active()
	}
	if h.opts.Carousel != nil {
		data.Carousel = h.opts.Carousel.State()
	}

	var buf bytes.Buffer
	if err := h.opts.Page.Render(&buf, data); err != nil {
		h.fail(w, r, StatusError{Code: http.StatusInternalServerError, Err: err})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *handler) delete(r *http.Request) error {
	if h.opts.Store == nil {
		return StatusError{Code: http.StatusInternalServerError, Err: errNotConfigured}
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("records: invalid id %q", r.PathValue("id"))}
	}
	removed, err := h.opts.Store.Delete(r.Context(), id)
	if err != nil {
		return StatusError{Code: http.StatusInternalServerError, Err: err}
	}
	if !removed {
		h.opts.Logger.Debug("delete of unknown record ignored", "id", id)
	}
	return nil
}

func (h *handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.base, http.StatusSeeOther)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
	}
	if code >= http.StatusInternalServerError {
		h.opts.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if wantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, code, errorResponse{Error: http.StatusText(code)})
		return
	}
	http.Error(w, http.StatusText(code), code)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func normalizeBase(base string) string {
	base = "/" + strings.Trim(strings.TrimSpace(base), "/")
	if base != "/" {
		base += "/"
	}
	return base
}
