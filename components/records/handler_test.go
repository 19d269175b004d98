package records

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-portfolio/pkg/carousel"
	"github.com/goliatone/go-portfolio/pkg/clock"
	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/kv"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/record"
	"github.com/goliatone/go-portfolio/pkg/recordstore"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/render/page"
)

type fixture struct {
	store  *recordstore.Store
	center *notify.Center
	slider *carousel.Slider
	clock  *clock.Fake
	opts   Options
}

func newFixture(t *testing.T, base string, fns ...OptionFn) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	store := recordstore.New(kv.NewMemory(), recordstore.WithLogger(logger))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}

	surface := render.NewMemorySurface()
	binder := render.Bind(store, surface, render.WithBasePath(base))
	t.Cleanup(binder.Close)

	center := notify.NewCenter(notify.WithClock(fake), notify.WithLogger(logger))
	gate, err := formgate.New(store, formgate.WithNotifier(center), formgate.WithLogger(logger))
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}

	slider, err := carousel.New([]carousel.Slide{
		{Title: "One", Caption: "first"},
		{Title: "Two", Caption: "second"},
		{Title: "Three", Caption: "third"},
	}, carousel.WithClock(fake), carousel.WithLogger(logger))
	if err != nil {
		t.Fatalf("new carousel: %v", err)
	}
	t.Cleanup(func() { _ = slider.Close() })

	renderer, err := page.New(page.WithBasePath(base), page.WithLogger(logger))
	if err != nil {
		t.Fatalf("new page renderer: %v", err)
	}

	defaults := []OptionFn{
		WithStore(store),
		WithGate(gate),
		WithTable(surface),
		WithNotifications(center),
		WithCarousel(slider),
		WithPage(renderer),
		WithAssets(fstest.MapFS{
			"portfolio.css": {Data: []byte("body { margin: 0; }")},
		}),
		WithLogger(logger),
		WithBasePath(base),
	}
	return &fixture{
		store:  store,
		center: center,
		slider: slider,
		clock:  fake,
		opts:   NewOptions(append(defaults, fns...)...),
	}
}

func (f *fixture) handler() http.Handler {
	return HandlerWithOptions(f.opts)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandler_PageRendersSeededTable(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content-type, got %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"Алексей Петров", "Мария Иванова", "Всего записей: 3", `action="/records/2/delete"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestHandler_UnknownPathIs404(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_SubmitInvalidRendersErrors(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), postForm("/records", url.Values{
		"name":  {""},
		"email": {"bad-email"},
		"phone": {"+7 (999) 000-00-00"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Имя обязательно для заполнения", "Введите корректный email адрес", `value="bad-email"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
	if strings.Contains(body, "Телефон обязателен") {
		t.Fatalf("valid phone must not be flagged")
	}
	if f.store.Count() != 3 {
		t.Fatalf("invalid submission must not add, count=%d", f.store.Count())
	}
	if len(f.center.Active()) != 0 {
		t.Fatalf("invalid submission must not notify")
	}
}

func TestHandler_SubmitValidAddsAndRedirects(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), postForm("/records", url.Values{
		"name":  {"  Test User "},
		"email": {"test@example.com"},
		"phone": {"+7 (999) 111-22-33"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	got, ok := f.store.Get(4)
	if !ok {
		t.Fatalf("expected record 4 to exist")
	}
	want := record.Record{ID: 4, Name: "Test User", Email: "test@example.com", Phone: "+7 (999) 111-22-33"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	active := f.center.Active()
	if len(active) != 1 || active[0].Message != "Запись успешно добавлена!" || active[0].Kind != notify.KindSuccess {
		t.Fatalf("unexpected notifications %+v", active)
	}

	html := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(html, "Всего записей: 4") || !strings.Contains(html, "Запись успешно добавлена!") {
		t.Fatalf("page does not reflect the new record")
	}
}

func TestHandler_DeleteFormRemovesRecord(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), postForm("/records/2/delete", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if _, ok := f.store.Get(2); ok {
		t.Fatalf("record 2 should be gone")
	}

	rec = serve(f.handler(), postForm("/records/99/delete", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("unknown id should still redirect, got %d", rec.Code)
	}
	if f.store.Count() != 2 {
		t.Fatalf("expected 2 records, got %d", f.store.Count())
	}

	rec = serve(f.handler(), postForm("/records/abc/delete", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestHandler_APIListAndCreate(t *testing.T) {
	f := newFixture(t, "/")
	h := f.handler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list recordsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 3 || len(list.Data) != 3 {
		t.Fatalf("unexpected list %+v", list)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/records",
		strings.NewReader(`{"name":"Api","email":"api@example.com","phone":"89991234567"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(h, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created record.Record
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID != 4 || created.Name != "Api" {
		t.Fatalf("unexpected created record %+v", created)
	}
}

func TestHandler_APICreateValidation(t *testing.T) {
	f := newFixture(t, "/")
	h := f.handler()

	req := httptest.NewRequest(http.MethodPost, "/api/records",
		strings.NewReader(`{"name":"X","email":"nope","phone":"abc"}`))
	rec := serve(h, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var payload validationResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		"email": "Введите корректный email адрес",
		"phone": "Введите корректный номер телефона",
	}
	if diff := cmp.Diff(want, payload.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"name":`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("api errors should be json, got %q", ct)
	}
}

func TestHandler_APIDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t, "/")
	h := f.handler()

	for i := 0; i < 2; i++ {
		rec := serve(h, httptest.NewRequest(http.MethodDelete, "/api/records/1", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("attempt %d: expected 204, got %d", i, rec.Code)
		}
	}
	if f.store.Count() != 2 {
		t.Fatalf("expected 2 records, got %d", f.store.Count())
	}
}

func TestHandler_APINotificationsLifecycle(t *testing.T) {
	f := newFixture(t, "/")
	f.center.Notify("hello", notify.KindInfo)

	decode := func() notificationsResponse {
		t.Helper()
		rec := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
		var payload notificationsResponse
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return payload
	}

	if got := decode(); len(got.Data) != 1 || got.Data[0].Stage != notify.StageVisible {
		t.Fatalf("unexpected notifications %+v", got)
	}
	f.clock.Advance(notify.DefaultDisplayDuration)
	if got := decode(); len(got.Data) != 1 || got.Data[0].Stage != notify.StageFading {
		t.Fatalf("expected fading banner, got %+v", got)
	}
	f.clock.Advance(notify.DefaultFadeDuration)
	if got := decode(); got.Data == nil || len(got.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", got.Data)
	}
}

func TestHandler_CarouselActions(t *testing.T) {
	f := newFixture(t, "/")
	h := f.handler()

	rec := serve(h, postForm("/carousel/next", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if f.slider.State().Current != 1 {
		t.Fatalf("expected slide 1, got %d", f.slider.State().Current)
	}

	req := postForm("/carousel/prev", nil)
	req.Header.Set("Accept", "application/json")
	rec = serve(h, req)
	var state carousel.State
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Current != 0 {
		t.Fatalf("expected slide 0, got %d", state.Current)
	}

	serve(h, postForm("/carousel/goto/2", nil))
	if f.slider.State().Current != 2 {
		t.Fatalf("expected slide 2")
	}
	serve(h, postForm("/carousel/goto/7", nil))
	if f.slider.State().Current != 2 {
		t.Fatalf("out-of-range jump must be ignored")
	}

	serve(h, postForm("/carousel/toggle", nil))
	if f.slider.State().AutoPlay {
		t.Fatalf("toggle should pause autoplay")
	}

	if rec := serve(h, postForm("/carousel/spin", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown action, got %d", rec.Code)
	}
	if rec := serve(h, postForm("/carousel/goto/x", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad index, got %d", rec.Code)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/carousel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_OpenAPIDocument(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/api/records", "/api/records/{id}", "/api/notifications", "/api/carousel"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("expected path %q in document", p)
		}
	}
}

func TestOpenAPI_Validates(t *testing.T) {
	doc, err := OpenAPI("", "/portfolio/")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	if doc.Info.Title != "Portfolio" {
		t.Fatalf("unexpected title %q", doc.Info.Title)
	}
	if doc.Servers[0].URL != "/portfolio/" {
		t.Fatalf("unexpected server url %q", doc.Servers[0].URL)
	}
	if doc.Paths.Find("/api/records/{id}").Delete == nil {
		t.Fatalf("expected delete operation")
	}
}

func TestHandler_ServesAssets(t *testing.T) {
	f := newFixture(t, "/")
	rec := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/assets/portfolio.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "margin") {
		t.Fatalf("unexpected asset body %q", rec.Body.String())
	}
}

func TestHandler_GuardRejects(t *testing.T) {
	f := newFixture(t, "/", WithGuard(func(r *http.Request) error {
		if r.Header.Get("X-Token") == "ok" {
			return nil
		}
		return StatusError{Code: http.StatusUnauthorized, Err: errors.New("missing token")}
	}))
	h := f.handler()

	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Token", "ok")
	if rec := serve(h, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestHandler_GuardPlainErrorIsForbidden(t *testing.T) {
	f := newFixture(t, "/", WithGuard(func(*http.Request) error { return errors.New("no") }))
	if rec := serve(f.handler(), httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandler_MissingCollaborators(t *testing.T) {
	h := Handler(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/carousel", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without carousel, got %d", rec.Code)
	}
}

func TestStatusError_DefaultsTo500(t *testing.T) {
	var err HTTPError = StatusError{}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", err.StatusCode())
	}
	if msg := (StatusError{Code: http.StatusNotFound}).Error(); msg != "Not Found" {
		t.Fatalf("unexpected message %q", msg)
	}
	wrapped := StatusError{Code: http.StatusBadRequest, Err: io.ErrUnexpectedEOF}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Fatalf("expected StatusError to unwrap")
	}
}
