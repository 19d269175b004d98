package portfolio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/clock"
	"github.com/goliatone/go-portfolio/pkg/kv"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/recordstore"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Store = "memory://"
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, opts ...Option) (*App, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(fake),
	}, opts...)
	app, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app, fake
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAssetsFSContainsStylesheetAndScript(t *testing.T) {
	for _, name := range []string{"portfolio.css", "portfolio.js"} {
		data, err := fs.ReadFile(AssetsFS(), name)
		if err != nil {
			t.Fatalf("expected %s to be readable: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("expected %s to have content", name)
		}
	}
}

func TestApp_ServesPageAssetsAndHealth(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	h := app.Handler()

	if rec := do(h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodGet, "/assets/portfolio.js", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected script to be served, got %d", rec.Code)
	}

	rec := do(h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Всего записей: 3", `href="/assets/portfolio.css"`, "Веб-разработка"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}

func TestApp_DeletePostsSuccessBanner(t *testing.T) {
	app, fake := newTestApp(t, testConfig())

	rec := do(app.Handler(), http.MethodPost, "/records/1/delete", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	active := app.Notifications().Active()
	if len(active) != 1 || active[0].Message != "Запись успешно удалена!" || active[0].Kind != notify.KindSuccess {
		t.Fatalf("unexpected notifications %+v", active)
	}
	if app.Table().Count() != 2 {
		t.Fatalf("table should follow the store, count=%d", app.Table().Count())
	}

	// unknown ids are silent
	do(app.Handler(), http.MethodPost, "/records/42/delete", url.Values{})
	if got := len(app.Notifications().Active()); got != 1 {
		t.Fatalf("unknown delete must not notify, active=%d", got)
	}

	fake.Advance(notify.DefaultDisplayDuration + notify.DefaultFadeDuration)
	if got := len(app.Notifications().Active()); got != 0 {
		t.Fatalf("banner should be gone, active=%d", got)
	}
}

func TestApp_FadingBannerRendersForImmediateFade(t *testing.T) {
	app, fake := newTestApp(t, testConfig())
	do(app.Handler(), http.MethodPost, "/records/1/delete", url.Values{})
	fake.Advance(notify.DefaultDisplayDuration)

	body := do(app.Handler(), http.MethodGet, "/", nil).Body.String()
	if !strings.Contains(body, `class="notification success fading"`) {
		t.Fatalf("expected banner rendered in fading stage")
	}

	script := do(app.Handler(), http.MethodGet, "/assets/portfolio.js", nil).Body.String()
	if !strings.Contains(script, "classList.contains('fading')") {
		t.Fatalf("script must start the fade at once for banners already fading")
	}
}

func TestApp_SubmitAddsRowAndBanner(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	rec := do(app.Handler(), http.MethodPost, "/records", url.Values{
		"name":  {"Test"},
		"email": {"t@x.com"},
		"phone": {"+79991234567"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	rows := app.Table().Rows()
	if len(rows) != 4 || rows[3].ID != 4 || rows[3].Name != "Test" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	active := app.Notifications().Active()
	if len(active) != 1 || active[0].Message != "Запись успешно добавлена!" {
		t.Fatalf("unexpected notifications %+v", active)
	}
}

func TestApp_BasePathAndLocale(t *testing.T) {
	cfg := testConfig()
	cfg.BasePath = "/portfolio"
	cfg.Locale = "en"
	app, _ := newTestApp(t, cfg)

	rec := do(app.Handler(), http.MethodGet, "/portfolio/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`<html lang="en">`, `action="/portfolio/records"`, `href="/portfolio/assets/portfolio.css"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
	if rec := do(app.Handler(), http.MethodGet, "/portfolio/assets/portfolio.css", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected stylesheet under base path, got %d", rec.Code)
	}
}

func TestApp_CarouselAdvancesWithClock(t *testing.T) {
	app, fake := newTestApp(t, testConfig())
	fake.Advance(5 * time.Second)
	if got := app.Carousel().State().Current; got != 1 {
		t.Fatalf("expected slide 1 after one delay, got %d", got)
	}
}

func TestApp_SharedBackendPersists(t *testing.T) {
	backend := kv.NewMemory()
	app, _ := newTestApp(t, testConfig(), WithBackend(backend))
	if _, err := app.Store().Delete(context.Background(), 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	again, _ := newTestApp(t, testConfig(), WithBackend(backend))
	if again.Store().Count() != 2 {
		t.Fatalf("expected persisted deletion, count=%d", again.Store().Count())
	}
}

func TestNew_CorruptDataPolicy(t *testing.T) {
	backend := kv.NewMemory()
	if err := backend.Set(context.Background(), recordstore.DefaultKey, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}

	_, err := New(context.Background(), testConfig(),
		WithBackend(backend),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if !errors.Is(err, recordstore.ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}

	cfg := testConfig()
	cfg.CorruptPolicy = string(recordstore.CorruptReseed)
	app, _ := newTestApp(t, cfg, WithBackend(backend))
	if app.Store().Count() != 3 {
		t.Fatalf("expected reseeded store, count=%d", app.Store().Count())
	}
}

func TestOpenStore_CorruptFileDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	cfg := testConfig()
	cfg.Store = "file://" + path
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, _, err := OpenStore(context.Background(), cfg, quiet); !errors.Is(err, recordstore.ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
	if raw, _ := os.ReadFile(path); string(raw) != "{not json" {
		t.Fatalf("fail policy must leave the file untouched, got %q", raw)
	}

	cfg.CorruptPolicy = string(recordstore.CorruptReseed)
	store, backend, err := OpenStore(context.Background(), cfg, quiet)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	defer backend.Close()
	if store.Count() != 3 {
		t.Fatalf("expected reseeded store, count=%d", store.Count())
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Fatalf("expected corrupt document set aside: %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Carousel.Slides = nil
	if _, err := New(context.Background(), cfg); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestOpenStore_MemoryDSN(t *testing.T) {
	store, backend, err := OpenStore(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer backend.Close()
	if store.Count() != 3 {
		t.Fatalf("expected seeded store, count=%d", store.Count())
	}

	cfg := testConfig()
	cfg.Store = "redis://localhost"
	if _, _, err := OpenStore(context.Background(), cfg, nil); !errors.Is(err, kv.ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestApp_ListenAndServeStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Listen = "127.0.0.1:0"
	app, _ := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.ListenAndServe(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen and serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
