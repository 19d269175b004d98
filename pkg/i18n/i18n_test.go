package i18n_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-portfolio/pkg/i18n"
)

func TestDefault_LoadsEmbeddedCatalogs(t *testing.T) {
	catalog, err := i18n.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if diff := cmp.Diff([]string{"en", "ru"}, catalog.Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}

	cases := map[string]string{
		"form.name.required":   "Имя обязательно для заполнения",
		"form.email.required":  "Email обязателен для заполнения",
		"form.email.invalid":   "Введите корректный email адрес",
		"form.phone.required":  "Телефон обязателен для заполнения",
		"form.phone.invalid":   "Введите корректный номер телефона",
		"notify.success.added": "Запись успешно добавлена!",
	}
	for key, want := range cases {
		got, err := catalog.Translate("ru", key)
		if err != nil {
			t.Fatalf("translate %s: %v", key, err)
		}
		if got != want {
			t.Fatalf("translate %s: want %q, got %q", key, want, got)
		}
	}
}

func TestCatalog_FallsBackThroughBaseLanguage(t *testing.T) {
	catalog := i18n.NewCatalog("ru")
	catalog.Set("ru", "greeting", "Привет")
	catalog.Set("en", "greeting", "Hello")
	catalog.Set("en", "only.en", "English only")

	got, err := catalog.Translate("en-US", "greeting")
	if err != nil || got != "Hello" {
		t.Fatalf("expected base language match, got %q err=%v", got, err)
	}
	got, err = catalog.Translate("de", "greeting")
	if err != nil || got != "Привет" {
		t.Fatalf("expected fallback locale match, got %q err=%v", got, err)
	}
	if _, err := catalog.Translate("ru", "only.en"); !errors.Is(err, i18n.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestCatalog_FormatsArgs(t *testing.T) {
	catalog, err := i18n.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	got, err := catalog.Translate("en", "table.count", 4)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Total records: 4" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCatalog_LoadFSFlattensNestedKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"l/fr.yml":    {Data: []byte("a:\n  b:\n    c: profond\n  n: 3\n")},
		"l/notes.txt": {Data: []byte("ignored")},
	}
	catalog := i18n.NewCatalog("fr")
	if err := catalog.LoadFS(fsys, "l"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := catalog.Translate("fr", "a.b.c"); got != "profond" {
		t.Fatalf("expected nested key, got %q", got)
	}
	if got, _ := catalog.Translate("fr", "a.n"); got != "3" {
		t.Fatalf("expected scalar coerced to string, got %q", got)
	}
	if catalog.Has("notes") {
		t.Fatalf("non-yaml file loaded as locale")
	}
}

func TestCatalog_LoadRejectsMalformedYAML(t *testing.T) {
	catalog := i18n.NewCatalog("")
	if err := catalog.Load("ru", []byte("a: [unterminated")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestT_RoutesMissingThroughHandler(t *testing.T) {
	var gotErr error
	handler := func(_ string, key string, _ []any, err error) string {
		gotErr = err
		return "!" + key
	}
	if got := i18n.T(nil, handler, "ru", "x"); got != "!x" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if !errors.Is(gotErr, i18n.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
	if got := i18n.T(i18n.NewCatalog("ru"), nil, "ru", "missing.key"); got != "missing.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestTemplateFuncs_ResolveLocaleFromData(t *testing.T) {
	catalog := i18n.NewCatalog("ru")
	catalog.Set("en", "hello", "Hello %s")

	funcs := i18n.TemplateFuncs(catalog, i18n.TemplateConfig{})
	translate, ok := funcs["translate"].(func(any, string, ...any) string)
	if !ok {
		t.Fatalf("translate helper has unexpected type %T", funcs["translate"])
	}
	currentLocale := funcs["current_locale"].(func(any) string)

	if got := translate(map[string]any{"locale": "en"}, "hello", "Ann"); got != "Hello Ann" {
		t.Fatalf("unexpected translation %q", got)
	}
	type page struct{ Locale string }
	if got := currentLocale(&page{Locale: "en"}); got != "en" {
		t.Fatalf("unexpected locale %q", got)
	}
	if got := translate("en", "  "); got != "" {
		t.Fatalf("expected empty key to render empty, got %q", got)
	}
}
