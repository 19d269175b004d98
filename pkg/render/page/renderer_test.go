package page_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goliatone/go-portfolio/pkg/carousel"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/render/page"
)

func sampleData() page.Data {
	return page.Data{
		Rows: []render.Row{
			{ID: 1, Name: "Алексей Петров", Email: "alex@example.com", Phone: "+7 (999) 123-45-67", DeleteAction: "/records/1/delete"},
			{ID: 5, Name: "<b>Eve</b>", Email: "eve@example.com", Phone: "89991234567", DeleteAction: "/records/5/delete"},
		},
		Count: 2,
		Form: page.Form{
			Values: map[string]string{"email": "bad-email"},
			Errors: map[string]string{"email": "Введите корректный email адрес"},
		},
		Notifications: []notify.Notification{
			{ID: "n1", Message: "Запись успешно удалена!", Kind: notify.KindSuccess, Stage: notify.StageVisible},
		},
		Carousel: carousel.State{
			Current:  1,
			Total:    2,
			AutoPlay: true,
			Delay:    "5s",
			DelayMS:  5000,
			Slides: []carousel.Slide{
				{Title: "First", Caption: "plain"},
				{Title: "Second", Caption: `<em>bold</em><script>alert(1)</script>`},
			},
			Active: []bool{false, true},
		},
	}
}

func renderSample(t *testing.T, opts ...page.Option) string {
	t.Helper()
	renderer, err := page.New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, sampleData()); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, html)
		}
	}
}

func TestRenderer_RendersTableAndCount(t *testing.T) {
	html := renderSample(t)
	assertContains(t, html,
		`<tr data-id="1">`,
		"Алексей Петров",
		`action="/records/5/delete"`,
		`href="tel:+79991234567"`,
		"Всего записей: 2",
	)
}

func TestRenderer_EscapesRecordFields(t *testing.T) {
	html := renderSample(t)
	if strings.Contains(html, "<b>Eve</b>") {
		t.Fatalf("record name rendered unescaped")
	}
	assertContains(t, html, "&lt;b&gt;Eve&lt;/b&gt;")
}

func TestRenderer_FormShowsInlineErrors(t *testing.T) {
	html := renderSample(t)
	assertContains(t, html,
		`<form id="dataForm" method="post" action="/records"`,
		`<div class="form-group error">`,
		`value="bad-email"`,
		"Введите корректный email адрес",
	)
}

func TestRenderer_NotificationsUseThemeColors(t *testing.T) {
	html := renderSample(t)
	assertContains(t, html,
		`class="notification success visible"`,
		"background-color: #2ecc71",
		"Запись успешно удалена!",
	)
}

func TestRenderer_CarouselSanitizesCaptions(t *testing.T) {
	html := renderSample(t)
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatalf("caption script survived sanitizing")
	}
	assertContains(t, html,
		"<em>bold</em>",
		`<div class="slide active">`,
		`action="/carousel/goto/1"`,
		`data-delay="5000"`,
		"Пауза",
	)
}

func TestRenderer_BasePathAndLocale(t *testing.T) {
	html := renderSample(t, page.WithBasePath("/app"), page.WithLocale("en"))
	assertContains(t, html,
		`<html lang="en">`,
		`action="/app/records"`,
		`action="/app/carousel/next"`,
		`href="/app/assets/portfolio.css"`,
		"Total records: 2",
	)
}

func TestRenderer_ThemeCSSVars(t *testing.T) {
	html := renderSample(t)
	assertContains(t, html, "--notify-success: #2ecc71;", `data-theme="portfolio"`)
}

func TestSanitizeCaption(t *testing.T) {
	cases := map[string]string{
		"":                               "",
		"  plain  ":                      "plain",
		`<strong>ok</strong><img src=x>`: "<strong>ok</strong>",
		`<i onclick="x()">hi</i>`:        "<i>hi</i>",
	}
	for input, want := range cases {
		if got := page.SanitizeCaption(input); got != want {
			t.Fatalf("SanitizeCaption(%q) = %q, want %q", input, got, want)
		}
	}
}
