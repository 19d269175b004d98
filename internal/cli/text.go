package cli

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"text/tabwriter"

	gotemplate "github.com/goliatone/go-template"
)

//go:embed templates/*.tpl
var textTemplates embed.FS

var (
	textOnce   sync.Once
	textEngine *gotemplate.Engine
	textErr    error
)

// textRenderer loads the embedded text templates once. Templates receive the
// command result converted through its json tags, so numbers arrive as
// floats and are printed with the integer filter.
func textRenderer() (*gotemplate.Engine, error) {
	textOnce.Do(func() {
		sub, err := fs.Sub(textTemplates, "templates")
		if err != nil {
			textErr = fmt.Errorf("cli: text templates: %w", err)
			return
		}
		textEngine, textErr = gotemplate.NewRenderer(
			gotemplate.WithFS(sub),
			gotemplate.WithExtension(".tpl"),
		)
		if textErr != nil {
			textErr = fmt.Errorf("cli: text templates: %w", textErr)
		}
	})
	return textEngine, textErr
}

// renderText executes the named template and aligns tab-separated cells.
func renderText(w io.Writer, name string, data any) error {
	engine, err := textRenderer()
	if err != nil {
		return err
	}
	out, err := engine.RenderTemplate(name, data)
	if err != nil {
		return fmt.Errorf("cli: render %s: %w", name, err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := io.WriteString(tw, out); err != nil {
		return err
	}
	return tw.Flush()
}
