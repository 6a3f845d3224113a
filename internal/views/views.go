// Package views renders the HTML pages. Templates are embedded in the binary
// and every page is executed through the shared "base" layout.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"inkwell/internal/media"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates
var templateFS embed.FS

const (
	layoutFile  = "templates/layout/base.html"
	partialsDir = "templates/partials"
	pagesDir    = "templates/pages"
)

// PostFormView pre-fills the post form.
type PostFormView struct {
	Text    string
	GroupID *uint
	// Image is the currently attached media path when editing.
	Image string
}

// Engine implements fiber.Views over the embedded templates.
type Engine struct {
	files fs.FS

	mu    sync.RWMutex
	pages map[string]*template.Template
}

var _ fiber.Views = (*Engine)(nil)

// New returns an engine over the embedded templates.
func New() *Engine {
	return &Engine{files: templateFS}
}

// NewFromFS returns an engine over files laid out like the embedded templates.
func NewFromFS(files fs.FS) *Engine {
	return &Engine{files: files}
}

// Load parses the layout, partials and every page. It is safe to call again.
func (e *Engine) Load() error {
	root := template.New("base").Funcs(Funcs())
	if _, err := root.ParseFS(e.files, layoutFile); err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if _, err := root.ParseFS(e.files, partialsDir+"/*.html"); err != nil {
		return fmt.Errorf("parse partials: %w", err)
	}

	pages := make(map[string]*template.Template)
	err := fs.WalkDir(e.files, pagesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, pagesDir+"/"), ".html")

		t, err := root.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(e.files, p); err != nil {
			return fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = t
		return nil
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes the named page (e.g. "index", "misc/404") inside the base layout.
// Layout arguments are accepted for fiber compatibility and ignored.
func (e *Engine) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	e.mu.RLock()
	loaded := e.pages != nil
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// Has reports whether a page template exists.
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.pages[name]
	return ok
}

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"mediaURL":     media.URL,
		"thumbURL":     func(rel string) string { return media.URL(media.ThumbnailPath(rel)) },
		"webpURL":      func(rel string) string { return media.URL(media.WebPPath(rel)) },
		"date":         formatDate,
		"linebreaksbr": linebreaksbr,
		"fieldError":   fieldError,
		"selected":     selected,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006 15:04")
}

// linebreaksbr escapes s and turns newlines into <br>.
func linebreaksbr(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// fieldError returns the message for field from a map of form errors, or "".
func fieldError(errs interface{}, field string) string {
	m, ok := errs.(map[string]string)
	if !ok {
		return ""
	}
	return m[field]
}

// selected reports whether the optional group id points at id.
func selected(current *uint, id uint) bool {
	return current != nil && *current == id
}
