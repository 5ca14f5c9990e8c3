// internal/web/render.go
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Data is the page-specific payload handed to a template.
type Data map[string]interface{}

// View is what every template executes against.
type View struct {
	Path    string
	Flashes []Message
	Data    Data
}

// Renderer executes the embedded page templates inside the shared layout
// and owns the flash cookie.
type Renderer struct {
	pages   map[string]*template.Template
	flashes *Flasher
}

var funcs = template.FuncMap{
	"date": func(v interface{}) string {
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		case *time.Time:
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		}
		return ""
	},
	"year": func(y *int) string {
		if y == nil {
			return ""
		}
		return fmt.Sprint(*y)
	},
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func NewRenderer(flashes *Flasher) (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages, flashes: flashes}, nil
}

// Redirect flashes msg and sends the client to url.
func (v *Renderer) Redirect(w http.ResponseWriter, r *http.Request, url string, msg Message) {
	v.flashes.Add(w, r, msg)
	http.Redirect(w, r, url, http.StatusFound)
}

// Render writes page with status. Pending flash messages are consumed and
// shown together with now.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data Data, now ...Message) {
	tmpl, ok := v.pages[page]
	if !ok {
		v.ServerError(w, r, fmt.Errorf("unknown template %q", page))
		return
	}

	view := View{
		Path:    r.URL.Path,
		Flashes: append(v.flashes.Pop(w, r), now...),
		Data:    data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		log.Printf("[ERROR] id=%s render %s: %v", RequestIDFrom(r.Context()), page, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// NotFound renders the generic 404 page.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.Render(w, r, http.StatusNotFound, "error.html", Data{
		"Status":  http.StatusNotFound,
		"Message": "The page you are looking for does not exist.",
	})
}

// ServerError logs err and renders the generic failure page.
func (v *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("[ERROR] id=%s %s %s: %v", RequestIDFrom(r.Context()), r.Method, r.URL.Path, err)

	tmpl, ok := v.pages["error.html"]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	tmpl.ExecuteTemplate(w, "layout", View{
		Path: r.URL.Path,
		Data: Data{
			"Status":  http.StatusInternalServerError,
			"Message": "Something went wrong while processing your request.",
		},
	})
}

// JSON writes v as a JSON document.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
