// Package view renders page templates with a shared layout. Parsed templates
// are cached; set TEMPLATES_RELOAD=1 in development to re-parse per request.
package view

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func baseDir() string {
	if d := os.Getenv("TEMPLATES_DIR"); d != "" {
		return d
	}
	return "templates"
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"money": func(cents int) string {
			return fmt.Sprintf("$%d", cents)
		},
		"add": func(a, b int) int { return a + b },
	}
}

func load(name string) (*template.Template, error) {
	reload := os.Getenv("TEMPLATES_RELOAD") == "1"
	if !reload {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			return t, nil
		}
	}
	layout := filepath.Join(baseDir(), "layout.html")
	page := filepath.Join(baseDir(), name)
	t, err := template.New("layout.html").Funcs(funcs()).ParseFiles(layout, page)
	if err != nil {
		return nil, err
	}
	if !reload {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render writes the named page wrapped in the shared layout.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	t, err := load(name)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, "layout.html", data)
}
