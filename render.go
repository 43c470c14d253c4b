package main

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"giveback/pkg/forms"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// partialsFile holds the shared header, footer and message blocks parsed into every page.
const partialsFile = "partials.html"

var templateFuncs = template.FuncMap{
	"money":   forms.FormatAmount,
	"checked": forms.Checked,
	"date": func(t time.Time) string {
		return t.UTC().Format("2 Jan 2006")
	},
	"mediaURL": func(storePath string) string {
		return "/" + storePath
	},
}

// templateRenderer implements gin's HTMLRender over one template set per page.
// The set can be swapped at runtime by Reload.
type templateRenderer struct {
	mu    sync.RWMutex
	pages map[string]*template.Template

	fsys fs.FS
	dir  string
	log  *zap.Logger
}

// newTemplateRenderer loads pages from dir, or from the embedded copy when dir is empty.
func newTemplateRenderer(dir string, log *zap.Logger) (*templateRenderer, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	r := &templateRenderer{fsys: fsys, dir: dir, log: log}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload parses every page again. On error the current set is kept.
func (r *templateRenderer) Reload() error {
	names, err := fs.Glob(r.fsys, "*.html")
	if err != nil {
		return err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == partialsFile {
			continue
		}
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(r.fsys, name, partialsFile)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

func (r *templateRenderer) Instance(name string, data any) render.Render {
	r.mu.RLock()
	t := r.pages[name]
	r.mu.RUnlock()
	if t == nil {
		return missingTemplate(name)
	}
	return render.HTML{Template: t, Name: name, Data: data}
}

// Watch reloads the templates when files under dir change. Events are
// debounced so an editor's save burst triggers a single reload.
func (r *templateRenderer) Watch() (stop func(), err error) {
	if r.dir == "" {
		return nil, fmt.Errorf("embedded templates cannot be watched")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(r.dir); err != nil {
		w.Close()
		return nil, err
	}
	r.log.Info("watching templates", zap.String("dir", r.dir))

	go func() {
		var pending time.Time
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if strings.EqualFold(filepath.Ext(ev.Name), ".html") {
					pending = time.Now()
				}
			case <-ticker.C:
				if pending.IsZero() || time.Since(pending) < 300*time.Millisecond {
					continue
				}
				pending = time.Time{}
				if err := r.Reload(); err != nil {
					r.log.Warn("template reload failed", zap.Error(err))
					continue
				}
				r.log.Info("templates reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.log.Warn("template watch error", zap.Error(err))
			}
		}
	}()
	return func() { _ = w.Close() }, nil
}

type missingTemplate string

func (m missingTemplate) Render(w http.ResponseWriter) error {
	return fmt.Errorf("template %q not found", string(m))
}

func (m missingTemplate) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}
