package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"laserwave.studio/web/internal/format"
	handlersPkg "laserwave.studio/web/internal/handlers"
	"laserwave.studio/web/internal/i18n"
	"laserwave.studio/web/internal/links"
	"laserwave.studio/web/internal/observability"
)

// views parses the template tree. Files under pages/ each get their own
// clone of the shared layout and partials; everything else is shared.
// In dev mode templates are reparsed on each render.
type views struct {
	dir    string
	dev    bool
	bundle *i18n.Bundle
	cache  *templateSet
}

type templateSet struct {
	shared *template.Template
	pages  map[string]*template.Template
}

func newViews(dir string, dev bool, bundle *i18n.Bundle) (*views, error) {
	v := &views{dir: dir, dev: dev, bundle: bundle}
	set, err := v.parse()
	if err != nil {
		return nil, err
	}
	if !dev {
		v.cache = set
	}
	return v, nil
}

func (v *views) funcs() template.FuncMap {
	return template.FuncMap{
		"now":        time.Now,
		"date":       format.Date,
		"paragraphs": handlersPkg.Paragraphs,
		"t": func(lang, key string) string {
			if v.bundle == nil {
				return key
			}
			return v.bundle.T(lang, key)
		},
		// linkWith relabels a chrome link, e.g. the phone link with the display number.
		"linkWith": func(l handlersPkg.Link, label string) handlersPkg.Link {
			l.Label = label
			return l
		},
	}
}

func (v *views) parse() (*templateSet, error) {
	var shared, pages []string
	// Recursively discover all .tmpl files. Note: ParseGlob doesn't support **.
	if err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) == "pages" {
			pages = append(pages, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(shared) == 0 || len(pages) == 0 {
		return nil, fmt.Errorf("no templates found under %s", v.dir)
	}

	base, err := template.New("_root").Funcs(v.funcs()).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}
	set := &templateSet{shared: base, pages: make(map[string]*template.Template, len(pages))}
	for _, file := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFiles(file); err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(file), ".tmpl")
		set.pages[name] = clone
	}
	return set, nil
}

func (v *views) current() (*templateSet, error) {
	if v.dev || v.cache == nil {
		return v.parse()
	}
	return v.cache, nil
}

// renderPage executes the base layout with the page's content block.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, page string, status int, data handlersPkg.PageData) {
	set, err := a.views.current()
	if err != nil {
		a.templateError(w, r, "template parse error", err)
		return
	}
	t, ok := set.pages[page]
	if !ok {
		a.templateError(w, r, "unknown page template", fmt.Errorf("page %q", page))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		a.templateError(w, r, "template exec error", err)
		return
	}
	a.write(w, r, status, buf.Bytes())
}

// renderFragment executes a shared partial for htmx swaps.
func (a *app) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	set, err := a.views.current()
	if err != nil {
		a.templateError(w, r, "template parse error", err)
		return
	}
	var buf bytes.Buffer
	if err := set.shared.ExecuteTemplate(&buf, name, data); err != nil {
		a.templateError(w, r, "template exec error", err)
		return
	}
	a.write(w, r, http.StatusOK, buf.Bytes())
}

// write marks external links and sends the document.
func (a *app) write(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	out, err := links.RewriteBytes(body, a.siteHost(r))
	if err != nil {
		observability.FromContext(r.Context()).Warn("external link rewrite failed", zap.Error(err))
		out = body
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (a *app) templateError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	observability.FromContext(r.Context()).Error(msg, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// siteURL is the configured public origin, else derived from the request.
func (a *app) siteURL(r *http.Request) string {
	if a.cfg.Server.SiteURL != "" {
		return a.cfg.Server.SiteURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (a *app) siteHost(r *http.Request) string {
	if u, err := url.Parse(a.siteURL(r)); err == nil && u.Host != "" {
		return u.Host
	}
	return r.Host
}
