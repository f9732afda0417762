package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"laserwave.studio/web/internal/cms"
	handlersPkg "laserwave.studio/web/internal/handlers"
	mw "laserwave.studio/web/internal/middleware"
	"laserwave.studio/web/internal/observability"
	"laserwave.studio/web/internal/site"
)

// request collects the per-request layout values. titleKey and descKey are
// i18n keys; empty keys leave the field empty.
func (a *app) request(r *http.Request, titleKey, descKey string) handlersPkg.Request {
	lang := mw.Lang(r)
	prefs := mw.GetPrefs(r)
	req := handlersPkg.Request{
		Path:      r.URL.Path,
		Lang:      lang,
		Theme:     prefs.ThemeName(),
		CSRFToken: mw.CSRFToken(r),
		SiteURL:   a.siteURL(r),
		T:         func(key string) string { return a.bundle.T(lang, key) },
	}
	if titleKey != "" {
		req.Title = a.bundle.T(lang, titleKey)
	}
	if descKey != "" {
		req.Description = a.bundle.T(lang, descKey)
	}
	q := r.URL.Query()
	if kind := q.Get("form"); handlersPkg.KnownForm(kind) {
		req.FormStatus = map[string]string{kind: q.Get("status")}
	}
	return req
}

// visit builds the request's live model, or renders the fallback page and
// returns nil when the content document is unavailable.
func (a *app) visit(w http.ResponseWriter, r *http.Request) *site.Visit {
	if !a.store.Ready() {
		a.FallbackHandler(w, r)
		return nil
	}
	v, err := site.NewVisit(a.store.Document(), mw.GetPrefs(r), a.tracker)
	if err != nil {
		observability.FromContext(r.Context()).Error("build visit", zap.Error(err))
		a.FallbackHandler(w, r)
		return nil
	}
	return v
}

// HomeHandler renders the landing page with every section.
func (a *app) HomeHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visit(w, r)
	if v == nil {
		return
	}
	v.Calculator.Start(r.Context())
	vm := handlersPkg.Home(v, a.embeds, handlersPkg.Base(v.Doc, a.request(r, "", "home.description")))
	a.renderPage(w, r, "home", http.StatusOK, vm)
}

// PricesHandler renders the price tables and the calculator.
func (a *app) PricesHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visit(w, r)
	if v == nil {
		return
	}
	v.Calculator.Start(r.Context())
	vm := handlersPkg.Prices(v, handlersPkg.Base(v.Doc, a.request(r, "prices.title", "prices.description")))
	a.renderPage(w, r, "prices", http.StatusOK, vm)
}

// PromosHandler renders every active promo.
func (a *app) PromosHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visit(w, r)
	if v == nil {
		return
	}
	vm := handlersPkg.Promos(v, handlersPkg.Base(v.Doc, a.request(r, "promos.title", "promos.description")))
	a.renderPage(w, r, "promos", http.StatusOK, vm)
}

// MastersHandler renders every master.
func (a *app) MastersHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visit(w, r)
	if v == nil {
		return
	}
	vm := handlersPkg.Masters(v, handlersPkg.Base(v.Doc, a.request(r, "masters.title", "masters.description")))
	a.renderPage(w, r, "masters", http.StatusOK, vm)
}

// StaticPageHandler renders a markdown page such as the privacy policy.
func (a *app) StaticPageHandler(w http.ResponseWriter, r *http.Request) {
	if !a.store.Ready() {
		a.FallbackHandler(w, r)
		return
	}
	page, err := a.pages.Get(chi.URLParam(r, "slug"), mw.Lang(r))
	if err != nil {
		if !errors.Is(err, cms.ErrNotFound) {
			observability.FromContext(r.Context()).Error("static page", zap.Error(err))
		}
		a.NotFoundHandler(w, r)
		return
	}
	req := a.request(r, "", "")
	req.Title = page.Title
	req.Description = page.SEO.Description
	if req.Description == "" {
		req.Description = page.Summary
	}
	vm := handlersPkg.Base(a.store.Document(), req)
	if page.SEO.Title != "" {
		vm.SEO.Title = page.SEO.Title
		vm.SEO.OG.Title = page.SEO.Title
	}
	vm.Content = &page
	a.renderPage(w, r, "page", http.StatusOK, vm)
}

// NotFoundHandler renders the 404 page inside the site chrome.
func (a *app) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	if !a.store.Ready() {
		a.FallbackHandler(w, r)
		return
	}
	vm := handlersPkg.Base(a.store.Document(), a.request(r, "notfound.title", ""))
	vm.JSONLD = nil
	a.renderPage(w, r, "notfound", http.StatusNotFound, vm)
}

// FallbackHandler is the single page shown while the content document is
// unavailable. No section renders.
func (a *app) FallbackHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	w.Header().Set("Cache-Control", "no-store")
	vm := handlersPkg.Fallback(a.request(r, "fallback.title", ""))
	a.renderPage(w, r, "fallback", http.StatusServiceUnavailable, vm)
}
