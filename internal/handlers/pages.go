package handlers

import (
	"html/template"

	"laserwave.studio/web/internal/cms"
	"laserwave.studio/web/internal/listing"
	"laserwave.studio/web/internal/nav"
	"laserwave.studio/web/internal/seo"
	"laserwave.studio/web/internal/widgets"
)

// PageData is the view model for every page using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	Theme     string
	CSRFToken string
	SEO       seo.Meta
	JSONLD    []template.JS
	Analytics Analytics
	Chrome    Chrome

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	// Optional per-page payloads
	Pricing    *PricingView
	Calculator *CalculatorView
	Promos     []listing.PromoCard
	Masters    []listing.MasterCard
	FAQ        []listing.FAQEntry
	HowToFind  []string
	Map        widgets.Embed
	VKWidget   widgets.Embed
	Forms      map[string]FormView
	Content    *cms.Page

	// Set on the home page when the section lists are capped.
	MorePromos  bool
	MoreMasters bool
}

// Form returns the named form, or a default lead form.
func (d PageData) Form(kind string) FormView {
	if f, ok := d.Forms[kind]; ok {
		return f
	}
	return NewFormView(kind, "")
}
