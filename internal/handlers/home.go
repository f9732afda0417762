package handlers

import (
	"html/template"
	"strings"

	"laserwave.studio/web/internal/audience"
	"laserwave.studio/web/internal/calculator"
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/listing"
	"laserwave.studio/web/internal/nav"
	"laserwave.studio/web/internal/pricing"
	"laserwave.studio/web/internal/seo"
	"laserwave.studio/web/internal/site"
	"laserwave.studio/web/internal/widgets"
)

// Request carries the per-request values every page needs.
type Request struct {
	Path        string
	Lang        string
	Theme       string
	CSRFToken   string
	SiteURL     string // scheme://host, no trailing slash
	Title       string
	Description string
	// FormStatus maps a form type to "ok" or "fail" after a plain redirect.
	FormStatus map[string]string
	// T translates UI keys; nil echoes the key.
	T func(key string) string
}

func (r Request) translate(key string) string {
	if r.T == nil {
		return key
	}
	return r.T(key)
}

// PricingView is the audience toggle plus the three price tables.
type PricingView struct {
	Controls   []audience.Control
	Note       string
	Zones      []pricing.ZoneRow
	Packages   []pricing.PackageRow
	Abonements []pricing.AbonementRow
}

// PricingFrom renders the tables for the visit's current audience.
func PricingFrom(v *site.Visit) *PricingView {
	return &PricingView{
		Controls:   v.Audience.Controls(),
		Note:       v.Audience.Note(),
		Zones:      v.Prices.Zones(),
		Packages:   v.Prices.Packages(),
		Abonements: v.Prices.Abonements(),
	}
}

// CalculatorView is the calculator form and its latest result.
type CalculatorView struct {
	Options       calculator.Options
	Result        calculator.Result
	SessionsLabel string
	Note          string
}

// CalculatorFrom renders the calculator state of the visit.
func CalculatorFrom(v *site.Visit) *CalculatorView {
	res := v.Calculator.Result()
	return &CalculatorView{
		Options:       v.Calculator.Options(),
		Result:        res,
		SessionsLabel: calculator.SessionsLabel(res.Sessions),
		Note:          v.Calculator.Note(),
	}
}

// Base fills the layout fields shared by every page.
func Base(doc *content.Document, req Request) PageData {
	canonical := ""
	if req.SiteURL != "" {
		canonical = req.SiteURL + req.Path
	}
	d := PageData{
		Title:       req.Title,
		Lang:        req.Lang,
		Theme:       req.Theme,
		CSRFToken:   req.CSRFToken,
		SEO:         seo.PageMeta(doc, req.Title, req.Description, canonical),
		Analytics:   AnalyticsFrom(doc),
		Chrome:      ChromeFrom(doc),
		Path:        req.Path,
		Nav:         nav.Build(req.Path),
		Breadcrumbs: nav.Breadcrumbs(req.Path, req.Title),
		Forms:       map[string]FormView{},
	}
	for _, kind := range []string{FormLead, FormQuestion} {
		f := NewFormView(kind, req.FormStatus[kind])
		f.Page, f.Lang, f.CSRFToken = req.Path, req.Lang, req.CSRFToken
		d.Forms[kind] = f
	}
	if req.Path != "/" && req.Path != "" {
		d.JSONLD = append(d.JSONLD, seo.Script(breadcrumbSchema(d.Breadcrumbs, req)))
	}
	return d
}

func breadcrumbSchema(crumbs []nav.Crumb, req Request) map[string]any {
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		name := c.Label
		if name == "" {
			name = req.translate(c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: req.SiteURL + c.Href})
	}
	return seo.BreadcrumbList(items)
}

// Home renders every section with the promo and master lists capped.
func Home(v *site.Visit, embeds *widgets.Sanitizer, d PageData) PageData {
	d.Pricing = PricingFrom(v)
	d.Calculator = CalculatorFrom(v)
	d.Promos = v.Promos(listing.HomeLimit)
	d.Masters = v.Masters(listing.HomeLimit)
	d.MorePromos = len(v.Promos(0)) > len(d.Promos)
	d.MoreMasters = len(v.Masters(0)) > len(d.Masters)
	d.FAQ = listing.FAQ(v.Doc)
	d.HowToFind = listing.HowToFind(v.Doc)
	d.Map = embeds.Embed(v.Doc.Contacts.MapEmbed, "Карта")
	d.VKWidget = embeds.Embed(v.Doc.Reviews.VKWidget, "Отзывы VK")

	d.JSONLD = append(d.JSONLD, seo.Script(seo.BeautySalon(v.Doc, d.SEO.Canonical)))
	if faq := seo.FAQPage(v.Doc.FAQ); faq != nil {
		d.JSONLD = append(d.JSONLD, seo.Script(faq))
	}
	return d
}

// Prices renders the full tables and the calculator.
func Prices(v *site.Visit, d PageData) PageData {
	d.Pricing = PricingFrom(v)
	d.Calculator = CalculatorFrom(v)
	return d
}

// Promos renders every active promo.
func Promos(v *site.Visit, d PageData) PageData {
	d.Pricing = PricingFrom(v)
	d.Promos = v.Promos(0)
	return d
}

// Masters renders every master.
func Masters(v *site.Visit, d PageData) PageData {
	d.Masters = v.Masters(0)
	return d
}

// Fallback is the page shown when the content document failed to load. It
// carries no section data.
func Fallback(req Request) PageData {
	return PageData{
		Title:     req.Title,
		Lang:      req.Lang,
		Theme:     req.Theme,
		CSRFToken: req.CSRFToken,
		SEO:       seo.Meta{Title: req.Title},
		Path:      req.Path,
	}
}

// Paragraphs splits free text on blank lines for templates.
func Paragraphs(s string) []template.HTML {
	var out []template.HTML
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, template.HTML(template.HTMLEscapeString(p)))
		}
	}
	return out
}
