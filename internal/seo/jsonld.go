package seo

import (
	"html/template"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/placeholder"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script wraps JSON for a <script type="application/ld+json"> body.
// ConfigCompatibleWithStandardLibrary escapes <, > and & so the payload
// cannot close the script element.
func Script(v any) template.JS {
	return template.JS(JSON(v))
}

// BeautySalon builds the LocalBusiness schema for the salon. Placeholder
// fields are left out.
func BeautySalon(doc *content.Document, siteURL string) map[string]any {
	if doc == nil {
		return nil
	}
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "BeautySalon",
		"name":     placeholder.Clean(doc.Brand.Name),
	}
	if siteURL != "" {
		m["url"] = siteURL
	}
	if phone := placeholder.Clean(doc.Contacts.PhoneE164); phone != "" {
		m["telephone"] = phone
	}
	if hours := placeholder.Clean(doc.Contacts.Hours); hours != "" {
		m["openingHours"] = hours
	}
	address := map[string]any{"@type": "PostalAddress"}
	if street := placeholder.Clean(doc.Contacts.AddressLine); street != "" {
		address["streetAddress"] = street
	}
	if city := placeholder.Clean(doc.Brand.City); city != "" {
		address["addressLocality"] = city
	}
	if len(address) > 1 {
		address["addressCountry"] = "RU"
		m["address"] = address
	}
	var sameAs []string
	for _, link := range []string{doc.Contacts.Links.VK, doc.Contacts.Links.Telegram, doc.Contacts.Links.WhatsApp} {
		if l := placeholder.Clean(link); strings.HasPrefix(l, "http") {
			sameAs = append(sameAs, l)
		}
	}
	if len(sameAs) > 0 {
		m["sameAs"] = sameAs
	}
	m["priceRange"] = "₽₽"
	return m
}

// FAQPage builds the FAQPage schema. It returns nil for an empty list.
func FAQPage(items []content.FAQItem) map[string]any {
	entities := make([]map[string]any, 0, len(items))
	for _, it := range items {
		q := placeholder.Clean(it.Question)
		a := placeholder.Clean(it.Answer)
		if q == "" || a == "" {
			continue
		}
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  q,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  a,
			},
		})
	}
	if len(entities) == 0 {
		return nil
	}
	return map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}
