package seo

import (
	"strings"

	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/placeholder"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	Locale      string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
}

// PageMeta builds page metadata. title is prefixed to the brand name
// except on the home page, where it is empty.
func PageMeta(doc *content.Document, title, description, canonical string) Meta {
	brand := ""
	city := ""
	if doc != nil {
		brand = placeholder.Clean(doc.Brand.Name)
		city = placeholder.Clean(doc.Brand.City)
	}
	full := brand
	switch {
	case title != "" && brand != "":
		full = title + " | " + brand
	case title != "":
		full = title
	}
	if description == "" {
		description = strings.TrimSpace(strings.Join(nonEmpty(brand, city), ", "))
	}
	return Meta{
		Title:       full,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       full,
			Description: description,
			Type:        "website",
			Locale:      "ru_RU",
		},
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
