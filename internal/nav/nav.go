// Package nav builds the header navigation and breadcrumbs.
package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/prices"
	LabelKey string // i18n key, e.g. "nav.prices"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// AriaCurrent is the aria-current attribute value, empty when inactive.
func (i RenderedItem) AriaCurrent() string {
	if i.Active {
		return "page"
	}
	return ""
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", LabelKey: "nav.home"},
	{Path: "/prices", LabelKey: "nav.prices"},
	{Path: "/promos", LabelKey: "nav.promos"},
	{Path: "/masters", LabelKey: "nav.masters"},
}

// Build renders navigation items with active state given the current path.
// "/" is active only on the home page; other items match their own path and
// anything below it.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	current := strings.TrimSuffix(currentPath, "/")
	return current == itemPath || strings.HasPrefix(current, itemPath+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path. title labels
// the last crumb when the path is deeper than a top-level section.
func Breadcrumbs(currentPath, title string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	top := "/" + parts[0]
	for _, it := range Main {
		if it.Path == top {
			crumbs = append(crumbs, Crumb{Href: top, LabelKey: it.LabelKey, Active: len(parts) == 1})
			break
		}
	}
	if len(parts) > 1 || len(crumbs) == 1 {
		label := strings.TrimSpace(title)
		if label == "" {
			label = titleFromSegment(parts[len(parts)-1])
		}
		crumbs = append(crumbs, Crumb{Href: clean, Label: label, Active: true})
	}
	return crumbs
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	r[0] = toUpper(r[0])
	return string(r)
}

func toUpper(r rune) rune {
	// ASCII only is sufficient for slugs here
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
