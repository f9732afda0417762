// Package listing maps the list-shaped content sections (promos, masters,
// FAQ, directions) into display cards.
package listing

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/format"
	"laserwave.studio/web/internal/placeholder"
	"laserwave.studio/web/internal/pricing"
)

// HomeLimit caps promo and master cards on the home page.
const HomeLimit = 4

// PlaceholderPhoto stands in for masters without photos.
const PlaceholderPhoto = `data:image/svg+xml;utf8,` +
	`%3Csvg%20xmlns%3D%22http%3A%2F%2Fwww.w3.org%2F2000%2Fsvg%22%20viewBox%3D%220%200%20400%20300%22%3E` +
	`%3Crect%20width%3D%22400%22%20height%3D%22300%22%20fill%3D%22%231a1a23%22%2F%3E` +
	`%3Ctext%20x%3D%2250%25%22%20y%3D%2250%25%22%20dominant-baseline%3D%22middle%22%20text-anchor%3D%22middle%22%20fill%3D%22%23b9b9c6%22%20font-family%3D%22Arial%22%20font-size%3D%2216%22%3E` +
	`%D0%A4%D0%BE%D1%82%D0%BE%20%D1%81%D0%BA%D0%BE%D1%80%D0%BE%20%D0%BF%D0%BE%D1%8F%D0%B2%D0%B8%D1%82%D1%81%D1%8F` +
	`%3C%2Ftext%3E%3C%2Fsvg%3E`

// PromoCard is one rendered promo.
type PromoCard struct {
	ID           string
	Title        string
	Badge        string
	WhatIncluded string
	WhoFor       string
	// Price is the display price: the audience-adjusted amount for numeric
	// prices, else priceText, else the unknown glyph.
	Price      string
	BasePrice  pricing.Money
	Numeric    bool
	Conditions []string
	BookingURL string
}

// Promos renders active promos in document order. limit <= 0 means no cap.
func Promos(doc *content.Document, limit int, multiplier float64) []PromoCard {
	if doc == nil {
		return nil
	}
	out := make([]PromoCard, 0, len(doc.Promos))
	for _, p := range doc.Promos {
		if !p.Active {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		card := PromoCard{
			ID:           strings.TrimSpace(p.ID),
			Title:        placeholder.Clean(p.Title),
			Badge:        placeholder.Clean(p.Badge),
			WhatIncluded: placeholder.Clean(p.WhatIncluded),
			WhoFor:       placeholder.Clean(p.WhoFor),
			BasePrice:    pricing.FromNumber(p.Price),
			Numeric:      p.Price.Set,
			Conditions:   placeholder.CleanAll(p.Conditions),
			BookingURL:   BookingPath(p.ID),
		}
		switch {
		case card.Numeric:
			card.Price = card.BasePrice.Scale(multiplier).String()
		case placeholder.Clean(p.PriceText) != "":
			card.Price = placeholder.Clean(p.PriceText)
		default:
			card.Price = format.Unknown
		}
		out = append(out, card)
	}
	return out
}

// BookingPath is the tracked booking redirect, optionally for a promo.
func BookingPath(promoID string) string {
	promoID = strings.TrimSpace(promoID)
	if promoID == "" {
		return "/go/booking"
	}
	return "/go/booking?promo=" + url.QueryEscape(promoID)
}

// Slide is one carousel image.
type Slide struct {
	Src         template.URL
	Index       int
	Active      bool
	Placeholder bool
}

// Carousel holds a master's photos. Controls and dots only render when
// there is more than one slide.
type Carousel struct {
	Slides []Slide
}

func (c Carousel) Count() int            { return len(c.Slides) }
func (c Carousel) ShowControls() bool    { return len(c.Slides) > 1 }
func (c Carousel) DotLabel(i int) string { return "Фото " + strconv.Itoa(i+1) }

// MasterCard is one rendered staff profile.
type MasterCard struct {
	Name     string
	Photos   Carousel
	Facts    []string
	Strength string
	Bio      []string
}

// HasBio reports whether the bio block renders.
func (m MasterCard) HasBio() bool { return len(m.Bio) > 0 }

// Masters renders masters with a real name in document order. limit <= 0
// means no cap.
func Masters(doc *content.Document, limit int) []MasterCard {
	if doc == nil {
		return nil
	}
	out := make([]MasterCard, 0, len(doc.Masters))
	for _, m := range doc.Masters {
		name := placeholder.Clean(m.Name)
		if name == "" {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, MasterCard{
			Name:     name,
			Photos:   carousel(m.PhotoList()),
			Facts:    placeholder.CleanAll(m.Facts),
			Strength: placeholder.Clean(m.Strength),
			Bio:      placeholder.CleanAll(m.Bio),
		})
	}
	return out
}

func carousel(photos []string) Carousel {
	slides := make([]Slide, 0, len(photos))
	for _, p := range photos {
		src, ok := photoURL(p)
		if !ok {
			continue
		}
		slides = append(slides, Slide{Src: src, Index: len(slides)})
	}
	if len(slides) == 0 {
		slides = append(slides, Slide{Src: template.URL(PlaceholderPhoto), Placeholder: true})
	}
	slides[0].Active = true
	return Carousel{Slides: slides}
}

// photoURL accepts relative paths and http(s) URLs only. Relative paths are
// rooted at the site so they resolve the same on every page.
func photoURL(raw string) (template.URL, bool) {
	raw = placeholder.Clean(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		if u.Host != "" || u.Path == "" {
			return "", false
		}
		if !strings.HasPrefix(u.Path, "/") {
			u.Path = "/" + strings.TrimPrefix(u.Path, "./")
		}
	case "http", "https":
	default:
		return "", false
	}
	return template.URL(u.String()), true
}

// FAQEntry is one accordion item.
type FAQEntry struct {
	Question string
	Answer   string
}

// FAQ keeps every entry in document order.
func FAQ(doc *content.Document) []FAQEntry {
	if doc == nil {
		return nil
	}
	out := make([]FAQEntry, 0, len(doc.FAQ))
	for _, item := range doc.FAQ {
		out = append(out, FAQEntry{Question: item.Question, Answer: item.Answer})
	}
	return out
}

// HowToFind returns the directions list without placeholder steps.
func HowToFind(doc *content.Document) []string {
	if doc == nil {
		return nil
	}
	return placeholder.CleanAll(doc.Contacts.HowToFind)
}
