// Package content models the site's content document and loads it from a
// file or an HTTP endpoint. A loaded Document is read-only for the life of
// the process.
package content

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the root of the content tree.
type Document struct {
	Brand     Brand     `json:"brand"`
	Contacts  Contacts  `json:"contacts"`
	Trust     Trust     `json:"trust"`
	Legal     Legal     `json:"legal"`
	Pricing   Pricing   `json:"pricing"`
	Promos    []Promo   `json:"promos"`
	Masters   []Master  `json:"masters"`
	FAQ       []FAQItem `json:"faq"`
	Forms     Forms     `json:"forms"`
	Analytics Analytics `json:"analytics"`
	Reviews   Reviews   `json:"reviews"`
}

type Brand struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type Contacts struct {
	AddressLine  string   `json:"addressLine"`
	AddressShort string   `json:"addressShort"`
	Hours        string   `json:"hours"`
	PhoneDisplay string   `json:"phoneDisplay"`
	PhoneE164    string   `json:"phoneE164"`
	Links        Links    `json:"links"`
	HowToFind    []string `json:"howToFind"`
	MapEmbed     string   `json:"mapEmbed"`
}

// Links holds outbound messenger and booking URLs.
type Links struct {
	VK       string `json:"vk"`
	Telegram string `json:"telegram"`
	WhatsApp string `json:"whatsapp"`
	Max      string `json:"max"`
	YClients string `json:"yclients"`
}

type Trust struct {
	Yandex    TrustYandex `json:"yandex"`
	VK        TrustVK     `json:"vk"`
	ReplyTime string      `json:"replyTime"`
}

type TrustYandex struct {
	Text string `json:"text"`
}

type TrustVK struct {
	RatingText       string `json:"ratingText"`
	ReviewsCountText string `json:"reviewsCountText"`
}

type Legal struct {
	PrivacyPolicyURL string `json:"privacyPolicyUrl"`
	OfferURL         string `json:"offerUrl"`
	ConsentURL       string `json:"consentUrl"`
}

// Pricing groups every price-bearing section. All base prices are quoted
// for the reference audience and scaled by the selected audience multiplier.
type Pricing struct {
	Gender             map[string]Audience `json:"gender"`
	Zones              []Zone              `json:"zones"`
	PackagesOneTime    []Package           `json:"packagesOneTime"`
	PackagesAbonements []Abonement         `json:"packagesAbonements"`
	Calculator         CalculatorSettings  `json:"calculator"`
}

// Audience is a pricing profile such as "women" or "men".
type Audience struct {
	Label      string `json:"label"`
	Multiplier Number `json:"multiplier"`
	Note       string `json:"note"`
}

type Zone struct {
	Label    string `json:"label"`
	Preview  string `json:"preview"`
	FullList string `json:"fullList"`
	Price    Number `json:"price"`
}

// Package is a one-time session offer. Key joins it to an Abonement.
type Package struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Includes string `json:"includes"`
	Price    Number `json:"price"`
}

// Abonement is a multi-session bundle. Totals maps a session count to the
// bundle total, collected from "priceN" keys and the "prices" object.
type Abonement struct {
	Key       string
	Label     string
	Range     string
	PriceFrom Number
	PriceTo   Number
	Totals    map[int]float64
}

type CalculatorSettings struct {
	Note string `json:"note"`
}

type Promo struct {
	ID           string   `json:"id"`
	Active       bool     `json:"active"`
	Title        string   `json:"title"`
	Price        Number   `json:"price"`
	PriceText    string   `json:"priceText"`
	Badge        string   `json:"badge"`
	WhatIncluded string   `json:"whatIncluded"`
	WhoFor       string   `json:"whoFor"`
	Conditions   []string `json:"conditions"`
}

// Master is a staff profile.
type Master struct {
	Name     string   `json:"name"`
	Photos   []string `json:"photos"`
	Photo    string   `json:"photo"`
	Facts    []string `json:"facts"`
	Strength string   `json:"strength"`
	Bio      []string `json:"bio"`
}

// PhotoList returns Photos, or the single Photo when the list is absent.
func (m Master) PhotoList() []string {
	if len(m.Photos) > 0 {
		return m.Photos
	}
	if strings.TrimSpace(m.Photo) != "" {
		return []string{m.Photo}
	}
	return nil
}

type FAQItem struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

type Forms struct {
	WebhookURL     string `json:"webhookUrl"`
	MailtoFallback string `json:"mailtoFallback"`
}

type Analytics struct {
	YandexMetrikaID string `json:"yandexMetrikaId"`
	VKPixelID       string `json:"vkPixelId"`
}

type Reviews struct {
	VKWidget string `json:"vkWidget"`
}

// Number is a price that may be missing. JSON numbers and numeric strings
// set it; null, absent and non-numeric values leave it unset.
type Number struct {
	Value float64
	Set   bool
}

// Num returns a set Number.
func Num(v float64) Number { return Number{Value: v, Set: true} }

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	var v any
	if err := jsonAPI.Unmarshal(b, &v); err != nil {
		return err
	}
	f, ok := floatFrom(v)
	*n = Number{Value: f, Set: ok}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return jsonAPI.Marshal(n.Value)
}

// UnmarshalJSON collects the fixed fields and every "priceN" total.
func (a *Abonement) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := jsonAPI.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Abonement{
		Key:    cast.ToString(raw["key"]),
		Label:  cast.ToString(raw["label"]),
		Range:  cast.ToString(raw["range"]),
		Totals: map[int]float64{},
	}
	if f, ok := floatFrom(raw["priceFrom"]); ok {
		out.PriceFrom = Num(f)
	}
	if f, ok := floatFrom(raw["priceTo"]); ok {
		out.PriceTo = Num(f)
	}
	for key, value := range raw {
		if !strings.HasPrefix(key, "price") {
			continue
		}
		count, err := strconv.Atoi(strings.TrimPrefix(key, "price"))
		if err != nil || count <= 0 {
			continue
		}
		if f, ok := floatFrom(value); ok {
			out.Totals[count] = f
		}
	}
	if prices, ok := raw["prices"].(map[string]any); ok {
		for key, value := range prices {
			count, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || count <= 0 {
				continue
			}
			if f, ok := floatFrom(value); ok {
				out.Totals[count] = f
			}
		}
	}
	*a = out
	return nil
}

// Total returns the bundle total for an exact session count.
func (a Abonement) Total(sessions int) (float64, bool) {
	v, ok := a.Totals[sessions]
	return v, ok
}

func floatFrom(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}

// FindPackage resolves a one-time package by key.
func (p Pricing) FindPackage(key string) (Package, bool) {
	for _, pkg := range p.PackagesOneTime {
		if pkg.Key == key {
			return pkg, true
		}
	}
	return Package{}, false
}

// FindAbonement resolves an abonement by the key it shares with a package.
func (p Pricing) FindAbonement(key string) (Abonement, bool) {
	for _, ab := range p.PackagesAbonements {
		if ab.Key == key {
			return ab, true
		}
	}
	return Abonement{}, false
}
