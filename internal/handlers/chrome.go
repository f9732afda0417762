package handlers

import (
	"strings"

	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/placeholder"
)

// Messenger channels, also the /go/{channel} path segment.
const (
	ChannelVK       = "vk"
	ChannelTelegram = "tg"
	ChannelWhatsApp = "wa"
	ChannelMax      = "max"
	ChannelPhone    = "phone"
)

// Link is an outbound link. Disabled links render href="#" with
// aria-disabled; hidden links do not render.
type Link struct {
	Key      string
	Label    string
	LabelKey string
	Href     string
	Disabled bool
	Hidden   bool
}

// Trust is the badge row under the hero.
type Trust struct {
	YandexText   string
	VKText       string
	VKVisible    bool
	ReplyTime    string
	ReplyVisible bool
}

// Chrome is the header and footer shared by every page.
type Chrome struct {
	BrandName    string
	BrandCity    string
	AddressLine  string
	AddressShort string
	Hours        string
	PhoneDisplay string
	Phone        Link
	Booking      Link
	Messengers   []Link
	Trust        Trust
	Legal        []Link
}

// ChromeFrom binds the header and footer to the document.
func ChromeFrom(doc *content.Document) Chrome {
	if doc == nil {
		return Chrome{}
	}
	c := doc.Contacts
	ch := Chrome{
		BrandName:    placeholder.Clean(doc.Brand.Name),
		BrandCity:    placeholder.Clean(doc.Brand.City),
		AddressLine:  placeholder.Clean(c.AddressLine),
		AddressShort: placeholder.Clean(c.AddressShort),
		Hours:        placeholder.Clean(c.Hours),
		PhoneDisplay: placeholder.Clean(c.PhoneDisplay),
		Phone:        goLink(ChannelPhone, "", c.PhoneE164),
		Booking:      goLink("booking", "", c.Links.YClients),
		Messengers: []Link{
			goLink(ChannelVK, "VK", c.Links.VK),
			goLink(ChannelTelegram, "Telegram", c.Links.Telegram),
			goLink(ChannelWhatsApp, "WhatsApp", c.Links.WhatsApp),
		},
		Trust: trustFrom(doc.Trust),
		Legal: []Link{
			legalLink("privacy", "legal.privacy", doc.Legal.PrivacyPolicyURL),
			legalLink("offer", "legal.offer", doc.Legal.OfferURL),
			legalLink("consent", "legal.consent", doc.Legal.ConsentURL),
		},
	}
	maxLink := goLink(ChannelMax, "MAX", c.Links.Max)
	maxLink.Hidden = maxLink.Disabled
	ch.Messengers = append(ch.Messengers, maxLink)
	return ch
}

// goLink points at the tracked /go/{key} redirect when target is usable.
func goLink(key, label, target string) Link {
	l := Link{Key: key, Label: label, Href: "#", Disabled: true}
	if placeholder.Clean(target) != "" {
		l.Href = "/go/" + key
		l.Disabled = false
	}
	return l
}

func legalLink(key, labelKey, href string) Link {
	l := Link{Key: key, LabelKey: labelKey, Href: "#", Disabled: true}
	if href = strings.TrimSpace(placeholder.Clean(href)); href != "" {
		l.Href = href
		l.Disabled = false
	}
	return l
}

// trustFrom hides the VK badge unless both rating and count are set.
func trustFrom(t content.Trust) Trust {
	out := Trust{
		YandexText: placeholder.Clean(t.Yandex.Text),
		ReplyTime:  placeholder.Clean(t.ReplyTime),
	}
	rating := placeholder.Clean(t.VK.RatingText)
	count := placeholder.Clean(t.VK.ReviewsCountText)
	if rating != "" && count != "" {
		out.VKVisible = true
		out.VKText = "VK: " + rating + ", " + count
	}
	out.ReplyVisible = out.ReplyTime != ""
	return out
}

// Target resolves a /go/{channel} key to its destination. Phone numbers
// become tel: URLs.
func Target(doc *content.Document, channel string) (string, bool) {
	if doc == nil {
		return "", false
	}
	links := doc.Contacts.Links
	var raw string
	switch channel {
	case ChannelVK:
		raw = links.VK
	case ChannelTelegram:
		raw = links.Telegram
	case ChannelWhatsApp:
		raw = links.WhatsApp
	case ChannelMax:
		raw = links.Max
	case ChannelPhone:
		if phone := strings.TrimSpace(placeholder.Clean(doc.Contacts.PhoneE164)); phone != "" {
			return "tel:" + phone, true
		}
		return "", false
	case "booking":
		raw = links.YClients
	default:
		return "", false
	}
	raw = strings.TrimSpace(placeholder.Clean(raw))
	return raw, raw != ""
}
