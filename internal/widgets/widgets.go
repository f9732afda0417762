// Package widgets sanitizes third-party embed snippets (the map and the VK
// community widget) coming from the content document.
package widgets

import (
	"html/template"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"laserwave.studio/web/internal/placeholder"
)

// AllowedHosts are the embed providers whose iframes survive sanitizing.
var AllowedHosts = []string{
	"yandex.ru",
	"yandex.com",
	"vk.com",
	"vk.ru",
	"vkvideo.ru",
	"google.com",
}

var embedSrc = regexp.MustCompile(`^https://`)

// Embed is a sanitized snippet ready for the template.
type Embed struct {
	HTML    template.HTML
	Visible bool
}

// Sanitizer holds the bluemonday policy for embeds.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer allows <iframe> with an https src plus a few layout
// attributes. Host checks happen after sanitizing.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("iframe", "div")
	p.AllowAttrs("src").Matching(embedSrc).OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9]{1,4}(%|px)?$`)).OnElements("iframe")
	p.AllowAttrs("frameborder").Matching(regexp.MustCompile(`^[01]$`)).OnElements("iframe")
	p.AllowAttrs("allowfullscreen", "loading", "title").OnElements("iframe")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("div", "iframe")
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("https")
	return &Sanitizer{policy: p}
}

// Embed returns the sanitized snippet. Placeholder or empty input, and
// snippets without an allowed iframe, are hidden. A bare https URL on an
// allowed host is wrapped in an iframe.
func (s *Sanitizer) Embed(raw, title string) Embed {
	raw = strings.TrimSpace(placeholder.Clean(raw))
	if raw == "" {
		return Embed{}
	}
	if !strings.Contains(raw, "<") {
		if !allowedURL(raw) {
			return Embed{}
		}
		raw = `<iframe src="` + template.HTMLEscapeString(raw) + `" width="100%" height="400" frameborder="0" loading="lazy" title="` +
			template.HTMLEscapeString(title) + `"></iframe>`
	}
	clean := s.policy.Sanitize(raw)
	if !hasAllowedFrame(clean) {
		return Embed{}
	}
	return Embed{HTML: template.HTML(clean), Visible: true}
}

var iframeSrc = regexp.MustCompile(`<iframe[^>]*\ssrc="([^"]+)"`)

func hasAllowedFrame(clean string) bool {
	matches := iframeSrc.FindAllStringSubmatch(clean, -1)
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if !allowedURL(htmlUnescape(m[1])) {
			return false
		}
	}
	return true
}

func allowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range AllowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func htmlUnescape(s string) string {
	return strings.NewReplacer("&amp;", "&", "&#34;", `"`, "&#39;", "'", "&quot;", `"`).Replace(s)
}
