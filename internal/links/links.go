// Package links post-processes rendered HTML so that links leaving the site
// open in a new tab without leaking the opener.
package links

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const externalRel = "noopener noreferrer"

// IsExternal reports whether href points at another origin than siteHost.
// Fragments, relative paths, tel: and mailto: links are internal.
func IsExternal(href, siteHost string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "mailto:") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return true
	}
	return !strings.EqualFold(u.Hostname(), hostOnly(siteHost))
}

// Rewrite copies the HTML from r to w, adding target="_blank" and
// rel="noopener noreferrer" to every external <a href>. Everything else is
// copied byte for byte.
func Rewrite(w io.Writer, r io.Reader, siteHost string) error {
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			if tok.Data == "a" && rewriteAnchor(&tok, siteHost) {
				if _, err := io.WriteString(w, tok.String()); err != nil {
					return err
				}
				continue
			}
			if _, err := w.Write(raw); err != nil {
				return err
			}
		default:
			if _, err := w.Write(z.Raw()); err != nil {
				return err
			}
		}
	}
}

// RewriteBytes is Rewrite over an in-memory page.
func RewriteBytes(page []byte, siteHost string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(page) + 256)
	if err := Rewrite(&buf, bytes.NewReader(page), siteHost); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rewriteAnchor(tok *html.Token, siteHost string) bool {
	href := ""
	for _, a := range tok.Attr {
		if a.Key == "href" {
			href = a.Val
			break
		}
	}
	if !IsExternal(href, siteHost) {
		return false
	}
	setAttr(tok, "target", "_blank")
	setAttr(tok, "rel", externalRel)
	return true
}

func setAttr(tok *html.Token, key, val string) {
	for i := range tok.Attr {
		if tok.Attr[i].Key == key {
			tok.Attr[i].Val = val
			return
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: key, Val: val})
}

func hostOnly(host string) string {
	host = strings.TrimSpace(host)
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}
