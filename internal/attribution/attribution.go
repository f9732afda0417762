// Package attribution captures UTM tags from landing URLs and applies them
// to outbound booking links.
package attribution

import (
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Keys are the captured query parameters, in decoration order.
var Keys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term"}

// Tags is the visitor's attribution set.
type Tags map[string]string

// Empty reports whether no tag is set.
func (t Tags) Empty() bool { return len(t) == 0 }

// Capture reads Keys from query. When any key is present the result replaces
// persisted entirely and fresh is true; otherwise persisted is returned.
func Capture(query url.Values, persisted Tags) (Tags, bool) {
	captured := Tags{}
	present := false
	for _, key := range Keys {
		values, ok := query[key]
		if !ok {
			continue
		}
		present = true
		if len(values) > 0 {
			if v := strings.TrimSpace(values[0]); v != "" {
				captured[key] = v
			}
		}
	}
	if !present {
		return persisted.clone(), false
	}
	return captured, true
}

// Decorate sets every tag on the query of an absolute URL. Relative or
// unparsable URLs come back unchanged.
func Decorate(rawURL string, tags Tags) string {
	if tags.Empty() {
		return rawURL
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return rawURL
	}
	q := u.Query()
	for _, key := range Keys {
		if v, ok := tags[key]; ok {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Encode serializes tags for the preference cookie.
func Encode(tags Tags) string {
	if tags.Empty() {
		return ""
	}
	raw, err := jsonAPI.Marshal(tags.clone())
	if err != nil {
		return ""
	}
	return string(raw)
}

// Decode parses Encode output. Corrupt input yields an empty set.
func Decode(raw string) Tags {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Tags{}
	}
	var decoded map[string]any
	if err := jsonAPI.UnmarshalFromString(raw, &decoded); err != nil {
		return Tags{}
	}
	out := Tags{}
	for _, key := range Keys {
		if v, ok := decoded[key].(string); ok && strings.TrimSpace(v) != "" {
			out[key] = v
		}
	}
	return out
}

func (t Tags) clone() Tags {
	out := make(Tags, len(t))
	for _, key := range Keys {
		if v, ok := t[key]; ok && v != "" {
			out[key] = v
		}
	}
	return out
}
