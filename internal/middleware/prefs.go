package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"laserwave.studio/web/internal/attribution"
)

const (
	prefsCookieName = "LW_WEB_PREFS"
	prefsMaxAge     = 365 * 24 * time.Hour

	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Prefs is the visitor state kept in the signed preference cookie: theme,
// audience, attribution tags, locale and the calculator-used mark.
type Prefs struct {
	ID          string    `json:"id"`
	Theme       string    `json:"theme,omitempty"`
	AudienceKey string    `json:"aud,omitempty"`
	UTM         string    `json:"utm,omitempty"`
	Locale      string    `json:"locale,omitempty"`
	CalcUsed    bool      `json:"calc,omitempty"`
	CSRFToken   string    `json:"csrf,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

// MarkDirty flags the cookie for writing at end of request
func (p *Prefs) MarkDirty() { p.dirty = true; p.UpdatedAt = time.Now().UTC() }

// Dirty reports whether the cookie will be rewritten.
func (p *Prefs) Dirty() bool { return p.dirty }

// Audience implements audience.Persister.
func (p *Prefs) Audience() string { return p.AudienceKey }

// SetAudience implements audience.Persister.
func (p *Prefs) SetAudience(key string) {
	if p.AudienceKey == key {
		return
	}
	p.AudienceKey = key
	p.MarkDirty()
}

// CalculatorUsed implements calculator.UsageMarker.
func (p *Prefs) CalculatorUsed() bool { return p.CalcUsed }

// MarkCalculatorUsed implements calculator.UsageMarker.
func (p *Prefs) MarkCalculatorUsed() {
	if p.CalcUsed {
		return
	}
	p.CalcUsed = true
	p.MarkDirty()
}

// Attribution decodes the stored UTM tags; corrupt values give an empty set.
func (p *Prefs) Attribution() attribution.Tags { return attribution.Decode(p.UTM) }

// SetAttribution replaces the stored UTM tags.
func (p *Prefs) SetAttribution(tags attribution.Tags) {
	encoded := attribution.Encode(tags)
	if encoded == p.UTM {
		return
	}
	p.UTM = encoded
	p.MarkDirty()
}

// ThemeName returns the active theme; unknown values read as dark.
func (p *Prefs) ThemeName() string {
	if p.Theme == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// ToggleTheme flips between dark and light and returns the new theme.
func (p *Prefs) ToggleTheme() string {
	next := ThemeLight
	if p.ThemeName() == ThemeLight {
		next = ThemeDark
	}
	p.Theme = next
	p.MarkDirty()
	return next
}

// PrefsCodec signs and verifies the preference cookie.
type PrefsCodec struct {
	key    []byte
	secure bool
}

// NewPrefsCodec builds a codec. An empty key generates a process-ephemeral
// one, so cookies do not survive restarts.
func NewPrefsCodec(signingKey string, secure bool, logger *zap.Logger) *PrefsCodec {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(signingKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Error("prefs: failed to generate signing key", zap.Error(err))
			key = []byte("insecure-dev-key-please-set-LW_WEB_SESSION_SIGNING_KEY")
		}
		logger.Warn("prefs: using ephemeral signing key; set LW_WEB_SESSION_SIGNING_KEY for production")
	}
	return &PrefsCodec{key: key, secure: secure}
}

// Encode returns the cookie value for p.
func (c *PrefsCodec) Encode(p *Prefs) string {
	b, _ := jsoniter.Marshal(p)
	mac := hmac.New(sha256.New, c.key)
	mac.Write(b)
	return base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Decode verifies and parses a cookie value.
func (c *PrefsCodec) Decode(value string) (*Prefs, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, false
	}
	var p Prefs
	if err := jsoniter.Unmarshal(payload, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Cookie builds the Set-Cookie value for p.
func (c *PrefsCodec) Cookie(p *Prefs) *http.Cookie {
	return &http.Cookie{
		Name:     prefsCookieName,
		Value:    c.Encode(p),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(prefsMaxAge),
	}
}

// Preferences loads or initializes visitor preferences and stores them in
// request context. Bad signatures and corrupt payloads start fresh.
func Preferences(codec *PrefsCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, fromCookie := codec.read(r)
			if p.ID == "" {
				p.ID = randID()
				p.CreatedAt = time.Now().UTC()
				p.UpdatedAt = p.CreatedAt
				p.CSRFToken = newCSRFToken()
				p.dirty = true
			}
			ctx := WithPrefs(r.Context(), p)
			rw := NewResponseRecorder(w)
			rw.SetBeforeWrite(func(w http.ResponseWriter) {
				if p.dirty || !fromCookie {
					http.SetCookie(w, codec.Cookie(p))
				}
			})
			next.ServeHTTP(rw, r.WithContext(ctx))
			if !rw.Wrote() && (p.dirty || !fromCookie) {
				http.SetCookie(w, codec.Cookie(p))
			}
		})
	}
}

func (c *PrefsCodec) read(r *http.Request) (*Prefs, bool) {
	cookie, err := r.Cookie(prefsCookieName)
	if err != nil || cookie.Value == "" {
		return &Prefs{}, false
	}
	p, ok := c.Decode(cookie.Value)
	if !ok {
		return &Prefs{}, false
	}
	return p, true
}

// GetPrefs returns the preferences from context, or an empty value.
func GetPrefs(r *http.Request) *Prefs {
	if v := r.Context().Value(ctxKeyPrefs); v != nil {
		if p, ok := v.(*Prefs); ok {
			return p
		}
	}
	return &Prefs{}
}

// Attribution captures UTM tags from the query on every page load. Fresh
// tags replace the stored set; otherwise the stored set is kept.
func Attribution(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			p := GetPrefs(r)
			if tags, fresh := attribution.Capture(r.URL.Query(), p.Attribution()); fresh {
				p.SetAttribution(tags)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
