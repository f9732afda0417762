package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unknown is shown in place of a price that cannot be computed.
const Unknown = "—"

// CurrencySuffix follows every formatted amount: a no-break space and the rouble sign.
const CurrencySuffix = "\u00a0₽"

var rubPrinter = message.NewPrinter(language.Russian)

// Currency formats an amount as whole roubles grouped by Russian locale rules.
// Example: Currency(12345.6) => "12 346 ₽"
// Halves round toward positive infinity, so -1500.5 becomes -1500.
// Non-numeric, NaN and infinite inputs yield Unknown.
func Currency(v any) string {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return Unknown
	}
	rounded := roundHalfUp(f)
	if rounded == 0 {
		// avoid "-0"
		rounded = 0
	}
	if math.Abs(rounded) >= 1<<53 {
		return rubPrinter.Sprintf("%.0f", rounded) + CurrencySuffix
	}
	return rubPrinter.Sprintf("%d", int64(rounded)) + CurrencySuffix
}

func roundHalfUp(f float64) float64 {
	r := math.Round(f)
	if r-f == -0.5 {
		r++
	}
	return r
}

// CurrencyRange formats a from-to pair.
func CurrencyRange(from, to any) string {
	return Currency(from) + " - " + Currency(to)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}

// Date formats time in a locale-friendly short form.
func Date(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "en":
		return t.Format("Jan 2, 2006")
	default:
		return t.Format("02.01.2006")
	}
}
