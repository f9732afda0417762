// Package calculator compares one-off and abonement prices for a package and
// session count under the current audience multiplier.
package calculator

import (
	"strings"

	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/pricing"
)

// SupportedSessions are the session counts the abonement tables are priced
// for. Other counts have no subscription price.
var SupportedSessions = []int{3, 5, 7, 9}

// Selection is the visitor's calculator input.
type Selection struct {
	Package  string
	Sessions int
}

// Result is one full computation. Fields are never partially updated.
type Result struct {
	Package                string
	PackageLabel           string
	Sessions               int
	Multiplier             float64
	OneOffPerSession       pricing.Money
	OneOffTotal            pricing.Money
	SubscriptionPerSession pricing.Money
	SubscriptionTotal      pricing.Money
	Savings                pricing.Money
}

// Resolved reports whether the package key matched a one-time package.
func (r Result) Resolved() bool { return r.OneOffPerSession.Valid }

// Supported reports whether n is an abonement session count.
func Supported(n int) bool {
	for _, s := range SupportedSessions {
		if s == n {
			return true
		}
	}
	return false
}

// Compute prices sel under multiplier. Unknown packages yield a result with
// every money field unavailable.
func Compute(p content.Pricing, sel Selection, multiplier float64) Result {
	res := Result{
		Package:    strings.TrimSpace(sel.Package),
		Sessions:   sel.Sessions,
		Multiplier: multiplier,
	}
	pkg, ok := p.FindPackage(res.Package)
	if !ok || !pkg.Price.Set {
		return res
	}
	res.PackageLabel = pkg.Label
	res.OneOffPerSession = pricing.Of(pkg.Price.Value * multiplier)
	if sel.Sessions > 0 {
		res.OneOffTotal = pricing.Of(res.OneOffPerSession.Amount * float64(sel.Sessions))
	}

	total, ok := abonementTotal(p, res.Package, sel.Sessions)
	if !ok {
		return res
	}
	scaled := total * multiplier
	res.SubscriptionTotal = pricing.Of(scaled)
	res.SubscriptionPerSession = pricing.Of(scaled / float64(sel.Sessions))
	res.Savings = pricing.Of(res.OneOffTotal.Amount - scaled)
	return res
}

// abonementTotal returns the base total for n sessions of key. Direct
// per-count totals win; otherwise priceFrom covers the smallest supported
// count and priceTo the largest. Nothing is interpolated.
func abonementTotal(p content.Pricing, key string, n int) (float64, bool) {
	if !Supported(n) {
		return 0, false
	}
	ab, ok := p.FindAbonement(key)
	if !ok {
		return 0, false
	}
	if total, ok := ab.Total(n); ok {
		return total, true
	}
	switch n {
	case SupportedSessions[0]:
		if ab.PriceFrom.Set {
			return ab.PriceFrom.Value, true
		}
	case SupportedSessions[len(SupportedSessions)-1]:
		if ab.PriceTo.Set {
			return ab.PriceTo.Value, true
		}
	}
	return 0, false
}
