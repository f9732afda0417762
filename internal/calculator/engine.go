package calculator

import (
	"context"
	"strconv"
	"sync"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/audience"
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/format"
	"laserwave.studio/web/internal/placeholder"
	"laserwave.studio/web/internal/pricing"
)

var sessionForms = [3]string{"сеанс", "сеанса", "сеансов"}

// UsageMarker remembers whether the visitor has already used the calculator.
type UsageMarker interface {
	CalculatorUsed() bool
	MarkCalculatorUsed()
}

// Option is a select box entry.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Options holds both select boxes of the calculator form.
type Options struct {
	Packages []Option
	Sessions []Option
}

// Engine keeps the visitor's selection and the latest result. It recomputes
// on input changes and on audience change events.
type Engine struct {
	pricing content.Pricing
	source  pricing.MultiplierSource
	tracker analytics.Tracker
	usage   UsageMarker

	mu     sync.Mutex
	sel    Selection
	result Result
	used   bool
}

// NewEngine starts with the first package and the smallest session count.
// tracker and usage may be nil.
func NewEngine(p content.Pricing, source pricing.MultiplierSource, tracker analytics.Tracker, usage UsageMarker) *Engine {
	if source == nil {
		source = pricing.Fixed(1)
	}
	if tracker == nil {
		tracker = analytics.Nop{}
	}
	e := &Engine{pricing: p, source: source, tracker: tracker, usage: usage}
	if len(p.PackagesOneTime) > 0 {
		e.sel.Package = p.PackagesOneTime[0].Key
	}
	e.sel.Sessions = SupportedSessions[0]
	if usage != nil {
		e.used = usage.CalculatorUsed()
	}
	e.result = Compute(e.pricing, e.sel, e.source.Multiplier())
	return e
}

// Follow recomputes whenever sel publishes an audience change.
func (e *Engine) Follow(sel *audience.Selector) error {
	return sel.OnChange(func(audience.Changed) {
		e.Recompute(context.Background())
	})
}

// SetPackage changes the package and recomputes.
func (e *Engine) SetPackage(ctx context.Context, key string) Result {
	e.mu.Lock()
	e.sel.Package = key
	e.mu.Unlock()
	return e.Recompute(ctx)
}

// SetSessions changes the session count and recomputes. Unsupported counts
// are kept so the result shows the subscription as unavailable.
func (e *Engine) SetSessions(ctx context.Context, n int) Result {
	e.mu.Lock()
	e.sel.Sessions = n
	e.mu.Unlock()
	return e.Recompute(ctx)
}

// Select replaces both inputs and recomputes once. An empty package keeps
// the current one.
func (e *Engine) Select(ctx context.Context, next Selection) Result {
	e.mu.Lock()
	if next.Package != "" {
		e.sel.Package = next.Package
	}
	e.sel.Sessions = next.Sessions
	e.mu.Unlock()
	return e.Recompute(ctx)
}

// Recompute prices the current selection with the multiplier the source
// reports now.
func (e *Engine) Recompute(ctx context.Context) Result {
	e.mu.Lock()
	sel := e.sel
	e.mu.Unlock()

	next := Compute(e.pricing, sel, e.source.Multiplier())

	e.mu.Lock()
	e.result = next
	e.mu.Unlock()
	e.markUsed(ctx, next)
	return next
}

// Start reports the result computed at construction as shown to the
// visitor. Like Recompute it fires calculator_used once per visitor when
// the result resolves.
func (e *Engine) Start(ctx context.Context) Result {
	res := e.Result()
	e.markUsed(ctx, res)
	return res
}

func (e *Engine) markUsed(ctx context.Context, res Result) {
	e.mu.Lock()
	fire := res.Resolved() && !e.used
	if fire {
		e.used = true
	}
	e.mu.Unlock()

	if !fire {
		return
	}
	if e.usage != nil {
		e.usage.MarkCalculatorUsed()
	}
	e.tracker.Track(ctx, analytics.GoalCalculatorUsed, nil)
}

// Result returns the latest computation.
func (e *Engine) Result() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// Selection returns the current input.
func (e *Engine) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// Note is the calculator footnote, empty when unset.
func (e *Engine) Note() string {
	return placeholder.Clean(e.pricing.Calculator.Note)
}

// Options lists the select box entries with the current selection marked.
func (e *Engine) Options() Options {
	sel := e.Selection()
	out := Options{
		Packages: make([]Option, 0, len(e.pricing.PackagesOneTime)),
		Sessions: make([]Option, 0, len(SupportedSessions)),
	}
	for _, p := range e.pricing.PackagesOneTime {
		label := p.Label
		if inc := placeholder.Clean(p.Includes); inc != "" {
			label += " (" + inc + ")"
		}
		out.Packages = append(out.Packages, Option{Value: p.Key, Label: label, Selected: p.Key == sel.Package})
	}
	for _, n := range SupportedSessions {
		out.Sessions = append(out.Sessions, Option{
			Value:    strconv.Itoa(n),
			Label:    SessionsLabel(n),
			Selected: n == sel.Sessions,
		})
	}
	return out
}

// SessionsLabel renders "5 сеансов".
func SessionsLabel(n int) string {
	return format.PluralCount(n, sessionForms)
}
