// Package site wires the per-request view of the content document: the
// audience selector, the price board and the calculator, joined by one event
// bus. A Visit lives for a single request and is never shared.
package site

import (
	"fmt"

	EventBus "github.com/asaskevich/EventBus"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/audience"
	"laserwave.studio/web/internal/calculator"
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/listing"
	"laserwave.studio/web/internal/pricing"
)

// State is the visitor state a Visit reads and writes back.
type State interface {
	audience.Persister
	calculator.UsageMarker
}

// Visit is the live model behind one rendered page.
type Visit struct {
	Doc        *content.Document
	Audience   *audience.Selector
	Prices     *pricing.Board
	Calculator *calculator.Engine

	bus EventBus.Bus
}

// NewVisit builds the selector from state, binds the price board and the
// calculator to it and subscribes the calculator to audience changes.
// state and tracker may be nil.
func NewVisit(doc *content.Document, state State, tracker analytics.Tracker) (*Visit, error) {
	if doc == nil {
		return nil, fmt.Errorf("site: %w", content.ErrLoad)
	}
	bus := EventBus.New()

	var persister audience.Persister
	var usage calculator.UsageMarker
	if state != nil {
		persister = state
		usage = state
	}
	sel := audience.NewSelector(audience.ProfilesFrom(doc.Pricing), audience.DefaultKey, bus, persister)
	engine := calculator.NewEngine(doc.Pricing, sel, tracker, usage)
	if err := engine.Follow(sel); err != nil {
		return nil, fmt.Errorf("site: subscribe calculator: %w", err)
	}
	return &Visit{
		Doc:        doc,
		Audience:   sel,
		Prices:     pricing.NewBoard(doc.Pricing, sel),
		Calculator: engine,
		bus:        bus,
	}, nil
}

// Promos renders active promos priced for the current audience.
func (v *Visit) Promos(limit int) []listing.PromoCard {
	return listing.Promos(v.Doc, limit, v.Audience.Multiplier())
}

// Masters renders the staff cards.
func (v *Visit) Masters(limit int) []listing.MasterCard {
	return listing.Masters(v.Doc, limit)
}

// OnAudienceChange lets callers react to selections made during the request.
func (v *Visit) OnAudienceChange(fn func(audience.Changed)) error {
	return v.bus.Subscribe(audience.TopicChanged, fn)
}
