package pricing

import (
	"strings"

	"laserwave.studio/web/internal/content"
)

// MultiplierSource yields the multiplier of the currently selected audience.
type MultiplierSource interface {
	Multiplier() float64
}

// Fixed is a MultiplierSource with a constant value.
type Fixed float64

func (f Fixed) Multiplier() float64 { return float64(f) }

// ZoneRow is one line of the zone price table.
type ZoneRow struct {
	Label     string
	Preview   string
	HasFull   bool
	FullText  string
	BasePrice Money
	Price     Money
}

// PackageRow is one line of the one-time package table.
type PackageRow struct {
	Key       string
	Label     string
	Includes  string
	BasePrice Money
	Price     Money
}

// AbonementRow is one line of the abonement table, shown as a from-to range.
type AbonementRow struct {
	Key      string
	Label    string
	Range    string
	BaseFrom Money
	BaseTo   Money
	From     Money
	To       Money
}

// RangeText renders "from - to".
func (r AbonementRow) RangeText() string {
	return r.From.String() + " - " + r.To.String()
}

// Board renders every price table against a live multiplier source.
// Rows are rebuilt on each call so they always reflect the current audience.
type Board struct {
	pricing content.Pricing
	source  MultiplierSource
}

// NewBoard binds the pricing section to a multiplier source.
func NewBoard(p content.Pricing, source MultiplierSource) *Board {
	if source == nil {
		source = Fixed(1)
	}
	return &Board{pricing: p, source: source}
}

// Multiplier reports the multiplier the next render will use.
func (b *Board) Multiplier() float64 { return b.source.Multiplier() }

// Zones renders the zone table.
func (b *Board) Zones() []ZoneRow {
	m := b.source.Multiplier()
	rows := make([]ZoneRow, 0, len(b.pricing.Zones))
	for _, z := range b.pricing.Zones {
		full := strings.TrimSpace(z.FullList)
		preview := z.Preview
		if preview == "" {
			preview = z.FullList
		}
		row := ZoneRow{
			Label:     z.Label,
			Preview:   preview,
			HasFull:   full != "",
			BasePrice: FromNumber(z.Price),
			Price:     FromNumber(z.Price).Scale(m),
		}
		if row.HasFull {
			row.FullText = preview
			if extra := FullListExtra(preview, z.FullList); extra != "" {
				row.FullText = preview + ", " + extra
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Packages renders the one-time package table.
func (b *Board) Packages() []PackageRow {
	m := b.source.Multiplier()
	rows := make([]PackageRow, 0, len(b.pricing.PackagesOneTime))
	for _, p := range b.pricing.PackagesOneTime {
		rows = append(rows, PackageRow{
			Key:       p.Key,
			Label:     p.Label,
			Includes:  p.Includes,
			BasePrice: FromNumber(p.Price),
			Price:     FromNumber(p.Price).Scale(m),
		})
	}
	return rows
}

// Abonements renders the abonement table.
func (b *Board) Abonements() []AbonementRow {
	m := b.source.Multiplier()
	rows := make([]AbonementRow, 0, len(b.pricing.PackagesAbonements))
	for _, a := range b.pricing.PackagesAbonements {
		rows = append(rows, AbonementRow{
			Key:      a.Key,
			Label:    a.Label,
			Range:    a.Range,
			BaseFrom: FromNumber(a.PriceFrom),
			BaseTo:   FromNumber(a.PriceTo),
			From:     FromNumber(a.PriceFrom).Scale(m),
			To:       FromNumber(a.PriceTo).Scale(m),
		})
	}
	return rows
}

// FullListExtra returns the comma-separated items of full that are not
// already named in preview. Comparison ignores case and repeated spaces.
func FullListExtra(preview, full string) string {
	seen := map[string]struct{}{}
	for _, item := range strings.Split(preview, ",") {
		if n := normalizeItem(item); n != "" {
			seen[n] = struct{}{}
		}
	}
	var extra []string
	for _, item := range strings.Split(full, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[normalizeItem(item)]; ok {
			continue
		}
		extra = append(extra, item)
	}
	return strings.Join(extra, ", ")
}

func normalizeItem(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
