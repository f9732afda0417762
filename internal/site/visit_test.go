package site

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/audience"
	"laserwave.studio/web/internal/content"
)

type memoryState struct {
	aud  string
	used bool
}

func (s *memoryState) Audience() string       { return s.aud }
func (s *memoryState) SetAudience(key string) { s.aud = key }
func (s *memoryState) CalculatorUsed() bool   { return s.used }
func (s *memoryState) MarkCalculatorUsed()    { s.used = true }

func sampleDoc() *content.Document {
	return &content.Document{
		Pricing: content.Pricing{
			Gender: map[string]content.Audience{
				"women": {Label: "Девушки", Multiplier: content.Num(1)},
				"men":   {Label: "Мужчины", Multiplier: content.Num(1.3), Note: "Для мужчин цены выше"},
			},
			Zones: []content.Zone{{Label: "Подмышки", Price: content.Num(1000)}},
			PackagesOneTime: []content.Package{
				{Key: "classic", Label: "Классика", Price: content.Num(2000)},
			},
			PackagesAbonements: []content.Abonement{
				{Key: "classic", PriceFrom: content.Num(5400), PriceTo: content.Num(15300)},
			},
		},
		Promos: []content.Promo{
			{ID: "p1", Active: true, Title: "Первый визит", Price: content.Num(1000)},
			{ID: "p2", Active: false, Title: "Архив"},
		},
	}
}

func TestNewVisitRestoresAudience(t *testing.T) {
	t.Parallel()

	state := &memoryState{aud: "men"}
	v, err := NewVisit(sampleDoc(), state, nil)
	require.NoError(t, err)
	require.Equal(t, "men", v.Audience.Current().Key)
	require.InDelta(t, 1300, v.Prices.Zones()[0].Price.Amount, 0.001)
	require.InDelta(t, 2600, v.Calculator.Result().OneOffPerSession.Amount, 0.001)

	promos := v.Promos(0)
	require.Len(t, promos, 1)
	require.True(t, promos[0].Numeric)
}

func TestVisitAudienceChangeRecomputesEverything(t *testing.T) {
	t.Parallel()

	state := &memoryState{}
	rec := &analytics.Recorder{}
	v, err := NewVisit(sampleDoc(), state, rec)
	require.NoError(t, err)
	require.Empty(t, rec.Goals())

	var seen []audience.Changed
	require.NoError(t, v.OnAudienceChange(func(c audience.Changed) { seen = append(seen, c) }))

	v.Audience.Select("men")
	require.Equal(t, "men", state.aud)
	require.Len(t, seen, 1)
	require.True(t, seen[0].ShowNote)
	require.InDelta(t, 2600, v.Calculator.Result().OneOffPerSession.Amount, 0.001)
	require.Equal(t, []string{analytics.GoalCalculatorUsed}, rec.Goals())
	require.True(t, state.used)

	v.Calculator.Recompute(context.Background())
	require.Len(t, rec.Goals(), 1)
}

func TestNewVisitWithoutState(t *testing.T) {
	t.Parallel()

	v, err := NewVisit(sampleDoc(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, audience.DefaultKey, v.Audience.Current().Key)

	_, err = NewVisit(nil, nil, nil)
	require.ErrorIs(t, err, content.ErrLoad)
}
