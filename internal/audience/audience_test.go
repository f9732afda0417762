package audience

import (
	"testing"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/require"

	"laserwave.studio/web/internal/content"
)

type memoryPersister struct{ key string }

func (m *memoryPersister) Audience() string       { return m.key }
func (m *memoryPersister) SetAudience(key string) { m.key = key }

func samplePricing() content.Pricing {
	return content.Pricing{Gender: map[string]content.Audience{
		"men":   {Label: "Для мужчин", Multiplier: content.Num(1.3), Note: "Дороже из-за плотности волос"},
		"women": {Label: "Для женщин", Multiplier: content.Num(1)},
		"teens": {Multiplier: content.Num(-2)},
	}}
}

func TestProfilesFromOrdersDefaultFirst(t *testing.T) {
	t.Parallel()

	profiles := ProfilesFrom(samplePricing())
	require.Len(t, profiles, 3)
	require.Equal(t, "women", profiles[0].Key)
	require.Equal(t, "men", profiles[1].Key)
	require.Equal(t, "teens", profiles[2].Key)
	require.Equal(t, "teens", profiles[2].Label)
	require.Equal(t, 1.0, profiles[2].Multiplier, "non-positive multipliers fall back to 1")
}

func TestProfilesFromMissingSection(t *testing.T) {
	t.Parallel()

	profiles := ProfilesFrom(content.Pricing{})
	require.Equal(t, []Profile{{Key: DefaultKey, Label: DefaultKey, Multiplier: 1}}, profiles)
}

func TestSelectorRestoresPersistedSelection(t *testing.T) {
	t.Parallel()

	store := &memoryPersister{}
	first := NewSelector(ProfilesFrom(samplePricing()), DefaultKey, nil, store)
	require.Equal(t, "women", first.Current().Key)

	first.Select("men")
	require.Equal(t, "men", store.key)

	reloaded := NewSelector(ProfilesFrom(samplePricing()), DefaultKey, nil, store)
	require.Equal(t, "men", reloaded.Current().Key)
	require.InDelta(t, 1.3, reloaded.Multiplier(), 1e-9)
}

func TestSelectorUnknownKeysFallBack(t *testing.T) {
	t.Parallel()

	store := &memoryPersister{key: "aliens"}
	s := NewSelector(ProfilesFrom(samplePricing()), DefaultKey, nil, store)
	require.Equal(t, "women", s.Current().Key)

	got := s.Select("robots")
	require.Equal(t, "women", got.Key)
	require.Equal(t, "women", store.key)
}

func TestSelectorUnknownDefaultUsesFirstProfile(t *testing.T) {
	t.Parallel()

	s := NewSelector([]Profile{{Key: "men", Multiplier: 1.3}, {Key: "kids", Multiplier: 0.8}}, DefaultKey, nil, nil)
	require.Equal(t, "men", s.Current().Key)
	require.Equal(t, "men", s.Default().Key)
}

func TestSelectPublishesAndTogglesNote(t *testing.T) {
	t.Parallel()

	bus := EventBus.New()
	s := NewSelector(ProfilesFrom(samplePricing()), DefaultKey, bus, &memoryPersister{})

	var events []Changed
	require.NoError(t, s.OnChange(func(c Changed) { events = append(events, c) }))

	require.False(t, s.NoteVisible())
	s.Select("men")
	require.True(t, s.NoteVisible())
	require.Equal(t, "Дороже из-за плотности волос", s.Note())

	s.Select("women")
	require.False(t, s.NoteVisible())
	require.Equal(t, "", s.Note())

	require.Len(t, events, 2)
	require.Equal(t, "women", events[0].Previous.Key)
	require.Equal(t, "men", events[0].Current.Key)
	require.True(t, events[0].ShowNote)
	require.Equal(t, "women", events[1].Current.Key)
	require.False(t, events[1].ShowNote)
}

func TestControlsSingleActive(t *testing.T) {
	t.Parallel()

	s := NewSelector(ProfilesFrom(samplePricing()), DefaultKey, nil, nil)
	s.Select("men")

	active := 0
	for _, c := range s.Controls() {
		if c.Active {
			active++
			require.Equal(t, "men", c.Key)
		}
	}
	require.Equal(t, 1, active)
}

func TestApply(t *testing.T) {
	t.Parallel()

	s := NewSelector(ProfilesFrom(samplePricing()), DefaultKey, nil, nil)
	require.Equal(t, 2000.0, s.Apply(2000))
	s.Select("men")
	require.InDelta(t, 2600, s.Apply(2000), 1e-9)
}
