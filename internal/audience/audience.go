// Package audience holds the selected pricing audience for a visit and
// announces changes on an event bus so dependent views can recompute.
package audience

import (
	"math"
	"sort"
	"strings"

	EventBus "github.com/asaskevich/EventBus"

	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/placeholder"
)

const (
	// DefaultKey is the reference audience all base prices are quoted for.
	DefaultKey = "women"
	// TopicChanged is published with a Changed value after every selection.
	TopicChanged = "audience:changed"
)

// Profile is a pricing audience.
type Profile struct {
	Key        string
	Label      string
	Multiplier float64
	Note       string
}

// Changed describes a selection.
type Changed struct {
	Previous Profile
	Current  Profile
	ShowNote bool
}

// Control is one toggle button.
type Control struct {
	Key    string
	Label  string
	Active bool
}

// Persister stores the selected key across visits.
type Persister interface {
	Audience() string
	SetAudience(key string)
}

// ProfilesFrom reads the audience map, default first and the rest by key.
// A missing section yields a single neutral default audience.
func ProfilesFrom(p content.Pricing) []Profile {
	keys := make([]string, 0, len(p.Gender))
	for k := range p.Gender {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == DefaultKey || keys[j] == DefaultKey {
			return keys[i] == DefaultKey
		}
		return keys[i] < keys[j]
	})
	if len(keys) == 0 {
		return []Profile{{Key: DefaultKey, Label: DefaultKey, Multiplier: 1}}
	}
	out := make([]Profile, 0, len(keys))
	for _, k := range keys {
		a := p.Gender[k]
		m := a.Multiplier.Value
		if !a.Multiplier.Set || m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			m = 1
		}
		label := placeholder.Clean(a.Label)
		if label == "" {
			label = k
		}
		out = append(out, Profile{
			Key:        k,
			Label:      label,
			Multiplier: m,
			Note:       placeholder.Clean(a.Note),
		})
	}
	return out
}

// Selector is the single source of truth for the current audience.
type Selector struct {
	profiles   []Profile
	index      map[string]int
	defaultKey string
	current    string
	bus        EventBus.Bus
	store      Persister
}

// NewSelector restores the persisted selection, falling back to defaultKey
// (or the first profile) when the stored key is unknown.
func NewSelector(profiles []Profile, defaultKey string, bus EventBus.Bus, store Persister) *Selector {
	if len(profiles) == 0 {
		profiles = []Profile{{Key: DefaultKey, Label: DefaultKey, Multiplier: 1}}
	}
	if bus == nil {
		bus = EventBus.New()
	}
	s := &Selector{
		profiles: profiles,
		index:    make(map[string]int, len(profiles)),
		bus:      bus,
		store:    store,
	}
	for i, p := range profiles {
		s.index[p.Key] = i
	}
	if _, ok := s.index[defaultKey]; !ok {
		defaultKey = profiles[0].Key
	}
	s.defaultKey = defaultKey
	s.current = defaultKey
	if store != nil {
		s.current = s.Resolve(store.Audience()).Key
	}
	return s
}

// Resolve maps a key to its profile, unknown keys to the default.
func (s *Selector) Resolve(key string) Profile {
	if i, ok := s.index[strings.TrimSpace(key)]; ok {
		return s.profiles[i]
	}
	return s.profiles[s.index[s.defaultKey]]
}

// Current returns the selected profile.
func (s *Selector) Current() Profile { return s.Resolve(s.current) }

// Default returns the reference profile.
func (s *Selector) Default() Profile { return s.Resolve(s.defaultKey) }

// Multiplier implements pricing.MultiplierSource.
func (s *Selector) Multiplier() float64 { return s.Current().Multiplier }

// Apply scales a base price for the current audience.
func (s *Selector) Apply(base float64) float64 { return base * s.Multiplier() }

// Select makes key current, persists it and publishes TopicChanged.
func (s *Selector) Select(key string) Profile {
	prev := s.Current()
	next := s.Resolve(key)
	s.current = next.Key
	if s.store != nil {
		s.store.SetAudience(next.Key)
	}
	s.bus.Publish(TopicChanged, Changed{
		Previous: prev,
		Current:  next,
		ShowNote: s.NoteVisible(),
	})
	return next
}

// Controls lists the toggle buttons with exactly one active.
func (s *Selector) Controls() []Control {
	out := make([]Control, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, Control{Key: p.Key, Label: p.Label, Active: p.Key == s.current})
	}
	return out
}

// NoteVisible reports whether the audience note should be shown.
func (s *Selector) NoteVisible() bool {
	cur := s.Current()
	return cur.Key != s.defaultKey && cur.Note != ""
}

// Note returns the current audience note, empty when hidden.
func (s *Selector) Note() string {
	if !s.NoteVisible() {
		return ""
	}
	return s.Current().Note
}

// OnChange subscribes fn to selection changes.
func (s *Selector) OnChange(fn func(Changed)) error {
	return s.bus.Subscribe(TopicChanged, fn)
}
