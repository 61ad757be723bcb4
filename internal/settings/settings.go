// Package settings holds the user-facing switches that decide where and
// how JSON is beautified, and notifies subscribers when they change.
package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Settings mirrors the extension options.
type Settings struct {
	Enabled             bool     `json:"enabled"`
	URLPatterns         []string `json:"url_patterns"`
	FieldNames          []string `json:"field_names"`
	RepairTruncatedJSON bool     `json:"repair_truncated_json"`
}

// Default returns enabled settings with no patterns, no fields and repair off.
func Default() Settings {
	return Settings{
		Enabled:     true,
		URLPatterns: []string{},
		FieldNames:  []string{},
	}
}

func (s Settings) clone() Settings {
	s.URLPatterns = append([]string(nil), s.URLPatterns...)
	s.FieldNames = append([]string(nil), s.FieldNames...)
	return s
}

// MatchesURL reports whether any url contains any configured pattern.
// With no patterns nothing matches.
func (s Settings) MatchesURL(urls ...string) bool {
	for _, p := range s.URLPatterns {
		if p == "" {
			continue
		}
		for _, u := range urls {
			if strings.Contains(u, p) {
				return true
			}
		}
	}
	return false
}

// Active reports whether beautification should run for url.
func (s Settings) Active(url string) bool {
	return s.Enabled && len(s.FieldNames) > 0 && s.MatchesURL(url)
}

// Patch carries a partial update. Nil fields are left alone.
type Patch struct {
	Enabled             *bool     `json:"enabled,omitempty"`
	URLPatterns         *[]string `json:"url_patterns,omitempty"`
	FieldNames          *[]string `json:"field_names,omitempty"`
	RepairTruncatedJSON *bool     `json:"repair_truncated_json,omitempty"`
}

// Apply returns s with the fields present in p replaced.
func (p Patch) Apply(s Settings) Settings {
	s = s.clone()
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.URLPatterns != nil {
		s.URLPatterns = cleanList(*p.URLPatterns)
	}
	if p.FieldNames != nil {
		s.FieldNames = cleanList(*p.FieldNames)
	}
	if p.RepairTruncatedJSON != nil {
		s.RepairTruncatedJSON = *p.RepairTruncatedJSON
	}
	return s
}

// cleanList trims entries and drops blanks.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SplitList parses a comma separated list the way the options page does.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

// Backend persists settings across restarts.
type Backend interface {
	// Load returns the stored settings. ok is false when nothing is stored.
	Load(ctx context.Context) (s Settings, ok bool, err error)
	Save(ctx context.Context, s Settings) error
}

// Store is the in-process owner of the current settings.
type Store struct {
	mu      sync.RWMutex
	current Settings
	backend Backend

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Settings)
}

// NewStore returns a store seeded with initial. backend may be nil.
func NewStore(initial Settings, backend Backend) *Store {
	return &Store{
		current: initial.clone(),
		backend: backend,
		subs:    make(map[int]func(Settings)),
	}
}

// Load replaces the current settings with the backend copy, if any.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	stored, ok, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.current = stored.clone()
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Update applies p, persists the result and notifies subscribers. The
// in-memory settings are not changed when persisting fails.
func (s *Store) Update(ctx context.Context, p Patch) (Settings, error) {
	s.mu.Lock()
	next := p.Apply(s.current)
	if s.backend != nil {
		if err := s.backend.Save(ctx, next); err != nil {
			s.mu.Unlock()
			return s.current.clone(), fmt.Errorf("save settings: %w", err)
		}
	}
	s.current = next
	s.mu.Unlock()

	s.notify(next)
	return next.clone(), nil
}

// Subscribe registers fn to run after every successful Update. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Settings)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(v Settings) {
	s.subMu.Lock()
	fns := make([]func(Settings), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(v.clone())
	}
}
