package settings

import (
	"sync"

	"risk_guard/internal/core"
	"risk_guard/internal/market"
)

// Entry is one stored setting. Empty Symbol or Side widens the scope to "any".
type Entry struct {
	Symbol string          `yaml:"symbol"`
	Side   market.Side     `yaml:"side"`
	Key    core.SettingKey `yaml:"key"`
	Value  string          `yaml:"value"`
}

type scopeKey struct {
	symbol string
	side   market.Side
}

// StaticSource is an in-memory source, typically loaded from the config file.
// Safe for concurrent use; Set exists so tests and admin tooling can adjust
// values at runtime.
type StaticSource struct {
	mu     sync.RWMutex
	values map[scopeKey]map[core.SettingKey]string
}

// NewStaticSource builds a source from entries. Later entries override
// earlier ones in the same scope.
func NewStaticSource(entries []Entry) *StaticSource {
	s := &StaticSource{values: make(map[scopeKey]map[core.SettingKey]string)}
	for _, e := range entries {
		s.Set(e.Symbol, e.Side, e.Key, e.Value)
	}
	return s
}

// Set stores one value.
func (s *StaticSource) Set(symbol string, side market.Side, key core.SettingKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := scopeKey{symbol: symbol, side: side}
	if s.values[sk] == nil {
		s.values[sk] = make(map[core.SettingKey]string)
	}
	s.values[sk][key] = value
}

// Lookup returns the value stored for the exact scope.
func (s *StaticSource) Lookup(symbol string, side market.Side, key core.SettingKey) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[scopeKey{symbol: symbol, side: side}][key]
	return value, ok, nil
}
