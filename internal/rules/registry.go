package rules

import (
	"sync"
)

// Registry maps rule-type identifiers to strategies. Safe for concurrent
// use; new types can be registered at runtime.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// NewDefaultRegistry returns a registry with all built-in strategies
// registered against the given history source.
func NewDefaultRegistry(history History) *Registry {
	r := NewRegistry()
	r.Register(NewMinDuration())
	r.Register(NewVolumeConsistency(history))
	r.Register(NewTradeFrequency(history))
	r.Register(NewDailyLossLimit(history))
	r.Register(NewMaxOpenPositions(history))
	r.Register(NewMaxDrawdown(history))
	r.Register(NewRiskPerTrade())
	return r
}

// Register adds or replaces the strategy for its canonical type.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Type()] = s
}

// Resolve looks up the strategy for a rule type. The second return is
// false for unknown types; callers treat that as "skip", never an error.
func (r *Registry) Resolve(ruleType string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[ruleType]
	return s, ok
}

// Types returns the registered rule-type identifiers.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.strategies))
	for t := range r.strategies {
		types = append(types, t)
	}
	return types
}
