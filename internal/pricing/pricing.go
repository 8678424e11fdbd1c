package pricing

import (
	"sort"
	"sync"
)

// Entry holds the cost parameters for one model. Rates are USD per million
// tokens unless noted otherwise.
type Entry struct {
	// Input is the rate for uncached prompt tokens.
	Input float64 `yaml:"input" json:"input"`

	// CachedInput is the rate for cached prompt tokens. Falls back to Input
	// when absent.
	CachedInput *float64 `yaml:"cachedInput" json:"cachedInput,omitempty"`

	// Output is the rate for completion tokens.
	Output float64 `yaml:"output" json:"output"`

	// Max, when present, overrides the input/output split entirely: every
	// token is billed at this flat rate.
	Max *float64 `yaml:"max" json:"max,omitempty"`

	// InputPerMinute, when present, marks a transcription-style model: USD
	// per minute of audio, with the record's prompt token count carrying
	// elapsed seconds.
	InputPerMinute *float64 `yaml:"inputPerMinute" json:"inputPerMinute,omitempty"`
}

// Table maps model identifiers to pricing entries. It is injected wherever
// costs are computed and may be swapped wholesale at runtime; nothing ever
// persists a computed cost, so a swap reprices history on the next read.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewTable builds a table from the given entries. The map is copied.
func NewTable(entries map[string]Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for model, e := range entries {
		t.entries[model] = e
	}
	return t
}

// Lookup returns the entry for model, if any.
func (t *Table) Lookup(model string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[model]
	return e, ok
}

// Replace swaps the whole table atomically.
func (t *Table) Replace(entries map[string]Entry) {
	next := make(map[string]Entry, len(entries))
	for model, e := range entries {
		next[model] = e
	}
	t.mu.Lock()
	t.entries = next
	t.mu.Unlock()
}

// Models returns the priced model identifiers, sorted.
func (t *Table) Models() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	models := make([]string, 0, len(t.entries))
	for model := range t.entries {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// Cost computes the USD cost of one invocation. Unknown models cost 0; they
// are untracked, not an error. Precedence: per-minute audio pricing first,
// then flat Max, then the split input/cached/output calculation.
func (t *Table) Cost(model string, promptTokens, completionTokens, cachedTokens int64) float64 {
	e, ok := t.Lookup(model)
	if !ok {
		return 0
	}

	if e.InputPerMinute != nil {
		// promptTokens carries elapsed seconds for per-minute models.
		return float64(promptTokens) / 60.0 * *e.InputPerMinute
	}

	if e.Max != nil {
		return float64(promptTokens+completionTokens) / 1e6 * *e.Max
	}

	uncached := promptTokens - cachedTokens
	if uncached < 0 {
		uncached = 0
	}
	cachedRate := e.Input
	if e.CachedInput != nil {
		cachedRate = *e.CachedInput
	}
	return float64(uncached)/1e6*e.Input +
		float64(cachedTokens)/1e6*cachedRate +
		float64(completionTokens)/1e6*e.Output
}
