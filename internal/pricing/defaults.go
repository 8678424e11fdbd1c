package pricing

func ptr(v float64) *float64 { return &v }

// defaultEntries is the built-in pricing set, used when no pricing file is
// configured. Rates are USD per million tokens except whisper-1 (per minute)
// and the embedding models (flat rate via Max).
var defaultEntries = map[string]Entry{
	"gpt-4o":       {Input: 2.50, CachedInput: ptr(1.25), Output: 10.00},
	"gpt-4o-mini":  {Input: 0.15, CachedInput: ptr(0.075), Output: 0.60},
	"gpt-4.1":      {Input: 2.00, CachedInput: ptr(0.50), Output: 8.00},
	"gpt-4.1-mini": {Input: 0.40, CachedInput: ptr(0.10), Output: 1.60},
	"gpt-4.1-nano": {Input: 0.10, CachedInput: ptr(0.025), Output: 0.40},
	"o3":           {Input: 2.00, CachedInput: ptr(0.50), Output: 8.00},
	"o4-mini":      {Input: 1.10, CachedInput: ptr(0.275), Output: 4.40},

	"text-embedding-3-small": {Max: ptr(0.02)},
	"text-embedding-3-large": {Max: ptr(0.13)},

	"whisper-1": {InputPerMinute: ptr(0.006)},
}

// Default returns a table preloaded with the built-in pricing set.
func Default() *Table {
	return NewTable(defaultEntries)
}
