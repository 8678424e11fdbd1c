package models

// Aggregate is a running counter for one scope (global, model, user, or
// model+user). Counters only ever grow; no cost is stored because cost is
// always derived from the live pricing table on read.
type Aggregate struct {
	Calls            int64  `json:"calls"`
	PromptTokens     int64  `json:"promptTokens"`
	CompletionTokens int64  `json:"completionTokens"`
	CachedTokens     int64  `json:"cachedTokens"`
	TotalTokens      int64  `json:"totalTokens"`
	UpdatedAt        string `json:"updatedAt"`
}

// Delta is the per-record increment applied to every affected aggregate.
type Delta struct {
	Calls            int64
	PromptTokens     int64
	CompletionTokens int64
	CachedTokens     int64
	TotalTokens      int64
}

// Add applies d component-wise. UpdatedAt is the caller's concern.
func (a *Aggregate) Add(d Delta) {
	a.Calls += d.Calls
	a.PromptTokens += d.PromptTokens
	a.CompletionTokens += d.CompletionTokens
	a.CachedTokens += d.CachedTokens
	a.TotalTokens += d.TotalTokens
}

// DeltaFor derives the aggregate increment for a new record. TotalTokens is
// taken exactly as supplied on the record, not re-derived from the parts.
func DeltaFor(rec *UsageRecord) Delta {
	return Delta{
		Calls:            1,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		CachedTokens:     rec.CachedTokens,
		TotalTokens:      rec.TotalTokens,
	}
}
