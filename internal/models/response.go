package models

// ListItem is a usage record with its cost computed from the pricing table
// current at read time.
type ListItem struct {
	UsageRecord
	CostUSD float64 `json:"costUsd"`
}

// ListResponse is the result of a filtered, paginated listing. The totals
// cover the entire filtered set, independent of pagination. TotalCostUSD and
// CostUSD carry the same sum; both names are kept for wire compatibility.
type ListResponse struct {
	Total            int        `json:"total"`
	Limit            int        `json:"limit"`
	Offset           int        `json:"offset"`
	Order            Order      `json:"order"`
	TotalCostUSD     float64    `json:"totalCostUsd"`
	Calls            int64      `json:"calls"`
	PromptTokens     int64      `json:"promptTokens"`
	CompletionTokens int64      `json:"completionTokens"`
	CachedTokens     int64      `json:"cachedTokens"`
	TotalTokens      int64      `json:"totalTokens"`
	CostUSD          float64    `json:"costUsd"`
	Items            []ListItem `json:"items"`
}

// ScopeSummary is an aggregate plus its derived cost. For user scopes the
// cost is always 0: a user aggregate spans multiple models and cannot be
// priced without the per-call breakdown.
type ScopeSummary struct {
	Aggregate
	CostUSD float64 `json:"costUsd"`
}

// ModelSummary is a scope summary labeled with its model.
type ModelSummary struct {
	Model string `json:"model"`
	ScopeSummary
}

// UserSummary is a scope summary labeled with its user.
type UserSummary struct {
	UserID string `json:"userId"`
	ScopeSummary
}

// SummaryResponse is the nested aggregate view. Global is always present;
// the other fields depend on which filters were set.
type SummaryResponse struct {
	Global    ScopeSummary   `json:"global"`
	Model     *ModelSummary  `json:"model,omitempty"`
	User      *UserSummary   `json:"user,omitempty"`
	ModelUser *ScopeSummary  `json:"modelUser,omitempty"`
	ByModel   []ModelSummary `json:"byModel,omitempty"`
	ByUser    []UserSummary  `json:"byUser,omitempty"`
}
