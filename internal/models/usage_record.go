package models

// TimeFormat serializes every stored timestamp. The fraction is fixed-width
// so the strings compare lexicographically in chronological order; RFC3339Nano
// trims trailing zeros and would break that.
const TimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// UsageRecord is one logged AI model invocation. Records are written once
// and never updated or deleted.
type UsageRecord struct {
	ID               string `json:"id" db:"id"`
	Kind             string `json:"kind" db:"kind"`
	Model            string `json:"model" db:"model"`
	UserID           string `json:"userId,omitempty" db:"user_id"`
	UserName         string `json:"userName,omitempty" db:"user_name"`
	RequestID        string `json:"requestId,omitempty" db:"request_id"`
	CallName         string `json:"callName,omitempty" db:"call_name"`
	PromptTokens     int64  `json:"promptTokens,omitempty" db:"prompt_tokens"`
	CompletionTokens int64  `json:"completionTokens,omitempty" db:"completion_tokens"`
	CachedTokens     int64  `json:"cachedTokens,omitempty" db:"cached_tokens"`
	TotalTokens      int64  `json:"totalTokens,omitempty" db:"total_tokens"`
	CreatedAt        string `json:"createdAt" db:"created_at"`
}

// RecordParams carries the caller-supplied fields of a new usage record.
// Kind and Model are required; everything else is optional.
type RecordParams struct {
	Kind             string `json:"kind"`
	Model            string `json:"model"`
	UserID           string `json:"userId,omitempty"`
	UserName         string `json:"userName,omitempty"`
	RequestID        string `json:"requestId,omitempty"`
	CallName         string `json:"callName,omitempty"`
	PromptTokens     int64  `json:"promptTokens,omitempty"`
	CompletionTokens int64  `json:"completionTokens,omitempty"`
	CachedTokens     int64  `json:"cachedTokens,omitempty"`
	TotalTokens      int64  `json:"totalTokens,omitempty"`
}
