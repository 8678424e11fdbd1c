package models

// Order selects the direction a listing walks the resolved index.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Listing bounds. The boundary layer clamps raw input to these before the
// query ever reaches the metering core.
const (
	DefaultLimit = 50
	MaxLimit     = 500
	DefaultTopN  = 10
	MaxTopN      = 50
)

// ListQuery is the closed, validated filter for usage listings. From and To
// are ISO-8601 strings compared lexicographically against record timestamps.
type ListQuery struct {
	Kind   string
	Model  string
	UserID string
	From   string
	To     string
	Limit  int
	Offset int
	Order  Order
}

// Normalize fills defaults and clamps bounds in place.
func (q *ListQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Order != OrderAsc && q.Order != OrderDesc {
		q.Order = OrderDesc
	}
}

// SummaryQuery selects which aggregate scopes a summary reports. Kind is
// accepted for interface symmetry with ListQuery but does not influence
// scope selection; aggregates are not partitioned by kind.
type SummaryQuery struct {
	Kind      string
	Model     string
	UserID    string
	TopModels int
	TopUsers  int
}

// Normalize fills defaults and clamps bounds in place.
func (q *SummaryQuery) Normalize() {
	if q.TopModels <= 0 {
		q.TopModels = DefaultTopN
	}
	if q.TopModels > MaxTopN {
		q.TopModels = MaxTopN
	}
	if q.TopUsers <= 0 {
		q.TopUsers = DefaultTopN
	}
	if q.TopUsers > MaxTopN {
		q.TopUsers = MaxTopN
	}
}
