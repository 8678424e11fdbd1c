package meter

import (
	"context"

	"aimeter/internal/models"
)

// FindAll answers a filtered, paginated listing. The most selective index
// available is resolved first, secondary filters are applied while loading
// records, and the totals cover the entire filtered set before pagination.
func (m *Meter) FindAll(ctx context.Context, q models.ListQuery) (*models.ListResponse, error) {
	q.Normalize()

	ids, usedKindIndex, err := m.resolveIndex(ctx, q)
	if err != nil {
		return nil, err
	}

	// Residual kind filter only when the kind index was not the source.
	filterKind := q.Kind != "" && !usedKindIndex

	resp := &models.ListResponse{
		Limit:  q.Limit,
		Offset: q.Offset,
		Order:  q.Order,
	}

	filtered := make([]models.ListItem, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := m.getRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Indexed id without a record; skip rather than fail the listing.
			continue
		}
		if q.From != "" && rec.CreatedAt < q.From {
			continue
		}
		if q.To != "" && rec.CreatedAt > q.To {
			continue
		}
		if filterKind && rec.Kind != q.Kind {
			continue
		}

		cost := m.prices.Cost(rec.Model, rec.PromptTokens, rec.CompletionTokens, rec.CachedTokens)
		filtered = append(filtered, models.ListItem{UsageRecord: *rec, CostUSD: cost})

		resp.Calls++
		resp.PromptTokens += rec.PromptTokens
		resp.CompletionTokens += rec.CompletionTokens
		resp.CachedTokens += rec.CachedTokens
		resp.TotalTokens += rec.TotalTokens
		resp.CostUSD += cost
	}
	resp.Total = len(filtered)
	resp.TotalCostUSD = resp.CostUSD

	// Descending output reverses the insertion order of the originating
	// index. It is not a sort by CreatedAt; the two only coincide while
	// index order stays chronological.
	if q.Order == models.OrderDesc {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	start := q.Offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + q.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	resp.Items = filtered[start:end]

	return resp, nil
}

// resolveIndex picks the id sequence for a query. Precedence, first match
// wins: model+user intersection, model, user, kind, then the all-ids index.
// Reports whether the kind index was the source.
func (m *Meter) resolveIndex(ctx context.Context, q models.ListQuery) ([]string, bool, error) {
	switch {
	case q.Model != "" && q.UserID != "":
		modelIDs, err := m.readList(ctx, indexModelKey(q.Model))
		if err != nil {
			return nil, false, err
		}
		userIDs, err := m.readList(ctx, indexUserKey(q.UserID))
		if err != nil {
			return nil, false, err
		}
		return intersect(modelIDs, userIDs), false, nil

	case q.Model != "":
		ids, err := m.readList(ctx, indexModelKey(q.Model))
		return ids, false, err

	case q.UserID != "":
		ids, err := m.readList(ctx, indexUserKey(q.UserID))
		return ids, false, err

	case q.Kind != "":
		ids, err := m.readList(ctx, indexKindKey(q.Kind))
		return ids, true, err

	default:
		ids, err := m.readList(ctx, indexAllKey)
		return ids, false, err
	}
}

// intersect keeps the ids of primary that are members of secondary,
// preserving primary's order.
func intersect(primary, secondary []string) []string {
	members := make(map[string]struct{}, len(secondary))
	for _, id := range secondary {
		members[id] = struct{}{}
	}

	var out []string
	for _, id := range primary {
		if _, ok := members[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
