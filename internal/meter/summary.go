package meter

import (
	"context"
	"sort"

	"aimeter/internal/models"
)

// Summary composes the aggregate view for a query. The global scope is
// always present; its cost is the sum of every cataloged model's aggregate
// cost, not a price of the global token counts, because user-only aggregates
// span models and cannot be attributed to a single pricing tier.
func (m *Meter) Summary(ctx context.Context, q models.SummaryQuery) (*models.SummaryResponse, error) {
	q.Normalize()

	byModel, err := m.modelSummaries(ctx)
	if err != nil {
		return nil, err
	}

	globalAgg, err := m.readAggregate(ctx, aggGlobalKey)
	if err != nil {
		return nil, err
	}
	global := models.ScopeSummary{Aggregate: globalAgg}
	for _, ms := range byModel {
		global.CostUSD += ms.CostUSD
	}

	resp := &models.SummaryResponse{Global: global}

	switch {
	case q.Model != "" && q.UserID != "":
		ms, err := m.modelSummary(ctx, q.Model)
		if err != nil {
			return nil, err
		}
		us, err := m.userSummary(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		pairAgg, err := m.readAggregate(ctx, aggModelUserKey(q.Model, q.UserID))
		if err != nil {
			return nil, err
		}
		pair := models.ScopeSummary{
			Aggregate: pairAgg,
			CostUSD:   m.prices.Cost(q.Model, pairAgg.PromptTokens, pairAgg.CompletionTokens, pairAgg.CachedTokens),
		}
		resp.Model = &ms
		resp.User = &us
		resp.ModelUser = &pair

	case q.Model != "":
		ms, err := m.modelSummary(ctx, q.Model)
		if err != nil {
			return nil, err
		}
		resp.Model = &ms

	case q.UserID != "":
		us, err := m.userSummary(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		resp.User = &us

	default:
		byUser, err := m.userSummaries(ctx)
		if err != nil {
			return nil, err
		}
		resp.ByModel = topN(byModel, q.TopModels, func(s models.ModelSummary) int64 { return s.TotalTokens })
		resp.ByUser = topN(byUser, q.TopUsers, func(s models.UserSummary) int64 { return s.TotalTokens })
	}

	return resp, nil
}

// modelSummaries builds one priced summary per cataloged model, in catalog
// order.
func (m *Meter) modelSummaries(ctx context.Context) ([]models.ModelSummary, error) {
	catalog, err := m.readList(ctx, catalogModelsKey)
	if err != nil {
		return nil, err
	}

	out := make([]models.ModelSummary, 0, len(catalog))
	for _, model := range catalog {
		ms, err := m.modelSummary(ctx, model)
		if err != nil {
			return nil, err
		}
		out = append(out, ms)
	}
	return out, nil
}

func (m *Meter) modelSummary(ctx context.Context, model string) (models.ModelSummary, error) {
	agg, err := m.readAggregate(ctx, aggModelKey(model))
	if err != nil {
		return models.ModelSummary{}, err
	}
	return models.ModelSummary{
		Model: model,
		ScopeSummary: models.ScopeSummary{
			Aggregate: agg,
			CostUSD:   m.prices.Cost(model, agg.PromptTokens, agg.CompletionTokens, agg.CachedTokens),
		},
	}, nil
}

// userSummaries builds one summary per cataloged user. User costs stay 0.
func (m *Meter) userSummaries(ctx context.Context) ([]models.UserSummary, error) {
	catalog, err := m.readList(ctx, catalogUsersKey)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserSummary, 0, len(catalog))
	for _, userID := range catalog {
		us, err := m.userSummary(ctx, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, us)
	}
	return out, nil
}

func (m *Meter) userSummary(ctx context.Context, userID string) (models.UserSummary, error) {
	agg, err := m.readAggregate(ctx, aggUserKey(userID))
	if err != nil {
		return models.UserSummary{}, err
	}
	return models.UserSummary{
		UserID:       userID,
		ScopeSummary: models.ScopeSummary{Aggregate: agg},
	}, nil
}

// topN sorts by the extracted value descending (stable, so catalog order
// breaks ties) and truncates to n.
func topN[T any](items []T, n int, value func(T) int64) []T {
	sort.SliceStable(items, func(i, j int) bool {
		return value(items[i]) > value(items[j])
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}
