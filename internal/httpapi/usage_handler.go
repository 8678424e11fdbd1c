package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"aimeter/internal/meter"
	"aimeter/internal/models"
	"aimeter/internal/storage"
	"aimeter/internal/utils"
)

// UsageHandler is the boundary in front of the metering core. It turns raw
// request parameters into the closed, validated query structs the core
// consumes, and maps core faults to status codes.
type UsageHandler struct {
	meter  *meter.Meter
	logger *utils.Logger
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(m *meter.Meter) *UsageHandler {
	return &UsageHandler{
		meter:  m,
		logger: utils.NewLogger("usage-api"),
	}
}

// HandleUsage dispatches /v1/usage: POST records an invocation, GET lists.
func (h *UsageHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.record(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleSummary serves GET /v1/usage/summary.
func (h *UsageHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := models.SummaryQuery{
		Kind:   r.URL.Query().Get("kind"),
		Model:  r.URL.Query().Get("model"),
		UserID: r.URL.Query().Get("userId"),
	}

	var ok bool
	if q.TopModels, ok = h.intParam(w, r, "topModels"); !ok {
		return
	}
	if q.TopUsers, ok = h.intParam(w, r, "topUsers"); !ok {
		return
	}
	q.Normalize()

	resp, err := h.meter.Summary(r.Context(), q)
	if err != nil {
		h.fail(w, "summary", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *UsageHandler) record(w http.ResponseWriter, r *http.Request) {
	var params models.RecordParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if params.Kind == "" || params.Model == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "kind and model are required")
		return
	}
	if params.PromptTokens < 0 || params.CompletionTokens < 0 ||
		params.CachedTokens < 0 || params.TotalTokens < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "token counts must be non-negative")
		return
	}

	rec, err := h.meter.Record(r.Context(), params)
	if err != nil {
		h.fail(w, "record", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, rec)
}

func (h *UsageHandler) list(w http.ResponseWriter, r *http.Request) {
	q := models.ListQuery{
		Kind:   r.URL.Query().Get("kind"),
		Model:  r.URL.Query().Get("model"),
		UserID: r.URL.Query().Get("userId"),
	}

	var ok bool
	if q.Limit, ok = h.intParam(w, r, "limit"); !ok {
		return
	}
	if q.Offset, ok = h.intParam(w, r, "offset"); !ok {
		return
	}
	if q.From, ok = h.timeParam(w, r, "from"); !ok {
		return
	}
	if q.To, ok = h.timeParam(w, r, "to"); !ok {
		return
	}

	switch order := r.URL.Query().Get("order"); order {
	case "":
		q.Order = models.OrderDesc
	case string(models.OrderAsc), string(models.OrderDesc):
		q.Order = models.Order(order)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "order must be \"asc\" or \"desc\"")
		return
	}
	q.Normalize()

	resp, err := h.meter.FindAll(r.Context(), q)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// intParam parses an optional non-negative integer query parameter. Writes
// the error response itself and reports ok=false on bad input.
func (h *UsageHandler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return val, true
}

// timeParam parses an optional ISO-8601 query parameter and re-serializes it
// in the fixed-width stored format, so the bound compares lexicographically
// against record timestamps regardless of the precision the caller sent.
func (h *UsageHandler) timeParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return "", true
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, name+" must be an ISO-8601 timestamp")
		return "", false
	}
	return parsed.UTC().Format(models.TimeFormat), true
}

func (h *UsageHandler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error("Operation failed", "op", op, "error", err)
	if errors.Is(err, storage.ErrCorruptValue) {
		utils.RespondWithError(w, http.StatusInternalServerError, "stored data is corrupt")
		return
	}
	utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
}
