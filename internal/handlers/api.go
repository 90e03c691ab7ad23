package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const maxImportBytes = 1 << 20

type APIHandlers struct {
	tracker  *services.Tracker
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAPIHandlers(tracker *services.Tracker, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		tracker:  tracker,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type dailyEntryRequest struct {
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Channel string           `json:"channel" validate:"required,oneof=Trendyol Hepsiburada"`
	Revenue *decimal.Decimal `json:"revenue" validate:"required"`
	Spend   *decimal.Decimal `json:"spend" validate:"required"`
	Units   *decimal.Decimal `json:"units" validate:"required"`
}

type dailyEntryResponse struct {
	Entry models.DailyEntry    `json:"entry"`
	Write services.WriteResult `json:"write"`
}

func (h *APIHandlers) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	g, err := granularityParam(r, models.Monthly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	noStore(w)
	errors.WriteSuccess(w, h.tracker.Periods(g))
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	g, err := granularityParam(r, models.Monthly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	noStore(w)
	errors.WriteSuccess(w, h.tracker.DerivedMetrics(g))
}

func (h *APIHandlers) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	g, err := granularityParam(r, models.Monthly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	noStore(w)
	errors.WriteSuccess(w, h.tracker.Timeline(g))
}

func (h *APIHandlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	g, err := granularityParam(r, models.Monthly)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	raw := r.URL.Query().Get("field")
	if raw == "" {
		raw = string(models.FieldRevenue)
	}
	field, err := models.ParseSeriesField(raw)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, err.Error()))
		return
	}

	noStore(w)
	errors.WriteSuccess(w, h.tracker.Series(g, field))
}

func (h *APIHandlers) HandleListDailyEntries(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	errors.WriteSuccess(w, h.tracker.DailyEntries())
}

func (h *APIHandlers) HandleAddDailyEntry(w http.ResponseWriter, r *http.Request) {
	var req dailyEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "request body must be a JSON daily entry"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, errors.ValidationWrap(err, validationMessage(err)))
		return
	}

	day, err := models.ParseDate(req.Date)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "date must be YYYY-MM-DD"))
		return
	}

	entry, res, err := h.tracker.AddDailyEntry(r.Context(), day, models.Channel(req.Channel), *req.Revenue, *req.Spend, *req.Units)
	if err != nil {
		h.fail(w, r, withResult(err, dailyEntryResponse{Entry: entry, Write: res}))
		return
	}
	errors.WriteSuccessStatus(w, http.StatusCreated, dailyEntryResponse{Entry: entry, Write: res})
}

func (h *APIHandlers) HandleDeleteDailyEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.fail(w, r, errors.Validation("daily entry id is required"))
		return
	}

	res, err := h.tracker.DeleteDailyEntry(r.Context(), id)
	if err != nil {
		h.fail(w, r, withResult(err, res))
		return
	}
	errors.WriteSuccess(w, res)
}

func (h *APIHandlers) HandleImportWeekly(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "could not read import body"))
		return
	}

	result, err := h.tracker.ImportWeekly(r.Context(), string(body))
	if err != nil {
		h.fail(w, r, withResult(err, result))
		return
	}
	errors.WriteSuccess(w, result)
}

func (h *APIHandlers) HandleResetPeriods(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("granularity") == "" {
		h.fail(w, r, errors.Validation("granularity is required"))
		return
	}
	g, err := granularityParam(r, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.tracker.ResetPeriods(r.Context(), g)
	if err != nil {
		h.fail(w, r, withResult(err, res))
		return
	}
	errors.WriteSuccess(w, res)
}

func (h *APIHandlers) HandlePending(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	errors.WriteSuccess(w, h.tracker.Pending())
}

func (h *APIHandlers) HandleFlush(w http.ResponseWriter, r *http.Request) {
	res, err := h.tracker.Flush(r.Context())
	if err != nil {
		h.fail(w, r, withResult(err, res))
		return
	}
	errors.WriteSuccess(w, res)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pending := h.tracker.Pending().Count
	status := "healthy"
	if pending > 0 {
		status = "degraded"
	}

	errors.WriteSuccess(w, map[string]any{
		"status":         status,
		"pending_writes": pending,
		"timestamp":      time.Now().Format(time.RFC3339),
		"version":        "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.tracker.Stats())
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// withResult attaches the partial outcome to a persistence failure so the
// client can see which writes reached the store.
func withResult(err error, result any) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Code == errors.CodePersistence {
		appErr.Result = result
	}
	return err
}

func granularityParam(r *http.Request, def models.Granularity) (models.Granularity, error) {
	raw := r.URL.Query().Get("granularity")
	if raw == "" {
		return def, nil
	}
	g, err := models.ParseGranularity(raw)
	if err != nil {
		return "", errors.ValidationWrap(err, err.Error())
	}
	return g, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid daily entry"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}
