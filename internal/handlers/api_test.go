package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/store/memory"
)

// downStore accepts reads but rejects every period write.
type downStore struct {
	*memory.Store
}

func (downStore) UpsertPeriod(ctx context.Context, p models.Period) error {
	return errors.New("connection refused")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestTracker(t *testing.T, store services.Store) *services.Tracker {
	t.Helper()
	tracker := services.NewTracker(store, services.WithLogger(testLogger()))
	if err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("load tracker: %v", err)
	}
	// A failing store leaves the seed pending, which some tests rely on.
	if _, _, err := tracker.SeedIfEmpty(context.Background(), services.HistoricalSeed()); err != nil && !apperrors.HasCode(err, apperrors.CodePersistence) {
		t.Fatalf("seed tracker: %v", err)
	}
	return tracker
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestNewAPIHandlers(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	handlers := NewAPIHandlers(tracker, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.tracker != tracker {
		t.Error("NewAPIHandlers() should set tracker field")
	}
	if handlers.validate == nil {
		t.Error("NewAPIHandlers() should build a validator")
	}
}

func TestAPIHandlers_HandleMetrics(t *testing.T) {
	handlers := NewAPIHandlers(createTestTracker(t, memory.New()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/metrics?granularity=Monthly", nil)
	w := httptest.NewRecorder()
	handlers.HandleMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected cache-control 'no-store', got %q", cc)
	}

	var response struct {
		Success bool                   `json:"success"`
		Data    []models.PeriodMetrics `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true in response")
	}
	if len(response.Data) != 4 {
		t.Fatalf("expected 4 seeded months, got %d", len(response.Data))
	}
	if response.Data[0].Metrics[models.ChannelTrendyol].RevenueChange.Valid {
		t.Error("first period should have no revenue change")
	}
	if !response.Data[1].Metrics[models.ChannelTrendyol].RevenueChange.Valid {
		t.Error("second period should have a revenue change")
	}
}

func TestAPIHandlers_HandleSeries_NullROAS(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	if _, err := tracker.ImportWeekly(context.Background(), "2025-W31,Trendyol,100,0,1"); err != nil {
		t.Fatalf("import: %v", err)
	}
	handlers := NewAPIHandlers(tracker, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/series?granularity=Weekly&field=roas", nil)
	w := httptest.NewRecorder()
	handlers.HandleSeries(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"Trendyol":null`) {
		t.Errorf("expected ROAS with zero spend to serialize as null, got %s", w.Body.String())
	}
}

func TestAPIHandlers_InvalidGranularity(t *testing.T) {
	handlers := NewAPIHandlers(createTestTracker(t, memory.New()), testLogger())

	for _, target := range []string{"/api/periods?granularity=Daily", "/api/timeline?granularity=monthly"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handlers.HandlePeriods(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, w.Code)
		}
		response := decodeBody(t, w)
		errObj, _ := response["error"].(map[string]any)
		if errObj["code"] != "VALIDATION_ERROR" {
			t.Errorf("%s: expected VALIDATION_ERROR, got %v", target, errObj["code"])
		}
	}
}

func TestAPIHandlers_AddDailyEntry_PersistenceFailure(t *testing.T) {
	tracker := services.NewTracker(downStore{memory.New()}, services.WithLogger(testLogger()))
	if err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("load tracker: %v", err)
	}
	handlers := NewAPIHandlers(tracker, testLogger())

	body := `{"date":"2025-07-28","channel":"Trendyol","revenue":"100","spend":"10","units":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/daily-entries", strings.NewReader(body))
	w := httptest.NewRecorder()
	handlers.HandleAddDailyEntry(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d: %s", http.StatusServiceUnavailable, w.Code, w.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details string `json:"details"`
			Result  struct {
				Entry models.DailyEntry    `json:"entry"`
				Write services.WriteResult `json:"write"`
			} `json:"result"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Error.Code != "PERSISTENCE_ERROR" {
		t.Errorf("expected PERSISTENCE_ERROR, got %q", response.Error.Code)
	}
	if !response.Error.Result.Write.Diverged {
		t.Error("expected diverged write result")
	}
	if response.Error.Result.Entry.ID == "" {
		t.Error("expected the accepted entry in the result")
	}
	if response.Error.Details != "monthly_upsert,weekly_upsert" {
		t.Errorf("unexpected failed steps %q", response.Error.Details)
	}

	if got := tracker.Pending().Count; got != 2 {
		t.Errorf("expected 2 pending writes, got %d", got)
	}
	if got := len(tracker.DailyEntries()); got != 1 {
		t.Errorf("entry should be kept in memory, got %d entries", got)
	}
}

func TestAPIHandlers_AddDailyEntry_ExtremeExponent(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	handlers := NewAPIHandlers(tracker, testLogger())

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		body := `{"date":"2025-07-28","channel":"Trendyol","revenue":"1e-400000000","spend":"0","units":"0"}`
		req := httptest.NewRequest(http.MethodPost, "/api/daily-entries", strings.NewReader(body))
		w := httptest.NewRecorder()
		handlers.HandleAddDailyEntry(w, req)
		done <- w
	}()

	var w *httptest.ResponseRecorder
	select {
	case w = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("adding an entry with an extreme exponent did not finish")
	}

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Errorf("expected VALIDATION_ERROR, got %s", w.Body.String())
	}
	if got := len(tracker.DailyEntries()); got != 0 {
		t.Errorf("expected no entries, got %d", got)
	}
}

func TestAPIHandlers_ImportWeekly_ExtremeExponent(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	handlers := NewAPIHandlers(tracker, testLogger())

	body := "2025-W31,Trendyol,1,0,0\n2025-W31,Trendyol,1e-400000000,0,0\n"
	req := httptest.NewRequest(http.MethodPost, "/api/import/weekly", strings.NewReader(body))
	w := httptest.NewRecorder()
	handlers.HandleImportWeekly(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var response struct {
		Data services.ImportResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Data.Succeeded != 1 || response.Data.Failed != 1 {
		t.Errorf("expected {1,1}, got {%d,%d}", response.Data.Succeeded, response.Data.Failed)
	}
	if len(response.Data.Errors) != 1 || response.Data.Errors[0].Line != 2 {
		t.Errorf("expected line 2 to be reported, got %+v", response.Data.Errors)
	}
}

func TestAPIHandlers_DeleteDailyEntry(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	handlers := NewAPIHandlers(tracker, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/daily-entries",
		strings.NewReader(`{"date":"2025-09-01","channel":"Hepsiburada","revenue":10,"spend":1,"units":1}`))
	w := httptest.NewRecorder()
	handlers.HandleAddDailyEntry(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	id := tracker.DailyEntries()[0].ID

	req = httptest.NewRequest(http.MethodDelete, "/api/daily-entries/"+id, nil)
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	handlers.HandleDeleteDailyEntry(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/daily-entries/"+id, nil)
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	handlers.HandleDeleteDailyEntry(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestAPIHandlers_ImportWeekly(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	handlers := NewAPIHandlers(tracker, testLogger())

	body := "# week,channel,revenue,spend,units\n2025-W31,Trendyol,12000,600,50\n2025-W31,Trendyol,12000,600\n"
	req := httptest.NewRequest(http.MethodPost, "/api/import/weekly", strings.NewReader(body))
	w := httptest.NewRecorder()
	handlers.HandleImportWeekly(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var response struct {
		Data services.ImportResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Data.Succeeded != 1 || response.Data.Failed != 1 {
		t.Errorf("expected {1 succeeded, 1 failed}, got {%d, %d}", response.Data.Succeeded, response.Data.Failed)
	}
	if len(response.Data.Errors) != 1 || response.Data.Errors[0].Line != 3 {
		t.Errorf("expected line 3 to be reported, got %+v", response.Data.Errors)
	}
}

func TestAPIHandlers_ResetAndFlush(t *testing.T) {
	tracker := createTestTracker(t, memory.New())
	handlers := NewAPIHandlers(tracker, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/periods/reset?granularity=Monthly", nil)
	w := httptest.NewRecorder()
	handlers.HandleResetPeriods(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if n := len(tracker.Periods(models.Monthly)); n != 0 {
		t.Errorf("expected monthly periods to be cleared, got %d", n)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/pending/flush", nil)
	w = httptest.NewRecorder()
	handlers.HandleFlush(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	tracker := createTestTracker(t, downStore{memory.New()})
	handlers := NewAPIHandlers(tracker, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	response := decodeBody(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	if data["status"] != "degraded" {
		t.Errorf("expected degraded status while seed writes are pending, got %v", data["status"])
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestTracker(t, memory.New()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	response := decodeBody(t, w)
	data, _ := response["data"].(map[string]any)
	if data["monthly_periods"] != float64(4) {
		t.Errorf("expected 4 monthly periods, got %v", data["monthly_periods"])
	}
}
