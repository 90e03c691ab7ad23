package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

var statusTemplate = template.Must(template.New("status").Parse(`
<div id="store-status" class="{{if .Pending}}status-diverged{{else}}status-synced{{end}}">
{{if .Pending}}{{.Pending}} write(s) not yet persisted{{else}}All changes saved{{end}}
</div>`))

type SSEHandlers struct {
	tracker *services.Tracker
	logger  *slog.Logger
}

func NewSSEHandlers(tracker *services.Tracker, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		tracker: tracker,
		logger:  logger,
	}
}

func (h *SSEHandlers) renderStatus(pending int) (string, error) {
	var buf strings.Builder
	err := statusTemplate.Execute(&buf, struct{ Pending int }{pending})
	return buf.String(), err
}

// signalName maps a granularity to its datastar signal prefix, e.g. "monthly".
func signalName(g models.Granularity) string {
	return strings.ToLower(string(g))
}

func (h *SSEHandlers) granularitySignals(g models.Granularity) map[string]any {
	name := signalName(g)
	return map[string]any{
		name + "Metrics":  h.tracker.DerivedMetrics(g),
		name + "Timeline": h.tracker.Timeline(g),
	}
}

func (h *SSEHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	g := models.Monthly
	if raw := r.URL.Query().Get("granularity"); raw != "" {
		parsed, err := models.ParseGranularity(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g = parsed
	}

	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(h.granularitySignals(g))
	if err != nil {
		h.logger.Error("marshal metrics signals", "granularity", g, "error", err)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Warn("patch metrics signals", "granularity", g, "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	pending := h.tracker.Pending()
	html, err := h.renderStatus(pending.Count)
	if err != nil {
		h.logger.Error("render store status", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch store status", "error", err)
		return
	}

	signals := map[string]any{"pendingWrites": pending.Count}
	for _, g := range []models.Granularity{models.Monthly, models.Weekly} {
		for k, v := range h.granularitySignals(g) {
			signals[k] = v
		}
	}

	allSignals, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}
	if err := sse.PatchSignals(allSignals); err != nil {
		h.logger.Warn("patch all signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
