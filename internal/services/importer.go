package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const importFields = 5

// ImportRow is one validated line of a weekly bulk import.
type ImportRow struct {
	Line     int
	PeriodID string
	Channel  models.Channel
	Datum    models.ChannelDatum
}

// LineError explains why an import line was skipped.
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []LineError `json:"errors,omitempty"`
	Write     WriteResult `json:"write"`
}

// ParseWeeklyImport reads "periodId,channel,revenue,spend,units" lines.
// Blank and '#' lines are ignored; every other bad line is reported and
// skipped without affecting the rest of the batch.
func ParseWeeklyImport(text string) ([]ImportRow, []LineError) {
	var (
		rows   []ImportRow
		failed []LineError
	)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		row, err := parseImportLine(line)
		if err != nil {
			failed = append(failed, LineError{Line: i + 1, Text: line, Reason: err.Error()})
			continue
		}
		row.Line = i + 1
		rows = append(rows, row)
	}

	return rows, failed
}

func parseImportLine(line string) (ImportRow, error) {
	parts := strings.Split(line, ",")
	if len(parts) != importFields {
		return ImportRow{}, fmt.Errorf("expected %d fields, got %d", importFields, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	periodID := parts[0]
	if periodID == "" {
		return ImportRow{}, fmt.Errorf("period id is empty")
	}

	ch, err := models.ParseChannel(parts[1])
	if err != nil {
		return ImportRow{}, err
	}

	revenue, err := parseAmount("revenue", parts[2])
	if err != nil {
		return ImportRow{}, err
	}
	spend, err := parseAmount("spend", parts[3])
	if err != nil {
		return ImportRow{}, err
	}
	units, err := parseAmount("units", parts[4])
	if err != nil {
		return ImportRow{}, err
	}

	return ImportRow{
		PeriodID: periodID,
		Channel:  ch,
		Datum:    models.ChannelDatum{Revenue: revenue, Spend: spend, Units: units},
	}, nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q", field, s)
	}
	if err := models.CheckAmount(d); err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}
