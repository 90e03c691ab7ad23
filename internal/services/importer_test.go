package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func TestParseWeeklyImport(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantSucceeded int
		wantFailed    int
	}{
		{"single valid line", "2025-W31,Trendyol,12000,600,50", 1, 0},
		{"four fields", "2025-W31,Trendyol,12000,600", 0, 1},
		{"six fields", "2025-W31,Trendyol,12000,600,50,1", 0, 1},
		{"unknown channel", "2025-W31,Amazon,1,1,1", 0, 1},
		{"lowercase channel", "2025-W31,trendyol,1,1,1", 0, 1},
		{"non numeric revenue", "2025-W31,Trendyol,abc,1,1", 0, 1},
		{"empty units", "2025-W31,Trendyol,1,1,", 0, 1},
		{"empty period id", ",Trendyol,1,1,1", 0, 1},
		{"blank and comment lines skipped", "\n# header\n   \n2025-W31,Hepsiburada,1,2,3\n", 1, 0},
		{"spaces and CRLF tolerated", "2025-W31 , Trendyol , 1.5 , 2 , 3\r\n", 1, 0},
		{"mixed batch", "2025-W31,Trendyol,1,1,1\nbad\n2025-W32,Hepsiburada,2,2,2", 2, 1},
		{"empty input", "", 0, 0},
		{"exponent far below scale", "2025-W31,Trendyol,1e-400000000,0,0", 0, 1},
		{"exponent far above range", "2025-W31,Trendyol,1e400000000,0,0", 0, 1},
		{"ten decimal places allowed", "2025-W31,Trendyol,0.0000000001,0,0", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, failed := ParseWeeklyImport(tt.text)
			assert.Len(t, rows, tt.wantSucceeded)
			assert.Len(t, failed, tt.wantFailed)
		})
	}
}

func TestParseWeeklyImport_RowContent(t *testing.T) {
	rows, failed := ParseWeeklyImport("# weekly\n2025-W31,Trendyol,12000.50,600,50\n2025-W31,Nope,1,1,1")

	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "2025-W31", rows[0].PeriodID)
	assert.Equal(t, models.ChannelTrendyol, rows[0].Channel)
	assert.True(t, rows[0].Datum.Revenue.Equal(dec("12000.5")))

	require.Len(t, failed, 1)
	assert.Equal(t, 3, failed[0].Line)
	assert.Equal(t, "2025-W31,Nope,1,1,1", failed[0].Text)
	assert.Contains(t, failed[0].Reason, "unknown channel")
}

func TestParseWeeklyImport_ExtremeExponentSkipsOnlyThatLine(t *testing.T) {
	rows, failed := ParseWeeklyImport("2025-W31,Trendyol,1,0,0\n2025-W31,Trendyol,1e-400000000,0,0\n")

	require.Len(t, rows, 1)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Line)
	assert.Contains(t, failed[0].Reason, "decimal places")
}
