package services

import (
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

func datum(revenue, spend, units int64) models.ChannelDatum {
	return models.ChannelDatum{
		Revenue: decimal.NewFromInt(revenue),
		Spend:   decimal.NewFromInt(spend),
		Units:   decimal.NewFromInt(units),
	}
}

// HistoricalSeed returns the monthly totals recorded before daily entry
// tracking started. Installed only into an empty store.
func HistoricalSeed() []models.Period {
	month := func(id, label string, trendyol, hepsiburada models.ChannelDatum) models.Period {
		return models.Period{
			ID:          id,
			Label:       label,
			Granularity: models.Monthly,
			Data: map[models.Channel]models.ChannelDatum{
				models.ChannelTrendyol:    trendyol,
				models.ChannelHepsiburada: hepsiburada,
			},
		}
	}

	return []models.Period{
		month("2025-06", "2025-06", datum(31755, 2000, 121), datum(21510, 1000, 66)),
		month("2025-07", "2025-07", datum(35718, 2200, 115), datum(24583, 1100, 68)),
		month("2025-08", "2025-08", datum(50162, 4386, 199), datum(27457, 1186, 93)),
		month("2025-09", "2025-09 (to date)", datum(26482, 2788, 73), datum(13660, 345, 43)),
	}
}
