package insight

import (
	"math"

	"github.com/uzhavansanthai/marketplace/internal/models"
)

type PriceStats struct {
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	PriceChange  float64 `json:"price_change"`
	Trend        string  `json:"trend"`
}

// ComputeStats summarizes a date-ascending price series. A move of more than
// five percent either way counts as a trend.
func ComputeStats(history []models.PriceHistory) PriceStats {
	if len(history) == 0 {
		return PriceStats{Trend: "stable"}
	}

	first := history[0].PricePerKg
	last := history[len(history)-1].PricePerKg
	min, max, sum := first, first, 0.0
	for _, rec := range history {
		sum += rec.PricePerKg
		if rec.PricePerKg < min {
			min = rec.PricePerKg
		}
		if rec.PricePerKg > max {
			max = rec.PricePerKg
		}
	}

	var change float64
	if first != 0 {
		change = (last - first) / first * 100
	}

	trend := "stable"
	if change > 5 {
		trend = "increasing"
	} else if change < -5 {
		trend = "decreasing"
	}

	return PriceStats{
		AveragePrice: round2(sum / float64(len(history))),
		MinPrice:     round2(min),
		MaxPrice:     round2(max),
		PriceChange:  round2(change),
		Trend:        trend,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
