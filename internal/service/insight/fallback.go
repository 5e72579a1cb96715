package insight

import (
	"context"

	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/models"
)

const (
	fallbackHistoryWindow = 30
	fallbackConfidence    = 0.5
	fallbackModelVersion  = "fallback"
	fallbackCropLimit     = 10
)

// Fallback serves insight requests from local data when the ML service is
// unreachable.
type Fallback struct {
	DB *gorm.DB
}

// PredictPrice averages the most recent history rows for the crop/district
// pair and reports the result with a low fixed confidence.
func (f *Fallback) PredictPrice(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	var history []models.PriceHistory
	if err := f.DB.WithContext(ctx).
		Where("crop_id = ? AND district = ?", req.CropID, req.District).
		Order("date DESC").
		Limit(fallbackHistoryWindow).
		Find(&history).Error; err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNoData
	}

	var sum float64
	for _, rec := range history {
		sum += rec.PricePerKg
	}

	return &Prediction{
		PredictedPrice:  sum / float64(len(history)),
		ConfidenceScore: fallbackConfidence,
		ModelVersion:    fallbackModelVersion,
	}, nil
}

func (f *Fallback) Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error) {
	season := req.Season
	if season == "" {
		season = CurrentSeason(nowFunc())
	}

	var crops []models.Crop
	if err := f.DB.WithContext(ctx).
		Where("typical_districts LIKE ? AND harvest_season = ? AND is_active = ?",
			"%"+req.District+"%", season, true).
		Limit(fallbackCropLimit).
		Find(&crops).Error; err != nil {
		return nil, err
	}

	return &RecommendationResult{
		Recommendations: crops,
		Source:          "database_fallback",
	}, nil
}
