// Package insight answers price questions with an external ML service when it
// is reachable and a local historical fallback when it is not.
package insight

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNoData = errors.New("insufficient historical data")

// nowFunc is swapped out in tests.
var nowFunc = time.Now

type PredictionRequest struct {
	CropID         uuid.UUID `json:"crop_id"`
	District       string    `json:"district"`
	PredictionDate time.Time `json:"prediction_date"`
}

type Prediction struct {
	PredictedPrice  float64 `json:"predicted_price"`
	ConfidenceScore float64 `json:"confidence_score"`
	ModelVersion    string  `json:"model_version"`
}

type RecommendationRequest struct {
	District string `json:"district"`
	Season   string `json:"season"`
	UserType string `json:"user_type"`
}

type RecommendationResult struct {
	Recommendations any    `json:"recommendations"`
	Source          string `json:"source"`
}

type Provider interface {
	PredictPrice(ctx context.Context, req PredictionRequest) (*Prediction, error)
	Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error)
}

// Gateway tries the primary provider exactly once and substitutes the
// fallback on any failure. There is no retry loop.
type Gateway struct {
	Primary  Provider
	Fallback Provider

	// OnFallback is invoked when the primary fails, before the fallback
	// runs. Used for logging and metrics.
	OnFallback func(err error)
}

func (g *Gateway) PredictPrice(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	if g.Primary != nil {
		p, err := g.Primary.PredictPrice(ctx, req)
		if err == nil {
			return p, nil
		}
		if g.OnFallback != nil {
			g.OnFallback(err)
		}
	}
	return g.Fallback.PredictPrice(ctx, req)
}

func (g *Gateway) Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error) {
	if g.Primary != nil {
		r, err := g.Primary.Recommend(ctx, req)
		if err == nil {
			return r, nil
		}
		if g.OnFallback != nil {
			g.OnFallback(err)
		}
	}
	return g.Fallback.Recommend(ctx, req)
}

// CurrentSeason maps a calendar month onto the Tamil Nadu growing seasons the
// crop table uses.
func CurrentSeason(now time.Time) string {
	switch m := int(now.Month()); {
	case m >= 6 && m <= 9:
		return "monsoon"
	case m >= 10:
		return "winter"
	case m <= 3:
		return "summer"
	default:
		return "spring"
	}
}
