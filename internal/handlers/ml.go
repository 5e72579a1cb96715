package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/cache"
	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/service/insight"
)

const recommendationTTL = 10 * time.Minute

type MLHandler struct {
	DB      *gorm.DB
	Gateway *insight.Gateway
	Cache   *redis.Client
}

type predictPriceRequest struct {
	CropID         uuid.UUID  `json:"crop_id" validate:"required"`
	District       string     `json:"district" validate:"required"`
	PredictionDate *time.Time `json:"prediction_date"`
}

func (h *MLHandler) PredictPrice(c echo.Context) error {
	var req predictPriceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var crop models.Crop
	if err := h.DB.First(&crop, "id = ?", req.CropID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "Crop not found",
			"the specified crop does not exist")
	}

	predictionDate := time.Now().AddDate(0, 0, 7)
	if req.PredictionDate != nil {
		predictionDate = *req.PredictionDate
	}

	prediction, err := h.Gateway.PredictPrice(c.Request().Context(), insight.PredictionRequest{
		CropID:         req.CropID,
		District:       req.District,
		PredictionDate: predictionDate,
	})
	if err != nil {
		if errors.Is(err, insight.ErrNoData) {
			return respondError(c, http.StatusNotFound, "No price data available",
				"no historical prices exist for this crop and district")
		}
		return respondError(c, http.StatusInternalServerError, "Prediction failed",
			"an error occurred while predicting the price")
	}

	record := models.PricePrediction{
		CropID:          req.CropID,
		District:        req.District,
		PredictedPrice:  prediction.PredictedPrice,
		ConfidenceScore: prediction.ConfidenceScore,
		PredictionDate:  predictionDate,
		ModelVersion:    prediction.ModelVersion,
	}
	if err := h.DB.Create(&record).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Prediction failed",
			"an error occurred while saving the prediction")
	}

	return respond(c, http.StatusOK, "Price predicted successfully", record)
}

func (h *MLHandler) Recommendations(c echo.Context) error {
	user := auth.CurrentUser(c)

	district := c.QueryParam("district")
	if district == "" {
		district = user.District
	}
	season := c.QueryParam("season")
	if season == "" {
		season = insight.CurrentSeason(time.Now())
	}

	cacheKey := fmt.Sprintf("recommendations:%s:%s", district, season)
	if h.Cache != nil {
		var cached insight.RecommendationResult
		if err := cache.GetJSON(c.Request().Context(), h.Cache, cacheKey, &cached); err == nil {
			return respond(c, http.StatusOK, "Recommendations retrieved successfully", map[string]any{
				"district":        district,
				"season":          season,
				"recommendations": cached.Recommendations,
				"source":          cached.Source,
				"cached":          true,
			})
		}
	}

	result, err := h.Gateway.Recommend(c.Request().Context(), insight.RecommendationRequest{
		District: district,
		Season:   season,
		UserType: user.UserType,
	})
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Recommendation failed",
			"an error occurred while generating recommendations")
	}

	if h.Cache != nil {
		if err := cache.SetJSON(c.Request().Context(), h.Cache, cacheKey, result, recommendationTTL); err != nil {
			c.Logger().Errorf("redis cache error: %v", err)
		}
	}

	return respond(c, http.StatusOK, "Recommendations retrieved successfully", map[string]any{
		"district":        district,
		"season":          season,
		"recommendations": result.Recommendations,
		"source":          result.Source,
		"cached":          false,
	})
}

func (h *MLHandler) Predictions(c echo.Context) error {
	cropID, err := uuid.Parse(c.Param("cropId"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid crop id")
	}

	var crop models.Crop
	if err := h.DB.First(&crop, "id = ?", cropID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "Crop not found",
			"the specified crop does not exist")
	}

	query := h.DB.Where("crop_id = ?", cropID)
	if district := c.QueryParam("district"); district != "" {
		query = query.Where("district = ?", district)
	}

	page, offset, limit := pageParams(c)

	var total int64
	if err := query.Model(&models.PricePrediction{}).Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Predictions retrieval failed",
			"an error occurred while retrieving predictions")
	}

	var predictions []models.PricePrediction
	if err := query.Order("prediction_date DESC").Offset(offset).Limit(limit).
		Find(&predictions).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Predictions retrieval failed",
			"an error occurred while retrieving predictions")
	}

	return respond(c, http.StatusOK, "Predictions retrieved successfully", map[string]any{
		"crop":        crop,
		"predictions": predictions,
		"pagination":  NewPagination(page, limit, total),
	})
}

func (h *MLHandler) PriceHistory(c echo.Context) error {
	cropID, err := uuid.Parse(c.Param("cropId"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid crop id")
	}

	var crop models.Crop
	if err := h.DB.First(&crop, "id = ?", cropID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "Crop not found",
			"the specified crop does not exist")
	}

	days := historyDays(c.QueryParam("days"))
	since := time.Now().AddDate(0, 0, -days)

	query := h.DB.Where("crop_id = ? AND date >= ?", cropID, since)
	if district := c.QueryParam("district"); district != "" {
		query = query.Where("district = ?", district)
	}

	var history []models.PriceHistory
	if err := query.Order("date ASC").Find(&history).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Price history retrieval failed",
			"an error occurred while retrieving price history")
	}

	return respond(c, http.StatusOK, "Price history retrieved successfully", map[string]any{
		"crop":    crop,
		"days":    days,
		"history": history,
		"stats":   insight.ComputeStats(history),
	})
}

func (h *MLHandler) Analytics(c echo.Context) error {
	cropID, err := uuid.Parse(c.QueryParam("crop_id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "crop_id is required")
	}

	days := historyDays(c.QueryParam("days"))
	since := time.Now().AddDate(0, 0, -days)

	query := h.DB.Where("crop_id = ? AND date >= ?", cropID, since)
	if district := c.QueryParam("district"); district != "" {
		query = query.Where("district = ?", district)
	}

	var history []models.PriceHistory
	if err := query.Order("date ASC").Find(&history).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Analytics retrieval failed",
			"an error occurred while computing analytics")
	}
	if len(history) == 0 {
		return respondError(c, http.StatusNotFound, "No price data available",
			"no historical prices exist for this crop in the selected window")
	}

	return respond(c, http.StatusOK, "Analytics retrieved successfully", map[string]any{
		"crop_id":     cropID,
		"days":        days,
		"data_points": len(history),
		"stats":       insight.ComputeStats(history),
	})
}

func historyDays(raw string) int {
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > 365 {
		return 30
	}
	return days
}
