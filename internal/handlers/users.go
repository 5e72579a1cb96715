package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

type UserHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user := auth.CurrentUser(c)
	return respond(c, http.StatusOK, "Profile retrieved successfully", user)
}

type updateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	District    *string `json:"district" validate:"omitempty,min=2,max=100"`
	Taluk       *string `json:"taluk" validate:"omitempty,min=2,max=100"`
	Village     *string `json:"village" validate:"omitempty,min=2,max=100"`
	Address     *string `json:"address" validate:"omitempty,min=10,max=500"`
	BankAccount *string `json:"bank_account" validate:"omitempty,min=9,max=20"`
	IFSCCode    *string `json:"ifsc_code" validate:"omitempty,len=11"`
	Language    *string `json:"language" validate:"omitempty,oneof=tamil english"`
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.District != nil {
		updates["district"] = *req.District
	}
	if req.Taluk != nil {
		updates["taluk"] = *req.Taluk
	}
	if req.Village != nil {
		updates["village"] = *req.Village
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.BankAccount != nil {
		updates["bank_account"] = *req.BankAccount
	}
	if req.IFSCCode != nil {
		updates["ifsc_code"] = *req.IFSCCode
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}

	if len(updates) > 0 {
		if err := h.DB.Model(user).Updates(updates).Error; err != nil {
			return respondError(c, http.StatusInternalServerError, "Profile update failed",
				"an error occurred while updating profile")
		}
	}

	return respond(c, http.StatusOK, "Profile updated successfully", user)
}

type profileImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,max=500"`
}

func (h *UserHandler) UpdateProfileImage(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req profileImageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.DB.Model(user).Update("profile_image", req.ImageURL).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Profile image update failed",
			"an error occurred while updating profile image")
	}

	return respond(c, http.StatusOK, "Profile image updated successfully",
		map[string]any{"profile_image": req.ImageURL})
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

func (h *UserHandler) UpdateLocation(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req locationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.DB.Model(user).
		Updates(map[string]any{"latitude": req.Latitude, "longitude": req.Longitude}).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Location update failed",
			"an error occurred while updating location")
	}

	return respond(c, http.StatusOK, "Location updated successfully",
		map[string]any{"latitude": req.Latitude, "longitude": req.Longitude})
}

type nearbyUser struct {
	models.User
	Distance float64 `json:"distance"`
}

// Nearby runs a Haversine distance scan over located users, closest first.
func (h *UserHandler) Nearby(c echo.Context) error {
	user := auth.CurrentUser(c)

	if user.Latitude == nil || user.Longitude == nil {
		return respondError(c, http.StatusBadRequest, "Location required",
			"update your location before searching nearby users")
	}

	radius := 50.0
	if r := c.QueryParam("radius"); r != "" {
		if v, err := parseFloat(r); err == nil && v > 0 {
			radius = v
		}
	}
	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		limit = clampLimit(l)
	}
	userType := c.QueryParam("user_type")

	query := `
		SELECT *,
		(6371 * acos(cos(radians(?)) * cos(radians(latitude)) *
		cos(radians(longitude) - radians(?)) + sin(radians(?)) *
		sin(radians(latitude)))) AS distance
		FROM users
		WHERE latitude IS NOT NULL
		AND longitude IS NOT NULL
		AND id != ?
		AND is_active = true`
	args := []any{*user.Latitude, *user.Longitude, *user.Latitude, user.ID}
	if userType != "" {
		query += " AND user_type = ?"
		args = append(args, userType)
	}
	query += `
		AND (6371 * acos(cos(radians(?)) * cos(radians(latitude)) *
		cos(radians(longitude) - radians(?)) + sin(radians(?)) *
		sin(radians(latitude)))) <= ?
		ORDER BY distance
		LIMIT ?`
	args = append(args, *user.Latitude, *user.Longitude, *user.Latitude, radius, limit)

	var nearby []nearbyUser
	if err := h.DB.Raw(query, args...).Scan(&nearby).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Nearby users retrieval failed",
			"an error occurred while retrieving nearby users")
	}

	return respond(c, http.StatusOK, "Nearby users retrieved successfully", nearby)
}

func (h *UserHandler) Stats(c echo.Context) error {
	user := auth.CurrentUser(c)

	stats := map[string]any{}
	switch user.UserType {
	case "farmer":
		var totalProducts, activeProducts, totalOrders int64
		var totalEarnings float64
		h.DB.Model(&models.Product{}).Where("farmer_id = ?", user.ID).Count(&totalProducts)
		h.DB.Model(&models.Product{}).Where("farmer_id = ? AND is_available = ?", user.ID, true).Count(&activeProducts)
		h.DB.Model(&models.Order{}).Where("farmer_id = ?", user.ID).Count(&totalOrders)
		h.DB.Model(&models.Order{}).
			Where("farmer_id = ? AND payment_status = ?", user.ID, models.PaymentPaid).
			Select("COALESCE(SUM(total_amount), 0)").Scan(&totalEarnings)
		stats = map[string]any{
			"total_products":  totalProducts,
			"active_products": activeProducts,
			"total_orders":    totalOrders,
			"total_earnings":  totalEarnings,
		}
	case "buyer", "retailer":
		var totalOrders, pendingOrders int64
		var totalSpent float64
		h.DB.Model(&models.Order{}).Where("buyer_id = ?", user.ID).Count(&totalOrders)
		h.DB.Model(&models.Order{}).
			Where("buyer_id = ? AND payment_status = ?", user.ID, models.PaymentPaid).
			Select("COALESCE(SUM(total_amount), 0)").Scan(&totalSpent)
		h.DB.Model(&models.Order{}).
			Where("buyer_id = ? AND status = ?", user.ID, models.OrderPending).Count(&pendingOrders)
		stats = map[string]any{
			"total_orders":   totalOrders,
			"total_spent":    totalSpent,
			"pending_orders": pendingOrders,
		}
	}

	return respond(c, http.StatusOK, "User statistics retrieved successfully", stats)
}

// DeactivateAccount flips is_active off. Refused while the user still has
// orders in flight on either side of the marketplace.
func (h *UserHandler) DeactivateAccount(c echo.Context) error {
	user := auth.CurrentUser(c)

	side := "buyer_id"
	if user.UserType == "farmer" {
		side = "farmer_id"
	}

	var openOrders int64
	if err := h.DB.Model(&models.Order{}).
		Where(side+" = ? AND status IN ?", user.ID,
			[]models.OrderStatus{models.OrderPending, models.OrderConfirmed, models.OrderShipped}).
		Count(&openOrders).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Account deactivation failed",
			"an error occurred while deactivating the account")
	}
	if openOrders > 0 {
		return respondError(c, http.StatusBadRequest, "Cannot deactivate account",
			"you have open orders; complete or cancel them first")
	}

	if err := h.DB.Model(user).Update("is_active", false).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Account deactivation failed",
			"an error occurred while deactivating the account")
	}

	h.publishUserEvent(c, user.ID.String(), map[string]any{
		"type":    "user_deactivated",
		"user_id": user.ID,
	})

	return respond(c, http.StatusOK, "Account deactivated successfully", nil)
}

func (h *UserHandler) publishUserEvent(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
