package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

type AdminHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	var (
		totalUsers           int64
		totalFarmers         int64
		totalBuyers          int64
		totalProducts        int64
		totalOrders          int64
		pendingVerifications int64
		revenue              float64
	)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&totalUsers, h.DB.Model(&models.User{})},
		{&totalFarmers, h.DB.Model(&models.User{}).Where("user_type = ?", "farmer")},
		{&totalBuyers, h.DB.Model(&models.User{}).Where("user_type IN ?", []string{"buyer", "retailer"})},
		{&totalProducts, h.DB.Model(&models.Product{}).Where("is_available = ?", true)},
		{&totalOrders, h.DB.Model(&models.Order{})},
		{&pendingVerifications, h.DB.Model(&models.User{}).Where("is_verified = ? AND is_active = ?", false, true)},
	}
	for _, cnt := range counts {
		if err := cnt.query.Count(cnt.dest).Error; err != nil {
			return respondError(c, http.StatusInternalServerError, "Dashboard retrieval failed",
				"an error occurred while building the dashboard")
		}
	}

	if err := h.DB.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentPaid).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Dashboard retrieval failed",
			"an error occurred while building the dashboard")
	}

	var recentOrders []models.Order
	if err := h.DB.Preload("Buyer").Preload("Farmer").Preload("Product").
		Order("created_at DESC").Limit(10).Find(&recentOrders).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Dashboard retrieval failed",
			"an error occurred while building the dashboard")
	}

	return respond(c, http.StatusOK, "Dashboard retrieved successfully", map[string]any{
		"total_users":           totalUsers,
		"total_farmers":         totalFarmers,
		"total_buyers":          totalBuyers,
		"total_products":        totalProducts,
		"total_orders":          totalOrders,
		"pending_verifications": pendingVerifications,
		"total_revenue":         revenue,
		"recent_orders":         recentOrders,
	})
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	query := h.DB.Model(&models.User{})

	if userType := c.QueryParam("user_type"); userType != "" {
		query = query.Where("user_type = ?", userType)
	}
	if district := c.QueryParam("district"); district != "" {
		query = query.Where("district = ?", district)
	}
	switch c.QueryParam("verified") {
	case "true":
		query = query.Where("is_verified = ?", true)
	case "false":
		query = query.Where("is_verified = ?", false)
	}
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR phone_number LIKE ?", like, like)
	}

	page, offset, limit := pageParams(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Users retrieval failed",
			"an error occurred while retrieving users")
	}

	var users []models.User
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&users).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Users retrieval failed",
			"an error occurred while retrieving users")
	}

	return respond(c, http.StatusOK, "Users retrieved successfully", map[string]any{
		"users":      users,
		"pagination": NewPagination(page, limit, total),
	})
}

type updateUserStatusRequest struct {
	IsVerified *bool `json:"is_verified"`
	IsActive   *bool `json:"is_active"`
}

func (h *AdminHandler) UpdateUserStatus(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid user id")
	}

	var req updateUserStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.IsVerified == nil && req.IsActive == nil {
		return respondError(c, http.StatusBadRequest, "Validation failed",
			"nothing to update")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "User not found",
			"the specified user does not exist")
	}

	updates := map[string]any{}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "User update failed",
			"an error occurred while updating the user")
	}

	if req.IsVerified != nil && *req.IsVerified {
		h.publish(c, user.ID.String(), map[string]any{
			"type":      "user_verified",
			"user_id":   user.ID,
			"user_type": user.UserType,
		})
	}

	return respond(c, http.StatusOK, "User status updated successfully", user)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	query := h.DB.Model(&models.Order{})

	if status := c.QueryParam("status"); status != "" {
		if !models.OrderStatus(status).Valid() {
			return respondError(c, http.StatusBadRequest, "Validation failed",
				"invalid order status")
		}
		query = query.Where("status = ?", status)
	}
	if paymentStatus := c.QueryParam("payment_status"); paymentStatus != "" {
		if !models.PaymentStatus(paymentStatus).Valid() {
			return respondError(c, http.StatusBadRequest, "Validation failed",
				"invalid payment status")
		}
		query = query.Where("payment_status = ?", paymentStatus)
	}

	page, offset, limit := pageParams(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Orders retrieval failed",
			"an error occurred while retrieving orders")
	}

	var orders []models.Order
	if err := query.Preload("Buyer").Preload("Farmer").Preload("Product").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Orders retrieval failed",
			"an error occurred while retrieving orders")
	}

	return respond(c, http.StatusOK, "Orders retrieved successfully", map[string]any{
		"orders":     orders,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	query := h.DB.Model(&models.Product{})

	switch c.QueryParam("available") {
	case "true":
		query = query.Where("is_available = ?", true)
	case "false":
		query = query.Where("is_available = ?", false)
	}
	if farmerID := c.QueryParam("farmer_id"); farmerID != "" {
		id, err := uuid.Parse(farmerID)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "Validation failed", "invalid farmer id")
		}
		query = query.Where("farmer_id = ?", id)
	}

	page, offset, limit := pageParams(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Products retrieval failed",
			"an error occurred while retrieving products")
	}

	var products []models.Product
	if err := query.Preload("Farmer").Preload("Crop").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Products retrieval failed",
			"an error occurred while retrieving products")
	}

	return respond(c, http.StatusOK, "Products retrieved successfully", map[string]any{
		"products":   products,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
