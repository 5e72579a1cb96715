package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/middleware/metrics"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer

	// StrictPayments applies the payment transition table instead of the
	// historic anything-goes behaviour.
	StrictPayments bool
}

type createOrderRequest struct {
	ProductID       uuid.UUID  `json:"product_id" validate:"required"`
	Quantity        float64    `json:"quantity" validate:"required,gt=0"`
	DeliveryAddress string     `json:"delivery_address" validate:"required,min=10"`
	DeliveryDate    *time.Time `json:"delivery_date"`
	Notes           string     `json:"notes" validate:"omitempty,max=500"`
}

// Create places an order against an available product. The unit price is
// snapshotted and the total computed once; neither changes afterwards.
func (h *OrderHandler) Create(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.Preload("Farmer").First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Product not found",
				"the requested product does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Order creation failed",
			"an error occurred while creating the order")
	}
	if !product.IsAvailable {
		return respondError(c, http.StatusBadRequest, "Product unavailable",
			"this product is currently unavailable")
	}
	if req.Quantity > product.Quantity {
		return respondError(c, http.StatusBadRequest, "Insufficient quantity",
			fmt.Sprintf("only %g %s available", product.Quantity, product.Unit))
	}

	order := models.Order{
		BuyerID:         user.ID,
		FarmerID:        product.FarmerID,
		ProductID:       product.ID,
		Quantity:        req.Quantity,
		UnitPrice:       product.PricePerUnit,
		TotalAmount:     req.Quantity * product.PricePerUnit,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		Notes:           req.Notes,
	}
	if err := h.DB.Create(&order).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Order creation failed",
			"an error occurred while creating the order")
	}

	if err := h.DB.Preload("Buyer").Preload("Farmer").Preload("Product").
		First(&order, "id = ?", order.ID).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Order creation failed",
			"an error occurred while creating the order")
	}

	metrics.RecordOrderCreated()
	h.publish(c, order.ID.String(), map[string]any{
		"type":         "order_created",
		"order_id":     order.ID,
		"buyer_id":     order.BuyerID,
		"farmer_id":    order.FarmerID,
		"product_id":   order.ProductID,
		"total_amount": order.TotalAmount,
	})

	return respond(c, http.StatusCreated, "Order created successfully", order)
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	user := auth.CurrentUser(c)
	page, offset, limit := pageParams(c)

	side := "buyer_id"
	counterparty := "Farmer"
	if user.UserType == "farmer" {
		side = "farmer_id"
		counterparty = "Buyer"
	}

	q := h.DB.Model(&models.Order{}).Where(side+" = ?", user.ID)
	if status := c.QueryParam("status"); status != "" {
		if !models.OrderStatus(status).Valid() {
			return respondError(c, http.StatusBadRequest, "Validation failed", "invalid status filter")
		}
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Orders retrieval failed",
			"an error occurred while retrieving orders")
	}

	var orders []models.Order
	if err := q.Preload(counterparty).Preload("Product").
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

func (h *OrderHandler) Get(c echo.Context) error {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid order id")
	}

	var order models.Order
	if err := h.DB.Preload("Buyer").Preload("Farmer").Preload("Product").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Order not found",
				"the requested order does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Order retrieval failed",
			"an error occurred while retrieving the order")
	}

	if order.BuyerID != user.ID && order.FarmerID != user.ID {
		return respondError(c, http.StatusForbidden, "Access denied",
			"you do not have permission to view this order")
	}

	return respond(c, http.StatusOK, "Order retrieved successfully", order)
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
	Notes  string             `json:"notes" validate:"omitempty,max=500"`
}

// UpdateStatus moves an order along the lifecycle graph. A transition to
// cancelled restores the product quantity in the same transaction as the
// status write, so stock and order state cannot drift apart.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid order id")
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !req.Status.Valid() {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid status")
	}

	var order models.Order
	if err := h.DB.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Order not found",
				"the requested order does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Order status update failed",
			"an error occurred while updating order status")
	}

	if order.BuyerID != user.ID && order.FarmerID != user.ID {
		return respondError(c, http.StatusForbidden, "Access denied",
			"you do not have permission to update this order")
	}

	if !order.Status.CanTransitionTo(req.Status) {
		return respondError(c, http.StatusBadRequest, "Invalid status transition",
			fmt.Sprintf("cannot change status from %s to %s", order.Status, req.Status))
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": req.Status}
		if req.Notes != "" {
			updates["notes"] = req.Notes
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if req.Status == models.OrderCancelled {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", order.ProductID).
				Update("quantity", gorm.Expr("quantity + ?", order.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return respondError(c, http.StatusInternalServerError, "Order status update failed",
			"an error occurred while updating order status")
	}

	h.publish(c, order.ID.String(), map[string]any{
		"type":     "order_status_changed",
		"order_id": order.ID,
		"status":   req.Status,
		"actor_id": user.ID,
	})

	return respond(c, http.StatusOK, "Order status updated successfully", order)
}

type updatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"required"`
}

func (h *OrderHandler) UpdatePayment(c echo.Context) error {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid order id")
	}

	var req updatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !req.PaymentStatus.Valid() {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid payment status")
	}

	var order models.Order
	if err := h.DB.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Order not found",
				"the requested order does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Payment status update failed",
			"an error occurred while updating payment status")
	}

	if order.BuyerID != user.ID && order.FarmerID != user.ID {
		return respondError(c, http.StatusForbidden, "Access denied",
			"you do not have permission to update payment status")
	}

	if h.StrictPayments && !order.PaymentStatus.CanTransitionTo(req.PaymentStatus) {
		return respondError(c, http.StatusBadRequest, "Invalid payment transition",
			fmt.Sprintf("cannot change payment status from %s to %s", order.PaymentStatus, req.PaymentStatus))
	}

	if err := h.DB.Model(&order).Update("payment_status", req.PaymentStatus).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Payment status update failed",
			"an error occurred while updating payment status")
	}

	h.publish(c, order.ID.String(), map[string]any{
		"type":           "order_payment_changed",
		"order_id":       order.ID,
		"payment_status": req.PaymentStatus,
		"actor_id":       user.ID,
	})

	return respond(c, http.StatusOK, "Payment status updated successfully", order)
}

func (h *OrderHandler) GetContract(c echo.Context) error {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid order id")
	}

	var order models.Order
	if err := h.DB.First(&order, "id = ?", id).Error; err != nil {
		return respondError(c, http.StatusNotFound, "Order not found",
			"the requested order does not exist")
	}
	if order.BuyerID != user.ID && order.FarmerID != user.ID {
		return respondError(c, http.StatusForbidden, "Access denied",
			"you do not have permission to view this order")
	}

	var contract models.Contract
	if err := h.DB.First(&contract, "order_id = ?", order.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Contract not found",
				"no contract exists for this order")
		}
		return respondError(c, http.StatusInternalServerError, "Contract retrieval failed",
			"an error occurred while retrieving the contract")
	}

	return respond(c, http.StatusOK, "Contract retrieved successfully", contract)
}

func (h *OrderHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
