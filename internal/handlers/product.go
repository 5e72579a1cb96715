package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
	"github.com/uzhavansanthai/marketplace/internal/service/search"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

var productSortFields = map[string]string{
	"price":        "price_per_unit",
	"harvest_date": "harvest_date",
	"created_at":   "created_at",
}

func (h *ProductHandler) List(c echo.Context) error {
	page, offset, limit := pageParams(c)

	q := h.DB.Model(&models.Product{}).Where("is_available = ?", true)

	if district := c.QueryParam("district"); district != "" {
		q = q.Where("farmer_id IN (?)",
			h.DB.Model(&models.User{}).Select("id").Where("district = ?", district))
	}
	if cropType := c.QueryParam("crop_type"); cropType != "" {
		q = q.Where("crop_id IN (?)",
			h.DB.Model(&models.Crop{}).Select("id").Where("category = ?", cropType))
	}
	if grade := c.QueryParam("grade"); grade != "" {
		if grade != "A" && grade != "B" && grade != "C" {
			return respondError(c, http.StatusBadRequest, "Validation failed", "grade must be A, B, or C")
		}
		q = q.Where("grade = ?", grade)
	}
	if minPrice := c.QueryParam("min_price"); minPrice != "" {
		v, err := parseFloat(minPrice)
		if err != nil || v < 0 {
			return respondError(c, http.StatusBadRequest, "Validation failed", "min_price must be a positive number")
		}
		q = q.Where("price_per_unit >= ?", v)
	}
	if maxPrice := c.QueryParam("max_price"); maxPrice != "" {
		v, err := parseFloat(maxPrice)
		if err != nil || v < 0 {
			return respondError(c, http.StatusBadRequest, "Validation failed", "max_price must be a positive number")
		}
		q = q.Where("price_per_unit <= ?", v)
	}
	if s := c.QueryParam("search"); s != "" {
		like := "%" + s + "%"
		q = q.Where("variety LIKE ? OR description LIKE ?", like, like)
	}

	sortBy := c.QueryParam("sort_by")
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := productSortFields[sortBy]
	if !ok {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid sort field")
	}
	direction := "DESC"
	if c.QueryParam("sort_order") == "asc" {
		direction = "ASC"
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Products retrieval failed",
			"an error occurred while retrieving products")
	}

	var products []models.Product
	if err := q.Preload("Farmer").Preload("Crop").
		Order(column + " " + direction).
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Products retrieval failed",
			"an error occurred while retrieving products")
	}

	return respond(c, http.StatusOK, "Products retrieved successfully", map[string]any{
		"products":   products,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid product id")
	}

	var product models.Product
	if err := h.DB.Preload("Farmer").Preload("Crop").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Product not found",
				"the requested product does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Product retrieval failed",
			"an error occurred while retrieving the product")
	}

	return respond(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *ProductHandler) FarmerProducts(c echo.Context) error {
	farmerID, err := uuid.Parse(c.Param("farmerId"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid farmer id")
	}
	page, offset, limit := pageParams(c)

	q := h.DB.Model(&models.Product{}).
		Where("farmer_id = ? AND is_available = ?", farmerID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Products retrieval failed",
			"an error occurred while retrieving farmer products")
	}

	var products []models.Product
	if err := q.Preload("Crop").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Products retrieval failed",
			"an error occurred while retrieving farmer products")
	}

	return respond(c, http.StatusOK, "Farmer products retrieved successfully", map[string]any{
		"products":   products,
		"pagination": NewPagination(page, limit, total),
	})
}

type createProductRequest struct {
	CropID         uuid.UUID `json:"crop_id" validate:"required"`
	Variety        string    `json:"variety" validate:"required,min=1,max=100"`
	Grade          string    `json:"grade" validate:"required,oneof=A B C"`
	Quantity       float64   `json:"quantity" validate:"required,gt=0"`
	Unit           string    `json:"unit" validate:"required,oneof=quintal kilogram tonne"`
	PricePerUnit   float64   `json:"price_per_unit" validate:"required,gt=0"`
	HarvestDate    time.Time `json:"harvest_date" validate:"required"`
	DeliveryWindow int       `json:"delivery_window" validate:"required,min=1,max=365"`
	Description    string    `json:"description" validate:"omitempty,max=2000"`
	Images         string    `json:"images" validate:"omitempty,max=2000"`
	IsOrganic      bool      `json:"is_organic"`
	Certification  string    `json:"certification" validate:"omitempty,max=100"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	user := auth.CurrentUser(c)
	if user.UserType != "farmer" {
		return respondError(c, http.StatusForbidden, "Access denied", "only farmers can create products")
	}

	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var crop models.Crop
	if err := h.DB.First(&crop, "id = ?", req.CropID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "Crop not found", "the specified crop does not exist")
	}

	product := models.Product{
		FarmerID:       user.ID,
		CropID:         req.CropID,
		Variety:        req.Variety,
		Grade:          req.Grade,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		PricePerUnit:   req.PricePerUnit,
		HarvestDate:    req.HarvestDate,
		DeliveryWindow: req.DeliveryWindow,
		Description:    req.Description,
		Images:         req.Images,
		IsOrganic:      req.IsOrganic,
		Certification:  req.Certification,
		IsAvailable:    true,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Product creation failed",
			"an error occurred while creating the product")
	}

	if err := h.DB.Preload("Farmer").Preload("Crop").First(&product, "id = ?", product.ID).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Product creation failed",
			"an error occurred while creating the product")
	}

	h.indexProduct(c, &product)
	h.publish(c, product.ID.String(), map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"farmer_id":  product.FarmerID,
		"variety":    product.Variety,
	})

	return respond(c, http.StatusCreated, "Product created successfully", product)
}

type updateProductRequest struct {
	Variety        *string    `json:"variety" validate:"omitempty,min=1,max=100"`
	Grade          *string    `json:"grade" validate:"omitempty,oneof=A B C"`
	Quantity       *float64   `json:"quantity" validate:"omitempty,gt=0"`
	Unit           *string    `json:"unit" validate:"omitempty,oneof=quintal kilogram tonne"`
	PricePerUnit   *float64   `json:"price_per_unit" validate:"omitempty,gt=0"`
	HarvestDate    *time.Time `json:"harvest_date"`
	DeliveryWindow *int       `json:"delivery_window" validate:"omitempty,min=1,max=365"`
	Description    *string    `json:"description" validate:"omitempty,max=2000"`
	Images         *string    `json:"images" validate:"omitempty,max=2000"`
	IsOrganic      *bool      `json:"is_organic"`
	Certification  *string    `json:"certification" validate:"omitempty,max=100"`
	IsAvailable    *bool      `json:"is_available"`
}

func (h *ProductHandler) Update(c echo.Context) error {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Product not found",
				"the requested product does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Product update failed",
			"an error occurred while updating the product")
	}
	if product.FarmerID != user.ID {
		return respondError(c, http.StatusForbidden, "Access denied", "you can only update your own products")
	}

	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updates := map[string]any{}
	if req.Variety != nil {
		updates["variety"] = *req.Variety
	}
	if req.Grade != nil {
		updates["grade"] = *req.Grade
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.PricePerUnit != nil {
		updates["price_per_unit"] = *req.PricePerUnit
	}
	if req.HarvestDate != nil {
		updates["harvest_date"] = *req.HarvestDate
	}
	if req.DeliveryWindow != nil {
		updates["delivery_window"] = *req.DeliveryWindow
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Images != nil {
		updates["images"] = *req.Images
	}
	if req.IsOrganic != nil {
		updates["is_organic"] = *req.IsOrganic
	}
	if req.Certification != nil {
		updates["certification"] = *req.Certification
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&product).Updates(updates).Error; err != nil {
			return respondError(c, http.StatusInternalServerError, "Product update failed",
				"an error occurred while updating the product")
		}
	}

	if err := h.DB.Preload("Farmer").Preload("Crop").First(&product, "id = ?", product.ID).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Product update failed",
			"an error occurred while updating the product")
	}

	h.indexProduct(c, &product)
	h.publish(c, product.ID.String(), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"farmer_id":  product.FarmerID,
	})

	return respond(c, http.StatusOK, "Product updated successfully", product)
}

// Delete refuses while any order against the product is still pending or
// confirmed.
func (h *ProductHandler) Delete(c echo.Context) error {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Product not found",
				"the requested product does not exist")
		}
		return respondError(c, http.StatusInternalServerError, "Product deletion failed",
			"an error occurred while deleting the product")
	}
	if product.FarmerID != user.ID {
		return respondError(c, http.StatusForbidden, "Access denied", "you can only delete your own products")
	}

	var openOrders int64
	if err := h.DB.Model(&models.Order{}).
		Where("product_id = ? AND status IN ?", product.ID,
			[]models.OrderStatus{models.OrderPending, models.OrderConfirmed}).
		Count(&openOrders).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Product deletion failed",
			"an error occurred while deleting the product")
	}
	if openOrders > 0 {
		return respondError(c, http.StatusConflict, "Cannot delete product",
			"product has open orders and cannot be deleted")
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Product deletion failed",
			"an error occurred while deleting the product")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.Index, product.ID.String()); err != nil {
			c.Logger().Errorf("es delete error: %v", err)
		}
	}
	h.publish(c, product.ID.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": product.ID,
		"farmer_id":  product.FarmerID,
	})

	return respond(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) indexProduct(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("es index error: %v", err)
	}
}

func (h *ProductHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
