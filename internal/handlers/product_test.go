package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

func TestCreateProduct(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000040", true)
	crop := seedCrop(t, db)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/products", map[string]any{
		"crop_id":         crop.ID,
		"variety":         "Ponni",
		"grade":           "A",
		"quantity":        50,
		"unit":            "quintal",
		"price_per_unit":  2400,
		"harvest_date":    time.Now().Format(time.RFC3339),
		"delivery_window": 10,
	})
	auth.SetUser(c, farmer)

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	data := dataField(t, rec)
	require.Equal(t, "Ponni", data["variety"])
	require.Equal(t, true, data["is_available"])
	require.NotNil(t, data["farmer"])
	require.NotNil(t, data["crop"])
}

func TestCreateProductBuyerForbidden(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	buyer := seedUser(t, db, "buyer", "9000000041", true)
	crop := seedCrop(t, db)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/products", map[string]any{
		"crop_id":         crop.ID,
		"variety":         "Ponni",
		"grade":           "A",
		"quantity":        50,
		"unit":            "quintal",
		"price_per_unit":  2400,
		"harvest_date":    time.Now().Format(time.RFC3339),
		"delivery_window": 10,
	})
	auth.SetUser(c, buyer)

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateProductUnknownCrop(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}
	farmer := seedUser(t, db, "farmer", "9000000042", true)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/products", map[string]any{
		"crop_id":         uuid.New(),
		"variety":         "Ponni",
		"grade":           "A",
		"quantity":        50,
		"unit":            "quintal",
		"price_per_unit":  2400,
		"harvest_date":    time.Now().Format(time.RFC3339),
		"delivery_window": 10,
	})
	auth.SetUser(c, farmer)

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Crop not found", decodeBody(t, rec)["error"])
}

func TestListProductsFilters(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000043", true)
	crop := seedCrop(t, db)
	cheap := seedProduct(t, db, farmer, crop, 100, 1000)
	seedProduct(t, db, farmer, crop, 100, 5000)

	hidden := seedProduct(t, db, farmer, crop, 100, 1500)
	require.NoError(t, db.Model(hidden).Update("is_available", false).Error)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/products?max_price=2000", nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	products, ok := data["products"].([]any)
	require.True(t, ok)
	require.Len(t, products, 1)
	require.Equal(t, cheap.ID.String(), products[0].(map[string]any)["id"])

	pagination, ok := data["pagination"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), pagination["total_items"])
	require.Equal(t, float64(1), pagination["current_page"])
}

func TestListProductsSortWhitelist(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/products?sort_by=quantity", nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsSortByPrice(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000044", true)
	crop := seedCrop(t, db)
	seedProduct(t, db, farmer, crop, 100, 3000)
	seedProduct(t, db, farmer, crop, 100, 1000)
	seedProduct(t, db, farmer, crop, 100, 2000)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/products?sort_by=price&sort_order=asc", nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	products := dataField(t, rec)["products"].([]any)
	require.Len(t, products, 3)
	require.Equal(t, float64(1000), products[0].(map[string]any)["price_per_unit"])
	require.Equal(t, float64(3000), products[2].(map[string]any)["price_per_unit"])
}

func TestUpdateProductOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000045", true)
	intruder := seedUser(t, db, "farmer", "9000000046", true)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2500)

	c, rec := newJSONContext(t, http.MethodPut, "/api/v1/products/"+product.ID.String(),
		map[string]any{"price_per_unit": 9999})
	c.SetParamNames("id")
	c.SetParamValues(product.ID.String())
	auth.SetUser(c, intruder)

	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	require.Equal(t, float64(2500), stored.PricePerUnit)
}

func TestDeleteProductWithOpenOrders(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000047", true)
	buyer := seedUser(t, db, "buyer", "9000000048", true)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2500)
	order := seedOrder(t, db, buyer, farmer, product, 20, models.OrderPending)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/v1/products/"+product.ID.String(), nil)
	c.SetParamNames("id")
	c.SetParamValues(product.ID.String())
	auth.SetUser(c, farmer)

	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	// delivered orders no longer block deletion
	require.NoError(t, db.Model(order).Update("status", models.OrderDelivered).Error)

	c2, rec2 := newJSONContext(t, http.MethodDelete, "/api/v1/products/"+product.ID.String(), nil)
	c2.SetParamNames("id")
	c2.SetParamValues(product.ID.String())
	auth.SetUser(c2, farmer)

	require.NoError(t, h.Delete(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetProductNotFound(t *testing.T) {
	db := newTestDB(t)
	h := ProductHandler{DB: db, Producer: &mykafka.Producer{}}

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
