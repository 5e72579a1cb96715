package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/config"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/service/token"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, config.Migrate(db), "failed to migrate tables")
	return db
}

func newTestTokens() *token.Service {
	return &token.Service{
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}
}

func newJSONContext(t *testing.T, method, path string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	require.True(t, ok, "expected 'data' object in response")
	return data
}

func seedUser(t *testing.T, db *gorm.DB, userType, phone string, verified bool) *models.User {
	t.Helper()

	user := models.User{
		PhoneNumber: phone,
		UserType:    userType,
		Name:        "Test " + userType,
		District:    "Thanjavur",
		IsVerified:  verified,
		IsActive:    true,
		Language:    "tamil",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCrop(t *testing.T, db *gorm.DB) *models.Crop {
	t.Helper()

	crop := models.Crop{
		CropName:         "Paddy",
		CropNameTamil:    "நெல்",
		Category:         "grains",
		HarvestSeason:    "monsoon",
		TypicalDistricts: "Thanjavur,Thiruvarur",
		IsActive:         true,
	}
	require.NoError(t, db.Create(&crop).Error)
	return &crop
}

func seedProduct(t *testing.T, db *gorm.DB, farmer *models.User, crop *models.Crop, quantity, price float64) *models.Product {
	t.Helper()

	product := models.Product{
		FarmerID:       farmer.ID,
		CropID:         crop.ID,
		Variety:        "Ponni",
		Grade:          "A",
		Quantity:       quantity,
		Unit:           "quintal",
		PricePerUnit:   price,
		HarvestDate:    time.Now().AddDate(0, 0, -7),
		DeliveryWindow: 14,
		IsAvailable:    true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func seedOrder(t *testing.T, db *gorm.DB, buyer, farmer *models.User, product *models.Product, quantity float64, status models.OrderStatus) *models.Order {
	t.Helper()

	order := models.Order{
		BuyerID:         buyer.ID,
		FarmerID:        farmer.ID,
		ProductID:       product.ID,
		Quantity:        quantity,
		UnitPrice:       product.PricePerUnit,
		TotalAmount:     quantity * product.PricePerUnit,
		Status:          status,
		PaymentStatus:   models.PaymentPending,
		DeliveryAddress: "12 Main Street, Thanjavur",
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}
