package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

func TestUpdateProfileWhitelist(t *testing.T) {
	db := newTestDB(t)
	h := UserHandler{DB: db, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "farmer", "9000000080", true)

	c, rec := newJSONContext(t, http.MethodPut, "/api/v1/users/profile", map[string]any{
		"name":     "Updated Name",
		"district": "Madurai",
		// not an updatable field, must be ignored
		"is_verified": true,
	})
	auth.SetUser(c, user)

	require.NoError(t, h.UpdateProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.Equal(t, "Updated Name", stored.Name)
	require.Equal(t, "Madurai", stored.District)
	require.True(t, stored.IsVerified, "seeded verified flag must be untouched")

	unverified := seedUser(t, db, "buyer", "9000000081", false)
	c2, rec2 := newJSONContext(t, http.MethodPut, "/api/v1/users/profile", map[string]any{
		"is_verified": true,
	})
	auth.SetUser(c2, unverified)
	require.NoError(t, h.UpdateProfile(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	stored = models.User{}
	require.NoError(t, db.First(&stored, "id = ?", unverified.ID).Error)
	require.False(t, stored.IsVerified, "profile update must not self-verify")
}

func TestUpdateLocation(t *testing.T) {
	db := newTestDB(t)
	h := UserHandler{DB: db, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "farmer", "9000000082", true)

	c, rec := newJSONContext(t, http.MethodPut, "/api/v1/users/location", map[string]any{
		"latitude":  10.787,
		"longitude": 79.138,
	})
	auth.SetUser(c, user)

	require.NoError(t, h.UpdateLocation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.Latitude)
	require.InDelta(t, 10.787, *stored.Latitude, 0.0001)
}

func TestUpdateLocationOutOfRange(t *testing.T) {
	db := newTestDB(t)
	h := UserHandler{DB: db, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "farmer", "9000000083", true)

	c, rec := newJSONContext(t, http.MethodPut, "/api/v1/users/location", map[string]any{
		"latitude":  95.0,
		"longitude": 79.138,
	})
	auth.SetUser(c, user)

	require.Error(t, h.UpdateLocation(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFarmerStats(t *testing.T) {
	db := newTestDB(t)
	h := UserHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000084", true)
	buyer := seedUser(t, db, "buyer", "9000000085", true)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2500)

	paid := seedOrder(t, db, buyer, farmer, product, 10, models.OrderDelivered)
	require.NoError(t, db.Model(paid).Update("payment_status", models.PaymentPaid).Error)
	seedOrder(t, db, buyer, farmer, product, 5, models.OrderPending)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/users/stats", nil)
	auth.SetUser(c, farmer)

	require.NoError(t, h.Stats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	require.Equal(t, float64(1), data["total_products"])
	require.Equal(t, float64(2), data["total_orders"])
	require.Equal(t, float64(25000), data["total_earnings"])
}

func TestBuyerStats(t *testing.T) {
	db := newTestDB(t)
	h := UserHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000086", true)
	buyer := seedUser(t, db, "buyer", "9000000087", true)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2000)

	seedOrder(t, db, buyer, farmer, product, 10, models.OrderPending)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/users/stats", nil)
	auth.SetUser(c, buyer)

	require.NoError(t, h.Stats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	require.Equal(t, float64(1), data["total_orders"])
	require.Equal(t, float64(1), data["pending_orders"])
	require.Equal(t, float64(0), data["total_spent"])
}

func TestDeactivateAccountWithOpenOrders(t *testing.T) {
	db := newTestDB(t)
	h := UserHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000088", true)
	buyer := seedUser(t, db, "buyer", "9000000089", true)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2500)
	order := seedOrder(t, db, buyer, farmer, product, 10, models.OrderShipped)

	c, rec := newJSONContext(t, http.MethodDelete, "/api/v1/users/account", nil)
	auth.SetUser(c, buyer)
	require.NoError(t, h.DeactivateAccount(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", buyer.ID).Error)
	require.True(t, stored.IsActive)

	require.NoError(t, db.Model(order).Update("status", models.OrderDelivered).Error)

	c2, rec2 := newJSONContext(t, http.MethodDelete, "/api/v1/users/account", nil)
	auth.SetUser(c2, buyer)
	require.NoError(t, h.DeactivateAccount(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	require.NoError(t, db.First(&stored, "id = ?", buyer.ID).Error)
	require.False(t, stored.IsActive)
}
