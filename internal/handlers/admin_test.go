package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

func TestAdminDashboard(t *testing.T) {
	db := newTestDB(t)
	h := AdminHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000090", true)
	buyer := seedUser(t, db, "buyer", "9000000091", false)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2500)

	paid := seedOrder(t, db, buyer, farmer, product, 10, models.OrderDelivered)
	require.NoError(t, db.Model(paid).Update("payment_status", models.PaymentPaid).Error)
	seedOrder(t, db, buyer, farmer, product, 5, models.OrderPending)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/admin/dashboard", nil)
	require.NoError(t, h.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	require.Equal(t, float64(2), data["total_users"])
	require.Equal(t, float64(1), data["total_farmers"])
	require.Equal(t, float64(1), data["total_buyers"])
	require.Equal(t, float64(1), data["total_products"])
	require.Equal(t, float64(2), data["total_orders"])
	require.Equal(t, float64(1), data["pending_verifications"])
	require.Equal(t, float64(25000), data["total_revenue"])
	require.Len(t, data["recent_orders"], 2)
}

func TestAdminListUsersFilters(t *testing.T) {
	db := newTestDB(t)
	h := AdminHandler{DB: db, Producer: &mykafka.Producer{}}

	seedUser(t, db, "farmer", "9000000092", true)
	seedUser(t, db, "farmer", "9000000093", false)
	seedUser(t, db, "buyer", "9000000094", false)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/admin/users?user_type=farmer&verified=false", nil)
	require.NoError(t, h.ListUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	require.Len(t, data["users"], 1)
	require.Equal(t, float64(1), data["pagination"].(map[string]any)["total_items"])
}

func TestAdminVerifyUser(t *testing.T) {
	db := newTestDB(t)
	h := AdminHandler{DB: db, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "farmer", "9000000095", false)

	c, rec := newJSONContext(t, http.MethodPatch, "/api/v1/admin/users/"+user.ID.String()+"/status",
		map[string]any{"is_verified": true})
	c.SetParamNames("id")
	c.SetParamValues(user.ID.String())

	require.NoError(t, h.UpdateUserStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.True(t, stored.IsVerified)
}

func TestAdminUpdateUserStatusEmptyBody(t *testing.T) {
	db := newTestDB(t)
	h := AdminHandler{DB: db, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "farmer", "9000000096", false)

	c, rec := newJSONContext(t, http.MethodPatch, "/api/v1/admin/users/"+user.ID.String()+"/status",
		map[string]any{})
	c.SetParamNames("id")
	c.SetParamValues(user.ID.String())

	require.NoError(t, h.UpdateUserStatus(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminListOrdersStatusFilter(t *testing.T) {
	db := newTestDB(t)
	h := AdminHandler{DB: db, Producer: &mykafka.Producer{}}

	farmer := seedUser(t, db, "farmer", "9000000097", true)
	buyer := seedUser(t, db, "buyer", "9000000098", true)
	crop := seedCrop(t, db)
	product := seedProduct(t, db, farmer, crop, 100, 2500)
	seedOrder(t, db, buyer, farmer, product, 10, models.OrderPending)
	seedOrder(t, db, buyer, farmer, product, 5, models.OrderDelivered)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/admin/orders?status=pending", nil)
	require.NoError(t, h.ListOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dataField(t, rec)["orders"], 1)

	c2, rec2 := newJSONContext(t, http.MethodGet, "/api/v1/admin/orders?status=bogus", nil)
	require.NoError(t, h.ListOrders(c2))
	require.Equal(t, http.StatusBadRequest, rec2.Code)
}
