package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	h := AuthHandler{DB: db, Tokens: newTestTokens(), Producer: &mykafka.Producer{}}

	payload := map[string]any{
		"phone_number": "9876543210",
		"user_type":    "farmer",
		"name":         "Murugan",
		"district":     "Thanjavur",
	}
	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/register", payload)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	data := dataField(t, rec)
	require.NotEmpty(t, data["token"])
	require.NotEmpty(t, data["refresh_token"])

	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Murugan", user["name"])
	require.Equal(t, "tamil", user["language"])
	require.Equal(t, false, user["is_verified"])
	require.Equal(t, true, user["is_active"])

	var stored models.User
	require.NoError(t, db.First(&stored, "phone_number = ?", "9876543210").Error)
	require.False(t, stored.IsVerified)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	db := newTestDB(t)
	h := AuthHandler{DB: db, Tokens: newTestTokens(), Producer: &mykafka.Producer{}}
	seedUser(t, db, "farmer", "9876543210", false)

	payload := map[string]any{
		"phone_number": "9876543210",
		"user_type":    "buyer",
		"name":         "Kumar",
		"district":     "Madurai",
	}
	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/register", payload)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "User already exists", decodeBody(t, rec)["error"])
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	h := AuthHandler{DB: db, Tokens: newTestTokens(), Producer: &mykafka.Producer{}}

	payload := map[string]any{
		"phone_number": "123", // too short
		"user_type":    "wholesaler",
		"name":         "X",
	}
	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/register", payload)

	require.Error(t, h.Register(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Validation failed", body["error"])
	require.NotEmpty(t, body["details"])
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	h := AuthHandler{DB: db, Tokens: newTestTokens(), Producer: &mykafka.Producer{}}
	seedUser(t, db, "farmer", "9876543210", true)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"phone_number": "9876543210",
		"user_type":    "farmer",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	require.NotEmpty(t, data["token"])
	require.NotEmpty(t, data["refresh_token"])
}

func TestLoginWrongUserType(t *testing.T) {
	db := newTestDB(t)
	h := AuthHandler{DB: db, Tokens: newTestTokens(), Producer: &mykafka.Producer{}}
	seedUser(t, db, "farmer", "9876543210", true)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"phone_number": "9876543210",
		"user_type":    "buyer",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	db := newTestDB(t)
	h := AuthHandler{DB: db, Tokens: newTestTokens(), Producer: &mykafka.Producer{}}

	user := seedUser(t, db, "buyer", "9123456780", true)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"phone_number": "9123456780",
		"user_type":    "buyer",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Account deactivated", decodeBody(t, rec)["error"])
}

func TestRefresh(t *testing.T) {
	db := newTestDB(t)
	tokens := newTestTokens()
	h := AuthHandler{DB: db, Tokens: tokens, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "retailer", "9000000001", true)

	refresh, err := tokens.IssueRefresh(user.ID)
	require.NoError(t, err)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": refresh,
	})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := dataField(t, rec)
	require.NotEmpty(t, data["token"])
	require.NotEmpty(t, data["refresh_token"])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db := newTestDB(t)
	tokens := newTestTokens()
	h := AuthHandler{DB: db, Tokens: tokens, Producer: &mykafka.Producer{}}
	user := seedUser(t, db, "retailer", "9000000002", true)

	access, err := tokens.IssueAccess(user.ID)
	require.NoError(t, err)

	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": access,
	})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
