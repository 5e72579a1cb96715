package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
	"github.com/uzhavansanthai/marketplace/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

type registerRequest struct {
	PhoneNumber  string `json:"phone_number" validate:"required,min=10,max=15"`
	UserType     string `json:"user_type" validate:"required,oneof=farmer buyer retailer"`
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"omitempty,email"`
	AadharNumber string `json:"aadhar_number" validate:"omitempty,len=12,numeric"`
	GSTNumber    string `json:"gst_number" validate:"omitempty,max=15"`
	District     string `json:"district" validate:"required,min=2,max=100"`
	Taluk        string `json:"taluk" validate:"omitempty,max=100"`
	Village      string `json:"village" validate:"omitempty,max=100"`
	Address      string `json:"address" validate:"omitempty,max=500"`
	BankAccount  string `json:"bank_account" validate:"omitempty,min=9,max=20"`
	IFSCCode     string `json:"ifsc_code" validate:"omitempty,len=11"`
	Language     string `json:"language" validate:"omitempty,oneof=tamil english"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var existing models.User
	err := h.DB.Where("phone_number = ?", req.PhoneNumber).First(&existing).Error
	if err == nil {
		return respondError(c, http.StatusConflict, "User already exists",
			"a user with this phone number already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, http.StatusInternalServerError, "Registration failed", "an error occurred during registration")
	}

	if req.AadharNumber != "" {
		err := h.DB.Where("aadhar_number = ?", req.AadharNumber).First(&existing).Error
		if err == nil {
			return respondError(c, http.StatusConflict, "Aadhar already registered",
				"this aadhar number is already registered")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusInternalServerError, "Registration failed", "an error occurred during registration")
		}
	}

	language := req.Language
	if language == "" {
		language = "tamil"
	}

	user := models.User{
		PhoneNumber:  req.PhoneNumber,
		UserType:     req.UserType,
		Name:         req.Name,
		Email:        req.Email,
		AadharNumber: req.AadharNumber,
		GSTNumber:    req.GSTNumber,
		District:     req.District,
		Taluk:        req.Taluk,
		Village:      req.Village,
		Address:      req.Address,
		BankAccount:  req.BankAccount,
		IFSCCode:     req.IFSCCode,
		Language:     language,
		IsVerified:   false,
		IsActive:     true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Registration failed", "an error occurred during registration")
	}

	access, refresh, err := h.issueTokens(user.ID)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Registration failed", "could not issue tokens")
	}

	h.publish(c, "user_events", user.ID.String(), map[string]any{
		"type":      "user_registered",
		"user_id":   user.ID,
		"user_type": user.UserType,
		"district":  user.District,
	})

	return respond(c, http.StatusCreated, "User registered successfully", map[string]any{
		"user":          user,
		"token":         access,
		"refresh_token": refresh,
	})
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=15"`
	UserType    string `json:"user_type" validate:"required,oneof=farmer buyer retailer admin"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Where("phone_number = ? AND user_type = ?", req.PhoneNumber, req.UserType).
		First(&user).Error; err != nil {
		return respondError(c, http.StatusUnauthorized, "Invalid credentials",
			"phone number or user type is incorrect")
	}
	if !user.IsActive {
		return respondError(c, http.StatusUnauthorized, "Account deactivated",
			"your account has been deactivated")
	}

	access, refresh, err := h.issueTokens(user.ID)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Login failed", "could not issue tokens")
	}

	h.publish(c, "user_events", user.ID.String(), map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID,
	})

	return respond(c, http.StatusOK, "Login successful", map[string]any{
		"user":          user,
		"token":         access,
		"refresh_token": refresh,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID, err := h.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "Token refresh failed",
			"invalid or expired refresh token")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil || !user.IsActive {
		return respondError(c, http.StatusUnauthorized, "Token refresh failed",
			"refresh token is invalid or user is inactive")
	}

	access, refresh, err := h.issueTokens(user.ID)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Token refresh failed", "could not issue tokens")
	}

	return respond(c, http.StatusOK, "Token refreshed successfully", map[string]any{
		"token":         access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	return respond(c, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) issueTokens(userID uuid.UUID) (string, string, error) {
	access, err := h.Tokens.IssueAccess(userID)
	if err != nil {
		return "", "", err
	}
	refresh, err := h.Tokens.IssueRefresh(userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (h *AuthHandler) publish(c echo.Context, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
