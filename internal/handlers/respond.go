package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		CurrentPage: page,
		TotalPages:  (total + int64(limit) - 1) / int64(limit),
		TotalItems:  total,
		Limit:       limit,
	}
}

func respond(c echo.Context, code int, message string, data any) error {
	body := map[string]any{"message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(code, body)
}

func respondError(c echo.Context, code int, errMsg, message string) error {
	return c.JSON(code, map[string]any{
		"error":   errMsg,
		"message": message,
	})
}

// errValidation signals that the 400 response has already been written. The
// default error handler skips committed responses, so handlers can return it
// as-is.
var errValidation = errors.New("request validation failed")

// bindAndValidate decodes the request body and runs struct validation,
// answering 400 with a field-level details array on failure. A nil error
// means the request may proceed.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "malformed request body")
		return errValidation
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, FieldError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
				})
			}
			c.JSON(http.StatusBadRequest, map[string]any{
				"error":   "Validation failed",
				"message": "one or more fields are invalid",
				"details": details,
			})
			return errValidation
		}
		respondError(c, http.StatusBadRequest, "Validation failed", err.Error())
		return errValidation
	}
	return nil
}
