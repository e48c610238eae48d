package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientInventory = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_INVENTORY", "Not enough available animals to satisfy the sale"}
	ErrCannotDelete          = &AppError{http.StatusConflict, "SOLD_STOCK_CONFLICT", "Linked animals have already been sold"}
	ErrContention            = &AppError{http.StatusConflict, "STORE_CONTENTION", "The inventory is busy, retry the operation"}
	ErrEmailExists           = &AppError{http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "Email already registered"}
)
