package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidTerm         = &AppError{http.StatusBadRequest, "INVALID_TERM", "Term must be at least one period"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrOverpaymentRejected = &AppError{http.StatusUnprocessableEntity, "OVERPAYMENT_REJECTED", "Payment exceeds outstanding balance beyond tolerance"}
	ErrPeriodClosed        = &AppError{http.StatusUnprocessableEntity, "PERIOD_CLOSED", "Period is closed for posting"}
	ErrPeriodAlreadyClosed = &AppError{http.StatusConflict, "PERIOD_ALREADY_CLOSED", "Period has already been closed"}
	ErrAlreadyReversed     = &AppError{http.StatusConflict, "ALREADY_REVERSED", "Repayment has already been reversed"}
	ErrConcurrencyConflict = &AppError{http.StatusConflict, "CONCURRENCY_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrLoanNotPending      = &AppError{http.StatusUnprocessableEntity, "LOAN_NOT_PENDING", "Loan is not pending approval"}
	ErrLoanNotActive       = &AppError{http.StatusUnprocessableEntity, "LOAN_NOT_ACTIVE", "Loan is not active"}
	ErrInvalidTransition   = &AppError{http.StatusUnprocessableEntity, "INVALID_TRANSITION", "Invalid loan status transition"}
	ErrSystemAccount       = &AppError{http.StatusUnprocessableEntity, "SYSTEM_ACCOUNT", "System accounts cannot be deleted"}
)
