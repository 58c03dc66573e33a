package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidLoanRequest    = errors.New("invalid loan request")
	ErrInvalidLoanParameters = errors.New("invalid loan parameters")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInvalidLoanState      = errors.New("invalid loan state")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidLoanRequest    = "INVALID_LOAN_REQUEST"
	ErrCodeInvalidLoanParameters = "INVALID_LOAN_PARAMETERS"
	ErrCodeLoanNotFound          = "LOAN_NOT_FOUND"
	ErrCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	ErrCodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidLoanState      = "INVALID_LOAN_STATE"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// Wrap common errors with business context

func WrapInvalidLoanRequest(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanRequest,
		reason,
		ErrInvalidLoanRequest,
	)
}

func WrapInvalidLoanParameters(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanParameters,
		reason,
		ErrInvalidLoanParameters,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapAccountNotFound(ownerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountNotFound,
		fmt.Sprintf("No funding account found for owner %s", ownerID),
		ErrAccountNotFound,
	)
}

func WrapInsufficientBalance(required, available string) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientBalance,
		fmt.Sprintf("Required amount %s exceeds available balance %s", required, available),
		ErrInsufficientBalance,
	)
}

func WrapInvalidLoanState(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanState,
		reason,
		ErrInvalidLoanState,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapInternalError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInternalError,
		"internal error",
		err,
	)
}
