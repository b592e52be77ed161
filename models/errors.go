package models

import "strings"

// OrderError represents a business-rule failure on an order or staff operation
type OrderError struct {
	Code    string
	Message string
}

func (e *OrderError) Error() string {
	return e.Message
}

var (
	// ErrNotFound is returned when the referenced order number does not exist
	ErrNotFound = &OrderError{Code: "ORDER_NOT_FOUND", Message: "維修單不存在"}

	// ErrAlreadySigned is returned when signing or editing an order that is already signed
	ErrAlreadySigned = &OrderError{Code: "ALREADY_SIGNED", Message: "此維修單已經簽名"}

	// ErrInvalidSignature is returned when the signature data is blank
	ErrInvalidSignature = &OrderError{Code: "INVALID_SIGNATURE", Message: "請提供簽名"}

	// ErrInvalidEmail is returned when a non-empty email is malformed
	ErrInvalidEmail = &OrderError{Code: "INVALID_EMAIL", Message: "Email格式不正確"}

	// ErrStaffNotFound is returned when the referenced staff member does not exist
	ErrStaffNotFound = &OrderError{Code: "STAFF_NOT_FOUND", Message: "工務人員不存在"}
)

// ValidationError carries every field-level reason an input was rejected
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, ", ")
}
