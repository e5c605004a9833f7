package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Common application errors
var (
	ErrInvalidArgument = NewValidationError("", "invalid argument")
	ErrInternal        = NewInternalError("internal server error", nil)
)

// GRPCStatuser is implemented by errors that carry their own gRPC status.
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}

// ValidationError is a malformed request rejected at a transport boundary.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// UpstreamError is a failure of an external collaborator such as the
// recommendation engine or the mail queue.
type UpstreamError struct {
	Service string
	Err     error
}

// NewUpstreamError creates a new upstream error for service.
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

// Unwrap returns the wrapped error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// GRPCStatus keeps the upstream code when the cause is itself a gRPC status
// error, and reports Unavailable otherwise.
func (e *UpstreamError) GRPCStatus() *status.Status {
	if st, ok := status.FromError(e.Err); ok && st.Code() != codes.Unknown {
		return status.New(st.Code(), e.Error())
	}
	return status.New(codes.Unavailable, e.Error())
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// GRPCStatus returns the gRPC status for this error. The cause is not exposed.
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

// IsUpstream reports whether err is or wraps an UpstreamError.
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
