package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

// Quote engine error taxonomy. Every failure is local to the product or line item it concerns.
var (
	// ErrIngestion: a source table could not be read as a price matrix in either orientation.
	ErrIngestion = errors.New("price table ingestion failed")
	// ErrLookupMiss: the requested product has no canonical match in the catalog.
	ErrLookupMiss = errors.New("product not in catalog")
	// ErrNoPrice: the resolved matrix cell is absent.
	ErrNoPrice = errors.New("no price for resolved size")
	// ErrTransportUnavailable: the distance lookup failed; the transport line is omitted.
	ErrTransportUnavailable = errors.New("transport distance unavailable")
	// ErrMalformedDimension: a width or height could not be converted to millimetres.
	ErrMalformedDimension = errors.New("malformed dimension")
	// ErrSourceList: the catalog source list is unreadable or has no entries.
	ErrSourceList = errors.New("catalog source list unusable")
)

// Error codes carried by AppError.Code.
const (
	CodeConfig               = "CONFIG_ERROR"
	CodeIngestion            = "INGESTION_ERROR"
	CodeLookupMiss           = "LOOKUP_MISS"
	CodeNoPrice              = "NO_PRICE"
	CodeTransportUnavailable = "TRANSPORT_UNAVAILABLE"
	CodeMalformedDimension   = "MALFORMED_DIMENSION"
	CodeSourceList           = "SOURCE_LIST_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the AppError code found in err's chain, or "" when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus maps engine errors onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && CodeOf(err) == "" {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLookupMiss):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrMalformedDimension):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSourceList), errors.Is(err, ErrIngestion):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrTransportUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
