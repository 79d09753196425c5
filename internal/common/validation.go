package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FieldError is one failed rule.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string { return e.Field + " " + e.Reason }

// Rule inspects a value and returns the reason it is invalid, or "".
type Rule func(value any) string

// Validator collects rule failures across the fields of one request.
type Validator struct {
	failed []FieldError
}

func NewValidator() *Validator { return &Validator{} }

// Field runs rules against value in order and keeps the first failure for the field.
func (v *Validator) Field(name string, value any, rules ...Rule) *Validator {
	for _, rule := range rules {
		if reason := rule(value); reason != "" {
			v.failed = append(v.failed, FieldError{Field: name, Reason: reason})
			break
		}
	}
	return v
}

func (v *Validator) Failures() []FieldError { return v.failed }

func (v *Validator) String() string {
	parts := make([]string, len(v.failed))
	for i, f := range v.failed {
		parts[i] = f.Error()
	}
	return strings.Join(parts, "; ")
}

// Err wraps the collected failures around ErrValidation, or returns nil.
func (v *Validator) Err() error {
	if len(v.failed) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", v, ErrValidation)
}

// ValidateAndReturnError turns collected failures into an InvalidArgument status.
func ValidateAndReturnError(v *Validator) error {
	if v.Err() == nil {
		return nil
	}
	return InvalidArgumentError(v.String())
}

func Required(value any) string {
	switch s := value.(type) {
	case nil:
		return "is required"
	case string:
		if strings.TrimSpace(s) == "" {
			return "is required"
		}
	}
	return ""
}

func MaxLength(max int) Rule {
	return func(value any) string {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > max {
			return fmt.Sprintf("must be at most %d characters", max)
		}
		return ""
	}
}

// PositiveInt ignores values that are not ints.
func PositiveInt(value any) string {
	if n, ok := value.(int); ok && n <= 0 {
		return fmt.Sprintf("must be positive, got %d", n)
	}
	return ""
}

func UUID(value any) string {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return "must be a UUID"
	}
	return ""
}
