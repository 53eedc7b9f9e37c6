package fizzbuzz

import (
	"fmt"
	"strings"
)

// Validation bounds for request parameters.
const (
	MaxDivisor = 100
	MaxLimit   = 1000
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors collects validation failures for a request. It is returned as a
// value rather than thrown through the call stack; callers decide how to
// surface it.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "invalid parameters: " + strings.Join(msgs, "; ")
}

// Details returns the individual error messages for API responses.
func (e FieldErrors) Details() []string {
	details := make([]string, len(e))
	for i, fe := range e {
		details[i] = fe.Error()
	}
	return details
}

// Validate checks a request against the allowed parameter ranges. It returns
// nil when the request is valid, otherwise a FieldErrors listing every
// violated constraint.
func Validate(req Request) error {
	var errs FieldErrors

	if req.Start <= 0 {
		errs = append(errs, FieldError{Field: "start", Message: "The start value must be a positive number."})
	}
	if req.Divisor1 <= 0 {
		errs = append(errs, FieldError{Field: "divisor1", Message: "The first divisor must be a positive number."})
	}
	if req.Divisor2 <= 0 {
		errs = append(errs, FieldError{Field: "divisor2", Message: "The second divisor must be a positive number."})
	}
	if req.Divisor1 > MaxDivisor {
		errs = append(errs, FieldError{Field: "divisor1", Message: fmt.Sprintf("The first divisor must not exceed %d.", MaxDivisor)})
	}
	if req.Divisor2 > MaxDivisor {
		errs = append(errs, FieldError{Field: "divisor2", Message: fmt.Sprintf("The second divisor must not exceed %d.", MaxDivisor)})
	}
	if req.Divisor1 == req.Divisor2 {
		errs = append(errs, FieldError{Field: "divisor2", Message: "The divisors must be different."})
	}
	if req.Limit <= 0 {
		errs = append(errs, FieldError{Field: "limit", Message: "The limit must be a positive number."})
	}
	if req.Limit > MaxLimit {
		errs = append(errs, FieldError{Field: "limit", Message: fmt.Sprintf("The limit must not exceed %d.", MaxLimit)})
	}
	if req.Start > req.Limit {
		errs = append(errs, FieldError{Field: "start", Message: "The start value must not exceed the limit."})
	}
	if req.Str1 == "" {
		errs = append(errs, FieldError{Field: "str1", Message: "The first string cannot be empty."})
	}
	if req.Str2 == "" {
		errs = append(errs, FieldError{Field: "str2", Message: "The second string cannot be empty."})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
