package fizzbuzz

import (
	"errors"
	"testing"
)

func validRequest() Request {
	return Request{Start: 1, Limit: 15, Divisor1: 3, Divisor2: 5, Str1: "Fizz", Str2: "Buzz"}
}

func TestValidateAccepts(t *testing.T) {
	if err := Validate(validRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"zero start", func(r *Request) { r.Start = 0 }, "start"},
		{"zero divisor1", func(r *Request) { r.Divisor1 = 0 }, "divisor1"},
		{"negative divisor2", func(r *Request) { r.Divisor2 = -1 }, "divisor2"},
		{"divisor1 too large", func(r *Request) { r.Divisor1 = 101 }, "divisor1"},
		{"equal divisors", func(r *Request) { r.Divisor2 = r.Divisor1 }, "divisor2"},
		{"zero limit", func(r *Request) { r.Limit = 0 }, "limit"},
		{"limit too large", func(r *Request) { r.Limit = 1001 }, "limit"},
		{"start beyond limit", func(r *Request) { r.Start = 20 }, "start"},
		{"empty str1", func(r *Request) { r.Str1 = "" }, "str1"},
		{"empty str2", func(r *Request) { r.Str2 = "" }, "str2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			err := Validate(req)
			if err == nil {
				t.Fatalf("expected validation failure")
			}
			var fieldErrs FieldErrors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("expected FieldErrors, got %T", err)
			}
			found := false
			for _, fe := range fieldErrs {
				if fe.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected an error on field %q, got %v", tc.field, fieldErrs)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	err := Validate(Request{})
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if len(fieldErrs) < 5 {
		t.Fatalf("expected every violated constraint reported, got %d: %v", len(fieldErrs), fieldErrs)
	}
	if len(fieldErrs.Details()) != len(fieldErrs) {
		t.Fatalf("details length mismatch")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := validRequest()
	b := validRequest()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("equal requests must share a fingerprint")
	}

	c := validRequest()
	c.Str1 = "Buzz"
	c.Str2 = "Fizz"
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatalf("different requests must not collide on string swap")
	}
}
