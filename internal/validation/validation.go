// Package validation checks request payloads at the HTTP boundary before any
// repository is touched.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/swiftcourier/trackingserver/types"
)

// FieldError names a field and the rule it broke.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Rule
	}
	return e.Field + ": " + e.Rule
}

// Result is either OK or a list of field errors.
type Result struct {
	Errors []FieldError
}

// OK reports whether no field errors were found.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Add appends a field error.
func (r *Result) Add(field, rule string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Rule: rule})
}

// Merge appends the errors of other.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
}

// Messages renders each error as "field: rule".
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.String())
	}
	return out
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

// New returns a validator that reports json field names and knows the
// package_status rule.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("package_status", func(fl validator.FieldLevel) bool {
		return types.PackageStatus(fl.Field().String()).Valid()
	})
	return &Validator{validate: v}
}

// Validate checks value's struct tags.
func (v *Validator) Validate(value any) Result {
	var result Result
	err := v.validate.Struct(value)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.Add("", err.Error())
		return result
	}
	for _, fe := range fieldErrs {
		result.Add(fieldPath(fe.Namespace()), fe.Tag())
	}
	return result
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

var std = New()

// Validate checks value with the shared validator.
func Validate(value any) Result {
	return std.Validate(value)
}
