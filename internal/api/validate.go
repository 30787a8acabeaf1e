package api

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lethanhdatit/bocmenh/internal/apperror"
)

// Validator collects field errors. The first error per field wins.
type Validator struct {
	fields map[string]string
	args   map[string]map[string]any
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{fields: map[string]string{}, args: map[string]map[string]any{}}
}

func (v *Validator) add(field, key string, args map[string]any) {
	if _, ok := v.fields[field]; ok {
		return
	}
	v.fields[field] = key
	if args != nil {
		v.args[field] = args
	}
}

// Required flags an empty (after trimming) value.
func (v *Validator) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "validation.required", nil)
		return false
	}
	return true
}

// Email flags a non-empty value that is not a bare address.
func (v *Validator) Email(field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		v.add(field, "validation.email", nil)
	}
}

// Length flags a value whose rune count is outside [min, max].
func (v *Validator) Length(field, value, key string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		v.add(field, key, map[string]any{"min": min, "max": max})
	}
}

// Date flags a non-empty value that is not YYYY-MM-DD.
func (v *Validator) Date(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		v.add(field, "validation.date", nil)
	}
}

// Clock flags a non-empty value that is not HH:mm.
func (v *Validator) Clock(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse("15:04", value); err != nil {
		v.add(field, "validation.time", nil)
	}
}

// OneOf flags a non-empty value outside allowed.
func (v *Validator) OneOf(field, value, key string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.add(field, key, nil)
}

// Count flags a slice length outside [min, max].
func (v *Validator) Count(field string, n int, key string, min, max int) {
	if n < min || n > max {
		v.add(field, key, map[string]any{"min": min, "max": max})
	}
}

// Positive flags n <= 0.
func (v *Validator) Positive(field string, n int64) {
	if n <= 0 {
		v.add(field, "validation.positive", nil)
	}
}

// Check flags field with key unless ok.
func (v *Validator) Check(ok bool, field, key string) {
	if !ok {
		v.add(field, key, nil)
	}
}

// Err returns the collected errors as a 400 validation AppError, or nil.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &validationError{AppError: apperror.NewValidation(v.fields), args: v.args}
}

// validationError carries placeholder args alongside the field keys.
type validationError struct {
	*apperror.AppError
	args map[string]map[string]any
}
