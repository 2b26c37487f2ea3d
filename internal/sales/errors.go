package sales

import (
	"errors"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/saree-crm/saree-crm/internal/platform/httpx"
)

var (
	// ErrValidation is the root of every user-correctable submission error.
	ErrValidation = httpx.ErrValidation
	// ErrNotFound indicates a missing row.
	ErrNotFound = httpx.ErrNotFound

	ErrPaymentIncomplete  error = validationError("Customer, amount (>0) and mode are required.")
	ErrFollowUpIncomplete error = validationError("Customer and follow date are required.")
	ErrInvalidFollowDate  error = validationError("Follow date must be an ISO-8601 date or date-time.")
	ErrInvalidOrderRef    error = validationError("Order reference must be a number.")
)

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Unwrap() error { return ErrValidation }

// FieldErrors maps a field name to a human readable message. Every failing
// field is reported, not just the first.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return strings.Join(fe.Messages(), "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidation }

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := lo.Keys(fe)
	slices.Sort(keys)
	return keys
}

// Messages renders one "field: message" line per failing field.
func (fe FieldErrors) Messages() []string {
	return lo.Map(fe.Fields(), func(field string, _ int) string {
		return field + ": " + fe[field]
	})
}

// UserMessages returns the messages a caller should show for a validation error.
func UserMessages(err error) []string {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe.Messages()
	}
	return []string{err.Error()}
}
