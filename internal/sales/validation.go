package sales

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Payload is a raw form submission. url.Values satisfies it.
type Payload interface {
	Get(key string) string
	Has(key string) bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateOrderPayload normalizes an order create or edit submission. On
// failure the error is a FieldErrors naming every failing field.
func ValidateOrderPayload(p Payload) (OrderPatch, error) {
	patch := OrderPatch{
		CustomerID:     parseID(p.Get("customer_id")),
		SareeName:      strings.TrimSpace(p.Get("saree_name")),
		Amount:         CoerceAmount(p.Get("amount"), 0),
		OrderStatus:    trimmedOr(p, "order_status", DefaultOrderStatus),
		DeliveryStatus: trimmedOr(p, "delivery_status", DefaultDeliveryStatus),
		PaymentStatus:  trimmedOr(p, "payment_status", DefaultPaymentStatus),
		PaymentMode:    optional(strings.TrimSpace(p.Get("payment_mode"))),
		Notes:          optional(p.Get("notes")),
	}

	errs := FieldErrors{}
	if patch.CustomerID == 0 {
		errs["customer_id"] = "Customer is required."
	}
	if patch.SareeName == "" {
		errs["saree_name"] = "Saree name is required."
	}
	if patch.Amount < 0 {
		errs["amount"] = "Amount cannot be negative."
	}
	if strings.EqualFold(patch.PaymentStatus, PaymentStatusPaid) && patch.PaymentMode == nil {
		errs["payment_mode"] = "Payment mode required when payment status is Paid."
	}
	if len(errs) > 0 {
		return OrderPatch{}, errs
	}
	return patch, nil
}

// ValidatePaymentPayload normalizes a payment submission. Customer, a positive
// amount and a mode must all be present or the whole submission is rejected
// with ErrPaymentIncomplete.
func ValidatePaymentPayload(p Payload) (PaymentInput, error) {
	in := PaymentInput{
		CustomerID: parseID(p.Get("customer_id")),
		Amount:     CoerceAmount(p.Get("amount"), 0),
		Mode:       strings.TrimSpace(p.Get("mode")),
		Notes:      optional(p.Get("notes")),
	}
	if in.CustomerID == 0 || in.Amount <= 0 || in.Mode == "" {
		return PaymentInput{}, ErrPaymentIncomplete
	}
	orderID, err := parseOptionalID(p.Get("order_id"))
	if err != nil {
		return PaymentInput{}, err
	}
	in.OrderID = orderID
	return in, nil
}

// CustomerRequestFromPayload reads the customer form fields.
func CustomerRequestFromPayload(p Payload) CreateCustomerRequest {
	return CreateCustomerRequest{
		Name:    p.Get("name"),
		Phone:   p.Get("phone"),
		Email:   p.Get("email"),
		Address: p.Get("address"),
	}
}

// ValidateCustomerRequest trims the request and builds an unsaved customer.
// Empty optional fields are stored as NULL.
func ValidateCustomerRequest(req CreateCustomerRequest) (Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Address = strings.TrimSpace(req.Address)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Customer{}, err
		}
		fe := FieldErrors{}
		for _, fieldErr := range verrs {
			fe[fieldErr.Field()] = customerMessage(fieldErr)
		}
		return Customer{}, fe
	}

	return Customer{
		Name:    req.Name,
		Phone:   optional(req.Phone),
		Email:   optional(req.Email),
		Address: optional(req.Address),
	}, nil
}

func customerMessage(fe validator.FieldError) string {
	switch {
	case fe.Field() == "name" && fe.Tag() == "required":
		return "Customer name is required."
	case fe.Tag() == "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}

type followUpRequest struct {
	CustomerID int64  `form:"customer_id" validate:"gt=0"`
	FollowDate string `form:"follow_date" validate:"required"`
}

// ValidateFollowUpPayload normalizes a follow-up submission. follow_date
// accepts ISO-8601 dates and date-times; values without an offset are UTC.
func ValidateFollowUpPayload(p Payload) (FollowUpInput, error) {
	req := followUpRequest{
		CustomerID: parseID(p.Get("customer_id")),
		FollowDate: strings.TrimSpace(p.Get("follow_date")),
	}
	if err := validate.Struct(req); err != nil {
		return FollowUpInput{}, ErrFollowUpIncomplete
	}
	when, err := ParseISODate(req.FollowDate)
	if err != nil {
		return FollowUpInput{}, ErrInvalidFollowDate
	}
	orderID, err := parseOptionalID(p.Get("order_id"))
	if err != nil {
		return FollowUpInput{}, err
	}
	return FollowUpInput{
		CustomerID: req.CustomerID,
		OrderID:    orderID,
		FollowDate: when,
		Notes:      optional(p.Get("notes")),
	}, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseISODate parses the ISO-8601 forms accepted from date and datetime-local inputs.
func ParseISODate(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unsupported format", s)
}

func trimmedOr(p Payload, key, def string) string {
	if !p.Has(key) {
		return def
	}
	return strings.TrimSpace(p.Get(key))
}
