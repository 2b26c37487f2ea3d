package sales

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderForm(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func TestValidateOrderPayloadNormalizes(t *testing.T) {
	patch, err := ValidateOrderPayload(orderForm(
		"customer_id", " 7 ",
		"saree_name", "  Kanjivaram Silk ",
		"amount", " 1,250.50 ",
		"order_status", " Confirmed ",
		"payment_mode", "",
		"notes", "",
	))
	require.NoError(t, err)

	assert.Equal(t, int64(7), patch.CustomerID)
	assert.Equal(t, "Kanjivaram Silk", patch.SareeName)
	assert.Equal(t, 1250.50, patch.Amount)
	assert.Equal(t, "Confirmed", patch.OrderStatus)
	assert.Equal(t, DefaultDeliveryStatus, patch.DeliveryStatus)
	assert.Equal(t, DefaultPaymentStatus, patch.PaymentStatus)
	assert.Nil(t, patch.PaymentMode)
	assert.Nil(t, patch.Notes)
}

func TestValidateOrderPayloadGarbageAmountDefaultsToZero(t *testing.T) {
	patch, err := ValidateOrderPayload(orderForm("customer_id", "1", "saree_name", "Banarasi", "amount", "n/a"))
	require.NoError(t, err)
	assert.Zero(t, patch.Amount)
}

func TestValidateOrderPayloadPaidRequiresMode(t *testing.T) {
	for _, status := range []string{"Paid", "paid", "PAID", " pAiD "} {
		t.Run(status, func(t *testing.T) {
			_, err := ValidateOrderPayload(orderForm(
				"customer_id", "1",
				"saree_name", "Banarasi",
				"payment_status", status,
			))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, []string{"payment_mode"}, fe.Fields())
			assert.Equal(t, "Payment mode required when payment status is Paid.", fe["payment_mode"])
		})
	}

	patch, err := ValidateOrderPayload(orderForm(
		"customer_id", "1",
		"saree_name", "Banarasi",
		"payment_status", "paid",
		"payment_mode", "UPI",
	))
	require.NoError(t, err)
	require.NotNil(t, patch.PaymentMode)
	assert.Equal(t, "UPI", *patch.PaymentMode)
	assert.Equal(t, "paid", patch.PaymentStatus)
}

func TestValidateOrderPayloadReportsEveryMissingField(t *testing.T) {
	_, err := ValidateOrderPayload(url.Values{})
	require.Error(t, err)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 2)
	assert.Equal(t, "Customer is required.", fe["customer_id"])
	assert.Equal(t, "Saree name is required.", fe["saree_name"])
	assert.Equal(t, []string{
		"customer_id: Customer is required.",
		"saree_name: Saree name is required.",
	}, fe.Messages())
}

func TestValidateOrderPayloadRejectsNegativeAmount(t *testing.T) {
	_, err := ValidateOrderPayload(orderForm("customer_id", "1", "saree_name", "Banarasi", "amount", "-10"))

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Amount cannot be negative.", fe["amount"])
}

func TestValidateOrderPayloadKeepsExplicitEmptyStatus(t *testing.T) {
	patch, err := ValidateOrderPayload(orderForm("customer_id", "1", "saree_name", "Banarasi", "delivery_status", "  "))
	require.NoError(t, err)
	assert.Equal(t, "", patch.DeliveryStatus)
	assert.Equal(t, DefaultOrderStatus, patch.OrderStatus)
}

func TestValidatePaymentPayload(t *testing.T) {
	in, err := ValidatePaymentPayload(orderForm(
		"customer_id", "3",
		"amount", "500",
		"mode", " Cash ",
		"order_id", "12",
		"notes", "advance",
	))
	require.NoError(t, err)
	assert.Equal(t, int64(3), in.CustomerID)
	assert.Equal(t, 500.0, in.Amount)
	assert.Equal(t, "Cash", in.Mode)
	require.NotNil(t, in.OrderID)
	assert.Equal(t, int64(12), *in.OrderID)
	require.NotNil(t, in.Notes)
	assert.Equal(t, "advance", *in.Notes)
}

func TestValidatePaymentPayloadAllOrNothing(t *testing.T) {
	cases := map[string]url.Values{
		"missing customer": orderForm("amount", "500", "mode", "Cash"),
		"zero amount":      orderForm("customer_id", "3", "amount", "0", "mode", "Cash"),
		"garbage amount":   orderForm("customer_id", "3", "amount", "lots", "mode", "Cash"),
		"negative amount":  orderForm("customer_id", "3", "amount", "-5", "mode", "Cash"),
		"blank mode":       orderForm("customer_id", "3", "amount", "500", "mode", "  "),
		"everything":       {},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidatePaymentPayload(form)
			assert.ErrorIs(t, err, ErrPaymentIncomplete)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, []string{"Customer, amount (>0) and mode are required."}, UserMessages(err))
		})
	}
}

func TestValidatePaymentPayloadOrderReference(t *testing.T) {
	in, err := ValidatePaymentPayload(orderForm("customer_id", "3", "amount", "5", "mode", "Cash", "order_id", ""))
	require.NoError(t, err)
	assert.Nil(t, in.OrderID)

	_, err = ValidatePaymentPayload(orderForm("customer_id", "3", "amount", "5", "mode", "Cash", "order_id", "x1"))
	assert.ErrorIs(t, err, ErrInvalidOrderRef)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateCustomerRequest(t *testing.T) {
	c, err := ValidateCustomerRequest(CreateCustomerRequest{Name: "  Meera ", Phone: " 98450 ", Email: ""})
	require.NoError(t, err)
	assert.Equal(t, "Meera", c.Name)
	require.NotNil(t, c.Phone)
	assert.Equal(t, "98450", *c.Phone)
	assert.Nil(t, c.Email)
	assert.Nil(t, c.Address)

	_, err = ValidateCustomerRequest(CreateCustomerRequest{Name: "   "})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Customer name is required.", fe["name"])

	long := make([]byte, 41)
	for i := range long {
		long[i] = '9'
	}
	_, err = ValidateCustomerRequest(CreateCustomerRequest{Name: "Meera", Phone: string(long)})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Must be at most 40 characters.", fe["phone"])
}

func TestValidateFollowUpPayload(t *testing.T) {
	in, err := ValidateFollowUpPayload(orderForm(
		"customer_id", "4",
		"order_id", "9",
		"follow_date", "2024-05-01T10:30",
		"notes", "call about blouse stitching",
	))
	require.NoError(t, err)
	assert.Equal(t, int64(4), in.CustomerID)
	require.NotNil(t, in.OrderID)
	assert.Equal(t, int64(9), *in.OrderID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), in.FollowDate)

	_, err = ValidateFollowUpPayload(orderForm("customer_id", "4"))
	assert.ErrorIs(t, err, ErrFollowUpIncomplete)

	_, err = ValidateFollowUpPayload(orderForm("follow_date", "2024-05-01"))
	assert.ErrorIs(t, err, ErrFollowUpIncomplete)

	_, err = ValidateFollowUpPayload(orderForm("customer_id", "4", "follow_date", "next tuesday"))
	assert.ErrorIs(t, err, ErrInvalidFollowDate)
}

func TestParseISODate(t *testing.T) {
	tests := map[string]time.Time{
		"2024-05-01":                time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"2024-05-01T10:30":          time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		"2024-05-01 10:30:15":       time.Date(2024, 5, 1, 10, 30, 15, 0, time.UTC),
		"2024-05-01T10:30:15.5":     time.Date(2024, 5, 1, 10, 30, 15, 500000000, time.UTC),
		"2024-05-01T10:30:00+05:30": time.Date(2024, 5, 1, 5, 0, 0, 0, time.UTC),
		"2024-05-01T10:30:00Z":      time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
	for raw, want := range tests {
		got, err := ParseISODate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s: got %s", raw, got)
	}

	_, err := ParseISODate("01/05/2024")
	assert.Error(t, err)
}
