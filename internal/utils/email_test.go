package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"petshop_storefront/internal/models"
)

func confirmedOrder() (*models.PendingOrder, *models.FinalizationResult) {
	order := &models.PendingOrder{
		CartItems: []models.CartItem{
			{CartItemID: "a", ProductID: "1", Name: "Salmon Kibble", UnitPrice: 50, Quantity: 1},
		},
		Quantities: map[string]int{"a": 2},
		DeliveryAddress: models.DeliveryAddress{
			FullName:     "Layla Haddad",
			AddressLine1: "12 Marina Walk",
			City:         "Dubai",
			Country:      "AE",
		},
		Email:         "layla@example.ae",
		TotalAmount:   130,
		OrderSummary:  models.OrderSummary{Subtotal: 100, Shipping: 25, VAT: 5, Total: 130},
		PaymentMethod: models.PaymentCashOnDelivery,
	}
	return order, &models.FinalizationResult{OrderID: "ord-1"}
}

func TestOrderConfirmationHTML(t *testing.T) {
	order, result := confirmedOrder()

	html, err := OrderConfirmationHTML(order, result)

	require.NoError(t, err)
	assert.Contains(t, html, "ord-1")
	assert.Contains(t, html, "Hello Layla Haddad")
	assert.Contains(t, html, "paid on delivery")
	assert.Contains(t, html, "<td>Salmon Kibble</td><td>2</td><td>100.00 AED</td>")
	assert.Contains(t, html, "130.00 AED")
	assert.Contains(t, html, "12 Marina Walk, Dubai, AE")
}

func TestMailer_SendsWithQRAttachment(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "shop@example.ae"}, "http://localhost:3000")
	var sent *mail.Msg
	m.send = func(msg *mail.Msg) error {
		sent = msg
		return nil
	}
	order, result := confirmedOrder()

	require.NoError(t, m.SendOrderConfirmation(order, result))

	require.NotNil(t, sent)
	assert.Equal(t, []string{"Your order ord-1 is confirmed"}, sent.GetGenHeader(mail.HeaderSubject))
	require.Len(t, sent.GetAttachments(), 1)
	assert.Equal(t, "order-ord-1.png", sent.GetAttachments()[0].Name)

	var buf bytes.Buffer
	_, err := sent.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "layla@example.ae")
}

func TestMailer_DisabledWithoutSMTP(t *testing.T) {
	assert.False(t, NewMailer(SMTPConfig{}, "").Enabled())
	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
}
