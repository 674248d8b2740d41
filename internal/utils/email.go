package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"github.com/wneessen/go-mail"

	"petshop_storefront/internal/models"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer envoie l'email de confirmation dès qu'une commande existe. L'envoi se
// fait en arrière-plan et son échec n'affecte jamais le résultat du checkout.
type Mailer struct {
	smtp        SMTPConfig
	frontendURL string
	send        func(msg *mail.Msg) error
}

func NewMailer(cfg SMTPConfig, frontendURL string) *Mailer {
	m := &Mailer{smtp: cfg, frontendURL: frontendURL}
	m.send = m.dialAndSend
	return m
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.smtp.Host != "" && m.smtp.From != ""
}

func (m *Mailer) OrderConfirmed(order *models.PendingOrder, result *models.FinalizationResult) {
	if !m.Enabled() || order.Email == "" {
		return
	}
	go func() {
		if err := m.SendOrderConfirmation(order, result); err != nil {
			log.Printf("❌ Email de confirmation non envoyé (%s): %v", result.OrderID, err)
			return
		}
		log.Printf("📧 Email de confirmation envoyé: %s", order.Email)
	}()
}

func (m *Mailer) SendOrderConfirmation(order *models.PendingOrder, result *models.FinalizationResult) error {
	msg, err := m.buildConfirmation(order, result)
	if err != nil {
		return err
	}
	log.Println("📤 Envoi de l'e-mail à", order.Email)
	return m.send(msg)
}

func (m *Mailer) buildConfirmation(order *models.PendingOrder, result *models.FinalizationResult) (*mail.Msg, error) {
	body, err := OrderConfirmationHTML(order, result)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.smtp.From); err != nil {
		return nil, err
	}
	if err := msg.To(order.Email); err != nil {
		return nil, err
	}
	msg.Subject(fmt.Sprintf("Your order %s is confirmed", result.OrderID))
	msg.SetBodyString(mail.TypeTextHTML, body)

	png, err := OrderQRPNG(OrderLink(m.frontendURL, result.OrderID))
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %v", err)
	}
	msg.AttachReader("order-"+result.OrderID+".png", bytes.NewReader(png))
	return msg, nil
}

func (m *Mailer) dialAndSend(msg *mail.Msg) error {
	client, err := mail.NewClient(m.smtp.Host,
		mail.WithPort(m.smtp.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.smtp.Username),
		mail.WithPassword(m.smtp.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f %s", v, models.Currency) },
	"mul":   func(price float64, qty int) float64 { return price * float64(qty) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order confirmation</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Thank you for your order</h2>
		<p>Hello {{.Name}},</p>
		<p>Your order <strong>{{.OrderID}}</strong> has been placed{{if .CashOnDelivery}} and will be paid on delivery{{end}}.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left;">Product</th>
					<th style="padding: 10px; text-align: left;">Quantity</th>
					<th style="padding: 10px; text-align: left;">Total</th>
				</tr>
			</thead>
			<tbody>
			{{range .Lines}}
				<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{money (mul .UnitPrice .Quantity)}}</td></tr>
			{{end}}
			</tbody>
			<tfoot>
				<tr><td colspan="2">Subtotal</td><td>{{money .Summary.Subtotal}}</td></tr>
				<tr><td colspan="2">Shipping</td><td>{{money .Summary.Shipping}}</td></tr>
				<tr><td colspan="2">VAT</td><td>{{money .Summary.VAT}}</td></tr>
				<tr><td colspan="2"><strong>Total</strong></td><td><strong>{{money .Total}}</strong></td></tr>
			</tfoot>
		</table>
		<p>Delivery to: {{.Address}}</p>
		<p style="margin-top: 30px; color: #555;">The pet shop team</p>
	</div>
</body>
</html>`))

// OrderConfirmationHTML génère le HTML de confirmation de commande.
func OrderConfirmationHTML(order *models.PendingOrder, result *models.FinalizationResult) (string, error) {
	lines := make([]models.CartItem, 0, len(order.CartItems))
	for _, item := range order.CartItems {
		item.Quantity = order.QuantityFor(item)
		lines = append(lines, item)
	}

	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, map[string]any{
		"Name":           order.DeliveryAddress.FullName,
		"OrderID":        result.OrderID,
		"CashOnDelivery": order.PaymentMethod == models.PaymentCashOnDelivery,
		"Lines":          lines,
		"Summary":        order.OrderSummary,
		"Total":          order.TotalAmount,
		"Address":        order.DeliveryAddress.Format(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
