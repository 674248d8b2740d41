package models

import "strings"

type DeliveryAddress struct {
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required,phone"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country" validate:"required"`
}

// Format aplatit l'adresse en une seule ligne pour l'API commandes
func (a DeliveryAddress) Format() string {
	parts := []string{a.AddressLine1, a.AddressLine2, a.City, a.PostalCode, a.Country}
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// CheckoutForm regroupe l'adresse de livraison et le contact client.
type CheckoutForm struct {
	Email   string          `json:"email" validate:"required,email_shape"`
	Address DeliveryAddress `json:"address"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
