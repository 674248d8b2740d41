package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID accepte indifféremment un identifiant JSON texte ou numérique
// (l'API renvoie parfois `"productId": 12`, parfois `"productId": "12"`).
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// CartItem est une ligne du panier telle que figée au moment du checkout.
type CartItem struct {
	CartItemID ID      `json:"cartItemId"`
	ProductID  ID      `json:"productId"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	ImageRef   string  `json:"imageRef,omitempty"`
}

// LineTotal = prix unitaire × quantité
func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type OrderSummary struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	VAT      float64 `json:"vat"`
	Total    float64 `json:"total"`
}

const Currency = "AED"
