package models

type PaymentLine struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	TotalAmount float64 `json:"totalAmount"`
	Quantity    int     `json:"quantity"`
}

type PaymentSessionRequest struct {
	Items         []PaymentLine `json:"items"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	UserID        string        `json:"userId"`
	SuccessURL    string        `json:"successUrl"`
	CancelURL     string        `json:"cancelUrl"`
}

// PaymentSession : référence opaque de la session de paiement hébergée.
type PaymentSession struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}
