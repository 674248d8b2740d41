package checkout

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuth            Kind = "auth"
	KindPaymentSession  Kind = "payment_session"
	KindPaymentRedirect Kind = "payment_redirect"
	KindOrderCreation   Kind = "order_creation"
	KindNoOrderData     Kind = "no_order_data"
)

// Error est l'erreur typée du tunnel de commande. errors.Is compare le Kind :
// errors.Is(err, ErrValidation) est vrai pour toute erreur de validation.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // erreurs de formulaire, champ → message
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrPaymentSession  = &Error{Kind: KindPaymentSession}
	ErrPaymentRedirect = &Error{Kind: KindPaymentRedirect}
	ErrOrderCreation   = &Error{Kind: KindOrderCreation}
	ErrNoOrderData     = &Error{Kind: KindNoOrderData}
)

const (
	msgMissingInformation = "missing required information"
	msgMissingUser        = "User ID is missing"
)
