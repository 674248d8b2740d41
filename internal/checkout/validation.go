package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"petshop_storefront/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)
	digits       = regexp.MustCompile(`[0-9]`)
)

var fieldLabels = map[string]string{
	"email":        "Email",
	"fullName":     "Full name",
	"phone":        "Phone number",
	"addressLine1": "Address",
	"city":         "City",
	"country":      "Country",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	return v
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsPhone : "+" facultatif en tête, puis chiffres, espaces, tirets et parenthèses.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s) && digits.MatchString(s)
}

// NormalizeForm renvoie une copie du formulaire sans espaces superflus.
func NormalizeForm(form models.CheckoutForm) models.CheckoutForm {
	form.Email = strings.TrimSpace(form.Email)
	a := &form.Address
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	return form
}

// ValidateForm valide l'adresse et le contact. Map vide = formulaire valide.
// Aucun appel réseau.
func ValidateForm(form models.CheckoutForm) map[string]string {
	errs := map[string]string{}

	err := validate.Struct(NormalizeForm(form))
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = fieldMessage(fe)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email_shape":
		return "Please enter a valid email address"
	case "phone":
		return "Please enter a valid phone number"
	}
	return label + " is invalid"
}
