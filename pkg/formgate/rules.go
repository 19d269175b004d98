package formgate

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names accepted by the gate.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Message keys produced by the default rules.
const (
	KeyNameRequired  = "form.name.required"
	KeyEmailRequired = "form.email.required"
	KeyEmailInvalid  = "form.email.invalid"
	KeyPhoneRequired = "form.phone.required"
	KeyPhoneInvalid  = "form.phone.invalid"
	KeyAdded         = "notify.success.added"
	KeyDeleted       = "notify.success.deleted"
)

// RE2's \s is ASCII only; the classes below add Unicode separators and the
// BOM so that NBSP and friends count as whitespace.
var (
	emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)
	phonePattern = regexp.MustCompile(`^(\+7|7|8)?[\s\p{Z}\x{FEFF}\-]?\(?[489][0-9]{2}\)?[\s\p{Z}\x{FEFF}\-]?[0-9]{3}[\s\p{Z}\x{FEFF}\-]?[0-9]{2}[\s\p{Z}\x{FEFF}\-]?[0-9]{2}$`)
)

// Check inspects a normalized, non-empty value.
type Check func(value string) bool

// Rule validates one field. Required failures short-circuit the field's
// Checks; each Check failure reports its own key.
type Rule struct {
	Field       string
	RequiredKey string
	Checks      []CheckRule
}

// CheckRule pairs a Check with the key reported when it fails.
type CheckRule struct {
	Check Check
	Key   string
}

// DefaultRules returns the name, email and phone rules in display order.
func DefaultRules() []Rule {
	return []Rule{
		{Field: FieldName, RequiredKey: KeyNameRequired},
		{
			Field:       FieldEmail,
			RequiredKey: KeyEmailRequired,
			Checks:      []CheckRule{{Check: IsEmail, Key: KeyEmailInvalid}},
		},
		{
			Field:       FieldPhone,
			RequiredKey: KeyPhoneRequired,
			Checks:      []CheckRule{{Check: IsPhone, Key: KeyPhoneInvalid}},
		},
	}
}

// IsEmail reports whether value looks like local@domain.tld.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPhone reports whether value matches the accepted Russian phone formats,
// e.g. "+7 (999) 123-45-67", "89991234567" or "999 123 45 67".
func IsPhone(value string) bool {
	return phonePattern.MatchString(value)
}

// Normalize trims surrounding whitespace and applies Unicode NFC.
func Normalize(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// Values carries raw form input keyed by field name.
type Values map[string]string

// ValuesFromForm picks the gate's fields out of parsed form data.
func ValuesFromForm(form url.Values) Values {
	return Values{
		FieldName:  form.Get(FieldName),
		FieldEmail: form.Get(FieldEmail),
		FieldPhone: form.Get(FieldPhone),
	}
}

// Normalized returns a copy with every value passed through Normalize.
func (v Values) Normalized() Values {
	out := make(Values, len(v))
	for field, value := range v {
		out[field] = Normalize(value)
	}
	return out
}
