package cart

import (
	"strings"
)

// PaymentMethod is how the customer settles a sale.
type PaymentMethod string

const (
	Cash       PaymentMethod = "cash"
	CreditCard PaymentMethod = "credit_card"
	DebitCard  PaymentMethod = "debit_card"
	Pix        PaymentMethod = "pix"
	// Deferred is a sale on credit ("fiado"); it creates an account receivable.
	Deferred PaymentMethod = "deferred"
)

// legacyPaymentLabels maps the labels stored by older terminals.
var legacyPaymentLabels = map[string]PaymentMethod{
	"dinheiro":       Cash,
	"cartao_credito": CreditCard,
	"cartao_debito":  DebitCard,
	"fiado":          Deferred,
}

// PaymentMethods lists the supported vocabulary in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{Cash, CreditCard, DebitCard, Pix, Deferred}
}

// ParsePaymentMethod accepts both the canonical names and the legacy labels.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if m := PaymentMethod(key); m.Valid() {
		return m, nil
	}
	if m, ok := legacyPaymentLabels[key]; ok {
		return m, nil
	}
	return "", invalid(ErrUnknownPaymentMethod, "unknown payment method %q", s)
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, CreditCard, DebitCard, Pix, Deferred:
		return true
	}
	return false
}

// UsesDueDate reports whether a due date is meaningful for the method.
func (m PaymentMethod) UsesDueDate() bool {
	return m == Deferred
}

func (m PaymentMethod) String() string {
	return string(m)
}
