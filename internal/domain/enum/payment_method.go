package enum

// PaymentMethod identifies how a payment was settled
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	// PaymentMethodOverpayment settles with client credit from the overpayment ledger
	PaymentMethodOverpayment PaymentMethod = "overpayment"
)

// DefaultPaymentMethod is used for the payment recorded together with a sale
const DefaultPaymentMethod = PaymentMethodCash

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOverpayment:
		return true
	}
	return false
}
