package enum

// OverpaymentType classifies an overpayment ledger entry.
//
// Consumption of credit against a sale is stored as a negative amount under
// OverpaymentTypeAdjusted, so summing amounts always yields the balance.
type OverpaymentType string

const (
	OverpaymentTypeCreated   OverpaymentType = "created"
	OverpaymentTypeAdjusted  OverpaymentType = "adjusted"
	OverpaymentTypeWithdrawn OverpaymentType = "withdrawn"
)
