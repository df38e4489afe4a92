package entity

// ReceiptCounter holds the last receipt number issued for a sequence.
// Every allocation updates the one row, so its row lock orders
// concurrent sales even before any sale exists.
type ReceiptCounter struct {
	Name       string `gorm:"size:50;primaryKey"`
	LastNumber int    `gorm:"not null;default:0"`
}

// TableName returns the table name for the ReceiptCounter model
func (ReceiptCounter) TableName() string {
	return "receipt_counters"
}
