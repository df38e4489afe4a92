package enum

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeProduction MovementType = "production"
	MovementTypeSale       MovementType = "sale"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeWriteOff   MovementType = "writeoff"
	MovementTypeReturn     MovementType = "return"
)

// IsValid reports whether t is one of the known movement types
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeProduction, MovementTypeSale, MovementTypeAdjustment, MovementTypeWriteOff, MovementTypeReturn:
		return true
	}
	return false
}
