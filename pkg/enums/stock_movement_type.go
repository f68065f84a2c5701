package enums

import (
	"fmt"
	"strings"
)

// StockMovementType classifies a stock ledger entry.
type StockMovementType string

const (
	StockMovementIn     StockMovementType = "IN"
	StockMovementOut    StockMovementType = "OUT"
	StockMovementAdjust StockMovementType = "ADJUST"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementIn,
	StockMovementOut,
	StockMovementAdjust,
}

func (t StockMovementType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known StockMovementType.
func (t StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockMovementType accepts any casing of IN, OUT or ADJUST.
func ParseStockMovementType(value string) (StockMovementType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
