package sizechart

import (
	"math"

	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

type Measurements struct {
	HeightCM float64
	WeightKG float64
	FootCM   float64
}

type Recommendation struct {
	Category Category `json:"category"`
	Size     string   `json:"size"`
	// Clamped is set when a measurement fell outside the chart.
	Clamped bool `json:"clamped"`
}

// Recommend picks the smallest size whose bounds hold the measurements.
// For apparel the height and weight picks are made separately and the larger
// one wins. Values outside the chart clamp to its first or last row.
func Recommend(category Category, m Measurements) (*Recommendation, error) {
	chart, ok := charts[category]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown size chart category")
	}

	if category == CategoryShoes {
		if !positive(m.FootCM) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "foot_cm must be a positive number")
		}
		idx, clamped := pick(chart.Rows, m.FootCM, func(row Row) *Range { return row.FootCM })
		return &Recommendation{Category: category, Size: chart.Rows[idx].Size, Clamped: clamped}, nil
	}

	if !positive(m.HeightCM) || !positive(m.WeightKG) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "height_cm and weight_kg must be positive numbers")
	}
	byHeight, heightClamped := pick(chart.Rows, m.HeightCM, func(row Row) *Range { return row.HeightCM })
	byWeight, weightClamped := pick(chart.Rows, m.WeightKG, func(row Row) *Range { return row.WeightKG })
	idx := byHeight
	if byWeight > idx {
		idx = byWeight
	}
	return &Recommendation{
		Category: category,
		Size:     chart.Rows[idx].Size,
		Clamped:  heightClamped || weightClamped,
	}, nil
}

// pick returns the first row containing v. Values in a gap between two rows
// take the larger row.
func pick(rows []Row, v float64, bounds func(Row) *Range) (int, bool) {
	first, last := bounds(rows[0]), bounds(rows[len(rows)-1])
	if v < first.Min {
		return 0, true
	}
	if v > last.Max {
		return len(rows) - 1, true
	}
	for i, row := range rows {
		b := bounds(row)
		if b.contains(v) || v < b.Min {
			return i, false
		}
	}
	return len(rows) - 1, true
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
