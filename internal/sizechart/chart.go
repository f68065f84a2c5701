// Package sizechart serves the storefront size charts and recommends a size
// from body measurements.
package sizechart

import (
	"strings"

	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

type Category string

const (
	CategoryJersey Category = "jersey"
	CategoryShorts Category = "shorts"
	CategoryShoes  Category = "shoes"
)

// Range is an inclusive measurement interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Row is one size in a chart. Apparel rows carry height and weight bounds,
// shoe rows carry foot length.
type Row struct {
	Size     string `json:"size"`
	HeightCM *Range `json:"height_cm,omitempty"`
	WeightKG *Range `json:"weight_kg,omitempty"`
	FootCM   *Range `json:"foot_cm,omitempty"`
	ChestCM  *Range `json:"chest_cm,omitempty"`
	WaistCM  *Range `json:"waist_cm,omitempty"`
	EU       string `json:"eu,omitempty"`
}

type Chart struct {
	Category Category `json:"category"`
	Unit     string   `json:"unit"`
	Rows     []Row    `json:"rows"`
}

func r(min, max float64) *Range {
	return &Range{Min: min, Max: max}
}

// Rows are ordered smallest first.
var charts = map[Category]Chart{
	CategoryJersey: {
		Category: CategoryJersey,
		Unit:     "cm",
		Rows: []Row{
			{Size: "S", HeightCM: r(150, 162), WeightKG: r(40, 52), ChestCM: r(86, 92)},
			{Size: "M", HeightCM: r(163, 170), WeightKG: r(53, 62), ChestCM: r(93, 98)},
			{Size: "L", HeightCM: r(171, 177), WeightKG: r(63, 72), ChestCM: r(99, 104)},
			{Size: "XL", HeightCM: r(178, 184), WeightKG: r(73, 84), ChestCM: r(105, 110)},
			{Size: "XXL", HeightCM: r(185, 195), WeightKG: r(85, 100), ChestCM: r(111, 118)},
		},
	},
	CategoryShorts: {
		Category: CategoryShorts,
		Unit:     "cm",
		Rows: []Row{
			{Size: "S", HeightCM: r(150, 162), WeightKG: r(40, 52), WaistCM: r(66, 72)},
			{Size: "M", HeightCM: r(163, 170), WeightKG: r(53, 62), WaistCM: r(73, 78)},
			{Size: "L", HeightCM: r(171, 177), WeightKG: r(63, 72), WaistCM: r(79, 84)},
			{Size: "XL", HeightCM: r(178, 184), WeightKG: r(73, 84), WaistCM: r(85, 90)},
			{Size: "XXL", HeightCM: r(185, 195), WeightKG: r(85, 100), WaistCM: r(91, 98)},
		},
	},
	CategoryShoes: {
		Category: CategoryShoes,
		Unit:     "cm",
		Rows: []Row{
			{Size: "38", EU: "38", FootCM: r(23.5, 24.0)},
			{Size: "39", EU: "39", FootCM: r(24.1, 24.6)},
			{Size: "40", EU: "40", FootCM: r(24.7, 25.3)},
			{Size: "41", EU: "41", FootCM: r(25.4, 26.0)},
			{Size: "42", EU: "42", FootCM: r(26.1, 26.6)},
			{Size: "43", EU: "43", FootCM: r(26.7, 27.3)},
			{Size: "44", EU: "44", FootCM: r(27.4, 28.0)},
			{Size: "45", EU: "45", FootCM: r(28.1, 28.7)},
		},
	},
}

// ParseCategory accepts any casing of jersey, shorts or shoes.
func ParseCategory(raw string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := charts[category]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category must be one of jersey, shorts, shoes")
	}
	return category, nil
}

// Get returns a copy of the chart for the category.
func Get(category Category) (Chart, error) {
	chart, ok := charts[category]
	if !ok {
		return Chart{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown size chart category")
	}
	rows := make([]Row, len(chart.Rows))
	copy(rows, chart.Rows)
	chart.Rows = rows
	return chart, nil
}
