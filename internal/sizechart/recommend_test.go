package sizechart

import (
	"testing"

	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

func TestRecommendApparel(t *testing.T) {
	cases := []struct {
		name     string
		category Category
		m        Measurements
		want     string
		clamped  bool
	}{
		{"height and weight agree", CategoryJersey, Measurements{HeightCM: 168, WeightKG: 58}, "M", false},
		{"weight pushes up", CategoryJersey, Measurements{HeightCM: 165, WeightKG: 75}, "XL", false},
		{"height pushes up", CategoryShorts, Measurements{HeightCM: 186, WeightKG: 60}, "XXL", false},
		{"bound is inclusive", CategoryJersey, Measurements{HeightCM: 170, WeightKG: 62}, "M", false},
		{"gap rounds up", CategoryJersey, Measurements{HeightCM: 162.5, WeightKG: 45}, "M", false},
		{"below chart clamps", CategoryJersey, Measurements{HeightCM: 120, WeightKG: 30}, "S", true},
		{"above chart clamps", CategoryJersey, Measurements{HeightCM: 210, WeightKG: 70}, "XXL", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Recommend(tc.category, tc.m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Size != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Size)
			}
			if got.Clamped != tc.clamped {
				t.Fatalf("expected clamped=%v", tc.clamped)
			}
		})
	}
}

func TestRecommendShoes(t *testing.T) {
	got, err := Recommend(CategoryShoes, Measurements{FootCM: 26.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Size != "42" {
		t.Fatalf("expected 42, got %s", got.Size)
	}

	got, err = Recommend(CategoryShoes, Measurements{FootCM: 31})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Size != "45" || !got.Clamped {
		t.Fatalf("expected clamped 45, got %+v", got)
	}
}

func TestRecommendRejectsInvalidInput(t *testing.T) {
	if _, err := Recommend(CategoryJersey, Measurements{HeightCM: 170}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Recommend(CategoryShoes, Measurements{FootCM: -1}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseCategory("hats"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	category, err := ParseCategory(" Jersey ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	chart, err := Get(category)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	chart.Rows[0].Size = "mutated"

	again, _ := Get(category)
	if again.Rows[0].Size != "S" {
		t.Fatalf("chart table was mutated through Get")
	}
}
