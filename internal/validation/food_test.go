package validation

import (
	"strings"
	"testing"

	"github.com/hyperengineering/foodlens/internal/types"
)

func ptr(f float64) *float64 { return &f }

func validRecord() *types.FoodRecord {
	return &types.FoodRecord{
		Name:       "Paneer Tikka",
		Confidence: types.ConfidenceHigh,
		Nutrition: types.Nutrition{
			Calories: 250,
			Protein:  14,
			Carbs:    8,
			Fat:      18,
			Fiber:    ptr(2),
			Vitamins: []string{"A", "B12"},
		},
		Ingredients: []string{"paneer", "yogurt", "spices"},
		Recipe: []types.RecipeStep{
			{Step: 1, Instruction: "Marinate paneer."},
			{Step: 2, Instruction: "Grill until charred."},
		},
		Allergens:      []string{"dairy"},
		ServingSize:    "150g",
		Cuisine:        "Indian",
		Classification: types.ClassVegetarian,
	}
}

func hasField(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateFoodRecord_Valid(t *testing.T) {
	if errs := ValidateFoodRecord(validRecord()); len(errs) != 0 {
		t.Errorf("ValidateFoodRecord(valid) = %v, want none", errs)
	}
}

func TestValidateFoodRecord_EmptyRecipeAllowed(t *testing.T) {
	r := validRecord()
	r.Recipe = nil
	if errs := ValidateFoodRecord(r); len(errs) != 0 {
		t.Errorf("ValidateFoodRecord(no recipe) = %v, want none", errs)
	}
}

func TestValidateFoodRecord_Nil(t *testing.T) {
	errs := ValidateFoodRecord(nil)
	if !hasField(errs, "record") {
		t.Errorf("ValidateFoodRecord(nil) = %v, want record error", errs)
	}
}

func TestValidateFoodRecord_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *types.FoodRecord)
		field  string
	}{
		{"negative_calories", func(r *types.FoodRecord) { r.Nutrition.Calories = -5 }, "nutrition.calories"},
		{"negative_protein", func(r *types.FoodRecord) { r.Nutrition.Protein = -1 }, "nutrition.protein"},
		{"negative_carbs", func(r *types.FoodRecord) { r.Nutrition.Carbs = -1 }, "nutrition.carbs"},
		{"negative_fat", func(r *types.FoodRecord) { r.Nutrition.Fat = -1 }, "nutrition.fat"},
		{"negative_fiber", func(r *types.FoodRecord) { r.Nutrition.Fiber = ptr(-2) }, "nutrition.fiber"},
		{"negative_sugar", func(r *types.FoodRecord) { r.Nutrition.Sugar = ptr(-0.5) }, "nutrition.sugar"},
		{"missing_name", func(r *types.FoodRecord) { r.Name = " " }, "name"},
		{"unknown_classification", func(r *types.FoodRecord) { r.Classification = "pescatarian" }, "classification"},
		{"unknown_confidence", func(r *types.FoodRecord) { r.Confidence = "certain" }, "confidence"},
		{"recipe_gap", func(r *types.FoodRecord) { r.Recipe[1].Step = 3 }, "recipe[1].step"},
		{"recipe_starts_at_zero", func(r *types.FoodRecord) {
			r.Recipe[0].Step = 0
			r.Recipe[1].Step = 1
		}, "recipe[0].step"},
		{"recipe_reordered", func(r *types.FoodRecord) {
			r.Recipe[0].Step, r.Recipe[1].Step = 2, 1
		}, "recipe[0].step"},
		{"empty_instruction", func(r *types.FoodRecord) { r.Recipe[0].Instruction = "" }, "recipe[0].instruction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(r)
			errs := ValidateFoodRecord(r)
			if !hasField(errs, tt.field) {
				t.Errorf("ValidateFoodRecord() = %v, want error on %q", errs, tt.field)
			}
		})
	}
}

func TestValidateSearchName(t *testing.T) {
	if errs := ValidateSearchName("paneer tikka"); len(errs) != 0 {
		t.Errorf("ValidateSearchName(valid) = %v, want none", errs)
	}
	if errs := ValidateSearchName("   "); !hasField(errs, "name") {
		t.Errorf("ValidateSearchName(blank) = %v, want name error", errs)
	}
	if errs := ValidateSearchName(strings.Repeat("x", MaxSearchNameLength+1)); len(errs) == 0 {
		t.Error("ValidateSearchName(too long) = none, want error")
	}
}
