package validation

import (
	"fmt"

	"github.com/hyperengineering/foodlens/internal/types"
)

// Field length limits for oracle output and user queries.
const (
	MaxNameLength        = 200
	MaxSearchNameLength  = 200
	MaxInstructionLength = 2000
)

// ValidateFoodRecord checks a FoodRecord against the data model invariants.
// An empty result means the record may be delivered to callers.
func ValidateFoodRecord(r *types.FoodRecord) []ValidationError {
	var c Collector
	if r == nil {
		c.Add(&ValidationError{Field: "record", Message: "is required"})
		return c.Errors()
	}

	c.Add(ValidateRequired("name", r.Name))
	c.Add(ValidateMaxLength("name", r.Name, MaxNameLength))
	c.Add(ValidateEnum("confidence", string(r.Confidence), types.Confidences))
	c.Add(ValidateEnum("classification", string(r.Classification), types.Classifications))

	n := r.Nutrition
	c.Add(ValidateNonNegative("nutrition.calories", n.Calories))
	c.Add(ValidateNonNegative("nutrition.protein", n.Protein))
	c.Add(ValidateNonNegative("nutrition.carbs", n.Carbs))
	c.Add(ValidateNonNegative("nutrition.fat", n.Fat))
	if n.Fiber != nil {
		c.Add(ValidateNonNegative("nutrition.fiber", *n.Fiber))
	}
	if n.Sugar != nil {
		c.Add(ValidateNonNegative("nutrition.sugar", *n.Sugar))
	}

	for i, step := range r.Recipe {
		field := fmt.Sprintf("recipe[%d]", i)
		// Steps are numbered 1..n with no gaps or reordering.
		if step.Step != i+1 {
			c.Add(&ValidationError{
				Field:   field + ".step",
				Message: fmt.Sprintf("must be %d (steps are contiguous from 1)", i+1),
			})
		}
		c.Add(ValidateRequired(field+".instruction", step.Instruction))
		c.Add(ValidateMaxLength(field+".instruction", step.Instruction, MaxInstructionLength))
	}

	return c.Errors()
}

// ValidateSearchName checks a free-text dish name query.
func ValidateSearchName(name string) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("name", name))
	c.Add(ValidateUTF8("name", name))
	c.Add(ValidateNoNullBytes("name", name))
	c.Add(ValidateMaxLength("name", name, MaxSearchNameLength))
	return c.Errors()
}
