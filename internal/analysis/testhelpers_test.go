package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hyperengineering/foodlens/internal/datauri"
	"github.com/hyperengineering/foodlens/internal/types"
)

func ptr(f float64) *float64 { return &f }

func paneerRecord() types.FoodRecord {
	return types.FoodRecord{
		Name:       "Paneer Tikka",
		Confidence: types.ConfidenceHigh,
		Nutrition: types.Nutrition{
			Calories: 250, Protein: 14, Carbs: 8, Fat: 18,
			Fiber: ptr(2),
		},
		Ingredients: []string{"paneer", "yogurt"},
		Recipe: []types.RecipeStep{
			{Step: 1, Instruction: "Marinate."},
			{Step: 2, Instruction: "Grill."},
		},
		Allergens:      []string{"dairy"},
		ServingSize:    "150g",
		Cuisine:        "Indian",
		Classification: types.ClassVegetarian,
	}
}

func foodJSON(t *testing.T, rec types.FoodRecord) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"food": rec})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

var testImage = datauri.Encode("image/jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 1, 2, 3})

// fakeCompleter implements Completer for testing
type fakeCompleter struct {
	text string
	err  error

	calls      int
	lastPrompt string
	lastImage  *Image
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, image *Image) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastImage = image
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.text, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }
