package analysis

import (
	"fmt"
	"strings"
)

const responseContract = `Respond with a single JSON object and nothing else. Use exactly one of
these two shapes:

{"error": {"reason": "short explanation for the user"}}

{"food": {
  "name": "string",
  "confidence": "high" | "medium" | "low",
  "nutrition": {
    "calories": number, "protein": number, "carbs": number, "fat": number,
    "fiber": number (optional), "sugar": number (optional),
    "vitamins": ["string"] (optional)
  },
  "ingredients": ["string"],
  "recipe": [{"step": 1, "instruction": "string"}],
  "allergens": ["string"],
  "servingSize": "string",
  "cuisine": "string",
  "classification": "vegetarian" | "non-vegetarian" | "vegan",
  "tips": ["string"] (optional)
}}

Nutrition values are per serving, in kcal and grams, and never negative.
Recipe steps are numbered from 1 with no gaps.`

// SystemPrompt frames every oracle request.
const SystemPrompt = "You are a nutritionist and chef. You identify dishes and describe their nutrition, ingredients and preparation."

// ImagePrompt asks the oracle to identify the dish in an attached photo.
func ImagePrompt() string {
	return "Identify the food in this photo and describe it.\n" +
		"If the photo does not show food, use the error shape.\n\n" +
		responseContract
}

// NamePrompt asks the oracle to describe a dish by name.
func NamePrompt(name string) string {
	return fmt.Sprintf("Describe the dish %q.\n"+
		"If this is not a food or dish, use the error shape.\n\n%s",
		strings.TrimSpace(name), responseContract)
}
