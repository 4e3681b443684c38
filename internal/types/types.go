package types

import (
	"slices"
	"time"
)

// Confidence is the oracle's categorical certainty about an identification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Classification is the dietary class of a dish.
type Classification string

const (
	ClassVegetarian    Classification = "vegetarian"
	ClassNonVegetarian Classification = "non-vegetarian"
	ClassVegan         Classification = "vegan"
)

// Classifications lists every accepted Classification value.
var Classifications = []string{
	string(ClassVegetarian),
	string(ClassNonVegetarian),
	string(ClassVegan),
}

// Confidences lists every accepted Confidence value.
var Confidences = []string{
	string(ConfidenceHigh),
	string(ConfidenceMedium),
	string(ConfidenceLow),
}

// Nutrition holds per-serving nutrient values.
// Fiber and Sugar are optional; nil means the oracle did not report them.
type Nutrition struct {
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Vitamins []string `json:"vitamins,omitempty"`
}

// RecipeStep is one numbered instruction of a recipe.
type RecipeStep struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
}

// FoodRecord is the structured description the analysis oracle returns
// for a dish.
type FoodRecord struct {
	Name           string         `json:"name"`
	Confidence     Confidence     `json:"confidence"`
	Nutrition      Nutrition      `json:"nutrition"`
	Ingredients    []string       `json:"ingredients"`
	Recipe         []RecipeStep   `json:"recipe"`
	Allergens      []string       `json:"allergens"`
	ServingSize    string         `json:"servingSize"`
	Cuisine        string         `json:"cuisine"`
	Classification Classification `json:"classification"`
	Tips           []string       `json:"tips,omitempty"`
}

// Clone returns a deep copy of r.
func (r FoodRecord) Clone() FoodRecord {
	out := r
	out.Nutrition.Fiber = cloneFloat(r.Nutrition.Fiber)
	out.Nutrition.Sugar = cloneFloat(r.Nutrition.Sugar)
	out.Nutrition.Vitamins = slices.Clone(r.Nutrition.Vitamins)
	out.Ingredients = slices.Clone(r.Ingredients)
	out.Recipe = slices.Clone(r.Recipe)
	out.Allergens = slices.Clone(r.Allergens)
	out.Tips = slices.Clone(r.Tips)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// HistoryEntry is one persisted image analysis. Entries are write-once.
type HistoryEntry struct {
	ID        string     `json:"id"`
	Timestamp int64      `json:"timestamp"` // milliseconds since epoch
	Image     string     `json:"image"`     // data URI of the analysed photo
	Record    FoodRecord `json:"record"`
}

// Clone returns a deep copy of e.
func (e HistoryEntry) Clone() HistoryEntry {
	e.Record = e.Record.Clone()
	return e
}

// CreatedAt returns the entry's creation time.
func (e HistoryEntry) CreatedAt() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// Theme is the persisted presentation theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Provider      string `json:"provider"`
	HistoryCount  int    `json:"history_count"`
	SchemaVersion int    `json:"schema_version"`
}

// SearchRequest is the body of a dish-name search.
type SearchRequest struct {
	Name string `json:"name"`
}

// ThemeRequest is the body of a theme update.
type ThemeRequest struct {
	Theme Theme `json:"theme"`
}

// ThemeResponse reports the current theme.
type ThemeResponse struct {
	Theme Theme `json:"theme"`
}

// HistoryResponse lists history entries newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
}
