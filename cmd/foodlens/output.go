package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hyperengineering/foodlens/internal/types"
)

var jsonOutput bool

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatGrams(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f g", *v)
}

// printRecord renders a FoodRecord for terminals.
func printRecord(out io.Writer, rec types.FoodRecord) error {
	w := newTabWriter(out)
	fmt.Fprintf(w, "Name:\t%s\n", rec.Name)
	fmt.Fprintf(w, "Cuisine:\t%s\n", orDash(rec.Cuisine))
	fmt.Fprintf(w, "Classification:\t%s\n", rec.Classification)
	fmt.Fprintf(w, "Confidence:\t%s\n", rec.Confidence)
	fmt.Fprintf(w, "Serving size:\t%s\n", orDash(rec.ServingSize))
	fmt.Fprintf(w, "Calories:\t%.0f kcal\n", rec.Nutrition.Calories)
	fmt.Fprintf(w, "Protein:\t%.1f g\n", rec.Nutrition.Protein)
	fmt.Fprintf(w, "Carbs:\t%.1f g\n", rec.Nutrition.Carbs)
	fmt.Fprintf(w, "Fat:\t%.1f g\n", rec.Nutrition.Fat)
	fmt.Fprintf(w, "Fiber:\t%s\n", formatGrams(rec.Nutrition.Fiber))
	fmt.Fprintf(w, "Sugar:\t%s\n", formatGrams(rec.Nutrition.Sugar))
	fmt.Fprintf(w, "Ingredients:\t%s\n", orDash(strings.Join(rec.Ingredients, ", ")))
	fmt.Fprintf(w, "Allergens:\t%s\n", orDash(strings.Join(rec.Allergens, ", ")))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rec.Recipe) > 0 {
		fmt.Fprintln(out, "\nRecipe:")
		for _, step := range rec.Recipe {
			fmt.Fprintf(out, "  %d. %s\n", step.Step, step.Instruction)
		}
	}
	if len(rec.Tips) > 0 {
		fmt.Fprintln(out, "\nTips:")
		for _, tip := range rec.Tips {
			fmt.Fprintf(out, "  - %s\n", tip)
		}
	}
	return nil
}
