package analysis

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hyperengineering/foodlens/internal/types"
	"github.com/hyperengineering/foodlens/internal/validation"
)

type oracleResponse struct {
	Error *struct {
		Reason string `json:"reason"`
	} `json:"error"`
	Food *types.FoodRecord `json:"food"`
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseResponse decodes raw oracle text into a validated FoodRecord.
// Every failure is an *AnalysisFailure.
func ParseResponse(text string) (*types.FoodRecord, error) {
	body := stripFences(text)
	if body == "" {
		return nil, failure(KindMalformed, "empty oracle response", nil)
	}

	var resp oracleResponse
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(&resp); err != nil {
		return nil, failure(KindMalformed, "unparseable oracle response", err)
	}

	switch {
	case resp.Error != nil:
		reason := strings.TrimSpace(resp.Error.Reason)
		if reason == "" {
			reason = "No food item was recognised."
		}
		return nil, failure(KindNotFood, reason, nil)
	case resp.Food == nil:
		return nil, failure(KindMalformed, "oracle response has neither food nor error", nil)
	}

	normalizeLabels(resp.Food)
	if errs := validation.ValidateFoodRecord(resp.Food); len(errs) > 0 {
		return nil, failure(KindInvalidRecord, "oracle returned an invalid record: "+validation.Summary(errs), nil)
	}
	return resp.Food, nil
}

var labelReplacer = strings.NewReplacer(" ", "-", "_", "-")

// normalizeLabels lower-cases the categorical fields; classification
// separators become hyphens ("Non_Vegetarian" -> "non-vegetarian").
func normalizeLabels(rec *types.FoodRecord) {
	rec.Confidence = types.Confidence(strings.ToLower(strings.TrimSpace(string(rec.Confidence))))
	class := strings.ToLower(strings.TrimSpace(string(rec.Classification)))
	rec.Classification = types.Classification(labelReplacer.Replace(class))
}
