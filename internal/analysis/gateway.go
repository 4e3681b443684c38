// Package analysis is the request/response boundary to the food-analysis
// oracle. Providers turn a prompt (and optional image) into raw text; the
// Client parses and validates that text into a FoodRecord.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperengineering/foodlens/internal/types"
)

// Gateway analyzes a dish by photo or by name.
type Gateway interface {
	AnalyzeByImage(ctx context.Context, dataURI string) (*types.FoodRecord, error)
	AnalyzeByName(ctx context.Context, name string) (*types.FoodRecord, error)
}

// ErrAnalysisFailed matches every *AnalysisFailure via errors.Is.
var ErrAnalysisFailed = errors.New("analysis failed")

// ErrEmptyName is returned by AnalyzeByName for a blank query.
var ErrEmptyName = errors.New("dish name is required")

// FailureKind classifies an AnalysisFailure.
type FailureKind string

const (
	KindTransport     FailureKind = "transport"
	KindMalformed     FailureKind = "malformed"
	KindNotFood       FailureKind = "not_food"
	KindInvalidRecord FailureKind = "invalid_record"
)

// AnalysisFailure is the uniform failure surface of a Gateway.
type AnalysisFailure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (f *AnalysisFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

func (f *AnalysisFailure) Unwrap() error { return f.Err }

// Is reports true for ErrAnalysisFailed.
func (f *AnalysisFailure) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// Message returns the user-facing text for the failure.
func (f *AnalysisFailure) Message() string {
	switch f.Kind {
	case KindTransport:
		return "Could not reach the food analysis service. Please try again."
	case KindNotFood:
		if f.Reason != "" {
			return f.Reason
		}
		return "No food item was recognised in this image."
	default:
		return "The food analysis service returned an unusable response. Please try again."
	}
}

func failure(kind FailureKind, reason string, err error) *AnalysisFailure {
	return &AnalysisFailure{Kind: kind, Reason: reason, Err: err}
}

// UserMessage returns the user-facing text for err. AnalysisFailures use
// their own message; anything else falls back to a generic one.
func UserMessage(err error) string {
	var f *AnalysisFailure
	if errors.As(err, &f) {
		return f.Message()
	}
	return "Failed to analyze food. Please try again."
}
