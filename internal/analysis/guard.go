package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/hyperengineering/foodlens/internal/datauri"
	"github.com/hyperengineering/foodlens/internal/types"
)

// LabelDetector is the subset of the Rekognition client used by LabelGuard.
type LabelDetector interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// DefaultFoodLabels are Rekognition labels that count as food.
var DefaultFoodLabels = []string{"Food", "Meal", "Dish", "Dessert", "Fruit", "Vegetable", "Bread", "Drink", "Beverage", "Produce"}

const (
	guardMaxLabels     = 20
	guardMinConfidence = 60
)

// Compile-time interface check
var _ Gateway = (*LabelGuard)(nil)

// LabelGuard rejects photos that Rekognition does not label as food
// before they reach the oracle. Name queries pass through.
type LabelGuard struct {
	next     Gateway
	detector LabelDetector
	labels   map[string]struct{}
}

// NewLabelGuard wraps next with a food check. An empty labels list uses
// DefaultFoodLabels.
func NewLabelGuard(next Gateway, detector LabelDetector, labels []string) *LabelGuard {
	if len(labels) == 0 {
		labels = DefaultFoodLabels
	}
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[strings.ToLower(l)] = struct{}{}
	}
	return &LabelGuard{next: next, detector: detector, labels: set}
}

// NewRekognitionDetector builds a Rekognition client for region using the
// default AWS credential chain.
func NewRekognitionDetector(ctx context.Context, region string) (*rekognition.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return rekognition.NewFromConfig(cfg), nil
}

// AnalyzeByImage checks the photo's labels, then delegates.
func (g *LabelGuard) AnalyzeByImage(ctx context.Context, uri string) (*types.FoodRecord, error) {
	_, data, err := datauri.Decode(uri)
	if err != nil {
		return nil, failure(KindMalformed, "image is not a valid data URI", err)
	}

	out, err := g.detector.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &rektypes.Image{Bytes: data},
		MaxLabels:     aws.Int32(guardMaxLabels),
		MinConfidence: aws.Float32(guardMinConfidence),
	})
	if err != nil {
		return nil, failure(KindTransport, "food check failed", err)
	}

	if !g.isFood(out.Labels) {
		slog.Info("image rejected by food check",
			"component", "analysis",
			"action", "not_food",
			"labels", labelNames(out.Labels),
		)
		return nil, failure(KindNotFood, "No food item was recognised in this image.", nil)
	}
	return g.next.AnalyzeByImage(ctx, uri)
}

// AnalyzeByName delegates unchanged.
func (g *LabelGuard) AnalyzeByName(ctx context.Context, name string) (*types.FoodRecord, error) {
	return g.next.AnalyzeByName(ctx, name)
}

func (g *LabelGuard) isFood(labels []rektypes.Label) bool {
	for _, l := range labels {
		if g.match(l.Name) {
			return true
		}
		for _, p := range l.Parents {
			if g.match(p.Name) {
				return true
			}
		}
	}
	return false
}

func (g *LabelGuard) match(name *string) bool {
	if name == nil {
		return false
	}
	_, ok := g.labels[strings.ToLower(*name)]
	return ok
}

func labelNames(labels []rektypes.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, aws.ToString(l.Name))
	}
	return names
}
