package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/foodlens/internal/analysis"
	"github.com/hyperengineering/foodlens/internal/archive"
	"github.com/hyperengineering/foodlens/internal/capture"
	"github.com/hyperengineering/foodlens/internal/config"
	"github.com/hyperengineering/foodlens/internal/kv"
	"github.com/hyperengineering/foodlens/internal/types"
	"github.com/hyperengineering/foodlens/internal/workflow"
)

// stubGateway implements analysis.Gateway for testing
type stubGateway struct{}

func (stubGateway) AnalyzeByImage(ctx context.Context, uri string) (*types.FoodRecord, error) {
	return &types.FoodRecord{Name: "Dosa", Confidence: types.ConfidenceHigh, Classification: types.ClassVegan}, nil
}

func (stubGateway) AnalyzeByName(ctx context.Context, name string) (*types.FoodRecord, error) {
	return &types.FoodRecord{Name: name, Confidence: types.ConfidenceLow, Classification: types.ClassVegan}, nil
}

var _ analysis.Gateway = stubGateway{}

type countingCloser struct{ n int }

func (c *countingCloser) Close() error { c.n++; return nil }

func TestInit_FreshStart(t *testing.T) {
	a := Assemble(Parts{
		Store:   kv.NewMemoryStore(),
		Gateway: stubGateway{},
		Device:  capture.NewSyntheticDevice(8, 8),
	}, workflow.Options{}, 80)
	defer a.Teardown()

	a.Init(context.Background())

	if n := len(a.History.Get()); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
	if got := a.Theme.Get(); got != types.ThemeLight {
		t.Errorf("theme = %q, want light", got)
	}
	if st := a.Workflow.State(); st.Mode != workflow.ModeIdle {
		t.Errorf("mode = %s, want idle", st.Mode)
	}
	if _, ok := a.Archive.(*archive.NoopUploader); !ok {
		t.Errorf("Archive = %T, want NoopUploader", a.Archive)
	}
}

func TestInit_CorruptStateFallsBack(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, "history", "{not json")
	store.Set(ctx, "theme", "purple")

	a := Assemble(Parts{Store: store, Gateway: stubGateway{}, Device: capture.NewSyntheticDevice(8, 8)}, workflow.Options{}, 80)
	defer a.Teardown()
	a.Init(ctx)

	if n := len(a.History.Get()); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
	if got := a.Theme.Get(); got != types.ThemeLight {
		t.Errorf("theme = %q, want light", got)
	}
}

func TestTeardown_ReleasesCameraAndClosers(t *testing.T) {
	dev := capture.NewSyntheticDevice(8, 8)
	closer := &countingCloser{}
	store := kv.NewMemoryStore()
	a := Assemble(Parts{Store: store, Gateway: stubGateway{}, Device: dev, Closers: []io.Closer{closer}}, workflow.Options{}, 80)
	a.Init(context.Background())

	if _, err := a.Workflow.StartCamera(context.Background()); err != nil {
		t.Fatalf("StartCamera() error = %v", err)
	}
	if dev.Live() != 1 {
		t.Fatalf("live = %d, want 1", dev.Live())
	}

	if err := a.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	if dev.Live() != 0 {
		t.Errorf("live = %d after Teardown, want 0", dev.Live())
	}
	if closer.n != 1 {
		t.Errorf("closer called %d times, want 1", closer.n)
	}
	if err := store.Set(context.Background(), "k", "v"); err == nil {
		t.Error("store still writable after Teardown")
	}
}

func TestNew_FromConfig(t *testing.T) {
	t.Setenv("FOODLENS_DEV_MODE", "true")
	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "foodlens.db")},
		Analysis: config.AnalysisConfig{
			Provider:       config.ProviderOpenAI,
			APIKey:         "sk-test",
			Model:          "gpt-4o",
			InFlightPolicy: config.PolicyReplace,
		},
		Capture: config.CaptureConfig{Device: config.DeviceSynthetic, Width: 16, Height: 16, JPEGQuality: 80},
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Teardown()
	a.Init(context.Background())

	h := a.Health("test")
	if h.Provider != "openai" || h.Status != "healthy" || h.Version != "test" {
		t.Errorf("Health() = %+v", h)
	}
	if h.SchemaVersion < 1 {
		t.Errorf("SchemaVersion = %d, want >= 1", h.SchemaVersion)
	}
}

func TestNew_BadPolicy(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "foodlens.db")},
		Analysis: config.AnalysisConfig{Provider: config.ProviderOpenAI, InFlightPolicy: "queue"},
		Capture:  config.CaptureConfig{Device: config.DeviceSynthetic, Width: 4, Height: 4},
	}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() error = nil, want policy error")
	}
}

func TestNewDevice(t *testing.T) {
	if _, ok := newDevice(config.CaptureConfig{Device: config.DeviceFile, FilePath: "x.jpg"}).(capture.FileDevice); !ok {
		t.Error("file device not selected")
	}
	if _, ok := newDevice(config.CaptureConfig{Device: config.DeviceSynthetic, Width: 2, Height: 2}).(*capture.SyntheticDevice); !ok {
		t.Error("synthetic device not selected")
	}
}
