// Package app owns the long-lived collaborators of a FoodLens process and
// their lifecycle. Nothing here is global: commands and the HTTP server
// receive an *App explicitly.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hyperengineering/foodlens/internal/analysis"
	"github.com/hyperengineering/foodlens/internal/archive"
	"github.com/hyperengineering/foodlens/internal/capture"
	"github.com/hyperengineering/foodlens/internal/config"
	"github.com/hyperengineering/foodlens/internal/history"
	"github.com/hyperengineering/foodlens/internal/kv"
	"github.com/hyperengineering/foodlens/internal/preferences"
	"github.com/hyperengineering/foodlens/internal/types"
	"github.com/hyperengineering/foodlens/internal/workflow"
)

// App is the application context.
type App struct {
	Store    kv.Store
	History  *history.Store
	Theme    *preferences.ThemeStore
	Camera   *capture.Manager
	Gateway  analysis.Gateway
	Archive  archive.Uploader
	Workflow *workflow.Controller
	Provider string

	// MaxUploadBytes bounds uploaded photos.
	MaxUploadBytes int64

	closers []io.Closer
}

// Parts are the externally built collaborators handed to Assemble.
type Parts struct {
	Store    kv.Store
	Gateway  analysis.Gateway
	Device   capture.Device
	Archive  archive.Uploader
	Provider string
	Closers  []io.Closer
}

// New builds an App from configuration: SQLite store, analysis provider
// (with optional food check), capture device and archive uploader.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := kv.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	gateway, provider, closer, err := newGateway(ctx, cfg.Analysis)
	if err != nil {
		store.Close()
		return nil, err
	}
	slog.Info("analysis gateway initialized",
		"provider", provider,
		"food_check", cfg.Analysis.FoodCheck.Enabled,
	)

	uploader, err := archive.NewUploader(cfg.Archive)
	if err != nil {
		store.Close()
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	parts := Parts{
		Store:    store,
		Gateway:  gateway,
		Device:   newDevice(cfg.Capture),
		Archive:  uploader,
		Provider: provider,
	}
	if closer != nil {
		parts.Closers = append(parts.Closers, closer)
	}

	policy, err := workflow.ParsePolicy(cfg.Analysis.InFlightPolicy)
	if err != nil {
		parts.close()
		return nil, err
	}

	return Assemble(parts, workflow.Options{
		Policy:         policy,
		Timeout:        time.Duration(cfg.Analysis.Timeout),
		MaxUploadBytes: cfg.Capture.MaxUploadBytes,
	}, cfg.Capture.JPEGQuality), nil
}

// Assemble wires an App from prebuilt parts. A nil Archive disables archiving.
func Assemble(p Parts, opts workflow.Options, jpegQuality int) *App {
	a := &App{
		Store:    p.Store,
		History:  history.NewStore(p.Store),
		Theme:    preferences.NewThemeStore(p.Store),
		Camera:   capture.NewManager(p.Device, jpegQuality),
		Gateway:  p.Gateway,
		Archive:  p.Archive,
		Provider: p.Provider,
		closers:  p.Closers,
	}
	a.MaxUploadBytes = opts.MaxUploadBytes
	if a.MaxUploadBytes <= 0 {
		a.MaxUploadBytes = capture.DefaultMaxUploadBytes
	}
	if a.Archive == nil {
		a.Archive = &archive.NoopUploader{}
	}
	if _, noop := a.Archive.(*archive.NoopUploader); !noop && opts.Archiver == nil {
		opts.Archiver = a.Archive
	}
	a.Workflow = workflow.New(a.Camera, a.Gateway, a.History, opts)
	return a
}

// Init loads persisted state. Corrupt or missing data falls back to
// defaults and is never an error.
func (a *App) Init(ctx context.Context) {
	entries := a.History.Load(ctx)
	theme := a.Theme.Load(ctx)
	slog.Info("app initialized",
		"component", "app",
		"history_count", len(entries),
		"theme", theme,
	)
}

// Teardown releases the camera, stops the workflow and closes storage.
func (a *App) Teardown() error {
	var errs []error
	if err := a.Workflow.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close workflow: %w", err))
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// Health summarises the app for the health endpoint.
func (a *App) Health(version string) types.HealthResponse {
	resp := types.HealthResponse{
		Status:       "healthy",
		Version:      version,
		Provider:     a.Provider,
		HistoryCount: a.History.Len(),
	}
	if sv, ok := a.Store.(interface{ SchemaVersion() (int64, error) }); ok {
		if v, err := sv.SchemaVersion(); err == nil {
			resp.SchemaVersion = int(v)
		}
	}
	return resp
}

func (p Parts) close() {
	for _, c := range p.Closers {
		c.Close()
	}
	if p.Store != nil {
		p.Store.Close()
	}
}

func newDevice(cfg config.CaptureConfig) capture.Device {
	if cfg.Device == config.DeviceFile {
		return capture.FileDevice{Path: cfg.FilePath}
	}
	return capture.NewSyntheticDevice(cfg.Width, cfg.Height)
}

// newGateway builds the configured provider behind an analysis.Client,
// wrapped in a LabelGuard when the food check is enabled.
func newGateway(ctx context.Context, cfg config.AnalysisConfig) (analysis.Gateway, string, io.Closer, error) {
	var (
		completer analysis.Completer
		closer    io.Closer
	)
	switch cfg.Provider {
	case config.ProviderVertex:
		v, err := analysis.NewVertex(ctx, analysis.VertexConfig{
			ProjectID:       cfg.Vertex.ProjectID,
			Location:        cfg.Vertex.Location,
			CredentialsFile: cfg.Vertex.CredentialsFile,
			Model:           cfg.Vertex.Model,
		})
		if err != nil {
			return nil, "", nil, err
		}
		completer, closer = v, v
	default:
		completer = analysis.NewOpenAI(cfg.APIKey, cfg.Model)
	}

	var gateway analysis.Gateway = analysis.NewClient(completer)
	if cfg.FoodCheck.Enabled {
		detector, err := analysis.NewRekognitionDetector(ctx, cfg.FoodCheck.Region)
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, "", nil, err
		}
		gateway = analysis.NewLabelGuard(gateway, detector, cfg.FoodCheck.Labels)
	}
	return gateway, completer.Name(), closer, nil
}
