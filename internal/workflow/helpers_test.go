package workflow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/foodlens/internal/capture"
	"github.com/hyperengineering/foodlens/internal/history"
	"github.com/hyperengineering/foodlens/internal/kv"
	"github.com/hyperengineering/foodlens/internal/types"
)

func ptr(f float64) *float64 { return &f }

func sampleRecord(name string, calories float64) types.FoodRecord {
	return types.FoodRecord{
		Name:        name,
		Confidence:  types.ConfidenceHigh,
		Nutrition:   types.Nutrition{Calories: calories, Protein: 10, Carbs: 20, Fat: 5, Sugar: ptr(1)},
		Ingredients: []string{"rice", "lentils"},
		Recipe: []types.RecipeStep{
			{Step: 1, Instruction: "Rinse."},
			{Step: 2, Instruction: "Simmer."},
		},
		ServingSize:    "1 bowl",
		Cuisine:        "Indian",
		Classification: types.ClassVegan,
	}
}

// fakeGateway implements analysis.Gateway for testing
type fakeGateway struct {
	mu         sync.Mutex
	record     types.FoodRecord
	err        error
	release    chan struct{} // when non-nil every call waits for it (or ctx)
	slowQuery  string        // name queries equal to this wait for ctx only
	imageCalls int
	nameCalls  int
	started    chan struct{}
}

func newFakeGateway(rec types.FoodRecord) *fakeGateway {
	return &fakeGateway{record: rec, started: make(chan struct{}, 64)}
}

func (g *fakeGateway) AnalyzeByImage(ctx context.Context, uri string) (*types.FoodRecord, error) {
	g.mu.Lock()
	g.imageCalls++
	g.mu.Unlock()
	return g.respond(ctx, "")
}

func (g *fakeGateway) AnalyzeByName(ctx context.Context, name string) (*types.FoodRecord, error) {
	g.mu.Lock()
	g.nameCalls++
	g.mu.Unlock()
	return g.respond(ctx, name)
}

func (g *fakeGateway) respond(ctx context.Context, query string) (*types.FoodRecord, error) {
	g.started <- struct{}{}

	g.mu.Lock()
	release, slow := g.release, g.slowQuery
	rec, err := g.record, g.err
	g.mu.Unlock()

	if slow != "" && query == slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if query != "" {
		rec.Name = query
	}
	return &rec, nil
}

func (g *fakeGateway) calls() (image, name int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.imageCalls, g.nameCalls
}

// fakeArchiver implements Archiver for testing
type fakeArchiver struct {
	mu      sync.Mutex
	uploads []string
	mimes   []string
	err     error
}

func (a *fakeArchiver) Upload(ctx context.Context, entryID, mimeType string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads = append(a.uploads, entryID)
	a.mimes = append(a.mimes, mimeType)
	return "captures/" + entryID, a.err
}

// failingHistory implements History with a failing write path
type failingHistory struct{}

func (failingHistory) RecordSuccess(ctx context.Context, entry types.HistoryEntry) error {
	return errors.New("disk full")
}

func (failingHistory) Find(id string) (types.HistoryEntry, error) {
	return types.HistoryEntry{}, history.ErrNotFound
}

type fixture struct {
	ctrl    *Controller
	device  *capture.SyntheticDevice
	camera  *capture.Manager
	gateway *fakeGateway
	history *history.Store
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dev := capture.NewSyntheticDevice(64, 48)
	cam := capture.NewManager(dev, 80)
	gw := newFakeGateway(sampleRecord("Khichdi", 250))
	hist := history.NewStore(kv.NewMemoryStore())
	hist.Load(context.Background())

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	if opts.Now == nil {
		opts.Now = func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}
	}

	ctrl := New(cam, gw, hist, opts)
	t.Cleanup(func() { ctrl.Close() })
	return &fixture{ctrl: ctrl, device: dev, camera: cam, gateway: gw, history: hist}
}

// captureOnce runs StartCamera then Capture and returns the final state.
func (f *fixture) captureOnce(t *testing.T) State {
	t.Helper()
	ctx := context.Background()
	if st, err := f.ctrl.StartCamera(ctx); err != nil || st.Mode != ModeCameraActive {
		t.Fatalf("StartCamera() = %v, %v; want camera_active", st.Mode, err)
	}
	st, err := f.ctrl.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	return st
}

// waitMode polls until the controller reaches mode.
func waitMode(t *testing.T, c *Controller, mode Mode) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State().Mode == mode {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for mode %s; have %s", mode, c.State().Mode)
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// checkInvariants asserts the per-mode field rules of a snapshot.
func checkInvariants(t *testing.T, st State) {
	t.Helper()
	if (st.Record != nil) != (st.Mode == ModeResult) {
		t.Errorf("seq %d: mode %s with record=%v", st.Seq, st.Mode, st.Record != nil)
	}
	if (st.Error != "") != (st.Mode == ModeError) {
		t.Errorf("seq %d: mode %s with error=%q", st.Seq, st.Mode, st.Error)
	}
	if st.Mode == ModeCaptured && st.Image == "" {
		t.Errorf("seq %d: captured without image", st.Seq)
	}
	if st.Mode.in(ModeIdle, ModeCameraActive, ModeError) && st.Image != "" {
		t.Errorf("seq %d: mode %s carries an image", st.Seq, st.Mode)
	}
}
