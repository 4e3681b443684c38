// Package workflow implements the capture-analyze-persist state machine.
//
// The Controller serialises transitions with a mutex and releases it while
// an analysis is in flight, so state reads, error dismissal and history
// selection stay responsive. Trigger methods block until their transition
// chain settles and return the resulting snapshot. Device and analysis
// failures are reported through the Error mode, not as returned errors;
// returned errors mean the trigger itself was refused.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/foodlens/internal/analysis"
	"github.com/hyperengineering/foodlens/internal/capture"
	"github.com/hyperengineering/foodlens/internal/datauri"
	"github.com/hyperengineering/foodlens/internal/history"
	"github.com/hyperengineering/foodlens/internal/types"
	"github.com/hyperengineering/foodlens/internal/validation"
)

// Camera is the media capture manager contract.
type Camera interface {
	Start(ctx context.Context) error
	Stop() error
	Capture(ctx context.Context) (string, error)
}

// History is the subset of the history store the controller uses.
type History interface {
	RecordSuccess(ctx context.Context, entry types.HistoryEntry) error
	Find(id string) (types.HistoryEntry, error)
}

// Archiver receives photos of successful analyses.
type Archiver interface {
	Upload(ctx context.Context, entryID, mimeType string, data []byte) (string, error)
}

// Options tunes a Controller.
type Options struct {
	Policy         Policy
	Timeout        time.Duration // zero disables the analysis timeout
	MaxUploadBytes int64
	Archiver       Archiver
	Now            func() time.Time
}

const subscriberBuffer = 16

// Controller drives the workflow.
type Controller struct {
	camera  Camera
	gateway analysis.Gateway
	history History
	opts    Options

	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	subs     map[int]chan State
	nextSub  int
	closed   bool
	archives sync.WaitGroup
}

// New returns a Controller in Idle mode.
func New(camera Camera, gateway analysis.Gateway, hist History, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = capture.DefaultMaxUploadBytes
	}
	return &Controller{
		camera:  camera,
		gateway: gateway,
		history: hist,
		opts:    opts,
		state:   State{Mode: ModeIdle},
		subs:    make(map[int]chan State),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel of snapshots, one per transition, and a
// function that unsubscribes. Slow subscribers miss snapshots rather than
// block transitions.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// StartCamera opens the camera from Idle, Result or Error.
func (c *Controller) StartCamera(ctx context.Context) (State, error) {
	return c.startCamera(ctx, "start_camera", ModeIdle, ModeResult, ModeError)
}

// NewScan reopens the camera from Result or Error.
func (c *Controller) NewScan(ctx context.Context) (State, error) {
	return c.startCamera(ctx, "new_scan", ModeResult, ModeError)
}

func (c *Controller) startCamera(ctx context.Context, trigger string, from ...Mode) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptLocked(trigger, false, from...); err != nil {
		return c.state, err
	}

	if err := c.camera.Start(ctx); err != nil {
		msg := "Unable to access the camera. Please check permissions."
		var derr *capture.DeviceError
		if errors.As(err, &derr) {
			msg = derr.Message
		}
		c.setLocked(State{Mode: ModeError, Error: msg})
		return c.state, nil
	}

	c.setLocked(State{Mode: ModeCameraActive, Source: SourceCamera})
	return c.state, nil
}

// CancelCamera closes the camera and returns to Idle.
func (c *Controller) CancelCamera() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptLocked("cancel_camera", false, ModeCameraActive); err != nil {
		return c.state, err
	}
	if err := c.camera.Stop(); err != nil {
		slog.Warn("camera stop failed", "component", "workflow", "error", err)
	}
	c.setLocked(State{Mode: ModeIdle})
	return c.state, nil
}

// Capture takes a photo from the active camera and analyses it.
func (c *Controller) Capture(ctx context.Context) (State, error) {
	c.mu.Lock()
	if err := c.acceptLocked("capture", false, ModeCameraActive); err != nil {
		defer c.mu.Unlock()
		return c.state, err
	}

	image, err := c.camera.Capture(ctx)
	if err != nil {
		slog.Warn("capture failed", "component", "workflow", "action", "capture_failed", "error", err)
		c.setLocked(State{Mode: ModeError, Error: msgCaptureFailed})
		defer c.mu.Unlock()
		return c.state, nil
	}

	c.setLocked(State{Mode: ModeCaptured, Source: SourceCamera, Image: image})
	return c.analyzeLocked(ctx, SourceCamera, image, "")
}

// Upload decodes an image file and analyses it.
func (c *Controller) Upload(ctx context.Context, r io.Reader, contentType string) (State, error) {
	image, err := capture.EncodeUpload(r, contentType, c.opts.MaxUploadBytes)
	if err != nil {
		return c.State(), fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	c.mu.Lock()
	if err := c.acceptLocked("upload", true, ModeIdle, ModeResult, ModeError); err != nil {
		defer c.mu.Unlock()
		return c.state, err
	}

	c.setLocked(State{Mode: ModeCaptured, Source: SourceUpload, Image: image})
	return c.analyzeLocked(ctx, SourceUpload, image, "")
}

// Search analyses a dish by name. Search results are never recorded in history.
func (c *Controller) Search(ctx context.Context, name string) (State, error) {
	if errs := validation.ValidateSearchName(name); len(errs) > 0 {
		return c.State(), fmt.Errorf("%w: %s", ErrInvalidQuery, validation.Summary(errs))
	}

	c.mu.Lock()
	if err := c.acceptLocked("search", true, ModeIdle, ModeResult, ModeError); err != nil {
		defer c.mu.Unlock()
		return c.state, err
	}
	return c.analyzeLocked(ctx, SourceSearch, "", name)
}

// DismissError returns from Error to Idle. In any other mode it is a no-op.
func (c *Controller) DismissError() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.state, ErrClosed
	}
	if c.state.Mode == ModeError {
		c.setLocked(State{Mode: ModeIdle})
	}
	return c.state, nil
}

// Clear discards the current result.
func (c *Controller) Clear() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptLocked("clear", false, ModeResult); err != nil {
		return c.state, err
	}
	c.setLocked(State{Mode: ModeIdle})
	return c.state, nil
}

// SelectHistory re-displays a stored entry without re-analysis.
func (c *Controller) SelectHistory(id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptLocked("select_history", false, ModeIdle, ModeResult, ModeError); err != nil {
		return c.state, err
	}
	entry, err := c.history.Find(id)
	if err != nil {
		return c.state, err
	}

	record := entry.Record
	c.setLocked(State{
		Mode:    ModeResult,
		Source:  SourceHistory,
		Image:   entry.Image,
		Record:  &record,
		EntryID: entry.ID,
	})
	return c.state, nil
}

// Close cancels any in-flight analysis, releases the camera and ends all
// subscriptions. It waits for pending archive uploads.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	err := c.camera.Stop()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.archives.Wait()
	return err
}

// acceptLocked checks that trigger may fire in the current mode. For
// analysis triggers an in-flight request is rejected or cancelled per policy.
func (c *Controller) acceptLocked(trigger string, startsAnalysis bool, from ...Mode) error {
	if c.closed {
		return ErrClosed
	}
	mode := c.state.Mode
	if mode == ModeAnalyzing {
		if !startsAnalysis || c.opts.Policy == PolicyReject {
			slog.Info("trigger rejected while analyzing",
				"component", "workflow",
				"action", "busy",
				"trigger", trigger,
			)
			return ErrBusy
		}
		slog.Info("replacing in-flight analysis",
			"component", "workflow",
			"action", "replace",
			"trigger", trigger,
		)
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		return nil
	}
	if !mode.in(from...) {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, mode)
	}
	return nil
}

// analyzeLocked moves to Analyzing, calls the gateway without holding the
// lock and applies the outcome if no newer request has superseded it.
// It is entered with c.mu held and returns with it released.
func (c *Controller) analyzeLocked(ctx context.Context, source Source, image, query string) (State, error) {
	c.gen++
	gen := c.gen

	// The workflow outlives the triggering caller: only the timeout, a
	// superseding request or Close may end the analysis.
	base := context.WithoutCancel(ctx)
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if c.opts.Timeout > 0 {
		actx, cancel = context.WithTimeout(base, c.opts.Timeout)
	} else {
		actx, cancel = context.WithCancel(base)
	}
	c.cancel = cancel
	c.setLocked(State{Mode: ModeAnalyzing, Source: source, Image: image, Query: query})
	c.mu.Unlock()

	start := c.opts.Now()
	var (
		record *types.FoodRecord
		err    error
	)
	if image != "" {
		record, err = c.gateway.AnalyzeByImage(actx, image)
	} else {
		record, err = c.gateway.AnalyzeByName(actx, query)
	}
	timedOut := errors.Is(actx.Err(), context.DeadlineExceeded)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		slog.Debug("discarding superseded analysis", "component", "workflow", "source", source)
		return c.state, nil
	}
	c.cancel = nil

	if err != nil {
		msg := analysis.UserMessage(err)
		if timedOut {
			msg = msgAnalysisTimeout
		}
		slog.Warn("analysis failed",
			"component", "workflow",
			"action", "analysis_failed",
			"source", source,
			"timed_out", timedOut,
			"error", err,
		)
		c.setLocked(State{Mode: ModeError, Error: msg})
		return c.state, nil
	}

	next := State{Mode: ModeResult, Source: source, Image: image, Query: query, Record: record}
	if image != "" {
		entry := history.NewEntry(image, *record, c.opts.Now())
		if err := c.history.RecordSuccess(base, entry); err != nil {
			slog.Error("history persist failed",
				"component", "workflow",
				"action", "persist_failed",
				"entry_id", entry.ID,
				"error", err,
			)
		} else {
			next.EntryID = entry.ID
			c.archiveAsync(entry)
		}
	}

	slog.Info("analysis succeeded",
		"component", "workflow",
		"action", "result",
		"source", source,
		"dish", record.Name,
		"duration_ms", c.opts.Now().Sub(start).Milliseconds(),
	)
	c.setLocked(next)
	return c.state, nil
}

// archiveAsync hands the photo to the archiver. Failures are logged only.
func (c *Controller) archiveAsync(entry types.HistoryEntry) {
	if c.opts.Archiver == nil {
		return
	}
	mime, data, err := datauri.Decode(entry.Image)
	if err != nil {
		slog.Warn("archive skipped", "component", "workflow", "entry_id", entry.ID, "error", err)
		return
	}

	c.archives.Add(1)
	go func() {
		defer c.archives.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key, err := c.opts.Archiver.Upload(ctx, entry.ID, mime, data)
		if err != nil {
			slog.Warn("archive upload failed",
				"component", "workflow",
				"action", "archive_failed",
				"entry_id", entry.ID,
				"error", err,
			)
			return
		}
		if key != "" {
			slog.Debug("photo archived", "component", "workflow", "entry_id", entry.ID, "key", key)
		}
	}()
}

// setLocked installs next as the current state and notifies subscribers.
func (c *Controller) setLocked(next State) {
	prev := c.state.Mode
	next.Seq = c.state.Seq + 1
	c.state = next

	slog.Debug("workflow transition",
		"component", "workflow",
		"from", prev,
		"mode", next.Mode,
		"seq", next.Seq,
	)

	for _, ch := range c.subs {
		select {
		case ch <- next:
		default:
		}
	}
}
