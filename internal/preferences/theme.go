// Package preferences persists user presentation preferences.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hyperengineering/foodlens/internal/kv"
	"github.com/hyperengineering/foodlens/internal/types"
)

// ThemeKey is the kv key holding the theme.
const ThemeKey = "theme"

// DefaultTheme is used when nothing valid is persisted.
const DefaultTheme = types.ThemeLight

// ErrInvalidTheme is returned by Set for values other than light or dark.
var ErrInvalidTheme = errors.New("invalid theme")

// ThemeStore holds the current theme and persists changes.
type ThemeStore struct {
	kv kv.Store

	mu    sync.RWMutex
	theme types.Theme
}

// NewThemeStore returns a store reporting DefaultTheme until Load is called.
func NewThemeStore(s kv.Store) *ThemeStore {
	return &ThemeStore{kv: s, theme: DefaultTheme}
}

// Load reads the persisted theme. Absent or unrecognised values fall back
// to DefaultTheme.
func (t *ThemeStore) Load(ctx context.Context) types.Theme {
	theme := DefaultTheme

	raw, ok, err := t.kv.Get(ctx, ThemeKey)
	switch {
	case err != nil:
		slog.Warn("theme unreadable, using default",
			"component", "preferences",
			"error", err,
		)
	case ok && types.Theme(raw).Valid():
		theme = types.Theme(raw)
	case ok:
		slog.Warn("theme corrupt, using default",
			"component", "preferences",
			"value", raw,
		)
	}

	t.mu.Lock()
	t.theme = theme
	t.mu.Unlock()
	return theme
}

// Get returns the current theme.
func (t *ThemeStore) Get() types.Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.theme
}

// Set persists theme and makes it current.
func (t *ThemeStore) Set(ctx context.Context, theme types.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.kv.Set(ctx, ThemeKey, string(theme)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	t.theme = theme
	return nil
}

// Toggle switches between light and dark and returns the new theme.
func (t *ThemeStore) Toggle(ctx context.Context) (types.Theme, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.theme.Opposite()
	if err := t.kv.Set(ctx, ThemeKey, string(next)); err != nil {
		return t.theme, fmt.Errorf("persist theme: %w", err)
	}
	t.theme = next
	return next, nil
}
