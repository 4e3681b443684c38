package workflow

import (
	"fmt"

	"github.com/hyperengineering/foodlens/internal/types"
)

// Mode is the controller's current mode. Exactly one mode is active.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModeCameraActive Mode = "camera_active"
	ModeCaptured     Mode = "captured"
	ModeAnalyzing    Mode = "analyzing"
	ModeResult       Mode = "result"
	ModeError        Mode = "error"
)

// Source records how the current image or result was obtained.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceUpload  Source = "upload"
	SourceSearch  Source = "search"
	SourceHistory Source = "history"
)

// State is an immutable snapshot of the workflow.
//
// Image is set in Captured, in Analyzing for photo analyses and in Result
// for photo or history results. Record is set only in Result. Error is set
// only in Error.
type State struct {
	Mode    Mode              `json:"mode"`
	Source  Source            `json:"source,omitempty"`
	Image   string            `json:"image,omitempty"`
	Query   string            `json:"query,omitempty"`
	Record  *types.FoodRecord `json:"record,omitempty"`
	EntryID string            `json:"entry_id,omitempty"`
	Error   string            `json:"error,omitempty"`
	Seq     uint64            `json:"seq"`
}

// Policy decides what happens to a new analysis trigger while one is in flight.
type Policy int

const (
	// PolicyReject refuses new triggers with ErrBusy.
	PolicyReject Policy = iota
	// PolicyReplace cancels the in-flight request; its result is discarded.
	PolicyReplace
)

func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyReplace:
		return "replace"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "reject" or "replace".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reject", "":
		return PolicyReject, nil
	case "replace":
		return PolicyReplace, nil
	default:
		return PolicyReject, fmt.Errorf("unknown in-flight policy %q", s)
	}
}

func (m Mode) in(modes ...Mode) bool {
	for _, x := range modes {
		if m == x {
			return true
		}
	}
	return false
}
