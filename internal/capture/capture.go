package capture

import (
	"context"

	"hyprshot/internal/geometry"
)

// Result is the captured image together with the geometry it covers.
// Produced once per invocation, consumed once by the output router.
type Result struct {
	PNG    []byte
	Region geometry.Region
}

// Capturer defines the interface for the capture backend
type Capturer interface {
	// CaptureRegion captures the given physical-pixel rectangle and
	// returns the encoded PNG bytes
	CaptureRegion(ctx context.Context, region geometry.Region) (*Result, error)

	// CaptureOutput captures a whole named output directly, the region
	// being that output's physical rectangle
	CaptureOutput(ctx context.Context, name string, region geometry.Region) (*Result, error)

	// Name returns a human-readable name for this backend
	Name() string
}
