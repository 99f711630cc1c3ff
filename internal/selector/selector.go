// Package selector drives the interactive selection capability. The
// capability prints a single "<x>,<y> <w>x<h>" line on success; a non-zero
// exit or an unusable line means the user backed out.
package selector

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"hyprshot/internal/domain"
	"hyprshot/internal/geometry"
	"hyprshot/internal/logger"
)

// Box is a labeled rectangle the user can pick from, in layout coordinates.
type Box struct {
	Region geometry.Region
	Label  string
}

// Request describes the selection shape: a free drag by default, a whole
// output pick, or a pick among the given boxes.
type Request struct {
	Outputs bool
	Windows bool
	Boxes   []Box
}

// Runner executes the selection capability and returns its output line.
type Runner interface {
	Run(ctx context.Context, req Request) (string, error)
}

// Selector turns a selection run into a parsed layout-space rectangle.
type Selector struct {
	runner Runner
	log    *zerolog.Logger
}

// New creates a Selector over the given runner.
func New(runner Runner) *Selector {
	return &Selector{runner: runner, log: logger.WithComponent("selector")}
}

// Select runs the capability and parses its answer. Cancellation and
// malformed or empty selections all surface as selection_cancelled: the
// user gets another chance, nothing downstream runs.
func (s *Selector) Select(ctx context.Context, req Request) (geometry.Region, error) {
	line, err := s.runner.Run(ctx, req)
	if err != nil {
		return geometry.Region{}, err
	}

	region, err := geometry.Parse(line)
	if err != nil {
		s.log.Debug().Err(err).Str("line", line).Msg("selection line unusable")
		return geometry.Region{}, &domain.OpError{
			Op:   "selector.parse",
			Kind: domain.KindSelectionCancelled,
			Err:  domain.ErrSelectionCancelled,
		}
	}
	if region.Empty() {
		// Double-clicking without dragging yields a zero-sized box.
		return geometry.Region{}, &domain.OpError{
			Op:   "selector.parse",
			Kind: domain.KindSelectionCancelled,
			Err:  domain.ErrSelectionCancelled,
		}
	}

	s.log.Debug().Stringer("region", region).Msg("selection made")
	return region, nil
}

const selectionBinary = "slurp"

// SlurpRunner invokes slurp with the flag set matching the request shape.
type SlurpRunner struct {
	log *zerolog.Logger
}

// NewSlurpRunner returns the real selection runner.
func NewSlurpRunner() *SlurpRunner {
	return &SlurpRunner{log: logger.WithComponent("slurp")}
}

func slurpArgs(req Request) []string {
	switch {
	case req.Outputs:
		return []string{"-or"}
	case req.Windows:
		return []string{"-r"}
	default:
		return []string{"-d"}
	}
}

// formatBoxes renders boxes in the "<x>,<y> <w>x<h> label" stdin protocol.
func formatBoxes(boxes []Box) string {
	var b strings.Builder
	for _, box := range boxes {
		b.WriteString(box.Region.String())
		if box.Label != "" {
			b.WriteByte(' ')
			b.WriteString(box.Label)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Run executes slurp. A non-zero exit is the user cancelling.
func (r *SlurpRunner) Run(ctx context.Context, req Request) (string, error) {
	path, err := exec.LookPath(selectionBinary)
	if err != nil {
		return "", &domain.OpError{
			Op:   "selector.run",
			Kind: domain.KindCaptureBackend,
			Err:  fmt.Errorf("%s not found in PATH: %w", selectionBinary, err),
		}
	}

	args := slurpArgs(req)
	cmd := exec.CommandContext(ctx, path, args...)
	if len(req.Boxes) > 0 {
		cmd.Stdin = strings.NewReader(formatBoxes(req.Boxes))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Strs("args", args).Int("boxes", len(req.Boxes)).Msg("starting selection")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.log.Debug().Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("selection aborted")
		return "", &domain.OpError{
			Op:   "selector.run",
			Kind: domain.KindSelectionCancelled,
			Err:  domain.ErrSelectionCancelled,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}
