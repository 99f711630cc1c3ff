// Package resolve turns the ordered mode tokens from the command line into
// a single capture target, using read-only compositor queries. Interactive
// targets carry the monitor and window snapshots the selection step needs.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"hyprshot/internal/domain"
	"hyprshot/internal/geometry"
	"hyprshot/internal/hypr"
	"hyprshot/internal/logger"
)

// TargetKind discriminates what the invocation will capture.
type TargetKind int

const (
	// TargetOutput captures a named monitor directly.
	TargetOutput TargetKind = iota
	// TargetOutputPick lets the user click a monitor.
	TargetOutputPick
	// TargetWindow captures a known window (the focused one).
	TargetWindow
	// TargetWindowPick lets the user pick among visible windows.
	TargetWindowPick
	// TargetRegion lets the user drag a rectangle.
	TargetRegion
)

func (k TargetKind) String() string {
	switch k {
	case TargetOutput:
		return "output"
	case TargetOutputPick:
		return "output-pick"
	case TargetWindow:
		return "window"
	case TargetWindowPick:
		return "window-pick"
	case TargetRegion:
		return "region"
	}
	return "unknown"
}

// Target is the resolved capture subject. Exactly one is produced per
// invocation and it never changes afterwards.
type Target struct {
	Kind TargetKind
	// MonitorName names the monitor for TargetOutput, and constrains the
	// selection for TargetRegion ("" means the whole layout).
	MonitorName string
	// WindowAddress identifies the window for TargetWindow.
	WindowAddress string
}

// Interactive reports whether resolving this target to pixels still needs
// the interactive selection step.
func (t Target) Interactive() bool {
	switch t.Kind {
	case TargetOutputPick, TargetWindowPick, TargetRegion:
		return true
	}
	return false
}

// Resolution is the resolver's full answer: the target, its geometry when
// no interaction is needed, and the compositor snapshots taken while
// resolving.
type Resolution struct {
	Target   Target
	Region   geometry.Region // meaningful only when !Target.Interactive()
	Monitors []hypr.Monitor
	Windows  []hypr.Window // visible windows, populated for TargetWindowPick
}

// Compositor is the read-only query surface the resolver needs.
type Compositor interface {
	Monitors(ctx context.Context) ([]hypr.Monitor, error)
	Windows(ctx context.Context) ([]hypr.Window, error)
	ActiveWindow(ctx context.Context) (*hypr.Window, error)
	ActiveWorkspace(ctx context.Context) (hypr.Workspace, error)
	Cursor(ctx context.Context) (hypr.CursorPos, error)
}

// Resolver resolves mode tokens against one compositor snapshot.
type Resolver struct {
	comp Compositor
	log  *zerolog.Logger
}

// New creates a Resolver over the given compositor client.
func New(comp Compositor) *Resolver {
	return &Resolver{comp: comp, log: logger.WithComponent("resolve")}
}

// tokenScan is the outcome of the left-to-right pass over the mode tokens.
type tokenScan struct {
	mode       string // one of output, window, region
	active     bool
	monitorArg string
}

// scanTokens applies the precedence rules. "active" is a pending modifier,
// the first of output|window|region fixes the concrete mode, anything else
// is a monitor name. Duplicates are idempotent; conflicts are ambiguous.
func scanTokens(tokens []string) (tokenScan, error) {
	ambiguous := func(format string, args ...any) (tokenScan, error) {
		return tokenScan{}, &domain.OpError{
			Op:   "resolve.modes",
			Kind: domain.KindAmbiguousMode,
			Err:  fmt.Errorf(format, args...),
		}
	}

	var scan tokenScan
	for _, tok := range tokens {
		switch tok {
		case "output", "window", "region":
			if scan.mode != "" && scan.mode != tok {
				return ambiguous("conflicting modes %q and %q: %w", scan.mode, tok, domain.ErrAmbiguousMode)
			}
			scan.mode = tok
		case "active":
			scan.active = true
		default:
			if scan.monitorArg != "" && scan.monitorArg != tok {
				return ambiguous("two monitor names %q and %q: %w", scan.monitorArg, tok, domain.ErrAmbiguousMode)
			}
			scan.monitorArg = tok
		}
	}

	switch {
	case scan.mode == "" && scan.active:
		return ambiguous("mode \"active\" needs a companion mode (output or window): %w", domain.ErrAmbiguousMode)
	case scan.mode == "":
		return ambiguous("no capture mode given: %w", domain.ErrAmbiguousMode)
	case scan.active && scan.mode == "region":
		return ambiguous("mode \"active\" cannot modify \"region\": %w", domain.ErrAmbiguousMode)
	case scan.active && scan.monitorArg != "":
		return ambiguous("active %s does not take a monitor name: %w", scan.mode, domain.ErrAmbiguousMode)
	case scan.mode == "window" && scan.monitorArg != "":
		return ambiguous("mode \"window\" does not take a monitor name: %w", domain.ErrAmbiguousMode)
	}
	return scan, nil
}

// Resolve produces the Resolution for the given mode tokens.
func (r *Resolver) Resolve(ctx context.Context, tokens []string) (Resolution, error) {
	scan, err := scanTokens(tokens)
	if err != nil {
		return Resolution{}, err
	}

	monitors, err := r.comp.Monitors(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if len(monitors) == 0 {
		return Resolution{}, &domain.OpError{
			Op:   "resolve.monitors",
			Kind: domain.KindCompositorProtocol,
			Err:  errors.New("compositor reports no monitors"),
		}
	}

	if scan.monitorArg != "" {
		if _, ok := MonitorByName(monitors, scan.monitorArg); !ok {
			return Resolution{}, &domain.OpError{
				Op:     "resolve.monitor",
				Kind:   domain.KindUnknownMonitor,
				Target: scan.monitorArg,
				Err:    domain.ErrUnknownMonitor,
			}
		}
	}

	res := Resolution{Monitors: monitors}

	switch {
	case scan.mode == "output" && scan.active:
		mon, err := r.focusedMonitor(ctx, monitors)
		if err != nil {
			return Resolution{}, err
		}
		res.Target = Target{Kind: TargetOutput, MonitorName: mon.Name}
		res.Region = mon.PhysicalRegion()

	case scan.mode == "output" && scan.monitorArg != "":
		mon, _ := MonitorByName(monitors, scan.monitorArg)
		res.Target = Target{Kind: TargetOutput, MonitorName: mon.Name}
		res.Region = mon.PhysicalRegion()

	case scan.mode == "output":
		// With a single monitor there is nothing to pick.
		if len(monitors) == 1 {
			res.Target = Target{Kind: TargetOutput, MonitorName: monitors[0].Name}
			res.Region = monitors[0].PhysicalRegion()
			break
		}
		res.Target = Target{Kind: TargetOutputPick}

	case scan.mode == "window" && scan.active:
		win, err := r.comp.ActiveWindow(ctx)
		if err != nil {
			return Resolution{}, err
		}
		if win == nil {
			return Resolution{}, &domain.OpError{
				Op:   "resolve.window",
				Kind: domain.KindNoActiveWindow,
				Err:  domain.ErrNoActiveWindow,
			}
		}
		region, err := FinalizeRegion(monitors, win.LogicalRegion())
		if err != nil {
			return Resolution{}, err
		}
		res.Target = Target{Kind: TargetWindow, WindowAddress: win.Address}
		res.Region = region

	case scan.mode == "window":
		windows, err := r.comp.Windows(ctx)
		if err != nil {
			return Resolution{}, err
		}
		visible := VisibleWindows(monitors, windows)
		if len(visible) == 0 {
			return Resolution{}, &domain.OpError{
				Op:   "resolve.window",
				Kind: domain.KindNoActiveWindow,
				Err:  errors.New("no visible windows to select from"),
			}
		}
		res.Target = Target{Kind: TargetWindowPick}
		res.Windows = visible

	case scan.mode == "region":
		res.Target = Target{Kind: TargetRegion, MonitorName: scan.monitorArg}
	}

	r.log.Debug().
		Str("target", res.Target.Kind.String()).
		Str("monitor", res.Target.MonitorName).
		Str("window", res.Target.WindowAddress).
		Msg("mode tokens resolved")
	return res, nil
}

// focusedMonitor finds the monitor to treat as active: the one flagged
// focused, else the one showing the active workspace, else the one under
// the cursor.
func (r *Resolver) focusedMonitor(ctx context.Context, monitors []hypr.Monitor) (hypr.Monitor, error) {
	for _, m := range monitors {
		if m.Focused {
			return m, nil
		}
	}

	if ws, err := r.comp.ActiveWorkspace(ctx); err == nil {
		for _, m := range monitors {
			if m.ActiveWorkspace.ID == ws.ID {
				return m, nil
			}
		}
	}

	if pos, err := r.comp.Cursor(ctx); err == nil {
		if m, ok := MonitorAt(monitors, pos.X, pos.Y); ok {
			return m, nil
		}
	}

	return hypr.Monitor{}, &domain.OpError{
		Op:   "resolve.output",
		Kind: domain.KindCompositorProtocol,
		Err:  errors.New("no focused monitor reported"),
	}
}

// MonitorByName finds a monitor by its unique name.
func MonitorByName(monitors []hypr.Monitor, name string) (hypr.Monitor, bool) {
	for _, m := range monitors {
		if m.Name == name {
			return m, true
		}
	}
	return hypr.Monitor{}, false
}

// MonitorAt finds the monitor whose logical rectangle contains the point.
func MonitorAt(monitors []hypr.Monitor, x, y int) (hypr.Monitor, bool) {
	for _, m := range monitors {
		if m.LogicalRegion().Contains(x, y) {
			return m, true
		}
	}
	return hypr.Monitor{}, false
}

// VisibleWindows filters the client list down to windows the user can see
// and select: mapped, not hidden, with positive size, on a workspace some
// monitor currently shows.
func VisibleWindows(monitors []hypr.Monitor, windows []hypr.Window) []hypr.Window {
	shown := make(map[int]bool, len(monitors)*2)
	for _, m := range monitors {
		shown[m.ActiveWorkspace.ID] = true
		if m.SpecialWorkspace.ID != 0 {
			shown[m.SpecialWorkspace.ID] = true
		}
	}

	var visible []hypr.Window
	for _, w := range windows {
		if !w.Mapped || w.Hidden {
			continue
		}
		if w.Size[0] <= 0 || w.Size[1] <= 0 {
			continue
		}
		if !shown[w.Workspace.ID] {
			continue
		}
		visible = append(visible, w)
	}
	return visible
}

// FinalizeRegion clips a layout-space rectangle to the monitor containing
// its origin and converts it to physical pixels with that monitor's scale.
func FinalizeRegion(monitors []hypr.Monitor, logical geometry.Region) (geometry.Region, error) {
	if logical.Empty() {
		return geometry.Region{}, &domain.OpError{
			Op:   "resolve.finalize",
			Kind: domain.KindCompositorProtocol,
			Err:  fmt.Errorf("empty selection rectangle %s", logical),
		}
	}

	mon, ok := MonitorAt(monitors, logical.X, logical.Y)
	if !ok {
		return geometry.Region{}, &domain.OpError{
			Op:     "resolve.finalize",
			Kind:   domain.KindCompositorProtocol,
			Target: logical.String(),
			Err:    errors.New("no monitor contains the selection origin"),
		}
	}

	clipped, ok := logical.ClipTo(mon.LogicalRegion())
	if !ok {
		return geometry.Region{}, &domain.OpError{
			Op:     "resolve.finalize",
			Kind:   domain.KindCompositorProtocol,
			Target: logical.String(),
			Err:    errors.New("selection does not intersect its monitor"),
		}
	}

	return clipped.Scaled(mon.EffectiveScale()), nil
}
