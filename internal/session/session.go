// Package session drives one capture invocation end to end: resolve the
// target, freeze, select, capture, tear down, route, notify.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hyprshot/internal/capture"
	"hyprshot/internal/config"
	"hyprshot/internal/domain"
	"hyprshot/internal/geometry"
	"hyprshot/internal/hypr"
	"hyprshot/internal/logger"
	"hyprshot/internal/notify"
	"hyprshot/internal/output"
	"hyprshot/internal/resolve"
	"hyprshot/internal/selector"
)

// Freezer is the freeze-controller surface the session drives.
type Freezer interface {
	Freeze(ctx context.Context) error
	Release()
}

// Picker runs one interactive selection.
type Picker interface {
	Select(ctx context.Context, req selector.Request) (geometry.Region, error)
}

// Deliverer routes the captured image to its consumers.
type Deliverer interface {
	Deliver(ctx context.Context, res *capture.Result, opts config.Options) (*output.Delivery, error)
}

// Capabilities is the external capability set a session needs.
type Capabilities struct {
	Compositor resolve.Compositor
	Freezer    Freezer
	Picker     Picker
	Capturer   capture.Capturer
	Router     Deliverer
	Notifier   notify.Notifier
}

// Session executes the freeze/select/capture/route sequence for a single
// invocation. Nothing persists across invocations.
type Session struct {
	resolver *resolve.Resolver
	freezer  Freezer
	picker   Picker
	capturer capture.Capturer
	router   Deliverer
	notifier notify.Notifier
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zerolog.Logger
}

func New(caps Capabilities) *Session {
	return &Session{
		resolver: resolve.New(caps.Compositor),
		freezer:  caps.Freezer,
		picker:   caps.Picker,
		capturer: caps.Capturer,
		router:   caps.Router,
		notifier: caps.Notifier,
		sleep:    sleepContext,
		log:      logger.WithComponent("session"),
	}
}

// Run performs one capture. The freeze overlay, if started, is torn down on
// every exit path, and always before the image is routed.
func (s *Session) Run(ctx context.Context, opts config.Options) (*output.Delivery, error) {
	res, err := s.resolver.Resolve(ctx, opts.Modes)
	if err != nil {
		return nil, err
	}

	if opts.Delay > 0 {
		s.log.Debug().Dur("delay", opts.Delay).Msg("waiting before capture")
		if err := s.sleep(ctx, opts.Delay); err != nil {
			return nil, err
		}
	}

	if opts.Freeze && res.Target.Interactive() {
		if err := s.freezer.Freeze(ctx); err != nil {
			s.log.Warn().Err(err).Msg("screen freeze failed, selecting on a live screen")
		}
	}
	defer s.freezer.Release()

	plan, err := s.selectArea(ctx, &res)
	if err != nil {
		return nil, err
	}

	result, err := s.captureArea(ctx, plan)
	if err != nil {
		return nil, err
	}

	// Unfreeze before routing. Release is idempotent, so the deferred call
	// stays a no-op on this path.
	s.freezer.Release()

	delivery, err := s.router.Deliver(ctx, result, opts)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, delivery, result.PNG, opts)
	return delivery, nil
}

// capturePlan is what the capture step works from: a physical-pixel region,
// plus the output name when a whole monitor is grabbed directly.
type capturePlan struct {
	region geometry.Region
	output string
}

func (s *Session) selectArea(ctx context.Context, res *resolve.Resolution) (capturePlan, error) {
	switch res.Target.Kind {
	case resolve.TargetOutput:
		return capturePlan{region: res.Region, output: res.Target.MonitorName}, nil

	case resolve.TargetWindow:
		return capturePlan{region: res.Region}, nil

	case resolve.TargetOutputPick:
		picked, err := s.picker.Select(ctx, selector.Request{Outputs: true})
		if err != nil {
			return capturePlan{}, err
		}
		mon, ok := resolve.MonitorAt(res.Monitors, picked.X, picked.Y)
		if !ok {
			return capturePlan{}, &domain.OpError{
				Op:     "select.output",
				Kind:   domain.KindCompositorProtocol,
				Target: picked.String(),
				Err:    errors.New("picked rectangle matches no monitor"),
			}
		}
		return capturePlan{region: mon.PhysicalRegion(), output: mon.Name}, nil

	case resolve.TargetWindowPick:
		picked, err := s.picker.Select(ctx, selector.Request{
			Windows: true,
			Boxes:   windowBoxes(res.Windows),
		})
		if err != nil {
			return capturePlan{}, err
		}
		region, err := resolve.FinalizeRegion(res.Monitors, picked)
		if err != nil {
			return capturePlan{}, err
		}
		return capturePlan{region: region}, nil

	case resolve.TargetRegion:
		picked, err := s.picker.Select(ctx, selector.Request{})
		if err != nil {
			return capturePlan{}, err
		}
		if name := res.Target.MonitorName; name != "" {
			picked, err = clipToMonitor(res.Monitors, picked, name)
			if err != nil {
				return capturePlan{}, err
			}
		}
		region, err := resolve.FinalizeRegion(res.Monitors, picked)
		if err != nil {
			return capturePlan{}, err
		}
		return capturePlan{region: region}, nil
	}

	return capturePlan{}, fmt.Errorf("unhandled target kind %s", res.Target.Kind)
}

// clipToMonitor bounds a selection to the named monitor. A selection with no
// overlap counts as cancelled rather than producing an empty capture.
func clipToMonitor(monitors []hypr.Monitor, picked geometry.Region, name string) (geometry.Region, error) {
	mon, ok := resolve.MonitorByName(monitors, name)
	if !ok {
		return geometry.Region{}, &domain.OpError{
			Op:     "select.region",
			Kind:   domain.KindUnknownMonitor,
			Target: name,
			Err:    domain.ErrUnknownMonitor,
		}
	}
	clipped, within := picked.ClipTo(mon.LogicalRegion())
	if !within {
		return geometry.Region{}, &domain.OpError{
			Op:     "select.region",
			Kind:   domain.KindSelectionCancelled,
			Target: name,
			Err:    fmt.Errorf("selection lies outside monitor %s: %w", name, domain.ErrSelectionCancelled),
		}
	}
	return clipped, nil
}

// windowBoxes renders the visible windows as selection boxes labelled with
// each window's title.
func windowBoxes(windows []hypr.Window) []selector.Box {
	boxes := make([]selector.Box, 0, len(windows))
	for _, w := range windows {
		boxes = append(boxes, selector.Box{Region: w.LogicalRegion(), Label: w.Title})
	}
	return boxes
}

func (s *Session) captureArea(ctx context.Context, plan capturePlan) (*capture.Result, error) {
	s.log.Debug().
		Stringer("region", plan.region).
		Str("output", plan.output).
		Msg("capturing")

	if plan.output != "" {
		return s.capturer.CaptureOutput(ctx, plan.output, plan.region)
	}
	return s.capturer.CaptureRegion(ctx, plan.region)
}

// announce posts the desktop notification. Piped deliveries and silent runs
// skip it; a notification failure never fails the capture.
func (s *Session) announce(ctx context.Context, d *output.Delivery, png []byte, opts config.Options) {
	if opts.Silent || s.notifier == nil || d.Stdout {
		return
	}
	if err := s.notifier.Saved(ctx, *d, png); err != nil {
		s.log.Warn().Err(err).Msg("desktop notification failed")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
