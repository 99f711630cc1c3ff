// Package freeze manages the overlay process that keeps the screen static
// while the user drags a selection. The controller guarantees exactly one
// teardown per spawn no matter how the invocation ends.
package freeze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hyprshot/internal/logger"
)

// State is the controller's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateSpawning
	StateFrozen
	StateTearingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawning:
		return "spawning"
	case StateFrozen:
		return "frozen"
	case StateTearingDown:
		return "tearing-down"
	}
	return "unknown"
}

// Overlay is the freeze capability: an external process that takes over
// screen rendering until signaled to stop.
type Overlay interface {
	// Start launches the overlay process.
	Start(ctx context.Context) error
	// Wait blocks until the overlay process exits.
	Wait() error
	// Terminate asks the overlay to stop cooperatively.
	Terminate() error
	// Kill stops the overlay forcibly.
	Kill() error
}

// Options configures a Controller. Zero values get defaults.
type Options struct {
	Overlay Overlay
	// ReadyDelay is how long to wait after spawn before treating the
	// screen as frozen. The overlay has no confirmation channel.
	ReadyDelay time.Duration
	// GracePeriod is how long Release waits after Terminate before
	// resorting to Kill.
	GracePeriod time.Duration

	Sleep func(time.Duration)
	After func(time.Duration) <-chan time.Time
}

const (
	defaultReadyDelay  = 200 * time.Millisecond
	defaultGracePeriod = 500 * time.Millisecond
)

// Controller walks the overlay through
// idle -> spawning -> frozen -> tearing-down -> idle.
type Controller struct {
	overlay Overlay
	ready   time.Duration
	grace   time.Duration
	sleep   func(time.Duration)
	after   func(time.Duration) <-chan time.Time
	log     *zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewController validates the options and builds a Controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Overlay == nil {
		return nil, errors.New("freeze: Overlay is required")
	}
	if opts.ReadyDelay <= 0 {
		opts.ReadyDelay = defaultReadyDelay
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultGracePeriod
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.After == nil {
		opts.After = time.After
	}
	return &Controller{
		overlay: opts.Overlay,
		ready:   opts.ReadyDelay,
		grace:   opts.GracePeriod,
		sleep:   opts.Sleep,
		after:   opts.After,
		log:     logger.WithComponent("freeze"),
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Freeze spawns the overlay and waits out the readiness delay. A failure
// to spawn leaves the controller idle; the caller decides whether an
// unfrozen screen is acceptable.
func (c *Controller) Freeze(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("freeze: overlay already %s", c.state)
	}
	c.state = StateSpawning
	c.mu.Unlock()

	if err := c.overlay.Start(ctx); err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return fmt.Errorf("freeze: starting overlay: %w", err)
	}

	c.sleep(c.ready)

	c.mu.Lock()
	c.state = StateFrozen
	c.mu.Unlock()
	c.log.Debug().Dur("ready_delay", c.ready).Msg("screen frozen")
	return nil
}

// Release tears the overlay down: cooperative terminate, bounded grace
// period, then force kill. It is idempotent and runs at most once per
// spawn. Teardown problems are logged, never returned, so they cannot
// mask the error that triggered the teardown.
func (c *Controller) Release() {
	c.mu.Lock()
	if c.state != StateFrozen && c.state != StateSpawning {
		c.mu.Unlock()
		return
	}
	c.state = StateTearingDown
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	if err := c.overlay.Terminate(); err != nil {
		c.log.Warn().Err(err).Msg("overlay terminate failed, killing")
		if err := c.overlay.Kill(); err != nil {
			c.log.Warn().Err(err).Msg("overlay kill failed")
		}
		return
	}

	done := make(chan error, 1)
	go func() { done <- c.overlay.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			c.log.Debug().Err(err).Msg("overlay exited with error")
		}
	case <-c.after(c.grace):
		c.log.Warn().Dur("grace", c.grace).Msg("overlay ignored terminate, killing")
		if err := c.overlay.Kill(); err != nil {
			c.log.Warn().Err(err).Msg("overlay kill failed")
		}
		<-done
	}
	c.log.Debug().Msg("screen unfrozen")
}
