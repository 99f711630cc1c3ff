package freeze

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeOverlay records lifecycle calls. With stubborn set it ignores
// Terminate and only exits when killed.
type fakeOverlay struct {
	mu         sync.Mutex
	started    int
	terminated int
	killed     int
	startErr   error
	stubborn   bool
	exited     chan struct{}
}

func newFakeOverlay() *fakeOverlay {
	return &fakeOverlay{exited: make(chan struct{})}
}

func (f *fakeOverlay) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return f.startErr
}

func (f *fakeOverlay) Wait() error {
	<-f.exited
	return nil
}

func (f *fakeOverlay) Terminate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated++
	if !f.stubborn {
		f.exit()
	}
	return nil
}

func (f *fakeOverlay) Kill() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed++
	f.exit()
	return nil
}

// exit closes the channel once; callers hold f.mu.
func (f *fakeOverlay) exit() {
	select {
	case <-f.exited:
	default:
		close(f.exited)
	}
}

func (f *fakeOverlay) counts() (started, terminated, killed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.terminated, f.killed
}

func newTestController(t *testing.T, overlay Overlay) *Controller {
	t.Helper()
	c, err := NewController(Options{
		Overlay:     overlay,
		ReadyDelay:  time.Millisecond,
		GracePeriod: 10 * time.Millisecond,
		Sleep:       func(time.Duration) {},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestFreezeThenRelease(t *testing.T) {
	overlay := newFakeOverlay()
	c := newTestController(t, overlay)

	if err := c.Freeze(context.Background()); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if got := c.State(); got != StateFrozen {
		t.Fatalf("state after Freeze = %v, want frozen", got)
	}

	c.Release()

	started, terminated, killed := overlay.counts()
	if started != 1 || terminated != 1 || killed != 0 {
		t.Fatalf("counts = start %d, term %d, kill %d; want 1,1,0", started, terminated, killed)
	}
	if got := c.State(); got != StateIdle {
		t.Fatalf("state after Release = %v, want idle", got)
	}
}

func TestReleaseIsExactlyOncePerSpawn(t *testing.T) {
	overlay := newFakeOverlay()
	c := newTestController(t, overlay)

	if err := c.Freeze(context.Background()); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	c.Release()
	c.Release()
	c.Release()

	_, terminated, killed := overlay.counts()
	if terminated != 1 {
		t.Fatalf("terminated %d times, want exactly 1", terminated)
	}
	if killed != 0 {
		t.Fatalf("killed %d times, want 0", killed)
	}
}

func TestReleaseWithoutFreezeDoesNothing(t *testing.T) {
	overlay := newFakeOverlay()
	c := newTestController(t, overlay)

	c.Release()

	started, terminated, killed := overlay.counts()
	if started != 0 || terminated != 0 || killed != 0 {
		t.Fatalf("idle Release touched the overlay: start %d, term %d, kill %d", started, terminated, killed)
	}
}

func TestStubbornOverlayGetsKilled(t *testing.T) {
	overlay := newFakeOverlay()
	overlay.stubborn = true
	c := newTestController(t, overlay)

	if err := c.Freeze(context.Background()); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	c.Release()

	_, terminated, killed := overlay.counts()
	if terminated != 1 || killed != 1 {
		t.Fatalf("counts = term %d, kill %d; want 1,1", terminated, killed)
	}
	if got := c.State(); got != StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestFreezeStartFailureLeavesIdle(t *testing.T) {
	overlay := newFakeOverlay()
	overlay.startErr = errors.New("no such binary")
	c := newTestController(t, overlay)

	if err := c.Freeze(context.Background()); err == nil {
		t.Fatalf("Freeze succeeded, want start error")
	}
	if got := c.State(); got != StateIdle {
		t.Fatalf("state = %v, want idle after failed spawn", got)
	}

	// No spawn happened, so Release must not signal anything.
	c.Release()
	_, terminated, killed := overlay.counts()
	if terminated != 0 || killed != 0 {
		t.Fatalf("Release after failed spawn signalled: term %d, kill %d", terminated, killed)
	}
}

func TestDoubleFreezeRejected(t *testing.T) {
	overlay := newFakeOverlay()
	c := newTestController(t, overlay)

	if err := c.Freeze(context.Background()); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if err := c.Freeze(context.Background()); err == nil {
		t.Fatalf("second Freeze succeeded, want error")
	}

	c.Release()
}

func TestReadinessDelayObserved(t *testing.T) {
	overlay := newFakeOverlay()
	var slept []time.Duration
	c, err := NewController(Options{
		Overlay:    overlay,
		ReadyDelay: 250 * time.Millisecond,
		Sleep:      func(d time.Duration) { slept = append(slept, d) },
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if err := c.Freeze(context.Background()); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	defer c.Release()

	if len(slept) != 1 || slept[0] != 250*time.Millisecond {
		t.Fatalf("slept %v, want one wait of 250ms", slept)
	}
}

func TestNewControllerRequiresOverlay(t *testing.T) {
	if _, err := NewController(Options{}); err == nil {
		t.Fatalf("expected error for missing overlay")
	}
}

var _ Overlay = (*fakeOverlay)(nil)
