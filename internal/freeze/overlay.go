package freeze

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// hyprpicker in freeze mode renders a static copy of the screen and stays
// up until signaled. It has no useful stdout.
const (
	overlayBinary = "hyprpicker"
)

var overlayArgs = []string{"-r", "-z"}

// ProcessOverlay runs the freeze overlay as an external process in its own
// process group, so teardown signals reach any children it forks.
type ProcessOverlay struct {
	mu   sync.Mutex
	cmd  *exec.Cmd
	pgid int
}

// NewProcessOverlay returns an Overlay backed by the hyprpicker binary.
func NewProcessOverlay() *ProcessOverlay {
	return &ProcessOverlay{}
}

// Start launches the overlay. The command is not bound to the context:
// teardown always goes through Terminate/Kill, so the overlay outlives an
// upstream cancellation long enough to be torn down in order.
func (p *ProcessOverlay) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return fmt.Errorf("overlay already started")
	}

	path, err := exec.LookPath(overlayBinary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", overlayBinary, err)
	}

	cmd := exec.Command(path, overlayArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", overlayBinary, err)
	}

	p.cmd = cmd
	p.pgid = cmd.Process.Pid
	return nil
}

// Wait blocks until the overlay process exits.
func (p *ProcessOverlay) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil {
		return nil
	}
	return cmd.Wait()
}

// Terminate sends SIGTERM to the overlay's process group.
func (p *ProcessOverlay) Terminate() error {
	return p.signal(unix.SIGTERM)
}

// Kill sends SIGKILL to the overlay's process group.
func (p *ProcessOverlay) Kill() error {
	return p.signal(unix.SIGKILL)
}

func (p *ProcessOverlay) signal(sig unix.Signal) error {
	p.mu.Lock()
	pgid := p.pgid
	p.mu.Unlock()
	if pgid == 0 {
		return nil
	}
	if err := unix.Kill(-pgid, sig); err != nil && err != unix.ESRCH {
		return fmt.Errorf("signalling overlay group %d: %w", pgid, err)
	}
	return nil
}
