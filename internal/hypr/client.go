// Package hypr is the read-only client for the Hyprland IPC socket. Each
// query opens one connection, writes one "j/<command>" request and decodes
// the JSON response. The compositor is never written to.
package hypr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"hyprshot/internal/domain"
	"hyprshot/internal/logger"
)

const requestTimeout = 5 * time.Second

// Client queries the compositor over its IPC socket.
type Client struct {
	socket string
	log    *zerolog.Logger
}

// NewClient locates the compositor socket from the environment. It fails
// with a compositor_unreachable error when not running under Hyprland.
func NewClient() (*Client, error) {
	path, err := socketPath()
	if err != nil {
		return nil, err
	}
	return &Client{socket: path, log: logger.WithComponent("hypr")}, nil
}

func socketPath() (string, error) {
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return "", &domain.OpError{
			Op:   "hypr.socket",
			Kind: domain.KindCompositorUnreachable,
			Err:  fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE is not set (not running under Hyprland?)"),
		}
	}

	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		runtime = fmt.Sprintf("/run/user/%d", os.Getuid())
	}
	return filepath.Join(runtime, "hypr", sig, ".socket.sock"), nil
}

// request performs one query. The connection lives for a single
// request/response exchange.
func (c *Client) request(ctx context.Context, command string) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return nil, &domain.OpError{
			Op:     "hypr.dial",
			Kind:   domain.KindCompositorUnreachable,
			Target: c.socket,
			Err:    err,
		}
	}
	defer conn.Close()

	deadline := time.Now().Add(requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte("j/" + command)); err != nil {
		return nil, &domain.OpError{Op: "hypr." + command, Kind: domain.KindCompositorUnreachable, Err: err}
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, &domain.OpError{Op: "hypr." + command, Kind: domain.KindCompositorUnreachable, Err: err}
	}

	c.log.Debug().Str("command", command).Int("bytes", len(resp)).Msg("compositor query")
	return resp, nil
}

func (c *Client) queryJSON(ctx context.Context, command string, v any) error {
	resp, err := c.request(ctx, command)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp, v); err != nil {
		return &domain.OpError{
			Op:   "hypr." + command,
			Kind: domain.KindCompositorProtocol,
			Err:  fmt.Errorf("decoding response: %w", err),
		}
	}
	return nil
}

// Monitors returns all outputs known to the compositor, disabled ones
// filtered out.
func (c *Client) Monitors(ctx context.Context) ([]Monitor, error) {
	var all []Monitor
	if err := c.queryJSON(ctx, "monitors", &all); err != nil {
		return nil, err
	}
	monitors := all[:0]
	for _, m := range all {
		if !m.Disabled {
			monitors = append(monitors, m)
		}
	}
	return monitors, nil
}

// Windows returns all clients known to the compositor.
func (c *Client) Windows(ctx context.Context) ([]Window, error) {
	var windows []Window
	if err := c.queryJSON(ctx, "clients", &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

// ActiveWindow returns the focused window, or nil when nothing has focus.
// The compositor answers with an empty object in that case.
func (c *Client) ActiveWindow(ctx context.Context) (*Window, error) {
	resp, err := c.request(ctx, "activewindow")
	if err != nil {
		return nil, err
	}
	if emptyObject(resp) {
		return nil, nil
	}
	var w Window
	if err := json.Unmarshal(resp, &w); err != nil {
		return nil, &domain.OpError{
			Op:   "hypr.activewindow",
			Kind: domain.KindCompositorProtocol,
			Err:  fmt.Errorf("decoding response: %w", err),
		}
	}
	if w.Address == "" {
		return nil, nil
	}
	return &w, nil
}

// ActiveWorkspace returns the workspace that currently has focus.
func (c *Client) ActiveWorkspace(ctx context.Context) (Workspace, error) {
	var ws Workspace
	if err := c.queryJSON(ctx, "activeworkspace", &ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// Cursor returns the pointer position in layout coordinates.
func (c *Client) Cursor(ctx context.Context) (CursorPos, error) {
	var pos CursorPos
	if err := c.queryJSON(ctx, "cursorpos", &pos); err != nil {
		return CursorPos{}, err
	}
	return pos, nil
}

func emptyObject(resp []byte) bool {
	trimmed := bytes.TrimSpace(resp)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("{}")) ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("Invalid"))
}
