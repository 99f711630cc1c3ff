package hypr

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"hyprshot/internal/domain"
	"hyprshot/internal/logger"
)

// serve answers every connection on a throwaway unix socket with a canned
// response, the way the compositor answers one query per connection.
func serve(t *testing.T, responses map[string]string) *Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hypr.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				buf := make([]byte, 256)
				n, err := conn.Read(buf)
				if err != nil {
					return
				}
				conn.Write([]byte(responses[string(buf[:n])]))
			}(conn)
		}
	}()

	return &Client{socket: path, log: logger.WithComponent("hypr-test")}
}

const monitorsJSON = `[
  {"id":0,"name":"DP-1","description":"Dell U2720Q","width":1920,"height":1080,
   "refreshRate":60.0,"x":0,"y":0,"activeWorkspace":{"id":1,"name":"1"},
   "specialWorkspace":{"id":0,"name":""},"scale":1.0,"transform":0,
   "focused":true,"disabled":false},
  {"id":1,"name":"HDMI-A-1","description":"LG HDR 4K","width":3840,"height":2160,
   "refreshRate":60.0,"x":1920,"y":0,"activeWorkspace":{"id":2,"name":"2"},
   "specialWorkspace":{"id":0,"name":""},"scale":2.0,"transform":0,
   "focused":false,"disabled":false},
  {"id":2,"name":"eDP-1","description":"built-in","width":2256,"height":1504,
   "refreshRate":60.0,"x":5760,"y":0,"activeWorkspace":{"id":3,"name":"3"},
   "specialWorkspace":{"id":0,"name":""},"scale":1.0,"transform":0,
   "focused":false,"disabled":true}
]`

const clientsJSON = `[
  {"address":"0xabc","mapped":true,"hidden":false,"at":[100,100],"size":[400,300],
   "workspace":{"id":1,"name":"1"},"monitor":0,"class":"kitty","title":"kitty","pid":4242,"floating":false},
  {"address":"0xdef","mapped":true,"hidden":false,"at":[2000,50],"size":[800,600],
   "workspace":{"id":2,"name":"2"},"monitor":1,"class":"firefox","title":"Mozilla Firefox","pid":4243,"floating":true}
]`

func TestMonitorsDecodesAndFiltersDisabled(t *testing.T) {
	c := serve(t, map[string]string{"j/monitors": monitorsJSON})

	monitors, err := c.Monitors(context.Background())
	if err != nil {
		t.Fatalf("Monitors: %v", err)
	}
	if len(monitors) != 2 {
		t.Fatalf("got %d monitors, want 2 (disabled filtered)", len(monitors))
	}

	dp1 := monitors[0]
	if dp1.Name != "DP-1" || dp1.Width != 1920 || dp1.Height != 1080 || !dp1.Focused {
		t.Fatalf("unexpected first monitor: %+v", dp1)
	}
	if dp1.ActiveWorkspace.ID != 1 {
		t.Fatalf("workspace ref not decoded: %+v", dp1.ActiveWorkspace)
	}

	hdmi := monitors[1]
	if hdmi.Scale != 2.0 || hdmi.X != 1920 {
		t.Fatalf("unexpected second monitor: %+v", hdmi)
	}
}

func TestWindowsDecode(t *testing.T) {
	c := serve(t, map[string]string{"j/clients": clientsJSON})

	windows, err := c.Windows(context.Background())
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	w := windows[0]
	if w.Address != "0xabc" || w.At != [2]int{100, 100} || w.Size != [2]int{400, 300} {
		t.Fatalf("unexpected window: %+v", w)
	}
	if w.Workspace.ID != 1 || w.Monitor != 0 {
		t.Fatalf("window placement not decoded: %+v", w)
	}
}

func TestActiveWindowEmptyMeansNoFocus(t *testing.T) {
	for _, resp := range []string{"{}", "null", "Invalid", ""} {
		c := serve(t, map[string]string{"j/activewindow": resp})
		w, err := c.ActiveWindow(context.Background())
		if err != nil {
			t.Fatalf("ActiveWindow(%q): %v", resp, err)
		}
		if w != nil {
			t.Fatalf("ActiveWindow(%q) = %+v, want nil", resp, w)
		}
	}
}

func TestActiveWindowDecodes(t *testing.T) {
	c := serve(t, map[string]string{
		"j/activewindow": `{"address":"0xabc","at":[100,100],"size":[400,300],"workspace":{"id":1,"name":"1"},"monitor":0,"title":"kitty"}`,
	})
	w, err := c.ActiveWindow(context.Background())
	if err != nil {
		t.Fatalf("ActiveWindow: %v", err)
	}
	if w == nil || w.Address != "0xabc" {
		t.Fatalf("ActiveWindow = %+v", w)
	}
}

func TestProtocolErrorOnGarbage(t *testing.T) {
	c := serve(t, map[string]string{"j/monitors": "not json at all"})
	_, err := c.Monitors(context.Background())
	if err == nil {
		t.Fatalf("expected error on undecodable response")
	}
	if !domain.IsKind(err, domain.KindCompositorProtocol) {
		t.Fatalf("expected compositor_protocol kind, got %v", err)
	}
}

func TestUnreachableWhenSocketMissing(t *testing.T) {
	c := &Client{socket: filepath.Join(t.TempDir(), "nope.sock"), log: logger.WithComponent("hypr-test")}
	_, err := c.Monitors(context.Background())
	if err == nil {
		t.Fatalf("expected error on missing socket")
	}
	if !domain.IsKind(err, domain.KindCompositorUnreachable) {
		t.Fatalf("expected compositor_unreachable kind, got %v", err)
	}
}

func TestSocketPathFromEnvironment(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")

	path, err := socketPath()
	if err != nil {
		t.Fatalf("socketPath: %v", err)
	}
	want := "/run/user/1000/hypr/abc123/.socket.sock"
	if path != want {
		t.Fatalf("socketPath = %q, want %q", path, want)
	}
}

func TestSocketPathRequiresSignature(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")

	_, err := socketPath()
	if err == nil {
		t.Fatalf("expected error without instance signature")
	}
	if !domain.IsKind(err, domain.KindCompositorUnreachable) {
		t.Fatalf("expected compositor_unreachable kind, got %v", err)
	}
}

func TestMonitorRegions(t *testing.T) {
	m := Monitor{Name: "HDMI-A-1", X: 1920, Y: 0, Width: 3840, Height: 2160, Scale: 2}

	logical := m.LogicalRegion()
	if logical.W != 1920 || logical.H != 1080 || logical.X != 1920 {
		t.Fatalf("LogicalRegion = %+v", logical)
	}

	physical := m.PhysicalRegion()
	if physical.X != 3840 || physical.W != 3840 || physical.H != 2160 || physical.Scale != 2 {
		t.Fatalf("PhysicalRegion = %+v", physical)
	}
}
