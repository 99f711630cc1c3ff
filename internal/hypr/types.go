package hypr

import (
	"math"

	"hyprshot/internal/geometry"
)

// WorkspaceRef is the embedded workspace reference carried by monitors and
// windows.
type WorkspaceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Monitor describes one output as reported by the compositor. Position is in
// layout (logical) coordinates, Width/Height in physical pixels.
type Monitor struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	RefreshRate      float64      `json:"refreshRate"`
	X                int          `json:"x"`
	Y                int          `json:"y"`
	ActiveWorkspace  WorkspaceRef `json:"activeWorkspace"`
	SpecialWorkspace WorkspaceRef `json:"specialWorkspace"`
	Scale            float64      `json:"scale"`
	Transform        int          `json:"transform"`
	Focused          bool         `json:"focused"`
	Disabled         bool         `json:"disabled"`
}

// EffectiveScale returns the monitor scale, defaulting to 1 for degenerate
// values.
func (m Monitor) EffectiveScale() float64 {
	if m.Scale <= 0 {
		return 1
	}
	return m.Scale
}

// LogicalRegion is the monitor rectangle in layout coordinates, the space
// windows and interactive selections live in.
func (m Monitor) LogicalRegion() geometry.Region {
	s := m.EffectiveScale()
	return geometry.Region{
		X:     m.X,
		Y:     m.Y,
		W:     int(math.Round(float64(m.Width) / s)),
		H:     int(math.Round(float64(m.Height) / s)),
		Scale: 1,
	}
}

// PhysicalRegion is the monitor rectangle in physical pixels, carrying the
// scale used for the conversion.
func (m Monitor) PhysicalRegion() geometry.Region {
	s := m.EffectiveScale()
	return geometry.Region{
		X:     int(math.Round(float64(m.X) * s)),
		Y:     int(math.Round(float64(m.Y) * s)),
		W:     m.Width,
		H:     m.Height,
		Scale: s,
	}
}

// Window describes one client as reported by the compositor. At/Size are in
// layout coordinates.
type Window struct {
	Address   string       `json:"address"`
	Mapped    bool         `json:"mapped"`
	Hidden    bool         `json:"hidden"`
	At        [2]int       `json:"at"`
	Size      [2]int       `json:"size"`
	Workspace WorkspaceRef `json:"workspace"`
	Monitor   int          `json:"monitor"`
	Class     string       `json:"class"`
	Title     string       `json:"title"`
	PID       int          `json:"pid"`
	Floating  bool         `json:"floating"`
}

// LogicalRegion is the window rectangle in layout coordinates.
func (w Window) LogicalRegion() geometry.Region {
	return geometry.Region{
		X:     w.At[0],
		Y:     w.At[1],
		W:     w.Size[0],
		H:     w.Size[1],
		Scale: 1,
	}
}

// Workspace is the compositor's view of one workspace.
type Workspace struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Monitor   string `json:"monitor"`
	MonitorID int    `json:"monitorID"`
	Windows   int    `json:"windows"`
}

// CursorPos is the pointer position in layout coordinates.
type CursorPos struct {
	X int `json:"x"`
	Y int `json:"y"`
}
