// Package notify posts desktop notifications via D-Bus.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"hyprshot/internal/logger"
	"hyprshot/internal/output"
)

// Notification D-Bus constants
const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
	notifyIface   = "org.freedesktop.Notifications"
)

const (
	appName      = "hyprshot"
	thumbnailMax = 128
)

// Notifier reports the outcome of a capture on the desktop.
type Notifier interface {
	Saved(ctx context.Context, d output.Delivery, pngData []byte) error
	Failed(ctx context.Context, message string) error
}

// DBusNotifier talks to org.freedesktop.Notifications on the session bus.
type DBusNotifier struct {
	timeout time.Duration
	log     *zerolog.Logger
}

func NewDBusNotifier(timeout time.Duration) *DBusNotifier {
	return &DBusNotifier{
		timeout: timeout,
		log:     logger.WithComponent("notify"),
	}
}

// Saved announces a delivered screenshot, with a thumbnail of the capture
// when the image still decodes.
func (n *DBusNotifier) Saved(ctx context.Context, d output.Delivery, pngData []byte) error {
	hints := map[string]dbus.Variant{}
	if img, err := thumbnail(pngData); err == nil {
		hints["image-data"] = dbus.MakeVariant(*img)
	} else {
		n.log.Debug().Err(err).Msg("skipping notification thumbnail")
	}
	return n.post(ctx, d.FilePath, "Screenshot saved", savedBody(d), hints)
}

// Failed announces a fatal capture error.
func (n *DBusNotifier) Failed(ctx context.Context, message string) error {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(2)),
	}
	return n.post(ctx, "", "Screenshot failed", message, hints)
}

func savedBody(d output.Delivery) string {
	if d.FilePath != "" {
		return fmt.Sprintf("Image saved in <i>%s</i> and copied to the clipboard.", d.FilePath)
	}
	return "Image copied to the clipboard"
}

func (n *DBusNotifier) post(ctx context.Context, icon, summary, body string, hints map[string]dbus.Variant) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(notifyService, notifyPath)

	var id uint32
	call := obj.CallWithContext(ctx, notifyIface+".Notify", 0,
		appName,
		uint32(0),
		icon,
		summary,
		body,
		[]string{},
		hints,
		int32(n.timeout.Milliseconds()),
	)
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("Notify call failed: %w", err)
	}

	n.log.Debug().Uint32("id", id).Str("summary", summary).Msg("notification posted")
	return nil
}

// imageData is the iiibiiay structure notification servers expect in the
// image-data hint.
type imageData struct {
	Width         int32
	Height        int32
	Rowstride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// thumbnail decodes the capture and downscales it to fit the notification.
func thumbnail(data []byte) (*imageData, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding capture for thumbnail: %w", err)
	}

	bounds := src.Bounds()
	w, h := fit(bounds.Dx(), bounds.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	return &imageData{
		Width:         int32(w),
		Height:        int32(h),
		Rowstride:     int32(dst.Stride),
		HasAlpha:      true,
		BitsPerSample: 8,
		Channels:      4,
		Data:          dst.Pix,
	}, nil
}

// fit shrinks dimensions to the thumbnail bound, keeping the aspect ratio.
func fit(w, h int) (int, int) {
	if w <= thumbnailMax && h <= thumbnailMax {
		return w, h
	}
	if w >= h {
		return thumbnailMax, max(1, int(math.Round(float64(h)*thumbnailMax/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*thumbnailMax/float64(h)))), thumbnailMax
}
