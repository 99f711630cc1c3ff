// Package clipboard copies captured images into the Wayland clipboard.
package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"

	"hyprshot/internal/domain"
	"hyprshot/internal/logger"
)

const clipboardBinary = "wl-copy"

// Clipboard stores PNG image bytes for pasting into other applications.
type Clipboard interface {
	CopyPNG(ctx context.Context, data []byte) error
}

// WlCopy shells out to wl-copy from wl-clipboard.
type WlCopy struct {
	bin string
	log *zerolog.Logger
}

func NewWlCopy() *WlCopy {
	return &WlCopy{
		bin: clipboardBinary,
		log: logger.WithComponent("clipboard"),
	}
}

func (w *WlCopy) CopyPNG(ctx context.Context, data []byte) error {
	path, err := exec.LookPath(w.bin)
	if err != nil {
		return &domain.OpError{
			Op:   "clipboard",
			Kind: domain.KindOutputWrite,
			Err:  fmt.Errorf("%s not found in PATH: %w", w.bin, err),
		}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--type", "image/png")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.OpError{
			Op:   "clipboard",
			Kind: domain.KindOutputWrite,
			Err:  fmt.Errorf("wl-copy failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes())),
		}
	}

	w.log.Debug().Int("bytes", len(data)).Msg("image copied to clipboard")
	return nil
}
