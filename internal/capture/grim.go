package capture

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"

	"github.com/rs/zerolog"

	"hyprshot/internal/domain"
	"hyprshot/internal/geometry"
	"hyprshot/internal/logger"
)

const grimBinary = "grim"

// GrimCapturer shells out to grim, the wlroots screenshot utility.
type GrimCapturer struct {
	bin string
	log *zerolog.Logger
}

func NewGrimCapturer() *GrimCapturer {
	return &GrimCapturer{
		bin: grimBinary,
		log: logger.WithComponent("capture"),
	}
}

func (g *GrimCapturer) Name() string {
	return "grim"
}

// CaptureRegion captures the given physical-pixel rectangle.
func (g *GrimCapturer) CaptureRegion(ctx context.Context, region geometry.Region) (*Result, error) {
	args := []string{"-g", grimGeometry(region), "-"}
	png, err := g.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return &Result{PNG: png, Region: region}, nil
}

// CaptureOutput captures a whole output by name, which lets grim grab the
// full buffer without any cropping pass.
func (g *GrimCapturer) CaptureOutput(ctx context.Context, name string, region geometry.Region) (*Result, error) {
	args := []string{"-o", name, "-"}
	png, err := g.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return &Result{PNG: png, Region: region}, nil
}

func (g *GrimCapturer) run(ctx context.Context, args []string) ([]byte, error) {
	path, err := exec.LookPath(g.bin)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "capture",
			Kind: domain.KindCaptureBackend,
			Err:  fmt.Errorf("%s not found in PATH: %w", g.bin, err),
		}
	}

	g.log.Debug().Str("binary", path).Strs("args", args).Msg("invoking grim")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.OpError{
			Op:   "capture",
			Kind: domain.KindCaptureBackend,
			Err:  fmt.Errorf("grim failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes())),
		}
	}

	png := stdout.Bytes()
	if len(png) == 0 {
		return nil, &domain.OpError{
			Op:   "capture",
			Kind: domain.KindCaptureBackend,
			Err:  fmt.Errorf("grim produced no image data"),
		}
	}

	g.log.Debug().Int("bytes", len(png)).Msg("capture complete")
	return png, nil
}

// grimGeometry renders a physical-pixel region in the layout coordinates
// grim expects. Hyprland positions outputs in layout space, so a capture
// rectangle on a scaled output has to be divided back down before it can
// be handed to grim.
func grimGeometry(region geometry.Region) string {
	scale := region.Scale
	if scale <= 0 {
		scale = 1
	}
	x := int(math.Round(float64(region.X) / scale))
	y := int(math.Round(float64(region.Y) / scale))
	w := int(math.Round(float64(region.W) / scale))
	h := int(math.Round(float64(region.H) / scale))
	return fmt.Sprintf("%d,%d %dx%d", x, y, w, h)
}
