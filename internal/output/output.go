// Package output routes a captured image to a file, the clipboard, or
// stdout, and runs the optional post-capture command.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"hyprshot/internal/capture"
	"hyprshot/internal/clipboard"
	"hyprshot/internal/config"
	"hyprshot/internal/domain"
	"hyprshot/internal/logger"
)

const (
	timestampLayout = "2006-01-02-150405"
	defaultSuffix   = "_hyprshot.png"
)

// Delivery describes where a captured image ended up.
type Delivery struct {
	FilePath  string // set when the image was written to disk
	Clipboard bool
	Stdout    bool
}

// Router decides among clipboard-only, stdout, and file delivery.
type Router struct {
	clip      clipboard.Clipboard
	stdout    io.Writer
	stdoutTTY bool
	now       func() time.Time
	exec      func(ctx context.Context, argv []string, stdout io.Writer) error
	log       *zerolog.Logger
}

func NewRouter(clip clipboard.Clipboard) *Router {
	return &Router{
		clip:      clip,
		stdout:    os.Stdout,
		stdoutTTY: isatty.IsTerminal(os.Stdout.Fd()),
		now:       time.Now,
		exec:      runExternal,
		log:       logger.WithComponent("output"),
	}
}

// Deliver routes the image per the configured precedence: clipboard-only
// wins over a piped stdout, which wins over the file write. The file path
// defaults to <pictures>/<timestamp>_hyprshot.png and a saved file is
// always mirrored to the clipboard.
func (r *Router) Deliver(ctx context.Context, res *capture.Result, opts config.Options) (*Delivery, error) {
	d := &Delivery{}

	switch {
	case opts.ClipboardOnly:
		if err := r.clip.CopyPNG(ctx, res.PNG); err != nil {
			return nil, err
		}
		d.Clipboard = true

	case opts.Raw || (!r.stdoutTTY && opts.OutputDir == ""):
		if _, err := r.stdout.Write(res.PNG); err != nil {
			return nil, &domain.OpError{
				Op:   "output",
				Kind: domain.KindOutputWrite,
				Err:  fmt.Errorf("writing image to stdout: %w", err),
			}
		}
		d.Stdout = true

	default:
		path, err := r.writeFile(res.PNG, opts)
		if err != nil {
			return nil, err
		}
		d.FilePath = path
		if err := r.clip.CopyPNG(ctx, res.PNG); err != nil {
			return nil, err
		}
		d.Clipboard = true
	}

	r.runCommand(ctx, opts.Command, d)
	return d, nil
}

func (r *Router) writeFile(data []byte, opts config.Options) (string, error) {
	dir := opts.OutputDir
	if dir == "" {
		dir = DefaultDir()
	}
	name := opts.Filename
	if name == "" {
		name = r.now().Format(timestampLayout) + defaultSuffix
	}
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &domain.OpError{
			Op:     "output",
			Kind:   domain.KindOutputWrite,
			Target: path,
			Err:    fmt.Errorf("creating screenshot directory: %w", err),
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &domain.OpError{Op: "output", Kind: domain.KindOutputWrite, Target: path, Err: err}
	}

	r.log.Info().Str("path", path).Int("bytes", len(data)).Msg("screenshot saved")
	return path, nil
}

// runCommand executes the trailing command with the delivery path appended,
// or the literal "-" when no file was written. The screenshot already
// exists at this point, so a failing command is reported but never fatal.
func (r *Router) runCommand(ctx context.Context, argv []string, d *Delivery) {
	if len(argv) == 0 {
		return
	}

	arg := d.FilePath
	if arg == "" {
		arg = "-"
	}
	full := append(append([]string{}, argv...), arg)

	// When the image went to stdout the command must not write there too,
	// or it would trample the PNG stream.
	cmdOut := io.Writer(os.Stdout)
	if d.Stdout {
		cmdOut = os.Stderr
	}

	if err := r.exec(ctx, full, cmdOut); err != nil {
		r.log.Warn().Err(err).Strs("command", argv).Msg("post-capture command failed")
	}
}

func runExternal(ctx context.Context, argv []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// DefaultDir locates the user's pictures directory the way xdg-user-dir
// does: the XDG_PICTURES_DIR variable, then user-dirs.dirs, then
// ~/Pictures.
func DefaultDir() string {
	if dir := os.Getenv("XDG_PICTURES_DIR"); dir != "" {
		return dir
	}
	if dir := picturesFromUserDirs(); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Pictures")
}

func picturesFromUserDirs() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}

	data, err := os.ReadFile(filepath.Join(base, "user-dirs.dirs"))
	if err != nil {
		return ""
	}

	home, _ := os.UserHomeDir()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "XDG_PICTURES_DIR=") {
			continue
		}
		value := strings.Trim(strings.TrimPrefix(line, "XDG_PICTURES_DIR="), `"`)
		value = strings.ReplaceAll(value, "$HOME", home)
		if value != "" {
			return value
		}
	}
	return ""
}
