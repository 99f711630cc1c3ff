// Package config builds the per-invocation option set from defaults, an
// optional config.yaml, HYPRSHOT_* environment variables, and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"hyprshot/internal/domain"
)

const envPrefix = "HYPRSHOT"

// Options is the immutable configuration for one capture invocation. It is
// built once at startup and handed down; components never read it globally.
type Options struct {
	Modes         []string
	OutputDir     string // empty means the pictures directory
	Filename      string // empty means a timestamped default
	Delay         time.Duration
	Freeze        bool
	ClipboardOnly bool
	Raw           bool
	Silent        bool
	NotifyTimeout time.Duration
	Debug         bool
	Command       []string
}

// FileConfig mirrors the keys accepted in config.yaml. The same keys are
// read from the environment under the HYPRSHOT_ prefix.
type FileConfig struct {
	OutputFolder  string `json:"output_folder" yaml:"output_folder"`
	Filename      string `json:"filename" yaml:"filename"`
	Delay         int    `json:"delay" yaml:"delay"`
	Freeze        bool   `json:"freeze" yaml:"freeze"`
	ClipboardOnly bool   `json:"clipboard_only" yaml:"clipboard_only"`
	Raw           bool   `json:"raw" yaml:"raw"`
	Silent        bool   `json:"silent" yaml:"silent"`
	NotifTimeout  int    `json:"notif_timeout" yaml:"notif_timeout"`
	Debug         bool   `json:"debug" yaml:"debug"`
}

// Dir returns the directory searched for config.yaml.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hyprshot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hyprshot")
}

// Init wires defaults, the config file, and the environment into the global
// viper instance. Flag bindings are added by the command layer on top.
func Init(cfgFile string) error {
	// A local .env can stand in for exported environment variables.
	_ = godotenv.Load()

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(Dir())
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file on the search path is fine; an explicitly named
		// file that cannot be read is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &domain.OpError{Op: "config", Kind: domain.KindConfig, Target: cfgFile, Err: err}
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("output_folder", "")
	viper.SetDefault("filename", "")
	viper.SetDefault("delay", 0)
	viper.SetDefault("freeze", false)
	viper.SetDefault("clipboard_only", false)
	viper.SetDefault("raw", false)
	viper.SetDefault("silent", false)
	viper.SetDefault("notif_timeout", 5000)
	viper.SetDefault("debug", false)
}

// FromViper snapshots the effective configuration into Options. Modes and
// the trailing command come from the command line alone.
func FromViper() Options {
	return Options{
		OutputDir:     viper.GetString("output_folder"),
		Filename:      viper.GetString("filename"),
		Delay:         time.Duration(viper.GetInt("delay")) * time.Second,
		Freeze:        viper.GetBool("freeze"),
		ClipboardOnly: viper.GetBool("clipboard_only"),
		Raw:           viper.GetBool("raw"),
		Silent:        viper.GetBool("silent"),
		NotifyTimeout: time.Duration(viper.GetInt("notif_timeout")) * time.Millisecond,
		Debug:         viper.GetBool("debug"),
	}
}

// Validate rejects option values no component can act on.
func (o Options) Validate() error {
	if o.Delay < 0 {
		return &domain.OpError{
			Op:   "config",
			Kind: domain.KindConfig,
			Err:  fmt.Errorf("delay must not be negative, got %s", o.Delay),
		}
	}
	if o.NotifyTimeout < 0 {
		return &domain.OpError{
			Op:   "config",
			Kind: domain.KindConfig,
			Err:  fmt.Errorf("notification timeout must not be negative, got %s", o.NotifyTimeout),
		}
	}
	return nil
}

// Effective reports the configuration as it would appear in config.yaml.
func Effective() FileConfig {
	return FileConfig{
		OutputFolder:  viper.GetString("output_folder"),
		Filename:      viper.GetString("filename"),
		Delay:         viper.GetInt("delay"),
		Freeze:        viper.GetBool("freeze"),
		ClipboardOnly: viper.GetBool("clipboard_only"),
		Raw:           viper.GetBool("raw"),
		Silent:        viper.GetBool("silent"),
		NotifTimeout:  viper.GetInt("notif_timeout"),
		Debug:         viper.GetBool("debug"),
	}
}

const starterConfig = `# hyprshot configuration.
# Every key below can also be set through a HYPRSHOT_* environment variable
# (HYPRSHOT_OUTPUT_FOLDER, HYPRSHOT_SILENT, ...) or the matching flag.

# Directory screenshots are saved to. Empty means the XDG pictures directory.
output_folder: ""

# File name for saved screenshots. Empty means <timestamp>_hyprshot.png.
filename: ""

# Seconds to wait before freezing, selecting and capturing.
delay: 0

# Freeze the screen during interactive selection.
freeze: false

# Copy to the clipboard without writing a file.
clipboard_only: false

# Write raw PNG data to stdout.
raw: false

# Skip the desktop notification.
silent: false

# Notification timeout in milliseconds.
notif_timeout: 5000

# Debug logging.
debug: false
`

// WriteStarter writes a commented starter config file. It refuses to clobber
// an existing one.
func WriteStarter(path string) (string, error) {
	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		return "", &domain.OpError{
			Op:     "config",
			Kind:   domain.KindConfig,
			Target: path,
			Err:    fmt.Errorf("config file already exists"),
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &domain.OpError{Op: "config", Kind: domain.KindConfig, Target: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return "", &domain.OpError{Op: "config", Kind: domain.KindConfig, Target: path, Err: err}
	}
	return path, nil
}
