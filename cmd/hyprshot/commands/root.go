package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hyprshot/internal/capture"
	"hyprshot/internal/clipboard"
	"hyprshot/internal/config"
	"hyprshot/internal/domain"
	"hyprshot/internal/freeze"
	"hyprshot/internal/hypr"
	"hyprshot/internal/logger"
	"hyprshot/internal/notify"
	"hyprshot/internal/output"
	"hyprshot/internal/selector"
	"hyprshot/internal/session"
)

var (
	cfgFile string
	modes   []string

	rootCmd = &cobra.Command{
		Use:   "hyprshot [flags] [-- command...]",
		Short: "Take screenshots in Hyprland using your mouse",
		Long: `hyprshot takes screenshots of windows, regions and monitors on
Hyprland. Screenshots are saved to a folder of your choosing and copied
to your clipboard, or piped raw to another program.`,
		Example: `  # capture a window
  hyprshot -m window

  # capture active window to clipboard
  hyprshot -m window -m active --clipboard-only

  # capture selected monitor
  hyprshot -m output -m DP-1

  # capture a region and open it
  hyprshot -m region -- swappy -f`,
		Args:          cobra.ArbitraryArgs,
		RunE:          runCapture,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/hyprshot/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "print debug information")

	rootCmd.Flags().StringArrayVarP(&modes, "mode", "m", nil, "one of: output, window, region, active, MONITOR_NAME (repeatable)")
	rootCmd.Flags().StringP("output-folder", "o", "", "directory in which to save screenshot")
	rootCmd.Flags().StringP("filename", "f", "", "the file name of the resulting screenshot")
	rootCmd.Flags().IntP("delay", "D", 0, "how long to delay taking the screenshot (seconds)")
	rootCmd.Flags().BoolP("freeze", "z", false, "freeze the screen during interactive selection")
	rootCmd.Flags().Bool("clipboard-only", false, "copy screenshot to clipboard and don't save image in disk")
	rootCmd.Flags().BoolP("raw", "r", false, "output raw image data to stdout")
	rootCmd.Flags().BoolP("silent", "s", false, "don't send notification when screenshot is saved")
	rootCmd.Flags().IntP("notif-timeout", "t", 5000, "notification timeout in milliseconds")

	viper.BindPFlag("output_folder", rootCmd.Flags().Lookup("output-folder"))
	viper.BindPFlag("filename", rootCmd.Flags().Lookup("filename"))
	viper.BindPFlag("delay", rootCmd.Flags().Lookup("delay"))
	viper.BindPFlag("freeze", rootCmd.Flags().Lookup("freeze"))
	viper.BindPFlag("clipboard_only", rootCmd.Flags().Lookup("clipboard-only"))
	viper.BindPFlag("raw", rootCmd.Flags().Lookup("raw"))
	viper.BindPFlag("silent", rootCmd.Flags().Lookup("silent"))
	viper.BindPFlag("notif_timeout", rootCmd.Flags().Lookup("notif-timeout"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(domain.ExitFailure)
	}

	level := string(logger.InfoLevel)
	if viper.GetBool("debug") {
		level = string(logger.DebugLevel)
	}
	logger.Init(level, isatty.IsTerminal(os.Stderr.Fd()))
}

func runCapture(cmd *cobra.Command, args []string) error {
	// Positional arguments are only meaningful after the -- separator,
	// where they form the post-capture command.
	if at := cmd.ArgsLenAtDash(); at > 0 || (at < 0 && len(args) > 0) {
		return &domain.OpError{
			Op:   "cli",
			Kind: domain.KindConfig,
			Err:  fmt.Errorf("unexpected arguments %q (modes are passed with -m)", args),
		}
	}

	opts := config.FromViper()
	opts.Modes = modes
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		opts.Command = args[at:]
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	sess, err := buildSession(opts)
	if err != nil {
		return err
	}
	_, err = sess.Run(cmd.Context(), opts)
	return err
}

// buildSession wires the live capability set: Hyprland IPC, hyprpicker,
// slurp, grim, wl-copy, and the notification bus.
func buildSession(opts config.Options) (*session.Session, error) {
	client, err := hypr.NewClient()
	if err != nil {
		return nil, err
	}

	ctrl, err := freeze.NewController(freeze.Options{Overlay: freeze.NewProcessOverlay()})
	if err != nil {
		return nil, err
	}

	return session.New(session.Capabilities{
		Compositor: client,
		Freezer:    ctrl,
		Picker:     selector.New(selector.NewSlurpRunner()),
		Capturer:   capture.NewGrimCapturer(),
		Router:     output.NewRouter(clipboard.NewWlCopy()),
		Notifier:   notify.NewDBusNotifier(opts.NotifyTimeout),
	}), nil
}

// Execute runs the root command and maps the error to the process exit
// code: 0 on success, 2 when the selection was cancelled, 1 otherwise.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return domain.ExitOK
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted")
		return domain.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	notifyFailure(err)
	return domain.ExitCode(err)
}

// notifyFailure mirrors fatal errors to the desktop. Cancelling a selection
// is the user's own doing and stays quiet.
func notifyFailure(err error) {
	if viper.GetBool("silent") || domain.IsKind(err, domain.KindSelectionCancelled) {
		return
	}

	timeout := time.Duration(viper.GetInt("notif_timeout")) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if nerr := notify.NewDBusNotifier(timeout).Failed(ctx, err.Error()); nerr != nil {
		logger.WithComponent("cli").Debug().Err(nerr).Msg("failure notification not delivered")
	}
}
