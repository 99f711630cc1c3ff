package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hyprshot/internal/hypr"
	"hyprshot/internal/resolve"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List capturable monitors and windows",
	Long: `List the monitors and windows Hyprland reports as capturable.

This command connects to the Hyprland IPC socket and prints every active
monitor, or with --windows every visible window, in the order the
compositor reports them.`,
	Example: `  # List monitors in table format (default)
  hyprshot list

  # List monitors in JSON format
  hyprshot list --format json

  # List visible windows
  hyprshot list --windows

  # Show the focused monitor and window
  hyprshot list --current`,
	RunE: runList,
}

var (
	listFormat  string
	listWindows bool
	listCurrent bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listWindows, "windows", "w", false, "list windows instead of monitors")
	listCmd.Flags().BoolVarP(&listCurrent, "current", "c", false, "show the focused monitor and window")
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := hypr.NewClient()
	if err != nil {
		return err
	}

	if listCurrent {
		return showCurrent(cmd.Context(), client)
	}

	if listWindows {
		return listClientWindows(cmd.Context(), client)
	}
	return listMonitors(cmd.Context(), client)
}

func listMonitors(ctx context.Context, client *hypr.Client) error {
	monitors, err := client.Monitors(ctx)
	if err != nil {
		return err
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(monitors)
	case "table":
		return printMonitorsTable(monitors)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printMonitorsTable(monitors []hypr.Monitor) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tSIZE\tPOSITION\tSCALE\tFOCUSED")
	fmt.Fprintln(w, "----\t----\t--------\t-----\t-------")

	for _, m := range monitors {
		focused := "No"
		if m.Focused {
			focused = "Yes"
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%d,%d\t%.2f\t%s\n",
			m.Name, m.Width, m.Height, m.X, m.Y, m.EffectiveScale(), focused)
	}

	return nil
}

func listClientWindows(ctx context.Context, client *hypr.Client) error {
	monitors, err := client.Monitors(ctx)
	if err != nil {
		return err
	}
	windows, err := client.Windows(ctx)
	if err != nil {
		return err
	}
	visible := resolve.VisibleWindows(monitors, windows)

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(visible)
	case "table":
		return printWindowsTable(visible)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindowsTable(windows []hypr.Window) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TITLE\tCLASS\tSIZE\tWORKSPACE\tADDRESS")
	fmt.Fprintln(w, "-----\t-----\t----\t---------\t-------")

	for _, win := range windows {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%s\n",
			win.Title, win.Class, win.Size[0], win.Size[1], win.Workspace.ID, win.Address)
	}

	return nil
}

func showCurrent(ctx context.Context, client *hypr.Client) error {
	monitors, err := client.Monitors(ctx)
	if err != nil {
		return err
	}
	var focused *hypr.Monitor
	for i := range monitors {
		if monitors[i].Focused {
			focused = &monitors[i]
			break
		}
	}

	window, err := client.ActiveWindow(ctx)
	if err != nil {
		return err
	}

	if listFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Monitor *hypr.Monitor `json:"monitor"`
			Window  *hypr.Window  `json:"window"`
		}{focused, window})
	}

	if focused != nil {
		fmt.Printf("Monitor:  %s (%dx%d at %d,%d, scale %.2f)\n",
			focused.Name, focused.Width, focused.Height, focused.X, focused.Y, focused.EffectiveScale())
	}
	if window == nil {
		fmt.Println("No window is currently focused")
		return nil
	}

	fmt.Printf("Title:    %s\n", window.Title)
	fmt.Printf("Class:    %s\n", window.Class)
	fmt.Printf("Size:     %dx%d at (%d, %d)\n",
		window.Size[0], window.Size[1], window.At[0], window.At[1])

	return nil
}
