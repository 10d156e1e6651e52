package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/1broseidon/docktile/internal/config"
	"github.com/1broseidon/docktile/internal/daemon"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}
	os.Exit(run(os.Args[1], os.Args[2:]))
}

func run(cmd string, args []string) int {
	switch cmd {
	case "daemon":
		return runDaemon(args)
	case "status":
		return runStatus(args)
	case "layout":
		return runLayout(args)
	case "tab":
		return runTab(args)
	case "group":
		return runGroup(args)
	case "drop":
		return runDrop(args)
	case "menu":
		return runMenu(args)
	case "views":
		return runViews(args)
	case "config":
		return runConfig(args)
	case "mcp":
		return runMCP(args)
	case "tui":
		return runTUI(args)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printMainUsage(os.Stderr)
		return 2
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docktile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the docktile daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout show         Print the current layout")
	fmt.Fprintln(w, "  layout check        Validate configured layouts and the stored layout")
	fmt.Fprintln(w, "  layout reset        Replace the layout with the default or a named one")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tab open            Open a view (or activate it when already open)")
	fmt.Fprintln(w, "  tab activate        Activate a tab")
	fmt.Fprintln(w, "  tab close           Close a tab")
	fmt.Fprintln(w, "  tab close-others    Close the other tabs of its group")
	fmt.Fprintln(w, "  tab close-right     Close the tabs to the right")
	fmt.Fprintln(w, "  tab lock            Toggle a tab lock")
	fmt.Fprintln(w, "  tab move            Move a tab to another group")
	fmt.Fprintln(w, "  tab split           Split a group with a tab")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  group close-all     Close every unlocked tab of a group")
	fmt.Fprintln(w, "  group maximize      Toggle maximize for a group")
	fmt.Fprintln(w, "  group lock          Toggle a group or split lock (or the layout lock)")
	fmt.Fprintln(w, "  group resize        Set the child sizes of a split")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  drop                Drop a view at a point or onto a group zone")
	fmt.Fprintln(w, "  menu                Show or run a context menu")
	fmt.Fprintln(w, "  views               List registered views")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  tui                 Open the interactive layout inspector")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "The IPC socket can be overridden with $DOCKTILE_SOCKET.")
	fmt.Fprintln(w, "Run 'docktile <command> --help' for command-specific options.")
}

// newFlagSet returns a pflag set that reports errors on stderr and prints
// usage followed by the flag defaults.
func newFlagSet(name, usage, about string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		if about != "" {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, about)
		}
		if fs.HasFlags() {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

// parse parses args and checks the positional count. It returns -1 when the
// command should continue, otherwise the exit code.
func parse(fs *pflag.FlagSet, args []string, minArgs, maxArgs int) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() < minArgs || (maxArgs >= 0 && fs.NArg() > maxArgs) {
		switch {
		case maxArgs == 0:
			fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		case minArgs == maxArgs:
			fmt.Fprintf(os.Stderr, "%s takes %d argument(s)\n", fs.Name(), minArgs)
		default:
			fmt.Fprintf(os.Stderr, "%s: wrong number of arguments\n", fs.Name())
		}
		fs.Usage()
		return 2
	}
	return -1
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

// fail prints err and returns the exit code for a failed command.
func fail(err error) int {
	if errors.Is(err, ipc.ErrNotApplied) {
		fmt.Fprintf(os.Stderr, "%v (unknown id, locked, or no effect)\n", err)
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func newLogger(w io.Writer, level *slog.LevelVar, jsonLogs bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "docktile daemon [--path PATH] [--socket PATH] [--no-watch]",
		"Run the layout daemon in the foreground. The layout is saved on SIGINT/SIGTERM.")
	path := fs.String("path", "", "Config file path (default: ~/.config/docktile/config.yaml)")
	socket := fs.String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/docktile.sock)")
	noWatch := fs.Bool("no-watch", false, "Disable config hot reload")
	jsonLogs := fs.Bool("json-logs", false, "Log as JSON instead of text")
	if code := parse(fs, args, 0, 0); code >= 0 {
		return code
	}

	level := new(slog.LevelVar)
	logger := newLogger(os.Stderr, level, *jsonLogs)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := daemon.Run(ctx, daemon.Options{
		ConfigPath: *path,
		SocketPath: *socket,
		Watch:      !*noWatch,
		Level:      level,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("daemon failed", "error", err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "docktile status", "Show daemon status via IPC.")
	if code := parse(fs, args, 0, 0); code >= 0 {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("daemon_running:  %v\n", status.DaemonRunning)
	fmt.Printf("groups:          %d\n", status.Groups)
	fmt.Printf("views:           %d\n", status.Views)
	fmt.Printf("active_group:    %s\n", status.ActiveGroupID)
	if status.MaximizedGroupID != "" {
		fmt.Printf("maximized_group: %s\n", status.MaximizedGroupID)
	}
	fmt.Printf("locked:          %v\n", status.Locked)
	fmt.Printf("drag_phase:      %s\n", status.DragPhase)
	fmt.Printf("edge_band:       %g\n", status.EdgeBand)
	fmt.Printf("layout_source:   %s\n", status.Source)
	if status.DroppedViews > 0 {
		fmt.Printf("dropped_views:   %d\n", status.DroppedViews)
	}
	fmt.Printf("storage:         %s\n", status.StorageBackend)
	fmt.Printf("writes:          %d (skipped %d)\n", status.Writes, status.SkippedWrites)
	fmt.Printf("uptime_seconds:  %d\n", status.UptimeSeconds)
	return 0
}

func runViews(args []string) int {
	fs := newFlagSet("views", "docktile views [--json]", "List registered views; open views are marked with '*'.")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if code := parse(fs, args, 0, 0); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().ListViews()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		return printJSON(data)
	}
	open := make(map[string]bool, len(data.Open))
	for _, id := range data.Open {
		open[id] = true
	}
	for _, v := range data.Views {
		mark := " "
		if open[v.ID] {
			mark = "*"
		}
		line := fmt.Sprintf("%s %-16s %s", mark, v.ID, v.Name)
		if v.Route != "" {
			line += "  " + v.Route
		}
		fmt.Println(strings.TrimRight(line, " "))
	}
	return 0
}

func runTUI(args []string) int {
	fs := newFlagSet("tui", "docktile tui", strings.Join([]string{
		"Interactive inspector for the daemon's layout.",
		"",
		"Keybindings:",
		"  tab, shift+tab      Cycle group focus in tree order",
		"  h j k l, arrows     Move focus to the neighbouring group",
		"  [ ]                 Previous/next tab in the focused group",
		"  x                   Close the active tab",
		"  L                   Toggle the active tab lock",
		"  m                   Toggle maximize for the focused group",
		"  enter / g / w       Tab, group or layout context menu",
		"  r                   Refresh",
		"  q, Esc, Ctrl+C      Quit",
	}, "\n"))
	if code := parse(fs, args, 0, 0); code >= 0 {
		return code
	}
	if err := tui.Run(ipc.NewClient()); err != nil {
		return fail(err)
	}
	return 0
}
