package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/1broseidon/docktile/internal/config"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/mcp"
)

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  docktile layout show [--json] [--width W --height H]")
	fmt.Fprintln(w, "  docktile layout check [--path PATH] [--stored]")
	fmt.Fprintln(w, "  docktile layout reset [<layout>]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'docktile layout <command> --help' for command-specific options.")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printLayoutUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "show":
		fs := newFlagSet("show", "docktile layout show [--json] [--width W --height H]",
			"Print the daemon's layout tree and the rectangle of every visible group.")
		jsonOut := fs.Bool("json", false, "Output snapshot and boxes as JSON")
		width := fs.Float64("width", 0, "Canvas width for group rectangles (default: 100)")
		height := fs.Float64("height", 0, "Canvas height for group rectangles (default: 100)")
		if code := parse(fs, args[1:], 0, 0); code >= 0 {
			return code
		}
		data, err := ipc.NewClient().GetLayout(*width, *height)
		if err != nil {
			return fail(err)
		}
		if *jsonOut {
			return printJSON(data)
		}
		fmt.Println(mcp.Outline(data.Snapshot))
		fmt.Println("")
		printBoxes(os.Stdout, data.Boxes)
		return 0

	case "check":
		fs := newFlagSet("check", "docktile layout check [--path PATH] [--stored]",
			"Build every configured layout and validate the resulting tree. With --stored,\nalso decode the persisted layout and report views the registry no longer knows.")
		path := fs.String("path", "", "Config file path (default: ~/.config/docktile/config.yaml)")
		stored := fs.Bool("stored", false, "Also check the stored layout")
		if code := parse(fs, args[1:], 0, 0); code >= 0 {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		failed := checkLayouts(os.Stdout, res.Config)
		if *stored {
			if err := checkStored(os.Stdout, res.Config); err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed = true
			}
		}
		if failed {
			return 1
		}
		return 0

	case "reset":
		fs := newFlagSet("reset", "docktile layout reset [<layout>]",
			"Replace the daemon's layout with the named layout, or the default layout.")
		if code := parse(fs, args[1:], 0, 1); code >= 0 {
			return code
		}
		if err := ipc.NewClient().ResetLayout(fs.Arg(0)); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown layout command: %s\n\n", args[0])
		printLayoutUsage(os.Stderr)
		return 2
	}
}

func printBoxes(w io.Writer, boxes map[string]layout.Rect) {
	ids := make([]string, 0, len(boxes))
	for id := range boxes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := boxes[ids[i]], boxes[ids[j]]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for _, id := range ids {
		r := boxes[id]
		fmt.Fprintf(w, "%-36s x=%-7.2f y=%-7.2f w=%-7.2f h=%.2f\n", id, r.X, r.Y, r.Width, r.Height)
	}
}

// checkLayouts builds each configured layout and reports whether any failed.
func checkLayouts(w io.Writer, cfg *config.Config) bool {
	reg, err := cfg.Registry()
	if err != nil {
		fmt.Fprintf(w, "registry: %v\n", err)
		return true
	}
	failed := false
	for _, name := range cfg.LayoutNames() {
		err := checkLayout(cfg, name, reg.Has)
		mark := "ok"
		if err != nil {
			mark, failed = err.Error(), true
		}
		if name == cfg.DefaultLayout {
			name += " (default)"
		}
		fmt.Fprintf(w, "%s: %s\n", name, mark)
	}
	return failed
}

func checkLayout(cfg *config.Config, name string, known func(string) bool) error {
	tmpl, err := cfg.GetLayout(name)
	if err != nil {
		return err
	}
	if err := tmpl.Validate(known); err != nil {
		return err
	}
	root, err := tmpl.Build(uuid.NewString)
	if err != nil {
		return err
	}
	return layout.New(root).Validate()
}

func checkStored(w io.Writer, cfg *config.Config) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	adapter, store, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("open layout store: %w", err)
	}
	defer store.Close()

	snap, found, err := adapter.Load(context.Background())
	if err != nil {
		return fmt.Errorf("stored layout: %w", err)
	}
	if !found {
		fmt.Fprintf(w, "stored (%s): none\n", adapter.Key())
		return nil
	}
	ws, dropped, err := layout.Restore(snap, reg.Has)
	if err != nil {
		return fmt.Errorf("stored layout: %w", err)
	}
	fmt.Fprintf(w, "stored (%s): ok, %d groups", adapter.Key(), len(ws.Groups()))
	if dropped > 0 {
		fmt.Fprintf(w, ", %d unknown views dropped on load", dropped)
	}
	fmt.Fprintln(w)
	return nil
}
