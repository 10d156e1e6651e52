package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/docktile/internal/drag"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
)

func printTabUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  docktile tab open [--group G] <view>")
	fmt.Fprintln(w, "  docktile tab activate <view>")
	fmt.Fprintln(w, "  docktile tab close <view>")
	fmt.Fprintln(w, "  docktile tab close-others <view>")
	fmt.Fprintln(w, "  docktile tab close-right <view>")
	fmt.Fprintln(w, "  docktile tab lock <view>")
	fmt.Fprintln(w, "  docktile tab move <view> <group>")
	fmt.Fprintln(w, "  docktile tab split [--position P] <group> <view>")
}

func runTab(args []string) int {
	if len(args) == 0 {
		printTabUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printTabUsage(os.Stdout)
		return 0
	}
	client := ipc.NewClient()

	// Commands that take exactly one view id.
	single := map[string]struct {
		about string
		fn    func(string) error
	}{
		"activate":     {"Activate a tab and focus its group.", client.ActivateTab},
		"close":        {"Close a tab. Locked tabs stay open.", client.CloseTab},
		"close-others": {"Close every other unlocked tab in the tab's group.", client.CloseOthers},
		"close-right":  {"Close the unlocked tabs to the right of the tab.", client.CloseRight},
		"lock":         {"Toggle the tab lock. Locked tabs cannot be closed or dragged.", client.ToggleTabLock},
	}
	if cmd, ok := single[args[0]]; ok {
		fs := newFlagSet(args[0], "docktile tab "+args[0]+" <view>", cmd.about)
		if code := parse(fs, args[1:], 1, 1); code >= 0 {
			return code
		}
		if err := cmd.fn(fs.Arg(0)); err != nil {
			return fail(err)
		}
		return 0
	}

	switch args[0] {
	case "open":
		fs := newFlagSet("open", "docktile tab open [--group G] <view>",
			"Open a registered view. An open view is activated instead.")
		group := fs.StringP("group", "g", "", "Target group (default: the active group)")
		if code := parse(fs, args[1:], 1, 1); code >= 0 {
			return code
		}
		if err := client.OpenView(fs.Arg(0), *group); err != nil {
			return fail(err)
		}
		return 0

	case "move":
		fs := newFlagSet("move", "docktile tab move <view> <group>",
			"Move a tab into another group. A group left empty is removed.")
		if code := parse(fs, args[1:], 2, 2); code >= 0 {
			return code
		}
		if err := client.MoveTab(fs.Arg(0), fs.Arg(1)); err != nil {
			return fail(err)
		}
		return 0

	case "split":
		fs := newFlagSet("split", "docktile tab split [--position P] <group> <view>",
			"Split a group and place the view in the new half.")
		pos := fs.StringP("position", "p", string(layout.Right), "Side of the new half: left, right, top or bottom")
		if code := parse(fs, args[1:], 2, 2); code >= 0 {
			return code
		}
		p := layout.Position(strings.ToLower(*pos))
		if !p.Valid() || p == layout.Center {
			fmt.Fprintf(os.Stderr, "invalid --position %q\n", *pos)
			return 2
		}
		if err := client.Split(fs.Arg(0), fs.Arg(1), p); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown tab command: %s\n\n", args[0])
		printTabUsage(os.Stderr)
		return 2
	}
}

func printGroupUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  docktile group close-all <group>")
	fmt.Fprintln(w, "  docktile group maximize [<group>]")
	fmt.Fprintln(w, "  docktile group lock <group|split>")
	fmt.Fprintln(w, "  docktile group lock --layout")
	fmt.Fprintln(w, "  docktile group resize <split> <size> <size> [...]")
}

func runGroup(args []string) int {
	if len(args) == 0 {
		printGroupUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printGroupUsage(os.Stdout)
		return 0
	}
	client := ipc.NewClient()

	switch args[0] {
	case "close-all":
		fs := newFlagSet("close-all", "docktile group close-all <group>", "Close every unlocked tab in the group.")
		if code := parse(fs, args[1:], 1, 1); code >= 0 {
			return code
		}
		if err := client.CloseAll(fs.Arg(0)); err != nil {
			return fail(err)
		}
		return 0

	case "maximize":
		fs := newFlagSet("maximize", "docktile group maximize [<group>]",
			"Maximize the group, or restore when it is already maximized. Without a group, restore.")
		if code := parse(fs, args[1:], 0, 1); code >= 0 {
			return code
		}
		if err := client.ToggleMaximize(fs.Arg(0)); err != nil {
			return fail(err)
		}
		return 0

	case "lock":
		fs := newFlagSet("lock", "docktile group lock <group|split> | --layout",
			"Toggle a structural lock on a group or split, or on the whole layout.")
		whole := fs.Bool("layout", false, "Toggle the layout lock")
		if code := parse(fs, args[1:], 0, 1); code >= 0 {
			return code
		}
		var err error
		switch {
		case *whole && fs.NArg() == 0:
			err = client.ToggleLayoutLock()
		case !*whole && fs.NArg() == 1:
			err = client.ToggleGroupLock(fs.Arg(0))
		default:
			fs.Usage()
			return 2
		}
		if err != nil {
			return fail(err)
		}
		return 0

	case "resize":
		fs := newFlagSet("resize", "docktile group resize <split> <size> <size> [...]",
			"Set the relative sizes of a split's children. Sizes are weights and are normalized.")
		if code := parse(fs, args[1:], 3, -1); code >= 0 {
			return code
		}
		sizes, err := parseSizes(fs.Args()[1:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if err := client.Resize(fs.Arg(0), sizes); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown group command: %s\n\n", args[0])
		printGroupUsage(os.Stderr)
		return 2
	}
}

func parseSizes(args []string) ([]float64, error) {
	sizes := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid size %q: must be a positive number", a)
		}
		sizes = append(sizes, v)
	}
	return sizes, nil
}

func runDrop(args []string) int {
	fs := newFlagSet("drop", "docktile drop <view> (--group G [--zone Z] | --x X --y Y)",
		"Drop a view as if dragged. With --zone the point is derived from the group's\nrectangle; otherwise --x/--y are percentages of the layout canvas.")
	group := fs.StringP("group", "g", "", "Target group")
	zone := fs.StringP("zone", "z", "", "Drop zone: center, left, right, top or bottom")
	x := fs.Float64("x", -1, "Pointer x in percent of the canvas")
	y := fs.Float64("y", -1, "Pointer y in percent of the canvas")
	if code := parse(fs, args, 1, 1); code >= 0 {
		return code
	}
	client := ipc.NewClient()
	p := ipc.DropPayload{ViewID: fs.Arg(0), GroupID: *group, X: *x, Y: *y}

	if *zone != "" {
		if *group == "" {
			fmt.Fprintln(os.Stderr, "--zone requires --group")
			return 2
		}
		z := layout.Position(strings.ToLower(*zone))
		if !z.Valid() {
			fmt.Fprintf(os.Stderr, "invalid --zone %q\n", *zone)
			return 2
		}
		data, err := client.GetLayout(0, 0)
		if err != nil {
			return fail(err)
		}
		box, ok := data.Boxes[*group]
		if !ok {
			fmt.Fprintf(os.Stderr, "group %q is not visible in the layout\n", *group)
			return 1
		}
		p.X, p.Y = drag.ZonePoint(box, z)
	} else if *x < 0 || *y < 0 {
		fmt.Fprintln(os.Stderr, "drop requires --zone with --group, or --x and --y")
		fs.Usage()
		return 2
	}

	res, err := client.Drop(p)
	if err != nil {
		return fail(err)
	}
	switch {
	case res.Applied:
		fmt.Printf("dropped %s on %s (%s)\n", res.ViewID, res.TargetGroupID, res.Zone)
		return 0
	case res.Canceled:
		fmt.Fprintf(os.Stderr, "drop canceled: %s\n", res.Reason)
	default:
		fmt.Fprintf(os.Stderr, "drop not applied on %s (%s): %s\n", res.TargetGroupID, res.Zone, res.Reason)
	}
	return 1
}

func runMenu(args []string) int {
	fs := newFlagSet("menu", "docktile menu <tab|group|layout> [<target>] [--run ACTION]",
		"List the context menu for a tab, group or the layout, or run one of its actions.")
	action := fs.StringP("run", "r", "", "Action id to run (e.g. "+layout.ActionCloseTab+")")
	if code := parse(fs, args, 1, 2); code >= 0 {
		return code
	}
	scope := ipc.MenuScope(fs.Arg(0))
	target := fs.Arg(1)
	client := ipc.NewClient()

	if *action != "" {
		if err := client.InvokeMenu(scope, target, *action); err != nil {
			return fail(err)
		}
		return 0
	}
	items, err := client.Menu(scope, target)
	if err != nil {
		return fail(err)
	}
	for _, it := range items {
		var flags []string
		if it.Disabled {
			flags = append(flags, "disabled")
		}
		if it.Danger {
			flags = append(flags, "danger")
		}
		line := fmt.Sprintf("%-20s %s", it.Action, it.Label)
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ",") + "]"
		}
		fmt.Println(line)
	}
	return 0
}
