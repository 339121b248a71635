package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/winstate/internal/geom"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/resize"
	"github.com/1broseidon/winstate/internal/snap"
	"github.com/1broseidon/winstate/internal/wm"
)

var windowCommands = map[string]ipc.CommandType{
	"focus":           ipc.CommandFocus,
	"close":           ipc.CommandClose,
	"minimize":        ipc.CommandMinimize,
	"restore":         ipc.CommandRestore,
	"toggle":          ipc.CommandToggleFocusOrMinimize,
	"maximize":        ipc.CommandMaximize,
	"unmaximize":      ipc.CommandUnmaximize,
	"toggle-maximize": ipc.CommandToggleMaximize,
	"pin":             ipc.CommandToggleAlwaysOnTop,
}

// parseFloats splits a comma separated list of exactly n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func parsePoint(s string) (geom.Point, error) {
	v, err := parseFloats(s, 2)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: v[0], Y: v[1]}, nil
}

func parseRect(s string) (geom.Rect, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.R(v[0], v[1], v[2], v[3]), nil
}

func printChanged(changed bool) {
	if changed {
		fmt.Println("changed")
	} else {
		fmt.Println("unchanged")
	}
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func runOpen(args []string) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Window id (generated when empty)")
	name := fs.String("name", "", "Display name")
	icon := fs.String("icon", "", "Icon reference")
	component := fs.String("component", "", "Content component key")
	geometry := fs.String("geometry", "40,40,400,300", "Initial geometry x,y,w,h")
	pin := fs.Bool("pin", false, "Keep the window above unpinned windows")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winstate open [--id ID] [--name NAME] [--geometry x,y,w,h] [--pin]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open a window, or focus it when the id already exists.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	r, err := parseRect(*geometry)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	opened, err := ipc.NewClient().Open(wm.Descriptor{
		ID:           *id,
		DisplayName:  *name,
		Icon:         *icon,
		ComponentKey: *component,
		AlwaysOnTop:  *pin,
		Geometry:     r,
	})
	if err != nil {
		return fail(err)
	}
	fmt.Println(opened)
	return 0
}

func runWindow(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: winstate window <command> <id>")
		fmt.Fprintln(os.Stderr, "       winstate window next")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Commands: focus, close, minimize, restore, toggle, maximize, unmaximize, toggle-maximize, pin")
		return 2
	}

	client := ipc.NewClient()
	if args[0] == "next" {
		changed, err := client.FocusNext()
		if err != nil {
			return fail(err)
		}
		printChanged(changed)
		return 0
	}

	cmd, ok := windowCommands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown window command: %s\n", args[0])
		return 2
	}
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "window %s requires <id>\n", args[0])
		return 2
	}
	changed, err := client.WindowCommand(cmd, args[1])
	if err != nil {
		return fail(err)
	}
	printChanged(changed)
	return 0
}

func runMove(args []string) int {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: winstate move <id> <x> <y>")
		return 2
	}
	p, err := parsePoint(args[1] + "," + args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	changed, err := ipc.NewClient().Move(args[0], p)
	if err != nil {
		return fail(err)
	}
	printChanged(changed)
	return 0
}

func runResize(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: winstate resize <id> <x,y,w,h>")
		return 2
	}
	r, err := parseRect(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	changed, err := ipc.NewClient().Resize(args[0], r)
	if err != nil {
		return fail(err)
	}
	printChanged(changed)
	return 0
}

func runSnap(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: winstate snap <id> <left|right|top|top-left|top-right|bottom-left|bottom-right>")
		return 2
	}
	region, err := snap.ParseRegion(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	data, err := ipc.NewClient().Snap(args[0], region)
	if err != nil {
		return fail(err)
	}
	r := data.Target.Rect
	fmt.Printf("%s: %.0f,%.0f %.0fx%.0f\n", data.Target.Region, r.Position.X, r.Position.Y, r.Size.W, r.Size.H)
	printChanged(data.Changed)
	return 0
}

func runArrange(args []string) int {
	fs := flag.NewFlagSet("arrange", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	ids := fs.String("ids", "", "Comma separated window ids (default: all visible windows)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winstate arrange [--ids a,b,c] <cascade|tile|stack>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	var list []string
	if *ids != "" {
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				list = append(list, id)
			}
		}
	}
	placements, err := ipc.NewClient().Arrange(list, fs.Arg(0))
	if err != nil {
		return fail(err)
	}
	for _, p := range placements {
		r := p.Rect
		fmt.Printf("%-20s %.0f,%.0f %.0fx%.0f\n", p.ID, r.Position.X, r.Position.Y, r.Size.W, r.Size.H)
	}
	return 0
}

func runGroup(args []string) int {
	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winstate group create [--name NAME] <id> <id>...")
		fmt.Fprintln(os.Stderr, "  winstate group add <group> <id>")
		fmt.Fprintln(os.Stderr, "  winstate group remove <group> <id>")
		fmt.Fprintln(os.Stderr, "  winstate group switch <group> <id>")
		fmt.Fprintln(os.Stderr, "  winstate group destroy <group>")
	}
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage()
		return 2
	}

	client := ipc.NewClient()
	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("group create", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		name := fs.String("name", "", "Group name")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "group create requires at least two window ids")
			return 2
		}
		g, err := client.CreateGroup(fs.Args(), *name)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%s manager=%s members=%v\n", g.ID, g.ManagerID, g.Members)
		return 0

	case "add", "remove", "switch":
		if len(args) != 3 {
			usage()
			return 2
		}
		cmd := map[string]ipc.CommandType{
			"add":    ipc.CommandGroupAdd,
			"remove": ipc.CommandGroupRemove,
			"switch": ipc.CommandGroupSwitchTab,
		}[args[0]]
		if err := client.GroupMember(cmd, args[1], args[2]); err != nil {
			return fail(err)
		}
		return 0

	case "destroy":
		if len(args) != 2 {
			usage()
			return 2
		}
		if err := client.DestroyGroup(args[1]); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown group subcommand: %s\n", args[0])
		return 2
	}
}

func runGesture(args []string) int {
	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winstate gesture drag <id> <fromX,fromY> <toX,toY>")
		fmt.Fprintln(os.Stderr, "  winstate gesture resize <id> <n|s|e|w|ne|nw|se|sw> <fromX,fromY> <toX,toY>")
		fmt.Fprintln(os.Stderr, "  winstate gesture cancel")
	}
	if len(args) == 0 {
		usage()
		return 2
	}

	client := ipc.NewClient()
	var err error
	switch args[0] {
	case "cancel":
		_, err = client.Cancel()
		if err != nil {
			return fail(err)
		}
		return 0
	case "drag":
		if len(args) != 4 {
			usage()
			return 2
		}
		var from geom.Point
		if from, err = parsePoint(args[2]); err == nil {
			_, err = client.StartDrag(args[1], from)
		}
		if err != nil {
			return fail(err)
		}
		return finishGesture(client, args[3])
	case "resize":
		if len(args) != 5 {
			usage()
			return 2
		}
		dir, err := resize.Parse(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		from, err := parsePoint(args[3])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if _, err := client.StartResize(args[1], dir, from); err != nil {
			return fail(err)
		}
		return finishGesture(client, args[4])
	default:
		usage()
		return 2
	}
}

// finishGesture moves the pointer to the end point and releases it,
// cancelling the gesture when the move is rejected.
func finishGesture(client *ipc.Client, to string) int {
	p, err := parsePoint(to)
	if err == nil {
		_, err = client.PointerMove(p)
	}
	if err != nil {
		if _, cerr := client.Cancel(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return fail(err)
	}
	outcome, err := client.PointerUp(p)
	if err != nil {
		return fail(err)
	}
	if !outcome.Committed {
		fmt.Println("no change")
		return 0
	}
	g := outcome.Geometry
	fmt.Printf("%s %s: %.0f,%.0f %.0fx%.0f", outcome.Command, outcome.WindowID, g.Position.X, g.Position.Y, g.Size.W, g.Size.H)
	if outcome.Region != snap.RegionNone {
		fmt.Printf(" (snapped %s)", outcome.Region)
	}
	fmt.Println()
	return 0
}
