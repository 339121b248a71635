package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/daemon"
	"github.com/1broseidon/winstate/internal/desktop"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/logging"
	"github.com/1broseidon/winstate/internal/runtimepath"
	"github.com/1broseidon/winstate/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "resize":
		os.Exit(runResize(os.Args[2:]))
	case "snap":
		os.Exit(runSnap(os.Args[2:]))
	case "arrange":
		os.Exit(runArrange(os.Args[2:]))
	case "group":
		os.Exit(runGroup(os.Args[2:]))
	case "gesture":
		os.Exit(runGesture(os.Args[2:]))
	case "snapshot":
		os.Exit(runSnapshot(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winstate <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the winstate daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  state               List windows top of stack first")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  open                Open a window")
	fmt.Fprintln(w, "  window <cmd> <id>   focus, close, minimize, restore, toggle, maximize,")
	fmt.Fprintln(w, "                      unmaximize, toggle-maximize, pin, next")
	fmt.Fprintln(w, "  move <id> <x> <y>   Move a window")
	fmt.Fprintln(w, "  resize <id> <rect>  Set window geometry (x,y,w,h)")
	fmt.Fprintln(w, "  snap <id> <region>  Snap a window to a screen region")
	fmt.Fprintln(w, "  arrange <formation> Cascade, tile or stack windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  group create        Group windows under a tab manager")
	fmt.Fprintln(w, "  group add|remove|switch|destroy")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  gesture drag        Simulate a title-bar drag")
	fmt.Fprintln(w, "  gesture resize      Simulate a resize-handle drag")
	fmt.Fprintln(w, "  gesture cancel      Abort the gesture in progress")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  snapshot save|load|list|delete")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive inspector")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winstate <command> --help' for command-specific options.")
}

func loadConfigResult(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func loggingConfig(cfg *config.Config, console bool) logging.Config {
	lc := cfg.GetLoggingConfig()
	return logging.Config{
		Level:     lc.Level,
		File:      lc.File,
		MaxSizeMB: lc.MaxSizeMB,
		MaxFiles:  lc.MaxFiles,
		Console:   console,
		Out:       os.Stderr,
	}
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/winstate/config.yaml)")
	socket := fs.String("socket", "", "IPC socket path (default: runtime dir)")
	noWatch := fs.Bool("no-watch", false, "Do not reload when the config file changes")
	console := fs.Bool("console", false, "Human-readable log output")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winstate daemon [--path PATH] [--socket PATH] [--no-watch] [--console]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the window state daemon in the foreground. SIGHUP reloads the config.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	cfgPath := *path
	if cfgPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfgPath = p
	}
	res, err := config.LoadFromPath(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, closeLog, err := logging.New(loggingConfig(res.Config, *console))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return 1
	}
	defer closeLog()

	socketPath := *socket
	if socketPath == "" {
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			logger.Error().Err(err).Msg("failed to resolve socket path")
			return 1
		}
	}
	pidPath, err := runtimepath.PIDPath()
	if err != nil {
		logger.Warn().Err(err).Msg("no runtime dir for pid file")
		pidPath = ""
	}
	if pidPath != "" {
		if pid, err := daemon.ReadPIDFile(pidPath); err == nil && pid != os.Getpid() {
			if ipc.NewClientForSocket(socketPath).Ping() == nil {
				fmt.Fprintf(os.Stderr, "winstate daemon already running (pid %d)\n", pid)
				return 1
			}
		}
	}

	desk, err := desktop.New(res.Config, desktop.WithLogger(logger))
	if err != nil {
		logger.Error().Err(err).Msg("failed to create desktop")
		return 1
	}
	defer desk.Close()

	d, err := daemon.New(desk, daemon.Options{
		ConfigPath: cfgPath,
		SocketPath: socketPath,
		PIDPath:    pidPath,
		Watch:      !*noWatch,
		Logger:     logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create daemon")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("config", cfgPath).
		Str("socket", socketPath).
		Str("backend", res.Config.Backend).
		Msg("starting winstate daemon")
	if err := d.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("daemon stopped with error")
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winstate status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("backend:        %s\n", status.Backend)
	fmt.Printf("viewport:       %.0fx%.0f (chrome %.0f)\n", status.Viewport.Width, status.Viewport.Height, status.Viewport.ChromeHeight)
	fmt.Printf("windows:        %d (%d visible)\n", status.Windows, status.Visible)
	fmt.Printf("groups:         %d\n", status.Groups)
	fmt.Printf("active:         %s\n", status.ActiveID)
	fmt.Printf("session:        %s\n", status.Session)
	fmt.Printf("unsaved:        %v\n", status.Dirty)
	return 0
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the full state as JSON (back to front)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	state, err := ipc.NewClient().GetState()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(state)
	}

	fmt.Printf("%-3s %-20s %-24s %-10s %-6s %s\n", "#", "ID", "NAME", "STATE", "Z", "GEOMETRY")
	for i := len(state.Stack) - 1; i >= 0; i-- {
		w := state.Stack[i]
		marker := " "
		if w.ID == state.ActiveID {
			marker = "*"
		}
		name := w.DisplayName
		if w.AlwaysOnTop {
			name += " (pinned)"
		}
		g := w.Geometry
		fmt.Printf("%-3s %-20s %-24s %-10s %-6d %.0f,%.0f %.0fx%.0f\n",
			marker, w.ID, name, w.State, w.ZIndex, g.Position.X, g.Position.Y, g.Size.W, g.Size.H)
	}
	for _, g := range state.Groups {
		fmt.Printf("\ngroup %s (%s): %v active=%s\n", g.ID, g.Name, g.Members, g.ActiveMember)
	}
	return 0
}

func runReload(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: winstate reload")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
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

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winstate config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  winstate config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  winstate config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winstate/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if _, err := loadConfigResult(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winstate/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfigResult(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winstate/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfigResult(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}

func runTUI(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: winstate tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive inspector for the running daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab, 1-3   Switch between windows, groups and snapshots")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓   Navigate")
		fmt.Fprintln(os.Stderr, "  Enter      Focus window / switch tab / load snapshot")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C  Quit")
		return 0
	}
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		return 2
	}

	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
