package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/winstate/internal/ipc"
)

func printSnapshotUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  winstate snapshot save <name>")
	fmt.Fprintln(os.Stderr, "  winstate snapshot load <name>")
	fmt.Fprintln(os.Stderr, "  winstate snapshot list [--json]")
	fmt.Fprintln(os.Stderr, "  winstate snapshot delete <name>")
}

func runSnapshot(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSnapshotUsage()
		return 2
	}

	client := ipc.NewClient()
	switch args[0] {
	case "save", "load":
		if len(args) != 2 {
			printSnapshotUsage()
			return 2
		}
		save := client.SaveSnapshot
		verb := "saved"
		if args[0] == "load" {
			save = client.LoadSnapshot
			verb = "loaded"
		}
		info, err := save(args[1])
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%s %s (%d windows, %d groups)\n", verb, info.Name, info.Windows, info.Groups)
		return 0

	case "list":
		fs := flag.NewFlagSet("snapshot list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		asJSON := fs.Bool("json", false, "Print as JSON")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		infos, err := client.ListSnapshots()
		if err != nil {
			return fail(err)
		}
		if *asJSON {
			return printJSON(infos)
		}
		if len(infos) == 0 {
			fmt.Println("no snapshots")
			return 0
		}
		for _, info := range infos {
			fmt.Printf("%-24s %s  %3d windows  %2d groups\n",
				info.Name, info.SavedAt.Local().Format("2006-01-02 15:04:05"), info.Windows, info.Groups)
		}
		return 0

	case "delete":
		if len(args) != 2 {
			printSnapshotUsage()
			return 2
		}
		if err := client.DeleteSnapshot(args[1]); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshot subcommand: %s\n", args[0])
		return 2
	}
}
