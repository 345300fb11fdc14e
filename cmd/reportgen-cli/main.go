package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"k8s.io/klog/v2"
)

type command struct {
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"validate": {"check template documents for schema errors", runValidate},
	"layout":   {"print the generated layout of a template", runLayout},
	"state":    {"print the computed field state for captured data", runState},
	"fill":     {"prompt for captured data interactively", runFill},
	"preview":  {"render an HTML preview of a template and its data", runPreview},
	"openapi":  {"export the captured data contract as OpenAPI 3", runOpenAPI},
	"import":   {"store a template document", runImport},
	"clone":    {"clone a stored template under a new name", runClone},
	"catalog":  {"search stored templates", runCatalog},
}

func main() {
	klog.InitFlags(nil)
	configPath := flag.String("config", "", "config file (defaults to $REPORTGEN_CONFIG or reportgen.yaml)")
	flag.Usage = usage
	flag.Parse()

	code := run(context.Background(), flag.Args(), func() (*environment, error) {
		return newEnvironment(*configPath)
	}, os.Stderr)
	klog.Flush()
	os.Exit(code)
}

// run dispatches one command and returns the process exit code. The
// environment is closed before run returns.
func run(ctx context.Context, args []string, open func() (*environment, error), stderr io.Writer) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage()
		return 2
	}

	env, err := open()
	if err != nil {
		fmt.Fprintf(stderr, "reportgen: %v\n", err)
		return 1
	}
	defer env.Close()

	if err := cmd.run(ctx, env, args[1:]); err != nil {
		fmt.Fprintf(stderr, "reportgen %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", filepath.Base(os.Args[0]))
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}
