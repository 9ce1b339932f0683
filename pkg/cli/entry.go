// Package cli is the command-line entry point: it loads the
// configuration, runs the model-building pipeline and prints the
// load order, the group states and the diagnostic report.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/gircore/girbind/internal/diagnostics"
	"github.com/gircore/girbind/internal/patches"
	"github.com/gircore/girbind/internal/pipeline"
	"github.com/gircore/girbind/internal/registry"
)

type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// Run executes the CLI with the given arguments (without the program
// name) and returns the process exit code.
func Run(args []string) int {
	fs := flag.NewFlagSet("girbind", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to girbind.yaml (default: search upward from the working directory)")
	var extraPaths pathList
	fs.Var(&extraPaths, "path", "additional repository search path (repeatable)")
	var ignore pathList
	fs.Var(&ignore, "ignore", "additional namespace-version unit to ignore (repeatable)")
	verbose := fs.Bool("verbose", false, "log pipeline progress")
	noCache := fs.Bool("no-cache", false, "disable the discovery cache")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "girbind: %s\n", err)
		return 2
	}
	cfg.SearchPaths = append(cfg.SearchPaths, extraPaths...)
	cfg.Ignore = append(cfg.Ignore, ignore...)
	if *noCache {
		cfg.CachePath = ""
	}

	result, err := pipeline.Execute(context.Background(), cfg, patches.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "girbind: %s\n", err)
		return 1
	}

	printResult(os.Stdout, result)
	return 0
}

func loadConfig(path string) (*registry.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = registry.FindConfig(wd)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, fmt.Errorf("no girbind.yaml found; pass -config")
		}
	}
	return registry.LoadConfig(path)
}

// ANSI severity colors, applied only when stdout is a terminal.
var severityColors = map[diagnostics.Severity]string{
	diagnostics.Info:    "\x1b[36m",
	diagnostics.Warning: "\x1b[33m",
	diagnostics.Error:   "\x1b[31m",
}

func colorize(s string, sev diagnostics.Severity) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}
	return severityColors[sev] + s + "\x1b[0m"
}

func printResult(w *os.File, result *pipeline.Result) {
	fmt.Fprintf(w, "run %s\n", result.Report.RunID)

	fmt.Fprintln(w, "load order:")
	for i, d := range result.LoadOrder {
		fmt.Fprintf(w, "  %2d. %s (%s)\n", i+1, d.Unit(), d.Path)
	}

	for _, g := range result.Groups {
		switch g.State {
		case registry.Conflicting:
			fmt.Fprintf(w, "%s %s: %s\n", colorize("conflicting", diagnostics.Error), g.Namespace, g.Reason)
		case registry.Failed:
			fmt.Fprintf(w, "%s %s: %s\n", colorize("failed", diagnostics.Error), g.Namespace, g.Reason)
		}
	}

	for _, d := range result.Report.Diagnostics {
		fmt.Fprintf(w, "%s\n", colorize(d.String(), d.Severity))
	}

	counts := result.Report.Counts()
	fmt.Fprintf(w, "%d namespaces, %d conflicts, %d warnings, %d errors\n",
		len(result.LoadOrder), len(result.Conflicts),
		counts[diagnostics.Warning], counts[diagnostics.Error])
}
