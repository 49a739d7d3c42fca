package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigPath string
	Language   string
	Patterns   string
	Format     string
	NoCache    bool
	Verbose    bool
	ServeMCP   bool
	HTTPAddr   string
	Version    bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: semdiff [flags] <command> [args]

commands:
  compare <file1> <file2>   analyze two versions of a source file
  dirs <dir1> <dir2>        analyze every file the two trees share
  parse <file>              print the extracted structure of a file
  languages                 list languages and how each is parsed

flags:
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("semdiff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.ConfigPath, "config", "", "path to a semdiff.yml or semdiff.toml file (default: look in the working directory)")
	fs.StringVar(&flags.Language, "language", "", "source language (default: detected from file names and contents)")
	fs.StringVar(&flags.Patterns, "include", "", "comma-separated doublestar globs selecting files for dirs")
	fs.StringVar(&flags.Format, "format", "json", "output format for compare and dirs: json, text, or mermaid")
	fs.BoolVar(&flags.NoCache, "no-cache", false, "disable the result cache")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as an MCP server on stdio")
	fs.StringVar(&flags.HTTPAddr, "http", "", "with -serve-mcp, serve streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	app, err := newApp(flags, stderr)
	if err != nil {
		return err
	}

	if flags.ServeMCP {
		return app.serveMCP(ctx, flags.HTTPAddr)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "compare":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: compare needs two files", errUsage)
		}
		return app.compare(ctx, stdout, cmdArgs[0], cmdArgs[1])
	case "dirs":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: dirs needs two directories", errUsage)
		}
		return app.dirs(ctx, stdout, cmdArgs[0], cmdArgs[1], splitList(flags.Patterns))
	case "parse":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: parse needs one file", errUsage)
		}
		return app.parse(stdout, cmdArgs[0])
	case "languages":
		return app.languages(stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
