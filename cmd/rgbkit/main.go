// rgbkit inspects container files and manages a wallet data directory.
//
// Container commands (inspect, list, encode, decode) work on plain files and
// need no wallet. Wallet commands (put, ids, reindex, export, import) open the
// data directory given by --dir, the config file, or ~/.rgbkit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/agenthands/rgbkit/internal/logging"
	"github.com/agenthands/rgbkit/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

type globalOptions struct {
	dir        string
	configPath string
	logLevel   string
}

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

// env is what a command runs against.
type env struct {
	cfg    core.Config
	stdout io.Writer
}

var commands = []command{
	{name: "inspect", args: "<file>", summary: "show the kind, tag, size and ID of a container file", run: runInspect},
	{name: "list", args: "<dir> [--ext e]", summary: "list the files of a directory", run: runList},
	{name: "encode", args: "<file>", summary: "print a container file as a multibase string", run: runEncode},
	{name: "decode", args: "<string> <file>", summary: "write a multibase string back to a container file", run: runDecode},
	{name: "put", args: "<file>...", summary: "store container files in the wallet", run: runPut},
	{name: "ids", args: "[kind]", summary: "list the IDs stored in the wallet", run: runIDs},
	{name: "reindex", summary: "rebuild the wallet index from its files", run: runReindex},
	{name: "export", args: "<file.car>", summary: "write the wallet to an archive", run: runExport},
	{name: "import", args: "<file.car>", summary: "store every container of an archive", run: runImport},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		var usage *usageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts globalOptions
	flagSet := pflag.NewFlagSet("rgbkit", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&opts.dir, "dir", "", "wallet data directory (default ~/.rgbkit)")
	flagSet.StringVar(&opts.configPath, "config", "", "TOML config file")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return usagef("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return usagef("command required")
	}

	cmd, ok := lookup(rest[0])
	if !ok {
		return usagef("unknown command %q", rest[0])
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	configureLogging(cfg, opts.logLevel)

	return cmd.run(ctx, &env{cfg: cfg, stdout: stdout}, rest[1:])
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func loadConfig(opts globalOptions) (core.Config, error) {
	cfg := core.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := core.LoadConfig(opts.configPath)
		if err != nil {
			return core.Config{}, err
		}
		cfg = loaded
	}
	if opts.dir != "" {
		cfg.Dir = opts.dir
	}
	if cfg.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return core.Config{}, fmt.Errorf("no wallet directory: %w", err)
		}
		cfg.Dir = filepath.Join(home, ".rgbkit")
	}
	return cfg, nil
}

func configureLogging(cfg core.Config, flagLevel string) {
	logging.Configure(logging.ProfileRuntime, func(c *logging.Config) {
		if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
			c.Level = lvl
		}
		if lvl, ok := logging.ParseLevel(flagLevel); ok {
			c.Level = lvl
		}
		if cfg.Log.NoColor {
			c.NoColor = true
		}
		if c.Level > zerolog.InfoLevel {
			c.Timestamp = false
		}
	})
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: rgbkit [flags] <command> [args]\n\nCommands:\n")
	for _, c := range commands {
		usage := strings.TrimSpace(c.name + " " + c.args)
		fmt.Fprintf(w, "  %-28s %s\n", usage, c.summary)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}
