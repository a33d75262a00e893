// homemap queries a home map: the packed path map, tags store and preview
// index produced for a file tree.
//
// Stores are fetched from the source named in the config file (a local
// directory by default), reassembled from parts when a part manifest exists,
// and queried in memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/meigma/homemap/config"
)

// exitError carries a process exit status without an error message.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e exitError) ExitCode() int { return e.code }

var errNotFound = exitError{code: 1}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configPath, logLevel string

	flagSet := pflag.NewFlagSet("homemap", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return exitError{code: 2}
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level() //nolint:errcheck // checked by Validate
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cmdArgs, err := cmd.parse(rest[0], rest[1:], stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	st, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	return cmd.run(&app{engine: st.engine, cfg: cfg, out: stdout, errOut: stderr}, cmdArgs)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `homemap queries a packed home map.

Usage:
  homemap [flags] <command> [args]

Commands:
  lookup <path>             print the offset recorded for path
  count <prefix>            count entries whose name starts with prefix
  ls <prefix>               list entries whose name starts with prefix
  dir <dir>                 list the immediate children of dir
  stat <path>               print size and mime type of path
  preview [-n bytes] <path> print the leading bytes captured for path

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
