package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/config"
)

type app struct {
	engine *homemap.Engine
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
}

type command struct {
	usage string
	// flags registers command flags on fs and returns a getter for them.
	flags func(fs *pflag.FlagSet) func() any
	run   func(a *app, args parsedArgs) error
}

type parsedArgs struct {
	positional []string
	opts       any
}

func (c command) parse(name string, args []string, stderr io.Writer) (parsedArgs, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: homemap %s %s\n", name, c.usage)
		fs.PrintDefaults()
	}
	get := func() any { return nil }
	if c.flags != nil {
		get = c.flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		return parsedArgs{}, err
	}
	if fs.NArg() != 1 {
		return parsedArgs{}, fmt.Errorf("usage: homemap %s %s", name, c.usage)
	}
	return parsedArgs{positional: fs.Args(), opts: get()}, nil
}

var commands = map[string]command{
	"lookup": {usage: "<path>", run: runLookup},
	"count":  {usage: "<prefix>", run: runCount},
	"ls":     {usage: "<prefix>", run: runList},
	"dir":    {usage: "<dir>", run: runDir},
	"stat":   {usage: "<path>", run: runStat},
	"preview": {
		usage: "[-n bytes] <path>",
		flags: func(fs *pflag.FlagSet) func() any {
			n := fs.IntP("bytes", "n", 0, "maximum preview bytes (default: preview_bytes from config)")
			return func() any { return *n }
		},
		run: runPreview,
	},
}

func (a *app) notFound(name string) error {
	fmt.Fprintf(a.errOut, "%s: not found\n", name)
	return errNotFound
}

func runLookup(a *app, args parsedArgs) error {
	name := args.positional[0]
	off, ok, err := a.engine.Lookup(name)
	if err != nil {
		return err
	}
	if !ok {
		return a.notFound(name)
	}
	fmt.Fprintln(a.out, off)
	return nil
}

func runCount(a *app, args parsedArgs) error {
	n, err := a.engine.CountPrefix(args.positional[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, n)
	return nil
}

func runList(a *app, args parsedArgs) error {
	names, err := a.engine.ListPrefix(args.positional[0])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(a.out, name)
	}
	return nil
}

func runDir(a *app, args parsedArgs) error {
	entries, err := a.engine.ReadDir(args.positional[0])
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir {
			fmt.Fprintln(a.out, e.Name+"/")
			continue
		}
		fmt.Fprintln(a.out, e.Name)
	}
	return nil
}

func runStat(a *app, args parsedArgs) error {
	name := args.positional[0]
	tag, ok, err := a.engine.Stat(name)
	if err != nil {
		return err
	}
	if !ok {
		return a.notFound(name)
	}
	fmt.Fprintf(a.out, "size: %d\nmime: %s\n", tag.Size, tag.Mime)
	return nil
}

func runPreview(a *app, args parsedArgs) error {
	name := args.positional[0]
	n, _ := args.opts.(int) //nolint:errcheck // set by the preview flag getter
	if n <= 0 {
		n = a.cfg.PreviewBytes
	}
	if n <= 0 {
		n = homemap.DefaultPreviewBytes
	}

	off, ok, err := a.engine.Lookup(name)
	if err != nil {
		return err
	}
	if !ok {
		return a.notFound(name)
	}
	payload, err := a.engine.Preview(off, uint32(min(n, 1<<30))) //nolint:gosec // clamped above
	if err != nil {
		return err
	}
	text := strings.ToValidUTF8(string(payload), "\uFFFD")
	fmt.Fprint(a.out, text)
	if !strings.HasSuffix(text, "\n") && text != "" {
		fmt.Fprintln(a.out)
	}
	if total, ok := a.engine.PreviewLen(off); ok && int(total) > len(payload) {
		fmt.Fprintf(a.errOut, "preview truncated: %d of %d bytes\n", len(payload), total)
	}
	return nil
}
