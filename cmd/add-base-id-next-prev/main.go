package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cognicore/teienrich/internal/cli"
	"github.com/cognicore/teienrich/pkg/teienrich"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/sequence"
)

type options struct {
	common cli.Flags
	files  string
	base   string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("add-base-id-next-prev", flag.ContinueOnError)
	opts.common.Register(fs)
	fs.StringVar(&opts.files, "files", "", "Glob of the documents to link (default: editions from config)")
	fs.StringVar(&opts.base, "base", "", "Value of xml:base, also used to build prev and next")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env, cleanup, err := cli.Setup(ctx, opts.common, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := run(ctx, env, opts, os.Stdout); err != nil {
		env.Logger.Error("add-base-id-next-prev failed", "err", err)
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, env *cli.Env, opts *options, out io.Writer) error {
	pattern := opts.files
	if pattern == "" {
		pattern = env.Config.Editions
	}
	base := opts.base
	if base == "" {
		base = env.Config.Base
	}

	paths, err := teienrich.Glob(pattern)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		env.Logger.Warn("no documents matched", "pattern", pattern)
		return nil
	}

	rep := report.New("link")
	s := &sequence.Sequencer{Logger: env.Logger}
	if err := s.Run(ctx, paths, base, rep); err != nil {
		return err
	}
	if err := teienrich.Archive(ctx, env.Store, rep); err != nil {
		return err
	}
	return cli.Summarize(out, env.Logger, rep)
}
