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
	"github.com/cognicore/teienrich/pkg/teienrich/annotate"
	"github.com/cognicore/teienrich/pkg/teienrich/mentions"
)

type options struct {
	common  cli.Flags
	files   string
	indices string
	refs    string
	title   string
	leadIn  string
	exclude cli.List
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mentions-to-indices", flag.ContinueOnError)
	opts.common.Register(fs)
	fs.StringVar(&opts.files, "files", "", "Glob of the edition documents (default: ./editions/*.xml)")
	fs.StringVar(&opts.indices, "indices", "", "Glob of the index documents (default: ./indices/list*.xml)")
	fs.StringVar(&opts.refs, "ref-xpath", "", "XPath of the reference values (default: "+mentions.DefaultReferences+")")
	fs.StringVar(&opts.title, "title-xpath", "", "XPath of the edition title (default: "+mentions.DefaultTitle+")")
	fs.StringVar(&opts.leadIn, "lead-in", "", "Text in front of every title (default: \""+annotate.DefaultLeadIn+"\")")
	fs.Var(&opts.exclude, "exclude", "Entity id to leave alone; repeatable or comma separated")
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
		env.Logger.Error("mentions-to-indices failed", "err", err)
		cleanup()
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func run(ctx context.Context, env *cli.Env, opts *options, out io.Writer) error {
	cfg := env.Config
	override(&cfg.Editions, opts.files)
	override(&cfg.Indices, opts.indices)
	override(&cfg.Selectors.References, opts.refs)
	override(&cfg.Selectors.Title, opts.title)
	override(&cfg.LeadIn, opts.leadIn)
	if cfg.Selectors.Title == "" {
		cfg.Selectors.Title = mentions.DefaultTitle
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, id := range opts.exclude {
		env.Blacklist.Add(id)
	}

	editions, err := teienrich.Glob(cfg.Editions)
	if err != nil {
		return err
	}
	indices, err := teienrich.Glob(cfg.Indices)
	if err != nil {
		return err
	}
	env.Logger.Info("found documents", "editions", len(editions), "indices", len(indices))

	e := teienrich.New(teienrich.Options{
		Editions: editions,
		Indices:  indices,
		Selectors: mentions.Selectors{
			References: cfg.Selectors.References,
			Title:      cfg.Selectors.Title,
		},
		LeadIn:    cfg.LeadIn,
		Blacklist: env.Blacklist,
		Format:    annotate.EventList,
		Logger:    env.Logger,
		Store:     env.Store,
	})
	corpus, err := e.MentionsToIndices(ctx)
	if err != nil {
		return err
	}
	return cli.Summarize(out, env.Logger, corpus.Reports...)
}
