package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cognicore/teienrich/internal/cli"
	"github.com/cognicore/teienrich/internal/pid"
	"github.com/cognicore/teienrich/pkg/teienrich"
	"github.com/cognicore/teienrich/pkg/teienrich/handle"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
)

type options struct {
	common      cli.Flags
	files       string
	selector    string
	insertPoint string
	user        string
	password    string
	provider    string
	prefix      string
	resolver    string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("add-handles", flag.ContinueOnError)
	opts.common.Register(fs)
	fs.StringVar(&opts.files, "files", "", "Glob of the documents (default: editions from config)")
	fs.StringVar(&opts.selector, "handle-xpath", "", "XPath of an existing handle (default: "+handle.DefaultSelector+")")
	fs.StringVar(&opts.insertPoint, "insert-xpath", "", "XPath of the element the handle follows (default: "+handle.DefaultInsertPoint+")")
	fs.StringVar(&opts.user, "user", "", "Handle service user (default: $HANDLE_USERNAME)")
	fs.StringVar(&opts.password, "password", "", "Handle service password (default: $HANDLE_PASSWORD)")
	fs.StringVar(&opts.provider, "provider", "", "Handle service endpoint (default: "+pid.DefaultProvider+")")
	fs.StringVar(&opts.prefix, "prefix", "", "Handle prefix (default: "+pid.DefaultPrefix+")")
	fs.StringVar(&opts.resolver, "resolver", "", "Handle resolver (default: "+pid.DefaultResolver+")")
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

	client := newClient(env, opts)
	if err := run(ctx, env, opts, client, os.Stdout); err != nil {
		env.Logger.Error("add-handles failed", "err", err)
		cleanup()
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func newClient(env *cli.Env, opts *options) *pid.Client {
	h := env.Config.Handle
	override(&h.Username, opts.user)
	override(&h.Password, opts.password)
	override(&h.Provider, opts.provider)
	override(&h.Prefix, opts.prefix)
	override(&h.Resolver, opts.resolver)
	return &pid.Client{
		Provider: h.Provider,
		Prefix:   h.Prefix,
		Resolver: h.Resolver,
		Username: h.Username,
		Password: h.Password,
	}
}

func run(ctx context.Context, env *cli.Env, opts *options, registrar handle.Registrar, out io.Writer) error {
	cfg := env.Config
	override(&cfg.Editions, opts.files)
	override(&cfg.Selectors.Handle, opts.selector)
	override(&cfg.Selectors.HandleInsert, opts.insertPoint)
	if err := cfg.Validate(); err != nil {
		return err
	}

	paths, err := teienrich.Glob(cfg.Editions)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		env.Logger.Warn("no documents matched", "pattern", cfg.Editions)
		return nil
	}

	rep := report.New("handles")
	runErr := handle.Run(ctx, paths, handle.Options{
		Registrar:   registrar,
		Selector:    cfg.Selectors.Handle,
		InsertPoint: cfg.Selectors.HandleInsert,
		Logger:      env.Logger,
	}, rep)
	if err := teienrich.Archive(ctx, env.Store, rep); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	return cli.Summarize(out, env.Logger, rep)
}
