// Package cli holds the setup shared by the command line tools.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cognicore/teienrich/internal/logging"
	"github.com/cognicore/teienrich/pkg/teienrich/blacklist"
	"github.com/cognicore/teienrich/pkg/teienrich/config"
	"github.com/cognicore/teienrich/pkg/teienrich/report"
	"github.com/cognicore/teienrich/pkg/teienrich/store"
	"github.com/cognicore/teienrich/pkg/teienrich/store/sqlite"
)

// Flags common to every tool
type Flags struct {
	ConfigPath    string
	EnvFile       string
	BlacklistPath string
	ReportDB      string
	Debug         bool
	Quiet         bool
}

// Register adds the common flags to fs
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "YAML config file (optional)")
	fs.StringVar(&f.EnvFile, "env", "", "Env file with HANDLE_* settings (default: ./.env if present)")
	fs.StringVar(&f.BlacklistPath, "blacklist", "", "YAML file with an ids list of entities to leave alone (optional)")
	fs.StringVar(&f.ReportDB, "report-db", "", "SQLite database archiving run reports (optional)")
	fs.BoolVar(&f.Debug, "debug", false, "Debug logging")
	fs.BoolVar(&f.Quiet, "quiet", false, "Only log warnings and errors")
}

// List is a repeatable string flag
type List []string

func (l *List) String() string { return strings.Join(*l, ",") }

// Set appends v, splitting on commas
func (l *List) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

// Env is what a tool runs with
type Env struct {
	Config    *config.Config
	Blacklist *blacklist.List
	Logger    *log.Logger
	// Store is nil unless a report database is configured.
	Store store.Store
}

// Setup loads configuration and opens the report store. The returned
// cleanup closes the store.
func Setup(ctx context.Context, f Flags, logOutput io.Writer) (*Env, func(), error) {
	loader := config.Loader{
		ConfigPath:    f.ConfigPath,
		BlacklistPath: f.BlacklistPath,
		EnvFile:       f.EnvFile,
	}
	comp, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg := comp.Config
	if f.ReportDB != "" {
		cfg.ReportDB = f.ReportDB
	}
	if f.Debug {
		cfg.Debug = true
	}

	env := &Env{
		Config:    cfg,
		Blacklist: comp.Blacklist,
		Logger:    logging.New(logging.Params{Debug: cfg.Debug, Quiet: f.Quiet, Output: logOutput}),
	}
	cleanup := func() {}
	if cfg.ReportDB != "" {
		st, err := sqlite.OpenSQLite(ctx, cfg.ReportDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open report db: %w", err)
		}
		env.Store = st
		cleanup = func() {
			if err := st.Close(); err != nil {
				env.Logger.Error("failed to close report db", "err", err)
			}
		}
	}
	return env, cleanup, nil
}

// Summarize logs the counts of every report, prints the distinct unmatched
// ids to w and returns the first report error.
func Summarize(w io.Writer, logger *log.Logger, reports ...*report.Report) error {
	var unmatched []string
	seen := make(map[string]bool)
	for _, r := range reports {
		succeeded, skipped, failed := r.Counts()
		logger.Info("run finished", "stage", r.Stage, "run", r.RunID, "succeeded", succeeded, "skipped", skipped, "failed", failed)
		for _, id := range r.Unmatched() {
			if !seen[id] {
				seen[id] = true
				unmatched = append(unmatched, id)
			}
		}
	}
	if len(unmatched) > 0 {
		fmt.Fprintf(w, "%d ids without index entity:\n", len(unmatched))
		for _, id := range unmatched {
			fmt.Fprintln(w, id)
		}
	}
	for _, r := range reports {
		if err := r.Err(); err != nil {
			return err
		}
	}
	return nil
}
