package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnwards/bdexemplos/internal/config"
	"github.com/johnwards/bdexemplos/internal/database"
	"github.com/johnwards/bdexemplos/internal/logging"
	"github.com/johnwards/bdexemplos/internal/schema"
	"github.com/johnwards/bdexemplos/internal/seed"
	"github.com/johnwards/bdexemplos/internal/seed/cinema"
	"github.com/johnwards/bdexemplos/internal/seed/clinic"
	"github.com/johnwards/bdexemplos/internal/seed/library"
	"github.com/johnwards/bdexemplos/internal/seed/shop"
	"github.com/johnwards/bdexemplos/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], &app{stdout: os.Stdout, stderr: os.Stderr})
	stop()
	os.Exit(code)
}

func domains() []seed.Domain {
	return []seed.Domain{shop.Domain, library.Domain, cinema.Domain, clinic.Domain}
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger

	configPath   string
	sqlitePath   string
	batchSize    int
	seed         uint64
	seedSet      bool
	skipSchema   bool
	keepExisting bool
	verbose      bool
}

// run executes the command line and returns the process exit code. Errors
// are logged once here.
func run(ctx context.Context, args []string, a *app) int {
	cmd := newRootCmd(a, domains())
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)
	if a.logger != nil {
		defer func() { _ = a.logger.Sync() }()
	}
	if err == nil {
		return 0
	}
	if a.logger != nil {
		a.logger.Error("command failed", zap.Error(err))
	} else {
		_, _ = fmt.Fprintln(a.stderr, "error:", err)
	}
	return 1
}

func newRootCmd(a *app, domains []seed.Domain) *cobra.Command {
	root := &cobra.Command{
		Use:   "seed",
		Short: "Create and populate the sample teaching databases",
		Long: `seed creates the sample databases used in SQL exercises and fills them
with deterministic data. Connection settings come from a TOML file with a
[mysql] section; --sqlite seeds a local SQLite file instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.batchSize <= 0 {
				return fmt.Errorf("--batch-size must be > 0, got %d", a.batchSize)
			}
			a.seedSet = cmd.Flags().Changed("seed")
			if a.logger == nil {
				logger, err := logging.New(a.verbose)
				if err != nil {
					return err
				}
				a.logger = logger
			}
			a.logger = a.logger.With(zap.String("run_id", uuid.NewString()))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to config.toml (default $"+config.PathEnv+" or "+config.DefaultPath+")")
	flags.StringVar(&a.sqlitePath, "sqlite", "", "seed this SQLite file instead of MySQL")
	flags.IntVar(&a.batchSize, "batch-size", seed.DefaultBatchSize, "rows per INSERT statement")
	flags.Uint64Var(&a.seed, "seed", 0, "random seed (default: the dataset's own seed); library loans also depend on today's date")
	flags.BoolVar(&a.skipSchema, "skip-schema", false, "assume the database and tables already exist")
	flags.BoolVar(&a.keepExisting, "keep-existing", false, "do not delete existing rows before inserting")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	for _, d := range domains {
		root.AddCommand(&cobra.Command{
			Use:     d.Name,
			Aliases: d.Aliases,
			Short:   d.Short,
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.seedDomains(cmd.Context(), []seed.Domain{d})
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Seed every sample database, one after another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.seedDomains(cmd.Context(), domains)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "verify <dataset>",
		Short: "Count rows and look for broken foreign keys in a seeded database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := seed.Find(domains, args[0])
			if !ok {
				return fmt.Errorf("unknown dataset %q", args[0])
			}
			return a.verify(cmd.Context(), d)
		},
	})

	return root
}

// target is an open database ready for seeding.
type target struct {
	db       *sql.DB
	dialect  schema.Dialect
	database string
}

func (a *app) open(ctx context.Context) (*target, error) {
	if a.sqlitePath != "" {
		db, err := database.Open(a.sqlitePath)
		if err != nil {
			return nil, err
		}
		if a.configPath != "" {
			a.logger.Debug("config skipped, seeding sqlite", zap.String("config", a.configPath))
		}
		a.logger.Debug("opened sqlite", zap.String("path", a.sqlitePath))
		return &target{db: db, dialect: schema.SQLite}, nil
	}

	cfg, err := config.Load(config.Path(a.configPath))
	if err != nil {
		return nil, err
	}
	db, err := database.OpenMySQL(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.logger.Info("connected", zap.Object("mysql", cfg))
	return &target{db: db, dialect: schema.MySQL, database: cfg.Database}, nil
}

func (a *app) seedDomains(ctx context.Context, domains []seed.Domain) error {
	t, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = t.db.Close() }()

	runner := seed.NewRunner(t.db, t.dialect, a.logger)
	opts := seed.Options{
		Database:     t.database,
		BatchSize:    a.batchSize,
		SkipSchema:   a.skipSchema,
		KeepExisting: a.keepExisting,
	}

	for _, d := range domains {
		s := d.Seed
		if a.seedSet {
			s = a.seed
		}
		ds, err := d.Build(seed.NewRand(s))
		if err != nil {
			return fmt.Errorf("build %s: %w", d.Name, err)
		}
		report, err := runner.Run(ctx, ds, opts)
		if err != nil {
			return err
		}
		a.printReport(report)
	}
	return nil
}

func (a *app) printReport(r *seed.Report) {
	where := r.Database
	if where == "" {
		where = a.sqlitePath
	}
	_, _ = fmt.Fprintf(a.stdout, "%s: %d rows in %s\n", r.Dataset, r.Total(), where)
	for _, t := range r.Tables {
		_, _ = fmt.Fprintf(a.stdout, "  %-16s %6d\n", t.Table, t.Rows)
	}
}

func (a *app) verify(ctx context.Context, d seed.Domain) error {
	t, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = t.db.Close() }()

	conn, err := t.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	use, err := schema.UseStatement(t.dialect, t.database)
	if err != nil {
		return err
	}
	if err := database.ExecAll(ctx, conn, use); err != nil {
		return err
	}

	sum, err := store.Check(ctx, conn, t.dialect, d.Tables())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.stdout, "%s:\n", d.Name)
	for _, tr := range sum.Tables {
		_, _ = fmt.Fprintf(a.stdout, "  %-16s %6d\n", tr.Table, tr.Rows)
	}
	for _, dg := range sum.Dangling {
		if dg.Rows > 0 {
			_, _ = fmt.Fprintf(a.stdout, "  %s: %d dangling via %s\n", dg.Table, dg.Rows, dg.Constraint)
		}
	}

	if n := sum.DanglingTotal(); n > 0 {
		return fmt.Errorf("%s: %w (%d rows)", d.Name, errDangling, n)
	}
	a.logger.Info("verified", zap.String("dataset", d.Name), zap.Int("tables", len(sum.Tables)))
	return nil
}

var errDangling = errors.New("dangling foreign key references")
