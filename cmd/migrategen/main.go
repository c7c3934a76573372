package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/migrategen"
	"github.com/tordrt/migrategen/internal/config"
	"github.com/tordrt/migrategen/internal/generator"
	"github.com/tordrt/migrategen/internal/logging"
	"github.com/tordrt/migrategen/internal/migration"
)

var (
	dbURL           string
	outputPath      string
	templatePath    string
	tables          string
	ignore          string
	migrationsTable string
	schemaName      string
	dialect         string
	dryRun          bool
	sequenceStart   string
	timeout         time.Duration
	concurrency     int
	logLevel        string
	envFile         string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrategen [tables]",
		Short: "Generate migrations from an existing database",
		Long: `Migrategen reads the schema of a PostgreSQL, MySQL, or SQLite database and writes
one create migration per table, followed by one migration per table that adds its
foreign keys. Tables may be given as a comma separated argument.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL (postgres://, mysql://, or sqlite://)")
	cmd.Flags().StringVarP(&outputPath, "path", "p", "database/migrations", "Directory migrations are written to")
	cmd.Flags().StringVar(&templatePath, "template-path", "", "Migration template (default: goose SQL)")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVarP(&ignore, "ignore", "i", "", "Tables to ignore (comma-separated)")
	cmd.Flags().StringVar(&migrationsTable, "migrations-table", generator.DefaultMigrationsTable, "Bookkeeping table, always ignored")
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	cmd.Flags().StringVar(&dialect, "dialect", "", "SQL dialect of the migrations (default: same as the database)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned migrations without writing files")
	cmd.Flags().StringVar(&sequenceStart, "sequence-start", "", "Sequence of the first migration (default: current time)")
	cmd.Flags().DurationVar(&timeout, "timeout", generator.DefaultTimeout, "Timeout for the whole run")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", generator.DefaultConcurrency, "Tables read in parallel")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file with MIGRATEGEN_* settings")

	return cmd
}

// loadConfig reads the environment, then lets explicitly set flags and the
// positional tables argument override it
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = dbURL
	}
	if flags.Changed("path") {
		cfg.Path = outputPath
	}
	if flags.Changed("template-path") {
		cfg.TemplatePath = templatePath
	}
	if flags.Changed("tables") {
		cfg.Tables = generator.ParseTableList(tables)
	}
	if flags.Changed("ignore") {
		cfg.Ignore = generator.ParseTableList(ignore)
	}
	if flags.Changed("migrations-table") {
		cfg.MigrationsTable = migrationsTable
	}
	if flags.Changed("schema") {
		cfg.Schema = schemaName
	}
	if flags.Changed("dialect") {
		cfg.Dialect = dialect
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	// the positional argument wins over --tables
	if len(args) == 1 {
		cfg.Tables = generator.ParseTableList(args[0])
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--db-url or %sDATABASE_URL must be specified", config.EnvPrefix)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseSequenceStart(value string, now time.Time) (uint64, error) {
	if value == "" {
		return uint64(migration.SequenceFromTime(now)), nil
	}
	seq, err := migration.ParseSequence(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --sequence-start: %w", err)
	}
	return uint64(seq), nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	start, err := parseSequenceStart(sequenceStart, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := &migrategen.Options{
		Tables:          cfg.Tables,
		Ignore:          cfg.Ignore,
		MigrationsTable: cfg.MigrationsTable,
		SchemaName:      cfg.Schema,
		Concurrency:     cfg.Concurrency,
		Timeout:         cfg.Timeout,
		SequenceStart:   start,
		Logger:          logger,
	}

	logger.Info("using connection", zap.String("url", redactURL(cfg.DatabaseURL)))

	if dryRun {
		report, err := migrategen.Plan(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return err
		}
		if err := migrategen.PrintPlan(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		printSummary(cmd.ErrOrStderr(), report)
		return nil
	}

	report, err := migrategen.Generate(ctx, cfg.DatabaseURL, opts, &migrategen.OutputOptions{
		OutputDir:    cfg.Path,
		TemplatePath: cfg.TemplatePath,
		Dialect:      cfg.Dialect,
	})
	if err != nil {
		return err
	}

	for _, path := range report.Artifacts {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	logger.Info("finished", zap.Int("migrations", len(report.Artifacts)))
	printSummary(cmd.ErrOrStderr(), report)

	return nil
}

// redactURL hides the password of a database URL in log output
func redactURL(raw string) string {
	if dsn, ok := strings.CutPrefix(raw, "mysql://"); ok {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "mysql://"
		}
		if cfg.Passwd != "" {
			cfg.Passwd = "xxxxx"
		}
		return "mysql://" + cfg.FormatDSN()
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func printSummary(w io.Writer, report *migrategen.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	_, _ = fmt.Fprintf(w, "%s %d tables, %d migrations\n",
		green("Processed"), len(report.Processed), len(report.Plan.Units))

	for _, s := range report.Skipped {
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", yellow("Skipped"), s.Table, s.Err)
	}
	for _, warning := range report.Plan.Warnings {
		_, _ = fmt.Fprintf(w, "%s %s\n", yellow("Warning"), warning)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
