// Package generator runs a generation: it selects tables, reads their
// metadata in parallel, then normalizes and plans them one by one in
// selection order.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/migrategen/internal/db"
	"github.com/tordrt/migrategen/internal/logging"
	"github.com/tordrt/migrategen/internal/migration"
	"github.com/tordrt/migrategen/internal/normalize"
	"github.com/tordrt/migrategen/internal/render"
	"github.com/tordrt/migrategen/internal/schema"
)

const (
	DefaultMigrationsTable = "migrations"
	DefaultConcurrency     = 4
	DefaultTimeout         = 2 * time.Minute
)

// Options configures a run
type Options struct {
	// Tables to generate; all tables when empty
	Tables []string
	// Ignore lists tables never generated, even when named in Tables
	Ignore []string
	// MigrationsTable is the bookkeeping table, always ignored
	MigrationsTable string

	Concurrency   int
	Timeout       time.Duration
	SequenceStart migration.Sequence
	Logger        *zap.Logger
}

// Skipped is a table left out because its metadata could not be read
type Skipped struct {
	Table string
	Err   error
}

// Report summarizes a run
type Report struct {
	Selected  []string
	Processed []string
	Skipped   []Skipped
	Plan      *migration.Plan
	// Artifacts are the written file paths
	Artifacts []string
}

// Generator plans migrations for the tables of one database
type Generator struct {
	describer db.Describer
	normalize normalize.Func
	opts      Options
	logger    *zap.Logger
}

// New creates a generator reading through describer
func New(describer db.Describer, opts Options) (*Generator, error) {
	fn, err := normalize.For(describer.Dialect())
	if err != nil {
		return nil, err
	}

	if opts.MigrationsTable == "" {
		opts.MigrationsTable = DefaultMigrationsTable
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Generator{
		describer: describer,
		normalize: fn,
		opts:      opts,
		logger:    logging.OrNop(opts.Logger),
	}, nil
}

// IsFatal reports whether a table-level error must abort the run
func IsFatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		db.IsConnectionError(err)
}

// Plan selects and reads the tables and schedules their units
func (g *Generator) Plan(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	var available []string
	if len(g.opts.Tables) == 0 {
		tables, err := g.describer.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		available = tables
	}

	selected := SelectTables(available, g.opts.Tables, g.opts.Ignore, g.opts.MigrationsTable)
	report := &Report{Selected: selected}
	g.logger.Info("generating migrations", zap.Strings("tables", selected))

	results, err := g.readAll(ctx, selected)
	if err != nil {
		return nil, err
	}

	planner := migration.NewPlanner(g.opts.SequenceStart)
	for i, name := range selected {
		res := results[i]
		if res.err != nil {
			g.logger.Warn("skipping table", zap.String("table", name), zap.Error(res.err))
			report.Skipped = append(report.Skipped, Skipped{Table: name, Err: res.err})
			continue
		}

		table := g.normalize(res.raw)
		if err := planner.AddTable(table); err != nil {
			if !errors.Is(err, migration.ErrInvalidTableName) {
				return nil, err
			}
			g.logger.Warn("skipping table", zap.String("table", name), zap.Error(err))
			report.Skipped = append(report.Skipped, Skipped{Table: name, Err: err})
			continue
		}
		if len(table.Columns) == 0 {
			g.logger.Debug("table has no columns", zap.String("table", name))
			continue
		}
		report.Processed = append(report.Processed, name)
	}

	g.logger.Info("setting up foreign keys")
	plan, err := planner.Finish()
	if err != nil {
		return nil, err
	}
	for _, w := range plan.Warnings {
		g.logger.Warn("skipping foreign key",
			zap.String("table", w.Table),
			zap.String("constraint", w.Constraint),
			zap.String("references", w.ReferencedTable))
	}

	report.Plan = plan
	return report, nil
}

// Generate plans, renders and writes the migrations
func (g *Generator) Generate(ctx context.Context, renderer *render.Renderer, writer *render.Writer) (*Report, error) {
	report, err := g.Plan(ctx)
	if err != nil {
		return nil, err
	}

	artifacts, err := renderer.RenderAll(report.Plan.Units)
	if err != nil {
		return nil, err
	}

	paths, err := writer.WriteAll(artifacts)
	if err != nil {
		return nil, err
	}
	report.Artifacts = paths

	return report, nil
}

type readResult struct {
	raw *schema.RawTable
	err error
}

// readAll describes tables with at most Concurrency reads in flight. Results
// keep the order of names. Table errors are kept per table; only fatal errors
// stop the group.
func (g *Generator) readAll(ctx context.Context, names []string) ([]readResult, error) {
	results := make([]readResult, len(names))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.opts.Concurrency)

	for i, name := range names {
		i, name := i, name
		group.Go(func() error {
			raw, err := g.describer.DescribeTable(gctx, name)
			if err != nil {
				if IsFatal(err) {
					return fmt.Errorf("failed to describe table %s: %w", name, err)
				}
				results[i] = readResult{err: err}
				return nil
			}
			if raw == nil {
				raw = &schema.RawTable{Name: name}
			}
			results[i] = readResult{raw: raw}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
