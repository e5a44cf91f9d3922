package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/kit/cli"
	"github.com/mgt2e/docmigrate/migration/all"
	"github.com/mgt2e/docmigrate/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type migrateOptions struct {
	storeOptions
	fromVersion     int
	dryRun          bool
	backupPath      string
	metricsTextfile string
}

func newMigrateCommand(stdout, stderr io.Writer) (*cobra.Command, error) {
	var o migrateOptions
	return newCommand(&cli.Program{
		Name:  "migrate",
		Short: "Bring every document of the world to the current schema version",
		Opts: append(o.opts(),
			cli.Opt{
				DestP:   &o.fromVersion,
				Flag:    "from-version",
				Default: -1,
				Desc:    "schema version the world was written with; defaults to the version recorded in the store",
			},
			cli.Opt{
				DestP: &o.dryRun,
				Flag:  "dry-run",
				Desc:  "log the updates without writing them",
			},
			cli.Opt{
				DestP: &o.backupPath,
				Flag:  "backup",
				Desc:  "copy the world store to this file before writing any update",
			},
			cli.Opt{
				DestP: &o.metricsTextfile,
				Flag:  "metrics-textfile",
				Desc:  "write run metrics to this file in the node exporter textfile format",
			},
		),
		Run: func([]string) error {
			return runMigrate(context.Background(), &o, stdout, stderr)
		},
	})
}

func runMigrate(ctx context.Context, o *migrateOptions, stdout, stderr io.Writer) error {
	s, err := o.open(ctx, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	from := o.fromVersion
	if from < 0 {
		v, ok, err := s.svc.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no schema version is recorded for %s; pass --from-version", o.boltPath)
		}
		from = v
	}
	if from >= docmigrate.CurrentSchemaVersion {
		_, _ = fmt.Fprintf(stdout, "World is already at schema version %d.\n", from)
		return nil
	}

	actors, err := all.NewActorMigrator(s.log, s.config.Vocabulary.Creature())
	if err != nil {
		return err
	}
	items, err := all.NewItemMigrator(s.log)
	if err != nil {
		return err
	}

	var store docmigrate.DocumentStore = s.svc
	if o.dryRun {
		store = world.NewDryRun(s.log, s.svc)
	} else if o.backupPath != "" {
		if err := backup(ctx, s, o.backupPath, stdout); err != nil {
			return err
		}
	}

	metrics := world.NewMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.PrometheusCollectors()...)
	reg.MustRegister(s.store)

	sum, runErr := world.NewMigrator(s.log, store, actors, items, world.WithMetrics(metrics)).Run(ctx, from)
	printSummary(stdout, sum, o.dryRun)

	if o.metricsTextfile != "" {
		if err := prometheus.WriteToTextfile(o.metricsTextfile, reg); err != nil {
			s.log.Error("Failed to write metrics textfile", zap.String("path", o.metricsTextfile), zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	if o.dryRun {
		return nil
	}
	return s.svc.SetSchemaVersion(ctx, docmigrate.CurrentSchemaVersion)
}

// backup copies the store to path, refusing to overwrite an existing file.
func backup(ctx context.Context, s *session, path string, stdout io.Writer) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	n, err := s.store.Backup(ctx, f)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Backed up %s to %s.\n", humanize.Bytes(uint64(n)), path)
	return nil
}

func printSummary(w io.Writer, sum *world.Summary, dryRun bool) {
	if sum == nil {
		return
	}

	verb := "Migrated"
	if dryRun {
		verb = "Would migrate"
	}
	_, _ = fmt.Fprintf(w, "%s world from schema version %d to %d.\n", verb, sum.FromVersion, sum.ToVersion)
	for _, c := range []string{
		world.CollectionActors,
		world.CollectionItems,
		world.CollectionTokens,
		world.CollectionScenes,
		world.CollectionPacks,
	} {
		n := sum.Counts(c)
		_, _ = fmt.Fprintf(w, "  %-7s %s migrated, %s unchanged, %s failed\n", c,
			humanize.Comma(int64(n.Migrated)),
			humanize.Comma(int64(n.Skipped)),
			humanize.Comma(int64(n.Failed)),
		)
	}
	for _, name := range sum.SkippedPacks {
		_, _ = fmt.Fprintf(w, "  skipped pack %s\n", name)
	}
	for _, f := range sum.Failures {
		_, _ = fmt.Fprintf(w, "  failed: %v\n", f)
	}
}
