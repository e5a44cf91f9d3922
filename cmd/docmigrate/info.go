package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/kit/cli"
	"github.com/spf13/cobra"
)

func newInfoCommand(stdout, stderr io.Writer) (*cobra.Command, error) {
	var o storeOptions
	return newCommand(&cli.Program{
		Name:  "info",
		Short: "Describe the world store",
		Opts:  o.opts(),
		Run: func([]string) error {
			return runInfo(context.Background(), &o, stdout, stderr)
		},
	})
}

func runInfo(ctx context.Context, o *storeOptions, stdout, stderr io.Writer) error {
	s, err := o.open(ctx, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	counts, err := s.svc.Count(ctx)
	if err != nil {
		return err
	}
	version, ok, err := s.svc.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	size, err := s.store.Size(ctx)
	if err != nil {
		return err
	}

	stored := "unknown"
	if ok {
		stored = fmt.Sprint(version)
	}

	_, _ = fmt.Fprintf(stdout, "Store:           %s (%s)\n", s.store.Path(), humanize.Bytes(uint64(size)))
	_, _ = fmt.Fprintf(stdout, "Schema version:  %s (current %d)\n", stored, docmigrate.CurrentSchemaVersion)
	_, _ = fmt.Fprintf(stdout, "Actors:          %s\n", humanize.Comma(int64(counts.Actors)))
	_, _ = fmt.Fprintf(stdout, "Items:           %s\n", humanize.Comma(int64(counts.Items)))
	_, _ = fmt.Fprintf(stdout, "Scenes:          %s\n", humanize.Comma(int64(counts.Scenes)))
	_, _ = fmt.Fprintf(stdout, "Packs:           %s (%s documents)\n",
		humanize.Comma(int64(counts.Packs)), humanize.Comma(int64(counts.PackDocuments)))
	return nil
}
