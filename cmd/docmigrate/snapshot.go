package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mgt2e/docmigrate/kit/cli"
	"github.com/mgt2e/docmigrate/kv"
	"github.com/spf13/cobra"
)

func newImportCommand(stdout, stderr io.Writer) (*cobra.Command, error) {
	var o storeOptions
	return newCommand(&cli.Program{
		Name:  "import FILE",
		Short: "Load a JSON world snapshot into the store (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		Opts:  o.opts(),
		Run: func(args []string) error {
			return runImport(context.Background(), &o, args[0], stdout, stderr)
		},
	})
}

func runImport(ctx context.Context, o *storeOptions, path string, stdout, stderr io.Writer) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var snap kv.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	s, err := o.open(ctx, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.svc.Import(ctx, &snap); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Imported %d actors, %d items, %d scenes and %d packs.\n",
		len(snap.Actors), len(snap.Items), len(snap.Scenes), len(snap.Packs))
	return nil
}

func newExportCommand(stdout, stderr io.Writer) (*cobra.Command, error) {
	var o storeOptions
	return newCommand(&cli.Program{
		Name:  "export [FILE]",
		Short: "Write the world as a JSON snapshot (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		Opts:  o.opts(),
		Run: func(args []string) error {
			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			return runExport(context.Background(), &o, path, stdout, stderr)
		},
	})
}

func runExport(ctx context.Context, o *storeOptions, path string, stdout, stderr io.Writer) error {
	s, err := o.open(ctx, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.svc.Export(ctx)
	if err != nil {
		return err
	}

	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
