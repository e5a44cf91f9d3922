// Package pack runs work against a compendium pack while it is unlocked.
package pack

import (
	"context"
	"fmt"

	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Body is the work run over the documents of an unlocked pack.
type Body func(ctx context.Context, docs []*docmigrate.Item) error

// WithUnlocked unlocks p, runs its schema migration, loads its documents and
// hands them to body. The lock state p had on entry is restored on every
// exit path, including when body returns an error or panics. A failure to
// restore the lock is combined with the body's error.
func WithUnlocked(ctx context.Context, p docmigrate.Pack, body Body) (err error) {
	meta := p.Metadata()
	log := logger.FromContext(ctx).With(zap.String("pack", meta.Name))

	wasLocked := p.Locked()
	if err := p.SetLocked(ctx, false); err != nil {
		return fmt.Errorf("unlocking pack %q: %w", meta.Name, err)
	}
	defer func() {
		if rerr := p.SetLocked(ctx, wasLocked); rerr != nil {
			log.Error("Failed to restore pack lock", zap.Bool("locked", wasLocked), zap.Error(rerr))
			err = multierr.Append(err, fmt.Errorf("restoring lock on pack %q: %w", meta.Name, rerr))
			return
		}
		log.Debug("Restored pack lock", zap.Bool("locked", wasLocked))
	}()

	if err := p.RunSchemaMigration(ctx); err != nil {
		return fmt.Errorf("migrating pack %q storage: %w", meta.Name, err)
	}

	docs, err := p.Documents(ctx)
	if err != nil {
		return fmt.Errorf("listing pack %q documents: %w", meta.Name, err)
	}

	return body(ctx, docs)
}
