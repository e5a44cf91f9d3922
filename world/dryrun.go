package world

import (
	"context"

	"github.com/mgt2e/docmigrate"
	"go.uber.org/zap"
)

// DryRun wraps a document store so that reads pass through and writes are
// only logged. Packs listed through it never change their stored lock state
// or storage format.
type DryRun struct {
	docmigrate.DocumentStore
	logger *zap.Logger
}

var _ docmigrate.DocumentStore = (*DryRun)(nil)

// NewDryRun returns a DryRun over store.
func NewDryRun(log *zap.Logger, store docmigrate.DocumentStore) *DryRun {
	if log == nil {
		log = zap.NewNop()
	}
	return &DryRun{
		DocumentStore: store,
		logger:        log.With(zap.Bool("dry_run", true)),
	}
}

// ListPacks lists the underlying packs wrapped for dry running.
func (s *DryRun) ListPacks(ctx context.Context) ([]docmigrate.Pack, error) {
	packs, err := s.DocumentStore.ListPacks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]docmigrate.Pack, 0, len(packs))
	for _, p := range packs {
		out = append(out, &dryRunPack{Pack: p, logger: s.logger, locked: p.Locked()})
	}
	return out, nil
}

// UpdateActor logs the update.
func (s *DryRun) UpdateActor(_ context.Context, id string, upd docmigrate.PartialUpdate) error {
	s.log(CollectionActors, "", id, upd)
	return nil
}

// UpdateItem logs the update.
func (s *DryRun) UpdateItem(_ context.Context, id string, upd docmigrate.PartialUpdate) error {
	s.log(CollectionItems, "", id, upd)
	return nil
}

// UpdateScene logs the update.
func (s *DryRun) UpdateScene(_ context.Context, id string, upd docmigrate.PartialUpdate) error {
	s.log(CollectionScenes, "", id, upd)
	return nil
}

func (s *DryRun) log(collection, pack, id string, upd docmigrate.PartialUpdate) {
	s.logger.Info("Would update document",
		zap.String("collection", collection),
		zap.String("pack", pack),
		zap.String("id", id),
		zap.Strings("fields", upd.Paths()),
	)
}

// dryRunPack tracks lock state in memory and logs document updates.
type dryRunPack struct {
	docmigrate.Pack
	logger *zap.Logger
	locked bool
}

func (p *dryRunPack) Locked() bool { return p.locked }

func (p *dryRunPack) SetLocked(_ context.Context, locked bool) error {
	p.locked = locked
	return nil
}

func (p *dryRunPack) RunSchemaMigration(context.Context) error { return nil }

func (p *dryRunPack) UpdateDocument(_ context.Context, id string, upd docmigrate.PartialUpdate) error {
	if p.locked {
		return docmigrate.ErrPackLocked
	}
	p.logger.Info("Would update document",
		zap.String("collection", CollectionPacks),
		zap.String("pack", p.Metadata().Name),
		zap.String("id", id),
		zap.Strings("fields", upd.Paths()),
	)
	return nil
}
