// Package world walks every document of a world and persists the updates
// produced by the actor and item migrators.
package world

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/logger"
	"github.com/mgt2e/docmigrate/migration"
	"github.com/mgt2e/docmigrate/pack"
	"go.uber.org/zap"
)

// Migrator brings every document of a world up to the current schema
// version. Runs are sequential; running two Migrators against one store at
// the same time is not supported.
type Migrator struct {
	logger  *zap.Logger
	store   docmigrate.DocumentStore
	actors  *migration.ActorMigrator
	items   *migration.ItemMigrator
	metrics *Metrics
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(mig *Migrator) {
		mig.metrics = m
	}
}

// NewMigrator constructs a Migrator over store.
func NewMigrator(log *zap.Logger, store docmigrate.DocumentStore, actors *migration.ActorMigrator, items *migration.ItemMigrator, opts ...Option) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Migrator{
		logger: log,
		store:  store,
		actors: actors,
		items:  items,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run migrates actors, world items, unlinked scene tokens and world item
// packs, in that order, from fromVersion to docmigrate.CurrentSchemaVersion.
//
// A document that fails to persist is recorded in the summary and the walk
// continues; the returned error then combines every such failure. A failure
// to list a collection aborts the run.
func (m *Migrator) Run(ctx context.Context, fromVersion int) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		FromVersion: fromVersion,
		ToVersion:   docmigrate.CurrentSchemaVersion,
	}

	log := m.logger.With(
		zap.Int("from_version", fromVersion),
		zap.Int("to_version", docmigrate.CurrentSchemaVersion),
	)
	log.Info("Beginning world migration")

	if err := m.run(ctx, log, sum); err != nil {
		log.Error("World migration aborted", zap.Error(err))
		m.metrics.run(start, LabelAborted)
		return sum, err
	}

	if len(sum.Failures) > 0 {
		log.Warn("World migration completed with failures", zap.Int("failures", len(sum.Failures)))
		m.metrics.run(start, LabelPartial)
		return sum, sum.Err()
	}

	log.Info("World migration complete", zap.Duration("took", time.Since(start)))
	m.metrics.run(start, LabelSuccess)
	return sum, nil
}

func (m *Migrator) run(ctx context.Context, log *zap.Logger, sum *Summary) error {
	kinds, err := m.migrateActors(ctx, log, sum)
	if err != nil {
		return err
	}
	if err := m.migrateItems(ctx, log, sum); err != nil {
		return err
	}
	if err := m.migrateScenes(ctx, log, sum, kinds); err != nil {
		return err
	}
	return m.migratePacks(ctx, log, sum)
}

// migrateActors returns the kind of every listed actor, keyed by id, for
// resolving unlinked tokens.
func (m *Migrator) migrateActors(ctx context.Context, log *zap.Logger, sum *Summary) (map[string]docmigrate.ActorKind, error) {
	actors, err := m.store.ListActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing actors: %w", err)
	}

	kinds := make(map[string]docmigrate.ActorKind, len(actors))
	for _, a := range actors {
		kinds[a.ID] = a.Kind

		upd := m.actors.Migrate(a, sum.FromVersion)
		m.persist(log, sum, Failure{Collection: CollectionActors, ID: a.ID}, upd, func() error {
			return m.store.UpdateActor(ctx, a.ID, upd)
		})
	}
	return kinds, nil
}

func (m *Migrator) migrateItems(ctx context.Context, log *zap.Logger, sum *Summary) error {
	items, err := m.store.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}

	for _, it := range items {
		upd := m.items.Migrate(it, sum.FromVersion)
		m.persist(log, sum, Failure{Collection: CollectionItems, ID: it.ID}, upd, func() error {
			return m.store.UpdateItem(ctx, it.ID, upd)
		})
	}
	return nil
}

func (m *Migrator) migrateScenes(ctx context.Context, log *zap.Logger, sum *Summary, kinds map[string]docmigrate.ActorKind) error {
	scenes, err := m.store.ListScenes(ctx)
	if err != nil {
		return fmt.Errorf("listing scenes: %w", err)
	}

	for _, sc := range scenes {
		tokens, changed := m.migrateTokens(log, sum, sc, kinds)
		if !changed {
			m.persist(log, sum, Failure{Collection: CollectionScenes, ID: sc.ID}, nil, nil)
			continue
		}

		raw, err := json.Marshal(tokens)
		if err != nil {
			m.fail(log, sum, Failure{Collection: CollectionScenes, ID: sc.ID, Err: err})
			continue
		}
		upd := docmigrate.PartialUpdate{"tokens": json.RawMessage(raw)}
		m.persist(log, sum, Failure{Collection: CollectionScenes, ID: sc.ID}, upd, func() error {
			return m.store.UpdateScene(ctx, sc.ID, upd)
		})
	}
	return nil
}

// migrateTokens returns the scene's full token list with every unlinked
// token's delta migrated, and whether any token changed.
func (m *Migrator) migrateTokens(log *zap.Logger, sum *Summary, sc *docmigrate.Scene, kinds map[string]docmigrate.ActorKind) ([]*docmigrate.Token, bool) {
	changed := false
	tokens := make([]*docmigrate.Token, 0, len(sc.Tokens))
	for _, tok := range sc.Tokens {
		if tok.ActorLink {
			tokens = append(tokens, tok)
			continue
		}

		kind, ok := kinds[tok.ActorID]
		if !ok {
			kind = docmigrate.ActorOther
		}

		next, err := m.migrateToken(tok, kind, sum.FromVersion)
		switch {
		case err != nil:
			m.fail(log, sum, Failure{Collection: CollectionTokens, ID: sc.ID + "/" + tok.ID, Err: err})
			tokens = append(tokens, tok)
		case next == nil:
			sum.Tokens.Skipped++
			m.metrics.document(CollectionTokens, LabelSkipped)
			tokens = append(tokens, tok)
		default:
			sum.Tokens.Migrated++
			m.metrics.document(CollectionTokens, LabelMigrated)
			tokens = append(tokens, next)
			changed = true
		}
	}
	return tokens, changed
}

// migrateToken migrates a copy of the token's delta as an actor of the given
// kind. It returns nil when the delta needs no change.
func (m *Migrator) migrateToken(tok *docmigrate.Token, kind docmigrate.ActorKind, fromVersion int) (*docmigrate.Token, error) {
	delta := tok.Delta()
	a, err := docmigrate.NewActor(delta)
	if err != nil {
		return nil, err
	}
	a.Kind = kind

	upd := m.actors.Migrate(a, fromVersion)
	if upd.IsEmpty() {
		return nil, nil
	}

	merged, err := upd.ApplyTo(delta)
	if err != nil {
		return nil, err
	}
	return tok.WithDelta(merged)
}

func (m *Migrator) migratePacks(ctx context.Context, log *zap.Logger, sum *Summary) error {
	packs, err := m.store.ListPacks(ctx)
	if err != nil {
		return fmt.Errorf("listing packs: %w", err)
	}

	for _, p := range packs {
		meta := p.Metadata()
		if !meta.IsWorldItemPack() {
			log.Info("Skipping pack",
				zap.String("pack", meta.Name),
				zap.String("package", meta.Package),
				zap.String("type", meta.Type),
			)
			sum.SkippedPacks = append(sum.SkippedPacks, meta.Name)
			continue
		}

		plog := log.With(zap.String("pack", meta.Name))
		pctx := logger.NewContextWithLogger(ctx, plog)
		err := pack.WithUnlocked(pctx, p, func(ctx context.Context, docs []*docmigrate.Item) error {
			for _, doc := range docs {
				upd := m.items.Migrate(doc, sum.FromVersion)
				m.persist(plog, sum, Failure{Collection: CollectionPacks, Pack: meta.Name, ID: doc.ID}, upd, func() error {
					return p.UpdateDocument(ctx, doc.ID, upd)
				})
			}
			return nil
		})
		if err != nil {
			m.fail(plog, sum, Failure{Collection: CollectionPacks, Pack: meta.Name, Err: err})
		}
	}
	return nil
}

// persist writes a non-empty update with write and tallies the outcome under
// f.Collection. f carries the document's identity.
func (m *Migrator) persist(log *zap.Logger, sum *Summary, f Failure, upd docmigrate.PartialUpdate, write func() error) {
	counts := sum.Counts(f.Collection)
	if upd.IsEmpty() {
		counts.Skipped++
		m.metrics.document(f.Collection, LabelSkipped)
		return
	}

	if err := write(); err != nil {
		f.Err = err
		m.fail(log, sum, f)
		return
	}

	counts.Migrated++
	m.metrics.document(f.Collection, LabelMigrated)
	log.Debug("Migrated document",
		zap.String("collection", f.Collection),
		zap.String("id", f.ID),
		zap.Strings("fields", upd.Paths()),
	)
}

// fail records a failure. Failures without a document id belong to a whole
// pack and are not tallied as a document.
func (m *Migrator) fail(log *zap.Logger, sum *Summary, f Failure) {
	sum.Failures = append(sum.Failures, f)
	if f.ID != "" {
		sum.Counts(f.Collection).Failed++
		m.metrics.document(f.Collection, LabelFailed)
	}
	log.Error("Failed to migrate document",
		zap.String("collection", f.Collection),
		zap.String("pack", f.Pack),
		zap.String("id", f.ID),
		zap.Error(f.Err),
	)
}
