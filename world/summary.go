package world

import (
	"fmt"

	"go.uber.org/multierr"
)

// Collections visited by a run.
const (
	CollectionActors = "actors"
	CollectionItems  = "items"
	CollectionTokens = "tokens"
	CollectionScenes = "scenes"
	CollectionPacks  = "packs"
)

// Counts tallies the outcome of every document of one collection.
type Counts struct {
	Migrated int
	Skipped  int
	Failed   int
}

// Failure is a document that could not be migrated.
type Failure struct {
	Collection string
	// Pack is the pack holding the document, if any. A failure with a Pack
	// and no ID means the pack transaction itself failed.
	Pack string
	ID   string
	Err  error
}

func (f Failure) Error() string {
	switch {
	case f.Pack != "" && f.ID != "":
		return fmt.Sprintf("%s %s/%s: %v", f.Collection, f.Pack, f.ID, f.Err)
	case f.Pack != "":
		return fmt.Sprintf("pack %s: %v", f.Pack, f.Err)
	default:
		return fmt.Sprintf("%s %s: %v", f.Collection, f.ID, f.Err)
	}
}

func (f Failure) Unwrap() error { return f.Err }

// Summary reports what a run did.
type Summary struct {
	FromVersion int
	ToVersion   int

	Actors Counts
	Items  Counts
	// Tokens counts unlinked tokens whose delta needed a change.
	Tokens Counts
	Scenes Counts
	Packs  Counts

	// SkippedPacks names the packs left alone because they are not world
	// item packs.
	SkippedPacks []string
	Failures     []Failure
}

// Counts returns the tally of the named collection.
func (s *Summary) Counts(collection string) *Counts {
	switch collection {
	case CollectionActors:
		return &s.Actors
	case CollectionItems:
		return &s.Items
	case CollectionTokens:
		return &s.Tokens
	case CollectionScenes:
		return &s.Scenes
	case CollectionPacks:
		return &s.Packs
	}
	return nil
}

// Err combines every failure of the run, or returns nil.
func (s *Summary) Err() error {
	var err error
	for _, f := range s.Failures {
		err = multierr.Append(err, f)
	}
	return err
}
