package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-alert/core/availability"
	"library-alert/core/status"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// StatusStore is the part of status.Store the engine needs.
type StatusStore interface {
	ListAll(ctx context.Context) ([]status.LibraryRecord, error)
	FlipAvailable(ctx context.Context, libraryID, isbn string) error
}

// AvailabilityClient looks up book availability.
type AvailabilityClient interface {
	Poll(ctx context.Context, isbns, libraryIDs mapset.Set[string]) (*availability.Report, error)
}

// Notifier delivers the transitions of a cycle.
type Notifier interface {
	Notify(ctx context.Context, updates UpdateSet) error
}

// Engine runs reconciliation cycles.
type Engine struct {
	store    StatusStore
	client   AvailabilityClient
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine wires an engine from its collaborators.
func NewEngine(store StatusStore, client AvailabilityClient, notifier Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, client: client, notifier: notifier, logger: logger}
}

// Run performs one cycle: read all records, poll availability, diff, persist
// the flips and notify when anything changed.
//
// A failed poll aborts before anything is written. A failed write aborts the
// remaining writes; flips already written stay, and a re-run recomputes from
// the persisted state so they are neither repeated nor re-notified.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()

	records, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read library status: %w", err)
	}

	isbns, libraries := querySets(records)
	result := &Result{
		Updates:   UpdateSet{},
		Libraries: libraries.Cardinality(),
		Books:     isbns.Cardinality(),
	}
	e.logger.Info("Reconciliation started",
		zap.Int("libraries", result.Libraries),
		zap.Int("books", result.Books),
		zap.Bool("dry_run", opts.DryRun),
	)

	report, err := e.client.Poll(ctx, isbns, libraries)
	if err != nil {
		return nil, fmt.Errorf("failed to poll availability: %w", err)
	}
	result.Attempts = report.Attempts
	result.Complete = report.Complete
	if !report.Complete {
		e.logger.Warn("Availability lookup incomplete, using last response",
			zap.Int("attempts", report.Attempts),
		)
	}

	updates := Diff(records, report)
	result.Updates = updates

	if opts.DryRun {
		e.logger.Info("Dry-run: transitions computed, nothing persisted",
			zap.Int("transitions", updates.Len()),
		)
		return result, nil
	}

	if err := e.persist(ctx, updates, result); err != nil {
		return result, err
	}

	if updates.Empty() {
		e.logger.Info("Reconciliation finished without changes",
			zap.Duration("took", time.Since(started)),
		)
		return result, nil
	}

	if e.notifier == nil {
		e.logger.Warn("No notifier configured, transitions not delivered", zap.Int("transitions", updates.Len()))
		return result, nil
	}
	if err := e.notifier.Notify(ctx, updates); err != nil {
		return result, fmt.Errorf("failed to notify: %w", err)
	}
	result.Notified = true

	e.logger.Info("Reconciliation finished",
		zap.Int("transitions", result.Flipped),
		zap.Int("skipped", result.Skipped),
		zap.Duration("took", time.Since(started)),
	)
	return result, nil
}

// persist flips every pair in updates. Pairs whose library or book vanished since the
// read are dropped from updates.
func (e *Engine) persist(ctx context.Context, updates UpdateSet, result *Result) error {
	type pair struct{ isbn, lib string }
	var vanished []pair

	for _, isbn := range updates.ISBNs() {
		for _, a := range updates[isbn] {
			err := e.store.FlipAvailable(ctx, a.LibraryID, isbn)
			if errors.Is(err, status.ErrNotFound) {
				e.logger.Warn("Library or book removed during reconciliation, skipping",
					zap.String("library", a.LibraryID),
					zap.String("isbn", isbn),
				)
				vanished = append(vanished, pair{isbn, a.LibraryID})
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to persist %s at %s: %w", isbn, a.LibraryID, err)
			}
			result.Flipped++
		}
	}

	for _, p := range vanished {
		updates.Remove(p.isbn, p.lib)
	}
	result.Skipped = len(vanished)
	return nil
}
