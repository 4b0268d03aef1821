package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
)

// Metrics receives per-row outcomes of imports.
type Metrics interface {
	RowsImported(collection string, n int)
	RowRejected(collection string)
	AlertDropped()
}

type nopMetrics struct{}

func (nopMetrics) RowsImported(string, int) {}
func (nopMetrics) RowRejected(string)        {}
func (nopMetrics) AlertDropped()             {}

// Engine runs exports, imports and purges against one database handle.
// An Engine keeps no state between calls; identifier maps are created per
// import.
type Engine struct {
	db       dbx.DBTX
	repos    repomanager.RepositoryManager
	logger   logging.Logger
	plan     *Plan
	handlers map[Collection]handler
	now      func() time.Time
	metrics  Metrics
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

func NewEngine(db dbx.DBTX, repos repomanager.RepositoryManager, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		repos:    repos,
		logger:   logger.With("module", "backup"),
		plan:     DefaultPlan,
		handlers: handlers(db, repos),
		now:      time.Now,
		metrics:  nopMetrics{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Export assembles the document of ownerID together with its size and
// per-collection counts.
func (e *Engine) Export(ctx context.Context, ownerID int64) (*Document, *ExportStats, error) {
	user, err := e.repos.Users(e.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("export account %d: %w", ownerID, err)
	}

	doc := &Document{
		Metadata: &Metadata{
			ExportDate: e.now().UTC().Truncate(time.Second),
			AccountID:  ownerID,
			Version:    FormatVersion,
			ProductTag: ProductTag,
			Format:     ContentFormat,
		},
		Account: accountInfo(user),
	}

	for _, c := range e.plan.Insert {
		if err := e.handlers[c].export(ctx, ownerID, doc); err != nil {
			return nil, nil, err
		}
	}

	data, err := doc.Marshal()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}
	stats := newExportStats(doc, len(data), e.plan)

	e.logger.Info(ctx, "account exported", "owner_id", ownerID, "size", stats.Size, "summary", stats.Summary)
	return doc, stats, nil
}

// Import restores doc into ownerID. The document is validated before any
// write. In replace mode the account is purged first; the purge and the
// inserts are separate statements, not one transaction.
func (e *Engine) Import(ctx context.Context, ownerID int64, doc *Document, mode Mode) (*ImportResult, error) {
	if mode != ModeReplace && mode != ModeMerge {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidMode, mode)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	log := e.logger.With("owner_id", ownerID, "mode", string(mode))
	if doc.Account.ID != ownerID {
		log.Info(ctx, "restoring snapshot of another account id", "source_account_id", doc.Account.ID)
	}

	res := newImportResult(mode, e.plan)

	if mode == ModeReplace {
		purged, err := e.Purge(ctx, ownerID)
		if err != nil {
			log.Error(ctx, "purge failed", "error", err)
			return nil, err
		}
		res.Purged = purged
	}

	r := newRun(ownerID, e.plan)
	for _, c := range e.plan.Insert {
		out := e.handlers[c].load(ctx, r, doc)
		res.Counts[c] = out.count
		e.metrics.RowsImported(string(c), out.count)

		for _, rowErr := range out.errors {
			if e.plan.BestEffort(c) {
				e.metrics.AlertDropped()
				log.Warn(ctx, "best-effort row dropped", "collection", string(c), "error", rowErr.Error())
				continue
			}
			e.metrics.RowRejected(string(c))
			log.Debug(ctx, "row rejected", "collection", string(c), "error", rowErr.Error())
			res.Errors = append(res.Errors, rowErr.Error())
		}
	}

	log.Info(ctx, "account imported", "counts", res.Counts, "rejected", len(res.Errors))
	return res, nil
}

// Purge deletes every row of ownerID, dependents before parents. A failure
// on a required collection stops the purge with a *PurgeError; failures on
// best-effort collections are logged and skipped.
func (e *Engine) Purge(ctx context.Context, ownerID int64) (map[Collection]int64, error) {
	purged := make(map[Collection]int64, len(e.plan.Purge))
	for _, c := range e.plan.Purge {
		n, err := e.handlers[c].purge(ctx, ownerID)
		if err != nil {
			if e.plan.BestEffort(c) {
				e.logger.Warn(ctx, "best-effort purge failed", "owner_id", ownerID, "collection", string(c), "error", err)
				continue
			}
			return purged, &PurgeError{Collection: c, Err: err}
		}
		purged[c] = n
	}
	return purged, nil
}

// Snapshot counts the rows ownerID has in every collection.
func (e *Engine) Snapshot(ctx context.Context, ownerID int64) (map[Collection]int64, error) {
	counts := make(map[Collection]int64, len(e.plan.Insert))
	for _, c := range e.plan.Insert {
		n, err := e.handlers[c].count(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		counts[c] = n
	}
	return counts, nil
}
