package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/config"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/listing"
	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
	"github.com/gyaneshwarpardhi/tiktr/internal/ownership"
)

// SearchPage is one increment of catalog search results.
type SearchPage struct {
	Query      string                `json:"query"`
	Items      []catalog.Entry       `json:"items"`
	Total      int                   `json:"total"`
	Offset     int                   `json:"offset"`
	NextOffset int                   `json:"next_offset"`
	HasMore    bool                  `json:"has_more"`
	Failed     []catalog.FailedEvent `json:"failed,omitempty"`
}

// pipeline is the set of components built from one config snapshot.
type pipeline struct {
	aggregator *catalog.Aggregator
	reconciler *ownership.Reconciler
	lister     *listing.Lister
	pageSize   int
}

func newPipeline(cfg *config.AppConfig) *pipeline {
	return &pipeline{
		aggregator: catalog.NewAggregator(cfg.Catalog.FetchWorkers, cfg.Catalog.FetchTimeout),
		reconciler: ownership.NewReconciler(ownership.Options{
			Workers:       cfg.Reconcile.ScanWorkers,
			LookupTimeout: cfg.Reconcile.LookupTimeout,
			BatchSize:     cfg.Reconcile.BatchSize,
			MaxScan:       cfg.Reconcile.MaxScan,
		}),
		lister:   listing.NewLister(cfg.Metadata.BaseURI),
		pageSize: cfg.Catalog.PageSize,
	}
}

// Engine answers catalog, wallet and listing requests against the ledger.
// Every call reads the ledger afresh; nothing is cached between calls.
type Engine struct {
	gw   ledger.Gateway
	pipe atomic.Pointer[pipeline]
}

// New creates an Engine over gw tuned by cfg.
func New(gw ledger.Gateway, cfg *config.AppConfig) *Engine {
	e := &Engine{gw: gw}
	e.pipe.Store(newPipeline(cfg))
	return e
}

// SwapConfig atomically replaces concurrency, timeouts and the metadata base
// URI (used on hot-reload). Calls already running finish with the old values.
func (e *Engine) SwapConfig(cfg *config.AppConfig) {
	e.pipe.Store(newPipeline(cfg))
}

// Connect returns the session identity.
func (e *Engine) Connect(ctx context.Context) (ledger.Identity, error) {
	return e.gw.Connect(ctx)
}

// Search loads the catalog and returns the next page of matches for query,
// continuing sess. When query differs from sess.Query the pages handed out so
// far are void and the page starts from offset 0. A non-positive limit uses
// the configured page size.
func (e *Engine) Search(ctx context.Context, sess catalog.SearchSession, query string, limit int) (*SearchPage, error) {
	p := e.pipe.Load()
	entries, report, err := p.aggregator.LoadAll(ctx, e.gw)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = p.pageSize
	}
	if sess.Offset < 0 {
		sess.Offset = 0
	}
	sess.SetQuery(query)
	offset := sess.Offset

	items := sess.Next(entries, limit)
	return &SearchPage{
		Query:      query,
		Items:      items,
		Total:      len(catalog.FilterByQuery(entries, query)),
		Offset:     offset,
		NextOffset: sess.Offset,
		HasMore:    sess.HasMore(entries),
		Failed:     report.Failed,
	}, nil
}

// Event fetches a single event. Records that fail validation are reported as
// not found, the same way the catalog excludes them.
func (e *Engine) Event(ctx context.Context, id ledger.EventID) (catalog.Entry, error) {
	rec, err := e.gw.GetEvent(ctx, id)
	if err != nil {
		return catalog.Entry{}, err
	}
	if err := rec.Validate(); err != nil {
		return catalog.Entry{}, fmt.Errorf("event %d: %w: %w", id, ledger.ErrEventNotFound, err)
	}
	return catalog.Entry{Record: rec, Metadata: metadata.Decode(rec.MetadataURI)}, nil
}

// Wallet returns the events created by and tickets held by address.
func (e *Engine) Wallet(ctx context.Context, address ledger.Address) (*ownership.Result, error) {
	p := e.pipe.Load()
	entries, _, err := p.aggregator.LoadAll(ctx, e.gw)
	if err != nil {
		return nil, err
	}
	return p.reconciler.Reconcile(ctx, e.gw, entries, address)
}

// MyWallet is Wallet for the connected identity.
func (e *Engine) MyWallet(ctx context.Context) (*ownership.Result, error) {
	id, err := e.gw.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return e.Wallet(ctx, id.Address)
}

// ListEvent submits a new event.
func (e *Engine) ListEvent(ctx context.Context, f listing.Form) (ledger.EventID, error) {
	return e.pipe.Load().lister.Submit(ctx, e.gw, f)
}

// Ready checks that the ledger answers a read.
func (e *Engine) Ready(ctx context.Context) error {
	if _, err := e.gw.TicketCount(ctx); err != nil {
		return fmt.Errorf("ledger not ready: %w", err)
	}
	return nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ledger.ErrEventNotFound)
}
