package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
	"github.com/gyaneshwarpardhi/tiktr/internal/metrics"
	"github.com/gyaneshwarpardhi/tiktr/internal/workpool"
)

// Entry is one event with its decoded metadata.
type Entry struct {
	Record   ledger.EventRecord     `json:"record"`
	Metadata metadata.EventMetadata `json:"metadata"`
}

// FailedEvent records an id excluded from a catalog pass.
type FailedEvent struct {
	ID  ledger.EventID `json:"id"`
	Err string         `json:"error"`
}

// LoadReport describes what a catalog pass could not include.
type LoadReport struct {
	Listed     int           `json:"listed"`
	Failed     []FailedEvent `json:"failed,omitempty"`
	DurationMs int64         `json:"duration_ms"`
}

// Aggregator builds the event catalog from the ledger.
type Aggregator struct {
	pool *workpool.Pool
}

// NewAggregator returns an Aggregator fetching records with the given
// concurrency, each fetch bounded by timeout.
func NewAggregator(workers int, timeout time.Duration) *Aggregator {
	return &Aggregator{pool: workpool.New(workers, timeout)}
}

// LoadAll lists every event id, fetches the records concurrently and decodes
// their metadata. Entries follow the order the ledger listed ids in.
//
// Only a failure to list ids fails the load. A record that cannot be fetched
// or is invalid is left out and reported in LoadReport.Failed.
func (a *Aggregator) LoadAll(ctx context.Context, gw ledger.Gateway) ([]Entry, *LoadReport, error) {
	start := time.Now()
	ids, err := gw.ListEventIDs(ctx)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("catalog: list event ids: %w", err)
	}

	outs := workpool.Run(ctx, a.pool, ids, func(ctx context.Context, id ledger.EventID) (ledger.EventRecord, error) {
		rec, err := gw.GetEvent(ctx, id)
		if err != nil {
			return ledger.EventRecord{}, err
		}
		if err := rec.Validate(); err != nil {
			return ledger.EventRecord{}, err
		}
		return rec, nil
	})

	report := &LoadReport{Listed: len(ids)}
	entries := make([]Entry, 0, len(ids))
	for _, o := range outs {
		if o.Err != nil {
			slog.Warn("catalog: event excluded", "event_id", o.Input, "err", o.Err)
			report.Failed = append(report.Failed, FailedEvent{ID: o.Input, Err: o.Err.Error()})
			continue
		}
		entries = append(entries, Entry{
			Record:   o.Value,
			Metadata: metadata.Decode(o.Value.MetadataURI),
		})
	}
	report.DurationMs = time.Since(start).Milliseconds()

	metrics.CatalogEventsExcluded.Add(float64(len(report.Failed)))
	metrics.CatalogSize.Set(float64(len(entries)))
	status := "ok"
	if len(report.Failed) > 0 {
		status = "partial"
	}
	metrics.CatalogLoads.WithLabelValues(status).Inc()

	return entries, report, nil
}
