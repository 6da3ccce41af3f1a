package ownership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/metrics"
	"github.com/gyaneshwarpardhi/tiktr/internal/workpool"
)

// OwnedTicket is a ticket held by the identity being reconciled.
type OwnedTicket struct {
	EventID ledger.EventID  `json:"event_id"`
	TokenID ledger.TicketID `json:"token_id"`
}

// FailedLookup is a token whose lookup failed for a reason other than the
// token being absent.
type FailedLookup struct {
	TokenID ledger.TicketID `json:"token_id"`
	Err     string          `json:"error"`
}

// ScanReport summarises one pass over the token id space.
type ScanReport struct {
	TicketCount uint64         `json:"ticket_count"`
	Scanned     uint64         `json:"scanned"`
	Absent      int            `json:"absent"`
	Failed      []FailedLookup `json:"failed,omitempty"`
	// Truncated is set when the scan stopped at the configured ceiling.
	Truncated  bool  `json:"truncated"`
	DurationMs int64 `json:"duration_ms"`
}

// Result holds both correlations for one identity.
type Result struct {
	Identity      ledger.Address       `json:"identity"`
	CreatedEvents []ledger.EventRecord `json:"created_events"`
	OwnedTickets  []OwnedTicket        `json:"owned_tickets"`
	Scan          *ScanReport          `json:"scan"`
}

// Options tunes the ticket scan.
type Options struct {
	Workers       int
	LookupTimeout time.Duration
	BatchSize     int
	// MaxScan caps how many token ids one scan visits. Zero scans everything.
	MaxScan uint64
}

// Reconciler correlates ledger ownership with an identity.
type Reconciler struct {
	pool      *workpool.Pool
	batchSize int
	maxScan   uint64
}

// NewReconciler returns a Reconciler using opts.
func NewReconciler(opts Options) *Reconciler {
	bs := opts.BatchSize
	if bs <= 0 {
		bs = 256
	}
	return &Reconciler{
		pool:      workpool.New(opts.Workers, opts.LookupTimeout),
		batchSize: bs,
		maxScan:   opts.MaxScan,
	}
}

// CreatedEvents returns the records in entries created by identity.
func CreatedEvents(entries []catalog.Entry, identity ledger.Address) []ledger.EventRecord {
	out := make([]ledger.EventRecord, 0)
	for _, e := range entries {
		if ledger.SameAddress(e.Record.Creator, identity) {
			out = append(out, e.Record)
		}
	}
	return out
}

type tokenOutcome struct {
	owned  bool
	absent bool
	event  ledger.EventID
}

// OwnedTickets walks token ids [0, TicketCount) and returns the tickets held
// by identity, ordered by token id.
//
// This costs one remote call per token ever minted (two for matches) on
// every pass, so it grows without bound with the ledger. Only a failure to
// read the ticket count is returned as an error; absent tokens are skipped and
// per-token failures are reported in ScanReport.Failed.
func (r *Reconciler) OwnedTickets(ctx context.Context, gw ledger.Gateway, identity ledger.Address) ([]OwnedTicket, *ScanReport, error) {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(float64(time.Since(start).Milliseconds())) }()

	count, err := gw.TicketCount(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ownership: ticket count: %w", err)
	}

	report := &ScanReport{TicketCount: count}
	limit := count
	if r.maxScan > 0 && count > r.maxScan {
		limit = r.maxScan
		report.Truncated = true
		slog.Warn("ownership: ticket scan truncated", "ticket_count", count, "max_scan", r.maxScan)
	}

	owned := make([]OwnedTicket, 0)
	for lo := uint64(0); lo < limit; lo += uint64(r.batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("ownership: scan interrupted at token %d: %w", lo, err)
		}
		hi := lo + uint64(r.batchSize)
		if hi > limit {
			hi = limit
		}
		batch := make([]ledger.TicketID, 0, hi-lo)
		for id := lo; id < hi; id++ {
			batch = append(batch, ledger.TicketID(id))
		}

		outs := workpool.Run(ctx, r.pool, batch, func(ctx context.Context, id ledger.TicketID) (tokenOutcome, error) {
			return lookup(ctx, gw, id, identity)
		})
		for _, o := range outs {
			report.Scanned++
			switch {
			case o.Err != nil:
				metrics.TicketsScanned.WithLabelValues("error").Inc()
				slog.Warn("ownership: token lookup failed", "token_id", o.Input, "err", o.Err)
				report.Failed = append(report.Failed, FailedLookup{TokenID: o.Input, Err: o.Err.Error()})
			case o.Value.absent:
				metrics.TicketsScanned.WithLabelValues("absent").Inc()
				report.Absent++
			case o.Value.owned:
				metrics.TicketsScanned.WithLabelValues("owned").Inc()
				owned = append(owned, OwnedTicket{EventID: o.Value.event, TokenID: o.Input})
			default:
				metrics.TicketsScanned.WithLabelValues("other").Inc()
			}
		}
	}

	report.DurationMs = time.Since(start).Milliseconds()
	return owned, report, nil
}

func lookup(ctx context.Context, gw ledger.Gateway, id ledger.TicketID, identity ledger.Address) (tokenOutcome, error) {
	res, err := gw.GetTicketOwner(ctx, id)
	if err != nil {
		return tokenOutcome{}, fmt.Errorf("owner of %d: %w", id, err)
	}
	if !res.Found {
		return tokenOutcome{absent: true}, nil
	}
	if !ledger.SameAddress(res.Owner, identity) {
		return tokenOutcome{}, nil
	}
	ev, err := gw.GetTicketEventID(ctx, id)
	if err != nil {
		return tokenOutcome{}, fmt.Errorf("event of %d: %w", id, err)
	}
	return tokenOutcome{owned: true, event: ev}, nil
}

// Reconcile runs both correlations for identity against an already loaded
// catalog.
func (r *Reconciler) Reconcile(ctx context.Context, gw ledger.Gateway, entries []catalog.Entry, identity ledger.Address) (*Result, error) {
	tickets, scan, err := r.OwnedTickets(ctx, gw, identity)
	if err != nil {
		return nil, err
	}
	return &Result{
		Identity:      identity,
		CreatedEvents: CreatedEvents(entries, identity),
		OwnedTickets:  tickets,
		Scan:          scan,
	}, nil
}
