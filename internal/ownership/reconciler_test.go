package ownership_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger/ledgertest"
	"github.com/gyaneshwarpardhi/tiktr/internal/ownership"
)

var (
	holderUpper = common.HexToAddress("0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
	other       = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

func identity(t *testing.T) ledger.Address {
	t.Helper()
	a, err := ledger.ParseAddress("0xabcdef0123456789abcdef0123456789abcdef01")
	if err != nil {
		t.Fatalf("parse identity: %v", err)
	}
	return a
}

func newReconciler(workers int) *ownership.Reconciler {
	return ownership.NewReconciler(ownership.Options{Workers: workers, LookupTimeout: time.Second, BatchSize: 3})
}

func TestOwnedTickets_SkipsAbsentAndMatchesCaseInsensitively(t *testing.T) {
	f := ledgertest.NewFake(holderUpper)
	ev0 := f.AddEvent(other, 1, "https://x/?title=a", 10)
	ev1 := f.AddEvent(other, 1, "https://x/?title=b", 10)

	f.Mint(holderUpper, ev0) // 0
	f.Mint(other, ev0)       // 1
	burned := f.Mint(holderUpper, ev1)
	f.Mint(holderUpper, ev1) // 3
	f.Burn(burned)

	got, report, err := newReconciler(2).OwnedTickets(context.Background(), f, identity(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ownership.OwnedTicket{{EventID: ev0, TokenID: 0}, {EventID: ev1, TokenID: 3}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ticket %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if report.Absent != 1 {
		t.Errorf("expected 1 absent token, got %d", report.Absent)
	}
	if report.Scanned != 4 || report.TicketCount != 4 {
		t.Errorf("expected 4 scanned of 4, got %d of %d", report.Scanned, report.TicketCount)
	}
	if len(report.Failed) != 0 {
		t.Errorf("expected no failures, got %v", report.Failed)
	}
	if calls := f.TokenEventCalls.Load(); calls != 2 {
		t.Errorf("event lookups should only happen for matches, got %d", calls)
	}
}

func TestOwnedTickets_FailedLookupDoesNotAbortScan(t *testing.T) {
	f := ledgertest.NewFake(holderUpper)
	ev := f.AddEvent(other, 1, "https://x/?title=a", 10)
	for i := 0; i < 7; i++ {
		f.Mint(holderUpper, ev)
	}
	f.FailOwner[1] = true
	f.FailTokenEvent[5] = true

	got, report, err := newReconciler(3).OwnedTickets(context.Background(), f, identity(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 owned tickets, got %d: %v", len(got), got)
	}
	for _, tk := range got {
		if tk.TokenID == 1 || tk.TokenID == 5 {
			t.Errorf("failed token %d must not be reported as owned", tk.TokenID)
		}
	}
	if len(report.Failed) != 2 || report.Failed[0].TokenID != 1 || report.Failed[1].TokenID != 5 {
		t.Errorf("expected failures for tokens 1 and 5, got %v", report.Failed)
	}
	for _, fl := range report.Failed {
		if fl.Err == "" {
			t.Errorf("token %d: expected failure message", fl.TokenID)
		}
	}
	if calls := f.OwnerCalls.Load(); calls != 7 {
		t.Errorf("expected every token visited once, got %d owner calls", calls)
	}
}

func TestOwnedTickets_CountFailureIsFatal(t *testing.T) {
	m := new(ledgertest.Mock)
	m.On("TicketCount", mock.Anything).Return(uint64(0), ledgertest.ErrUnavailable)

	_, _, err := newReconciler(2).OwnedTickets(context.Background(), m, identity(t))
	if !errors.Is(err, ledgertest.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	m.AssertNotCalled(t, "GetTicketOwner", mock.Anything, mock.Anything)
}

func TestOwnedTickets_TypedAbsentFromMock(t *testing.T) {
	id := identity(t)
	m := new(ledgertest.Mock)
	m.On("TicketCount", mock.Anything).Return(uint64(2), nil)
	m.On("GetTicketOwner", mock.Anything, ledger.TicketID(0)).Return(ledger.Absent(), nil)
	m.On("GetTicketOwner", mock.Anything, ledger.TicketID(1)).Return(ledger.Found(holderUpper), nil)
	m.On("GetTicketEventID", mock.Anything, ledger.TicketID(1)).Return(ledger.EventID(7), nil)

	got, report, err := newReconciler(1).OwnedTickets(context.Background(), m, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].EventID != 7 || got[0].TokenID != 1 {
		t.Errorf("expected ticket 1 of event 7, got %v", got)
	}
	if report.Absent != 1 {
		t.Errorf("expected 1 absent, got %d", report.Absent)
	}
	m.AssertExpectations(t)
}

func TestOwnedTickets_MaxScanTruncates(t *testing.T) {
	f := ledgertest.NewFake(holderUpper)
	ev := f.AddEvent(other, 1, "https://x/?title=a", 100)
	for i := 0; i < 10; i++ {
		f.Mint(holderUpper, ev)
	}
	r := ownership.NewReconciler(ownership.Options{Workers: 2, BatchSize: 4, MaxScan: 6})
	got, report, err := r.OwnedTickets(context.Background(), f, identity(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Truncated || report.Scanned != 6 || report.TicketCount != 10 {
		t.Errorf("expected truncated scan of 6/10, got %+v", report)
	}
	if len(got) != 6 {
		t.Errorf("expected 6 tickets, got %d", len(got))
	}
}

func TestOwnedTickets_EmptyLedger(t *testing.T) {
	got, report, err := newReconciler(2).OwnedTickets(context.Background(), ledgertest.NewFake(other), identity(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || report.Scanned != 0 {
		t.Errorf("expected empty scan, got %v %+v", got, report)
	}
}

func TestCreatedEvents(t *testing.T) {
	entries := []catalog.Entry{
		{Record: ledger.EventRecord{ID: 0, Creator: holderUpper, TicketPriceWei: big.NewInt(1)}},
		{Record: ledger.EventRecord{ID: 1, Creator: other, TicketPriceWei: big.NewInt(1)}},
		{Record: ledger.EventRecord{ID: 2, Creator: holderUpper, TicketPriceWei: big.NewInt(1)}},
	}
	got := ownership.CreatedEvents(entries, identity(t))
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 2 {
		t.Errorf("expected events 0 and 2, got %v", got)
	}
	if none := ownership.CreatedEvents(entries, common.Address{}); len(none) != 0 {
		t.Errorf("expected no events for zero address, got %v", none)
	}
}

func TestReconcile(t *testing.T) {
	id := identity(t)
	f := ledgertest.NewFake(holderUpper)
	mine := f.AddEvent(holderUpper, 1, "https://x/?title=mine", 10)
	theirs := f.AddEvent(other, 1, "https://x/?title=theirs", 10)
	f.Mint(other, mine)
	f.Mint(holderUpper, theirs)

	entries, _, err := catalog.NewAggregator(2, time.Second).LoadAll(context.Background(), f)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	res, err := newReconciler(2).Reconcile(context.Background(), f, entries, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.CreatedEvents) != 1 || res.CreatedEvents[0].ID != mine {
		t.Errorf("expected created event %d, got %v", mine, res.CreatedEvents)
	}
	if len(res.OwnedTickets) != 1 || res.OwnedTickets[0] != (ownership.OwnedTicket{EventID: theirs, TokenID: 1}) {
		t.Errorf("expected ticket 1 for event %d, got %v", theirs, res.OwnedTickets)
	}
	if res.Identity != id {
		t.Errorf("expected identity %s, got %s", id, res.Identity)
	}
}
