// Package ledgertest provides in-memory ledger.Gateway doubles for tests.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
)

// ErrUnavailable is the transport error injected by Fake.
var ErrUnavailable = errors.New("rpc unavailable")

// Ticket is a minted token held by Owner.
type Ticket struct {
	Owner   ledger.Address
	EventID ledger.EventID
}

// Fake is a map-backed ledger. Token ids missing from Tickets are absent.
// Fail* sets inject transport errors for specific ids.
type Fake struct {
	mu sync.Mutex

	Identity   ledger.Identity
	ConnectErr error

	IDs     []ledger.EventID
	ListErr error
	Events  map[ledger.EventID]ledger.EventRecord

	Tickets       map[ledger.TicketID]Ticket
	TicketCounter uint64
	CountErr      error

	FailEvent       map[ledger.EventID]bool
	FailOwner       map[ledger.TicketID]bool
	FailTokenEvent  map[ledger.TicketID]bool
	Submitted       []string
	OwnerCalls      atomic.Int64
	GetEventCalls   atomic.Int64
	TokenEventCalls atomic.Int64
}

// NewFake returns an empty ledger whose session is connected as identity.
func NewFake(identity ledger.Address) *Fake {
	return &Fake{
		Identity:       ledger.Identity{Address: identity},
		Events:         make(map[ledger.EventID]ledger.EventRecord),
		Tickets:        make(map[ledger.TicketID]Ticket),
		FailEvent:      make(map[ledger.EventID]bool),
		FailOwner:      make(map[ledger.TicketID]bool),
		FailTokenEvent: make(map[ledger.TicketID]bool),
	}
}

// AddEvent appends an event with the next dense id and returns it.
func (f *Fake) AddEvent(creator ledger.Address, priceWei int64, uri string, maxTickets uint64) ledger.EventID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := ledger.EventID(len(f.IDs))
	f.IDs = append(f.IDs, id)
	f.Events[id] = ledger.EventRecord{
		ID:             id,
		Creator:        creator,
		TicketPriceWei: big.NewInt(priceWei),
		MetadataURI:    uri,
		MaxTickets:     maxTickets,
	}
	return id
}

// Mint assigns the next token id to owner for event.
func (f *Fake) Mint(owner ledger.Address, event ledger.EventID) ledger.TicketID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := ledger.TicketID(f.TicketCounter)
	f.TicketCounter++
	f.Tickets[id] = Ticket{Owner: owner, EventID: event}
	if rec, ok := f.Events[event]; ok {
		rec.TicketsSold++
		f.Events[event] = rec
	}
	return id
}

// Burn removes a token so its owner lookup becomes absent.
func (f *Fake) Burn(id ledger.TicketID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Tickets, id)
}

func (f *Fake) Connect(ctx context.Context) (ledger.Identity, error) {
	if f.ConnectErr != nil {
		return ledger.Identity{}, f.ConnectErr
	}
	return f.Identity, nil
}

func (f *Fake) ListEventIDs(ctx context.Context) ([]ledger.EventID, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.EventID, len(f.IDs))
	copy(out, f.IDs)
	return out, nil
}

func (f *Fake) GetEvent(ctx context.Context, id ledger.EventID) (ledger.EventRecord, error) {
	f.GetEventCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return ledger.EventRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailEvent[id] {
		return ledger.EventRecord{}, fmt.Errorf("events(%d): %w", id, ErrUnavailable)
	}
	rec, ok := f.Events[id]
	if !ok {
		return ledger.EventRecord{}, fmt.Errorf("events(%d): %w", id, ledger.ErrEventNotFound)
	}
	return rec, nil
}

func (f *Fake) GetTicketOwner(ctx context.Context, id ledger.TicketID) (ledger.OwnerLookup, error) {
	f.OwnerCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return ledger.OwnerLookup{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailOwner[id] {
		return ledger.OwnerLookup{}, fmt.Errorf("ownerOf(%d): %w", id, ErrUnavailable)
	}
	t, ok := f.Tickets[id]
	if !ok {
		return ledger.Absent(), nil
	}
	return ledger.Found(t.Owner), nil
}

func (f *Fake) GetTicketEventID(ctx context.Context, id ledger.TicketID) (ledger.EventID, error) {
	f.TokenEventCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailTokenEvent[id] {
		return 0, fmt.Errorf("tokenEventId(%d): %w", id, ErrUnavailable)
	}
	t, ok := f.Tickets[id]
	if !ok {
		return 0, fmt.Errorf("tokenEventId(%d): token does not exist", id)
	}
	return t.EventID, nil
}

func (f *Fake) TicketCount(ctx context.Context) (uint64, error) {
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TicketCounter, nil
}

func (f *Fake) SubmitEvent(ctx context.Context, metadataURI string, priceWei *big.Int, maxTickets uint64) (ledger.EventID, error) {
	if f.Identity.ReadOnly {
		return 0, ledger.ErrReadOnly
	}
	f.mu.Lock()
	f.Submitted = append(f.Submitted, metadataURI)
	f.mu.Unlock()
	id := f.AddEvent(f.Identity.Address, priceWei.Int64(), metadataURI, maxTickets)
	return id, nil
}

// Mock is a testify mock of ledger.Gateway for call-level expectations.
type Mock struct {
	mock.Mock
}

func (m *Mock) Connect(ctx context.Context) (ledger.Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(ledger.Identity), args.Error(1)
}

func (m *Mock) ListEventIDs(ctx context.Context) ([]ledger.EventID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.EventID), args.Error(1)
}

func (m *Mock) GetEvent(ctx context.Context, id ledger.EventID) (ledger.EventRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ledger.EventRecord), args.Error(1)
}

func (m *Mock) GetTicketOwner(ctx context.Context, id ledger.TicketID) (ledger.OwnerLookup, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ledger.OwnerLookup), args.Error(1)
}

func (m *Mock) GetTicketEventID(ctx context.Context, id ledger.TicketID) (ledger.EventID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ledger.EventID), args.Error(1)
}

func (m *Mock) TicketCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *Mock) SubmitEvent(ctx context.Context, metadataURI string, priceWei *big.Int, maxTickets uint64) (ledger.EventID, error) {
	args := m.Called(ctx, metadataURI, priceWei, maxTickets)
	return args.Get(0).(ledger.EventID), args.Error(1)
}

var (
	_ ledger.Gateway = (*Fake)(nil)
	_ ledger.Gateway = (*Mock)(nil)
)
