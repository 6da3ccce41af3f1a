package ledger

import (
	"context"
	"math/big"
)

// Gateway is the read/write surface of the ticketing contract.
//
// Implementations return an error only for genuine failures (transport,
// decoding, reverted writes). A token without an owner is reported through
// OwnerLookup, not an error.
type Gateway interface {
	// Connect resolves the wallet identity for this session.
	Connect(ctx context.Context) (Identity, error)
	// ListEventIDs returns every event id, in ledger order.
	ListEventIDs(ctx context.Context) ([]EventID, error)
	GetEvent(ctx context.Context, id EventID) (EventRecord, error)
	GetTicketOwner(ctx context.Context, id TicketID) (OwnerLookup, error)
	GetTicketEventID(ctx context.Context, id TicketID) (EventID, error)
	// TicketCount is the size of the token id space; ids are [0, count).
	TicketCount(ctx context.Context) (uint64, error)
	// SubmitEvent lists a new event and returns the id the ledger assigned.
	SubmitEvent(ctx context.Context, metadataURI string, priceWei *big.Int, maxTickets uint64) (EventID, error)
}
