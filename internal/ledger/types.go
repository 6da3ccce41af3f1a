package ledger

import (
	"fmt"
	"math/big"
)

// EventID identifies an event on the ledger. Ids are dense and assigned in
// creation order.
type EventID uint64

// TicketID is the token id of a ticket NFT. Ids are dense from 0.
type TicketID uint64

// Identity is the connected wallet for the current session.
type Identity struct {
	Address Address `json:"address"`
	// ReadOnly is set when the session can read but not sign transactions.
	ReadOnly bool `json:"read_only"`
}

// EventRecord is the on-chain state of a listed event.
type EventRecord struct {
	ID             EventID  `json:"id"`
	Creator        Address  `json:"creator"`
	TicketPriceWei *big.Int `json:"ticket_price_wei"`
	MetadataURI    string   `json:"metadata_uri"`
	MaxTickets     uint64   `json:"max_tickets"`
	TicketsSold    uint64   `json:"tickets_sold"`
}

// Validate checks the rules a record read from the ledger must satisfy.
func (r EventRecord) Validate() error {
	if r.TicketPriceWei == nil {
		return fmt.Errorf("%w: event %d has no price", ErrInvalidRecord, r.ID)
	}
	if r.TicketPriceWei.Sign() < 0 {
		return fmt.Errorf("%w: event %d has negative price", ErrInvalidRecord, r.ID)
	}
	if r.TicketsSold > r.MaxTickets {
		return fmt.Errorf("%w: event %d sold %d of %d tickets", ErrInvalidRecord, r.ID, r.TicketsSold, r.MaxTickets)
	}
	return nil
}

// TicketsLeft returns the unsold supply.
func (r EventRecord) TicketsLeft() uint64 {
	if r.TicketsSold >= r.MaxTickets {
		return 0
	}
	return r.MaxTickets - r.TicketsSold
}

// OwnerLookup is the outcome of asking who holds a token. A token that was
// never minted or has been burned is Absent, which is a normal result.
type OwnerLookup struct {
	Owner Address
	Found bool
}

// Found returns a lookup that resolved to owner.
func Found(owner Address) OwnerLookup { return OwnerLookup{Owner: owner, Found: true} }

// Absent returns a lookup for a token with no current owner.
func Absent() OwnerLookup { return OwnerLookup{} }
