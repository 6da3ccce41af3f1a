package api

import (
	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/listing"
	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
	"github.com/gyaneshwarpardhi/tiktr/internal/ownership"
)

// eventView is an event as clients display it. Prices are strings so wei
// values survive JSON number precision.
type eventView struct {
	ID          ledger.EventID `json:"id"`
	Creator     string         `json:"creator"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	Location    string         `json:"location"`
	Image       string         `json:"image"`
	PriceWei    string         `json:"price_wei"`
	PriceETH    string         `json:"price_eth"`
	MaxTickets  uint64         `json:"max_tickets"`
	TicketsSold uint64         `json:"tickets_sold"`
	TicketsLeft uint64         `json:"tickets_left"`
	MetadataURI string         `json:"metadata_uri"`
}

func newEventView(e catalog.Entry) eventView {
	image := e.Metadata.ImageRef
	if image == "" {
		image = metadata.FallbackImage
	}
	priceWei := "0"
	if e.Record.TicketPriceWei != nil {
		priceWei = e.Record.TicketPriceWei.String()
	}
	return eventView{
		ID:          e.Record.ID,
		Creator:     e.Record.Creator.Hex(),
		Title:       e.Metadata.Title,
		Description: e.Metadata.Description,
		Date:        e.Metadata.Date,
		Location:    e.Metadata.Location,
		Image:       image,
		PriceWei:    priceWei,
		PriceETH:    listing.FormatEther(e.Record.TicketPriceWei),
		MaxTickets:  e.Record.MaxTickets,
		TicketsSold: e.Record.TicketsSold,
		TicketsLeft: e.Record.TicketsLeft(),
		MetadataURI: e.Record.MetadataURI,
	}
}

type searchResponse struct {
	Query      string           `json:"query"`
	Items      []eventView      `json:"items"`
	Total      int              `json:"total"`
	Offset     int              `json:"offset"`
	NextOffset int              `json:"next_offset"`
	HasMore    bool             `json:"has_more"`
	FailedIDs  []ledger.EventID `json:"failed_ids"`
}

type sessionResponse struct {
	Address  string `json:"address"`
	ReadOnly bool   `json:"read_only"`
}

type walletView struct {
	Address       string                 `json:"address"`
	CreatedEvents []eventView            `json:"created_events"`
	OwnedTickets  []ownership.OwnedTicket `json:"owned_tickets"`
	Scan          *ownership.ScanReport  `json:"scan"`
}

func newWalletView(res *ownership.Result) walletView {
	created := make([]eventView, 0, len(res.CreatedEvents))
	for _, rec := range res.CreatedEvents {
		created = append(created, newEventView(catalog.Entry{Record: rec, Metadata: metadata.Decode(rec.MetadataURI)}))
	}
	return walletView{
		Address:       res.Identity.Hex(),
		CreatedEvents: created,
		OwnedTickets:  res.OwnedTickets,
		Scan:          res.Scan,
	}
}
