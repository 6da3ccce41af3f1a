package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
	"github.com/gyaneshwarpardhi/tiktr/internal/metrics"
)

// ErrInvalidForm wraps every validation problem found in a Form.
var ErrInvalidForm = errors.New("invalid listing")

// Form is what an organiser fills in to list an event.
type Form struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	PriceETH    string `json:"price"`
	MaxTickets  uint64 `json:"max_tickets"`
	// ImageRef is the already uploaded image location. Optional; an empty
	// value is encoded as image= and shown with the fallback image.
	ImageRef string `json:"image"`
}

// Validate reports all missing or malformed fields at once. Every field but
// the image is required.
func (f Form) Validate() error {
	var errs []string
	for _, field := range []struct{ name, v string }{
		{"title", f.Title},
		{"description", f.Description},
		{"date", f.Date},
		{"location", f.Location},
	} {
		if strings.TrimSpace(field.v) == "" {
			errs = append(errs, field.name+" is required")
		}
	}
	if wei, err := ParseEther(f.PriceETH); err != nil {
		errs = append(errs, "price: "+err.Error())
	} else if wei.Sign() == 0 {
		errs = append(errs, "price must be greater than zero")
	}
	if f.MaxTickets == 0 {
		errs = append(errs, "max_tickets must be greater than zero")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidForm, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Metadata returns the descriptive fields carried in the metadata URI.
func (f Form) Metadata() metadata.EventMetadata {
	return metadata.EventMetadata{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Date:        strings.TrimSpace(f.Date),
		Location:    strings.TrimSpace(f.Location),
		ImageRef:    strings.TrimSpace(f.ImageRef),
	}
}

// Lister submits new events to the ledger.
type Lister struct {
	baseURI string
}

// NewLister returns a Lister hanging metadata off baseURI.
func NewLister(baseURI string) *Lister {
	if baseURI == "" {
		baseURI = metadata.DefaultBaseURI
	}
	return &Lister{baseURI: baseURI}
}

// Submit validates f, encodes its metadata and lists it on the ledger.
func (l *Lister) Submit(ctx context.Context, gw ledger.Gateway, f Form) (ledger.EventID, error) {
	if err := f.Validate(); err != nil {
		metrics.EventsListed.WithLabelValues("invalid").Inc()
		return 0, err
	}
	id, err := gw.Connect(ctx)
	if err != nil {
		metrics.EventsListed.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("listing: connect: %w", err)
	}
	if id.ReadOnly {
		metrics.EventsListed.WithLabelValues("error").Inc()
		return 0, ledger.ErrReadOnly
	}
	wei, err := ParseEther(f.PriceETH)
	if err != nil {
		return 0, err
	}
	m := f.Metadata()
	uri := metadata.Encode(m, m.ImageRef, l.baseURI)

	eventID, err := gw.SubmitEvent(ctx, uri, wei, f.MaxTickets)
	if err != nil {
		metrics.EventsListed.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("listing: submit event: %w", err)
	}
	metrics.EventsListed.WithLabelValues("ok").Inc()
	slog.Info("event listed", "event_id", eventID, "creator", id.Address.Hex(), "price_wei", wei.String())
	return eventID, nil
}
