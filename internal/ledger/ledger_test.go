package ledger_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
)

func TestParseAddress_CaseInsensitive(t *testing.T) {
	upper, err := ledger.ParseAddress("0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lower, err := ledger.ParseAddress("0xabcdef0123456789abcdef0123456789abcdef01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ledger.SameAddress(upper, lower) {
		t.Errorf("expected %s and %s to match", upper, lower)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, s := range []string{"", "0x123", "not-an-address", "0xZZcdef0123456789abcdef0123456789abcdef01"} {
		if _, err := ledger.ParseAddress(s); !errors.Is(err, ledger.ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q): expected ErrInvalidAddress, got %v", s, err)
		}
	}
}

func TestParseAddress_Checksum(t *testing.T) {
	addr, err := ledger.ParseAddress("  0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a := addr.Hex(); a != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("expected checksummed address, got %s", a)
	}
}

func TestEventRecord_Validate(t *testing.T) {
	cases := []struct {
		name    string
		rec     ledger.EventRecord
		wantErr bool
	}{
		{name: "ok", rec: ledger.EventRecord{TicketPriceWei: big.NewInt(1), MaxTickets: 10, TicketsSold: 10}},
		{name: "oversold", rec: ledger.EventRecord{TicketPriceWei: big.NewInt(1), MaxTickets: 1, TicketsSold: 2}, wantErr: true},
		{name: "nil price", rec: ledger.EventRecord{MaxTickets: 1}, wantErr: true},
		{name: "negative price", rec: ledger.EventRecord{TicketPriceWei: big.NewInt(-1), MaxTickets: 1}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if err != nil && !errors.Is(err, ledger.ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestEventRecord_TicketsLeft(t *testing.T) {
	r := ledger.EventRecord{MaxTickets: 5, TicketsSold: 3}
	if got := r.TicketsLeft(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
