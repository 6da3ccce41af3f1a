package catalog_test

import (
	"math/big"
	"testing"

	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
)

func entries(titles ...string) []catalog.Entry {
	out := make([]catalog.Entry, len(titles))
	for i, title := range titles {
		u := uri(title)
		out[i] = catalog.Entry{
			Record:   ledger.EventRecord{ID: ledger.EventID(i), TicketPriceWei: big.NewInt(1), MetadataURI: u, MaxTickets: 1},
			Metadata: metadata.Decode(u),
		}
	}
	return out
}

func titles(es []catalog.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Metadata.Title
	}
	return out
}

func TestFilterByQuery(t *testing.T) {
	all := entries("Coldplay Concert", "Captain America: Brave New World", "Interstellar")

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{name: "single match", query: "Coldplay", want: 1},
		{name: "case insensitive", query: "cOLDPLAY", want: 1},
		{name: "substring", query: "in", want: 2},
		{name: "empty", query: "", want: 3},
		{name: "blank", query: "   ", want: 3},
		{name: "none", query: "opera", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := catalog.FilterByQuery(all, tc.query)
			if len(got) != tc.want {
				t.Errorf("query %q: expected %d, got %d (%v)", tc.query, tc.want, len(got), titles(got))
			}
		})
	}
}

func TestFilterByQuery_UntitledFallsBackToURI(t *testing.T) {
	raw := "https://ipfs.io/ipfs/bafyspecialcid?desc=x"
	es := []catalog.Entry{{
		Record:   ledger.EventRecord{MetadataURI: raw},
		Metadata: metadata.Decode(raw),
	}}
	if got := catalog.FilterByQuery(es, "bafyspecial"); len(got) != 1 {
		t.Errorf("expected untitled entry to match on its URI")
	}
	if got := catalog.FilterByQuery(es, "untitled"); len(got) != 0 {
		t.Errorf("default title should not be searchable")
	}
}

func TestFilterByQuery_UntitledMatchesUnescapedURI(t *testing.T) {
	literal := entries("Untitled Event", "Jazz")
	got := catalog.FilterByQuery(literal, "Untitled Event")
	if len(got) != 1 || got[0].Record.ID != 0 {
		t.Errorf("expected the event literally titled %q, got %v", metadata.DefaultTitle, titles(got))
	}

	raw := metadata.Encode(metadata.EventMetadata{Description: "Late Night Jazz & Blues"}, "", metadata.DefaultBaseURI)
	es := []catalog.Entry{{
		Record:   ledger.EventRecord{MetadataURI: raw},
		Metadata: metadata.Decode(raw),
	}}
	for _, q := range []string{"late night jazz", "jazz & blues"} {
		if got := catalog.FilterByQuery(es, q); len(got) != 1 {
			t.Errorf("query %q: expected untitled entry to match its decoded URI", q)
		}
	}
}

func TestPage(t *testing.T) {
	all := entries("a", "b", "c", "d", "e", "f", "g", "h")

	cases := []struct {
		name     string
		offset   int
		size     int
		wantLen  int
		wantHead string
	}{
		{name: "first", offset: 0, size: 3, wantLen: 3, wantHead: "a"},
		{name: "middle", offset: 3, size: 3, wantLen: 3, wantHead: "d"},
		{name: "partial tail", offset: 6, size: 3, wantLen: 2, wantHead: "g"},
		{name: "at end", offset: 8, size: 3, wantLen: 0},
		{name: "past end", offset: 50, size: 3, wantLen: 0},
		{name: "negative offset", offset: -4, size: 2, wantLen: 2, wantHead: "a"},
		{name: "default size", offset: 0, size: 0, wantLen: catalog.DefaultPageSize, wantHead: "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := catalog.Page(all, tc.offset, tc.size)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tc.wantLen {
				t.Fatalf("expected %d entries, got %d", tc.wantLen, len(got))
			}
			if tc.wantLen > 0 && got[0].Metadata.Title != tc.wantHead {
				t.Errorf("expected head %q, got %q", tc.wantHead, got[0].Metadata.Title)
			}
		})
	}
}

func TestSearchSession_AppendsWithoutDuplicates(t *testing.T) {
	all := entries("a", "b", "c", "d", "e")
	s := &catalog.SearchSession{}

	var seen []string
	for i := 0; i < 5; i++ {
		seen = append(seen, titles(s.Next(all, 2))...)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
	if s.HasMore(all) {
		t.Error("expected session to be exhausted")
	}
	if got := s.Next(all, 2); len(got) != 0 {
		t.Errorf("expected empty increment past the end, got %v", titles(got))
	}
	if s.Offset != 5 {
		t.Errorf("offset should stay at 5, got %d", s.Offset)
	}
}

func TestSearchSession_QueryChangeResetsOffset(t *testing.T) {
	all := entries("Coldplay Concert", "Comedy Night", "Indie Music Fest")
	s := &catalog.SearchSession{}
	s.Next(all, 2)
	if s.Offset != 2 {
		t.Fatalf("expected offset 2, got %d", s.Offset)
	}

	s.SetQuery("Coldplay")
	if s.Offset != 0 {
		t.Fatalf("expected offset reset to 0, got %d", s.Offset)
	}
	got := s.Next(all, 6)
	if len(got) != 1 || got[0].Metadata.Title != "Coldplay Concert" {
		t.Errorf("expected only Coldplay Concert, got %v", titles(got))
	}

	s.SetQuery("Coldplay")
	if s.Offset != 1 {
		t.Errorf("same query must keep offset, got %d", s.Offset)
	}
}
