package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger/ledgertest"
	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func uri(title string) string {
	return metadata.Encode(metadata.EventMetadata{Title: title, Description: "d", Date: "2025-06-25", Location: "Mumbai"}, "img.jpg", metadata.DefaultBaseURI)
}

func seed(t *testing.T, titles ...string) *ledgertest.Fake {
	t.Helper()
	f := ledgertest.NewFake(alice)
	for i, title := range titles {
		creator := alice
		if i%2 == 1 {
			creator = bob
		}
		f.AddEvent(creator, int64(1e15*(i+1)), uri(title), 100)
	}
	return f
}

func TestLoadAll_Complete(t *testing.T) {
	f := seed(t, "Coldplay Concert", "Interstellar", "Comedy Night", "Jazz Night")
	entries, report, err := catalog.NewAggregator(2, time.Second).LoadAll(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 4, report.Listed)

	for i, e := range entries {
		assert.Equal(t, ledger.EventID(i), e.Record.ID, "entries must follow ledger order")
	}
	assert.Equal(t, "Coldplay Concert", entries[0].Metadata.Title)
	assert.Equal(t, "Mumbai", entries[0].Metadata.Location)
	assert.Equal(t, "img.jpg", entries[0].Metadata.ImageRef)
	assert.Equal(t, bob, entries[1].Record.Creator)
}

func TestLoadAll_FetchesConcurrently(t *testing.T) {
	f := seed(t, "a", "b", "c")
	_, _, err := catalog.NewAggregator(8, time.Second).LoadAll(context.Background(), f)
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.GetEventCalls.Load())
}

func TestLoadAll_PartialFailure(t *testing.T) {
	f := seed(t, "Coldplay Concert", "Interstellar", "Comedy Night")
	f.FailEvent[1] = true

	entries, report, err := catalog.NewAggregator(4, time.Second).LoadAll(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.EventID(0), entries[0].Record.ID)
	assert.Equal(t, ledger.EventID(2), entries[1].Record.ID)
	for _, e := range entries {
		assert.NotNil(t, e.Record.TicketPriceWei)
		assert.NotEqual(t, ledger.EventID(1), e.Record.ID)
	}
	require.Len(t, report.Failed, 1)
	assert.Equal(t, ledger.EventID(1), report.Failed[0].ID)
}

func TestLoadAll_InvalidRecordExcluded(t *testing.T) {
	f := seed(t, "ok", "oversold")
	rec := f.Events[1]
	rec.TicketsSold = rec.MaxTickets + 1
	f.Events[1] = rec

	entries, report, err := catalog.NewAggregator(2, time.Second).LoadAll(context.Background(), f)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Err, "sold")
}

func TestLoadAll_MalformedMetadataDefaults(t *testing.T) {
	f := ledgertest.NewFake(alice)
	f.AddEvent(alice, 1, "not a uri", 10)

	entries, _, err := catalog.NewAggregator(1, time.Second).LoadAll(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, metadata.Defaults(), entries[0].Metadata)
}

func TestLoadAll_ListFailureIsFatal(t *testing.T) {
	m := new(ledgertest.Mock)
	m.On("ListEventIDs", mock.Anything).Return(nil, ledgertest.ErrUnavailable)

	entries, report, err := catalog.NewAggregator(2, time.Second).LoadAll(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledgertest.ErrUnavailable))
	assert.Nil(t, entries)
	assert.Nil(t, report)
	m.AssertNotCalled(t, "GetEvent", mock.Anything, mock.Anything)
}

func TestLoadAll_Empty(t *testing.T) {
	entries, report, err := catalog.NewAggregator(2, time.Second).LoadAll(context.Background(), ledgertest.NewFake(alice))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, report.Listed)
}
