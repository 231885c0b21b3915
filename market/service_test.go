package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	books map[Instrument]RawBook
	fail  map[Instrument]error
}

func (f *fakeSource) Book(inst Instrument, limit int) (RawBook, error) {
	if err := f.fail[inst]; err != nil {
		return RawBook{}, err
	}
	return f.books[inst], nil
}

func TestSnapshotConsolidatesAll(t *testing.T) {
	src := &fakeSource{books: map[Instrument]RawBook{
		GEM: {Bids: []RawOrder{{TraderID: "a", Price: 24.5, Quantity: 100}}},
		UB:  {Asks: []RawOrder{{TraderID: "user15", Price: 50, Quantity: 100}}},
		ETF: {},
	}}
	svc := &Service{Source: src, TraderID: "user15"}

	books, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Len(t, books, 3)
	assert.Equal(t, []PriceLevel{{24.5, 100}}, books[GEM].Bids)
	// 自身挂单被剔除
	assert.Empty(t, books[UB].Asks)
}

func TestSnapshotAllOrNothing(t *testing.T) {
	src := &fakeSource{
		books: map[Instrument]RawBook{GEM: {}, ETF: {}},
		fail:  map[Instrument]error{UB: errors.New("timeout")},
	}
	svc := &Service{Source: src, TraderID: "user15"}

	_, err := svc.Snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UB")
}
