package securities_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biocap/tradedesk-api/internal/database"
	"github.com/biocap/tradedesk-api/internal/securities"
)

func newTestService(t *testing.T) *securities.Service {
	t.Helper()
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return securities.NewService(db)
}

func TestListReturnsSeededCatalog(t *testing.T) {
	s := newTestService(t)

	list, err := s.List()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	tickers := make(map[string]bool)
	for _, sec := range list {
		tickers[sec.Ticker] = true
	}
	assert.True(t, tickers["MRNA"])
	assert.True(t, tickers["GILD"])
}

func TestGetUnknownID(t *testing.T) {
	s := newTestService(t)

	sec, err := s.Get(9999)
	require.NoError(t, err)
	assert.Nil(t, sec)
}

func TestGetByTicker(t *testing.T) {
	s := newTestService(t)

	sec, err := s.GetByTicker("mrna")
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "MRNA", sec.Ticker)

	missing, err := s.GetByTicker("ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchMatchesTickerAndName(t *testing.T) {
	s := newTestService(t)

	byTicker, err := s.Search("mrna")
	require.NoError(t, err)
	require.Len(t, byTicker, 1)
	assert.Equal(t, "MRNA", byTicker[0].Ticker)

	byName, err := s.Search("moderna")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Moderna Inc.", byName[0].Name)

	none, err := s.Search("zzzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}
