package client

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/biocap/tradedesk-api/internal/types"
)

const defaultStaleAfter = 10 * time.Minute

// SelectOption is a label/value pair for dropdown-style selection lists.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Lookups layers read-through caches over the catalog endpoints. Catalog
// data changes rarely, so each list is cached and refetched only after it
// goes stale.
type Lookups struct {
	client     *Client
	strategies *ttlcache.Cache[string, []types.Strategy]
	securities *ttlcache.Cache[string, []types.Security]
	funds      *ttlcache.Cache[string, []types.Fund]
}

// NewLookups creates a lookup layer over the given client. A non-positive
// staleAfter falls back to the default of ten minutes.
func NewLookups(c *Client, staleAfter time.Duration) *Lookups {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &Lookups{
		client:     c,
		strategies: ttlcache.New(ttlcache.WithTTL[string, []types.Strategy](staleAfter)),
		securities: ttlcache.New(ttlcache.WithTTL[string, []types.Security](staleAfter)),
		funds:      ttlcache.New(ttlcache.WithTTL[string, []types.Fund](staleAfter)),
	}
}

// Strategies returns the cached strategy catalog, fetching on a miss.
func (l *Lookups) Strategies() ([]types.Strategy, error) {
	if item := l.strategies.Get("all"); item != nil {
		return item.Value(), nil
	}
	out, err := l.client.Strategies()
	if err != nil {
		return nil, err
	}
	l.strategies.Set("all", out, ttlcache.DefaultTTL)
	return out, nil
}

// Securities returns the cached security catalog, fetching on a miss.
func (l *Lookups) Securities() ([]types.Security, error) {
	if item := l.securities.Get("all"); item != nil {
		return item.Value(), nil
	}
	out, err := l.client.Securities()
	if err != nil {
		return nil, err
	}
	l.securities.Set("all", out, ttlcache.DefaultTTL)
	return out, nil
}

// Funds returns the cached fund catalog, fetching on a miss.
func (l *Lookups) Funds() ([]types.Fund, error) {
	if item := l.funds.Get("all"); item != nil {
		return item.Value(), nil
	}
	out, err := l.client.Funds()
	if err != nil {
		return nil, err
	}
	l.funds.Set("all", out, ttlcache.DefaultTTL)
	return out, nil
}

// Invalidate drops all cached catalogs.
func (l *Lookups) Invalidate() {
	l.strategies.DeleteAll()
	l.securities.DeleteAll()
	l.funds.DeleteAll()
}

// StrategyOptions returns the strategy catalog as selection options.
func (l *Lookups) StrategyOptions() ([]SelectOption, error) {
	strategies, err := l.Strategies()
	if err != nil {
		return nil, err
	}
	opts := make([]SelectOption, 0, len(strategies))
	for _, s := range strategies {
		opts = append(opts, SelectOption{Label: s.Name, Value: s.Name})
	}
	return opts, nil
}

// SecurityOptions returns the security catalog as selection options,
// labelled "TICKER - Name".
func (l *Lookups) SecurityOptions() ([]SelectOption, error) {
	securities, err := l.Securities()
	if err != nil {
		return nil, err
	}
	opts := make([]SelectOption, 0, len(securities))
	for _, s := range securities {
		opts = append(opts, SelectOption{
			Label: fmt.Sprintf("%s - %s", s.Ticker, s.Name),
			Value: s.Ticker,
		})
	}
	return opts, nil
}

// FundOptions returns the fund catalog as selection options, labelled
// "CODE - Name".
func (l *Lookups) FundOptions() ([]SelectOption, error) {
	funds, err := l.Funds()
	if err != nil {
		return nil, err
	}
	opts := make([]SelectOption, 0, len(funds))
	for _, f := range funds {
		opts = append(opts, SelectOption{
			Label: fmt.Sprintf("%s - %s", f.Code, f.Name),
			Value: f.Name,
		})
	}
	return opts, nil
}

// DirectionOptions returns the fixed set of trade directions.
func DirectionOptions() []SelectOption {
	return []SelectOption{
		{Label: types.DirectionBuy, Value: types.DirectionBuy},
		{Label: types.DirectionSell, Value: types.DirectionSell},
		{Label: types.DirectionSellShort, Value: types.DirectionSellShort},
		{Label: types.DirectionCoverShort, Value: types.DirectionCoverShort},
	}
}
