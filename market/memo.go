package market

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/patrickmn/go-cache"
)

// Memo remembers the answers of a provider for a while, keyed by request.
// Series it returns are shared and must not be modified.
type Memo struct {
	next  Provider
	cache *cache.Cache
}

// NewMemo wraps next, answers expire after ttl.
func NewMemo(next Provider, ttl time.Duration) *Memo {
	return &Memo{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (m *Memo) History(ctx context.Context, symbol, currency string, rg date.Range) (*folio.PriceSeries, error) {
	key := fmt.Sprintf("history-%s-%s-%v", symbol, currency, rg)
	return m.get(key, func() (*folio.PriceSeries, error) { return m.next.History(ctx, symbol, currency, rg) })
}

func (m *Memo) Rate(ctx context.Context, currency, base string, rg date.Range) (*folio.PriceSeries, error) {
	key := fmt.Sprintf("rate-%s-%s-%v", currency, base, rg)
	return m.get(key, func() (*folio.PriceSeries, error) { return m.next.Rate(ctx, currency, base, rg) })
}

func (m *Memo) get(key string, fetch func() (*folio.PriceSeries, error)) (*folio.PriceSeries, error) {
	if v, found := m.cache.Get(key); found {
		return v.(*folio.PriceSeries), nil
	}
	s, err := fetch()
	if err != nil {
		return nil, err
	}
	m.cache.SetDefault(key, s)
	return s, nil
}
