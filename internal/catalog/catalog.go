package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested item does not exist or is not sellable.
var ErrNotFound = errors.New("catalog: item not found")

// Item is a sellable catalog entry. UnitPrice is in minor currency units and
// DiscountBps is the catalog-level discount in basis points. StockQty is the
// quantity on hand when the item was read; it may be stale by the time a sale
// is finalized, which is why the finalizer re-checks stock.
type Item struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unitPrice"`
	DiscountBps int32  `json:"discountBps"`
	StockQty    int64  `json:"stockQty"`
	Available   bool   `json:"available"`
}

// Source loads catalog items from the system of record.
type Source interface {
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context, limit, offset int) ([]Item, error)
}

// Service serves catalog reads through a Redis read-through cache. The cache
// is best-effort: cache failures fall back to the source.
type Service struct {
	Source Source
	Cache  *Cache
}

// Get returns the catalog item with the given id.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	if s == nil || s.Source == nil {
		return Item{}, errors.New("catalog: source not configured")
	}
	if id == "" {
		return Item{}, ErrNotFound
	}
	key := cacheKey(id)
	var cached Item
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	item, err := s.Source.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	_ = s.Cache.SetJSON(ctx, key, item)
	return item, nil
}

// List returns a page of catalog items straight from the source.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Item, error) {
	if s == nil || s.Source == nil {
		return nil, errors.New("catalog: source not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Source.ListItems(ctx, limit, offset)
}

func cacheKey(id string) string {
	return fmt.Sprintf("catalog:item:%s", id)
}
