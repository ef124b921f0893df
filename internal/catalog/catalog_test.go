package catalog_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/catalog"
)

type stubSource struct {
	items map[string]catalog.Item
	calls int
}

func (s *stubSource) GetItem(_ context.Context, id string) (catalog.Item, error) {
	s.calls++
	item, ok := s.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return item, nil
}

func (s *stubSource) ListItems(context.Context, int, int) ([]catalog.Item, error) {
	out := make([]catalog.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func TestGetReadsThroughCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &stubSource{items: map[string]catalog.Item{
		"item-1": {ID: "item-1", SKU: "SKU-1", Name: "Espresso", UnitPrice: 10_000, DiscountBps: 1000, Available: true},
	}}
	svc := &catalog.Service{Source: source, Cache: catalog.NewCache(client, time.Minute)}

	ctx := context.Background()
	first, err := svc.Get(ctx, "item-1")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), first.UnitPrice)
	require.Equal(t, 1, source.calls)

	second, err := svc.Get(ctx, "item-1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, source.calls, "second read should come from cache")
}

func TestGetUnknownItem(t *testing.T) {
	source := &stubSource{items: map[string]catalog.Item{}}
	svc := &catalog.Service{Source: source}
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetWithoutCache(t *testing.T) {
	source := &stubSource{items: map[string]catalog.Item{
		"item-1": {ID: "item-1", Available: true},
	}}
	svc := &catalog.Service{Source: source}
	item, err := svc.Get(context.Background(), "item-1")
	require.NoError(t, err)
	require.Equal(t, "item-1", item.ID)
}
