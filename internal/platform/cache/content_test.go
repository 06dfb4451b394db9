package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestContent(t *testing.T) *Content {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewContent(client, time.Minute)
}

func TestFetchJSONPopulatesAndServesCache(t *testing.T) {
	c := newTestContent(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return map[string]string{"title": "hello"}, nil
	}

	var out map[string]string
	require.NoError(t, c.FetchJSON(ctx, "posts:slug:hello", &out, loader))
	require.Equal(t, "hello", out["title"])
	require.Equal(t, 1, calls)

	out = nil
	require.NoError(t, c.FetchJSON(ctx, "posts:slug:hello", &out, loader))
	require.Equal(t, "hello", out["title"])
	require.Equal(t, 1, calls)
}

func TestInvalidateBumpsVersionAndRefetches(t *testing.T) {
	c := newTestContent(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	var got int
	require.NoError(t, c.FetchJSON(ctx, "counter", &got, loader))
	require.Equal(t, 1, got)

	require.NoError(t, c.Invalidate(ctx))

	require.NoError(t, c.FetchJSON(ctx, "counter", &got, loader))
	require.Equal(t, 2, got)
}

func TestFetchJSONFallsBackWithoutClient(t *testing.T) {
	c := NewContent(nil, 0)

	var out string
	err := c.FetchJSON(context.Background(), "key", &out, func(ctx context.Context) (any, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	require.Equal(t, "direct", out)
}

func TestRawRoundTrip(t *testing.T) {
	c := newTestContent(t)
	ctx := context.Background()

	require.NoError(t, c.SetRaw(ctx, "seo:sitemap", []byte("<urlset/>"), 0))
	body, err := c.GetRaw(ctx, "seo:sitemap")
	require.NoError(t, err)
	require.Equal(t, []byte("<urlset/>"), body)
}
