package enrich

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveCachesPositiveLookup(t *testing.T) {
	d := NewDNSCache(time.Minute, time.Second)
	var calls atomic.Int32
	d.lookup = func(ctx context.Context, ip string) ([]string, error) {
		calls.Add(1)
		return []string{"example.com."}, nil
	}

	first := d.Resolve(context.Background(), "93.184.216.34")
	second := d.Resolve(context.Background(), "93.184.216.34")

	require.Equal(t, "example.com", first)
	require.Equal(t, first, second)
	require.Equal(t, int32(1), calls.Load(), "second call must hit the cache, not the resolver")
}

func TestResolveCachesNegativeLookup(t *testing.T) {
	d := NewDNSCache(time.Minute, time.Second)
	var calls atomic.Int32
	d.lookup = func(ctx context.Context, ip string) ([]string, error) {
		calls.Add(1)
		return nil, context.DeadlineExceeded
	}

	first := d.Resolve(context.Background(), "192.0.2.1")
	second := d.Resolve(context.Background(), "192.0.2.1")

	require.Equal(t, "", first)
	require.Equal(t, "", second)
	require.Equal(t, int32(1), calls.Load(), "a failed lookup must still be cached")
}

func TestResolveUnparsableIPReturnsEmpty(t *testing.T) {
	d := NewDNSCache(time.Minute, time.Second)
	d.lookup = func(ctx context.Context, ip string) ([]string, error) {
		t.Fatal("lookup must not be invoked for an unparsable address")
		return nil, nil
	}
	require.Equal(t, "", d.Resolve(context.Background(), "not-an-ip"))
}

func TestResolveLoopbackShortCircuits(t *testing.T) {
	d := NewDNSCache(time.Minute, time.Second)
	d.lookup = func(ctx context.Context, ip string) ([]string, error) {
		t.Fatal("lookup must not be invoked for loopback addresses")
		return nil, nil
	}
	require.Equal(t, "", d.Resolve(context.Background(), "127.0.0.1"))
}

func TestResolveEchoedIPTreatedAsMiss(t *testing.T) {
	d := NewDNSCache(time.Minute, time.Second)
	d.lookup = func(ctx context.Context, ip string) ([]string, error) {
		return []string{ip}, nil
	}
	require.Equal(t, "", d.Resolve(context.Background(), "203.0.113.5"))
}

func TestResolveExpiresAfterTTL(t *testing.T) {
	d := NewDNSCache(10*time.Millisecond, time.Second)
	var calls atomic.Int32
	d.lookup = func(ctx context.Context, ip string) ([]string, error) {
		calls.Add(1)
		return []string{"host.example."}, nil
	}

	d.Resolve(context.Background(), "203.0.113.9")
	time.Sleep(20 * time.Millisecond)
	d.Resolve(context.Background(), "203.0.113.9")

	require.Equal(t, int32(2), calls.Load(), "expired entries must trigger a fresh lookup")
}
