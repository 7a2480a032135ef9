package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tollgate-io/tollgate/internal/asset/domain"
)

type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) Resolve(ctx context.Context, did string) (*domain.ServiceDescriptor, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &domain.ServiceDescriptor{DID: did, Owner: "0xowner"}, nil
}

func TestCachingResolverMemoizes(t *testing.T) {
	next := &countingResolver{}
	resolver := NewCachingResolver(next)

	first, err := resolver.Resolve(context.Background(), "did:nv:abc")
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "DID:NV:ABC")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
}

func TestCachingResolverDoesNotCacheErrors(t *testing.T) {
	next := &countingResolver{err: errors.New("registry down")}
	resolver := NewCachingResolver(next)

	_, err := resolver.Resolve(context.Background(), "did:nv:abc")
	require.Error(t, err)
	_, err = resolver.Resolve(context.Background(), "did:nv:abc")
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("k", 7, 10*time.Millisecond)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}
