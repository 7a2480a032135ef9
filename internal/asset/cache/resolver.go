package cache

import (
	"context"
	"strings"
	"time"

	"github.com/tollgate-io/tollgate/internal/asset/domain"
)

const defaultDescriptorTTL = 30 * time.Second

// CachingResolver wraps a registry resolver with a short-lived descriptor
// cache so the open-access fallback does not hammer the registry.
type CachingResolver struct {
	next        domain.Resolver
	descriptors Cache[string, *domain.ServiceDescriptor]
	ttl         time.Duration
}

func NewCachingResolver(next domain.Resolver) *CachingResolver {
	return &CachingResolver{
		next:        next,
		descriptors: NewTTLCache[string, *domain.ServiceDescriptor](),
		ttl:         defaultDescriptorTTL,
	}
}

func (r *CachingResolver) Resolve(ctx context.Context, did string) (*domain.ServiceDescriptor, error) {
	key := strings.ToLower(strings.TrimSpace(did))
	if cached, ok := r.descriptors.Get(key); ok {
		return cached, nil
	}
	descriptor, err := r.next.Resolve(ctx, did)
	if err != nil {
		return nil, err
	}
	r.descriptors.Set(key, descriptor, r.ttl)
	return descriptor, nil
}
