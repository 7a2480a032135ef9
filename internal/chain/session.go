package chain

import (
	"context"
	"strings"
)

// Session wraps a Client for one reconciliation batch, reloading contract
// bindings only when the address changes between consecutive records. Purely
// a performance optimization; it is not safe for concurrent use and must not
// outlive the batch.
type Session struct {
	client Client
	loaded string
}

func NewSession(client Client) *Session {
	return &Session{client: client}
}

// EnsureLoaded loads contract bindings unless the address is already active.
func (s *Session) EnsureLoaded(ctx context.Context, contractAddress string) error {
	addr := strings.ToLower(strings.TrimSpace(contractAddress))
	if addr != "" && addr == s.loaded {
		return nil
	}
	if err := s.client.LoadContract(ctx, contractAddress); err != nil {
		return err
	}
	s.loaded = addr
	return nil
}

func (s *Session) Balance(ctx context.Context, contractAddress, tokenID, holder string) (uint64, error) {
	return s.client.Balance(ctx, contractAddress, tokenID, holder)
}

func (s *Session) Burn(ctx context.Context, contractAddress, holder, tokenID string, amount uint64) error {
	return s.client.Burn(ctx, contractAddress, holder, tokenID, amount)
}

func (s *Session) AssetOwner(ctx context.Context, did string) (string, error) {
	return s.client.AssetOwner(ctx, did)
}
