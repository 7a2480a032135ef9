package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"go.uber.org/zap"
)

type fakeResolver struct {
	svc *assetdomain.ServiceDescriptor
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, did string) (*assetdomain.ServiceDescriptor, error) {
	return f.svc, f.err
}

type fakeChain struct {
	balance    uint64
	balanceErr error
	queried    []string
}

func (f *fakeChain) LoadContract(ctx context.Context, address string) error { return nil }

func (f *fakeChain) Balance(ctx context.Context, contract, tokenID, holder string) (uint64, error) {
	f.queried = append(f.queried, holder)
	return f.balance, f.balanceErr
}

func (f *fakeChain) Burn(ctx context.Context, contract, holder, tokenID string, amount uint64) error {
	return nil
}

func (f *fakeChain) AssetOwner(ctx context.Context, did string) (string, error) { return "", nil }

func creditService(min uint64) *assetdomain.ServiceDescriptor {
	return &assetdomain.ServiceDescriptor{
		DID:              "did:nv:abc",
		Owner:            "0xOwner",
		SubscriptionType: assetdomain.SubscriptionCredits,
		Access: assetdomain.AccessControl{
			ContractAddress: "0xContract",
			TokenID:         "42",
		},
		Charge: assetdomain.ChargePolicy{MinCreditsRequired: min},
	}
}

func TestCheckPassesWithSufficientBalance(t *testing.T) {
	ch := &fakeChain{balance: 5}
	checker := NewChecker(&fakeResolver{svc: creditService(3)}, ch, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xConsumer", "0xConsumer")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xConsumer"}, ch.queried)
}

func TestCheckDeniesBelowMinimum(t *testing.T) {
	checker := NewChecker(&fakeResolver{svc: creditService(3)}, &fakeChain{balance: 2}, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xConsumer", "0xConsumer")
	assert.ErrorIs(t, err, ErrSubscriptionValidation)
}

func TestCheckDefaultsMinimumToConfigured(t *testing.T) {
	checker := NewChecker(&fakeResolver{svc: creditService(0)}, &fakeChain{balance: 0}, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xConsumer", "0xConsumer")
	assert.ErrorIs(t, err, ErrSubscriptionValidation)
}

func TestCheckOwnerBypassesBalance(t *testing.T) {
	ch := &fakeChain{balance: 0}
	checker := NewChecker(&fakeResolver{svc: creditService(3)}, ch, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xowner", "0xOwner")
	require.NoError(t, err)
	assert.Empty(t, ch.queried, "owner calls should not hit the chain")
}

func TestCheckConsumerWhoOwnsServiceBypassesBalance(t *testing.T) {
	ch := &fakeChain{balance: 0}
	checker := NewChecker(&fakeResolver{svc: creditService(3)}, ch, 1, zap.NewNop())

	// No owner claim on the token; the consumer identity alone decides.
	err := checker.Check(context.Background(), "did:nv:abc", "0xOwner", "")
	require.NoError(t, err)
	assert.Empty(t, ch.queried)
}

func TestCheckTimeBasedSkipsBalance(t *testing.T) {
	svc := creditService(3)
	svc.SubscriptionType = assetdomain.SubscriptionTime
	ch := &fakeChain{balance: 0}
	checker := NewChecker(&fakeResolver{svc: svc}, ch, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xConsumer", "0xConsumer")
	require.NoError(t, err)
	assert.Empty(t, ch.queried)
}

func TestCheckResolverFailure(t *testing.T) {
	checker := NewChecker(&fakeResolver{err: errors.New("registry down")}, &fakeChain{}, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xConsumer", "0xConsumer")
	assert.ErrorIs(t, err, ErrSubscriptionValidation)
}

func TestCheckBalanceFailure(t *testing.T) {
	checker := NewChecker(&fakeResolver{svc: creditService(1)}, &fakeChain{balanceErr: errors.New("node down")}, 1, zap.NewNop())

	err := checker.Check(context.Background(), "did:nv:abc", "0xConsumer", "0xConsumer")
	assert.ErrorIs(t, err, ErrSubscriptionValidation)
}
