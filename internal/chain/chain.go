// Package chain is the boundary to the credit ledger. Balances live in an
// ERC-1155 style contract; debits are irreversible burns signed by the
// gateway operator account.
package chain

import "context"

// Client queries and mutates subscription credit balances.
type Client interface {
	// LoadContract prepares bindings for the given contract address.
	LoadContract(ctx context.Context, contractAddress string) error
	// Balance returns the holder's credit balance for a subscription token.
	Balance(ctx context.Context, contractAddress, tokenID, holder string) (uint64, error)
	// Burn debits amount credits from the holder's balance. Idempotency at
	// the chain level is the node's responsibility.
	Burn(ctx context.Context, contractAddress, holder, tokenID string, amount uint64) error
	// AssetOwner resolves the current owner of an asset identifier.
	AssetOwner(ctx context.Context, did string) (string, error)
}
