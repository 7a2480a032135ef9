// Package node implements the chain client against the operator node's HTTP
// gateway, which fronts the actual wallet and contract bindings.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks JSON over HTTP to the chain node gateway.
type Client struct {
	baseURL string
	account string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, account string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		account: strings.TrimSpace(account),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Named("chain.node"),
	}
}

type loadContractRequest struct {
	ContractAddress string `json:"contractAddress"`
}

type balanceRequest struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	Holder          string `json:"holder"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

type burnRequest struct {
	ContractAddress string `json:"contractAddress"`
	Holder          string `json:"holder"`
	TokenID         string `json:"tokenId"`
	Amount          uint64 `json:"amount"`
	Account         string `json:"account"`
}

type ownerResponse struct {
	Owner string `json:"owner"`
}

func (c *Client) LoadContract(ctx context.Context, contractAddress string) error {
	c.log.Debug("loading contract bindings", zap.String("contract", contractAddress))
	return c.post(ctx, "/api/v1/contracts/load", loadContractRequest{ContractAddress: contractAddress}, nil)
}

func (c *Client) Balance(ctx context.Context, contractAddress, tokenID, holder string) (uint64, error) {
	var resp balanceResponse
	err := c.post(ctx, "/api/v1/balances/query", balanceRequest{
		ContractAddress: contractAddress,
		TokenID:         tokenID,
		Holder:          holder,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

func (c *Client) Burn(ctx context.Context, contractAddress, holder, tokenID string, amount uint64) error {
	return c.post(ctx, "/api/v1/balances/burn", burnRequest{
		ContractAddress: contractAddress,
		Holder:          holder,
		TokenID:         tokenID,
		Amount:          amount,
		Account:         c.account,
	}, nil)
}

func (c *Client) AssetOwner(ctx context.Context, did string) (string, error) {
	var resp ownerResponse
	endpoint := fmt.Sprintf("%s/api/v1/assets/%s/owner", c.baseURL, strings.TrimSpace(did))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("asset owner %s: %w", did, err)
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("asset owner %s: %w", did, err)
	}
	return resp.Owner, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("chain node %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("chain node %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.do(req, out); err != nil {
		return fmt.Errorf("chain node %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("node answered %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
