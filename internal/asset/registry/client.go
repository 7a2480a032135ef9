// Package registry resolves service descriptors from the asset registry API.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tollgate-io/tollgate/internal/asset/domain"
	"go.uber.org/zap"
)

// Client fetches ServiceDescriptors over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.Named("asset.registry"),
	}
}

func (c *Client) Resolve(ctx context.Context, did string) (*domain.ServiceDescriptor, error) {
	did = strings.TrimSpace(did)
	if did == "" {
		return nil, fmt.Errorf("resolve asset: empty did")
	}

	endpoint := fmt.Sprintf("%s/api/v1/assets/%s", c.baseURL, url.PathEscape(did))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve asset %s: %w", did, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve asset %s: %w", did, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("resolve asset %s: %w", did, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("resolve asset %s: registry answered %d", did, resp.StatusCode)
	}

	var descriptor domain.ServiceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		return nil, fmt.Errorf("resolve asset %s: decode descriptor: %w", did, err)
	}
	if strings.TrimSpace(descriptor.DID) == "" {
		descriptor.DID = did
	}
	c.log.Debug("resolved asset", zap.String("did", did), zap.String("owner", descriptor.Owner))
	return &descriptor, nil
}
