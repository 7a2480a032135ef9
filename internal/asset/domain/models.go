// Package domain describes the access-control metadata of a published service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound = errors.New("asset not found")
)

// ChargeType selects how consumed credits are computed at settlement time.
type ChargeType string

const (
	ChargeFixed   ChargeType = "fixed"
	ChargeDynamic ChargeType = "dynamic"
)

// SubscriptionType gates how access to a subscription is limited.
type SubscriptionType string

const (
	// SubscriptionCredits burns credits per upstream call.
	SubscriptionCredits SubscriptionType = "credits"
	// SubscriptionTime is duration-gated; it never burns credits and the
	// balance checker always passes it.
	SubscriptionTime SubscriptionType = "time"
)

// AccessControl references the on-chain contract guarding a service.
type AccessControl struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
}

// ChargePolicy configures the credit pricing of a service. MinCreditsRequired
// is the balance floor the gateway enforces; MinCreditsToCharge and
// MaxCreditsToCharge bound what settlement actually burns.
type ChargePolicy struct {
	Type               ChargeType `json:"chargeType"`
	MinCreditsRequired uint64     `json:"minCreditsRequired"`
	MinCreditsToCharge uint64     `json:"minCreditsToCharge"`
	MaxCreditsToCharge uint64     `json:"maxCreditsToCharge"`
}

// ServiceDescriptor is the registry metadata for a published service or
// subscription asset.
type ServiceDescriptor struct {
	DID              string           `json:"did"`
	Owner            string           `json:"owner"`
	SubscriptionType SubscriptionType `json:"subscriptionType"`
	Access           AccessControl    `json:"accessControl"`
	Charge           ChargePolicy     `json:"chargePolicy"`
	// OpenEndpoints are path patterns reachable without a token.
	OpenEndpoints []string `json:"openEndpoints,omitempty"`
}

// Resolver resolves a service identifier against the asset registry.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*ServiceDescriptor, error)
}

const didPrefix = "did:nv:"

var didLabel = regexp.MustCompile(`^[0-9a-fA-F]{32,64}$`)

// SubscriptionDID derives the synthetic subscription identifier from the
// access-control token id.
func SubscriptionDID(tokenID string) string {
	return didPrefix + strings.TrimSpace(tokenID)
}

// DIDFromLabel interprets a DNS label (the leftmost subdomain of an
// open-access request) as an encoded asset identifier.
func DIDFromLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if !didLabel.MatchString(label) {
		return "", fmt.Errorf("label %q is not an asset identifier", label)
	}
	return didPrefix + strings.ToLower(label), nil
}
