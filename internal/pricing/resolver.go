// Package pricing converts a USD-denominated listing price into the wei
// amount to attach to the purchase transaction.
//
// Two strategies exist because the client-side estimate and the
// contract-side verification can legitimately disagree: the external
// strategy quotes an independent market-data endpoint, the on-chain
// strategy delegates to the contract's own Pyth read. Either way the
// contract re-verifies the settlement price from the attestation, so the
// resolver output is only ever an estimate of what the contract will
// accept.
package pricing

import (
	"context"
	"errors"
	"math/big"
)

var (
	// ErrRateUnavailable means the external rate endpoint could not be
	// reached or returned no usable rate for the pair.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrChainReadFailed means the contract's price-reading call
	// reverted or timed out.
	ErrChainReadFailed = errors.New("on-chain rate read failed")

	// ErrInvalidRate means the source answered with a zero or negative
	// rate; dividing by it would produce a nonsense payment.
	ErrInvalidRate = errors.New("invalid exchange rate")
)

// Resolver computes the wei payment for a listing price, optionally using
// the oracle update fetched for this attempt.
type Resolver interface {
	// ResolvePayment returns the wei equivalent of priceUsd (fixed-point,
	// marketplace.UsdDecimals) at the strategy's current rate, rounded
	// half away from zero at wei precision.
	ResolvePayment(ctx context.Context, priceUsd *big.Int, update [][]byte) (*big.Int, error)
}
