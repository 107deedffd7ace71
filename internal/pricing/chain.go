package pricing

import (
	"context"
	"fmt"
	"math/big"
)

var weiPerEth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// RateReader reads a USD-per-ETH rate (fixed-point, same scale as listing
// prices) from the settlement contract using this attempt's oracle update.
type RateReader interface {
	LatestEthPrice(ctx context.Context, update [][]byte) (*big.Int, error)
}

// ChainResolver implements the on-chain-rate strategy: the rate comes from
// the contract's own Pyth read, so the estimate and the settlement price
// share a source.
type ChainResolver struct {
	reader RateReader
}

func NewChainResolver(reader RateReader) *ChainResolver {
	return &ChainResolver{reader: reader}
}

func (c *ChainResolver) ResolvePayment(ctx context.Context, priceUsd *big.Int, update [][]byte) (*big.Int, error) {
	rate, err := c.reader.LatestEthPrice(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainReadFailed, err)
	}
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: on-chain rate %s", ErrInvalidRate, rate.String())
	}

	// priceUsd and rate share the same fixed-point scale, so the scales
	// cancel: payment = priceUsd * 10^18 / rate
	num := new(big.Int).Mul(priceUsd, weiPerEth)
	return roundQuotient(num, rate), nil
}
