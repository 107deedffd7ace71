package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// wei per smallest USD unit at a 1:1 rate: 10^(18 - UsdDecimals).
var weiPerUsdUnit = big.NewInt(10_000_000_000)

// CoinGeckoResolver implements the external-rate strategy: the USD/ETH
// rate comes from the CoinGecko simple-price endpoint and the payment is
// computed client-side. The attached oracle update is not consulted here;
// the contract still verifies it at settlement.
type CoinGeckoResolver struct {
	url        string
	httpClient *http.Client
}

func NewCoinGeckoResolver(url string) *CoinGeckoResolver {
	return &CoinGeckoResolver{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CoinGeckoResolver) ResolvePayment(ctx context.Context, priceUsd *big.Int, _ [][]byte) (*big.Int, error) {
	rate, err := c.fetchRate(ctx)
	if err != nil {
		return nil, err
	}
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s USD/ETH", ErrInvalidRate, rate.FloatString(2))
	}

	// payment = priceUsd / 10^8 / rate * 10^18, rounded at wei precision
	payment := new(big.Rat).SetFrac(new(big.Int).Mul(priceUsd, weiPerUsdUnit), big.NewInt(1))
	payment.Quo(payment, rate)
	return roundRat(payment), nil
}

// fetchRate parses the rate as a rational straight from the JSON number so
// no float precision is lost before rounding.
func (c *CoinGeckoResolver) fetchRate(ctx context.Context) (*big.Rat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint returned status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body struct {
		Ethereum struct {
			USD json.Number `json:"usd"`
		} `json:"ethereum"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRateUnavailable, err)
	}
	if body.Ethereum.USD == "" {
		return nil, fmt.Errorf("%w: no usd rate for ethereum in response", ErrRateUnavailable)
	}

	rate, ok := new(big.Rat).SetString(body.Ethereum.USD.String())
	if !ok {
		return nil, fmt.Errorf("%w: unparsable rate %q", ErrRateUnavailable, body.Ethereum.USD)
	}
	return rate, nil
}
