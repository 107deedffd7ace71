package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Price resolution strategies. Exactly one is active per deployment.
const (
	PriceSourceExternal = "external" // client-side CoinGecko rate
	PriceSourceOnChain  = "onchain"  // contract-side Pyth rate
)

type Config struct {
	// Chain
	RPCURL             string  `envconfig:"RPC_URL" required:"true"`
	ChainID            int64   `envconfig:"CHAIN_ID" default:"11155111"`
	PrivateKey         string  `envconfig:"PRIVATE_KEY" required:"true"`
	MarketplaceAddress string  `envconfig:"MARKETPLACE_ADDRESS" default:"0x0A8C98cF8AD37c87fc1dE3615Dc0f0385A7b242f"`
	GasLimit           uint64  `envconfig:"GAS_LIMIT" default:"500000"`
	GasMultiplier      float64 `envconfig:"GAS_MULTIPLIER" default:"1.2"`

	// Oracle
	HermesURL   string `envconfig:"HERMES_URL" default:"https://hermes.pyth.network/v2/updates/price/latest"`
	PriceFeedID string `envconfig:"PRICE_FEED_ID" default:"0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"`

	// Pricing
	PriceSource  string `envconfig:"PRICE_SOURCE" default:"external"`
	CoinGeckoURL string `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd"`

	// Settlement
	ConfirmTimeoutSeconds int `envconfig:"CONFIRM_TIMEOUT_SECONDS" default:"180"`

	// API
	APIPort         int    `envconfig:"API_PORT" default:"3001"`
	APIKey          string `envconfig:"API_KEY"`
	CORSAllowOrigin string `envconfig:"CORS_ALLOW_ORIGIN" default:"*"`

	// Notifications
	WebhookURL  string `envconfig:"WEBHOOK_URL"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"MarketplaceBuyer"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if !common.IsHexAddress(c.MarketplaceAddress) {
		errs = append(errs, fmt.Sprintf("MARKETPLACE_ADDRESS %q is not a valid address", c.MarketplaceAddress))
	}

	pk := strings.TrimPrefix(c.PrivateKey, "0x")
	if len(pk) != 64 || !isHex(pk) {
		errs = append(errs, "PRIVATE_KEY must be a 64-character hex string")
	}

	feed := strings.TrimPrefix(c.PriceFeedID, "0x")
	if len(feed) != 64 || !isHex(feed) {
		errs = append(errs, fmt.Sprintf("PRICE_FEED_ID %q must be a 64-character hex feed id", c.PriceFeedID))
	}

	switch c.PriceSource {
	case PriceSourceExternal, PriceSourceOnChain:
	default:
		errs = append(errs, fmt.Sprintf("PRICE_SOURCE %q must be %q or %q",
			c.PriceSource, PriceSourceExternal, PriceSourceOnChain))
	}

	if c.ConfirmTimeoutSeconds <= 0 {
		errs = append(errs, "CONFIRM_TIMEOUT_SECONDS must be positive")
	}

	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Marketplace Purchase Backend Configuration ===")
	fmt.Printf("Chain ID: %d\n", c.ChainID)
	fmt.Printf("Marketplace: %s...\n", truncAddr(c.MarketplaceAddress))
	fmt.Printf("Price Feed: %s...\n", truncAddr(c.PriceFeedID))
	fmt.Printf("Price Source: %s\n", c.PriceSource)
	if c.PriceSource == PriceSourceExternal {
		fmt.Printf("Rate Endpoint: %s\n", c.CoinGeckoURL)
	}
	fmt.Printf("Hermes: %s\n", c.HermesURL)
	fmt.Printf("Confirm Timeout: %ds\n", c.ConfirmTimeoutSeconds)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("==================================================")
}

// --- helpers ---

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

func truncAddr(addr string) string {
	if len(addr) > 10 {
		return addr[:10]
	}
	return addr
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
