package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oramarket/marketplace-backend/internal/api"
	"github.com/oramarket/marketplace-backend/internal/config"
	"github.com/oramarket/marketplace-backend/internal/ethereum"
	"github.com/oramarket/marketplace-backend/internal/marketplace"
	"github.com/oramarket/marketplace-backend/internal/notifications"
	"github.com/oramarket/marketplace-backend/internal/oracle"
	"github.com/oramarket/marketplace-backend/internal/pricing"
	"github.com/oramarket/marketplace-backend/internal/purchase"
)

const banner = `
╔══════════════════════════════════════╗
║   Marketplace Purchase Backend v0.1  ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Chain client
	client, err := ethereum.NewClient(cfg.RPCURL, cfg.PrivateKey, cfg.ChainID, cfg.GasLimit, cfg.GasMultiplier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CHAIN] Client setup failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Printf("[CHAIN] Wallet: %s\n", client.WalletAddress().Hex())

	market, err := marketplace.New(client, cfg.MarketplaceAddress,
		time.Duration(cfg.ConfirmTimeoutSeconds)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CHAIN] Marketplace setup failed: %v\n", err)
		os.Exit(1)
	}

	// Price resolver, one strategy per deployment
	var resolver pricing.Resolver
	switch cfg.PriceSource {
	case config.PriceSourceOnChain:
		resolver = pricing.NewChainResolver(market)
	default:
		resolver = pricing.NewCoinGeckoResolver(cfg.CoinGeckoURL)
	}

	notify := notifications.NewSender(cfg.WebhookURL, cfg.ServiceName)

	flow := purchase.NewFlow(
		oracle.NewClient(cfg.HermesURL),
		market,
		resolver,
		cfg.PriceFeedID,
		notify,
	)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(flow, market, client, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	fmt.Println("\nService started successfully")

	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	// in-flight purchases past submission keep waiting for finality
	// inside their own confirmation window
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ConfirmTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
