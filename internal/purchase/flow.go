// Package purchase orchestrates one purchase attempt end to end: read the
// listing, fetch a fresh oracle attestation, resolve the wei payment, and
// submit the settlement transaction.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/oramarket/marketplace-backend/internal/marketplace"
	"github.com/oramarket/marketplace-backend/internal/pricing"
)

// State names the stage a purchase attempt is in. Stages are strictly
// sequential; each one's output feeds the next.
type State string

const (
	StateIdle           State = "idle"
	StateReadingListing State = "reading_listing"
	StateFetchingOracle State = "fetching_oracle"
	StateResolvingPrice State = "resolving_price"
	StateSubmitting     State = "submitting"
	StateConfirming     State = "confirming"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Receipt is the outcome of a finalized, successful purchase.
type Receipt struct {
	ListingID   uint64   `json:"listingId"`
	TxHash      string   `json:"txHash"`
	BlockNumber uint64   `json:"blockNumber"`
	GasUsed     uint64   `json:"gasUsed"`
	PaymentWei  *big.Int `json:"paymentWei"`
}

// OracleSource fetches a signed attestation bundle for a price feed.
type OracleSource interface {
	FetchUpdateData(ctx context.Context, feedID string) ([][]byte, error)
}

// Ledger is the marketplace contract surface the flow needs.
type Ledger interface {
	Listing(ctx context.Context, id uint64) (*marketplace.Listing, error)
	Buy(ctx context.Context, id uint64, update [][]byte, valueWei *big.Int) (*marketplace.SaleReceipt, error)
}

// Notifier announces purchase outcomes out of band. May be nil.
type Notifier interface {
	Send(msg string)
}

type Flow struct {
	oracle   OracleSource
	ledger   Ledger
	resolver pricing.Resolver
	feedID   string
	notify   Notifier
}

func NewFlow(oracle OracleSource, ledger Ledger, resolver pricing.Resolver, feedID string, notify Notifier) *Flow {
	return &Flow{
		oracle:   oracle,
		ledger:   ledger,
		resolver: resolver,
		feedID:   feedID,
		notify:   notify,
	}
}

// Purchase runs one attempt for the given listing. All attempt state
// (attestation, computed payment) lives on this call's stack and dies with
// it: price data is time-sensitive and nothing may leak across attempts.
//
// The listing is read before anything else so a sold or missing listing
// fails without paying for oracle or rate round-trips. Cancellation via
// ctx aborts any stage up to submission; once the transaction is sent the
// finality wait cannot be interrupted.
func (f *Flow) Purchase(ctx context.Context, listingID uint64) (*Receipt, error) {
	listing, err := f.ledger.Listing(ctx, listingID)
	if err != nil {
		return nil, f.fail(StateReadingListing, listingID, err)
	}
	if listing.Sold {
		return nil, f.fail(StateReadingListing, listingID,
			fmt.Errorf("%w: listing %d already sold", marketplace.ErrListingUnavailable, listingID))
	}

	if err := ctx.Err(); err != nil {
		return nil, f.fail(StateFetchingOracle, listingID, err)
	}
	update, err := f.oracle.FetchUpdateData(ctx, f.feedID)
	if err != nil {
		return nil, f.fail(StateFetchingOracle, listingID, err)
	}

	payment, err := f.resolver.ResolvePayment(ctx, listing.PriceUsd, update)
	if err != nil {
		return nil, f.fail(StateResolvingPrice, listingID, err)
	}
	if payment.Sign() <= 0 {
		// a zero-value purchase would be underfunded on settlement
		return nil, f.fail(StateResolvingPrice, listingID,
			fmt.Errorf("%w: resolved payment %s wei", pricing.ErrInvalidRate, payment))
	}

	// last cancellation point: after this, funds may be committed
	if err := ctx.Err(); err != nil {
		return nil, f.fail(StateSubmitting, listingID, err)
	}

	sale, err := f.ledger.Buy(ctx, listingID, update, payment)
	if err != nil {
		return nil, f.fail(StateSubmitting, listingID, err)
	}

	receipt := &Receipt{
		ListingID:   listingID,
		TxHash:      sale.TxHash.Hex(),
		BlockNumber: sale.BlockNumber,
		GasUsed:     sale.GasUsed,
		PaymentWei:  payment,
	}

	fmt.Printf("[FLOW] listing %d purchased: %s (%s wei, block %d)\n",
		listingID, receipt.TxHash, payment, sale.BlockNumber)
	if f.notify != nil {
		f.notify.Send(fmt.Sprintf("Purchased listing %d for %s wei (tx %s)", listingID, payment, receipt.TxHash))
	}
	return receipt, nil
}

func (f *Flow) fail(state State, listingID uint64, err error) error {
	kind := classify(state, err)
	if errors.Is(err, marketplace.ErrReverted) || errors.Is(err, marketplace.ErrConfirmTimeout) {
		state = StateConfirming
	}

	fmt.Printf("[FLOW] listing %d failed in %s: %v\n", listingID, state, err)
	if f.notify != nil {
		f.notify.Send(fmt.Sprintf("Purchase of listing %d failed (%s): %v", listingID, kind, err))
	}
	return &Error{Kind: kind, State: state, Err: err}
}
