// Package marketplace binds the on-chain marketplace contract: reading
// listings, reading the contract's Pyth-verified ETH price, and submitting
// the purchase transaction.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UsdDecimals is the fixed-point scale of listing prices and of the
// contract's USD/ETH rate (price 500000000 means $5.00).
const UsdDecimals = 8

var (
	// ErrListingUnavailable means the listing does not exist or is
	// already sold; the purchase cannot succeed.
	ErrListingUnavailable = errors.New("listing unavailable")

	// ErrSubmissionRejected means the network refused the transaction
	// before inclusion (bad nonce, insufficient funds, underpriced).
	ErrSubmissionRejected = errors.New("transaction rejected by network")

	// ErrReverted means the transaction was mined but the contract
	// rejected execution (stale update, listing sold, value mismatch).
	ErrReverted = errors.New("transaction reverted")

	// ErrConfirmTimeout means the transaction was broadcast but no
	// receipt appeared within the confirmation window. Funds may still
	// settle; the caller must check the chain before retrying.
	ErrConfirmTimeout = errors.New("confirmation timed out")
)

type Listing struct {
	ID           uint64
	AmountTokens *big.Int
	PriceUsd     *big.Int // fixed-point, UsdDecimals
	Seller       common.Address
	Sold         bool
}

// SaleReceipt describes a finalized purchase transaction.
type SaleReceipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// Backend is the subset of the chain client the marketplace needs.
type Backend interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	SignAndSend(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type Marketplace struct {
	backend        Backend
	addr           common.Address
	abi            abi.ABI
	confirmTimeout time.Duration
}

func New(backend Backend, addr string, confirmTimeout time.Duration) (*Marketplace, error) {
	parsed, err := abi.JSON(marketplaceABI())
	if err != nil {
		return nil, fmt.Errorf("parse marketplace ABI: %w", err)
	}
	return &Marketplace{
		backend:        backend,
		addr:           common.HexToAddress(addr),
		abi:            parsed,
		confirmTimeout: confirmTimeout,
	}, nil
}

// Listing reads listing state from the contract. A zero seller address
// means the slot was never written: the listing does not exist.
func (m *Marketplace) Listing(ctx context.Context, id uint64) (*Listing, error) {
	data, err := m.abi.Pack("listings", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, fmt.Errorf("pack listings call: %w", err)
	}

	raw, err := m.backend.CallContract(ctx, m.addr, data)
	if err != nil {
		return nil, fmt.Errorf("read listing %d: %w", id, err)
	}

	out, err := m.abi.Unpack("listings", raw)
	if err != nil {
		return nil, fmt.Errorf("decode listing %d: %w", id, err)
	}

	l := &Listing{
		ID:           id,
		AmountTokens: out[0].(*big.Int),
		PriceUsd:     out[1].(*big.Int),
		Seller:       out[2].(common.Address),
		Sold:         out[3].(bool),
	}

	if l.Seller == (common.Address{}) {
		return nil, fmt.Errorf("%w: listing %d does not exist", ErrListingUnavailable, id)
	}
	return l, nil
}

// LatestEthPrice asks the contract to read the USD-per-ETH rate from the
// attached Pyth update. Returns a fixed-point value at UsdDecimals.
func (m *Marketplace) LatestEthPrice(ctx context.Context, update [][]byte) (*big.Int, error) {
	data, err := m.abi.Pack("getLatestEthPrice", update)
	if err != nil {
		return nil, fmt.Errorf("pack getLatestEthPrice call: %w", err)
	}

	raw, err := m.backend.CallContract(ctx, m.addr, data)
	if err != nil {
		return nil, fmt.Errorf("getLatestEthPrice call: %w", err)
	}

	out, err := m.abi.Unpack("getLatestEthPrice", raw)
	if err != nil {
		return nil, fmt.Errorf("decode getLatestEthPrice result: %w", err)
	}
	return out[0].(*big.Int), nil
}

// Buy submits buyListing(listingId, priceUpdate) carrying valueWei as the
// transaction value, then blocks until the transaction is mined. The
// update and the value must come from the same purchase attempt: the
// contract verifies both together, and a value computed against a
// different update is a correctness violation.
//
// Buy is not idempotent. A second call for the same listing is an
// independent attempt and a double-payment risk; callers must confirm the
// outcome of the first attempt before retrying.
func (m *Marketplace) Buy(ctx context.Context, id uint64, update [][]byte, valueWei *big.Int) (*SaleReceipt, error) {
	data, err := m.abi.Pack("buyListing", new(big.Int).SetUint64(id), update)
	if err != nil {
		return nil, fmt.Errorf("pack buyListing call: %w", err)
	}

	hash, err := m.backend.SignAndSend(ctx, m.addr, valueWei, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	fmt.Printf("[MARKET] buyListing(%d) submitted: %s (value %s wei)\n", id, hash.Hex(), valueWei.String())

	// Once broadcast, funds may already be committed: the finality wait
	// must survive caller cancellation and only gives up on its own
	// confirmation window.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.confirmTimeout)
	defer cancel()

	receipt, err := m.backend.WaitMined(waitCtx, hash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tx %s unconfirmed after %s", ErrConfirmTimeout, hash.Hex(), m.confirmTimeout)
		}
		return nil, fmt.Errorf("%w: tx %s: %v", ErrConfirmTimeout, hash.Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: tx %s", ErrReverted, hash.Hex())
	}

	return &SaleReceipt{
		TxHash:      hash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}
