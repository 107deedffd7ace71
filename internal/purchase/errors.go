package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/oramarket/marketplace-backend/internal/marketplace"
	"github.com/oramarket/marketplace-backend/internal/oracle"
	"github.com/oramarket/marketplace-backend/internal/pricing"
)

// Kind distinguishes failure classes so the UI can tell "try again later"
// (transient oracle/rate trouble) from "this purchase cannot succeed"
// (listing gone, contract rejected settlement).
type Kind string

const (
	KindOracleUnavailable       Kind = "oracle_unavailable"
	KindOracleMalformedResponse Kind = "oracle_malformed_response"
	KindRateUnavailable         Kind = "rate_unavailable"
	KindOnChainReadFailed       Kind = "onchain_read_failed"
	KindInvalidRate             Kind = "invalid_rate"
	KindListingUnavailable      Kind = "listing_unavailable"
	KindSubmissionRejected      Kind = "submission_rejected"
	KindTransactionReverted     Kind = "transaction_reverted"
	KindConfirmationTimeout     Kind = "confirmation_timeout"
	KindCancelled               Kind = "cancelled"
)

// Error is a terminal purchase failure: the attempt is over and any retry
// is a fresh attempt with a fresh attestation.
type Error struct {
	Kind  Kind
	State State // state in which the attempt failed
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("purchase failed in %s (%s): %v", e.State, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps component errors onto kinds; the failing state decides
// ambiguous cases such as plain transport errors.
func classify(state State, err error) Kind {
	var statusErr *oracle.StatusError

	switch {
	case errors.As(err, &statusErr):
		return KindOracleUnavailable
	case errors.Is(err, oracle.ErrMalformedResponse):
		return KindOracleMalformedResponse
	case errors.Is(err, pricing.ErrRateUnavailable):
		return KindRateUnavailable
	case errors.Is(err, pricing.ErrChainReadFailed):
		return KindOnChainReadFailed
	case errors.Is(err, pricing.ErrInvalidRate):
		return KindInvalidRate
	case errors.Is(err, marketplace.ErrListingUnavailable):
		return KindListingUnavailable
	case errors.Is(err, marketplace.ErrSubmissionRejected):
		return KindSubmissionRejected
	case errors.Is(err, marketplace.ErrReverted):
		return KindTransactionReverted
	case errors.Is(err, marketplace.ErrConfirmTimeout):
		return KindConfirmationTimeout
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}

	switch state {
	case StateFetchingOracle:
		return KindOracleUnavailable
	case StateReadingListing:
		return KindOnChainReadFailed
	case StateResolvingPrice:
		return KindRateUnavailable
	default:
		return KindSubmissionRejected
	}
}
