package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/oramarket/marketplace-backend/internal/purchase"
)

type purchaseErrorJSON struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.acquireListing(id) {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("a purchase of listing %d is already in progress", id))
		return
	}
	defer s.releaseListing(id)

	receipt, err := s.purchaser.Purchase(r.Context(), id)
	if err != nil {
		var pErr *purchase.Error
		if errors.As(err, &pErr) {
			writeJSON(w, statusForKind(pErr.Kind), purchaseErrorJSON{
				Error:  "purchase failed",
				Kind:   string(pErr.Kind),
				Detail: pErr.Err.Error(),
			})
			return
		}
		fmt.Printf("[API] unclassified purchase error for listing %d: %v\n", id, err)
		writeError(w, http.StatusInternalServerError, "purchase failed")
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// statusForKind separates "try again later" failures (upstream trouble,
// 5xx) from "this purchase cannot succeed" (ledger state, 4xx).
func statusForKind(kind purchase.Kind) int {
	switch kind {
	case purchase.KindListingUnavailable:
		return http.StatusNotFound
	case purchase.KindTransactionReverted:
		return http.StatusConflict
	case purchase.KindCancelled:
		return http.StatusRequestTimeout
	case purchase.KindOracleUnavailable,
		purchase.KindOracleMalformedResponse,
		purchase.KindRateUnavailable,
		purchase.KindOnChainReadFailed,
		purchase.KindInvalidRate:
		return http.StatusBadGateway
	case purchase.KindSubmissionRejected, purchase.KindConfirmationTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
