package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/oramarket/marketplace-backend/internal/marketplace"
)

type listingJSON struct {
	ID           uint64 `json:"id"`
	AmountTokens string `json:"amountTokens"`
	PriceUsd     string `json:"priceUsd"`
	Seller       string `json:"seller"`
	Sold         bool   `json:"sold"`
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.listings.Listing(r.Context(), id)
	if err != nil {
		if errors.Is(err, marketplace.ErrListingUnavailable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		fmt.Printf("[API] error reading listing %d: %v\n", id, err)
		writeError(w, http.StatusBadGateway, "failed to read listing")
		return
	}

	writeJSON(w, http.StatusOK, listingJSON{
		ID:           listing.ID,
		AmountTokens: listing.AmountTokens.String(),
		PriceUsd:     listing.PriceUsd.String(),
		Seller:       listing.Seller.Hex(),
		Sold:         listing.Sold,
	})
}
