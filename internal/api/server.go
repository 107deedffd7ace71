package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oramarket/marketplace-backend/internal/marketplace"
	"github.com/oramarket/marketplace-backend/internal/purchase"
)

// Purchaser runs one purchase attempt end to end.
type Purchaser interface {
	Purchase(ctx context.Context, listingID uint64) (*purchase.Receipt, error)
}

// ListingReader reads listing state from the contract.
type ListingReader interface {
	Listing(ctx context.Context, id uint64) (*marketplace.Listing, error)
}

// ChainPinger probes RPC liveness for the health endpoint.
type ChainPinger interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type Server struct {
	purchaser  Purchaser
	listings   ListingReader
	chain      ChainPinger
	httpServer *http.Server
	apiKey     string

	// one purchase attempt per listing at a time: two concurrent
	// attempts would race for the same ledger state and at most one
	// can win
	mu       sync.Mutex
	inflight map[uint64]bool
}

func NewServer(purchaser Purchaser, listings ListingReader, chain ChainPinger, port int, apiKey, corsOrigin string) *Server {
	s := &Server{
		purchaser: purchaser,
		listings:  listings,
		chain:     chain,
		apiKey:    apiKey,
		inflight:  make(map[uint64]bool),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/purchases/{id}", s.handlePurchase)
	mux.HandleFunc("GET /v1/listings/{id}", s.handleListing)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     handler,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: a purchase response is held open across the
		// finality wait, which can run minutes
	}

	return s
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- in-flight guard ---

func (s *Server) acquireListing(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[id] {
		return false
	}
	s.inflight[id] = true
	return true
}

func (s *Server) releaseListing(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// --- validation helpers ---

func parseListingID(r *http.Request) (uint64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid listing id %q, expected a non-negative integer", raw)
	}
	return id, nil
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
