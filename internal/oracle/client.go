// Package oracle fetches signed price attestations from a Pyth hermes
// endpoint. Attestations are time-bounded and go stale quickly, so callers
// fetch a fresh bundle per purchase attempt and never cache the result.
package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMalformedResponse marks a 2xx response whose body does not carry the
// expected binary update array.
var ErrMalformedResponse = errors.New("oracle response missing binary update data")

// StatusError is returned for any non-2xx response from hermes.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle returned status %d", e.Code)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// hermes response shape; only the binary section is trusted.
type updateResponse struct {
	Binary struct {
		Data []string `json:"data"`
	} `json:"binary"`
}

// FetchUpdateData returns the latest signed update blobs for the given
// price feed id, each ready to pass to the marketplace contract for
// on-chain verification. No retries: a failed fetch fails the whole
// purchase attempt and the caller starts over with a fresh bundle.
func (c *Client) FetchUpdateData(ctx context.Context, feedID string) ([][]byte, error) {
	params := url.Values{}
	params.Add("ids[]", feedID)
	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var body updateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(body.Binary.Data) == 0 {
		return nil, ErrMalformedResponse
	}

	updates := make([][]byte, len(body.Binary.Data))
	for i, item := range body.Binary.Data {
		blob, err := hex.DecodeString(strings.TrimPrefix(item, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: update %d is not hex", ErrMalformedResponse, i)
		}
		updates[i] = blob
	}
	return updates, nil
}
