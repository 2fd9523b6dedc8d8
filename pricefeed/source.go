package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	sdkmath "cosmossdk.io/math"
)

// Pair names a quoted market: the price of one Base unit in Quote units.
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Source serves spot or averaged prices for a pair.
type Source interface {
	Name() string
	Fetch(ctx context.Context, pair Pair) (sdkmath.LegacyDec, error)
}

// priceResponse is the wire shape both upstream endpoints speak.
type priceResponse struct {
	Price string `json:"price"`
}

// HTTPSource pulls quotes from an HTTP endpoint that answers
// GET {base}/prices/{pair.Base}/{pair.Quote} with {"price": "<dec>"}.
// Both the node's TWAP API and the external aggregator follow this shape.
type HTTPSource struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewHTTPSource builds a source for one upstream endpoint.
func NewHTTPSource(name, baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{name: name, baseURL: baseURL, client: client}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.name }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, pair Pair) (sdkmath.LegacyDec, error) {
	endpoint := fmt.Sprintf("%s/prices/%s/%s",
		s.baseURL, url.PathEscape(pair.Base), url.PathEscape(pair.Quote))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%s: build request: %w", s.name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sdkmath.LegacyDec{}, fmt.Errorf("%s: status %d for %s", s.name, resp.StatusCode, pair)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%s: decode response: %w", s.name, err)
	}

	price, err := sdkmath.LegacyNewDecFromStr(body.Price)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%s: parse price %q: %w", s.name, body.Price, err)
	}
	if !price.IsPositive() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%s: non-positive price %s for %s", s.name, price, pair)
	}
	return price, nil
}
