// Package partner integrates external offer networks. Each network exposes
// the same two surfaces: an offer feed pulled over HTTP and a server-to-
// server postback reporting a conversion. Adapters normalize both into the
// shapes the catalog and completion services consume.
package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offer is the normalized view of one partner offer.
type Offer struct {
	Partner     string
	ExternalID  string
	Title       string
	Description string
	URL         string
	Reward      int64 // points, 0 when the partner reports money only
	Payout      decimal.Decimal
	Countries   []string
}

// Postback is the normalized view of a conversion signal:
// {trackingID, approved|rejected, payout}.
type Postback struct {
	TrackingID uuid.UUID
	Approved   bool
	Payout     decimal.Decimal
	Reason     string
}

// Adapter is one partner network.
type Adapter interface {
	Name() string
	FetchOffers(ctx context.Context) ([]Offer, error)
	// ParsePostback validates the partner's signature and extracts the
	// normalized conversion. Unverifiable postbacks (bad signature or no
	// secret configured) are rejected, never trusted.
	ParsePostback(values url.Values) (*Postback, error)
}

// NewHTTPClient returns the client adapters share.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
