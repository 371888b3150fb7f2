package partner

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/set-night/earnhub/internal/domain"
)

// CPALead authenticates postbacks with a shared password parameter instead
// of a computed signature.
type CPALead struct {
	appID   string
	secret  string
	baseURL string
	client  *http.Client
}

func NewCPALead(appID, secret, baseURL string, client *http.Client) *CPALead {
	return &CPALead{appID: appID, secret: secret, baseURL: baseURL, client: client}
}

func (c *CPALead) Name() string { return "cpalead" }

func (c *CPALead) FetchOffers(ctx context.Context) ([]Offer, error) {
	var resp struct {
		Offers []struct {
			ID          string  `json:"id"`
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Link        string  `json:"link"`
			Amount      string  `json:"amount"`
			Payout      float64 `json:"payout"`
			Country     string  `json:"country"`
		} `json:"offers"`
	}

	endpoint := fmt.Sprintf("%s/offers?id=%s&format=json", c.baseURL, url.QueryEscape(c.appID))
	if err := getJSON(ctx, c.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("cpalead offers: %w", err)
	}

	offers := make([]Offer, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		var countries []string
		if o.Country != "" {
			countries = strings.Split(o.Country, ",")
		}
		reward, _ := decimal.NewFromString(o.Amount)
		offers = append(offers, Offer{
			Partner:     c.Name(),
			ExternalID:  o.ID,
			Title:       o.Title,
			Description: o.Description,
			URL:         o.Link,
			Reward:      reward.Floor().IntPart(),
			Payout:      decimal.NewFromFloat(o.Payout),
			Countries:   countries,
		})
	}
	return offers, nil
}

func (c *CPALead) ParsePostback(values url.Values) (*Postback, error) {
	if c.secret == "" {
		return nil, fmt.Errorf("%w: cpalead postback password not configured", domain.ErrInvalidSignature)
	}
	if subtle.ConstantTimeCompare([]byte(values.Get("password")), []byte(c.secret)) != 1 {
		return nil, domain.ErrInvalidSignature
	}

	trackingID, err := uuid.Parse(values.Get("subid"))
	if err != nil {
		return nil, fmt.Errorf("parse subid: %w", err)
	}
	payout, _ := decimal.NewFromString(values.Get("payout"))

	// CPALead reports chargebacks with a negative virtual currency amount.
	approved := !strings.HasPrefix(values.Get("virtual_currency"), "-")

	return &Postback{
		TrackingID: trackingID,
		Approved:   approved,
		Payout:     payout,
		Reason:     values.Get("reason"),
	}, nil
}
