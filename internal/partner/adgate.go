package partner

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/set-night/earnhub/internal/domain"
)

// AdGate signs postbacks with md5(s1 + point_value + secret); the tracking
// id travels in the s1 subid slot.
type AdGate struct {
	wallID  string
	secret  string
	baseURL string
	client  *http.Client
}

func NewAdGate(wallID, secret, baseURL string, client *http.Client) *AdGate {
	return &AdGate{wallID: wallID, secret: secret, baseURL: baseURL, client: client}
}

func (a *AdGate) Name() string { return "adgate" }

func (a *AdGate) FetchOffers(ctx context.Context) ([]Offer, error) {
	var resp struct {
		Data []struct {
			ID          int64    `json:"id"`
			Name        string   `json:"name"`
			Description string   `json:"description"`
			ClickURL    string   `json:"click_url"`
			Points      int64    `json:"points"`
			Payout      string   `json:"payout"`
			Countries   []string `json:"countries"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/vcs/%s/offers", a.baseURL, url.PathEscape(a.wallID))
	if err := getJSON(ctx, a.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("adgate offers: %w", err)
	}

	offers := make([]Offer, 0, len(resp.Data))
	for _, o := range resp.Data {
		payout, _ := decimal.NewFromString(o.Payout)
		offers = append(offers, Offer{
			Partner:     a.Name(),
			ExternalID:  fmt.Sprintf("%d", o.ID),
			Title:       o.Name,
			Description: o.Description,
			URL:         o.ClickURL,
			Reward:      o.Points,
			Payout:      payout,
			Countries:   o.Countries,
		})
	}
	return offers, nil
}

func (a *AdGate) ParsePostback(values url.Values) (*Postback, error) {
	if a.secret == "" {
		return nil, fmt.Errorf("%w: adgate postback secret not configured", domain.ErrInvalidSignature)
	}

	s1 := values.Get("s1")
	pointValue := values.Get("point_value")

	sum := md5.Sum([]byte(s1 + pointValue + a.secret))
	if !hmac.Equal([]byte(values.Get("hash")), []byte(hex.EncodeToString(sum[:]))) {
		return nil, domain.ErrInvalidSignature
	}

	trackingID, err := uuid.Parse(s1)
	if err != nil {
		return nil, fmt.Errorf("parse s1: %w", err)
	}
	payout, _ := decimal.NewFromString(values.Get("payout"))

	return &Postback{
		TrackingID: trackingID,
		Approved:   values.Get("status") != "0",
		Payout:     payout,
		Reason:     values.Get("reason"),
	}, nil
}
