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

// UNU reports task conversions with an md5(user + sum + secret) sign and a
// textual status field.
type UNU struct {
	apiKey  string
	secret  string
	baseURL string
	client  *http.Client
}

func NewUNU(apiKey, secret, baseURL string, client *http.Client) *UNU {
	return &UNU{apiKey: apiKey, secret: secret, baseURL: baseURL, client: client}
}

func (u *UNU) Name() string { return "unu" }

func (u *UNU) FetchOffers(ctx context.Context) ([]Offer, error) {
	var resp struct {
		Tasks []struct {
			ID          int64   `json:"id"`
			Name        string  `json:"name"`
			Description string  `json:"descr"`
			URL         string  `json:"url"`
			PriceUser   float64 `json:"price_user"`
		} `json:"tasks"`
	}

	endpoint := fmt.Sprintf("%s/?action=get_tasks&api_key=%s", u.baseURL, url.QueryEscape(u.apiKey))
	if err := getJSON(ctx, u.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("unu tasks: %w", err)
	}

	offers := make([]Offer, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		offers = append(offers, Offer{
			Partner:     u.Name(),
			ExternalID:  fmt.Sprintf("%d", t.ID),
			Title:       t.Name,
			Description: t.Description,
			URL:         t.URL,
			Payout:      decimal.NewFromFloat(t.PriceUser),
		})
	}
	return offers, nil
}

func (u *UNU) ParsePostback(values url.Values) (*Postback, error) {
	if u.secret == "" {
		return nil, fmt.Errorf("%w: unu postback secret not configured", domain.ErrInvalidSignature)
	}

	user := values.Get("user")
	sumParam := values.Get("sum")

	sign := md5.Sum([]byte(user + sumParam + u.secret))
	if !hmac.Equal([]byte(values.Get("sign")), []byte(hex.EncodeToString(sign[:]))) {
		return nil, domain.ErrInvalidSignature
	}

	trackingID, err := uuid.Parse(user)
	if err != nil {
		return nil, fmt.Errorf("parse user: %w", err)
	}
	payout, _ := decimal.NewFromString(sumParam)

	return &Postback{
		TrackingID: trackingID,
		Approved:   values.Get("status") == "approved",
		Payout:     payout,
		Reason:     values.Get("comment"),
	}, nil
}
