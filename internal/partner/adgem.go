package partner

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/set-night/earnhub/internal/domain"
)

// AdGem postbacks carry player_id (our tracking id), amount, status and an
// HMAC-SHA256 signature over "player_id:amount:status".
type AdGem struct {
	appID   string
	secret  string
	baseURL string
	client  *http.Client
}

func NewAdGem(appID, secret, baseURL string, client *http.Client) *AdGem {
	return &AdGem{appID: appID, secret: secret, baseURL: baseURL, client: client}
}

func (a *AdGem) Name() string { return "adgem" }

func (a *AdGem) FetchOffers(ctx context.Context) ([]Offer, error) {
	var resp struct {
		Data struct {
			Offers []struct {
				CampaignID   int64    `json:"campaign_id"`
				Name         string   `json:"name"`
				Instructions string   `json:"instructions"`
				TrackingURL  string   `json:"tracking_url"`
				Amount       int64    `json:"amount"`
				Payout       float64  `json:"payout"`
				Countries    []string `json:"countries"`
			} `json:"offers"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/wall?appid=%s", a.baseURL, url.QueryEscape(a.appID))
	if err := getJSON(ctx, a.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("adgem wall: %w", err)
	}

	offers := make([]Offer, 0, len(resp.Data.Offers))
	for _, o := range resp.Data.Offers {
		offers = append(offers, Offer{
			Partner:     a.Name(),
			ExternalID:  strconv.FormatInt(o.CampaignID, 10),
			Title:       o.Name,
			Description: o.Instructions,
			URL:         o.TrackingURL,
			Reward:      o.Amount,
			Payout:      decimal.NewFromFloat(o.Payout),
			Countries:   o.Countries,
		})
	}
	return offers, nil
}

func (a *AdGem) ParsePostback(values url.Values) (*Postback, error) {
	if a.secret == "" {
		return nil, fmt.Errorf("%w: adgem postback secret not configured", domain.ErrInvalidSignature)
	}

	playerID := values.Get("player_id")
	amount := values.Get("amount")
	status := values.Get("status")
	signature := values.Get("signature")

	mac := hmac.New(sha256.New, []byte(a.secret))
	fmt.Fprintf(mac, "%s:%s:%s", playerID, amount, status)
	if !hmac.Equal([]byte(signature), []byte(hex.EncodeToString(mac.Sum(nil)))) {
		return nil, domain.ErrInvalidSignature
	}

	trackingID, err := uuid.Parse(playerID)
	if err != nil {
		return nil, fmt.Errorf("parse player_id: %w", err)
	}
	payout, _ := decimal.NewFromString(values.Get("payout"))

	return &Postback{
		TrackingID: trackingID,
		Approved:   status != "0" && status != "chargeback",
		Payout:     payout,
		Reason:     values.Get("reason"),
	}, nil
}
