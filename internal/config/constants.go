package config

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/set-night/earnhub/internal/domain"
)

const (
	// Withdrawals
	MinWithdrawalPoints       = 1000
	DailyWithdrawalLimit      = 100_000
	WithdrawalResolveCurrency = "USDT"

	// Referral bonus credited to the referrer on registration (points)
	ReferralRegistrationBonus = 100

	// Auth
	InitDataMaxAge = 24 * time.Hour

	// Rate limits (requests per minute per account)
	RateLimitPerMinute = 60
	RateLimitWindow    = time.Minute

	// Partner HTTP client
	PartnerRequestTimeout = 30 * time.Second

	// Server timeouts
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
)

// PointsPerUSDT is the ledger conversion rate: 1000 points = 1 USDT.
var PointsPerUSDT = decimal.NewFromInt(1000)

// WithdrawalFeePercent is applied to the converted amount, floored at
// MinWithdrawalFee.
var (
	WithdrawalFeePercent = decimal.NewFromFloat(0.05)
	MinWithdrawalFee     = decimal.NewFromFloat(0.5)
)

// NetworkFees per settlement currency, in currency units.
var NetworkFees = map[domain.WithdrawalCurrency]decimal.Decimal{
	domain.CurrencyUSDTTRC20: decimal.NewFromFloat(1.0),
	domain.CurrencyUSDTBEP20: decimal.NewFromFloat(0.3),
	domain.CurrencyTON:       decimal.NewFromFloat(0.05),
}

// CheckInRewards by streak day, capped at day 7.
var CheckInRewards = []int64{10, 20, 30, 50, 70, 100, 150}
