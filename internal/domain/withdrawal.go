package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalFailed     WithdrawalStatus = "failed"
	WithdrawalCancelled  WithdrawalStatus = "cancelled"
)

type WithdrawalCurrency string

const (
	CurrencyUSDTTRC20 WithdrawalCurrency = "usdt_trc20"
	CurrencyUSDTBEP20 WithdrawalCurrency = "usdt_bep20"
	CurrencyTON       WithdrawalCurrency = "ton"
)

var walletPatterns = map[WithdrawalCurrency]*regexp.Regexp{
	CurrencyUSDTTRC20: regexp.MustCompile(`^T[A-Za-z1-9]{33}$`),
	CurrencyUSDTBEP20: regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`),
	CurrencyTON:       regexp.MustCompile(`^(?:EQ|UQ)[A-Za-z0-9_-]{46}$`),
}

// ValidWalletAddress checks the address against the currency-specific
// format. Unknown currencies never validate.
func ValidWalletAddress(currency WithdrawalCurrency, address string) bool {
	re, ok := walletPatterns[currency]
	if !ok {
		return false
	}
	return re.MatchString(address)
}

type WithdrawalRequest struct {
	ID              int64
	Reference       uuid.UUID
	AccountID       int64
	AmountRequested int64
	Currency        WithdrawalCurrency
	WalletAddress   string
	ConversionRate  decimal.Decimal
	FeePercent      decimal.Decimal
	NetworkFee      decimal.Decimal
	FinalAmount     decimal.Decimal
	Status          WithdrawalStatus
	TxReference     string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

// WithdrawalQuote holds the fee-adjusted settlement amounts for a request.
type WithdrawalQuote struct {
	Amount      decimal.Decimal // requested points converted to currency units
	Fee         decimal.Decimal // percent fee (with floor) plus network fee
	FinalAmount decimal.Decimal
}

// QuoteWithdrawal converts requested points into settlement-currency units
// and applies fees. Returns ErrInsufficientNetAmount when nothing would be
// left to pay out; callers must not debit anything in that case.
func QuoteWithdrawal(amountRequested int64, rate, feePercent, minFee, networkFee decimal.Decimal) (WithdrawalQuote, error) {
	if amountRequested <= 0 {
		return WithdrawalQuote{}, ErrInvalidAmount
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return WithdrawalQuote{}, ErrInvalidAmount
	}

	amount := decimal.NewFromInt(amountRequested).Div(rate)
	fee := amount.Mul(feePercent)
	if fee.LessThan(minFee) {
		fee = minFee
	}
	fee = fee.Add(networkFee)
	final := amount.Sub(fee)

	if final.LessThanOrEqual(decimal.Zero) {
		return WithdrawalQuote{}, ErrInsufficientNetAmount
	}
	return WithdrawalQuote{Amount: amount, Fee: fee, FinalAmount: final}, nil
}
