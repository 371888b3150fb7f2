package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidWalletAddress(t *testing.T) {
	tests := []struct {
		name     string
		currency WithdrawalCurrency
		address  string
		want     bool
	}{
		{"valid trc20", CurrencyUSDTTRC20, "TN4RyLb7GLSJPeCr6sUqNCM6iEHiBCmLe7", true},
		{"trc20 wrong prefix", CurrencyUSDTTRC20, "AN4RyLb7GLSJPeCr6sUqNCM6iEHiBCmLe7", false},
		{"trc20 too short", CurrencyUSDTTRC20, "TN4RyLb7GLSJ", false},
		{"trc20 contains zero", CurrencyUSDTTRC20, "TN0RyLb7GLSJPeCr6sUqNCM6iEHiBCmLe7", false},

		{"valid bep20", CurrencyUSDTBEP20, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", true},
		{"bep20 missing prefix", CurrencyUSDTBEP20, "742d35Cc6634C0532925a3b844Bc454e4438f44e", false},
		{"bep20 non-hex", CurrencyUSDTBEP20, "0x742d35Cc6634C0532925a3b844Bc454e4438fZZZ", false},
		{"bep20 too long", CurrencyUSDTBEP20, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e00", false},

		{"valid ton EQ", CurrencyTON, "EQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI", true},
		{"valid ton UQ", CurrencyTON, "UQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLNsz", true},
		{"ton wrong prefix", CurrencyTON, "AQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI", false},

		{"unknown currency", WithdrawalCurrency("doge"), "DDogecoinAddress", false},
		{"empty address", CurrencyUSDTTRC20, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidWalletAddress(tt.currency, tt.address); got != tt.want {
				t.Errorf("ValidWalletAddress(%s, %q) = %v, want %v", tt.currency, tt.address, got, tt.want)
			}
		})
	}
}

func TestQuoteWithdrawal(t *testing.T) {
	rate := decimal.NewFromInt(1000)
	feePercent := decimal.NewFromFloat(0.05)
	minFee := decimal.NewFromFloat(0.5)
	networkFee := decimal.NewFromFloat(1.0)

	tests := []struct {
		name      string
		amount    int64
		wantFee   string
		wantFinal string
	}{
		// 20 USDT: 5% = 1.0 beats the 0.5 floor.
		{"percent fee above floor", 20_000, "2", "18"},
		// 2 USDT: 5% = 0.1, the floor applies.
		{"fee floor applies", 2_000, "1.5", "0.5"},
		// 100 USDT straightforwardly.
		{"large amount", 100_000, "6", "94"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := QuoteWithdrawal(tt.amount, rate, feePercent, minFee, networkFee)
			if err != nil {
				t.Fatalf("QuoteWithdrawal: %v", err)
			}
			if quote.Fee.String() != tt.wantFee {
				t.Errorf("fee = %s, want %s", quote.Fee, tt.wantFee)
			}
			if quote.FinalAmount.String() != tt.wantFinal {
				t.Errorf("final = %s, want %s", quote.FinalAmount, tt.wantFinal)
			}
		})
	}
}

func TestQuoteWithdrawalErrors(t *testing.T) {
	rate := decimal.NewFromInt(1000)
	feePercent := decimal.NewFromFloat(0.05)
	minFee := decimal.NewFromFloat(0.5)
	networkFee := decimal.NewFromFloat(1.0)

	// 1.2 USDT minus 1.5 in fees leaves nothing to pay out.
	if _, err := QuoteWithdrawal(1_200, rate, feePercent, minFee, networkFee); !errors.Is(err, ErrInsufficientNetAmount) {
		t.Errorf("got %v, want ErrInsufficientNetAmount", err)
	}
	if _, err := QuoteWithdrawal(0, rate, feePercent, minFee, networkFee); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := QuoteWithdrawal(-5, rate, feePercent, minFee, networkFee); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := QuoteWithdrawal(1000, decimal.Zero, feePercent, minFee, networkFee); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero rate: got %v, want ErrInvalidAmount", err)
	}
}
