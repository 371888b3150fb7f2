package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

type PromoService struct {
	store repository.Store
}

func NewPromoService(store repository.Store) *PromoService {
	return &PromoService{store: store}
}

// Activate redeems a promo code for the account. The activation row, the
// use counter and the balance credit move together in one transaction.
func (s *PromoService) Activate(ctx context.Context, code string, accountID int64) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	promo, err := s.store.GetPromoByCode(ctx, code)
	if err != nil {
		return 0, err
	}

	err = s.store.InTx(ctx, func(st repository.Store) error {
		if err := st.CreatePromoActivation(ctx, promo.ID, accountID); err != nil {
			return err
		}
		ok, err := st.ConsumePromoUse(ctx, promo.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPromoMaxUses
		}
		if _, err := st.AddBalance(ctx, accountID, promo.Amount); err != nil {
			return err
		}
		return st.CreateTransaction(ctx, repository.CreateTransactionParams{
			AccountID:   accountID,
			Amount:      promo.Amount,
			TxType:      domain.TxTypeCredit,
			Description: fmt.Sprintf("Promo code: %s", code),
		})
	})
	if err != nil {
		return 0, err
	}
	return promo.Amount, nil
}

func (s *PromoService) Create(ctx context.Context, amount int64, count, maxUses int, comment string, createdBy int64) ([]string, error) {
	if amount <= 0 || count <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code, err := generatePromoCode()
		if err != nil {
			return nil, fmt.Errorf("generate promo code: %w", err)
		}
		if _, err := s.store.CreatePromo(ctx, repository.CreatePromoParams{
			Code:      code,
			Amount:    amount,
			MaxUses:   maxUses,
			Comment:   comment,
			CreatedBy: createdBy,
		}); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

const promoCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generatePromoCode() (string, error) {
	code := make([]byte, 12)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(promoCodeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = promoCodeCharset[n.Int64()]
	}
	return string(code), nil
}
