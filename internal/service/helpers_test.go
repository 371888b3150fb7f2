package service

import (
	"context"
	"testing"
	"time"

	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

func fixedTime() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func seedAccount(t *testing.T, store *memStore, telegramID int64) *domain.Account {
	t.Helper()
	account, err := store.CreateAccount(context.Background(), repository.CreateAccountParams{
		TelegramID:   telegramID,
		FirstName:    "Test",
		Username:     "test",
		Country:      "DE",
		ReferralCode: "REF" + string(rune('A'+telegramID%26)) + "00000",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

// createTaskArg keeps the test task builders short.
type createTaskArg = repository.CreateTaskParams

func seedTask(t *testing.T, store *memStore, mutate func(*createTaskArg)) *domain.Task {
	t.Helper()
	arg := createTaskArg{
		Type:                 domain.TaskTypeSocial,
		Category:             "social",
		Title:                "Join the channel",
		BaseReward:           100,
		Verification:         domain.VerifyManual,
		MinLevel:             1,
		MinVIPTier:           domain.TierBronze,
		IsActive:             true,
		MaxCompletionsTotal:  domain.UnlimitedCompletions,
		MaxCompletionsPerDay: domain.UnlimitedCompletions,
	}
	if mutate != nil {
		mutate(&arg)
	}
	task, err := store.CreateTask(context.Background(), arg)
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func mustBalance(t *testing.T, store *memStore, accountID int64) int64 {
	t.Helper()
	account, err := store.GetAccountByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return account.Balance
}
