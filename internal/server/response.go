package server

import (
	"time"

	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/service"
)

type accountResponse struct {
	TelegramID       int64      `json:"telegram_id"`
	FirstName        string     `json:"first_name"`
	Username         string     `json:"username"`
	Balance          int64      `json:"balance"`
	TotalEarned      int64      `json:"total_earned"`
	TotalWithdrawn   int64      `json:"total_withdrawn"`
	Level            int        `json:"level"`
	VIPTier          string     `json:"vip_tier"`
	TasksCompleted   int        `json:"tasks_completed"`
	IsPremium        bool       `json:"is_premium"`
	ReferralCode     string     `json:"referral_code"`
	ReferralEarnings int64      `json:"referral_earnings"`
	CheckInStreak    int        `json:"check_in_streak"`
	LastCheckIn      *time.Time `json:"last_check_in,omitempty"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		TelegramID:       a.TelegramID,
		FirstName:        a.FirstName,
		Username:         a.Username,
		Balance:          a.Balance,
		TotalEarned:      a.TotalEarned,
		TotalWithdrawn:   a.TotalWithdrawn,
		Level:            a.Level,
		VIPTier:          string(a.VIPTier),
		TasksCompleted:   a.TasksCompleted,
		IsPremium:        a.IsPremium,
		ReferralCode:     a.ReferralCode,
		ReferralEarnings: a.ReferralEarnings,
		CheckInStreak:    a.CheckInStreak,
		LastCheckIn:      a.LastCheckIn,
	}
}

type taskResponse struct {
	ID               int64    `json:"id"`
	Type             string   `json:"type"`
	Category         string   `json:"category"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	URL              string   `json:"url"`
	Reward           int64    `json:"reward"`
	Verification     string   `json:"verification"`
	MinLevel         int      `json:"min_level"`
	MinVIPTier       string   `json:"min_vip_tier"`
	PremiumOnly      bool     `json:"premium_only"`
	Countries        []string `json:"countries,omitempty"`
	Eligible         bool     `json:"eligible"`
	IneligibleReason string   `json:"ineligible_reason,omitempty"`
	CompletionStatus string   `json:"completion_status,omitempty"`
}

func toTaskResponse(v service.TaskView) taskResponse {
	return taskResponse{
		ID:               v.Task.ID,
		Type:             string(v.Task.Type),
		Category:         v.Task.Category,
		Title:            v.Task.Title,
		Description:      v.Task.Description,
		URL:              v.Task.URL,
		Reward:           v.Reward,
		Verification:     string(v.Task.Verification),
		MinLevel:         v.Task.MinLevel,
		MinVIPTier:       string(v.Task.MinVIPTier),
		PremiumOnly:      v.Task.PremiumOnly,
		Countries:        v.Task.Countries,
		Eligible:         v.Eligible,
		IneligibleReason: v.IneligibleReason,
		CompletionStatus: string(v.CompletionStatus),
	}
}

type completionResponse struct {
	ID           int64      `json:"id"`
	TaskID       int64      `json:"task_id"`
	Status       string     `json:"status"`
	RewardAmount int64      `json:"reward_amount"`
	TrackingID   string     `json:"tracking_id"`
	RejectReason string     `json:"reject_reason,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func toCompletionResponse(c *domain.Completion) completionResponse {
	return completionResponse{
		ID:           c.ID,
		TaskID:       c.TaskID,
		Status:       string(c.Status),
		RewardAmount: c.RewardAmount,
		TrackingID:   c.TrackingID.String(),
		RejectReason: c.RejectReason,
		StartedAt:    c.StartedAt,
		SubmittedAt:  c.SubmittedAt,
		CompletedAt:  c.CompletedAt,
	}
}

type withdrawalResponse struct {
	Reference       string     `json:"reference"`
	AmountRequested int64      `json:"amount_requested"`
	Currency        string     `json:"currency"`
	WalletAddress   string     `json:"wallet_address"`
	FinalAmount     string     `json:"final_amount"`
	Status          string     `json:"status"`
	TxReference     string     `json:"tx_reference,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

func toWithdrawalResponse(w *domain.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		Reference:       w.Reference.String(),
		AmountRequested: w.AmountRequested,
		Currency:        string(w.Currency),
		WalletAddress:   w.WalletAddress,
		FinalAmount:     w.FinalAmount.StringFixed(2),
		Status:          string(w.Status),
		TxReference:     w.TxReference,
		CreatedAt:       w.CreatedAt,
		ResolvedAt:      w.ResolvedAt,
	}
}

type transactionResponse struct {
	ID          int64     `json:"id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResponse(t *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Type:        string(t.TxType),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}
