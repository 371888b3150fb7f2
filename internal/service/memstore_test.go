package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/earnhub/internal/domain"
	"github.com/set-night/earnhub/internal/repository"
)

// memStore is an in-memory repository.Store mirroring the conditional-update
// semantics of the Postgres implementation: every Mark* method checks its
// status precondition atomically under the lock, and transactions serialize
// on txMu. It does not roll back: transaction bodies order their mutations
// so the failing step comes first, same as the services do.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	accounts     map[int64]*domain.Account
	tasks        map[int64]*domain.Task
	completions  map[int64]*domain.Completion
	withdrawals  map[int64]*domain.WithdrawalRequest
	promos       map[int64]*domain.PromoCode
	activations  map[[2]int64]bool
	transactions []*domain.Transaction

	nextID int64
	now    func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    make(map[int64]*domain.Account),
		tasks:       make(map[int64]*domain.Task),
		completions: make(map[int64]*domain.Completion),
		withdrawals: make(map[int64]*domain.WithdrawalRequest),
		promos:      make(map[int64]*domain.PromoCode),
		activations: make(map[[2]int64]bool),
		now:         time.Now,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.ReferredByID != nil {
		v := *a.ReferredByID
		c.ReferredByID = &v
	}
	if a.LastCheckIn != nil {
		v := *a.LastCheckIn
		c.LastCheckIn = &v
	}
	return &c
}

func cloneCompletion(c *domain.Completion) *domain.Completion {
	out := *c
	if c.SubmittedAt != nil {
		v := *c.SubmittedAt
		out.SubmittedAt = &v
	}
	if c.CompletedAt != nil {
		v := *c.CompletedAt
		out.CompletedAt = &v
	}
	return &out
}

func cloneWithdrawal(w *domain.WithdrawalRequest) *domain.WithdrawalRequest {
	out := *w
	if w.ResolvedAt != nil {
		v := *w.ResolvedAt
		out.ResolvedAt = &v
	}
	return &out
}

// Accounts

func (m *memStore) GetAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (m *memStore) GetAccountByTelegramID(_ context.Context, telegramID int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.TelegramID == telegramID {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *memStore) GetAccountByReferralCode(_ context.Context, code string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ReferralCode == code {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *memStore) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	return m.GetAccountByID(ctx, id)
}

func (m *memStore) CreateAccount(_ context.Context, arg repository.CreateAccountParams) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	a := &domain.Account{
		ID:           m.id(),
		TelegramID:   arg.TelegramID,
		FirstName:    arg.FirstName,
		Username:     arg.Username,
		Country:      arg.Country,
		IsPremium:    arg.IsPremium,
		IsAdmin:      arg.IsAdmin,
		Level:        1,
		VIPTier:      domain.TierBronze,
		ReferralCode: arg.ReferralCode,
		ReferredByID: arg.ReferredByID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.accounts[a.ID] = a
	return cloneAccount(a), nil
}

func (m *memStore) UpdateAccountProfile(_ context.Context, arg repository.UpdateAccountProfileParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[arg.AccountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.FirstName = arg.FirstName
	a.Username = arg.Username
	a.Country = arg.Country
	a.IsPremium = arg.IsPremium
	return nil
}

func (m *memStore) AddBalance(_ context.Context, accountID, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if a.Balance+delta < 0 {
		return 0, domain.ErrInsufficientBalance
	}
	a.Balance += delta
	return a.Balance, nil
}

func (m *memStore) CreditEarned(_ context.Context, accountID, amount int64, countTask bool) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.Balance += amount
	a.TotalEarned += amount
	if countTask {
		a.TasksCompleted++
	}
	return cloneAccount(a), nil
}

func (m *memStore) AddReferralEarnings(_ context.Context, accountID, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance += amount
	a.TotalEarned += amount
	a.ReferralEarnings += amount
	return nil
}

func (m *memStore) SetAccountProgress(_ context.Context, accountID int64, level int, tier domain.VIPTier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Level = level
	a.VIPTier = tier
	return nil
}

func (m *memStore) SetCheckIn(_ context.Context, accountID int64, at time.Time, streak int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.LastCheckIn = &at
	a.CheckInStreak = streak
	return nil
}

func (m *memStore) AddWithdrawn(_ context.Context, accountID, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.TotalWithdrawn += amount
	return nil
}

func (m *memStore) SetBanned(_ context.Context, accountID int64, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Banned = banned
	return nil
}

// Tasks

func (m *memStore) taskWithCounts(t *domain.Task) *domain.Task {
	out := *t
	today := m.now().UTC().Truncate(24 * time.Hour)
	for _, c := range m.completions {
		if c.TaskID != t.ID || c.Status != domain.CompletionApproved {
			continue
		}
		out.CompletedCount++
		if c.CompletedAt != nil && c.CompletedAt.UTC().Truncate(24*time.Hour).Equal(today) {
			out.CompletedTodayCount++
		}
	}
	return &out
}

func (m *memStore) GetTaskByID(_ context.Context, id int64) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return m.taskWithCounts(t), nil
}

func (m *memStore) ListActiveTasks(_ context.Context, now time.Time) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Task
	for _, t := range m.tasks {
		if !t.IsActive {
			continue
		}
		if t.ScheduledStart != nil && now.Before(*t.ScheduledStart) {
			continue
		}
		if t.ScheduledEnd != nil && now.After(*t.ScheduledEnd) {
			continue
		}
		out = append(out, m.taskWithCounts(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateTask(_ context.Context, arg repository.CreateTaskParams) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	t := &domain.Task{
		ID:                   m.id(),
		Type:                 arg.Type,
		Category:             arg.Category,
		Title:                arg.Title,
		Description:          arg.Description,
		URL:                  arg.URL,
		BaseReward:           arg.BaseReward,
		Payout:               arg.Payout,
		Partner:              arg.Partner,
		ExternalOfferID:      arg.ExternalOfferID,
		Verification:         arg.Verification,
		MinLevel:             arg.MinLevel,
		MinVIPTier:           arg.MinVIPTier,
		MinTasksCompleted:    arg.MinTasksCompleted,
		PremiumOnly:          arg.PremiumOnly,
		Countries:            arg.Countries,
		IsActive:             arg.IsActive,
		ScheduledStart:       arg.ScheduledStart,
		ScheduledEnd:         arg.ScheduledEnd,
		MaxCompletionsTotal:  arg.MaxCompletionsTotal,
		MaxCompletionsPerDay: arg.MaxCompletionsPerDay,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	m.tasks[t.ID] = t
	return m.taskWithCounts(t), nil
}

func (m *memStore) UpsertPartnerTask(ctx context.Context, arg repository.UpsertPartnerTaskParams) (*domain.Task, error) {
	m.mu.Lock()
	for _, t := range m.tasks {
		if t.Partner == arg.Partner && t.ExternalOfferID == arg.ExternalOfferID {
			t.Title = arg.Title
			t.Description = arg.Description
			t.URL = arg.URL
			t.BaseReward = arg.BaseReward
			t.Payout = arg.Payout
			t.Countries = arg.Countries
			out := m.taskWithCounts(t)
			m.mu.Unlock()
			return out, nil
		}
	}
	m.mu.Unlock()
	return m.CreateTask(ctx, repository.CreateTaskParams{
		Type:                 arg.Type,
		Category:             "partner",
		Title:                arg.Title,
		Description:          arg.Description,
		URL:                  arg.URL,
		BaseReward:           arg.BaseReward,
		Payout:               arg.Payout,
		Partner:              arg.Partner,
		ExternalOfferID:      arg.ExternalOfferID,
		Verification:         domain.VerifyPostback,
		MinLevel:             1,
		MinVIPTier:           domain.TierBronze,
		Countries:            arg.Countries,
		IsActive:             true,
		MaxCompletionsTotal:  domain.UnlimitedCompletions,
		MaxCompletionsPerDay: domain.UnlimitedCompletions,
	})
}

func (m *memStore) SetTaskActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.IsActive = active
	return nil
}

// Completions

func (m *memStore) GetCompletionByID(_ context.Context, id int64) (*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok {
		return nil, domain.ErrCompletionNotFound
	}
	return cloneCompletion(c), nil
}

func (m *memStore) GetCompletionByAccountTask(_ context.Context, accountID, taskID int64) (*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.completions {
		if c.AccountID == accountID && c.TaskID == taskID {
			return cloneCompletion(c), nil
		}
	}
	return nil, domain.ErrCompletionNotFound
}

func (m *memStore) GetCompletionByTrackingID(_ context.Context, trackingID uuid.UUID) (*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.completions {
		if c.TrackingID == trackingID {
			return cloneCompletion(c), nil
		}
	}
	return nil, domain.ErrCompletionNotFound
}

func (m *memStore) ListCompletionsByAccount(_ context.Context, accountID int64) ([]*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Completion
	for _, c := range m.completions {
		if c.AccountID == accountID {
			out = append(out, cloneCompletion(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateCompletion(_ context.Context, arg repository.CreateCompletionParams) (*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.completions {
		if c.AccountID == arg.AccountID && c.TaskID == arg.TaskID {
			return nil, domain.ErrCompletionExists
		}
	}
	c := &domain.Completion{
		ID:           m.id(),
		AccountID:    arg.AccountID,
		TaskID:       arg.TaskID,
		Status:       domain.CompletionStarted,
		RewardAmount: arg.RewardAmount,
		TrackingID:   arg.TrackingID,
		IP:           arg.IP,
		DeviceHash:   arg.DeviceHash,
		RiskScore:    arg.RiskScore,
		StartedAt:    arg.StartedAt,
	}
	m.completions[c.ID] = c
	return cloneCompletion(c), nil
}

func (m *memStore) MarkSubmitted(_ context.Context, id int64, proof string, at time.Time) (*domain.Completion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok {
		return nil, false, domain.ErrCompletionNotFound
	}
	if c.Status != domain.CompletionStarted {
		return nil, false, nil
	}
	c.Status = domain.CompletionSubmitted
	c.Proof = proof
	c.SubmittedAt = &at
	return cloneCompletion(c), true, nil
}

func (m *memStore) MarkApproved(_ context.Context, id int64, at time.Time) (*domain.Completion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok {
		return nil, false, domain.ErrCompletionNotFound
	}
	if c.Status != domain.CompletionSubmitted {
		return nil, false, nil
	}
	c.Status = domain.CompletionApproved
	c.CompletedAt = &at
	return cloneCompletion(c), true, nil
}

func (m *memStore) MarkRejected(_ context.Context, id int64, reason string) (*domain.Completion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok {
		return nil, false, domain.ErrCompletionNotFound
	}
	if c.Status != domain.CompletionSubmitted {
		return nil, false, nil
	}
	c.Status = domain.CompletionRejected
	c.RejectReason = reason
	return cloneCompletion(c), true, nil
}

func (m *memStore) MarkCancelled(_ context.Context, id int64) (*domain.Completion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok {
		return nil, false, domain.ErrCompletionNotFound
	}
	if c.Status != domain.CompletionStarted && c.Status != domain.CompletionSubmitted {
		return nil, false, nil
	}
	c.Status = domain.CompletionCancelled
	return cloneCompletion(c), true, nil
}

func (m *memStore) ReopenCompletion(_ context.Context, id int64, at time.Time) (*domain.Completion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok {
		return nil, false, domain.ErrCompletionNotFound
	}
	if c.Status != domain.CompletionRejected && c.Status != domain.CompletionCancelled {
		return nil, false, nil
	}
	c.Status = domain.CompletionStarted
	c.Proof = ""
	c.RejectReason = ""
	c.StartedAt = at
	c.SubmittedAt = nil
	c.CompletedAt = nil
	return cloneCompletion(c), true, nil
}

// Withdrawals

func (m *memStore) CreateWithdrawal(_ context.Context, arg repository.CreateWithdrawalParams) (*domain.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &domain.WithdrawalRequest{
		ID:              m.id(),
		Reference:       arg.Reference,
		AccountID:       arg.AccountID,
		AmountRequested: arg.AmountRequested,
		Currency:        arg.Currency,
		WalletAddress:   arg.WalletAddress,
		ConversionRate:  arg.ConversionRate,
		FeePercent:      arg.FeePercent,
		NetworkFee:      arg.NetworkFee,
		FinalAmount:     arg.FinalAmount,
		Status:          domain.WithdrawalPending,
		CreatedAt:       m.now(),
	}
	m.withdrawals[w.ID] = w
	return cloneWithdrawal(w), nil
}

func (m *memStore) GetWithdrawalByReference(_ context.Context, reference uuid.UUID) (*domain.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.withdrawals {
		if w.Reference == reference {
			return cloneWithdrawal(w), nil
		}
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *memStore) ListWithdrawalsByAccount(_ context.Context, accountID int64) ([]*domain.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.WithdrawalRequest
	for _, w := range m.withdrawals {
		if w.AccountID == accountID {
			out = append(out, cloneWithdrawal(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SumWithdrawalsSince(_ context.Context, accountID int64, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, w := range m.withdrawals {
		if w.AccountID != accountID || w.CreatedAt.Before(since) {
			continue
		}
		if w.Status == domain.WithdrawalFailed || w.Status == domain.WithdrawalCancelled {
			continue
		}
		total += w.AmountRequested
	}
	return total, nil
}

func (m *memStore) markWithdrawal(id int64, from []domain.WithdrawalStatus, to domain.WithdrawalStatus, mutate func(*domain.WithdrawalRequest)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return false, domain.ErrWithdrawalNotFound
	}
	allowed := false
	for _, s := range from {
		if w.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	w.Status = to
	if mutate != nil {
		mutate(w)
	}
	return true, nil
}

func (m *memStore) MarkWithdrawalProcessing(_ context.Context, id int64) (bool, error) {
	return m.markWithdrawal(id, []domain.WithdrawalStatus{domain.WithdrawalPending}, domain.WithdrawalProcessing, nil)
}

func (m *memStore) MarkWithdrawalCompleted(_ context.Context, id int64, txReference string, at time.Time) (bool, error) {
	return m.markWithdrawal(id,
		[]domain.WithdrawalStatus{domain.WithdrawalPending, domain.WithdrawalProcessing},
		domain.WithdrawalCompleted,
		func(w *domain.WithdrawalRequest) {
			w.TxReference = txReference
			w.ResolvedAt = &at
		})
}

func (m *memStore) MarkWithdrawalFailed(_ context.Context, id int64, at time.Time) (bool, error) {
	return m.markWithdrawal(id,
		[]domain.WithdrawalStatus{domain.WithdrawalPending, domain.WithdrawalProcessing},
		domain.WithdrawalFailed,
		func(w *domain.WithdrawalRequest) { w.ResolvedAt = &at })
}

func (m *memStore) MarkWithdrawalCancelled(_ context.Context, id int64, at time.Time) (bool, error) {
	return m.markWithdrawal(id,
		[]domain.WithdrawalStatus{domain.WithdrawalPending},
		domain.WithdrawalCancelled,
		func(w *domain.WithdrawalRequest) { w.ResolvedAt = &at })
}

// Promo codes

func (m *memStore) GetPromoByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.promos {
		if strings.EqualFold(p.Code, code) {
			out := *p
			return &out, nil
		}
	}
	return nil, domain.ErrPromoNotFound
}

func (m *memStore) CreatePromo(_ context.Context, arg repository.CreatePromoParams) (*domain.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &domain.PromoCode{
		ID:        m.id(),
		Code:      arg.Code,
		Amount:    arg.Amount,
		MaxUses:   arg.MaxUses,
		Comment:   arg.Comment,
		CreatedBy: arg.CreatedBy,
		CreatedAt: m.now(),
	}
	m.promos[p.ID] = p
	out := *p
	return &out, nil
}

func (m *memStore) ConsumePromoUse(_ context.Context, promoID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[promoID]
	if !ok {
		return false, domain.ErrPromoNotFound
	}
	if p.MaxUses >= 0 && p.ActivationCount >= p.MaxUses {
		return false, nil
	}
	p.ActivationCount++
	return true, nil
}

func (m *memStore) CreatePromoActivation(_ context.Context, promoID, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{promoID, accountID}
	if m.activations[key] {
		return domain.ErrPromoAlreadyUsed
	}
	m.activations[key] = true
	return nil
}

// Transactions

func (m *memStore) CreateTransaction(_ context.Context, arg repository.CreateTransactionParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, &domain.Transaction{
		ID:          m.id(),
		AccountID:   arg.AccountID,
		Amount:      arg.Amount,
		TxType:      arg.TxType,
		Description: arg.Description,
		CreatedAt:   m.now(),
	})
	return nil
}

func (m *memStore) ListTransactionsByAccount(_ context.Context, accountID int64, limit int) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for i := len(m.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if m.transactions[i].AccountID == accountID {
			t := *m.transactions[i]
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) transactionsFor(accountID int64) []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}
