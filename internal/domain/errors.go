package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountBanned      = errors.New("account banned")
	ErrTaskNotFound       = errors.New("task not found")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrCompletionExists   = errors.New("completion already exists")
	ErrTaskAlreadyDone    = errors.New("task already completed")
	ErrAlreadyTerminal    = errors.New("already in terminal state")
	ErrInvalidTransition  = errors.New("invalid completion state transition")
	ErrIneligible         = errors.New("not eligible for task")

	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrBelowMinWithdrawal    = errors.New("amount below minimum withdrawal")
	ErrInvalidWalletAddress  = errors.New("invalid wallet address")
	ErrDailyLimitExceeded    = errors.New("daily withdrawal limit exceeded")
	ErrInsufficientNetAmount = errors.New("net amount after fees is not positive")
	ErrWithdrawalNotFound    = errors.New("withdrawal request not found")

	ErrPromoNotFound    = errors.New("promo not found")
	ErrPromoAlreadyUsed = errors.New("promo already used by this account")
	ErrPromoMaxUses     = errors.New("promo max uses reached")

	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrInvalidSignature = errors.New("invalid postback signature")
	ErrInvalidAmount    = errors.New("invalid amount")
)
