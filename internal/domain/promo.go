package domain

import "time"

type PromoCode struct {
	ID              int64
	Code            string
	Amount          int64
	MaxUses         int
	ActivationCount int
	Comment         string
	CreatedBy       int64
	CreatedAt       time.Time
}
