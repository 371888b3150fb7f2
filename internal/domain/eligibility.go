package domain

import (
	"errors"
	"strings"
	"time"
)

// Eligibility failure reasons, ordered by check priority.
const (
	ReasonTaskInactive      = "task_inactive"
	ReasonLevelTooLow       = "level_too_low"
	ReasonVIPTierTooLow     = "vip_tier_too_low"
	ReasonNotEnoughTasks    = "not_enough_tasks_completed"
	ReasonPremiumRequired   = "premium_required"
	ReasonCountryNotAllowed = "country_not_allowed"
	ReasonCompletionLimit   = "completion_limit_reached"
	ReasonDailyLimit        = "daily_limit_reached"
)

// EligibilitySnapshot is an explicit view of the account and completion
// counters a task eligibility decision depends on.
type EligibilitySnapshot struct {
	Now            time.Time
	Level          int
	Tier           VIPTier
	TasksCompleted int
	IsPremium      bool
	Country        string
}

// CanComplete checks task eligibility against an account snapshot. Checks
// run in a fixed order and short-circuit at the first failure, so the
// returned reason is deterministic. Pure predicate, no side effects.
func CanComplete(task *Task, snap *EligibilitySnapshot) (bool, string, error) {
	if task == nil || snap == nil {
		return false, "", errors.New("task and snapshot are required")
	}

	if !taskActiveAt(task, snap.Now) {
		return false, ReasonTaskInactive, nil
	}
	if snap.Level < task.MinLevel {
		return false, ReasonLevelTooLow, nil
	}
	if snap.Tier.Rank() < task.MinVIPTier.Rank() {
		return false, ReasonVIPTierTooLow, nil
	}
	if snap.TasksCompleted < task.MinTasksCompleted {
		return false, ReasonNotEnoughTasks, nil
	}
	if task.PremiumOnly && !snap.IsPremium {
		return false, ReasonPremiumRequired, nil
	}
	if len(task.Countries) > 0 && !containsFold(task.Countries, snap.Country) {
		return false, ReasonCountryNotAllowed, nil
	}
	if task.MaxCompletionsTotal != UnlimitedCompletions && task.CompletedCount >= task.MaxCompletionsTotal {
		return false, ReasonCompletionLimit, nil
	}
	if task.MaxCompletionsPerDay > 0 && task.CompletedTodayCount >= task.MaxCompletionsPerDay {
		return false, ReasonDailyLimit, nil
	}

	return true, "", nil
}

func taskActiveAt(task *Task, now time.Time) bool {
	if !task.IsActive {
		return false
	}
	if task.ScheduledStart != nil && now.Before(*task.ScheduledStart) {
		return false
	}
	if task.ScheduledEnd != nil && now.After(*task.ScheduledEnd) {
		return false
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
