package domain

import "time"

type Account struct {
	ID               int64
	TelegramID       int64
	FirstName        string
	Username         string
	Country          string
	IsPremium        bool
	IsAdmin          bool
	Banned           bool
	Balance          int64
	TotalEarned      int64
	TotalWithdrawn   int64
	Level            int
	VIPTier          VIPTier
	TasksCompleted   int
	ReferralCode     string
	ReferredByID     *int64
	ReferralEarnings int64
	LastCheckIn      *time.Time
	CheckInStreak    int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// maxStreakForReward caps the streak used for reward lookup; the stored
// streak itself keeps growing.
const maxStreakForReward = 7

// NextStreak computes the streak value for a check-in happening at now.
// Returns ErrAlreadyCheckedIn when the last check-in falls on the same UTC
// day, resets to 1 unless the last check-in was exactly yesterday.
func NextStreak(lastCheckIn *time.Time, streak int, now time.Time) (int, error) {
	if lastCheckIn == nil {
		return 1, nil
	}
	last := lastCheckIn.UTC()
	today := now.UTC().Truncate(24 * time.Hour)
	lastDay := last.Truncate(24 * time.Hour)

	switch {
	case lastDay.Equal(today):
		return 0, ErrAlreadyCheckedIn
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return streak + 1, nil
	default:
		return 1, nil
	}
}

// CheckInReward returns the reward in points for the given streak day.
func CheckInReward(streak int, table []int64) int64 {
	if streak < 1 {
		streak = 1
	}
	if streak > maxStreakForReward {
		streak = maxStreakForReward
	}
	if streak > len(table) {
		streak = len(table)
	}
	return table[streak-1]
}
