package domain

import "github.com/shopspring/decimal"

// VIPTier is an ordered reward-multiplier tier derived from cumulative
// earned points. It is never set directly, only through TierForPoints.
type VIPTier string

const (
	TierBronze   VIPTier = "bronze"
	TierSilver   VIPTier = "silver"
	TierGold     VIPTier = "gold"
	TierPlatinum VIPTier = "platinum"
	TierDiamond  VIPTier = "diamond"
)

var tierRanks = map[VIPTier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
	TierDiamond:  4,
}

func (t VIPTier) Rank() int {
	return tierRanks[t]
}

func (t VIPTier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

var tierMultipliers = map[VIPTier]decimal.Decimal{
	TierBronze:   decimal.NewFromFloat(1.0),
	TierSilver:   decimal.NewFromFloat(1.1),
	TierGold:     decimal.NewFromFloat(1.3),
	TierPlatinum: decimal.NewFromFloat(1.6),
	TierDiamond:  decimal.NewFromFloat(2.0),
}

var premiumTaskMultiplier = decimal.NewFromFloat(1.5)

// CalculateReward applies the VIP multiplier and the premium-task bonus to
// the base reward and floors the result. Deterministic, no side effects.
func CalculateReward(baseReward int64, tier VIPTier, premiumTask bool) int64 {
	mult, ok := tierMultipliers[tier]
	if !ok {
		mult = tierMultipliers[TierBronze]
	}
	reward := decimal.NewFromInt(baseReward).Mul(mult)
	if premiumTask {
		reward = reward.Mul(premiumTaskMultiplier)
	}
	return reward.Floor().IntPart()
}

// TierForPoints derives the VIP tier from cumulative earned points. Earned
// points only grow, so the tier moves monotonically upward.
func TierForPoints(totalEarned int64) VIPTier {
	switch {
	case totalEarned >= 100_000:
		return TierDiamond
	case totalEarned >= 50_000:
		return TierPlatinum
	case totalEarned >= 20_000:
		return TierGold
	case totalEarned >= 5_000:
		return TierSilver
	default:
		return TierBronze
	}
}

const referralCommissionPercent = 10

// ReferralCommission returns the referrer's cut of a credited reward.
func ReferralCommission(reward int64) int64 {
	return reward * referralCommissionPercent / 100
}

// LevelForTasks derives the account level from the number of approved tasks.
func LevelForTasks(tasksCompleted int) int {
	return 1 + tasksCompleted/20
}
