package usage

import "time"

const (
	// DefaultPlan is the only plan offered today.
	DefaultPlan = "Starter"
	// DefaultWeeklyLimit is used when USAGE_WEEKLY_LIMIT is unset or invalid.
	DefaultWeeklyLimit = 10

	period = 7 * 24 * time.Hour
)

func defaultUsage(limit int, now time.Time) Usage {
	return Usage{
		Plan:     DefaultPlan,
		Limit:    limit,
		Used:     0,
		ResetsAt: now.Add(period),
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultWeeklyLimit
	}
	return limit
}

// expired reports whether the usage window ended at or before now.
func expired(u Usage, now time.Time) bool {
	return !now.Before(u.ResetsAt)
}
