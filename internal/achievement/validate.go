package achievement

import (
	"errors"
	"fmt"

	"adaptlyAPI/internal/apperr"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTasks, CategoryFocus, CategoryMood, CategoryStreak, CategoryLevel, CategoryTime, CategorySpecial:
		return true
	}
	return false
}

func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond, TierLegendary:
		return true
	}
	return false
}

func (c ConditionType) Valid() bool {
	switch c {
	case ConditionTasksCompleted, ConditionFocusSessions, ConditionMoodStreak, ConditionTaskStreak,
		ConditionLevelReached, ConditionXPEarned, ConditionLoginStreak, ConditionSpecial:
		return true
	}
	return false
}

func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeNone, TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeConsecutive:
		return true
	}
	return false
}

// Validate checks catalog integrity: unique ids and well-formed entries. Every
// problem is reported, joined into one InvalidArgument error.
func Validate(defs []Definition) error {
	var errs []error
	seen := make(map[string]struct{}, len(defs))

	for i, d := range defs {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("entry %d: empty id", i))
			continue
		}
		if _, dup := seen[d.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate id", d.ID))
		}
		seen[d.ID] = struct{}{}

		if !d.Category.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown category %q", d.ID, d.Category))
		}
		if !d.Tier.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown tier %q", d.ID, d.Tier))
		}
		if !d.Condition.Type.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown condition type %q", d.ID, d.Condition.Type))
		}
		if !d.Condition.Timeframe.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown timeframe %q", d.ID, d.Condition.Timeframe))
		}
		if d.Condition.Value <= 0 {
			errs = append(errs, fmt.Errorf("%s: condition value must be positive", d.ID))
		}
		if d.XPReward < 0 {
			errs = append(errs, fmt.Errorf("%s: negative xp reward", d.ID))
		}
		if d.Condition.Type == ConditionSpecial {
			if _, ok := specialFor(d.ID); !ok {
				errs = append(errs, fmt.Errorf("%s: no predicate registered for special condition", d.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: invalid achievement catalog: %w", apperr.ErrInvalidArgument, errors.Join(errs...))
	}
	return nil
}
