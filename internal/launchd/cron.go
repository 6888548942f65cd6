package launchd

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/pietz/trigr/internal/models"
)

// maxCalendarEntries caps the StartCalendarInterval expansion of a cron
// expression. Beyond this the schedule is almost certainly a mistake and
// launchd would choke on the descriptor anyway.
const maxCalendarEntries = 128

// starBit marks an unconstrained field in robfig/cron's bitset schedules.
const starBit = 1 << 63

// calendarIntervals translates a cron schedule into launchd calendar
// entries. Discrete fields produce a single conjunctive entry; an expression
// expands into the cartesian product of its per-field value sets, one entry
// per combination.
func calendarIntervals(sched *models.CronSchedule) ([]CalendarInterval, error) {
	if sched.Expr != "" {
		return expandExpr(sched.Expr)
	}
	entry := CalendarInterval{
		Minute:  sched.Minute,
		Hour:    sched.Hour,
		Day:     sched.Day,
		Weekday: sched.Weekday,
		Month:   sched.Month,
	}
	return []CalendarInterval{entry}, nil
}

// expandExpr parses a five-field cron expression and expands it into
// calendar entries.
func expandExpr(expr string) ([]CalendarInterval, error) {
	parsed, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, &models.ValidationError{
			Field:  "trigger.cron.expr",
			Reason: fmt.Sprintf("invalid cron expression %q: %v", expr, err),
		}
	}
	spec, ok := parsed.(*cron.SpecSchedule)
	if !ok {
		return nil, &models.ValidationError{
			Field:  "trigger.cron.expr",
			Reason: fmt.Sprintf("unsupported cron expression %q", expr),
		}
	}

	minutes := bitsetValues(spec.Minute, 0, 59)
	hours := bitsetValues(spec.Hour, 0, 23)
	days := bitsetValues(spec.Dom, 1, 31)
	weekdays := bitsetValues(spec.Dow, 0, 6)
	months := bitsetValues(spec.Month, 1, 12)

	// Cron fires when day-of-month OR day-of-week matches when both are
	// restricted; launchd dict fields are conjunctive. Emit one entry set
	// per day field so the descriptor preserves the disjunction.
	bothDayFields := len(days) > 0 && len(weekdays) > 0

	base := product(len(minutes)) * product(len(hours)) * product(len(months))
	total := base * product(len(days)) * product(len(weekdays))
	if bothDayFields {
		total = base * (len(days) + len(weekdays))
	}
	if total > maxCalendarEntries {
		return nil, &models.ValidationError{
			Field:  "trigger.cron.expr",
			Reason: fmt.Sprintf("expression %q expands to %d calendar entries (max %d)", expr, total, maxCalendarEntries),
		}
	}

	var entries []CalendarInterval
	expand := func(days, weekdays []*int) {
		forEach(minutes, func(minute *int) {
			forEach(hours, func(hour *int) {
				forEach(days, func(day *int) {
					forEach(weekdays, func(weekday *int) {
						forEach(months, func(month *int) {
							entries = append(entries, CalendarInterval{
								Minute:  minute,
								Hour:    hour,
								Day:     day,
								Weekday: weekday,
								Month:   month,
							})
						})
					})
				})
			})
		})
	}
	if bothDayFields {
		expand(days, nil)
		expand(nil, weekdays)
	} else {
		expand(days, weekdays)
	}
	return entries, nil
}

// bitsetValues extracts the constrained values of a cron bitset field.
// A nil result means the field is unconstrained ("*").
func bitsetValues(field uint64, min, max int) []*int {
	if field&starBit != 0 {
		return nil
	}
	var values []*int
	for v := min; v <= max; v++ {
		if field&(1<<uint(v)) != 0 {
			val := v
			values = append(values, &val)
		}
	}
	// A fully populated range is equivalent to "*".
	if len(values) == max-min+1 {
		return nil
	}
	return values
}

// product treats an unconstrained field (length 0) as contributing a single
// combination.
func product(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// forEach invokes fn once with nil for an unconstrained field, otherwise
// once per constrained value.
func forEach(values []*int, fn func(*int)) {
	if len(values) == 0 {
		fn(nil)
		return
	}
	for _, v := range values {
		fn(v)
	}
}
