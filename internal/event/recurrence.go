package event

import (
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// maxOccurrences bounds worst-case work for malformed rules
const maxOccurrences = 10000

// GenerateOccurrences expands a recurrence rule into concrete occurrences
// whose start falls within [rangeStart, rangeEnd] inclusive. The walk starts
// at the event's own start instant and advances one candidate at a time in
// the rule's timezone; every emitted occurrence keeps the parent's duration.
// Pure function: identical inputs yield identical output, callers cache.
func GenerateOccurrences(ev *Event, rule *RecurrenceRule, rangeStart, rangeEnd time.Time) []Occurrence {
	if rule == nil || !ev.IsRecurring {
		return nil
	}

	loc := ruleLocation(rule)
	current := ev.StartTime.In(loc)
	duration := ev.EndTime.Sub(ev.StartTime)
	rangeStart = rangeStart.In(loc)
	rangeEnd = rangeEnd.In(loc)

	exceptions := make(map[string]bool, len(rule.Exceptions))
	for _, d := range rule.Exceptions {
		if day, err := time.ParseInLocation("2006-01-02", d, loc); err == nil {
			exceptions[day.Format("2006-01-02")] = true
		}
	}

	var occurrences []Occurrence
	emitted := 0

	for !current.After(rangeEnd) {
		// Stop conditions, checked before range filtering: until first,
		// then count (count limits emitted occurrences, not candidates)
		if rule.Until != nil && current.After(rule.Until.In(loc)) {
			break
		}
		if rule.Count != nil && emitted >= *rule.Count {
			break
		}

		if !current.Before(rangeStart) {
			dateKey := current.Format("2006-01-02")
			if !exceptions[dateKey] {
				occurrences = append(occurrences, newOccurrence(ev, current, duration, dateKey, false))
				emitted++
			}
		}

		current = nextOccurrenceDate(current, rule)

		if emitted > maxOccurrences {
			log.WithField("event_id", ev.ID).Warn("recurrence: safety limit reached")
			break
		}
	}

	// Explicit extra dates, at the event's original time-of-day, deduped
	// against dates already produced by the rule
	eventStart := ev.StartTime.In(loc)
	for _, d := range rule.AdditionalDates {
		day, err := time.ParseInLocation("2006-01-02", d, loc)
		if err != nil {
			continue
		}
		if day.Before(rangeStart) || day.After(rangeEnd) {
			continue
		}

		dateKey := day.Format("2006-01-02")
		exists := false
		for _, occ := range occurrences {
			if occ.OccurrenceDate == dateKey {
				exists = true
				break
			}
		}
		if exists {
			continue
		}

		start := time.Date(day.Year(), day.Month(), day.Day(),
			eventStart.Hour(), eventStart.Minute(), eventStart.Second(), 0, loc)
		occurrences = append(occurrences, newOccurrence(ev, start, duration, dateKey, true))
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].StartTime.Before(occurrences[j].StartTime)
	})

	return occurrences
}

// GenerateOccurrencesForDates expands over a YYYY-MM-DD window, inclusive of
// the whole end date, interpreting the bounds in the rule's timezone
func GenerateOccurrencesForDates(ev *Event, rule *RecurrenceRule, startDate, endDate string) []Occurrence {
	loc := ruleLocation(rule)

	start, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		log.WithField("start_date", startDate).Warn("recurrence: bad range start")
		return nil
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, loc)
	if err != nil {
		log.WithField("end_date", endDate).Warn("recurrence: bad range end")
		return nil
	}
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	return GenerateOccurrences(ev, rule, start, end)
}

func newOccurrence(ev *Event, start time.Time, duration time.Duration, dateKey string, additional bool) Occurrence {
	occ := Occurrence{
		Event:          *ev,
		OccurrenceID:   fmt.Sprintf("%s-%s", ev.ID, dateKey),
		ParentEvent:    ev.ID,
		OccurrenceDate: dateKey,
		IsOccurrence:   true,
		IsAdditional:   additional,
	}
	occ.StartTime = start
	occ.EndTime = start.Add(duration)
	return occ
}

// nextOccurrenceDate advances one candidate per the rule's frequency.
// Calendar-correct, not fixed-duration: month and year steps clamp to the
// target month's last valid day.
func nextOccurrenceDate(current time.Time, rule *RecurrenceRule) time.Time {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Frequency {
	case FreqDaily:
		return current.AddDate(0, 0, interval)

	case FreqWeekly:
		if len(rule.ByWeekday) > 0 {
			// Bounded forward scan for the next listed weekday. Rule
			// weekday numbering is 0=Sunday..6=Saturday, same as
			// time.Weekday.
			next := current.AddDate(0, 0, 1)
			for i := 0; i < 7*interval; i++ {
				if containsWeekday(rule.ByWeekday, next.Weekday()) {
					return next
				}
				next = next.AddDate(0, 0, 1)
			}
			// Nothing in the window: jump a full interval and snap to the
			// first listed weekday of that week
			return snapToWeekday(current.AddDate(0, 0, 7*interval), time.Weekday(rule.ByWeekday[0]))
		}
		return current.AddDate(0, 0, 7*interval)

	case FreqMonthly:
		if rule.ByMonthDay != nil {
			next := addMonthsClamped(current, interval)
			target := *rule.ByMonthDay
			if last := daysInMonth(next.Year(), next.Month()); target > last {
				target = last
			}
			return setDayOfMonth(next, target)
		}
		if rule.BySetPos != nil && len(rule.ByWeekday) > 0 {
			next := addMonthsClamped(current, interval)
			weekday := time.Weekday(rule.ByWeekday[0])
			if *rule.BySetPos == -1 {
				return lastWeekdayOfMonth(next, weekday)
			}
			if t, ok := nthWeekdayOfMonth(next, weekday, *rule.BySetPos); ok {
				return t
			}
			// No such weekday ordinal in that month
			return setDayOfMonth(next, 1)
		}
		return addMonthsClamped(current, interval)

	case FreqYearly:
		return addMonthsClamped(current, 12*interval)

	default:
		log.WithField("frequency", rule.Frequency).Warn("recurrence: unknown frequency")
		return current.AddDate(0, 0, 1)
	}
}

func ruleLocation(rule *RecurrenceRule) *time.Location {
	if rule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(rule.Timezone)
	if err != nil {
		log.WithField("timezone", rule.Timezone).Warn("recurrence: unknown timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

func containsWeekday(set []int, w time.Weekday) bool {
	for _, d := range set {
		if time.Weekday(d) == w {
			return true
		}
	}
	return false
}

// snapToWeekday moves t to the given weekday within t's Monday-started week
func snapToWeekday(t time.Time, w time.Weekday) time.Time {
	fromMonday := func(d time.Weekday) int { return (int(d) + 6) % 7 }
	delta := fromMonday(w) - fromMonday(t.Weekday())
	return t.AddDate(0, 0, delta)
}

// addMonthsClamped adds n months keeping the day-of-month, clamped to the
// target month's last day (Jan 31 + 1 month = Feb 28/29)
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())+n
	// Normalize month into 1..12
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}

	return time.Date(year, time.Month(month), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func setDayOfMonth(t time.Time, day int) time.Time {
	return time.Date(t.Year(), t.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nthWeekdayOfMonth finds the nth (1-based) weekday within t's month,
// keeping t's clock time
func nthWeekdayOfMonth(t time.Time, w time.Weekday, n int) (time.Time, bool) {
	found := 0
	for day := 1; day <= daysInMonth(t.Year(), t.Month()); day++ {
		candidate := setDayOfMonth(t, day)
		if candidate.Weekday() == w {
			found++
			if found == n {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

func lastWeekdayOfMonth(t time.Time, w time.Weekday) time.Time {
	for day := daysInMonth(t.Year(), t.Month()); day > 1; day-- {
		candidate := setDayOfMonth(t, day)
		if candidate.Weekday() == w {
			return candidate
		}
	}
	return setDayOfMonth(t, 1)
}
