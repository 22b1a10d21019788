package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func dailyEvent(start, end time.Time) *Event {
	return &Event{
		ID:          "ev-1",
		Title:       "Morning Yoga",
		Status:      StatusPublished,
		StartTime:   start,
		EndTime:     end,
		IsRecurring: true,
	}
}

func occurrenceDates(occs []Occurrence) []string {
	dates := make([]string, len(occs))
	for i, o := range occs {
		dates[i] = o.OccurrenceDate
	}
	return dates
}

func TestGenerateOccurrences_DailySequence(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{Frequency: FreqDaily, Interval: 1, Timezone: "UTC"}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-05")

	require.Len(t, occs, 5)
	for i, occ := range occs {
		expected := start.AddDate(0, 0, i)
		assert.True(t, occ.StartTime.Equal(expected), "occurrence %d start", i)
		assert.True(t, occ.EndTime.Equal(expected.Add(time.Hour)), "occurrence %d end", i)
		assert.Equal(t, expected.Format("2006-01-02"), occ.OccurrenceDate)
		assert.Equal(t, "ev-1", occ.ParentEvent)
		assert.True(t, occ.IsOccurrence)
	}
}

func TestGenerateOccurrences_Idempotent(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{Frequency: FreqDaily, Interval: 2, Timezone: "UTC"}

	first := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-31")
	second := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-31")

	assert.Equal(t, first, second)
}

func TestGenerateOccurrences_NonRecurringYieldsNothing(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	ev.IsRecurring = false
	rule := &RecurrenceRule{Frequency: FreqDaily, Interval: 1}

	assert.Nil(t, GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-05"))
	assert.Nil(t, GenerateOccurrencesForDates(dailyEvent(start, start.Add(time.Hour)), nil, "2025-03-01", "2025-03-05"))
}

func TestGenerateOccurrences_MonthlyDay31Clamps(t *testing.T) {
	start := time.Date(2025, 1, 31, 18, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(2*time.Hour))
	rule := &RecurrenceRule{
		Frequency:  FreqMonthly,
		Interval:   1,
		ByMonthDay: intPtr(31),
		Timezone:   "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-01-01", "2025-04-30")

	// February has no 31st: the occurrence lands on the 28th instead of
	// being skipped
	require.Equal(t, []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}, occurrenceDates(occs))
}

func TestGenerateOccurrences_CountTruncates(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency: FreqDaily,
		Interval:  1,
		Count:     intPtr(3),
		Timezone:  "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-12-31")

	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, occurrenceDates(occs))
}

func TestGenerateOccurrences_UntilWinsOverCount(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	until := time.Date(2025, 3, 2, 23, 59, 59, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency: FreqDaily,
		Interval:  1,
		Count:     intPtr(10),
		Until:     &until,
		Timezone:  "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-31")

	assert.Equal(t, []string{"2025-03-01", "2025-03-02"}, occurrenceDates(occs))
}

func TestGenerateOccurrences_ExceptionRemovesExactlyOneDate(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency:  FreqDaily,
		Interval:   1,
		Exceptions: []string{"2025-03-03"},
		Timezone:   "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-05")

	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-04", "2025-03-05"}, occurrenceDates(occs))
}

func TestGenerateOccurrences_WeeklyMonWedFri(t *testing.T) {
	// Monday 2025-01-06, one hour long
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency: FreqWeekly,
		Interval:  1,
		ByWeekday: []int{1, 3, 5}, // Mon, Wed, Fri
		Timezone:  "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-01-06", "2025-01-17")

	require.Equal(t, []string{
		"2025-01-06", "2025-01-08", "2025-01-10",
		"2025-01-13", "2025-01-15", "2025-01-17",
	}, occurrenceDates(occs))

	for _, occ := range occs {
		assert.Equal(t, 10, occ.StartTime.Hour())
		assert.Equal(t, time.Hour, occ.EndTime.Sub(occ.StartTime))
	}
}

func TestGenerateOccurrences_WeeklyMonWedFriWithException(t *testing.T) {
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency:  FreqWeekly,
		Interval:   1,
		ByWeekday:  []int{1, 3, 5},
		Exceptions: []string{"2025-01-08"},
		Timezone:   "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-01-06", "2025-01-17")

	assert.Equal(t, []string{
		"2025-01-06", "2025-01-10",
		"2025-01-13", "2025-01-15", "2025-01-17",
	}, occurrenceDates(occs))
}

func TestGenerateOccurrences_MonthlySecondTuesday(t *testing.T) {
	// 2025-01-14 is the second Tuesday of January
	start := time.Date(2025, 1, 14, 19, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency: FreqMonthly,
		Interval:  1,
		ByWeekday: []int{2},
		BySetPos:  intPtr(2),
		Timezone:  "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-01-01", "2025-03-31")

	assert.Equal(t, []string{"2025-01-14", "2025-02-11", "2025-03-11"}, occurrenceDates(occs))
}

func TestGenerateOccurrences_AdditionalDates(t *testing.T) {
	start := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency: FreqWeekly,
		Interval:  1,
		ByWeekday: []int{1}, // Mondays
		AdditionalDates: []string{
			"2025-03-06", // extra Thursday
			"2025-03-10", // duplicate of a rule-generated Monday
			"2025-06-01", // outside the window
		},
		Timezone: "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-03", "2025-03-16")

	require.Equal(t, []string{"2025-03-03", "2025-03-06", "2025-03-10"}, occurrenceDates(occs))

	extra := occs[1]
	assert.True(t, extra.IsAdditional)
	assert.Equal(t, 14, extra.StartTime.Hour())
	assert.Equal(t, 30, extra.StartTime.Minute())
	assert.False(t, occs[0].IsAdditional)
	assert.False(t, occs[2].IsAdditional)
}

func TestGenerateOccurrences_EndDateInclusive(t *testing.T) {
	start := time.Date(2025, 1, 17, 10, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{Frequency: FreqDaily, Interval: 1, Timezone: "UTC"}

	// The 10:00 occurrence on the window's last day must be included
	occs := GenerateOccurrencesForDates(ev, rule, "2025-01-17", "2025-01-17")

	require.Len(t, occs, 1)
	assert.Equal(t, "2025-01-17", occs[0].OccurrenceDate)
}

func TestGenerateOccurrences_WindowCropsBeforeStart(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{Frequency: FreqDaily, Interval: 1, Timezone: "UTC"}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-04", "2025-03-06")

	assert.Equal(t, []string{"2025-03-04", "2025-03-05", "2025-03-06"}, occurrenceDates(occs))
}

func TestGenerateOccurrences_CountSkipsExceptions(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := dailyEvent(start, start.Add(time.Hour))
	rule := &RecurrenceRule{
		Frequency:  FreqDaily,
		Interval:   1,
		Count:      intPtr(3),
		Exceptions: []string{"2025-03-02"},
		Timezone:   "UTC",
	}

	occs := GenerateOccurrencesForDates(ev, rule, "2025-03-01", "2025-03-31")

	// The excepted date does not consume the count budget
	assert.Equal(t, []string{"2025-03-01", "2025-03-03", "2025-03-04"}, occurrenceDates(occs))
}
