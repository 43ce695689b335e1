package availability

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWeekly(t *testing.T, id string, day int, start, end string) Rule {
	t.Helper()
	rule, err := NewWeeklyRule(id, day, start, end)
	require.NoError(t, err)
	return rule
}

func mustOnDate(t *testing.T, id, date, start, end string) Rule {
	t.Helper()
	rule, err := NewDateRule(id, date, start, end)
	require.NoError(t, err)
	return rule
}

// Sunday 2024-12-01.
var refSunday = time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC)

func TestBookableDatesNextMonday(t *testing.T) {
	rules := []Rule{mustWeekly(t, "r1", 1, "09:00", "17:00")}

	dates := BookableDates(rules, refSunday, 30, 7)

	require.NotEmpty(t, dates)
	assert.Equal(t, "2024-12-02", dates[0])
	// Only Mondays qualify, one per scanned week.
	for _, d := range dates {
		day, err := time.Parse(DateLayout, d)
		require.NoError(t, err)
		assert.Equal(t, time.Monday, day.Weekday())
	}
	assert.Len(t, dates, 5)
}

func TestBookableDatesAscendingAndCapped(t *testing.T) {
	rules := []Rule{
		mustWeekly(t, "r1", 1, "09:00", "12:00"),
		mustWeekly(t, "r2", 3, "09:00", "12:00"),
		mustWeekly(t, "r3", 5, "09:00", "12:00"),
	}

	dates := BookableDates(rules, refSunday, 30, 7)

	assert.Len(t, dates, 7)
	assert.True(t, sort.StringsAreSorted(dates))
	last, err := time.Parse(DateLayout, dates[len(dates)-1])
	require.NoError(t, err)
	assert.True(t, last.Before(refSunday.AddDate(0, 0, 30)))
}

func TestBookableDatesDateSpecific(t *testing.T) {
	rules := []Rule{mustOnDate(t, "r1", "2024-12-25", "10:00", "11:00")}

	dates := BookableDates(rules, refSunday, 30, 7)

	assert.Equal(t, []string{"2024-12-25"}, dates)

	slots := SlotsForDate(rules, "2024-12-25")
	assert.Equal(t, []Slot{{Start: "10:00", End: "11:00"}}, slots)
}

func TestBookableDatesHorizonNotExceeded(t *testing.T) {
	// Single date just past the horizon must never surface.
	rules := []Rule{mustOnDate(t, "r1", "2025-01-05", "10:00", "11:00")}

	dates := BookableDates(rules, refSunday, 30, 7)

	assert.Empty(t, dates)
}

func TestBookableDatesEmptyRules(t *testing.T) {
	assert.Empty(t, BookableDates(nil, refSunday, 30, 7))
	assert.Empty(t, SlotsForDate(nil, "2024-12-02"))
}

func TestBookableDatesFewerThanMax(t *testing.T) {
	// One qualifying date within the horizon yields one entry, not seven.
	rules := []Rule{mustOnDate(t, "r1", "2024-12-10", "08:00", "09:00")}

	dates := BookableDates(rules, refSunday, 30, 7)

	assert.Equal(t, []string{"2024-12-10"}, dates)
}

func TestSlotsForDateMatchingDatesNonEmpty(t *testing.T) {
	rules := []Rule{
		mustWeekly(t, "r1", 2, "09:00", "10:00"),
		mustOnDate(t, "r2", "2024-12-13", "14:00", "15:00"),
	}

	for _, date := range BookableDates(rules, refSunday, 30, 7) {
		assert.NotEmpty(t, SlotsForDate(rules, date), "date %s", date)
	}
}

func TestSlotsForDateOverlappingUnmerged(t *testing.T) {
	rules := []Rule{
		mustWeekly(t, "r1", 1, "09:00", "12:00"),
		mustWeekly(t, "r2", 1, "10:00", "14:00"),
	}

	slots := SlotsForDate(rules, "2024-12-02")

	require.Len(t, slots, 2)
	assert.Equal(t, Slot{Start: "09:00", End: "12:00"}, slots[0])
	assert.Equal(t, Slot{Start: "10:00", End: "14:00"}, slots[1])
}

func TestSlotsForDateSupplyOrderPreserved(t *testing.T) {
	rules := []Rule{
		mustWeekly(t, "late", 1, "15:00", "16:00"),
		mustWeekly(t, "early", 1, "08:00", "09:00"),
	}

	slots := SlotsForDate(rules, "2024-12-02")

	require.Len(t, slots, 2)
	assert.Equal(t, "15:00", slots[0].Start)
	assert.Equal(t, "08:00", slots[1].Start)
}

func TestResolutionIsIdempotent(t *testing.T) {
	rules := []Rule{
		mustWeekly(t, "r1", 1, "09:00", "17:00"),
		mustOnDate(t, "r2", "2024-12-25", "10:00", "11:00"),
	}

	first := BookableDates(rules, refSunday, 30, 7)
	second := BookableDates(rules, refSunday, 30, 7)
	assert.Equal(t, first, second)

	assert.Equal(t, SlotsForDate(rules, "2024-12-02"), SlotsForDate(rules, "2024-12-02"))
}

func TestBookableDatesMixedRuleKindsSingleEntryPerDate(t *testing.T) {
	// A recurring and a date-specific rule on the same day produce one date
	// entry but two slots.
	rules := []Rule{
		mustWeekly(t, "r1", 1, "09:00", "10:00"),
		mustOnDate(t, "r2", "2024-12-02", "11:00", "12:00"),
	}

	dates := BookableDates(rules, refSunday, 30, 7)
	require.NotEmpty(t, dates)
	assert.Equal(t, "2024-12-02", dates[0])
	count := 0
	for _, d := range dates {
		if d == "2024-12-02" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	assert.Len(t, SlotsForDate(rules, "2024-12-02"), 2)
}

func TestHasSlot(t *testing.T) {
	rules := []Rule{mustWeekly(t, "r1", 1, "09:00", "17:00")}

	assert.True(t, HasSlot(rules, "2024-12-02", Slot{Start: "09:00", End: "17:00"}))
	assert.False(t, HasSlot(rules, "2024-12-02", Slot{Start: "09:00", End: "12:00"}))
	assert.False(t, HasSlot(rules, "2024-12-03", Slot{Start: "09:00", End: "17:00"}))
}

func TestDefaultsApplied(t *testing.T) {
	rules := []Rule{mustWeekly(t, "r1", int(refSunday.Weekday()), "09:00", "10:00")}

	dates := BookableDates(rules, refSunday, 0, 0)

	assert.Len(t, dates, 5) // Sundays within 30 days of a Sunday reference.
}
