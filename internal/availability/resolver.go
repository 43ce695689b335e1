package availability

import "time"

// Default scan bounds for the public booking surface.
const (
	DefaultHorizonDays = 30
	DefaultMaxDates    = 7
)

// BookableDates returns up to maxDates calendar dates, ascending, drawn
// from [reference, reference+horizonDays), on which at least one rule
// applies. The scan walks day by day from the reference date and stops as
// soon as maxDates qualifying dates are found, so sparse calendars near
// the horizon boundary may yield fewer dates.
func BookableDates(rules []Rule, reference time.Time, horizonDays, maxDates int) []string {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if maxDates <= 0 {
		maxDates = DefaultMaxDates
	}

	dates := make([]string, 0, maxDates)
	if len(rules) == 0 {
		return dates
	}

	for i := 0; i < horizonDays && len(dates) < maxDates; i++ {
		day := reference.AddDate(0, 0, i)
		date := day.Format(DateLayout)
		weekday := day.Weekday()
		for _, rule := range rules {
			if rule.Occurs.appliesOn(date, weekday) {
				dates = append(dates, date)
				break
			}
		}
	}

	return dates
}

// SlotsForDate returns every time window implied by rules applying on the
// given date, in rule supply order. Overlapping or duplicate windows are
// surfaced as independent slots; merging them would change which entries a
// visitor can select.
func SlotsForDate(rules []Rule, date string) []Slot {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return nil
	}
	day, err := time.Parse(DateLayout, normalized)
	if err != nil {
		return nil
	}
	weekday := day.Weekday()

	slots := make([]Slot, 0, len(rules))
	for _, rule := range rules {
		if rule.Occurs.appliesOn(normalized, weekday) {
			slots = append(slots, rule.Window)
		}
	}
	return slots
}

// HasSlot reports whether the exact (start, end) pair is offered on date.
func HasSlot(rules []Rule, date string, slot Slot) bool {
	for _, candidate := range SlotsForDate(rules, date) {
		if candidate == slot {
			return true
		}
	}
	return false
}
