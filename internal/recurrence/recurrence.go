// Package recurrence expands a recurring slot request into concrete calendar dates.
//
// Dates are handled as plain calendar values. They are parsed into UTC midnight
// only to do the arithmetic and are formatted back to YYYY-MM-DD, so no time
// zone ever shifts a day.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	apperrors "tourdesk/internal/errors"
)

const dateLayout = "2006-01-02"

// MaxOccurrences caps how many dates one rule may produce
const MaxOccurrences = 1000

// Frequency is the repetition period of a rule
type Frequency string

const (
	None      Frequency = "none"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case None, Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// step returns the period as (days, months); exactly one is non-zero
func (f Frequency) step() (days, months int) {
	switch f {
	case Weekly:
		return 7, 0
	case Monthly:
		return 0, 1
	case Quarterly:
		return 0, 3
	case Yearly:
		return 0, 12
	}
	return 0, 0
}

// Rule describes one recurring slot request. Weekdays use Sunday=0.
type Rule struct {
	StartDate string
	EndDate   string
	Frequency Frequency
	Weekdays  []int
}

// Expand returns the sorted, distinct dates the rule produces.
//
// For every selected weekday the first matching date on or after StartDate is
// the anchor. Each further occurrence is anchor + k periods, computed from the
// anchor rather than from the previous occurrence, so month-end anchors do not
// drift. Occurrences after EndDate (inclusive bound) are dropped. A rule that
// would produce more than MaxOccurrences dates is rejected.
func Expand(rule Rule) ([]string, error) {
	if !rule.Frequency.Valid() {
		return nil, apperrors.Invalid("frequency", fmt.Sprintf("unknown frequency %q", rule.Frequency))
	}

	start, err := time.Parse(dateLayout, rule.StartDate)
	if err != nil {
		return nil, apperrors.Invalid("start_date", "must be a date in YYYY-MM-DD format")
	}

	if rule.Frequency == None {
		return []string{rule.StartDate}, nil
	}

	end, err := time.Parse(dateLayout, rule.EndDate)
	if err != nil {
		return nil, apperrors.Invalid("end_date", "must be a date in YYYY-MM-DD format")
	}

	for _, wd := range rule.Weekdays {
		if wd < 0 || wd > 6 {
			return nil, apperrors.Invalid("weekdays", fmt.Sprintf("weekday %d is outside 0-6", wd))
		}
	}

	dates := []string{}
	if len(rule.Weekdays) == 0 || end.Before(start) {
		return dates, nil
	}

	days, months := rule.Frequency.step()
	seen := make(map[string]struct{})

	for _, wd := range rule.Weekdays {
		anchor := start.AddDate(0, 0, (wd-int(start.Weekday())+7)%7)
		for k := 0; ; k++ {
			d := anchor.AddDate(0, k*months, k*days)
			if d.After(end) {
				break
			}
			s := d.Format(dateLayout)
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			dates = append(dates, s)
			if len(dates) > MaxOccurrences {
				return nil, apperrors.Invalid("end_date",
					fmt.Sprintf("rule produces more than %d dates, choose an earlier end date", MaxOccurrences))
			}
		}
	}

	// YYYY-MM-DD sorts lexicographically in calendar order
	sort.Strings(dates)
	return dates, nil
}

// Count returns how many dates Expand would produce, for previews
func Count(rule Rule) (int, error) {
	dates, err := Expand(rule)
	if err != nil {
		return 0, err
	}
	return len(dates), nil
}
