package timeslot

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// timeRangePattern matches "H:MM(am|pm) - H:MM(am|pm)", whitespace tolerant, any meridiem case.
var timeRangePattern = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s*:\s*(\d{2})\s*(am|pm)\s*-\s*(\d{1,2})\s*:\s*(\d{2})\s*(am|pm)\s*$`)

// dayTokens maps every day token the catalog uses to its canonical weekday.
// Lookup is an exact match; T is Tuesday, Th/R Thursday, S Saturday, Su Sunday.
var dayTokens = map[string]time.Weekday{
	"M":         time.Monday,
	"Mo":        time.Monday,
	"Monday":    time.Monday,
	"T":         time.Tuesday,
	"Tu":        time.Tuesday,
	"Tuesday":   time.Tuesday,
	"W":         time.Wednesday,
	"We":        time.Wednesday,
	"Wednesday": time.Wednesday,
	"Th":        time.Thursday,
	"R":         time.Thursday,
	"Thursday":  time.Thursday,
	"F":         time.Friday,
	"Fr":        time.Friday,
	"Friday":    time.Friday,
	"S":         time.Saturday,
	"Sa":        time.Saturday,
	"Saturday":  time.Saturday,
	"Su":        time.Sunday,
	"Sunday":    time.Sunday,
}

// TimeRange is a wall-clock interval within a single day.
type TimeRange struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// Start returns minutes since midnight.
func (r TimeRange) Start() int {
	return r.StartHour*60 + r.StartMinute
}

// End returns minutes since midnight.
func (r TimeRange) End() int {
	return r.EndHour*60 + r.EndMinute
}

func (r TimeRange) Duration() int {
	return r.End() - r.Start()
}

// ParseTimeRange parses a 12-hour range such as "10:10am - 12:40pm".
// It returns false when text does not match; that is never an error.
func ParseTimeRange(text string) (TimeRange, bool) {
	m := timeRangePattern.FindStringSubmatch(text)
	if m == nil {
		return TimeRange{}, false
	}
	startHour, ok := to24Hour(m[1], m[3])
	if !ok {
		return TimeRange{}, false
	}
	startMinute, ok := minute(m[2])
	if !ok {
		return TimeRange{}, false
	}
	endHour, ok := to24Hour(m[4], m[6])
	if !ok {
		return TimeRange{}, false
	}
	endMinute, ok := minute(m[5])
	if !ok {
		return TimeRange{}, false
	}
	return TimeRange{
		StartHour:   startHour,
		StartMinute: startMinute,
		EndHour:     endHour,
		EndMinute:   endMinute,
	}, true
}

// ParseDays maps day tokens to the set of canonical weekdays, ordered Sunday first.
// Unknown tokens are dropped.
func ParseDays(tokens []string) []time.Weekday {
	seen := make(map[time.Weekday]bool, 7)
	days := make([]time.Weekday, 0, 7)
	for _, token := range tokens {
		day, ok := dayTokens[strings.TrimSpace(token)]
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func to24Hour(hourText, meridiem string) (int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	pm := strings.EqualFold(meridiem, "pm")
	switch {
	case hour == 12 && !pm:
		return 0, true
	case hour == 12 && pm:
		return 12, true
	case pm:
		return hour + 12, true
	}
	return hour, true
}

func minute(text string) (int, bool) {
	m, err := strconv.Atoi(text)
	if err != nil || m > 59 {
		return 0, false
	}
	return m, true
}
