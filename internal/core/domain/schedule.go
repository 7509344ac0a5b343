package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidTargetType  = errors.New("invalid target type (must be daily, weekdays, or custom)")
	ErrInvalidWeekday     = errors.New("invalid weekday (must be one of mon, tue, wed, thu, fri, sat, sun)")
	ErrTargetDaysRequired = errors.New("custom habits need at least one target day")
)

type TargetType string

const (
	TargetDaily    TargetType = "daily"
	TargetWeekdays TargetType = "weekdays"
	TargetCustom   TargetType = "custom"
)

func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetDaily, TargetWeekdays, TargetCustom:
		return t, nil
	case "":
		return TargetDaily, nil
	default:
		return "", ErrInvalidTargetType
	}
}

type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var weekOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var fromTimeWeekday = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

func WeekdayOf(d Date) Weekday {
	return fromTimeWeekday[d.Weekday()]
}

func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range weekOrder {
		if w == known {
			return w, nil
		}
	}
	return "", ErrInvalidWeekday
}

// NormalizeWeekdays parses, dedups and orders day symbols Monday first.
func NormalizeWeekdays(days []string) ([]Weekday, error) {
	seen := make(map[Weekday]bool, len(days))
	for _, raw := range days {
		w, err := ParseWeekday(raw)
		if err != nil {
			return nil, err
		}
		seen[w] = true
	}

	if len(seen) == 0 {
		return nil, nil
	}

	out := make([]Weekday, 0, len(seen))
	for _, w := range weekOrder {
		if seen[w] {
			out = append(out, w)
		}
	}
	return out, nil
}

// IsTargetDay reports whether the habit is scheduled on date d.
func IsTargetDay(h *Habit, d Date) bool {
	switch h.TargetType {
	case TargetDaily:
		return true
	case TargetWeekdays:
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case TargetCustom:
		day := WeekdayOf(d)
		for _, td := range h.TargetDays {
			if td == day {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CountTargetDays returns how many dates in [from, to] are scheduled for h.
func CountTargetDays(h *Habit, from, to Date) int {
	count := 0
	for d := from; !d.After(to); d = d.AddDays(1) {
		if IsTargetDay(h, d) {
			count++
		}
	}
	return count
}
