// Package timeparse turns the short time expressions users type into absolute instants.
//
// Accepted forms, tried in order:
//   - "+N"                minutes from now, e.g. "+30"
//   - "H:MM" / "HH:MM"    today at that time, tomorrow if it has already passed
//   - "HH:MM DD.MM.YYYY"  exact date and time ("-" works as a separator too)
package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxRelative bounds "+N" expressions.
const DefaultMaxRelative = 366 * 24 * time.Hour

var (
	reTimeOfDay = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	reDateTime  = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s(\d{1,2})([.\-])(\d{1,2})([.\-])(\d{4})$`)
)

// Parser resolves time expressions relative to a caller supplied "now".
// The zero value bounds relative minutes only by the time.Duration range.
type Parser struct {
	MaxRelative time.Duration
}

var defaultParser = Parser{MaxRelative: DefaultMaxRelative}

// Parse resolves input with DefaultMaxRelative.
func Parse(input string, now time.Time) (time.Time, error) {
	return defaultParser.Parse(input, now)
}

// Parse resolves input against now. All results are in now's location.
func (p Parser) Parse(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)

	if strings.HasPrefix(s, "+") {
		return p.parseRelative(s, now)
	}
	if m := reTimeOfDay.FindStringSubmatch(s); m != nil {
		return parseTimeOfDay(s, m, now)
	}
	if m := reDateTime.FindStringSubmatch(s); m != nil && m[4] == m[6] {
		return parseDateTime(s, m, now)
	}
	return time.Time{}, newError(KindUnrecognizedFormat, s, "неизвестный формат времени")
}

func (p Parser) parseRelative(s string, now time.Time) (time.Time, error) {
	digits := s[1:]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return time.Time{}, newError(KindMalformedRelative, s,
			"после «+» нужно указать число минут, например +30")
	}

	limit := int64(math.MaxInt64 / int64(time.Minute))
	if p.MaxRelative > 0 {
		limit = int64(p.MaxRelative / time.Minute)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > limit {
		return time.Time{}, newError(KindMalformedRelative, s,
			"слишком большой интервал: не больше %d минут", limit)
	}
	if n == 0 {
		return time.Time{}, newError(KindMalformedRelative, s,
			"количество минут должно быть больше нуля")
	}
	return now.Add(time.Duration(n) * time.Minute), nil
}

func parseTimeOfDay(s string, m []string, now time.Time) (time.Time, error) {
	hour, minute, err := clock(s, m[1], m[2])
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := now.Date()
	t, ok := wallClock(y, mo, d, hour, minute, now.Location())
	if !ok || !t.After(now) {
		t, ok = wallClock(y, mo, d+1, hour, minute, now.Location())
	}
	if !ok {
		return time.Time{}, newError(KindInvalidTimeOfDay, s, "времени %s:%s нет из-за перевода часов", m[1], m[2])
	}
	return t, nil
}

// wallClock builds the instant at hour:minute on the given day and reports
// whether that wall time exists in loc. A DST gap moves it to another hour.
func wallClock(year int, month time.Month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	return t, t.Hour() == hour && t.Minute() == minute
}

func parseDateTime(s string, m []string, now time.Time) (time.Time, error) {
	hour, minute, err := clock(s, m[1], m[2])
	if err != nil {
		return time.Time{}, err
	}
	day, _ := strconv.Atoi(m[3])
	month, _ := strconv.Atoi(m[5])
	year, _ := strconv.Atoi(m[7])

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())
	// time.Date normalizes overflow (31.02 becomes 03.03), so compare back.
	if month < 1 || month > 12 || t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, newError(KindInvalidCalendarDate, s,
			"некорректная дата %s%s%s%s%s", m[3], m[4], m[5], m[6], m[7])
	}
	if t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, newError(KindInvalidTimeOfDay, s,
			"времени %s:%s нет %s%s%s%s%s из-за перевода часов", m[1], m[2], m[3], m[4], m[5], m[6], m[7])
	}
	if !t.After(now) {
		return time.Time{}, newError(KindPastDateTime, s, "указанная дата уже прошла")
	}
	return t, nil
}

func clock(s, hh, mm string) (int, int, error) {
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	if hour > 23 || minute > 59 {
		return 0, 0, newError(KindInvalidTimeOfDay, s,
			"некорректное время %s:%s: часы от 0 до 23, минуты от 00 до 59", hh, mm)
	}
	return hour, minute, nil
}
