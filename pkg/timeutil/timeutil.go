// Package timeutil provides timezone utilities for the campus timezone
// (Asia/Almaty, UTC+5). Mentorship ages, request expiry cutoffs and
// notification windows are all evaluated campus-local.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// CampusTZ is the campus timezone (UTC+5, no DST).
// Kazakhstan abolished DST in 2005, so this is constant year-round.
var CampusTZ = time.FixedZone("Asia/Almaty", 5*60*60)

// Now returns the current time in campus timezone.
func Now() time.Time {
	return time.Now().In(CampusTZ)
}

// ToCampus converts a time to campus timezone.
func ToCampus(t time.Time) time.Time {
	return t.In(CampusTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// StartOfDay returns the start of the day (00:00:00) in campus timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToCampus(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, CampusTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in campus timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToCampus(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, CampusTZ)
}

// DaysSince calculates the number of whole days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	return int(now.Sub(then).Hours() / 24)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	days := int(a2.Sub(a1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// IsSameDay checks if two times are on the same day in campus timezone.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToCampus(t1), ToCampus(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatRussianDate is the Russian date format (DD.MM.YYYY).
	FormatRussianDate = "02.01.2006"
)

// FormatCampus formats a time in campus timezone with the given layout.
func FormatCampus(t time.Time, layout string) string {
	return ToCampus(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in campus timezone.
func FormatDateStr(t time.Time) string {
	return FormatCampus(t, FormatDate)
}

// FormatRelative returns a human-readable relative time string.
// Used in notification texts, hence the Russian wording.
func FormatRelative(t time.Time) string {
	now := Now()
	local := ToCampus(t)
	duration := now.Sub(local)

	if duration < 0 {
		duration = -duration
		return formatFutureDuration(duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "только что"
	case d < time.Hour:
		return fmt.Sprintf("%d мин назад", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d ч назад", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "вчера"
		}
		return fmt.Sprintf("%d дн назад", days)
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d нед назад", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%d мес назад", months)
		}
		return fmt.Sprintf("%d г назад", months/12)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "сейчас"
	case d < time.Hour:
		return fmt.Sprintf("через %d мин", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("через %d ч", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "завтра"
		}
		return fmt.Sprintf("через %d дн", days)
	}
}

// ParseCampus parses a time string in campus timezone.
func ParseCampus(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, CampusTZ)
}

// ParseDateCampus parses a date string (YYYY-MM-DD) in campus timezone.
func ParseDateCampus(value string) (time.Time, error) {
	return ParseCampus(FormatDate, value)
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to send notifications (9:00-22:00).
func IsSafeNotificationTime(t time.Time) bool {
	hour := ToCampus(t).Hour()
	return hour >= 9 && hour < 22
}

// NextSafeNotificationTime returns the next time when notifications are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	local := ToCampus(t)
	hour := local.Hour()

	if hour < 9 {
		// Before 9 AM - return 9 AM today
		return time.Date(local.Year(), local.Month(), local.Day(), 9, 0, 0, 0, CampusTZ)
	} else if hour >= 22 {
		// After 10 PM - return 9 AM tomorrow
		tomorrow := local.AddDate(0, 0, 1)
		return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, CampusTZ)
	}

	// Already in safe time window
	return local
}

// WeekdayNameRu returns the Russian name for a weekday.
// Used when rendering availability slots in notices.
func WeekdayNameRu(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "Понедельник"
	case time.Tuesday:
		return "Вторник"
	case time.Wednesday:
		return "Среда"
	case time.Thursday:
		return "Четверг"
	case time.Friday:
		return "Пятница"
	case time.Saturday:
		return "Суббота"
	case time.Sunday:
		return "Воскресенье"
	default:
		return ""
	}
}
