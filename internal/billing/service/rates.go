package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// Calendar arithmetic behind proration. Period bounds follow the exclusive
// month-boundary convention: a January billing runs [Jan 1, Feb 1], so
// daysBetween yields the true month length (31), never a fixed 30.

var (
	hoursPerDay     = decimal.NewFromInt(24)
	minutesPerDay   = decimal.NewFromInt(1440)
	twentyFourHours = decimal.NewFromInt(24)
)

// daysBetween is the whole-day difference between two instants.
func daysBetween(from, to time.Time) int64 {
	if to.Before(from) {
		return 0
	}
	return int64(to.Sub(from).Hours() / 24)
}

// decompose splits the calendar difference between two instants into whole
// days, leftover hours, and leftover minutes.
func decompose(from, to time.Time) (days, hours, minutes int64) {
	if to.Before(from) {
		return 0, 0, 0
	}
	d := to.Sub(from)
	days = int64(d.Hours()) / 24
	remainder := d - time.Duration(days)*24*time.Hour
	hours = int64(remainder.Hours())
	remainder -= time.Duration(hours) * time.Hour
	minutes = int64(remainder.Minutes())
	return days, hours, minutes
}

// proratedDays converts a calendar difference to fractional days.
func proratedDays(from, to time.Time) decimal.Decimal {
	days, hours, minutes := decompose(from, to)
	return decimal.NewFromInt(days).
		Add(decimal.NewFromInt(hours).Div(hoursPerDay)).
		Add(decimal.NewFromInt(minutes).Div(minutesPerDay))
}

func dailyRate(monthlyRate decimal.Decimal, totalPeriodDays int64) decimal.Decimal {
	if totalPeriodDays <= 0 {
		return decimal.Zero
	}
	return monthlyRate.Div(decimal.NewFromInt(totalPeriodDays))
}

func hourlyRate(monthlyRate decimal.Decimal, totalPeriodDays int64) decimal.Decimal {
	return dailyRate(monthlyRate, totalPeriodDays).Div(twentyFourHours)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfNextMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0)
}

func startOfPreviousMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, -1, 0)
}
