package warehouse

import (
	"fmt"
	"time"
)

// CalendarStart is the first day of the calendar dimension. The range end
// moves with the build clock (today + 1 year), so rebuilding on a later day
// only appends future dates.
var CalendarStart = time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateID encodes a date as its YYYYMMDD integer.
func DateID(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// FiscalQuarter maps a month to the fiscal quarter grouping used by the
// business: {1,2} Q1, {3,4,5} Q2, {6,7,8} Q3, {9,10,11,12} Q4. This is
// intentionally not the calendar quarter.
func FiscalQuarter(month time.Month) int {
	switch {
	case month <= time.February:
		return 1
	case month <= time.May:
		return 2
	case month <= time.August:
		return 3
	default:
		return 4
	}
}

// BuildCalendar produces one DateRecord per day in [CalendarStart,
// today+1y], in ascending date order. It is a pure function of today's
// date: the same clock yields a byte-identical table.
func BuildCalendar(today time.Time) []DateRecord {
	start := CalendarStart
	end := time.Date(today.Year()+1, today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var records []DateRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		records = append(records, newDateRecord(d))
	}
	return records
}

func newDateRecord(d time.Time) DateRecord {
	quarter := (int(d.Month())-1)/3 + 1
	_, week := d.ISOWeek()

	// time.Weekday starts at Sunday=0; the dimension uses Monday=1.
	dow := int(d.Weekday())
	if dow == 0 {
		dow = 7
	}

	return DateRecord{
		DateID:        DateID(d),
		Date:          d,
		Year:          d.Year(),
		Quarter:       quarter,
		FiscalQuarter: FiscalQuarter(d.Month()),
		Month:         int(d.Month()),
		Week:          week,
		DayOfMonth:    d.Day(),
		DayOfWeek:     dow,
		IsWeekend:     dow >= 6,
		MonthName:     d.Month().String(),
		DayName:       d.Weekday().String(),
		YearMonth:     d.Format("2006-01"),
		YearQuarter:   fmt.Sprintf("%d-Q%d", d.Year(), quarter),
	}
}
