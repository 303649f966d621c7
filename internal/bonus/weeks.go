package bonus

import "time"

// Week is one bonus week inside a calendar month. Weeks 1-4 cover days 1-28 in
// seven-day blocks; months longer than 28 days get a short week 5 for the
// remaining days.
type Week struct {
	Number int
	Start  time.Time
	End    time.Time
}

func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeeksOfMonth returns the 4 or 5 bonus weeks of the given month.
func WeeksOfMonth(month, year int) []Week {
	days := DaysInMonth(month, year)
	count := 4
	if days > 28 {
		count = 5
	}

	weeks := make([]Week, 0, count)
	for n := 1; n <= count; n++ {
		startDay := (n-1)*7 + 1
		endDay := n * 7
		if endDay > days {
			endDay = days
		}
		weeks = append(weeks, Week{
			Number: n,
			Start:  time.Date(year, time.Month(month), startDay, 0, 0, 0, 0, time.UTC),
			End:    time.Date(year, time.Month(month), endDay, 0, 0, 0, 0, time.UTC),
		})
	}
	return weeks
}
