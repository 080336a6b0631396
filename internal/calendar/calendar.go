package calendar

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// Business counts US business days (weekends and federal holidays excluded).
type Business struct {
	bc  *cal.BusinessCalendar
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Business {
	if loc == nil {
		loc = time.Local
	}
	bc := cal.NewBusinessCalendar()
	bc.AddHoliday(us.Holidays...)
	return &Business{bc: bc, loc: loc, now: time.Now}
}

// NextBusinessDays returns the n business days following today, ascending.
func (b *Business) NextBusinessDays(n int) []time.Time {
	out := make([]time.Time, 0, max(n, 0))
	d := b.today()
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if b.bc.IsWorkday(d) {
			out = append(out, d)
		}
	}
	return out
}

// LeadDate is the last of the next days business days; days <= 0 is today.
func (b *Business) LeadDate(days int) time.Time {
	if days <= 0 {
		return b.today()
	}
	next := b.NextBusinessDays(days)
	return next[len(next)-1]
}

func (b *Business) today() time.Time {
	n := b.now().In(b.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, b.loc)
}
