package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var ErrInvalidRule = errors.New("invalid recurrence rule")

// epoch anchors rules that carry no DTSTART, so INTERVAL>1 rules keep the
// same phase whatever window they are expanded over. It is a Monday.
var epoch = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

// weekdays maps time.Weekday (Sunday=0) to rrule weekdays (Monday=0).
var weekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Rule is a parsed RFC 5545 recurrence rule.
type Rule struct {
	opt rrule.ROption
}

// Parse accepts "FREQ=...", "RRULE:FREQ=..." or a DTSTART line followed by an
// RRULE line. Sub-daily frequencies are rejected because occurrences are dates.
func Parse(s string) (*Rule, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return nil, fmt.Errorf("%w: empty rule", ErrInvalidRule)
	}

	opt, err := rrule.StrToROption(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	switch opt.Freq {
	case rrule.HOURLY, rrule.MINUTELY, rrule.SECONDLY:
		return nil, fmt.Errorf("%w: frequency finer than DAILY", ErrInvalidRule)
	}
	if opt.Count > 0 && opt.Dtstart.IsZero() {
		return nil, fmt.Errorf("%w: COUNT requires DTSTART", ErrInvalidRule)
	}

	r := &Rule{opt: *opt}
	if _, err := r.build(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return r, nil
}

// PinWeekday returns a copy of a WEEKLY rule without BYDAY that recurs on day.
// Any other rule is returned unchanged.
func (r *Rule) PinWeekday(day time.Weekday) *Rule {
	if r.opt.Freq != rrule.WEEKLY || len(r.opt.Byweekday) > 0 || day < time.Sunday || day > time.Saturday {
		return r
	}
	pinned := *r
	pinned.opt.Byweekday = []rrule.Weekday{weekdays[day]}
	return &pinned
}

func (r *Rule) build() (*rrule.RRule, error) {
	opt := r.opt
	if opt.Dtstart.IsZero() {
		opt.Dtstart = epoch
	}
	return rrule.NewRRule(opt)
}

// Between returns the ascending, de-duplicated occurrence dates within the
// closed interval [start, end]. Dates are returned at midnight UTC.
func (r *Rule) Between(start, end time.Time) []time.Time {
	from, to := DateOf(start), DateOf(end)
	if to.Before(from) {
		return nil
	}

	rr, err := r.build()
	if err != nil {
		return nil
	}

	// widen by a day on both sides so rules anchored in another zone still
	// report occurrences whose local date falls inside the window
	occurrences := rr.Between(from.AddDate(0, 0, -1), to.AddDate(0, 0, 2), true)

	seen := make(map[time.Time]struct{}, len(occurrences))
	dates := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		d := DateOf(o)
		if d.Before(from) || d.After(to) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// DateOf drops the time of day from t, keeping t's own calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Expander turns recurrence rules into occurrence dates.
type Expander struct{}

func NewExpander() *Expander {
	return &Expander{}
}

// Validate reports whether rule parses.
func (e *Expander) Validate(rule string) error {
	_, err := Parse(rule)
	return err
}

// Expand returns the occurrence dates of rule within [start, end].
func (e *Expander) Expand(rule string, start, end time.Time) ([]time.Time, error) {
	r, err := Parse(rule)
	if err != nil {
		return nil, err
	}
	return r.Between(start, end), nil
}

// ExpandOnWeekday is Expand with weekly rules lacking BYDAY pinned to day.
func (e *Expander) ExpandOnWeekday(rule string, day time.Weekday, start, end time.Time) ([]time.Time, error) {
	r, err := Parse(rule)
	if err != nil {
		return nil, err
	}
	return r.PinWeekday(day).Between(start, end), nil
}
