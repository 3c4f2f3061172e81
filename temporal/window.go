// Package temporal resolves TQL calendar expressions into concrete
// half-open time windows.
//
// All windows are calendar aligned in the location of the reference instant:
// MES(0) is the wall-clock month containing the instant, not a trailing
// 30 day period. Offsets address whole units, so MES(-1) evaluated on any
// day of March is the whole of February.
package temporal

import (
	"fmt"
	"time"

	"github.com/victorcalife/tql/ast"
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration is the width of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether the two windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Equal reports whether the windows cover the same interval.
func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

// IsZero reports whether the window is the zero value.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) String() string {
	return fmt.Sprintf("[%v, %v)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Resolve computes the window for a whole calendar unit offset from the unit
// containing now. Offset 0 is the current unit, -1 the previous one.
// Weeks follow ISO 8601 and start on Monday.
func Resolve(unit ast.TimeUnit, offset int64, now time.Time) Window {
	n := int(offset)
	loc := now.Location()
	y, m, d := now.Date()
	switch unit {
	case ast.UnitMinute:
		start := time.Date(y, m, d, now.Hour(), now.Minute(), 0, 0, loc).Add(time.Duration(n) * time.Minute)
		return Window{Start: start, End: start.Add(time.Minute)}
	case ast.UnitHour:
		start := time.Date(y, m, d, now.Hour(), 0, 0, 0, loc).Add(time.Duration(n) * time.Hour)
		return Window{Start: start, End: start.Add(time.Hour)}
	case ast.UnitDay:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, n)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}
	case ast.UnitWeek:
		// Monday of the current ISO week.
		back := (int(now.Weekday()) + 6) % 7
		start := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -back+7*n)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}
	case ast.UnitMonth:
		start := time.Date(y, time.Month(int(m)+n), 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	case ast.UnitYear:
		start := time.Date(y+n, time.January, 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(1, 0, 0)}
	}
	return Window{}
}

// Instant is the AGORA window: the tolerance interval trailing now.
// End is nudged just past now so a row stamped exactly at the reference
// instant still matches.
func Instant(now time.Time, tolerance time.Duration) Window {
	return Window{Start: now.Add(-tolerance), End: now.Add(time.Nanosecond)}
}

// Last is the ULTIMOS window: the count whole units ending with the
// current one. ULTIMOS MES(12) on any day of March 2025 spans April 2024
// through the end of March 2025.
func Last(unit ast.TimeUnit, count int64, now time.Time) Window {
	if count < 1 {
		count = 1
	}
	first := Resolve(unit, -(count - 1), now)
	current := Resolve(unit, 0, now)
	return Window{Start: first.Start, End: current.End}
}

// Between joins two windows into one spanning interval.
func Between(from, to Window) Window {
	return Window{Start: from.Start, End: to.End}
}
