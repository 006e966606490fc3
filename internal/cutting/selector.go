// Package cutting holds the range state behind the interactive cutting
// session and converts it to and from the representations callers use.
package cutting

// TimeRange is a begin/end selection in whole seconds. When FromBegin is set
// the effective begin is the start of the media; when ToEnd is set the
// effective end is the end of the media. The numeric fields keep their values
// either way.
type TimeRange struct {
	BeginTime int
	EndTime   int
	FromBegin bool
	ToEnd     bool
}

// EntireMedia is the range a new session starts with.
func EntireMedia() TimeRange {
	return TimeRange{FromBegin: true, ToEnd: true}
}

// Range is an explicit begin/end selection owned by a caller.
type Range interface {
	BeginTime() int
	SetBeginTime(sec int)
	EndTime() int
	SetEndTime(sec int)
	FromBegin() bool
	SetFromBegin(fromBegin bool)
	ToEnd() bool
	SetToEnd(toEnd bool)
}

// RangeSelector is a Range with an upper bound on selectable times.
type RangeSelector interface {
	Range
	MaxTime() int
	SetMaxTime(sec int)
}

// Selector is the in-memory RangeSelector used by the dialog.
// A zero MaxTime means the media duration is not known yet.
type Selector struct {
	r       TimeRange
	maxTime int
}

// NewSelector returns a selector covering the entire media.
func NewSelector() *Selector {
	return &Selector{r: EntireMedia()}
}

func (s *Selector) BeginTime() int { return s.r.BeginTime }
func (s *Selector) EndTime() int { return s.r.EndTime }
func (s *Selector) FromBegin() bool { return s.r.FromBegin }
func (s *Selector) ToEnd() bool { return s.r.ToEnd }
func (s *Selector) MaxTime() int { return s.maxTime }

func (s *Selector) SetBeginTime(sec int) { s.r.BeginTime = s.clamp(sec) }
func (s *Selector) SetEndTime(sec int) { s.r.EndTime = s.clamp(sec) }
func (s *Selector) SetFromBegin(from bool) { s.r.FromBegin = from }
func (s *Selector) SetToEnd(toEnd bool) { s.r.ToEnd = toEnd }

// SetMaxTime changes the selectable span. Current values are left alone;
// only later edits are clamped.
func (s *Selector) SetMaxTime(sec int) {
	s.maxTime = sec
}

// TimeRange returns a copy of the selection.
func (s *Selector) TimeRange() TimeRange { return s.r }

func (s *Selector) clamp(sec int) int {
	if s.maxTime > 0 && sec > s.maxTime {
		return s.maxTime
	}
	return sec
}

// copyRange copies the four range fields from src to dst.
func copyRange(dst, src Range) {
	dst.SetBeginTime(src.BeginTime())
	dst.SetEndTime(src.EndTime())
	dst.SetFromBegin(src.FromBegin())
	dst.SetToEnd(src.ToEnd())
}
