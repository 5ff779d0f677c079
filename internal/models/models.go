package models

import "time"

// the kind of event that makes an action fire
type TriggerKind uint8

const (
	TriggerNone TriggerKind = iota
	TriggerFixedTime
	TriggerDawn
	TriggerDusk
	TriggerALS
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerFixedTime:
		return "fixed-time"
	case TriggerDawn:
		return "dawn"
	case TriggerDusk:
		return "dusk"
	case TriggerALS:
		return "als"
	default:
		return "none"
	}
}

// an ambient light window in lux, with the hysteresis used to release a latched action
type LuxWindow struct {
	Min       uint32
	Max       uint32
	Threshold uint32
}

// Trigger is a tagged variant: only the field belonging to Kind is meaningful.
type Trigger struct {
	Kind TriggerKind
	// minute of day for TriggerFixedTime
	Minutes uint16
	// minutes relative to the start of the dawn or dusk window
	Correction int8
	// window for TriggerALS
	Lux LuxWindow
}

func FixedTime(minutes uint16) Trigger { return Trigger{Kind: TriggerFixedTime, Minutes: minutes} }
func DawnRelative(correction int8) Trigger {
	return Trigger{Kind: TriggerDawn, Correction: correction}
}
func DuskRelative(correction int8) Trigger {
	return Trigger{Kind: TriggerDusk, Correction: correction}
}
func ALS(min, max, threshold uint32) Trigger {
	return Trigger{Kind: TriggerALS, Lux: LuxWindow{Min: min, Max: max, Threshold: threshold}}
}

// a set of days of the week, indexed by time.Weekday
type Weekdays uint8

const AllWeekdays Weekdays = 0x7F

func WeekdaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << d
	}
	return w
}

func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<d) != 0
}

// a set of calendar periods (0-7) supplied by the time source
type Periods uint8

const AllPeriods Periods = 0xFF

func PeriodsOf(periods ...uint8) Periods {
	var p Periods
	for _, n := range periods {
		p |= 1 << n
	}
	return p
}

func (p Periods) Has(period uint8) bool {
	return period < 8 && p&(1<<period) != 0
}

type CalendarDate struct {
	Day   uint8
	Month time.Month
}

// Filter narrows when a time based trigger applies.
type Filter struct {
	Weekdays Weekdays
	Periods  Periods
	// only used when HasDate is set
	Date    CalendarDate
	HasDate bool
}

// a single scheduled rule
type Action struct {
	// negative ids disable the action, 0 also marks an empty slot
	ID      int8
	Trigger Trigger
	Filter  Filter
	// -1 disabled, 0 off, 100 on, anything between dims
	Output int8
	// set while an ALS action holds the output; cleared by hysteresis
	ALSActive bool
}

// the cleared slot sentinel
func DisabledAction() Action {
	return Action{Output: -1}
}

func (a Action) Enabled() bool {
	return a.ID >= 0 && a.Trigger.Kind != TriggerNone
}

// a full snapshot of the calendar and astronomical state for one instant
type TimeSnapshot struct {
	Now    time.Time
	Period uint8

	// all windows are minutes of the day
	DawnStart      uint16
	DawnEnd        uint16
	DuskStart      uint16
	DuskEnd        uint16
	ReductionStart uint16
	ReductionEnd   uint16

	Latitude  float64
	Longitude float64
}

// returns the minute of the day of the snapshot
func (s TimeSnapshot) MinuteOfDay() uint16 {
	return uint16(s.Now.Hour()*60 + s.Now.Minute())
}
