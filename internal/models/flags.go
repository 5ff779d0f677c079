package models

import "time"

// ActionFlags is the packed trigger mask used on the wire and in storage.
//
//	bits 0-6   weekdays, Sunday at bit 0 then Saturday down to Monday at bit 6
//	bits 7-14  calendar periods 0-7
//	bit  15    fixed time
//	bit  16    fixed date
//	bit  17    dawn relative
//	bit  18    dusk relative
//	bit  19    ambient light
//	bit  20    ambient light latch
type ActionFlags uint32

const (
	FlagSunday ActionFlags = 1 << iota
	FlagSaturday
	FlagFriday
	FlagThursday
	FlagWednesday
	FlagTuesday
	FlagMonday
)

const periodShift = 7

const (
	FlagFixedTime ActionFlags = 1 << (15 + iota)
	FlagFixedDate
	FlagDawn
	FlagDusk
	FlagALS
	FlagALSActive
)

const FlagsWeekdays = FlagSunday | FlagSaturday | FlagFriday | FlagThursday | FlagWednesday | FlagTuesday | FlagMonday
const FlagsPeriods ActionFlags = 0xFF << periodShift
const FlagsTimeTriggers = FlagFixedTime | FlagDawn | FlagDusk

func weekdayFlag(d time.Weekday) ActionFlags {
	return 1 << ((7 - int(d)) % 7)
}

// PackedAction is the fixed layout form of an Action.
type PackedAction struct {
	ID         int8
	Flags      ActionFlags
	Date       uint16
	Time       uint16
	Correction int8
	Lux        LuxWindow
	Output     int8
}

// dates pack as day*128 + month, month counted from 0 (January is 0)
func packDate(d CalendarDate) uint16 {
	var month uint16
	if d.Month > time.January {
		month = uint16(d.Month-time.January) & 0x7F
	}
	return uint16(d.Day)<<7 | month
}

func unpackDate(v uint16) CalendarDate {
	return CalendarDate{Day: uint8(v >> 7), Month: time.January + time.Month(v&0x7F)}
}

func (a Action) Flags() ActionFlags {
	var f ActionFlags
	for d := time.Sunday; d <= time.Saturday; d++ {
		if a.Filter.Weekdays.Has(d) {
			f |= weekdayFlag(d)
		}
	}
	f |= ActionFlags(a.Filter.Periods) << periodShift

	switch a.Trigger.Kind {
	case TriggerFixedTime:
		f |= FlagFixedTime
	case TriggerDawn:
		f |= FlagDawn
	case TriggerDusk:
		f |= FlagDusk
	case TriggerALS:
		f |= FlagALS
	}
	if a.Filter.HasDate {
		f |= FlagFixedDate
	}
	if a.ALSActive {
		f |= FlagALSActive
	}
	return f
}

func (a Action) Pack() PackedAction {
	p := PackedAction{ID: a.ID, Flags: a.Flags(), Output: a.Output}
	if a.Filter.HasDate {
		p.Date = packDate(a.Filter.Date)
	}
	switch a.Trigger.Kind {
	case TriggerFixedTime:
		p.Time = a.Trigger.Minutes
	case TriggerDawn, TriggerDusk:
		p.Correction = a.Trigger.Correction
	case TriggerALS:
		p.Lux = a.Trigger.Lux
	}
	return p
}

// Unpack rebuilds the tagged form. When a mask carries several trigger
// bits, dawn wins over dusk, dusk over fixed time and fixed time over ALS.
func (p PackedAction) Unpack() Action {
	a := Action{ID: p.ID, Output: p.Output, ALSActive: p.Flags&FlagALSActive != 0}

	for d := time.Sunday; d <= time.Saturday; d++ {
		if p.Flags&weekdayFlag(d) != 0 {
			a.Filter.Weekdays |= 1 << d
		}
	}
	a.Filter.Periods = Periods((p.Flags & FlagsPeriods) >> periodShift)
	if p.Flags&FlagFixedDate != 0 {
		a.Filter.HasDate = true
		a.Filter.Date = unpackDate(p.Date)
	}

	switch {
	case p.Flags&FlagDawn != 0:
		a.Trigger = DawnRelative(p.Correction)
	case p.Flags&FlagDusk != 0:
		a.Trigger = DuskRelative(p.Correction)
	case p.Flags&FlagFixedTime != 0:
		a.Trigger = FixedTime(p.Time)
	case p.Flags&FlagALS != 0:
		a.Trigger = Trigger{Kind: TriggerALS, Lux: p.Lux}
	}
	return a
}
