package schedule

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

var ErrIndexOutOfRange = errors.New("action index out of range")
var ErrIntegrityFailed = errors.New("action list integrity check failed")

// Scheduler evaluates an action list it does not own. The slice usually
// aliases the live configuration, so latch changes made while evaluating
// ambient light land in that configuration directly.
type Scheduler struct {
	logger  *log.Logger
	actions []models.Action
}

func NewScheduler(logger *log.Logger, actions []models.Action) *Scheduler {
	return &Scheduler{logger: logger, actions: actions}
}

func (s *Scheduler) Actions() []models.Action {
	return s.actions
}

// EvaluateTime returns the output of the first enabled fixed time action due at
// the snapshot's minute on the snapshot's weekday. The first match decides, even
// when its output is the disabled sentinel.
func (s *Scheduler) EvaluateTime(snap models.TimeSnapshot) (int8, bool) {
	minute := snap.MinuteOfDay()
	weekday := snap.Now.Weekday()

	action, found := lo.Find(s.actions, func(a models.Action) bool {
		return a.ID >= 0 &&
			a.Trigger.Kind == models.TriggerFixedTime &&
			a.Trigger.Minutes == minute &&
			a.Filter.Weekdays.Has(weekday)
	})
	if !found || action.Output < 0 {
		return 0, false
	}

	s.logger.Debug("time action matched", "id", action.ID, "minute", minute, "output", action.Output)
	return action.Output, true
}

// EvaluateLux latches unlatched ALS actions whose window holds lux, in slot
// order, until one with an enabled output is found and returns that output.
// It then releases every
// latched action that lux has left by more than its threshold.
func (s *Scheduler) EvaluateLux(lux uint32) (int8, bool) {
	var (
		result int8
		found  bool
	)

	for i := range s.actions {
		a := &s.actions[i]
		if a.ID < 0 || a.Trigger.Kind != models.TriggerALS || a.ALSActive {
			continue
		}
		if lux >= a.Trigger.Lux.Min && lux <= a.Trigger.Lux.Max {
			a.ALSActive = true
			s.logger.Debug("als action latched", "id", a.ID, "lux", lux)
			if a.Output >= 0 {
				result, found = a.Output, true
				break
			}
		}
	}

	for i := range s.actions {
		a := &s.actions[i]
		if a.ID < 0 || a.Trigger.Kind != models.TriggerALS || !a.ALSActive {
			continue
		}
		low := saturatingSub(a.Trigger.Lux.Min, a.Trigger.Lux.Threshold)
		high := saturatingAdd(a.Trigger.Lux.Max, a.Trigger.Lux.Threshold)
		if lux < low || lux > high {
			a.ALSActive = false
			s.logger.Debug("als action released", "id", a.ID, "lux", lux)
		}
	}

	return result, found
}

// ExecutionTimeOf resolves the minute of day an action runs on the snapshot's
// date, if it runs at all.
func (s *Scheduler) ExecutionTimeOf(a models.Action, snap models.TimeSnapshot) (uint16, bool) {
	if !a.Filter.Periods.Has(snap.Period) {
		return 0, false
	}
	if a.Filter.HasDate &&
		(a.Filter.Date.Day != uint8(snap.Now.Day()) || a.Filter.Date.Month != snap.Now.Month()) {
		return 0, false
	}
	if a.Filter.Weekdays != 0 && !a.Filter.Weekdays.Has(snap.Now.Weekday()) {
		return 0, false
	}

	var minutes int
	switch a.Trigger.Kind {
	case models.TriggerDawn:
		minutes = int(snap.DawnStart) + int(a.Trigger.Correction)
	case models.TriggerDusk:
		minutes = int(snap.DuskStart) + int(a.Trigger.Correction)
	case models.TriggerFixedTime:
		minutes = int(a.Trigger.Minutes)
	default:
		return 0, false
	}
	if minutes < 0 {
		return 0, false
	}
	return uint16(minutes), true
}

// FindCurrentAction returns the action matching filter that most recently
// executed today at or before the snapshot's minute. Ties keep the earliest slot.
func (s *Scheduler) FindCurrentAction(filter models.ActionFlags, snap models.TimeSnapshot) (models.Action, bool) {
	now := snap.MinuteOfDay()

	var (
		best     models.Action
		bestTime uint16
		found    bool
	)
	for _, a := range s.actions {
		if !a.Enabled() || a.Flags()&filter == 0 {
			continue
		}
		at, ok := s.ExecutionTimeOf(a, snap)
		if !ok || at > now {
			continue
		}
		if !found || at > bestTime {
			best, bestTime, found = a, at, true
		}
	}
	return best, found
}

func (s *Scheduler) SetAction(pos int, a models.Action) error {
	if pos < 0 || pos >= len(s.actions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, pos)
	}
	s.actions[pos] = a
	return nil
}

func (s *Scheduler) ClearByPosition(pos int) error {
	return s.SetAction(pos, models.DisabledAction())
}

func (s *Scheduler) ClearByID(id int8) {
	for i := range s.actions {
		if s.actions[i].ID == id {
			s.actions[i] = models.DisabledAction()
		}
	}
}

func (s *Scheduler) ClearAll() {
	for i := range s.actions {
		s.actions[i] = models.DisabledAction()
	}
}

// CountConfigured counts slots with a non-zero id. A configured action with
// id 0 is indistinguishable from an empty slot and is not counted.
func (s *Scheduler) CountConfigured() uint8 {
	return uint8(lo.CountBy(s.actions, func(a models.Action) bool { return a.ID != 0 }))
}

// CheckIntegrity validates every slot of the list.
func (s *Scheduler) CheckIntegrity() error {
	for i, a := range s.actions {
		if err := checkAction(a); err != nil {
			return fmt.Errorf("%w: slot %d: %s", ErrIntegrityFailed, i, err)
		}
	}
	return nil
}

// CheckAction validates a single action outside of any list.
func CheckAction(a models.Action) error {
	if err := checkAction(a); err != nil {
		return fmt.Errorf("%w: %s", ErrIntegrityFailed, err)
	}
	return nil
}

func checkAction(a models.Action) error {
	if int(a.ID) >= constants.MaxActions {
		return fmt.Errorf("id %d exceeds capacity", a.ID)
	}
	if a.Output < -1 || a.Output > constants.MaxOutputValue {
		return fmt.Errorf("output %d out of range", a.Output)
	}
	if a.Trigger.Kind == models.TriggerFixedTime && a.Trigger.Minutes >= constants.MinutesPerDay {
		return fmt.Errorf("time %d out of range", a.Trigger.Minutes)
	}
	if a.Filter.HasDate && (a.Filter.Date.Day < 1 || a.Filter.Date.Day > 31) {
		return fmt.Errorf("day %d out of range", a.Filter.Date.Day)
	}
	return nil
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

func saturatingAdd(a, b uint32) uint32 {
	if a > ^uint32(0)-b {
		return ^uint32(0)
	}
	return a + b
}
