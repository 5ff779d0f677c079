package schedule_test

import (
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
	"github.com/wheelibin/luxman/internal/schedule"
)

// 2023-01-02 is a Monday
var monday0730 = time.Date(2023, 1, 2, 7, 30, 0, 0, time.UTC)

func newScheduler(actions ...models.Action) (*schedule.Scheduler, []models.Action) {
	list := make([]models.Action, constants.MaxActions)
	for i := range list {
		list[i] = models.DisabledAction()
	}
	copy(list, actions)
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	return schedule.NewScheduler(logger, list), list
}

func timeAction(id int8, minutes uint16, days models.Weekdays, output int8) models.Action {
	return models.Action{
		ID:      id,
		Trigger: models.FixedTime(minutes),
		Filter:  models.Filter{Weekdays: days, Periods: models.AllPeriods},
		Output:  output,
	}
}

func alsAction(id int8, min, max, thres uint32, output int8) models.Action {
	return models.Action{ID: id, Trigger: models.ALS(min, max, thres), Output: output}
}

func Test_EvaluateTime(t *testing.T) {

	snap := models.TimeSnapshot{Now: monday0730}

	t.Run("should return the output of a due action on a matching weekday", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(timeAction(1, 450, models.WeekdaysOf(time.Monday), 80))

		out, ok := s.EvaluateTime(snap)

		assert.True(t, ok)
		assert.Equal(t, int8(80), out)
	})

	t.Run("should not match when the weekday is not selected", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(timeAction(1, 450, models.WeekdaysOf(time.Tuesday, time.Sunday), 80))

		_, ok := s.EvaluateTime(snap)

		assert.False(t, ok)
	})

	t.Run("should not match without any weekday selected", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(timeAction(1, 450, 0, 80))

		_, ok := s.EvaluateTime(snap)

		assert.False(t, ok)
	})

	t.Run("should not match a different minute", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(timeAction(1, 451, models.AllWeekdays, 80))

		_, ok := s.EvaluateTime(snap)

		assert.False(t, ok)
	})

	t.Run("should skip disabled actions", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			timeAction(-1, 450, models.AllWeekdays, 10),
			timeAction(2, 450, models.AllWeekdays, 20),
		)

		out, ok := s.EvaluateTime(snap)

		assert.True(t, ok)
		assert.Equal(t, int8(20), out)
	})

	t.Run("should let the first match in list order decide", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			timeAction(1, 450, models.AllWeekdays, 30),
			timeAction(2, 450, models.AllWeekdays, 60),
		)

		out, ok := s.EvaluateTime(snap)

		assert.True(t, ok)
		assert.Equal(t, int8(30), out)
	})

	t.Run("should return nothing when the first match has a disabled output", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			timeAction(1, 450, models.AllWeekdays, -1),
			timeAction(2, 450, models.AllWeekdays, 60),
		)

		_, ok := s.EvaluateTime(snap)

		assert.False(t, ok)
	})

	t.Run("should ignore non fixed time triggers", func(t *testing.T) {
		t.Parallel()
		dawn := models.Action{ID: 1, Trigger: models.DawnRelative(0), Filter: models.Filter{Weekdays: models.AllWeekdays}, Output: 50}
		s, _ := newScheduler(dawn)

		_, ok := s.EvaluateTime(models.TimeSnapshot{Now: monday0730, DawnStart: 450})

		assert.False(t, ok)
	})
}

func Test_EvaluateLux(t *testing.T) {

	t.Run("should latch an in range action and return its output", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(alsAction(1, 10, 50, 5, 70))

		out, ok := s.EvaluateLux(30)

		assert.True(t, ok)
		assert.Equal(t, int8(70), out)
		assert.True(t, list[0].ALSActive)
	})

	t.Run("should treat the window bounds as inclusive", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(alsAction(1, 10, 50, 5, 70))

		_, okMin := s.EvaluateLux(10)
		assert.True(t, okMin)

		s, _ = newScheduler(alsAction(1, 10, 50, 5, 70))
		_, okMax := s.EvaluateLux(50)
		assert.True(t, okMax)
	})

	t.Run("should not fire again while latched", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(alsAction(1, 10, 50, 5, 70))

		_, first := s.EvaluateLux(30)
		_, second := s.EvaluateLux(35)

		assert.True(t, first)
		assert.False(t, second)
	})

	t.Run("should keep the latch inside the hysteresis band", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(alsAction(1, 10, 50, 5, 70))

		s.EvaluateLux(30)
		s.EvaluateLux(55)
		assert.True(t, list[0].ALSActive)
		s.EvaluateLux(5)
		assert.True(t, list[0].ALSActive)
	})

	t.Run("should release the latch outside the hysteresis band and fire again on re-entry", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(alsAction(1, 10, 50, 5, 70))

		s.EvaluateLux(30)
		_, ok := s.EvaluateLux(56)
		assert.False(t, ok)
		assert.False(t, list[0].ALSActive)

		out, ok := s.EvaluateLux(40)
		assert.True(t, ok)
		assert.Equal(t, int8(70), out)
	})

	t.Run("should saturate the lower band at zero", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(alsAction(1, 2, 50, 5, 70))

		s.EvaluateLux(3)
		s.EvaluateLux(0)

		assert.True(t, list[0].ALSActive)
	})

	t.Run("should latch past an action with a disabled output", func(t *testing.T) {
		t.Parallel()
		// arrange
		s, list := newScheduler(
			alsAction(1, 100, 200, 5, -1),
			alsAction(2, 100, 200, 5, 70),
		)

		// act
		out, ok := s.EvaluateLux(150)

		// assert
		assert.True(t, ok)
		assert.Equal(t, int8(70), out)
		assert.True(t, list[0].ALSActive)
		assert.True(t, list[1].ALSActive)
	})

	t.Run("should latch only the first in range action", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(
			alsAction(1, 10, 50, 5, 70),
			alsAction(2, 20, 40, 5, 20),
		)

		out, ok := s.EvaluateLux(30)

		assert.True(t, ok)
		assert.Equal(t, int8(70), out)
		assert.True(t, list[0].ALSActive)
		assert.False(t, list[1].ALSActive)

		// the second action takes over on the next update
		out, ok = s.EvaluateLux(30)
		assert.True(t, ok)
		assert.Equal(t, int8(20), out)
		assert.True(t, list[1].ALSActive)
	})

	t.Run("should skip disabled and non als actions", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			alsAction(-3, 10, 50, 5, 70),
			timeAction(1, 450, models.AllWeekdays, 10),
		)

		_, ok := s.EvaluateLux(30)

		assert.False(t, ok)
	})
}

func Test_ExecutionTimeOf(t *testing.T) {

	snap := models.TimeSnapshot{Now: monday0730, Period: 2, DawnStart: 400, DuskStart: 1000}

	tests := []struct {
		name     string
		action   models.Action
		expected uint16
		ok       bool
	}{
		{
			name:     "fixed time in the current period",
			action:   models.Action{ID: 1, Trigger: models.FixedTime(600), Filter: models.Filter{Periods: models.PeriodsOf(2)}},
			expected: 600, ok: true,
		},
		{
			name:   "period not selected",
			action: models.Action{ID: 1, Trigger: models.FixedTime(600), Filter: models.Filter{Periods: models.PeriodsOf(1)}},
		},
		{
			name:     "dawn with a negative correction",
			action:   models.Action{ID: 1, Trigger: models.DawnRelative(-30), Filter: models.Filter{Periods: models.AllPeriods}},
			expected: 370, ok: true,
		},
		{
			name:     "dusk with a positive correction",
			action:   models.Action{ID: 1, Trigger: models.DuskRelative(15), Filter: models.Filter{Periods: models.AllPeriods}},
			expected: 1015, ok: true,
		},
		{
			name:     "weekday selected",
			action:   models.Action{ID: 1, Trigger: models.FixedTime(10), Filter: models.Filter{Periods: models.AllPeriods, Weekdays: models.WeekdaysOf(time.Monday)}},
			expected: 10, ok: true,
		},
		{
			name:   "weekday not selected",
			action: models.Action{ID: 1, Trigger: models.FixedTime(10), Filter: models.Filter{Periods: models.AllPeriods, Weekdays: models.WeekdaysOf(time.Friday)}},
		},
		{
			name: "matching date",
			action: models.Action{ID: 1, Trigger: models.FixedTime(20), Filter: models.Filter{
				Periods: models.AllPeriods, HasDate: true, Date: models.CalendarDate{Day: 2, Month: time.January},
			}},
			expected: 20, ok: true,
		},
		{
			name: "other date",
			action: models.Action{ID: 1, Trigger: models.FixedTime(20), Filter: models.Filter{
				Periods: models.AllPeriods, HasDate: true, Date: models.CalendarDate{Day: 2, Month: time.February},
			}},
		},
		{
			name:   "als has no execution time",
			action: models.Action{ID: 1, Trigger: models.ALS(1, 2, 3), Filter: models.Filter{Periods: models.AllPeriods}},
		},
	}

	s, _ := newScheduler()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			at, ok := s.ExecutionTimeOf(tt.action, snap)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, at)
			}
		})
	}

	t.Run("should not resolve a correction before midnight", func(t *testing.T) {
		action := models.Action{ID: 1, Trigger: models.DawnRelative(-30), Filter: models.Filter{Periods: models.AllPeriods}}

		_, ok := s.ExecutionTimeOf(action, models.TimeSnapshot{Now: monday0730, DawnStart: 10})

		assert.False(t, ok)
	})
}

func Test_FindCurrentAction(t *testing.T) {

	snap := models.TimeSnapshot{Now: monday0730, DawnStart: 400}
	all := models.Filter{Periods: models.AllPeriods}

	t.Run("should return the most recent action at or before now", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			models.Action{ID: 1, Trigger: models.FixedTime(300), Filter: all, Output: 10},
			models.Action{ID: 2, Trigger: models.FixedTime(450), Filter: all, Output: 20},
			models.Action{ID: 3, Trigger: models.FixedTime(451), Filter: all, Output: 30},
			models.Action{ID: 4, Trigger: models.DawnRelative(10), Filter: all, Output: 40},
		)

		a, ok := s.FindCurrentAction(models.FlagsTimeTriggers, snap)

		require.True(t, ok)
		assert.Equal(t, int8(2), a.ID)
	})

	t.Run("should keep the earlier slot on a tie", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			models.Action{ID: 5, Trigger: models.FixedTime(420), Filter: all, Output: 10},
			models.Action{ID: 6, Trigger: models.FixedTime(420), Filter: all, Output: 20},
		)

		a, ok := s.FindCurrentAction(models.FlagsTimeTriggers, snap)

		require.True(t, ok)
		assert.Equal(t, int8(5), a.ID)
	})

	t.Run("should only consider actions matching the filter", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(
			models.Action{ID: 1, Trigger: models.FixedTime(300), Filter: all, Output: 10},
			models.Action{ID: 2, Trigger: models.DawnRelative(0), Filter: all, Output: 20},
		)

		a, ok := s.FindCurrentAction(models.FlagFixedTime, snap)

		require.True(t, ok)
		assert.Equal(t, int8(1), a.ID)
	})

	t.Run("should return nothing when every action is in the future", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(models.Action{ID: 1, Trigger: models.FixedTime(1200), Filter: all, Output: 10})

		_, ok := s.FindCurrentAction(models.FlagsTimeTriggers, snap)

		assert.False(t, ok)
	})
}

func Test_ActionListManagement(t *testing.T) {

	t.Run("should reject a position beyond capacity", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler()

		err := s.SetAction(constants.MaxActions, timeAction(1, 1, 0, 1))

		assert.ErrorIs(t, err, schedule.ErrIndexOutOfRange)
	})

	t.Run("should set and clear by position", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler()

		require.NoError(t, s.SetAction(3, timeAction(3, 1, 0, 1)))
		assert.Equal(t, int8(3), list[3].ID)

		require.NoError(t, s.ClearByPosition(3))
		assert.Equal(t, models.DisabledAction(), list[3])
	})

	t.Run("should clear every slot carrying an id", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(timeAction(4, 1, 0, 1), timeAction(5, 1, 0, 1), timeAction(4, 2, 0, 1))

		s.ClearByID(4)

		assert.Equal(t, models.DisabledAction(), list[0])
		assert.Equal(t, int8(5), list[1].ID)
		assert.Equal(t, models.DisabledAction(), list[2])
	})

	t.Run("should clear the whole list", func(t *testing.T) {
		t.Parallel()
		s, list := newScheduler(timeAction(4, 1, 0, 1), timeAction(5, 1, 0, 1))

		s.ClearAll()

		for _, a := range list {
			assert.Equal(t, models.DisabledAction(), a)
		}
		assert.Equal(t, uint8(0), s.CountConfigured())
	})

	t.Run("should not count an action with id 0", func(t *testing.T) {
		t.Parallel()
		s, _ := newScheduler(timeAction(0, 1, 0, 1), timeAction(1, 1, 0, 1), timeAction(-1, 1, 0, 1))

		assert.Equal(t, uint8(2), s.CountConfigured())
	})
}

func Test_CheckIntegrity(t *testing.T) {

	tests := []struct {
		name   string
		action models.Action
		valid  bool
	}{
		{name: "cleared slot", action: models.DisabledAction(), valid: true},
		{name: "full output", action: timeAction(19, 1439, 0, 100), valid: true},
		{name: "id at capacity", action: timeAction(20, 1, 0, 1)},
		{name: "time past the end of day", action: timeAction(1, 1440, 0, 1)},
		{name: "output above 100", action: timeAction(1, 1, 0, 101)},
		{name: "output below disabled", action: timeAction(1, 1, 0, -2)},
		{
			name:   "date day zero",
			action: models.Action{ID: 1, Trigger: models.FixedTime(1), Filter: models.Filter{HasDate: true}, Output: 1},
		},
		{
			name:   "date day 31",
			action: models.Action{ID: 1, Trigger: models.FixedTime(1), Filter: models.Filter{HasDate: true, Date: models.CalendarDate{Day: 31, Month: time.May}}, Output: 1},
			valid:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newScheduler(tt.action)
			err := s.CheckIntegrity()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, schedule.ErrIntegrityFailed)
			}
		})
	}
}
