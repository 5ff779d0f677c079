package clock

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nathan-osman/go-sunrise"
	"github.com/samber/lo"

	"github.com/wheelibin/luxman/internal/config"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

type periodStart struct {
	index int
	month time.Month
	day   int
}

// Clock produces time snapshots for a fixed location from the local clock.
type Clock struct {
	logger   *log.Logger
	cfg      config.ClockConfig
	lat      float64
	lng      float64
	loc      *time.Location
	twilight time.Duration
	periods  []periodStart
}

func NewClock(logger *log.Logger, geoLocation string, cfg config.ClockConfig, loc *time.Location) (*Clock, error) {
	lat, lng, err := config.ParseGeoLocation(geoLocation)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	twilight := time.Duration(cfg.TwilightMinutes) * time.Minute
	if twilight <= 0 {
		twilight = constants.DefaultTwilightWindow
	}

	periods := lo.FilterMap(cfg.Periods, func(s string, i int) (periodStart, bool) {
		t, err := time.Parse("01-02", s)
		return periodStart{index: i, month: t.Month(), day: t.Day()}, err == nil
	})
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].month != periods[j].month {
			return periods[i].month < periods[j].month
		}
		return periods[i].day < periods[j].day
	})

	return &Clock{logger: logger, cfg: cfg, lat: lat, lng: lng, loc: loc, twilight: twilight, periods: periods}, nil
}

func (c *Clock) Snapshot(now time.Time) models.TimeSnapshot {
	now = now.In(c.loc)
	rise, set := c.SunriseSunset(now)

	return models.TimeSnapshot{
		Now:            now,
		Period:         c.periodOf(now),
		DawnStart:      minuteOfDay(rise.Add(-c.twilight), now),
		DawnEnd:        minuteOfDay(rise, now),
		DuskStart:      minuteOfDay(set, now),
		DuskEnd:        minuteOfDay(set.Add(c.twilight), now),
		ReductionStart: minuteOfDay(TimeFromConfigTimeString(c.cfg.ReductionStart, now), now),
		ReductionEnd:   minuteOfDay(TimeFromConfigTimeString(c.cfg.ReductionEnd, now), now),
		Latitude:       c.lat,
		Longitude:      c.lng,
	}
}

// SunriseSunset returns the local sunrise and sunset for the day of baseDate,
// clamped to the configured limits.
func (c *Clock) SunriseSunset(baseDate time.Time) (time.Time, time.Time) {
	rise, set := sunrise.SunriseSunset(c.lat, c.lng, baseDate.Year(), baseDate.Month(), baseDate.Day())
	rise, set = rise.In(c.loc), set.In(c.loc)
	c.logger.Debug("Calculated local sunrise and sunset",
		"sunrise", rise.Format("15:04"),
		"sunset", set.Format("15:04"),
	)

	sunriseMin := TimeFromConfigTimeString(c.cfg.SunriseMin, baseDate)
	sunriseMax := TimeFromConfigTimeString(c.cfg.SunriseMax, baseDate)
	sunsetMin := TimeFromConfigTimeString(c.cfg.SunsetMin, baseDate)
	sunsetMax := TimeFromConfigTimeString(c.cfg.SunsetMax, baseDate)

	// polar days and nights come back as zero times and end up on a limit
	if rise.Before(sunriseMin) {
		rise = sunriseMin
	}
	if rise.After(sunriseMax) {
		rise = sunriseMax
	}
	if set.Before(sunsetMin) {
		set = sunsetMin
	}
	if set.After(sunsetMax) {
		set = sunsetMax
	}
	return rise, set
}

// periodOf returns the configured period the date falls in. Dates before the
// first period start of the year belong to the last period.
func (c *Clock) periodOf(now time.Time) uint8 {
	if len(c.periods) == 0 {
		return 0
	}
	current := c.periods[len(c.periods)-1]
	for _, p := range c.periods {
		if now.Month() > p.month || (now.Month() == p.month && now.Day() >= p.day) {
			current = p
		}
	}
	return uint8(current.index)
}

// minuteOfDay clamps t to the day of base before converting.
func minuteOfDay(t time.Time, base time.Time) uint16 {
	startOfDay := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())
	minutes := int(t.Sub(startOfDay) / time.Minute)
	return uint16(min(max(minutes, 0), constants.MinutesPerDay-1))
}

// returns a Time object built from the supplied time string (e.g. "06:30") and a base date
func TimeFromConfigTimeString(timeString string, baseDate time.Time) time.Time {
	timeHM := strings.Split(timeString, ":")
	hour, _ := strconv.Atoi(timeHM[0])
	var mins int
	if len(timeHM) > 1 {
		mins, _ = strconv.Atoi(timeHM[1])
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), hour, mins, 0, 0, baseDate.Location())
}
