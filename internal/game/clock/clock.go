// Package clock converts wall-clock time into the game's calendar and
// freshness vocabulary.
package clock

import (
	"time"

	"github.com/hexfall/ritualwar/internal/game/config"
)

// FreshnessExpired labels a train whose oldest signature is past every bucket.
const FreshnessExpired = "Expired"

// Clock resolves game-local days and signature ages. The now function is
// injectable for tests; when nil, time.Now is used.
type Clock struct {
	location *time.Location
	buckets  []config.FreshnessBucket
	now      func() time.Time
}

// New builds a Clock for the rules' timezone.
func New(rules config.Rules, now func() time.Time) (*Clock, error) {
	location, err := time.LoadLocation(rules.Timezone)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{location: location, buckets: rules.FreshnessBuckets, now: now}, nil
}

// Location returns the game timezone.
func (c *Clock) Location() *time.Location {
	return c.location
}

// Now returns the current time in the game timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.location)
}

// DayKey returns the calendar-day key for t in the game timezone.
func (c *Clock) DayKey(t time.Time) string {
	return t.In(c.location).Format("2006-01-02")
}

// TodayKey returns the current calendar-day key.
func (c *Clock) TodayKey() string {
	return c.DayKey(c.Now())
}

// After returns the instant the given number of hours from now.
func (c *Clock) After(hours int) time.Time {
	return c.Now().Add(time.Duration(hours) * time.Hour)
}

// HoursSince returns the hours elapsed since t.
func (c *Clock) HoursSince(t time.Time) float64 {
	return c.Now().Sub(t).Hours()
}

// HoursUntil returns the hours remaining until t, floored at zero.
func (c *Clock) HoursUntil(t time.Time) float64 {
	hours := t.Sub(c.Now()).Hours()
	if hours < 0 {
		return 0
	}
	return hours
}

// Freshness buckets an age in hours into its label.
func (c *Clock) Freshness(hoursOld float64) string {
	for _, bucket := range c.buckets {
		if hoursOld >= bucket.MinHours && hoursOld < bucket.MaxHours {
			return bucket.Label
		}
	}
	return FreshnessExpired
}
