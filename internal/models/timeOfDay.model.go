package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a UTC wall-clock time stored in a postgres time column.
type TimeOfDay time.Duration

var timeOfDayLayouts = []string{"15:04:05.999999999", "15:04"}

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(
		time.Duration(hour)*time.Hour +
			time.Duration(minute)*time.Minute +
			time.Duration(second)*time.Second,
	)
}

func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeOfDayLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return TimeOfDayOf(parsed), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", value)
}

// TimeOfDayOf returns the UTC time of day of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return TimeOfDay(t.Sub(midnight))
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf(
		"%02d:%02d:%02d",
		int(d/time.Hour),
		int(d%time.Hour/time.Minute),
		int(d%time.Minute/time.Second),
	)
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = 0
		return nil
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) scanString(value string) error {
	parsed, err := ParseTimeOfDay(value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String()[:5])
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	return t.scanString(value)
}
