package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/radioacc/marta-sign/internal/schedule"
)

// CalendarException runs a date on another weekday's timetable
type CalendarException struct {
	Date     string `yaml:"date" validate:"required,datetime=2006-01-02"`
	Schedule string `yaml:"schedule" validate:"required"`
	Name     string `yaml:"name"`
}

type calendarFile struct {
	Exceptions []CalendarException `yaml:"exceptions" validate:"dive"`
}

// LoadCalendarExceptions reads the holiday table at path into a map of
// date (YYYY-MM-DD) to the weekday whose schedule runs. An empty path means
// no exceptions.
func LoadCalendarExceptions(path string) (map[string]time.Weekday, error) {
	if path == "" {
		return map[string]time.Weekday{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar exceptions: %w", err)
	}
	return ParseCalendarExceptions(data)
}

// ParseCalendarExceptions decodes and validates a YAML holiday table
func ParseCalendarExceptions(data []byte) (map[string]time.Weekday, error) {
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse calendar exceptions: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid calendar exceptions: %w", err)
	}

	exceptions := make(map[string]time.Weekday, len(file.Exceptions))
	for _, ex := range file.Exceptions {
		wd, err := schedule.ParseWeekday(ex.Schedule)
		if err != nil {
			return nil, fmt.Errorf("calendar exception %s: %w", ex.Date, err)
		}
		if _, dup := exceptions[ex.Date]; dup {
			return nil, fmt.Errorf("calendar exception %s listed twice", ex.Date)
		}
		exceptions[ex.Date] = wd
	}
	return exceptions, nil
}
